package engine

import (
	"fmt"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// Settings holds the canvas bounds and interaction tuning used by every
// component of the engine. Lengths are world units unless noted.
type Settings struct {
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`

	MinNodeSize     document.Size `json:"minNodeSize"`
	MaxNodeSize     document.Size `json:"maxNodeSize"`
	DefaultNodeSize document.Size `json:"defaultNodeSize"`

	MinZoom    float64        `json:"minZoom"`
	MaxZoom    float64        `json:"maxZoom"`
	ZoomStep   float64        `json:"zoomStep"`
	DefaultPan document.Point `json:"defaultPan"`

	// LabelOffset lifts link labels above the link midpoint.
	LabelOffset float64 `json:"labelOffset"`

	// LinkHitTolerance and HandleSize are screen pixels.
	LinkHitTolerance float64 `json:"linkHitTolerance"`
	HandleSize       float64 `json:"handleSize"`
}

// DefaultSettings returns the stock canvas configuration.
func DefaultSettings() Settings {
	return Settings{
		CanvasWidth:      4000,
		CanvasHeight:     4000,
		MinNodeSize:      document.Size{Width: 80, Height: 60},
		MaxNodeSize:      document.Size{Width: 400, Height: 300},
		DefaultNodeSize:  document.Size{Width: 160, Height: 80},
		MinZoom:          0.1,
		MaxZoom:          3.0,
		ZoomStep:         0.1,
		DefaultPan:       document.Point{X: 0, Y: 0},
		LabelOffset:      8,
		LinkHitTolerance: 6,
		HandleSize:       10,
	}
}

// Validate rejects settings under which a node could not fit the canvas.
// The canvas must hold a minimum-size node, or clamping would push it past
// the far edge.
func (s Settings) Validate() error {
	if !finite(s.CanvasWidth, s.CanvasHeight,
		s.MinNodeSize.Width, s.MinNodeSize.Height, s.MaxNodeSize.Width, s.MaxNodeSize.Height,
		s.DefaultNodeSize.Width, s.DefaultNodeSize.Height,
		s.MinZoom, s.MaxZoom, s.ZoomStep, s.DefaultPan.X, s.DefaultPan.Y,
		s.LabelOffset, s.LinkHitTolerance, s.HandleSize) {
		return fmt.Errorf("%w: values must be finite", ErrInvalidSettings)
	}
	switch {
	case s.CanvasWidth <= 0 || s.CanvasHeight <= 0:
		return fmt.Errorf("%w: canvas size must be positive", ErrInvalidSettings)
	case s.MinNodeSize.Width <= 0 || s.MinNodeSize.Height <= 0 ||
		s.MinNodeSize.Width > s.MaxNodeSize.Width || s.MinNodeSize.Height > s.MaxNodeSize.Height:
		return fmt.Errorf("%w: node size bounds must satisfy 0 < min <= max", ErrInvalidSettings)
	case s.CanvasWidth < s.MinNodeSize.Width || s.CanvasHeight < s.MinNodeSize.Height:
		return fmt.Errorf("%w: canvas %gx%g cannot hold a %gx%g node", ErrInvalidSettings,
			s.CanvasWidth, s.CanvasHeight, s.MinNodeSize.Width, s.MinNodeSize.Height)
	case s.DefaultNodeSize.Width <= 0 || s.DefaultNodeSize.Height <= 0:
		return fmt.Errorf("%w: default node size must be positive", ErrInvalidSettings)
	case s.MinZoom <= 0 || s.MinZoom > s.MaxZoom:
		return fmt.Errorf("%w: zoom bounds must satisfy 0 < min <= max", ErrInvalidSettings)
	case s.ZoomStep <= 0:
		return fmt.Errorf("%w: zoom step must be positive", ErrInvalidSettings)
	case s.LinkHitTolerance < 0 || s.HandleSize < 0:
		return fmt.Errorf("%w: tolerances cannot be negative", ErrInvalidSettings)
	}
	return nil
}
