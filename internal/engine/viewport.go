package engine

import (
	"math"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// ViewportController owns the zoom level and pan offset.
type ViewportController struct {
	vp         document.Viewport
	minZoom    float64
	maxZoom    float64
	step       float64
	defaultPan document.Point
}

// NewViewportController starts at 100% zoom and the configured default pan.
func NewViewportController(settings Settings) *ViewportController {
	v := &ViewportController{
		minZoom:    settings.MinZoom,
		maxZoom:    settings.MaxZoom,
		step:       settings.ZoomStep,
		defaultPan: settings.DefaultPan,
	}
	v.Reset()
	return v
}

// Viewport returns the current zoom and pan.
func (v *ViewportController) Viewport() document.Viewport {
	return v.vp
}

// Set restores a saved viewport, clamping its zoom.
func (v *ViewportController) Set(vp document.Viewport) {
	if !finite(vp.Zoom, vp.Pan.X, vp.Pan.Y) {
		return
	}
	v.vp = document.Viewport{Zoom: v.clampZoom(vp.Zoom), Pan: vp.Pan}
}

func (v *ViewportController) clampZoom(z float64) float64 {
	return clamp(z, v.minZoom, v.maxZoom)
}

// ZoomBy changes the zoom by delta while keeping the world point under
// anchor (screen space) at the same screen position.
func (v *ViewportController) ZoomBy(delta float64, anchor document.Point) {
	v.SetZoom(v.vp.Zoom+delta, anchor)
}

// SetZoom sets an absolute zoom about anchor.
func (v *ViewportController) SetZoom(zoom float64, anchor document.Point) {
	if !finite(zoom, anchor.X, anchor.Y) {
		return
	}
	world := ScreenToWorld(anchor, v.vp, document.Point{})
	newZoom := v.clampZoom(zoom)
	v.vp = document.Viewport{
		Zoom: newZoom,
		Pan: document.Point{
			X: anchor.X - world.X*newZoom,
			Y: anchor.Y - world.Y*newZoom,
		},
	}
}

func (v *ViewportController) ZoomIn(anchor document.Point) {
	v.ZoomBy(v.step, anchor)
}

func (v *ViewportController) ZoomOut(anchor document.Point) {
	v.ZoomBy(-v.step, anchor)
}

// PanBy shifts the pan offset by a screen-space delta. Pan is unbounded.
func (v *ViewportController) PanBy(delta document.Point) {
	if !finite(delta.X, delta.Y) {
		return
	}
	v.vp.Pan.X += delta.X
	v.vp.Pan.Y += delta.Y
}

// Reset returns to 100% zoom and the default pan.
func (v *ViewportController) Reset() {
	v.vp = document.Viewport{Zoom: v.clampZoom(1.0), Pan: v.defaultPan}
}

// FitToContent zooms and pans so the bounding box of nodes fits inside a
// screen of the given size with padding pixels on every side, centred.
// It never zooms in past 100%. With no nodes it behaves like Reset.
func (v *ViewportController) FitToContent(nodes []document.Node, screen document.Size, padding float64) {
	if len(nodes) == 0 {
		v.Reset()
		return
	}

	var bounds Rect
	for _, n := range nodes {
		bounds = bounds.Union(NodeRect(n))
	}
	if bounds.IsEmpty() {
		v.Reset()
		return
	}

	availW := math.Max(screen.Width-2*padding, 1)
	availH := math.Max(screen.Height-2*padding, 1)
	zoom := v.clampZoom(min(availW/bounds.Width, availH/bounds.Height, 1.0))

	center := bounds.Center()
	v.vp = document.Viewport{
		Zoom: zoom,
		Pan: document.Point{
			X: screen.Width/2 - center.X*zoom,
			Y: screen.Height/2 - center.Y*zoom,
		},
	}
}
