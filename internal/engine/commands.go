package engine

import (
	"encoding/json"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// World-space commands are drawn under Frame.Transform; overlay commands are
// already in screen space.
type DrawCommand struct {
	Op          string        `json:"op"`                    // "path", "text"
	Layer       string        `json:"layer"`                 // "node", "link", "label", "rubberband", "handle", "cursor"
	ObjectID    string        `json:"objectId,omitempty"`    // For hit correlation
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	Dashed      bool          `json:"dashed,omitempty"`      // Dashed stroke
	Animated    bool          `json:"animated,omitempty"`    // Flow indicator along the path
	Selected    bool          `json:"selected,omitempty"`
	Text        string        `json:"text,omitempty"`
	X           float64       `json:"x,omitempty"`
	Y           float64       `json:"y,omitempty"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []interface{}

// Frame is everything the render layer needs for one redraw.
type Frame struct {
	Transform []float64     `json:"transform"`
	Commands  []DrawCommand `json:"commands"`
	Overlay   []DrawCommand `json:"overlay"`
}

// Scene is the input to CompileDrawCommands.
type Scene struct {
	Viewport   document.Viewport
	Nodes      []document.Node
	Links      []RoutedLink
	SelectedID string
	Handle     *Rect
	RubberBand *Curve
	Cursors    []document.Cursor
}

const (
	defaultNodeColor = "#64748b"
	linkColor        = "#94a3b8"
	selectionColor   = "#3b82f6"
	cursorColor      = "#f97316"
)

// CompileDrawCommands generates a draw command buffer for the scene.
// Commands are in painter's order (back to front): links, nodes, labels,
// rubber band, resize handle. Cursors go to the overlay.
func CompileDrawCommands(scene Scene) Frame {
	frame := Frame{
		Transform: ViewMatrix(scene.Viewport).ToSlice(),
		Commands:  make([]DrawCommand, 0, len(scene.Nodes)*2+len(scene.Links)*2+2),
		Overlay:   make([]DrawCommand, 0, len(scene.Cursors)*2),
	}

	for _, l := range scene.Links {
		frame.Commands = append(frame.Commands, DrawCommand{
			Op:          "path",
			Layer:       "link",
			ObjectID:    l.LinkID,
			Path:        curvePath(l.Curve),
			Stroke:      linkColor,
			StrokeWidth: 2,
			Animated:    l.Animated,
		})
	}

	for _, n := range scene.Nodes {
		fill := n.Color
		if fill == "" {
			fill = defaultNodeColor
		}
		selected := n.ID == scene.SelectedID
		cmd := DrawCommand{
			Op:          "path",
			Layer:       "node",
			ObjectID:    n.ID,
			Path:        rectPath(NodeRect(n)),
			Fill:        fill,
			StrokeWidth: 1,
			Selected:    selected,
		}
		if selected {
			cmd.Stroke = selectionColor
			cmd.StrokeWidth = 2
		}
		frame.Commands = append(frame.Commands, cmd)

		if n.Label != "" {
			c := NodeRect(n).Center()
			frame.Commands = append(frame.Commands, DrawCommand{
				Op:       "text",
				Layer:    "node",
				ObjectID: n.ID,
				Text:     n.Label,
				X:        c.X,
				Y:        c.Y,
			})
		}
	}

	for _, l := range scene.Links {
		if l.Label == "" {
			continue
		}
		frame.Commands = append(frame.Commands, DrawCommand{
			Op:       "text",
			Layer:    "label",
			ObjectID: l.LinkID,
			Text:     l.Label,
			X:        l.LabelAnchor.X,
			Y:        l.LabelAnchor.Y,
		})
	}

	if scene.RubberBand != nil {
		frame.Commands = append(frame.Commands, DrawCommand{
			Op:          "path",
			Layer:       "rubberband",
			Path:        curvePath(*scene.RubberBand),
			Stroke:      selectionColor,
			StrokeWidth: 2,
			Dashed:      true,
		})
	}

	if scene.Handle != nil {
		frame.Commands = append(frame.Commands, DrawCommand{
			Op:       "path",
			Layer:    "handle",
			ObjectID: scene.SelectedID,
			Path:     rectPath(*scene.Handle),
			Fill:     selectionColor,
		})
	}

	for _, c := range scene.Cursors {
		pos := c.ScreenPosition
		if c.WorldPosition != nil {
			pos = WorldToScreen(*c.WorldPosition, scene.Viewport)
		}
		color := c.Color
		if color == "" {
			color = cursorColor
		}
		frame.Overlay = append(frame.Overlay,
			DrawCommand{
				Op:       "path",
				Layer:    "cursor",
				ObjectID: c.CollaboratorID,
				Path:     cursorPath(pos),
				Fill:     color,
			},
			DrawCommand{
				Op:       "text",
				Layer:    "cursor",
				ObjectID: c.CollaboratorID,
				Text:     c.DisplayName,
				X:        pos.X + 14,
				Y:        pos.Y + 20,
			},
		)
	}

	return frame
}

func rectPath(r Rect) []PathCommand {
	return []PathCommand{
		{"M", r.X, r.Y},
		{"L", r.X + r.Width, r.Y},
		{"L", r.X + r.Width, r.Y + r.Height},
		{"L", r.X, r.Y + r.Height},
		{"Z"},
	}
}

func curvePath(c Curve) []PathCommand {
	return []PathCommand{
		{"M", c.Start.X, c.Start.Y},
		{"C", c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y},
	}
}

// cursorPath is an arrow pointer with its tip at p.
func cursorPath(p document.Point) []PathCommand {
	return []PathCommand{
		{"M", p.X, p.Y},
		{"L", p.X, p.Y + 16},
		{"L", p.X + 4, p.Y + 12},
		{"L", p.X + 11, p.Y + 12},
		{"Z"},
	}
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(frame Frame) (string, error) {
	data, err := json.Marshal(frame)
	if err != nil {
		return `{"transform":[1,0,0,1,0,0],"commands":[],"overlay":[]}`, err
	}
	return string(data), nil
}
