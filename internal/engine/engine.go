package engine

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// Engine is the diagram editor core. It owns the entity store, the viewport
// and the tool state machine, processes commands from the frontend and
// returns query results. All calls happen on the input thread.
type Engine struct {
	settings Settings

	store *Store
	view  *ViewportController
	drag  *DragEngine
	links *ConnectionRenderer
	tools *Interaction

	// Remote collaborator cursors (read-only overlay)
	cursors map[string]document.Cursor

	// Screen size of the canvas element, used by fit and keyboard zoom
	screen document.Size
}

// NewEngine creates a new engine instance with an empty diagram.
func NewEngine(settings Settings) *Engine {
	store := NewStore(settings)
	view := NewViewportController(settings)
	drag := NewDragEngine(store, view)
	links := NewConnectionRenderer(settings.LabelOffset)

	return &Engine{
		settings: settings,
		store:    store,
		view:     view,
		drag:     drag,
		links:    links,
		tools:    NewInteraction(store, view, drag, links),
		cursors:  make(map[string]document.Cursor),
	}
}

func (e *Engine) Settings() Settings                { return e.settings }
func (e *Engine) Store() *Store                    { return e.store }
func (e *Engine) Viewport() *ViewportController    { return e.view }
func (e *Engine) Interaction() *Interaction        { return e.tools }
func (e *Engine) Connections() *ConnectionRenderer { return e.links }

// --- Commands (frontend → backend) ---

// LoadDiagram loads a diagram from JSON, replacing the current one.
func (e *Engine) LoadDiagram(jsonData string) error {
	d, err := document.ParseDiagram([]byte(jsonData))
	if err != nil {
		return err
	}
	return e.load(*d)
}

// LoadSampleDiagram loads the built-in sample diagram.
func (e *Engine) LoadSampleDiagram() error {
	return e.load(*document.NewSampleDiagram())
}

func (e *Engine) load(d document.Diagram) error {
	if err := e.store.LoadSnapshot(d); err != nil {
		return err
	}
	e.tools.Cancel()
	_ = e.tools.Select("")
	return nil
}

// SetScreenSize records the canvas element's size in pixels.
func (e *Engine) SetScreenSize(width, height float64) {
	e.screen = document.Size{Width: width, Height: height}
}

// SetScrollOffset records the canvas element's scroll position.
func (e *Engine) SetScrollOffset(x, y float64) {
	e.tools.SetScrollOffset(document.Point{X: x, Y: y})
}

// SetTool switches the active tool by name.
func (e *Engine) SetTool(name string) error {
	t, err := ParseTool(name)
	if err != nil {
		return err
	}
	e.tools.SetTool(t)
	return nil
}

func (e *Engine) SetAnnotationKind(kind string) error {
	return e.tools.SetAnnotationKind(kind)
}

func (e *Engine) PointerDown(x, y float64) (Outcome, error) {
	return e.tools.PointerDown(PointerEvent{X: x, Y: y})
}

func (e *Engine) PointerMove(x, y float64) (Outcome, error) {
	return e.tools.PointerMove(PointerEvent{X: x, Y: y})
}

func (e *Engine) PointerUp(x, y float64) (Outcome, error) {
	return e.tools.PointerUp(PointerEvent{X: x, Y: y})
}

// Cancel routes a pointer release outside the canvas, a pointer leaving the
// canvas, or Escape into the tool state machine.
func (e *Engine) Cancel() {
	e.tools.Cancel()
}

func (e *Engine) ConfirmDeleteLink(linkID string, accepted bool) error {
	return e.tools.ConfirmDeleteLink(linkID, accepted)
}

// Keyboard commands.
const (
	CommandZoomIn         = "zoomIn"
	CommandZoomOut        = "zoomOut"
	CommandResetZoom      = "resetZoom"
	CommandFit            = "fit"
	CommandDeleteSelected = "deleteSelected"
	CommandEscape         = "escape"
)

// fitPadding is the screen margin kept around content by CommandFit.
const fitPadding = 50

// Command executes a keyboard shortcut. Zoom commands anchor at the centre
// of the canvas element.
func (e *Engine) Command(name string) error {
	center := document.Point{X: e.screen.Width / 2, Y: e.screen.Height / 2}
	switch name {
	case CommandZoomIn:
		e.view.ZoomIn(center)
	case CommandZoomOut:
		e.view.ZoomOut(center)
	case CommandResetZoom:
		e.view.Reset()
	case CommandFit:
		e.view.FitToContent(e.store.Nodes(), e.screen, fitPadding)
	case CommandDeleteSelected:
		return e.tools.DeleteSelected()
	case CommandEscape:
		e.tools.Cancel()
	default:
		return fmt.Errorf("unknown command %q", name)
	}
	return nil
}

// DropComponent adds a node from a palette template, centred on the screen
// drop point.
func (e *Engine) DropComponent(screenX, screenY float64, tpl document.ComponentTemplate) (string, error) {
	world := ScreenToWorld(document.Point{X: screenX, Y: screenY}, e.view.Viewport(), e.tools.scroll)
	size := e.settings.DefaultNodeSize
	if tpl.DefaultSize != nil {
		size = *tpl.DefaultSize
	}
	return e.store.AddNode(NodeSpec{
		Kind:       tpl.Kind,
		Label:      tpl.DisplayName,
		Color:      tpl.Color,
		Size:       size,
		Properties: tpl.DefaultProperties,
		Position: document.Point{
			X: world.X - size.Width/2,
			Y: world.Y - size.Height/2,
		},
	})
}

// UpdateCursor records a remote collaborator's cursor. Cursors never touch
// the store.
func (e *Engine) UpdateCursor(c document.Cursor) {
	if c.CollaboratorID == "" {
		return
	}
	e.cursors[c.CollaboratorID] = c
}

func (e *Engine) RemoveCursor(collaboratorID string) {
	delete(e.cursors, collaboratorID)
}

// Cursors returns the remote cursors ordered by collaborator id.
func (e *Engine) Cursors() []document.Cursor {
	keys := slices.Sorted(maps.Keys(e.cursors))
	out := make([]document.Cursor, len(keys))
	for i, k := range keys {
		out[i] = e.cursors[k]
	}
	return out
}

// --- Queries (frontend ← backend) ---

// Scene assembles the current render input.
func (e *Engine) Scene() Scene {
	scene := Scene{
		Viewport:   e.view.Viewport(),
		Nodes:      e.store.Nodes(),
		Links:      e.links.Links(e.store),
		SelectedID: e.tools.SelectedNodeID(),
		Cursors:    e.Cursors(),
	}
	if from := e.tools.ConnectingFrom(); from != "" {
		if curve, ok := e.links.RubberBand(e.store, from, e.tools.Pointer()); ok {
			scene.RubberBand = &curve
		}
	}
	if handle, ok := e.tools.HandleRect(); ok {
		scene.Handle = &handle
	}
	return scene
}

// Render compiles the scene and returns draw commands as JSON.
func (e *Engine) Render() string {
	result, _ := FrameToJSON(CompileDrawCommands(e.Scene()))
	return result
}

// HitTest returns the id of the topmost node under a screen point, or "".
func (e *Engine) HitTest(x, y float64) string {
	world := ScreenToWorld(document.Point{X: x, Y: y}, e.view.Viewport(), e.tools.scroll)
	return e.tools.HitNode(world)
}

// GetDiagram returns the diagram snapshot as JSON.
func (e *Engine) GetDiagram() (string, error) {
	data, err := e.store.Snapshot().Marshal()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetViewport returns zoom and pan as JSON.
func (e *Engine) GetViewport() string {
	data, _ := json.Marshal(e.view.Viewport())
	return string(data)
}

// GetToolState returns the tool state machine as JSON.
func (e *Engine) GetToolState() string {
	data, _ := json.Marshal(e.tools.State())
	return string(data)
}
