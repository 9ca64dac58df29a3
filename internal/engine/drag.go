package engine

import (
	"fmt"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// DragEngine turns screen-space pointer deltas into world-space node moves
// and resizes. It holds only the id and start geometry of the node being
// manipulated; all writes go through the Store.
type DragEngine struct {
	store *Store
	view  *ViewportController

	nodeID       string
	startPos     document.Point
	startSize    document.Size
	startPointer document.Point
}

func NewDragEngine(store *Store, view *ViewportController) *DragEngine {
	return &DragEngine{store: store, view: view}
}

// Active returns the id of the node being dragged or resized.
func (d *DragEngine) Active() (string, bool) {
	return d.nodeID, d.nodeID != ""
}

// StartPointer returns the screen point the current gesture began at.
func (d *DragEngine) StartPointer() document.Point {
	return d.startPointer
}

func (d *DragEngine) begin(nodeID string, pointerStart document.Point) error {
	node, ok := d.store.Node(nodeID)
	if !ok {
		d.End()
		return fmt.Errorf("begin drag %s: %w", nodeID, ErrNotFound)
	}
	d.nodeID = nodeID
	d.startPos = node.Position
	d.startSize = node.Size
	d.startPointer = pointerStart
	return nil
}

// BeginDrag records the node's position at the start of a move gesture.
func (d *DragEngine) BeginDrag(nodeID string, pointerStart document.Point) error {
	return d.begin(nodeID, pointerStart)
}

// BeginResize records the node's size at the start of a resize gesture.
func (d *DragEngine) BeginResize(nodeID string, pointerStart document.Point) error {
	return d.begin(nodeID, pointerStart)
}

// OnDragMove moves the node to startPosition + pointerDelta/zoom, clamped to
// the canvas. pointerDelta is measured from the gesture's start point.
func (d *DragEngine) OnDragMove(nodeID string, pointerDelta document.Point) error {
	if d.nodeID != nodeID {
		if err := d.begin(nodeID, document.Point{}); err != nil {
			return err
		}
	}
	node, ok := d.store.Node(nodeID)
	if !ok {
		d.End()
		return fmt.Errorf("drag %s: %w", nodeID, ErrNotFound)
	}

	st := d.store.Settings()
	zoom := d.view.Viewport().Zoom
	pos := document.Point{
		X: clamp(d.startPos.X+pointerDelta.X/zoom, 0, st.CanvasWidth-node.Size.Width),
		Y: clamp(d.startPos.Y+pointerDelta.Y/zoom, 0, st.CanvasHeight-node.Size.Height),
	}
	if err := d.store.MoveNode(nodeID, pos); err != nil {
		d.End()
		return err
	}
	return nil
}

// OnResize sets the node's size from a screen-space size, clamping each
// axis to the configured bounds independently.
func (d *DragEngine) OnResize(nodeID string, newScreenSize document.Size) error {
	st := d.store.Settings()
	zoom := d.view.Viewport().Zoom
	size := document.Size{
		Width:  clamp(newScreenSize.Width/zoom, st.MinNodeSize.Width, st.MaxNodeSize.Width),
		Height: clamp(newScreenSize.Height/zoom, st.MinNodeSize.Height, st.MaxNodeSize.Height),
	}
	if err := d.store.ResizeNode(nodeID, size); err != nil {
		d.End()
		return err
	}
	return nil
}

// ResizeMove grows the node by a screen-space delta measured from the
// gesture's start point.
func (d *DragEngine) ResizeMove(nodeID string, pointerDelta document.Point) error {
	if d.nodeID != nodeID {
		if err := d.begin(nodeID, document.Point{}); err != nil {
			return err
		}
	}
	zoom := d.view.Viewport().Zoom
	return d.OnResize(nodeID, document.Size{
		Width:  d.startSize.Width*zoom + pointerDelta.X,
		Height: d.startSize.Height*zoom + pointerDelta.Y,
	})
}

// End forgets the current gesture.
func (d *DragEngine) End() {
	d.nodeID = ""
	d.startPos = document.Point{}
	d.startSize = document.Size{}
	d.startPointer = document.Point{}
}
