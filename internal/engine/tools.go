package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// Tool is the active interaction mode.
type Tool int

const (
	ToolSelect Tool = iota
	ToolConnect
	ToolAnnotate
)

func (t Tool) String() string {
	switch t {
	case ToolSelect:
		return "select"
	case ToolConnect:
		return "connect"
	case ToolAnnotate:
		return "annotate"
	default:
		return "unknown"
	}
}

// ParseTool converts a tool name ("select", "connect", "annotate").
func ParseTool(name string) (Tool, error) {
	switch name {
	case "select":
		return ToolSelect, nil
	case "connect":
		return ToolConnect, nil
	case "annotate":
		return ToolAnnotate, nil
	default:
		return ToolSelect, fmt.Errorf("unknown tool %q", name)
	}
}

// Annotation node kinds.
const (
	KindText    = "text"
	KindComment = "comment"
)

// NoticeAlreadyConnected is reported when a connect gesture targets a pair
// that is already linked.
const NoticeAlreadyConnected = "already connected"

type gesture int

const (
	gestureNone gesture = iota
	gesturePan
	gestureDrag
	gestureResize
	gestureConnect
)

// PointerEvent is a pointer position in screen space, relative to the
// canvas element.
type PointerEvent struct {
	X float64
	Y float64
}

func (e PointerEvent) point() document.Point {
	return document.Point{X: e.X, Y: e.Y}
}

// Outcome reports what a pointer event did, for the surrounding UI.
type Outcome struct {
	SelectedNodeID    string `json:"selectedNodeId,omitempty"`
	CreatedNodeID     string `json:"createdNodeId,omitempty"`
	CreatedLinkID     string `json:"createdLinkId,omitempty"`
	ConfirmDeleteLink string `json:"confirmDeleteLink,omitempty"`
	Notice            string `json:"notice,omitempty"`
}

// ToolState is a read-only view of the state machine.
type ToolState struct {
	Tool             string         `json:"tool"`
	ConnectingFromID string         `json:"connectingFromId,omitempty"`
	SelectedNodeID   string         `json:"selectedNodeId,omitempty"`
	PendingLinkID    string         `json:"pendingLinkId,omitempty"`
	Gesture          string         `json:"gesture"`
	Pointer          document.Point `json:"pointer"`
}

// Interaction is the tool state machine. It interprets pointer events
// against the store and viewport and turns them into store mutations,
// viewport changes or drag/resize gestures. It never holds node data of its
// own, only ids.
type Interaction struct {
	store    *Store
	view     *ViewportController
	drag     *DragEngine
	links    *ConnectionRenderer
	settings Settings

	scroll document.Point

	tool           Tool
	annotationKind string

	selectedNodeID    string
	pendingLinkDelete string

	connectingFrom string
	// connectPress is true while the press that started a connection is
	// still down.
	connectPress bool

	gesture    gesture
	lastScreen document.Point
	pointer    document.Point
}

func NewInteraction(store *Store, view *ViewportController, drag *DragEngine, links *ConnectionRenderer) *Interaction {
	return &Interaction{
		store:          store,
		view:           view,
		drag:           drag,
		links:          links,
		settings:       store.Settings(),
		tool:           ToolSelect,
		annotationKind: KindText,
	}
}

func (m *Interaction) Tool() Tool { return m.tool }

func (m *Interaction) ConnectingFrom() string { return m.connectingFrom }

func (m *Interaction) SelectedNodeID() string { return m.selectedNodeID }

// Pointer is the last pointer position in world space.
func (m *Interaction) Pointer() document.Point { return m.pointer }

// SetScrollOffset records the canvas element's scroll position, which
// ScreenToWorld adds before undoing pan and zoom.
func (m *Interaction) SetScrollOffset(offset document.Point) {
	m.scroll = offset
}

func (m *Interaction) State() ToolState {
	return ToolState{
		Tool:             m.tool.String(),
		ConnectingFromID: m.connectingFrom,
		SelectedNodeID:   m.selectedNodeID,
		PendingLinkID:    m.pendingLinkDelete,
		Gesture:          m.gesture.String(),
		Pointer:          m.pointer,
	}
}

func (g gesture) String() string {
	switch g {
	case gesturePan:
		return "pan"
	case gestureDrag:
		return "drag"
	case gestureResize:
		return "resize"
	case gestureConnect:
		return "connect"
	default:
		return "none"
	}
}

// SetTool switches tools. Any gesture in progress is cancelled and the
// selection is cleared when leaving Select.
func (m *Interaction) SetTool(t Tool) {
	m.Cancel()
	m.tool = t
	if t != ToolSelect {
		m.selectedNodeID = ""
	}
}

// SetAnnotationKind chooses what the Annotate tool creates.
func (m *Interaction) SetAnnotationKind(kind string) error {
	if kind != KindText && kind != KindComment {
		return fmt.Errorf("unknown annotation kind %q", kind)
	}
	m.annotationKind = kind
	return nil
}

// Select sets the selected node directly, e.g. from a layer list.
func (m *Interaction) Select(nodeID string) error {
	if nodeID == "" {
		m.selectedNodeID = ""
		return nil
	}
	if _, ok := m.store.Node(nodeID); !ok {
		return fmt.Errorf("select %s: %w", nodeID, ErrNotFound)
	}
	m.selectedNodeID = nodeID
	return nil
}

// Cancel is the global cancel path: Escape, the pointer leaving the canvas,
// or a pointer-up delivered outside the canvas. It ends every gesture and
// clears any pending connection without creating anything.
func (m *Interaction) Cancel() {
	m.gesture = gestureNone
	m.drag.End()
	m.connectingFrom = ""
	m.connectPress = false
	m.pendingLinkDelete = ""
}

// fail returns the machine to idle and passes err on.
func (m *Interaction) fail(err error) (Outcome, error) {
	m.Cancel()
	slog.Debug("interaction reset", "tool", m.tool.String(), "error", err)
	return Outcome{}, err
}

func (m *Interaction) toWorld(e PointerEvent) document.Point {
	return ScreenToWorld(e.point(), m.view.Viewport(), m.scroll)
}

// HitNode returns the topmost node containing the world point, or "".
func (m *Interaction) HitNode(p document.Point) string {
	nodes := m.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if NodeRect(nodes[i]).Contains(p) {
			return nodes[i].ID
		}
	}
	return ""
}

// HitLink returns the topmost link within the hit tolerance of the world
// point, or "". The tolerance is in screen pixels.
func (m *Interaction) HitLink(p document.Point) string {
	tolerance := m.settings.LinkHitTolerance / m.view.Viewport().Zoom
	return m.links.HitTest(m.store, p, tolerance)
}

// HandleRect returns the selected node's resize handle in world space.
func (m *Interaction) HandleRect() (Rect, bool) {
	if m.tool != ToolSelect || m.selectedNodeID == "" {
		return Rect{}, false
	}
	node, ok := m.store.Node(m.selectedNodeID)
	if !ok {
		return Rect{}, false
	}
	size := m.settings.HandleSize / m.view.Viewport().Zoom
	r := NodeRect(node)
	return Rect{
		X:      r.X + r.Width - size/2,
		Y:      r.Y + r.Height - size/2,
		Width:  size,
		Height: size,
	}, true
}

// PointerDown handles a press on the canvas.
func (m *Interaction) PointerDown(e PointerEvent) (Outcome, error) {
	world := m.toWorld(e)
	m.pointer = world

	switch m.tool {
	case ToolConnect:
		return m.connectDown(world)
	case ToolAnnotate:
		return m.annotate(world)
	default:
		return m.selectDown(e, world)
	}
}

func (m *Interaction) selectDown(e PointerEvent, world document.Point) (Outcome, error) {
	m.pendingLinkDelete = ""

	if handle, ok := m.HandleRect(); ok && handle.Contains(world) {
		if err := m.drag.BeginResize(m.selectedNodeID, e.point()); err != nil {
			m.selectedNodeID = ""
			return m.fail(err)
		}
		m.gesture = gestureResize
		return Outcome{SelectedNodeID: m.selectedNodeID}, nil
	}

	if id := m.HitNode(world); id != "" {
		m.selectedNodeID = id
		if err := m.drag.BeginDrag(id, e.point()); err != nil {
			return m.fail(err)
		}
		m.gesture = gestureDrag
		return Outcome{SelectedNodeID: id}, nil
	}

	m.selectedNodeID = ""

	if id := m.HitLink(world); id != "" {
		m.pendingLinkDelete = id
		return Outcome{ConfirmDeleteLink: id}, nil
	}

	m.gesture = gesturePan
	m.lastScreen = e.point()
	return Outcome{}, nil
}

func (m *Interaction) connectDown(world document.Point) (Outcome, error) {
	target := m.HitNode(world)
	if m.connectingFrom == "" {
		if target == "" {
			return Outcome{}, nil
		}
		m.connectingFrom = target
		m.connectPress = true
		m.gesture = gestureConnect
		return Outcome{}, nil
	}
	return m.finishConnect(target)
}

// finishConnect completes or aborts the pending connection. An empty target
// or the originating node aborts; a duplicate pair is a notice, not an error.
func (m *Interaction) finishConnect(target string) (Outcome, error) {
	from := m.connectingFrom
	m.connectingFrom = ""
	m.connectPress = false
	m.gesture = gestureNone

	if target == "" || target == from {
		return Outcome{}, nil
	}

	linkID, err := m.store.AddLink(from, target, LinkMeta{})
	if errors.Is(err, ErrDuplicateLink) {
		slog.Debug("connect rejected", "source", from, "target", target, "error", err)
		return Outcome{Notice: NoticeAlreadyConnected}, nil
	}
	if err != nil {
		return m.fail(err)
	}
	return Outcome{CreatedLinkID: linkID}, nil
}

func (m *Interaction) annotate(world document.Point) (Outcome, error) {
	id, err := m.store.AddNode(NodeSpec{
		Kind:     m.annotationKind,
		Position: world,
		Size:     m.settings.MinNodeSize,
	})
	if err != nil {
		return m.fail(err)
	}
	return Outcome{CreatedNodeID: id}, nil
}

// PointerMove advances the active gesture. Connect mode only tracks the
// pointer for the rubber-band curve.
func (m *Interaction) PointerMove(e PointerEvent) (Outcome, error) {
	m.pointer = m.toWorld(e)

	switch m.gesture {
	case gesturePan:
		p := e.point()
		m.view.PanBy(document.Point{X: p.X - m.lastScreen.X, Y: p.Y - m.lastScreen.Y})
		m.lastScreen = p
	case gestureDrag:
		id, _ := m.drag.Active()
		if err := m.drag.OnDragMove(id, m.deltaFromStart(e)); err != nil {
			return m.fail(err)
		}
	case gestureResize:
		id, _ := m.drag.Active()
		if err := m.drag.ResizeMove(id, m.deltaFromStart(e)); err != nil {
			return m.fail(err)
		}
	}
	return Outcome{}, nil
}

func (m *Interaction) deltaFromStart(e PointerEvent) document.Point {
	start := m.drag.StartPointer()
	return document.Point{X: e.X - start.X, Y: e.Y - start.Y}
}

// PointerUp ends the active gesture. In Connect mode a release over another
// node completes the link; a release over empty canvas abandons it; a
// release over the originating node keeps it pending so a second click can
// pick the target.
func (m *Interaction) PointerUp(e PointerEvent) (Outcome, error) {
	world := m.toWorld(e)
	m.pointer = world

	switch m.gesture {
	case gesturePan, gestureDrag, gestureResize:
		m.gesture = gestureNone
		m.drag.End()
	case gestureConnect:
		if !m.connectPress {
			return Outcome{}, nil
		}
		target := m.HitNode(world)
		if target == m.connectingFrom {
			m.connectPress = false
			return Outcome{}, nil
		}
		return m.finishConnect(target)
	}
	return Outcome{}, nil
}

// ConfirmDeleteLink answers the confirmation raised by a link hit. When
// accepted the link is deleted.
func (m *Interaction) ConfirmDeleteLink(linkID string, accepted bool) error {
	pending := m.pendingLinkDelete
	m.pendingLinkDelete = ""
	if pending == "" || pending != linkID {
		return fmt.Errorf("confirm delete link %s: %w", linkID, ErrNotFound)
	}
	if !accepted {
		return nil
	}
	return m.store.DeleteLink(linkID)
}

// DeleteSelected deletes the selected node and its links.
func (m *Interaction) DeleteSelected() error {
	if m.selectedNodeID == "" {
		return nil
	}
	id := m.selectedNodeID
	m.Cancel()
	m.selectedNodeID = ""
	return m.store.DeleteNode(id)
}
