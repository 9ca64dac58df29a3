package engine

import (
	"fmt"
	"maps"
	"slices"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
	"github.com/archcanvas/archcanvas/backend-go/internal/typeid"
)

// NodeSpec describes a node to add. A zero Size means the default node
// size; an empty ID means a fresh one is minted.
type NodeSpec struct {
	ID         string
	Kind       string
	Label      string
	Position   document.Point
	Size       document.Size
	Color      string
	Properties map[string]any
}

// NodeUpdate is a partial update. Nil fields are left unchanged. Properties
// are merged key by key; a nil value removes the key.
type NodeUpdate struct {
	Kind       *string
	Label      *string
	Position   *document.Point
	Size       *document.Size
	Color      *string
	Properties map[string]any
}

// LinkMeta carries the optional attributes of a new link. Animated defaults
// to true when nil.
type LinkMeta struct {
	ID       string
	Kind     string
	Label    string
	Animated *bool
}

// LinkUpdate is a partial update of a link's display attributes.
type LinkUpdate struct {
	Kind     *string
	Label    *string
	Animated *bool
}

type nodeEntry struct {
	node document.Node
	seq  uint64
}

type linkEntry struct {
	link document.Link
	seq  uint64
}

type linkKey struct {
	source string
	target string
}

// Store is the single owner of the diagram's nodes and links. Every write
// goes through it so the canvas-bounds, size, uniqueness and cascade
// invariants are checked in one place. Geometry is always clamped on write.
//
// Store is not safe for concurrent use; the editor has a single writer.
type Store struct {
	settings Settings

	nodes map[string]*nodeEntry
	links map[string]*linkEntry

	// adjacency maps a node id to the ids of every link touching it.
	adjacency map[string]map[string]struct{}
	pairs     map[linkKey]string

	// tombstones holds deleted ids so that repeated deletes succeed.
	tombstones map[string]struct{}

	seq      uint64
	revision uint64
}

// NewStore creates an empty store bounded by the given settings.
func NewStore(settings Settings) *Store {
	s := &Store{settings: settings}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nodes = make(map[string]*nodeEntry)
	s.links = make(map[string]*linkEntry)
	s.adjacency = make(map[string]map[string]struct{})
	s.pairs = make(map[linkKey]string)
	s.tombstones = make(map[string]struct{})
}

// Settings returns the bounds the store enforces.
func (s *Store) Settings() Settings {
	return s.settings
}

// Revision increases on every successful mutation.
func (s *Store) Revision() uint64 {
	return s.revision
}

func (s *Store) touch() {
	s.revision++
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// AddNode inserts a node and returns its id. Position and size are clamped
// into the configured bounds; non-finite values fail with ErrInvalidGeometry.
func (s *Store) AddNode(spec NodeSpec) (string, error) {
	size := spec.Size
	if size.Width == 0 && size.Height == 0 {
		size = s.settings.DefaultNodeSize
	}
	if !finite(spec.Position.X, spec.Position.Y, size.Width, size.Height) {
		return "", fmt.Errorf("add node: %w", ErrInvalidGeometry)
	}

	id := spec.ID
	if id == "" {
		id = typeid.NewNodeID()
	} else if _, exists := s.nodes[id]; exists {
		return "", fmt.Errorf("add node %s: %w", id, ErrDuplicateID)
	} else if _, exists := s.links[id]; exists {
		return "", fmt.Errorf("add node %s: %w", id, ErrDuplicateID)
	}

	node := document.Node{
		ID:         id,
		Kind:       spec.Kind,
		Label:      spec.Label,
		Position:   spec.Position,
		Size:       size,
		Color:      spec.Color,
		Properties: maps.Clone(spec.Properties),
	}
	s.clampNode(&node)

	s.nodes[id] = &nodeEntry{node: node, seq: s.nextSeq()}
	delete(s.tombstones, id)
	s.touch()
	return id, nil
}

// UpdateNode merges update into the node and re-clamps its geometry.
func (s *Store) UpdateNode(id string, update NodeUpdate) error {
	entry, ok := s.nodes[id]
	if !ok {
		return fmt.Errorf("update node %s: %w", id, ErrNotFound)
	}

	node := entry.node.Clone()
	if update.Kind != nil {
		node.Kind = *update.Kind
	}
	if update.Label != nil {
		node.Label = *update.Label
	}
	if update.Color != nil {
		node.Color = *update.Color
	}
	if update.Position != nil {
		if !finite(update.Position.X, update.Position.Y) {
			return fmt.Errorf("update node %s: %w", id, ErrInvalidGeometry)
		}
		node.Position = *update.Position
	}
	if update.Size != nil {
		if !finite(update.Size.Width, update.Size.Height) {
			return fmt.Errorf("update node %s: %w", id, ErrInvalidGeometry)
		}
		node.Size = *update.Size
	}
	if update.Properties != nil {
		if node.Properties == nil {
			node.Properties = make(map[string]any, len(update.Properties))
		}
		for k, v := range update.Properties {
			if v == nil {
				delete(node.Properties, k)
				continue
			}
			node.Properties[k] = v
		}
	}

	s.clampNode(&node)
	entry.node = node
	s.touch()
	return nil
}

// MoveNode sets the node's top-left corner.
func (s *Store) MoveNode(id string, position document.Point) error {
	return s.UpdateNode(id, NodeUpdate{Position: &position})
}

// ResizeNode sets the node's size; the position is re-clamped so the node
// stays on the canvas.
func (s *Store) ResizeNode(id string, size document.Size) error {
	return s.UpdateNode(id, NodeUpdate{Size: &size})
}

// DeleteNode removes the node and every link that references it. Deleting
// an id that was already deleted is a no-op.
func (s *Store) DeleteNode(id string) error {
	if _, ok := s.nodes[id]; !ok {
		if _, gone := s.tombstones[id]; gone {
			return nil
		}
		return fmt.Errorf("delete node %s: %w", id, ErrNotFound)
	}

	for linkID := range s.adjacency[id] {
		s.removeLink(linkID)
	}
	delete(s.adjacency, id)
	delete(s.nodes, id)
	s.tombstones[id] = struct{}{}
	s.touch()
	return nil
}

// AddLink connects source to target. Both nodes must exist, they must
// differ, and the ordered pair must not already be linked.
func (s *Store) AddLink(sourceID, targetID string, meta LinkMeta) (string, error) {
	if _, ok := s.nodes[sourceID]; !ok {
		return "", fmt.Errorf("add link: source %s: %w", sourceID, ErrNotFound)
	}
	if _, ok := s.nodes[targetID]; !ok {
		return "", fmt.Errorf("add link: target %s: %w", targetID, ErrNotFound)
	}
	if sourceID == targetID {
		return "", fmt.Errorf("add link %s: %w", sourceID, ErrSelfLoop)
	}
	key := linkKey{source: sourceID, target: targetID}
	if existing, ok := s.pairs[key]; ok {
		return "", fmt.Errorf("add link %s -> %s (existing %s): %w", sourceID, targetID, existing, ErrDuplicateLink)
	}

	id := meta.ID
	if id == "" {
		id = typeid.NewLinkID()
	} else if _, exists := s.links[id]; exists {
		return "", fmt.Errorf("add link %s: %w", id, ErrDuplicateID)
	} else if _, exists := s.nodes[id]; exists {
		return "", fmt.Errorf("add link %s: %w", id, ErrDuplicateID)
	}

	animated := true
	if meta.Animated != nil {
		animated = *meta.Animated
	}

	s.links[id] = &linkEntry{
		link: document.Link{
			ID:       id,
			SourceID: sourceID,
			TargetID: targetID,
			Kind:     meta.Kind,
			Label:    meta.Label,
			Animated: animated,
		},
		seq: s.nextSeq(),
	}
	s.pairs[key] = id
	s.index(sourceID, id)
	s.index(targetID, id)
	delete(s.tombstones, id)
	s.touch()
	return id, nil
}

// UpdateLink changes a link's kind, label or animation flag.
func (s *Store) UpdateLink(id string, update LinkUpdate) error {
	entry, ok := s.links[id]
	if !ok {
		return fmt.Errorf("update link %s: %w", id, ErrNotFound)
	}
	if update.Kind != nil {
		entry.link.Kind = *update.Kind
	}
	if update.Label != nil {
		entry.link.Label = *update.Label
	}
	if update.Animated != nil {
		entry.link.Animated = *update.Animated
	}
	s.touch()
	return nil
}

// DeleteLink removes a link. Deleting an id that was already deleted,
// directly or by cascade, is a no-op.
func (s *Store) DeleteLink(id string) error {
	if _, ok := s.links[id]; !ok {
		if _, gone := s.tombstones[id]; gone {
			return nil
		}
		return fmt.Errorf("delete link %s: %w", id, ErrNotFound)
	}
	s.removeLink(id)
	s.touch()
	return nil
}

func (s *Store) index(nodeID, linkID string) {
	set, ok := s.adjacency[nodeID]
	if !ok {
		set = make(map[string]struct{})
		s.adjacency[nodeID] = set
	}
	set[linkID] = struct{}{}
}

func (s *Store) removeLink(id string) {
	entry, ok := s.links[id]
	if !ok {
		return
	}
	l := entry.link
	delete(s.pairs, linkKey{source: l.SourceID, target: l.TargetID})
	delete(s.adjacency[l.SourceID], id)
	delete(s.adjacency[l.TargetID], id)
	delete(s.links, id)
	s.tombstones[id] = struct{}{}
}

// clampNode enforces the size bounds per axis and then keeps the node's
// rectangle inside the canvas.
func (s *Store) clampNode(n *document.Node) {
	st := s.settings
	maxW := min(st.MaxNodeSize.Width, st.CanvasWidth)
	maxH := min(st.MaxNodeSize.Height, st.CanvasHeight)
	n.Size.Width = clamp(n.Size.Width, st.MinNodeSize.Width, maxW)
	n.Size.Height = clamp(n.Size.Height, st.MinNodeSize.Height, maxH)
	n.Position.X = clamp(n.Position.X, 0, st.CanvasWidth-n.Size.Width)
	n.Position.Y = clamp(n.Position.Y, 0, st.CanvasHeight-n.Size.Height)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (document.Node, bool) {
	entry, ok := s.nodes[id]
	if !ok {
		return document.Node{}, false
	}
	return entry.node.Clone(), true
}

// Link returns a copy of the link with the given id.
func (s *Store) Link(id string) (document.Link, bool) {
	entry, ok := s.links[id]
	if !ok {
		return document.Link{}, false
	}
	return entry.link, true
}

// Nodes returns copies of all nodes in insertion order (back to front).
func (s *Store) Nodes() []document.Node {
	entries := slices.Collect(maps.Values(s.nodes))
	slices.SortFunc(entries, func(a, b *nodeEntry) int { return cmpSeq(a.seq, b.seq) })

	out := make([]document.Node, len(entries))
	for i, e := range entries {
		out[i] = e.node.Clone()
	}
	return out
}

// Links returns copies of all links in insertion order.
func (s *Store) Links() []document.Link {
	entries := slices.Collect(maps.Values(s.links))
	return sortedLinks(entries)
}

// LinksOf returns every link whose source or target is nodeID.
func (s *Store) LinksOf(nodeID string) []document.Link {
	entries := make([]*linkEntry, 0, len(s.adjacency[nodeID]))
	for id := range s.adjacency[nodeID] {
		entries = append(entries, s.links[id])
	}
	return sortedLinks(entries)
}

func sortedLinks(entries []*linkEntry) []document.Link {
	slices.SortFunc(entries, func(a, b *linkEntry) int { return cmpSeq(a.seq, b.seq) })
	out := make([]document.Link, len(entries))
	for i, e := range entries {
		out[i] = e.link
	}
	return out
}

func cmpSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Snapshot returns a copy of the current state for rendering or persistence.
func (s *Store) Snapshot() document.Diagram {
	return document.Diagram{
		Nodes: s.Nodes(),
		Links: s.Links(),
	}
}

// LoadSnapshot replaces the store's contents with d. Node geometry is
// clamped; any node or link that breaks an invariant rejects the whole
// snapshot and leaves the current state untouched.
func (s *Store) LoadSnapshot(d document.Diagram) error {
	next := NewStore(s.settings)
	for _, n := range d.Nodes {
		_, err := next.AddNode(NodeSpec{
			ID:         n.ID,
			Kind:       n.Kind,
			Label:      n.Label,
			Position:   n.Position,
			Size:       n.Size,
			Color:      n.Color,
			Properties: n.Properties,
		})
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}
	for _, l := range d.Links {
		animated := l.Animated
		_, err := next.AddLink(l.SourceID, l.TargetID, LinkMeta{
			ID:       l.ID,
			Kind:     l.Kind,
			Label:    l.Label,
			Animated: &animated,
		})
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
	}

	s.nodes = next.nodes
	s.links = next.links
	s.adjacency = next.adjacency
	s.pairs = next.pairs
	s.tombstones = next.tombstones
	s.seq = next.seq
	s.touch()
	return nil
}
