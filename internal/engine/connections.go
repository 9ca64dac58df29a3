package engine

import (
	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// RoutedLink is a link resolved against the current node rectangles.
type RoutedLink struct {
	LinkID      string         `json:"linkId"`
	SourceID    string         `json:"sourceId"`
	TargetID    string         `json:"targetId"`
	Kind        string         `json:"kind,omitempty"`
	Label       string         `json:"label,omitempty"`
	Animated    bool           `json:"animated"`
	Curve       Curve          `json:"curve"`
	LabelAnchor document.Point `json:"labelAnchor"`
}

// RouteLinks computes the curve and label anchor of every link. Links whose
// source or target is missing from nodes are skipped.
func RouteLinks(nodes []document.Node, links []document.Link, labelOffset float64) []RoutedLink {
	rects := make(map[string]Rect, len(nodes))
	for _, n := range nodes {
		rects[n.ID] = NodeRect(n)
	}

	routed := make([]RoutedLink, 0, len(links))
	for _, l := range links {
		src, ok := rects[l.SourceID]
		if !ok {
			continue
		}
		dst, ok := rects[l.TargetID]
		if !ok {
			continue
		}
		curve := ConnectionPath(src, dst)
		routed = append(routed, RoutedLink{
			LinkID:      l.ID,
			SourceID:    l.SourceID,
			TargetID:    l.TargetID,
			Kind:        l.Kind,
			Label:       l.Label,
			Animated:    l.Animated,
			Curve:       curve,
			LabelAnchor: curve.LabelAnchor(labelOffset),
		})
	}
	return routed
}

// ConnectionRenderer derives link paths from the store. Paths are never
// stored on the links; they are recomputed whenever the store's revision
// moves on.
type ConnectionRenderer struct {
	labelOffset float64

	store    *Store
	revision uint64
	routed   []RoutedLink
}

func NewConnectionRenderer(labelOffset float64) *ConnectionRenderer {
	return &ConnectionRenderer{labelOffset: labelOffset}
}

// Links returns the routed links for the store's current state.
func (r *ConnectionRenderer) Links(s *Store) []RoutedLink {
	if r.store != s || r.routed == nil || r.revision != s.Revision() {
		r.routed = RouteLinks(s.Nodes(), s.Links(), r.labelOffset)
		r.store = s
		r.revision = s.Revision()
	}
	return r.routed
}

// HitTest returns the id of the topmost link whose curve passes within
// tolerance (world units) of p, or empty string.
func (r *ConnectionRenderer) HitTest(s *Store, p document.Point, tolerance float64) string {
	links := r.Links(s)
	bestID := ""
	best := tolerance
	for i := len(links) - 1; i >= 0; i-- {
		if !links[i].Curve.Bounds().Inflate(tolerance).Contains(p) {
			continue
		}
		d := links[i].Curve.DistanceTo(p)
		if d > tolerance {
			continue
		}
		if bestID == "" || d < best {
			best = d
			bestID = links[i].LinkID
		}
	}
	return bestID
}

// RubberBand returns the provisional curve from fromID's bottom-center
// anchor to the live pointer position (world space).
func (r *ConnectionRenderer) RubberBand(s *Store, fromID string, pointer document.Point) (Curve, bool) {
	node, ok := s.Node(fromID)
	if !ok {
		return Curve{}, false
	}
	return curveBetween(NodeRect(node).BottomCenter(), pointer), true
}
