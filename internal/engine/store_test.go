package engine

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

func testSettings() Settings {
	s := DefaultSettings()
	s.CanvasWidth = 1000
	s.CanvasHeight = 800
	return s
}

func addNode(t *testing.T, s *Store, id string, x, y, w, h float64) string {
	t.Helper()
	got, err := s.AddNode(NodeSpec{
		ID:       id,
		Kind:     "service",
		Position: document.Point{X: x, Y: y},
		Size:     document.Size{Width: w, Height: h},
	})
	require.NoError(t, err)
	return got
}

func assertInBounds(t *testing.T, s *Store) {
	t.Helper()
	st := s.Settings()
	for _, n := range s.Nodes() {
		assert.GreaterOrEqual(t, n.Position.X, 0.0, n.ID)
		assert.GreaterOrEqual(t, n.Position.Y, 0.0, n.ID)
		assert.LessOrEqual(t, n.Position.X+n.Size.Width, st.CanvasWidth, n.ID)
		assert.LessOrEqual(t, n.Position.Y+n.Size.Height, st.CanvasHeight, n.ID)
		assert.GreaterOrEqual(t, n.Size.Width, st.MinNodeSize.Width, n.ID)
		assert.LessOrEqual(t, n.Size.Width, st.MaxNodeSize.Width, n.ID)
		assert.GreaterOrEqual(t, n.Size.Height, st.MinNodeSize.Height, n.ID)
		assert.LessOrEqual(t, n.Size.Height, st.MaxNodeSize.Height, n.ID)
	}
}

func assertNoDanglingLinks(t *testing.T, d document.Diagram) {
	t.Helper()
	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		ids[n.ID] = true
	}
	for _, l := range d.Links {
		assert.True(t, ids[l.SourceID], "link %s has dangling source %s", l.ID, l.SourceID)
		assert.True(t, ids[l.TargetID], "link %s has dangling target %s", l.ID, l.TargetID)
	}
}

func TestStoreAddNode(t *testing.T) {
	t.Run("mints an id and keeps fields", func(t *testing.T) {
		s := NewStore(testSettings())
		id, err := s.AddNode(NodeSpec{
			Kind:       "database",
			Label:      "Orders DB",
			Position:   document.Point{X: 10, Y: 20},
			Size:       document.Size{Width: 120, Height: 90},
			Color:      "#f59e0b",
			Properties: map[string]any{"engine": "postgres"},
		})
		require.NoError(t, err)
		assert.Contains(t, id, "node_")

		n, ok := s.Node(id)
		require.True(t, ok)
		assert.Equal(t, "database", n.Kind)
		assert.Equal(t, "Orders DB", n.Label)
		assert.Equal(t, document.Point{X: 10, Y: 20}, n.Position)
		assert.Equal(t, document.Size{Width: 120, Height: 90}, n.Size)
		assert.Equal(t, "postgres", n.Properties["engine"])
	})

	t.Run("clamps size and position", func(t *testing.T) {
		s := NewStore(testSettings())
		id := addNode(t, s, "", -50, 5000, 10, 1000)

		n, _ := s.Node(id)
		assert.Equal(t, document.Size{Width: 80, Height: 300}, n.Size)
		assert.Equal(t, document.Point{X: 0, Y: 500}, n.Position)
	})

	t.Run("zero size uses the default", func(t *testing.T) {
		s := NewStore(testSettings())
		id := addNode(t, s, "", 0, 0, 0, 0)

		n, _ := s.Node(id)
		assert.Equal(t, DefaultSettings().DefaultNodeSize, n.Size)
	})

	t.Run("non-finite geometry is rejected", func(t *testing.T) {
		s := NewStore(testSettings())
		_, err := s.AddNode(NodeSpec{Position: document.Point{X: math.NaN()}})
		assert.ErrorIs(t, err, ErrInvalidGeometry)
		_, err = s.AddNode(NodeSpec{Size: document.Size{Width: math.Inf(1), Height: 10}})
		assert.ErrorIs(t, err, ErrInvalidGeometry)
		assert.Empty(t, s.Nodes())
	})

	t.Run("explicit id must be unique", func(t *testing.T) {
		s := NewStore(testSettings())
		addNode(t, s, "a", 0, 0, 100, 100)
		_, err := s.AddNode(NodeSpec{ID: "a"})
		assert.ErrorIs(t, err, ErrDuplicateID)
	})

	t.Run("properties are copied", func(t *testing.T) {
		s := NewStore(testSettings())
		props := map[string]any{"replicas": 3.0}
		id, err := s.AddNode(NodeSpec{Properties: props})
		require.NoError(t, err)

		props["replicas"] = 5.0
		n, _ := s.Node(id)
		assert.Equal(t, 3.0, n.Properties["replicas"])

		n.Properties["replicas"] = 9.0
		again, _ := s.Node(id)
		assert.Equal(t, 3.0, again.Properties["replicas"])
	})
}

func TestStoreUpdateNode(t *testing.T) {
	t.Run("unknown id", func(t *testing.T) {
		s := NewStore(testSettings())
		assert.ErrorIs(t, s.UpdateNode("missing", NodeUpdate{}), ErrNotFound)
	})

	t.Run("merges fields", func(t *testing.T) {
		s := NewStore(testSettings())
		id, err := s.AddNode(NodeSpec{
			Kind:       "cache",
			Label:      "Redis",
			Size:       document.Size{Width: 100, Height: 100},
			Properties: map[string]any{"ttl": 60.0, "evict": "lru"},
		})
		require.NoError(t, err)

		label := "Memcached"
		require.NoError(t, s.UpdateNode(id, NodeUpdate{
			Label:      &label,
			Properties: map[string]any{"ttl": 120.0, "evict": nil, "shards": 4.0},
		}))

		n, _ := s.Node(id)
		assert.Equal(t, "cache", n.Kind)
		assert.Equal(t, "Memcached", n.Label)
		assert.Equal(t, map[string]any{"ttl": 120.0, "shards": 4.0}, n.Properties)
	})

	t.Run("re-clamps after every write", func(t *testing.T) {
		s := NewStore(testSettings())
		id := addNode(t, s, "", 850, 700, 100, 80)

		require.NoError(t, s.ResizeNode(id, document.Size{Width: 1000, Height: 10}))
		n, _ := s.Node(id)
		assert.Equal(t, document.Size{Width: 400, Height: 60}, n.Size)
		assert.Equal(t, document.Point{X: 600, Y: 700}, n.Position)

		require.NoError(t, s.MoveNode(id, document.Point{X: -10, Y: 9999}))
		n, _ = s.Node(id)
		assert.Equal(t, document.Point{X: 0, Y: 740}, n.Position)
	})

	t.Run("non-finite update leaves node untouched", func(t *testing.T) {
		s := NewStore(testSettings())
		id := addNode(t, s, "", 10, 10, 100, 100)
		rev := s.Revision()

		err := s.MoveNode(id, document.Point{X: math.Inf(-1), Y: 0})
		assert.ErrorIs(t, err, ErrInvalidGeometry)
		n, _ := s.Node(id)
		assert.Equal(t, document.Point{X: 10, Y: 10}, n.Position)
		assert.Equal(t, rev, s.Revision())
	})
}

func TestStoreDeleteNode(t *testing.T) {
	t.Run("cascades to links", func(t *testing.T) {
		s := NewStore(testSettings())
		a := addNode(t, s, "a", 0, 0, 100, 100)
		b := addNode(t, s, "b", 200, 0, 100, 100)
		c := addNode(t, s, "c", 400, 0, 100, 100)

		ab, err := s.AddLink(a, b, LinkMeta{})
		require.NoError(t, err)
		_, err = s.AddLink(c, a, LinkMeta{})
		require.NoError(t, err)
		bc, err := s.AddLink(b, c, LinkMeta{})
		require.NoError(t, err)

		require.NoError(t, s.DeleteNode(a))

		links := s.Links()
		require.Len(t, links, 1)
		assert.Equal(t, bc, links[0].ID)
		assert.Empty(t, s.LinksOf(a))

		_, ok := s.Link(ab)
		assert.False(t, ok)
		assertNoDanglingLinks(t, s.Snapshot())
	})

	t.Run("second delete is a no-op", func(t *testing.T) {
		s := NewStore(testSettings())
		a := addNode(t, s, "a", 0, 0, 100, 100)

		require.NoError(t, s.DeleteNode(a))
		assert.NoError(t, s.DeleteNode(a))
	})

	t.Run("unknown id", func(t *testing.T) {
		s := NewStore(testSettings())
		assert.ErrorIs(t, s.DeleteNode("never-existed"), ErrNotFound)
	})

	t.Run("pair can be relinked after cascade", func(t *testing.T) {
		s := NewStore(testSettings())
		a := addNode(t, s, "a", 0, 0, 100, 100)
		b := addNode(t, s, "b", 200, 0, 100, 100)
		_, err := s.AddLink(a, b, LinkMeta{})
		require.NoError(t, err)

		require.NoError(t, s.DeleteNode(b))
		addNode(t, s, "b", 200, 0, 100, 100)

		_, err = s.AddLink(a, b, LinkMeta{})
		assert.NoError(t, err)
	})
}

func TestStoreAddLink(t *testing.T) {
	setup := func(t *testing.T) *Store {
		s := NewStore(testSettings())
		addNode(t, s, "a", 0, 0, 100, 100)
		addNode(t, s, "b", 200, 0, 100, 100)
		return s
	}

	t.Run("defaults to animated", func(t *testing.T) {
		s := setup(t)
		id, err := s.AddLink("a", "b", LinkMeta{Kind: "http", Label: "REST"})
		require.NoError(t, err)
		assert.Contains(t, id, "link_")

		l, ok := s.Link(id)
		require.True(t, ok)
		assert.Equal(t, document.Link{ID: id, SourceID: "a", TargetID: "b", Kind: "http", Label: "REST", Animated: true}, l)
	})

	t.Run("animated can be disabled", func(t *testing.T) {
		s := setup(t)
		off := false
		id, err := s.AddLink("a", "b", LinkMeta{Animated: &off})
		require.NoError(t, err)
		l, _ := s.Link(id)
		assert.False(t, l.Animated)
	})

	t.Run("self loop", func(t *testing.T) {
		s := setup(t)
		_, err := s.AddLink("a", "a", LinkMeta{})
		assert.ErrorIs(t, err, ErrSelfLoop)
	})

	t.Run("duplicate pair", func(t *testing.T) {
		s := setup(t)
		_, err := s.AddLink("a", "b", LinkMeta{})
		require.NoError(t, err)
		_, err = s.AddLink("a", "b", LinkMeta{Label: "again"})
		assert.ErrorIs(t, err, ErrDuplicateLink)
		assert.Len(t, s.Links(), 1)
	})

	t.Run("reverse direction is a different pair", func(t *testing.T) {
		s := setup(t)
		_, err := s.AddLink("a", "b", LinkMeta{})
		require.NoError(t, err)
		_, err = s.AddLink("b", "a", LinkMeta{})
		assert.NoError(t, err)
	})

	t.Run("unknown endpoints", func(t *testing.T) {
		s := setup(t)
		_, err := s.AddLink("a", "zzz", LinkMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.AddLink("zzz", "a", LinkMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = s.AddLink("zzz", "zzz", LinkMeta{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreDeleteLink(t *testing.T) {
	s := NewStore(testSettings())
	addNode(t, s, "a", 0, 0, 100, 100)
	addNode(t, s, "b", 200, 0, 100, 100)
	id, err := s.AddLink("a", "b", LinkMeta{})
	require.NoError(t, err)

	require.NoError(t, s.DeleteLink(id))
	assert.NoError(t, s.DeleteLink(id))
	assert.ErrorIs(t, s.DeleteLink("unknown"), ErrNotFound)
	assert.Empty(t, s.LinksOf("a"))

	_, err = s.AddLink("a", "b", LinkMeta{})
	assert.NoError(t, err, "pair is free again")
}

func TestStoreUpdateLink(t *testing.T) {
	s := NewStore(testSettings())
	addNode(t, s, "a", 0, 0, 100, 100)
	addNode(t, s, "b", 200, 0, 100, 100)
	id, err := s.AddLink("a", "b", LinkMeta{})
	require.NoError(t, err)

	label, off := "events", false
	require.NoError(t, s.UpdateLink(id, LinkUpdate{Label: &label, Animated: &off}))
	l, _ := s.Link(id)
	assert.Equal(t, "events", l.Label)
	assert.False(t, l.Animated)

	assert.ErrorIs(t, s.UpdateLink("nope", LinkUpdate{}), ErrNotFound)
}

func TestStoreRevision(t *testing.T) {
	s := NewStore(testSettings())
	r0 := s.Revision()
	addNode(t, s, "a", 0, 0, 100, 100)
	r1 := s.Revision()
	assert.Greater(t, r1, r0)

	_ = s.DeleteNode("missing")
	assert.Equal(t, r1, s.Revision(), "failed mutation does not bump revision")
}

func TestStoreInvariantsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	s := NewStore(testSettings())
	view := NewViewportController(testSettings())
	drag := NewDragEngine(s, view)

	var ids []string
	pick := func() string {
		if len(ids) == 0 {
			return "missing"
		}
		return ids[rng.IntN(len(ids))]
	}
	coord := func() float64 { return rng.Float64()*2400 - 700 }
	delta := func() document.Point {
		return document.Point{X: rng.Float64()*3000 - 1500, Y: rng.Float64()*3000 - 1500}
	}
	zoom := func() {
		view.Set(document.Viewport{Zoom: 0.1 + rng.Float64()*2.9, Pan: delta()})
	}

	for i := 0; i < 2000; i++ {
		switch rng.IntN(9) {
		case 0, 1:
			id, err := s.AddNode(NodeSpec{
				Position: document.Point{X: coord(), Y: coord()},
				Size:     document.Size{Width: rng.Float64() * 600, Height: rng.Float64() * 600},
			})
			require.NoError(t, err)
			ids = append(ids, id)
		case 2:
			pos := document.Point{X: coord(), Y: coord()}
			_ = s.UpdateNode(pick(), NodeUpdate{Position: &pos})
		case 3:
			_ = s.ResizeNode(pick(), document.Size{Width: coord(), Height: coord()})
		case 4:
			_, _ = s.AddLink(pick(), pick(), LinkMeta{})
		case 5:
			_ = s.DeleteNode(pick())
		case 6:
			zoom()
			id := pick()
			if drag.BeginDrag(id, document.Point{}) == nil {
				for range 3 {
					_ = drag.OnDragMove(id, delta())
				}
			}
			drag.End()
		case 7:
			zoom()
			id := pick()
			if drag.BeginResize(id, document.Point{}) == nil {
				for range 3 {
					_ = drag.ResizeMove(id, delta())
				}
			}
			drag.End()
		case 8:
			zoom()
			_ = drag.OnResize(pick(), document.Size{Width: coord(), Height: coord()})
		}
		if i%100 == 0 {
			assertInBounds(t, s)
		}
	}

	assertInBounds(t, s)
	snap := s.Snapshot()
	assertNoDanglingLinks(t, snap)

	seen := make(map[[2]string]bool)
	for _, l := range snap.Links {
		assert.NotEqual(t, l.SourceID, l.TargetID)
		key := [2]string{l.SourceID, l.TargetID}
		assert.False(t, seen[key], "duplicate pair %v", key)
		seen[key] = true
	}
}

func TestStoreSnapshot(t *testing.T) {
	t.Run("is a copy", func(t *testing.T) {
		s := NewStore(testSettings())
		addNode(t, s, "a", 0, 0, 100, 100)

		snap := s.Snapshot()
		snap.Nodes[0].Position.X = 500

		n, _ := s.Node("a")
		assert.Equal(t, 0.0, n.Position.X)
	})

	t.Run("keeps insertion order", func(t *testing.T) {
		s := NewStore(testSettings())
		for _, id := range []string{"z", "m", "a"} {
			addNode(t, s, id, 0, 0, 100, 100)
		}
		var got []string
		for _, n := range s.Snapshot().Nodes {
			got = append(got, n.ID)
		}
		assert.Equal(t, []string{"z", "m", "a"}, got)
	})

	t.Run("round trip is byte stable", func(t *testing.T) {
		s := NewStore(DefaultSettings())
		require.NoError(t, s.LoadSnapshot(*document.NewSampleDiagram()))

		first, err := s.Snapshot().Marshal()
		require.NoError(t, err)

		parsed, err := document.ParseDiagram(first)
		require.NoError(t, err)
		other := NewStore(DefaultSettings())
		require.NoError(t, other.LoadSnapshot(*parsed))

		second, err := other.Snapshot().Marshal()
		require.NoError(t, err)
		assert.Equal(t, string(first), string(second))
	})
}

func TestStoreLoadSnapshot(t *testing.T) {
	t.Run("clamps geometry", func(t *testing.T) {
		s := NewStore(testSettings())
		require.NoError(t, s.LoadSnapshot(document.Diagram{
			Nodes: []document.Node{{ID: "a", Position: document.Point{X: 5000, Y: -3}, Size: document.Size{Width: 1, Height: 1}}},
		}))
		n, _ := s.Node("a")
		assert.Equal(t, document.Point{X: 920, Y: 0}, n.Position)
		assert.Equal(t, document.Size{Width: 80, Height: 60}, n.Size)
	})

	bad := map[string]document.Diagram{
		"dangling link": {
			Nodes: []document.Node{{ID: "a"}},
			Links: []document.Link{{ID: "l", SourceID: "a", TargetID: "b"}},
		},
		"self loop": {
			Nodes: []document.Node{{ID: "a"}},
			Links: []document.Link{{ID: "l", SourceID: "a", TargetID: "a"}},
		},
		"duplicate pair": {
			Nodes: []document.Node{{ID: "a"}, {ID: "b"}},
			Links: []document.Link{
				{ID: "l1", SourceID: "a", TargetID: "b"},
				{ID: "l2", SourceID: "a", TargetID: "b"},
			},
		},
		"duplicate node id": {
			Nodes: []document.Node{{ID: "a"}, {ID: "a"}},
		},
	}
	for name, d := range bad {
		t.Run("rejects "+name, func(t *testing.T) {
			s := NewStore(testSettings())
			addNode(t, s, "keep", 0, 0, 100, 100)

			assert.Error(t, s.LoadSnapshot(d))

			nodes := s.Nodes()
			require.Len(t, nodes, 1)
			assert.Equal(t, "keep", nodes[0].ID)
		})
	}

	t.Run("preserves animated false", func(t *testing.T) {
		s := NewStore(testSettings())
		require.NoError(t, s.LoadSnapshot(document.Diagram{
			Nodes: []document.Node{{ID: "a"}, {ID: "b"}},
			Links: []document.Link{{ID: "l", SourceID: "a", TargetID: "b", Animated: false}},
		}))
		l, ok := s.Link("l")
		require.True(t, ok)
		assert.False(t, l.Animated)
	})
}
