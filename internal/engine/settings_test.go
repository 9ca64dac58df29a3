package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())
}

func TestSettingsValidate(t *testing.T) {
	cases := map[string]func(*Settings){
		"zero canvas":      func(s *Settings) { s.CanvasWidth = 0 },
		"canvas below min": func(s *Settings) { s.CanvasWidth = 50 },
		"canvas shorter":   func(s *Settings) { s.CanvasHeight = 59 },
		"min above max":    func(s *Settings) { s.MinNodeSize.Width = 500 },
		"zero min":         func(s *Settings) { s.MinNodeSize.Height = 0 },
		"zero default":     func(s *Settings) { s.DefaultNodeSize.Width = 0 },
		"negative default": func(s *Settings) { s.DefaultNodeSize.Height = -1 },
		"zero min zoom":    func(s *Settings) { s.MinZoom = 0 },
		"inverted zoom":    func(s *Settings) { s.MaxZoom = 0.05 },
		"zero zoom step":   func(s *Settings) { s.ZoomStep = 0 },
		"negative hit":     func(s *Settings) { s.LinkHitTolerance = -1 },
		"infinite canvas":  func(s *Settings) { s.CanvasHeight = math.Inf(1) },
		"not a number pan": func(s *Settings) { s.DefaultPan.X = math.NaN() },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := DefaultSettings()
			mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrInvalidSettings)
		})
	}
}

func TestSettingsCanvasExactlyMinNode(t *testing.T) {
	s := DefaultSettings()
	s.CanvasWidth = s.MinNodeSize.Width
	s.CanvasHeight = s.MinNodeSize.Height
	require.NoError(t, s.Validate())

	st := NewStore(s)
	id, err := st.AddNode(NodeSpec{
		Position: document.Point{X: 40, Y: 40},
		Size:     document.Size{Width: 400, Height: 300},
	})
	require.NoError(t, err)
	assertInBounds(t, st)

	n, _ := st.Node(id)
	assert.Equal(t, s.MinNodeSize, n.Size)
}

func TestSettingsJSONOverlaysDefaults(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, json.Unmarshal([]byte(`{"canvasWidth": 2000, "minNodeSize": {"width": 100}}`), &s))

	assert.Equal(t, 2000.0, s.CanvasWidth)
	assert.Equal(t, 4000.0, s.CanvasHeight)
	assert.Equal(t, document.Size{Width: 100, Height: 60}, s.MinNodeSize)
	assert.NoError(t, s.Validate())

	out, err := json.Marshal(DefaultSettings())
	require.NoError(t, err)
	assert.Contains(t, string(out), `"linkHitTolerance":6`)
}
