package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
	"github.com/archcanvas/archcanvas/backend-go/internal/engine"
)

// inEmptyDir runs the test from a directory without a .env file.
func inEmptyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inEmptyDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Origins())
	assert.Equal(t, []string{"localhost:5173", "localhost:3000"}, cfg.OriginHosts())
	assert.Equal(t, engine.DefaultSettings(), cfg.Canvas.Settings())
}

func TestLoadFromEnvironment(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALLOWED_ORIGINS", " https://canvas.example.com , ")
	t.Setenv("CANVAS_WIDTH", "2000")
	t.Setenv("CANVAS_MAX_ZOOM", "5")
	t.Setenv("CANVAS_DEFAULT_PAN_X", "40")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, []string{"https://canvas.example.com"}, cfg.Origins())

	s := cfg.Canvas.Settings()
	assert.Equal(t, 2000.0, s.CanvasWidth)
	assert.Equal(t, 4000.0, s.CanvasHeight)
	assert.Equal(t, 5.0, s.MaxZoom)
	assert.Equal(t, 40.0, s.DefaultPan.X)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inEmptyDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CANVAS_HANDLE_SIZE=14\n"), 0o600))
	// Registers a restore so the value godotenv sets does not leak.
	t.Setenv("CANVAS_HANDLE_SIZE", "")
	require.NoError(t, os.Unsetenv("CANVAS_HANDLE_SIZE"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 14.0, cfg.Canvas.HandleSize)
}

func TestLoadRejectsBadCanvas(t *testing.T) {
	cases := map[string]map[string]string{
		"zero width":        {"CANVAS_WIDTH": "0"},
		"min above max":     {"CANVAS_MIN_NODE_WIDTH": "500"},
		"negative min zoom": {"CANVAS_MIN_ZOOM": "-1"},
		"not a number":      {"CANVAS_HEIGHT": "tall"},
		"narrower than min": {"CANVAS_WIDTH": "50"},
		"shorter than min":  {"CANVAS_HEIGHT": "59"},
		"zero default node": {"CANVAS_DEFAULT_NODE_WIDTH": "0"},
		"negative default":  {"CANVAS_DEFAULT_NODE_HEIGHT": "-10"},
		"zero zoom step":    {"CANVAS_ZOOM_STEP": "0"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			inEmptyDir(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSmallestValidCanvasKeepsNodesInside(t *testing.T) {
	inEmptyDir(t)
	t.Setenv("CANVAS_WIDTH", "80")
	t.Setenv("CANVAS_HEIGHT", "60")

	cfg, err := Load()
	require.NoError(t, err)

	s := engine.NewStore(cfg.Canvas.Settings())
	id, err := s.AddNode(engine.NodeSpec{
		Position: document.Point{X: 500, Y: 500},
		Size:     document.Size{Width: 300, Height: 300},
	})
	require.NoError(t, err)

	n, ok := s.Node(id)
	require.True(t, ok)
	assert.Equal(t, document.Point{X: 0, Y: 0}, n.Position)
	assert.Equal(t, document.Size{Width: 80, Height: 60}, n.Size)
}

func TestValidateWrapsEngineError(t *testing.T) {
	c := CanvasConfig{Width: 50, Height: 4000}
	err := c.Validate()
	assert.ErrorIs(t, err, engine.ErrInvalidSettings)
}

func TestLevelFallsBackToInfo(t *testing.T) {
	cfg := &Config{LogLevel: "chatty"}
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}
