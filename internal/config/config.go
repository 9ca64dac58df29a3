package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
	"github.com/archcanvas/archcanvas/backend-go/internal/engine"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`

	Canvas CanvasConfig `envconfig:"CANVAS"`
}

// CanvasConfig mirrors engine.Settings. Lengths are world units except
// LinkHitTolerance and HandleSize, which are screen pixels.
type CanvasConfig struct {
	Width  float64 `envconfig:"WIDTH" default:"4000"`
	Height float64 `envconfig:"HEIGHT" default:"4000"`

	MinNodeWidth      float64 `envconfig:"MIN_NODE_WIDTH" default:"80"`
	MinNodeHeight     float64 `envconfig:"MIN_NODE_HEIGHT" default:"60"`
	MaxNodeWidth      float64 `envconfig:"MAX_NODE_WIDTH" default:"400"`
	MaxNodeHeight     float64 `envconfig:"MAX_NODE_HEIGHT" default:"300"`
	DefaultNodeWidth  float64 `envconfig:"DEFAULT_NODE_WIDTH" default:"160"`
	DefaultNodeHeight float64 `envconfig:"DEFAULT_NODE_HEIGHT" default:"80"`

	MinZoom     float64 `envconfig:"MIN_ZOOM" default:"0.1"`
	MaxZoom     float64 `envconfig:"MAX_ZOOM" default:"3.0"`
	ZoomStep    float64 `envconfig:"ZOOM_STEP" default:"0.1"`
	DefaultPanX float64 `envconfig:"DEFAULT_PAN_X" default:"0"`
	DefaultPanY float64 `envconfig:"DEFAULT_PAN_Y" default:"0"`

	LabelOffset      float64 `envconfig:"LABEL_OFFSET" default:"8"`
	LinkHitTolerance float64 `envconfig:"LINK_HIT_TOLERANCE" default:"6"`
	HandleSize       float64 `envconfig:"HANDLE_SIZE" default:"10"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Canvas.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins on commas.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// OriginHosts returns the allowed origins without their scheme, the form
// websocket origin patterns expect.
func (c *Config) OriginHosts() []string {
	origins := c.Origins()
	for i, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			origins[i] = host
		}
	}
	return origins
}

func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Validate checks the canvas block with the same rules the engine applies.
func (c CanvasConfig) Validate() error {
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func (c CanvasConfig) Settings() engine.Settings {
	return engine.Settings{
		CanvasWidth:      c.Width,
		CanvasHeight:     c.Height,
		MinNodeSize:      document.Size{Width: c.MinNodeWidth, Height: c.MinNodeHeight},
		MaxNodeSize:      document.Size{Width: c.MaxNodeWidth, Height: c.MaxNodeHeight},
		DefaultNodeSize:  document.Size{Width: c.DefaultNodeWidth, Height: c.DefaultNodeHeight},
		MinZoom:          c.MinZoom,
		MaxZoom:          c.MaxZoom,
		ZoomStep:         c.ZoomStep,
		DefaultPan:       document.Point{X: c.DefaultPanX, Y: c.DefaultPanY},
		LabelOffset:      c.LabelOffset,
		LinkHitTolerance: c.LinkHitTolerance,
		HandleSize:       c.HandleSize,
	}
}
