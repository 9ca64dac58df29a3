package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archcanvas/archcanvas/backend-go/internal/collab"
	"github.com/archcanvas/archcanvas/backend-go/internal/config"
	"github.com/archcanvas/archcanvas/backend-go/internal/engine"
	"github.com/archcanvas/archcanvas/backend-go/internal/schema"
)

func TestRouter(t *testing.T) {
	registry, err := schema.Default()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := collab.NewHub()
	go hub.Run(ctx)

	cfg := &config.Config{
		AllowedOrigins: "http://localhost:5173",
		Canvas: config.CanvasConfig{
			Width: 2000, Height: 1500,
			MinNodeWidth: 80, MinNodeHeight: 60, MaxNodeWidth: 400, MaxNodeHeight: 300,
			DefaultNodeWidth: 160, DefaultNodeHeight: 80,
			MinZoom: 0.25, MaxZoom: 2, ZoomStep: 0.25,
			LabelOffset: 8, LinkHitTolerance: 6, HandleSize: 12,
		},
	}
	r := newRouter(cfg, registry, hub)

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/kinds", http.StatusOK},
		{http.MethodGet, "/api/kinds/database/template", http.StatusOK},
		{http.MethodGet, "/api/kinds/spaceship", http.StatusNotFound},
		{http.MethodGet, "/api/canvas/settings", http.StatusOK},
		{http.MethodPost, "/api/canvas/settings", http.StatusMethodNotAllowed},
		{http.MethodGet, "/ws/diagram/not-a-diagram", http.StatusBadRequest},
		{http.MethodGet, "/nowhere", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.want, rec.Code)
		})
	}

	t.Run("canvas settings", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/canvas/settings", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got engine.Settings
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, cfg.Canvas.Settings(), got)
		assert.Equal(t, 2000.0, got.CanvasWidth)
		assert.Equal(t, 0.25, got.ZoomStep)
		require.NoError(t, got.Validate())
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/kinds", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
