package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/archcanvas/archcanvas/backend-go/internal/collab"
	"github.com/archcanvas/archcanvas/backend-go/internal/config"
	mw "github.com/archcanvas/archcanvas/backend-go/internal/middleware"
	"github.com/archcanvas/archcanvas/backend-go/internal/schema"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	registry, err := schema.Default()
	if err != nil {
		slog.Error("load kind schema", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := collab.NewHub()
	go hub.Run(ctx)

	r := newRouter(cfg, registry, hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
		// No read/write timeouts: they would stay on hijacked websocket
		// connections. Cursor writes carry their own deadlines.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Closing the hub ends every cursor feed
		cancel()
		<-hub.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}()

	slog.Info("server starting", "addr", addr, "canvas", fmt.Sprintf("%gx%g", cfg.Canvas.Width, cfg.Canvas.Height))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newRouter(cfg *config.Config, registry *schema.Registry, hub *collab.Hub) *mux.Router {
	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	schema.NewHandler(registry).Routes(api)

	// Canvas settings the browser engine is initialised with
	settings := cfg.Canvas.Settings()
	api.HandleFunc("/canvas/settings", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(settings); err != nil {
			slog.Error("encode canvas settings", "error", err)
		}
	}).Methods("GET", "OPTIONS")

	// WebSocket endpoint
	r.Handle("/ws/diagram/{diagramId}", collab.NewHandler(hub, cfg.OriginHosts())).Methods("GET")

	return r
}
