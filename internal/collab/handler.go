package collab

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/archcanvas/archcanvas/backend-go/internal/typeid"
)

const maxDisplayName = 64

// Handler upgrades GET /ws/diagram/{diagramId} to a cursor feed.
type Handler struct {
	hub            *Hub
	originPatterns []string
}

func NewHandler(hub *Hub, originPatterns []string) *Handler {
	return &Handler{hub: hub, originPatterns: originPatterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	diagramID := mux.Vars(r)["diagramId"]
	if err := typeid.Validate(diagramID, typeid.PrefixDiagram); err != nil {
		http.Error(w, "invalid diagram id", http.StatusBadRequest)
		return
	}

	// Collaborators are anonymous; identity is per connection.
	collaboratorID := "anon-" + uuid.New().String()[:8]
	displayName := strings.TrimSpace(r.URL.Query().Get("name"))
	if displayName == "" {
		displayName = "Anonymous"
	}
	if runes := []rune(displayName); len(runes) > maxDisplayName {
		displayName = string(runes[:maxDisplayName])
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, collaboratorID, displayName, diagramID, clientID)

	if !h.hub.Register(client) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
