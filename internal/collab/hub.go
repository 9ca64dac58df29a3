package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sync"
)

// Room is every client viewing one diagram.
type Room struct {
	diagramID string
	clients   map[string]*Client // clientID -> client
	presence  *PresenceManager
}

func NewRoom(diagramID string) *Room {
	return &Room{
		diagramID: diagramID,
		clients:   make(map[string]*Client),
		presence:  NewPresenceManager(),
	}
}

// Hub relays collaborator cursors between the clients of each diagram room.
// Cursors are presence only; the hub never sees or changes diagram data.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // diagramID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is cancelled, then closes every
// client's send queue.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// Register adds a client to its diagram's room. It returns false once the
// hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// RoomSize reports how many clients are connected to a diagram.
func (h *Hub) RoomSize(diagramID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[diagramID]
	if !ok {
		return 0
	}
	return len(room.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DiagramID]
	if !ok {
		room = NewRoom(client.DiagramID)
		h.rooms[client.DiagramID] = room
	}
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	if welcome, err := newMessage(TypeWelcome, client.DiagramID, WelcomePayload{
		ClientID:       client.ClientID,
		CollaboratorID: client.CollaboratorID,
		DisplayName:    client.DisplayName,
		Color:          client.Color,
	}); err == nil {
		client.Send(welcome)
	}

	// Current cursors for the newcomer
	if stateMsg := room.presence.StateMessage(client.DiagramID); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg, err := newMessage(TypeCursorJoin, client.DiagramID, CursorJoinPayload{
		CollaboratorID: client.CollaboratorID,
		DisplayName:    client.DisplayName,
		Color:          client.Color,
	})
	if err == nil {
		h.broadcastToRoom(client.DiagramID, joinMsg, client.ClientID)
	}

	slog.Info("client joined", "collaborator", client.CollaboratorID, "diagram", client.DiagramID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.DiagramID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.closeSend()
	room.presence.Remove(client.CollaboratorID)

	if len(room.clients) == 0 {
		delete(h.rooms, client.DiagramID)
	}
	h.mu.Unlock()

	leaveMsg, err := newMessage(TypeCursorLeave, client.DiagramID, CursorLeavePayload{
		CollaboratorID: client.CollaboratorID,
	})
	if err == nil {
		h.broadcastToRoom(client.DiagramID, leaveMsg, "")
	}

	slog.Info("client left", "collaborator", client.CollaboratorID, "diagram", client.DiagramID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for _, c := range room.clients {
			c.closeSend()
		}
		delete(h.rooms, id)
	}
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeCursorUpdate:
		h.handleCursorUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "collaborator", sender.CollaboratorID)
		sender.SendError("unknown message type " + msg.Type)
	}
}

func (h *Hub) handleCursorUpdate(sender *Client, msg *Message) {
	var cursor CursorPayload
	if err := json.Unmarshal(msg.Payload, &cursor); err != nil {
		slog.Warn("invalid cursor payload", "error", err)
		sender.SendError("invalid cursor payload")
		return
	}
	if !finitePoint(cursor.ScreenPosition.X, cursor.ScreenPosition.Y) ||
		(cursor.WorldPosition != nil && !finitePoint(cursor.WorldPosition.X, cursor.WorldPosition.Y)) {
		sender.SendError("cursor position must be finite")
		return
	}

	cursor.CollaboratorID = sender.CollaboratorID
	cursor.DisplayName = sender.DisplayName
	cursor.Color = sender.Color

	h.mu.RLock()
	room, ok := h.rooms[sender.DiagramID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	room.presence.Update(cursor)

	outMsg, err := newMessage(TypeCursorUpdate, sender.DiagramID, cursor)
	if err != nil {
		slog.Error("marshal cursor", "error", err)
		return
	}
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.DiagramID, outMsg, sender.ClientID)
}

func finitePoint(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && !math.IsNaN(y) && !math.IsInf(y, 0)
}

func (h *Hub) broadcastToRoom(diagramID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[diagramID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
