package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 16 * 1024
	sendBuffer = 256
)

// Client is one websocket connection to a diagram room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool

	CollaboratorID string
	DisplayName    string
	Color          string
	DiagramID      string
	ClientID       string
}

func NewClient(hub *Hub, conn *websocket.Conn, collaboratorID, displayName, diagramID, clientID string) *Client {
	return &Client{
		hub:            hub,
		conn:           conn,
		send:           make(chan []byte, sendBuffer),
		CollaboratorID: collaboratorID,
		DisplayName:    displayName,
		Color:          ColorFor(collaboratorID),
		DiagramID:      diagramID,
		ClientID:       clientID,
	}
}

// ReadPump reads cursor messages until the connection closes, then leaves
// the room.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	c.conn.SetReadLimit(maxMsgSize)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				slog.Debug("read error", "error", err, "collaborator", c.CollaboratorID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("invalid message", "error", err, "collaborator", c.CollaboratorID)
			c.SendError("invalid message")
			continue
		}

		msg.ClientID = c.ClientID
		msg.DiagramID = c.DiagramID

		c.hub.handleMessage(c, &msg)
	}
}

// WritePump drains the send queue onto the connection and keeps it alive
// with pings. It returns when the queue is closed or ctx ends.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				slog.Debug("write error", "error", err, "collaborator", c.CollaboratorID)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// Send queues msg, dropping it when the queue is full.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "collaborator", c.CollaboratorID)
	}
}

func (c *Client) SendError(text string) {
	msg, err := newMessage(TypeError, c.DiagramID, ErrorPayload{Message: text})
	if err != nil {
		return
	}
	c.Send(msg)
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
