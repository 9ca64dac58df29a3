package collab

import (
	"encoding/json"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

type Message struct {
	Type      string          `json:"type"`
	DiagramID string          `json:"diagramId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// CursorPayload is a collaborator's pointer. The server fills in the
// collaborator id, display name and color from the connection.
type CursorPayload = document.Cursor

type CursorStatePayload struct {
	Cursors []document.Cursor `json:"cursors"`
}

type CursorJoinPayload struct {
	CollaboratorID string `json:"collaboratorId"`
	DisplayName    string `json:"displayName"`
	Color          string `json:"color"`
}

type CursorLeavePayload struct {
	CollaboratorID string `json:"collaboratorId"`
}

type WelcomePayload struct {
	ClientID       string `json:"clientId"`
	CollaboratorID string `json:"collaboratorId"`
	DisplayName    string `json:"displayName"`
	Color          string `json:"color"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypeCursorUpdate = "cursor.update"
	TypeCursorState  = "cursor.state"
	TypeCursorJoin   = "cursor.join"
	TypeCursorLeave  = "cursor.leave"
	TypeWelcome      = "welcome"
	TypeError        = "error"
)

func newMessage(msgType, diagramID string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: msgType, DiagramID: diagramID, Payload: data}, nil
}
