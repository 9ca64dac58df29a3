package collab

import (
	"cmp"
	"hash/fnv"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/archcanvas/archcanvas/backend-go/internal/document"
)

// PresenceManager holds the last known cursor of every collaborator in a
// room.
type PresenceManager struct {
	mu      sync.RWMutex
	cursors map[string]document.Cursor // collaboratorID -> cursor
}

func NewPresenceManager() *PresenceManager {
	return &PresenceManager{
		cursors: make(map[string]document.Cursor),
	}
}

func (pm *PresenceManager) Update(c document.Cursor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.cursors[c.CollaboratorID] = c
}

func (pm *PresenceManager) Remove(collaboratorID string) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.cursors, collaboratorID)
}

// All returns the cursors ordered by collaborator id.
func (pm *PresenceManager) All() []document.Cursor {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	out := slices.AppendSeq(make([]document.Cursor, 0, len(pm.cursors)), maps.Values(pm.cursors))
	slices.SortFunc(out, func(a, b document.Cursor) int {
		return cmp.Compare(a.CollaboratorID, b.CollaboratorID)
	})
	return out
}

func (pm *PresenceManager) StateMessage(diagramID string) *Message {
	msg, err := newMessage(TypeCursorState, diagramID, CursorStatePayload{Cursors: pm.All()})
	if err != nil {
		slog.Error("marshal cursor state", "error", err)
		return nil
	}
	return msg
}

var cursorColors = []string{
	"#f97316", "#22c55e", "#3b82f6", "#a855f7",
	"#ec4899", "#eab308", "#14b8a6", "#ef4444",
}

// ColorFor picks a stable cursor color for a collaborator.
func ColorFor(collaboratorID string) string {
	h := fnv.New32a()
	h.Write([]byte(collaboratorID))
	return cursorColors[h.Sum32()%uint32(len(cursorColors))]
}
