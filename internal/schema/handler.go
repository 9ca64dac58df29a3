package schema

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	registry *Registry
}

func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Routes mounts the registry under r.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/kinds", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/kinds/{kind}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/kinds/{kind}/template", h.Template).Methods("GET", "OPTIONS")
	r.HandleFunc("/kinds/{kind}/validate", h.Validate).Methods("POST", "OPTIONS")
}

type kindSummary struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	kinds := h.registry.Kinds()
	out := make([]kindSummary, len(kinds))
	for i, k := range kinds {
		out[i] = kindSummary{Kind: k.Kind, DisplayName: k.DisplayName, Color: k.Color}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	k, err := h.registry.Kind(mux.Vars(r)["kind"])
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, k)
}

func (h *Handler) Template(w http.ResponseWriter, r *http.Request) {
	tpl, err := h.registry.Template(mux.Vars(r)["kind"])
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	var props map[string]any
	if err := json.NewDecoder(r.Body).Decode(&props); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := h.registry.Validate(mux.Vars(r)["kind"], props); err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnknownKind):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidValue):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		slog.Error("schema request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
