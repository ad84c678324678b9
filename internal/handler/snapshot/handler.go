package snapshot

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionService "github.com/docchat-dev/docchat/internal/service/session"
	"github.com/docchat-dev/docchat/pkg/utils"
)

// Handler exposes named-snapshot save/load/delete/list.
type Handler struct {
	sessions *sessionService.Service
}

// New creates the snapshot handler.
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers snapshot routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/snapshots", h.handleSave)
	r.Get("/session/{sessionID}/snapshots", h.handleList)
	r.Post("/session/{sessionID}/snapshots/{label}/load", h.handleLoad)
	r.Delete("/session/{sessionID}/snapshots/{label}", h.handleDelete)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var payload struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	snapshot, err := h.sessions.SaveSnapshot(r.Context(), sessionID, payload.Label)
	if err != nil {
		switch {
		case errors.Is(err, sessionService.ErrBlankLabel):
			utils.RespondError(w, http.StatusBadRequest, "label must not be blank")
		case errors.Is(err, sessionService.ErrEmptyConversation):
			utils.RespondError(w, http.StatusConflict, "no conversation to save")
		default:
			respondServiceError(w, err)
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"label":   snapshot.Label,
		"savedAt": snapshot.SavedAt,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	infos, err := h.sessions.Snapshots(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"snapshots": infos})
}

// handleLoad replaces the live conversation with the snapshot's turns.
// The active document is never touched; documentMismatch tells the UI
// to warn when the snapshot was taken against a different document.
func (h *Handler) handleLoad(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	label := chi.URLParam(r, "label")

	snapshot, mismatch, err := h.sessions.LoadSnapshot(r.Context(), sessionID, label)
	if err != nil {
		if errors.Is(err, sessionService.ErrSnapshotNotFound) {
			utils.RespondError(w, http.StatusNotFound, "snapshot not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"label":            snapshot.Label,
		"turnCount":        len(snapshot.Turns),
		"documentName":     snapshot.DocumentName,
		"documentKind":     snapshot.DocumentKind,
		"documentMismatch": mismatch,
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	label := chi.URLParam(r, "label")

	if err := h.sessions.DeleteSnapshot(r.Context(), sessionID, label); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessionService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
