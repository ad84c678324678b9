package transcript

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionService "github.com/docchat-dev/docchat/internal/service/session"
	"github.com/docchat-dev/docchat/pkg/utils"
)

// Handler exposes the conversation transcript.
type Handler struct {
	sessions *sessionService.Service
}

// New creates the transcript handler.
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes registers transcript routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/session/{sessionID}/messages", h.handleList)
	r.Delete("/session/{sessionID}/messages", h.handleClear)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	turns, err := h.sessions.Transcript(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.ClearConversation(r.Context(), sessionID); err != nil {
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
