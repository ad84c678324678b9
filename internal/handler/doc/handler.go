package doc

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-dev/docchat/internal/extract"
	"github.com/docchat-dev/docchat/internal/model/document"
	sessionService "github.com/docchat-dev/docchat/internal/service/session"
	"github.com/docchat-dev/docchat/pkg/utils"
)

// Handler exposes document upload and lifecycle endpoints.
type Handler struct {
	sessions  *sessionService.Service
	registry  *extract.Registry
	maxUpload int64
}

// New creates the document handler.
func New(sessions *sessionService.Service, registry *extract.Registry, maxUpload int64) *Handler {
	return &Handler{sessions: sessions, registry: registry, maxUpload: maxUpload}
}

// RegisterRoutes registers document routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/document", h.handleUpload)
	r.Get("/session/{sessionID}/document", h.handleGet)
	r.Delete("/session/{sessionID}/document", h.handleClear)
}

// handleUpload extracts the uploaded file and replaces the active
// document on success. Extraction failure leaves the prior document,
// if any, untouched.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	kind, ok := document.KindFromFilename(header.Filename)
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "unsupported file extension; use txt, md, pdf, docx, doc, xls or xlsx")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	content, err := h.registry.Extract(kind, data)
	if err != nil {
		respondExtractionError(w, err)
		return
	}

	newDoc := document.New(header.Filename, kind, content)
	if err := h.sessions.SetDocument(r.Context(), sessionID, newDoc); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Printf("[upload] session=%s document=%s kind=%s size=%d", sessionID, newDoc.Name, newDoc.Kind, newDoc.SizeBytes)
	utils.RespondJSON(w, http.StatusCreated, metadata(newDoc))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	active, err := h.sessions.Document(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if active == nil {
		utils.RespondError(w, http.StatusNotFound, "no document loaded")
		return
	}
	utils.RespondJSON(w, http.StatusOK, metadata(*active))
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.sessions.ClearDocument(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// metadata projects a document without its full content; the text only
// travels to the completion endpoint, not back to the browser.
func metadata(d document.Document) map[string]any {
	return map[string]any{
		"name":        d.Name,
		"kind":        d.Kind,
		"sizeBytes":   d.SizeBytes,
		"processedAt": d.ProcessedAt,
	}
}

func respondExtractionError(w http.ResponseWriter, err error) {
	kind, ok := extract.KindOf(err)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusUnprocessableEntity
	switch kind {
	case extract.FailureDependencyUnavailable:
		status = http.StatusServiceUnavailable
	case extract.FailureUnsupportedFormat:
		status = http.StatusBadRequest
	}

	utils.RespondJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	})
}

func respondServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, sessionService.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	utils.RespondError(w, http.StatusInternalServerError, err.Error())
}
