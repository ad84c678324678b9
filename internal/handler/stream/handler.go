package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/docchat-dev/docchat/internal/model/chat"
	"github.com/docchat-dev/docchat/internal/model/document"
	aiService "github.com/docchat-dev/docchat/internal/service/ai"
	sessionService "github.com/docchat-dev/docchat/internal/service/session"
	"github.com/docchat-dev/docchat/pkg/utils"
)

// Handler streams grounded answers via Server-Sent Events.
type Handler struct {
	aiSvc    *aiService.Service
	sessions *sessionService.Service
}

// New creates a new stream handler.
func New(aiSvc *aiService.Service, sessions *sessionService.Service) *Handler {
	return &Handler{aiSvc: aiSvc, sessions: sessions}
}

// StreamResponse represents a streaming response chunk.
type StreamResponse struct {
	Event     string `json:"event"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest answers userMessage for the session. Gate checks
// (credential set, document loaded) are reported as plain JSON statuses
// before the SSE stream is opened, never silently dropped.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	if strings.TrimSpace(userMessage) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message must not be empty")
		return nil
	}

	apiKey, doc, ok := h.guard(ctx, w, sessionID)
	if !ok {
		return nil
	}

	flusher, flusherOK := w.(http.Flusher)
	if !flusherOK {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	// History is captured before the question is appended; the question
	// itself rides as the final user message of the prompt.
	history, err := h.sessions.Transcript(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return err
	}

	// The user turn is persisted up front and is never rolled back: a
	// failed completion leaves the unanswered question in place so the
	// user can retry.
	if err := h.sessions.AppendTurn(ctx, sessionID, chat.RoleUser, userMessage); err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return err
	}

	utils.SetupSSEHeaders(w)

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "start",
		SessionID: sessionID,
	})

	response, err := h.streamAnswer(ctx, w, flusher, sessionID, apiKey, *doc, history, userMessage)
	if err != nil {
		h.sendSSEError(w, flusher, fmt.Sprintf("completion failed: %v", err))
		return err
	}

	if err := h.sessions.AppendTurn(ctx, sessionID, chat.RoleAssistant, response.Content); err != nil {
		log.Printf("[stream] failed to save assistant turn: %v", err)
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "end",
		SessionID: sessionID,
		Finished:  true,
	})

	log.Printf("[stream] completed response for session=%s document=%s", sessionID, doc.Name)
	return nil
}

// guard enforces the two submission gates: Authenticated and Loaded.
func (h *Handler) guard(ctx context.Context, w http.ResponseWriter, sessionID string) (string, *document.Document, bool) {
	apiKey, err := h.sessions.Credential(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return "", nil, false
	}
	if apiKey == "" {
		utils.RespondError(w, http.StatusConflict, "api key required: set the session credential before asking")
		return "", nil, false
	}

	doc, err := h.sessions.Document(ctx, sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return "", nil, false
	}
	if doc == nil {
		utils.RespondError(w, http.StatusConflict, "no document loaded: upload a document before asking")
		return "", nil, false
	}

	return apiKey, doc, true
}

func (h *Handler) streamAnswer(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, sessionID, apiKey string, doc document.Document, history []chat.Turn, userMessage string) (*schema.Message, error) {
	stream, err := h.aiSvc.StreamAnswer(ctx, apiKey, doc, history, userMessage)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)

	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return nil, recvErr
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.sendSSE(w, flusher, StreamResponse{
				Event:     "delta",
				SessionID: sessionID,
				Content:   chunk.Content,
			})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return nil, err
	}

	h.sendSSE(w, flusher, StreamResponse{
		Event:     "message",
		SessionID: sessionID,
		Content:   response.Content,
	})

	return response, nil
}

func (h *Handler) sendSSE(w http.ResponseWriter, flusher http.Flusher, response StreamResponse) {
	utils.SendSSEChunk(w, flusher, response)
}

func (h *Handler) sendSSEError(w http.ResponseWriter, flusher http.Flusher, errorMsg string) {
	h.sendSSE(w, flusher, StreamResponse{
		Event: "error",
		Error: errorMsg,
	})
}
