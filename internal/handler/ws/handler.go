package ws

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/docchat-dev/docchat/internal/model/chat"
	aiService "github.com/docchat-dev/docchat/internal/service/ai"
	sessionService "github.com/docchat-dev/docchat/internal/service/session"
)

// Handler carries the ask/delta/end protocol over a WebSocket for
// clients that prefer a socket to SSE.
type Handler struct {
	aiSvc    *aiService.Service
	sessions *sessionService.Service
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(aiSvc *aiService.Service, sessions *sessionService.Service) *Handler {
	return &Handler{
		aiSvc:    aiSvc,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the WebSocket route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type askMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened for session=%s", sessionID)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			h.send(conn, sessionID, "error", map[string]string{"error": "invalid message"})
			continue
		}

		switch inbound.Type {
		case "ask":
			var ask askMessage
			if err := json.Unmarshal(inbound.Data, &ask); err != nil || strings.TrimSpace(ask.Text) == "" {
				h.send(conn, sessionID, "error", map[string]string{"error": "ask requires non-empty text"})
				continue
			}
			h.handleAsk(r.Context(), conn, sessionID, ask.Text)
		default:
			h.send(conn, sessionID, "error", map[string]string{"error": "unknown message type"})
		}
	}
}

// handleAsk mirrors the SSE flow: gates first, user turn persisted up
// front, assistant turn appended only when the stream completes.
func (h *Handler) handleAsk(ctx context.Context, conn *websocket.Conn, sessionID, question string) {
	apiKey, err := h.sessions.Credential(ctx, sessionID)
	if err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "session not found"})
		return
	}
	if apiKey == "" {
		h.send(conn, sessionID, "error", map[string]string{"error": "api key required: set the session credential before asking"})
		return
	}

	doc, err := h.sessions.Document(ctx, sessionID)
	if err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "session not found"})
		return
	}
	if doc == nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "no document loaded: upload a document before asking"})
		return
	}

	history, err := h.sessions.Transcript(ctx, sessionID)
	if err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "session not found"})
		return
	}

	if err := h.sessions.AppendTurn(ctx, sessionID, chat.RoleUser, question); err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "session not found"})
		return
	}

	h.send(conn, sessionID, "start", nil)

	stream, err := h.aiSvc.StreamAnswer(ctx, apiKey, *doc, history, question)
	if err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "completion failed: " + err.Error()})
		return
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			h.send(conn, sessionID, "error", map[string]string{"error": "completion failed: " + recvErr.Error()})
			return
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" {
			h.send(conn, sessionID, "delta", map[string]string{"content": chunk.Content})
		}
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		h.send(conn, sessionID, "error", map[string]string{"error": "completion failed: " + err.Error()})
		return
	}

	if err := h.sessions.AppendTurn(ctx, sessionID, chat.RoleAssistant, response.Content); err != nil {
		log.Printf("[ws] failed to save assistant turn: %v", err)
	}

	h.send(conn, sessionID, "message", map[string]string{"content": response.Content})
	h.send(conn, sessionID, "end", nil)
}

func (h *Handler) send(conn *websocket.Conn, sessionID, msgType string, data interface{}) {
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
