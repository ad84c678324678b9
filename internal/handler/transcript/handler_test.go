package transcript

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/docchat-dev/docchat/internal/model/chat"
	sessionService "github.com/docchat-dev/docchat/internal/service/session"
)

func setupRouter() (*chi.Mux, *sessionService.Service) {
	sessions := sessionService.NewService()
	handler := New(sessions)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions
}

func TestListTranscript(t *testing.T) {
	r, sessions := setupRouter()
	ctx := context.Background()

	s, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := sessions.AppendTurn(ctx, s.ID, chat.RoleUser, "q"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}
	if err := sessions.AppendTurn(ctx, s.ID, chat.RoleAssistant, "a"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/session/"+s.ID+"/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload struct {
		Turns []chat.Turn `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Turns) != 2 || payload.Turns[0].Role != chat.RoleUser || payload.Turns[1].Content != "a" {
		t.Fatalf("unexpected transcript: %+v", payload.Turns)
	}
}

func TestClearTranscript(t *testing.T) {
	r, sessions := setupRouter()
	ctx := context.Background()

	s, err := sessions.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := sessions.AppendTurn(ctx, s.ID, chat.RoleUser, "q"); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/session/"+s.ID+"/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	turns, _ := sessions.Transcript(ctx, s.ID)
	if len(turns) != 0 {
		t.Fatalf("transcript not cleared: %+v", turns)
	}
}

func TestTranscriptUnknownSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/session/missing/messages", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
