package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/docchat-dev/docchat/internal/model/chat"
	"github.com/docchat-dev/docchat/internal/model/document"
	session "github.com/docchat-dev/docchat/internal/service/session"
)

func newSession(t *testing.T, svc *session.Service) string {
	t.Helper()
	s, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	return s.ID
}

func TestGetSessionNotFound(t *testing.T) {
	svc := session.NewService()
	if _, err := svc.GetSession(context.Background(), "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCredentialLifecycle(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	key, err := svc.Credential(ctx, id)
	if err != nil || key != "" {
		t.Fatalf("fresh session should be unauthenticated, got (%q, %v)", key, err)
	}

	if err := svc.SetCredential(ctx, id, "  "); !errors.Is(err, session.ErrBlankCredential) {
		t.Fatalf("expected ErrBlankCredential, got %v", err)
	}

	if err := svc.SetCredential(ctx, id, " sk-test "); err != nil {
		t.Fatalf("SetCredential err: %v", err)
	}
	key, _ = svc.Credential(ctx, id)
	if key != "sk-test" {
		t.Fatalf("unexpected credential: %q", key)
	}
}

func TestDocumentReplacement(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	if doc, err := svc.Document(ctx, id); err != nil || doc != nil {
		t.Fatalf("fresh session should have no document, got (%v, %v)", doc, err)
	}

	a := document.New("a.txt", document.KindText, "A")
	b := document.New("b.txt", document.KindText, "B content")
	if err := svc.SetDocument(ctx, id, a); err != nil {
		t.Fatalf("SetDocument err: %v", err)
	}
	if err := svc.SetDocument(ctx, id, b); err != nil {
		t.Fatalf("SetDocument err: %v", err)
	}

	doc, err := svc.Document(ctx, id)
	if err != nil {
		t.Fatalf("Document err: %v", err)
	}
	if doc.Name != "b.txt" || doc.Content != "B content" {
		t.Fatalf("upload(A) then upload(B) should leave B, got %+v", doc)
	}

	if err := svc.ClearDocument(ctx, id); err != nil {
		t.Fatalf("ClearDocument err: %v", err)
	}
	if doc, _ := svc.Document(ctx, id); doc != nil {
		t.Fatal("document not cleared")
	}
}

func TestAppendTurnAndTranscript(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	if err := svc.AppendTurn(ctx, id, "system", "nope"); !errors.Is(err, session.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	mustAppend(t, svc, id, chat.RoleUser, "question")
	mustAppend(t, svc, id, chat.RoleAssistant, "answer")

	turns, err := svc.Transcript(ctx, id)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != chat.RoleUser || turns[1].Content != "answer" {
		t.Fatalf("unexpected transcript: %+v", turns)
	}

	// The returned slice is a copy; mutating it must not touch live state.
	turns[0].Content = "tampered"
	again, _ := svc.Transcript(ctx, id)
	if again[0].Content != "question" {
		t.Fatal("transcript aliases live state")
	}
}

func TestClearConversationIdempotent(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	mustAppend(t, svc, id, chat.RoleUser, "hi")
	if err := svc.ClearConversation(ctx, id); err != nil {
		t.Fatalf("ClearConversation err: %v", err)
	}
	if err := svc.ClearConversation(ctx, id); err != nil {
		t.Fatalf("second ClearConversation err: %v", err)
	}
	turns, _ := svc.Transcript(ctx, id)
	if len(turns) != 0 {
		t.Fatalf("conversation not cleared: %+v", turns)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	doc := document.New("a.txt", document.KindText, "A")
	if err := svc.SetDocument(ctx, id, doc); err != nil {
		t.Fatalf("SetDocument err: %v", err)
	}
	mustAppend(t, svc, id, chat.RoleUser, "q1")
	mustAppend(t, svc, id, chat.RoleAssistant, "a1")

	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}
	if err := svc.ClearConversation(ctx, id); err != nil {
		t.Fatalf("ClearConversation err: %v", err)
	}

	snap, mismatch, err := svc.LoadSnapshot(ctx, id, "x")
	if err != nil {
		t.Fatalf("LoadSnapshot err: %v", err)
	}
	if mismatch {
		t.Fatal("same document should not be flagged as mismatch")
	}
	if snap.DocumentName != "a.txt" || snap.DocumentKind != document.KindText {
		t.Fatalf("snapshot lost document metadata: %+v", snap)
	}

	turns, _ := svc.Transcript(ctx, id)
	if len(turns) != 2 || turns[0].Content != "q1" || turns[1].Content != "a1" {
		t.Fatalf("round trip did not restore turns: %+v", turns)
	}
}

func TestSnapshotIsImmutableCopy(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	mustAppend(t, svc, id, chat.RoleUser, "q1")
	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}

	// Appending after the save must not leak into the snapshot.
	mustAppend(t, svc, id, chat.RoleAssistant, "late")

	snap, _, err := svc.LoadSnapshot(ctx, id, "x")
	if err != nil {
		t.Fatalf("LoadSnapshot err: %v", err)
	}
	if len(snap.Turns) != 1 {
		t.Fatalf("snapshot mutated after save: %+v", snap.Turns)
	}
}

func TestSnapshotErrors(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	if _, err := svc.SaveSnapshot(ctx, id, "x"); !errors.Is(err, session.ErrEmptyConversation) {
		t.Fatalf("expected ErrEmptyConversation, got %v", err)
	}
	if infos, _ := svc.Snapshots(ctx, id); len(infos) != 0 {
		t.Fatal("failed save must not create an entry")
	}

	mustAppend(t, svc, id, chat.RoleUser, "q")
	if _, err := svc.SaveSnapshot(ctx, id, "  "); !errors.Is(err, session.ErrBlankLabel) {
		t.Fatalf("expected ErrBlankLabel, got %v", err)
	}

	if _, _, err := svc.LoadSnapshot(ctx, id, "absent"); !errors.Is(err, session.ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
	turns, _ := svc.Transcript(ctx, id)
	if len(turns) != 1 {
		t.Fatal("failed load must leave conversation unchanged")
	}

	if err := svc.DeleteSnapshot(ctx, id, "absent"); err != nil {
		t.Fatalf("deleting an absent label must be a no-op, got %v", err)
	}
}

func TestSnapshotLabelsAreCaseSensitive(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	mustAppend(t, svc, id, chat.RoleUser, "q")
	if _, err := svc.SaveSnapshot(ctx, id, "Label"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}
	if _, _, err := svc.LoadSnapshot(ctx, id, "label"); !errors.Is(err, session.ErrSnapshotNotFound) {
		t.Fatalf("labels must be exact-match keys, got %v", err)
	}
}

func TestLoadSnapshotFlagsDocumentMismatch(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	if err := svc.SetDocument(ctx, id, document.New("a.txt", document.KindText, "A")); err != nil {
		t.Fatalf("SetDocument err: %v", err)
	}
	mustAppend(t, svc, id, chat.RoleUser, "q")
	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}

	if err := svc.SetDocument(ctx, id, document.New("b.pdf", document.KindPDF, "B")); err != nil {
		t.Fatalf("SetDocument err: %v", err)
	}

	_, mismatch, err := svc.LoadSnapshot(ctx, id, "x")
	if err != nil {
		t.Fatalf("LoadSnapshot err: %v", err)
	}
	if !mismatch {
		t.Fatal("expected document mismatch flag")
	}

	// The load itself never touches the document axis.
	doc, _ := svc.Document(ctx, id)
	if doc == nil || doc.Name != "b.pdf" {
		t.Fatalf("load must not restore the document, got %+v", doc)
	}
}

func TestSaveSnapshotOverwritesLabel(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	mustAppend(t, svc, id, chat.RoleUser, "q1")
	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}
	mustAppend(t, svc, id, chat.RoleAssistant, "a1")
	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("second SaveSnapshot err: %v", err)
	}

	snap, _, err := svc.LoadSnapshot(ctx, id, "x")
	if err != nil {
		t.Fatalf("LoadSnapshot err: %v", err)
	}
	if len(snap.Turns) != 2 {
		t.Fatalf("last write should win, got %d turns", len(snap.Turns))
	}
	infos, _ := svc.Snapshots(ctx, id)
	if len(infos) != 1 {
		t.Fatalf("duplicate label must not create a second entry: %+v", infos)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	svc := session.NewService()
	ctx := context.Background()
	id := newSession(t, svc)

	_ = svc.SetCredential(ctx, id, "sk-test")
	_ = svc.SetDocument(ctx, id, document.New("a.txt", document.KindText, "A"))
	mustAppend(t, svc, id, chat.RoleUser, "q")
	if _, err := svc.SaveSnapshot(ctx, id, "x"); err != nil {
		t.Fatalf("SaveSnapshot err: %v", err)
	}

	if err := svc.Reset(ctx, id); err != nil {
		t.Fatalf("Reset err: %v", err)
	}

	summary, err := svc.Summarize(ctx, id)
	if err != nil {
		t.Fatalf("Summarize err: %v", err)
	}
	if summary.Authenticated || summary.Document != nil || summary.TurnCount != 0 || len(summary.Snapshots) != 0 {
		t.Fatalf("reset left state behind: %+v", summary)
	}
}

func mustAppend(t *testing.T, svc *session.Service, id string, role chat.Role, content string) {
	t.Helper()
	if err := svc.AppendTurn(context.Background(), id, role, content); err != nil {
		t.Fatalf("AppendTurn err: %v", err)
	}
}
