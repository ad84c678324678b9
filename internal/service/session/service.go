// Package session owns the per-session state machine: credential,
// active document, live conversation and named snapshots.
package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docchat-dev/docchat/internal/model/chat"
	"github.com/docchat-dev/docchat/internal/model/document"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrBlankCredential   = errors.New("credential is blank")
	ErrInvalidRole       = errors.New("role must be user or assistant")
	ErrEmptyConversation = errors.New("no conversation to save")
	ErrBlankLabel        = errors.New("snapshot label is blank")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
)

// state is the single mutable record behind one session. All fields are
// reset together by Reset; the document is replaced whole, never patched.
type state struct {
	session   chat.Session
	apiKey    string
	document  *document.Document
	turns     []chat.Turn
	snapshots map[string]chat.Snapshot
}

// Summary is the rendered-state projection handed to the HTTP layer.
type Summary struct {
	Session       chat.Session       `json:"session"`
	Authenticated bool               `json:"authenticated"`
	Document      *document.Document `json:"document,omitempty"`
	TurnCount     int                `json:"turnCount"`
	Snapshots     []SnapshotInfo     `json:"snapshots"`
}

// SnapshotInfo lists a saved snapshot without its turns.
type SnapshotInfo struct {
	Label        string        `json:"label"`
	DocumentName string        `json:"documentName"`
	DocumentKind document.Kind `json:"documentKind"`
	SavedAt      time.Time     `json:"savedAt"`
	TurnCount    int           `json:"turnCount"`
}

// Service encapsulates conversation and document state management.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*state
}

// NewService bootstraps the in-memory session service.
func NewService() *Service {
	return &Service{sessions: make(map[string]*state)}
}

// CreateSession provisions an anonymous session with defaults: no
// credential, no document, empty conversation, no snapshots.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = &state{
		session:   session,
		snapshots: make(map[string]chat.Snapshot),
	}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return st.session, nil
}

// Reset restores a session to its creation defaults, dropping the
// credential, document, conversation and snapshots.
func (s *Service) Reset(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.apiKey = ""
	st.document = nil
	st.turns = nil
	st.snapshots = make(map[string]chat.Snapshot)
	return nil
}

// SetCredential stores the user-supplied API key in memory for the
// session's lifetime. It is never written to disk.
func (s *Service) SetCredential(_ context.Context, sessionID, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return ErrBlankCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.apiKey = strings.TrimSpace(apiKey)
	return nil
}

// Credential returns the session's API key; empty means unauthenticated.
func (s *Service) Credential(_ context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return "", ErrSessionNotFound
	}
	return st.apiKey, nil
}

// SetDocument unconditionally replaces the active document.
func (s *Service) SetDocument(_ context.Context, sessionID string, doc document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.document = &doc
	return nil
}

// Document returns a copy of the active document, if any.
func (s *Service) Document(_ context.Context, sessionID string) (*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.document == nil {
		return nil, nil
	}
	doc := *st.document
	return &doc, nil
}

// ClearDocument empties the document axis.
func (s *Service) ClearDocument(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.document = nil
	return nil
}

// AppendTurn appends one message to the live conversation.
func (s *Service) AppendTurn(_ context.Context, sessionID string, role chat.Role, content string) error {
	if !chat.ValidRole(role) {
		return ErrInvalidRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.turns = append(st.turns, chat.Turn{Role: role, Content: content})
	return nil
}

// Transcript returns a copy of the live conversation in chat order.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]chat.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return chat.CloneTurns(st.turns), nil
}

// ClearConversation empties the live conversation. Idempotent.
func (s *Service) ClearConversation(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	st.turns = nil
	return nil
}

// SaveSnapshot stores a deep copy of the conversation under label,
// overwriting any previous snapshot with the same label.
func (s *Service) SaveSnapshot(_ context.Context, sessionID, label string) (chat.Snapshot, error) {
	if strings.TrimSpace(label) == "" {
		return chat.Snapshot{}, ErrBlankLabel
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Snapshot{}, ErrSessionNotFound
	}
	if len(st.turns) == 0 {
		return chat.Snapshot{}, ErrEmptyConversation
	}

	snapshot := chat.Snapshot{
		Label:   label,
		Turns:   chat.CloneTurns(st.turns),
		SavedAt: time.Now().UTC(),
	}
	if st.document != nil {
		snapshot.DocumentName = st.document.Name
		snapshot.DocumentKind = st.document.Kind
	}
	st.snapshots[label] = snapshot
	return snapshot, nil
}

// LoadSnapshot replaces the live conversation with a copy of the
// snapshot's turns. The document is not restored; documentMismatch
// reports whether the snapshot was taken against a different document
// than the one currently active.
func (s *Service) LoadSnapshot(_ context.Context, sessionID, label string) (chat.Snapshot, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return chat.Snapshot{}, false, ErrSessionNotFound
	}
	snapshot, ok := st.snapshots[label]
	if !ok {
		return chat.Snapshot{}, false, ErrSnapshotNotFound
	}

	st.turns = chat.CloneTurns(snapshot.Turns)

	mismatch := true
	if st.document != nil &&
		st.document.Name == snapshot.DocumentName &&
		st.document.Kind == snapshot.DocumentKind {
		mismatch = false
	}
	return snapshot, mismatch, nil
}

// DeleteSnapshot removes the entry if present; deleting an absent label
// is a no-op.
func (s *Service) DeleteSnapshot(_ context.Context, sessionID, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(st.snapshots, label)
	return nil
}

// Snapshots lists saved snapshots, newest first.
func (s *Service) Snapshots(_ context.Context, sessionID string) ([]SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	infos := make([]SnapshotInfo, 0, len(st.snapshots))
	for _, snap := range st.snapshots {
		infos = append(infos, SnapshotInfo{
			Label:        snap.Label,
			DocumentName: snap.DocumentName,
			DocumentKind: snap.DocumentKind,
			SavedAt:      snap.SavedAt,
			TurnCount:    len(snap.Turns),
		})
	}
	sortSnapshotInfos(infos)
	return infos, nil
}

// Summarize projects the rendered state for one session: authentication
// flag, document badge data, transcript length and snapshot list.
func (s *Service) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	if !ok {
		s.mu.RUnlock()
		return Summary{}, ErrSessionNotFound
	}

	summary := Summary{
		Session:       st.session,
		Authenticated: st.apiKey != "",
		TurnCount:     len(st.turns),
	}
	if st.document != nil {
		doc := *st.document
		summary.Document = &doc
	}
	s.mu.RUnlock()

	infos, err := s.Snapshots(ctx, sessionID)
	if err != nil {
		return Summary{}, err
	}
	summary.Snapshots = infos
	return summary, nil
}

func sortSnapshotInfos(infos []SnapshotInfo) {
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].SavedAt.Equal(infos[j].SavedAt) {
			return infos[i].Label < infos[j].Label
		}
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})
}
