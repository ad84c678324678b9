package chat

import (
	"time"

	"github.com/docchat-dev/docchat/internal/model/document"
)

// Snapshot is a named, immutable copy of the conversation at save time.
// It records which document was active but does not own it; loading a
// snapshot restores turns only.
type Snapshot struct {
	Label        string        `json:"label"`
	Turns        []Turn        `json:"turns"`
	DocumentName string        `json:"documentName"`
	DocumentKind document.Kind `json:"documentKind"`
	SavedAt      time.Time     `json:"savedAt"`
}

// CloneTurns copies a turn log so snapshots never alias live state.
func CloneTurns(turns []Turn) []Turn {
	if len(turns) == 0 {
		return nil
	}
	copied := make([]Turn, len(turns))
	copy(copied, turns)
	return copied
}
