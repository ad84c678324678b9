package chat

import "time"

// Session captures a transient anonymous conversation scope. Credentials,
// the active document and the turn log live in the session service, keyed
// by the session ID.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
