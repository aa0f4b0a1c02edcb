// internal/models/session.go
package models

import "time"

// Turn is one exchange entry in a session's history.
type Turn struct {
	Role      string    `json:"role"` // user | agent
	Message   string    `json:"message"`
	Intent    Intent    `json:"intent,omitempty"`
	AgentName string    `json:"agent_name,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the per-conversation state: the open return draft, the
// pending question, and the turn history. Version supports
// compare-and-swap updates so concurrent requests for the same session
// serialize instead of clobbering each other.
type Session struct {
	ID          string       `json:"id"`
	Draft       *ReturnDraft `json:"draft,omitempty"`
	PendingSlot string       `json:"pending_slot,omitempty"`
	LastIntent  Intent       `json:"last_intent,omitempty"`
	History     []Turn       `json:"history"`
	Version     int64        `json:"version"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSession returns an empty session with no draft open.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasDraft reports whether a return draft is currently being collected.
func (s *Session) HasDraft() bool {
	return s.Draft != nil
}

// AppendTurn adds an exchange entry and trims the history to limit,
// dropping the oldest entries first. A non-positive limit keeps
// everything.
func (s *Session) AppendTurn(t Turn, limit int) {
	s.History = append(s.History, t)
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// ClearDraft drops the open draft and pending question, keeping history.
func (s *Session) ClearDraft() {
	s.Draft = nil
	s.PendingSlot = ""
}
