// Package coach implements the tutoring scenario core: conversation state,
// the derived mistake ledger, cross-session concept aggregation, and the
// turn orchestrator that drives a bounded role-play against an LLM backend.
package coach

import "time"

// Message roles. Hidden synthetic turns (the scenario auto-start prompt)
// still use RoleUser so the model sees a coherent turn list.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. The stored JSON shape is load-bearing:
// persisted conversations carry these fields verbatim.
type Message struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Feedback string `json:"feedback,omitempty"`
	IsHidden bool   `json:"isHidden,omitempty"`
}

// Conversation is one bounded scenario instance. Messages are append-only
// except for the in-flight assistant placeholder, which is replaced in
// place exactly once.
type Conversation struct {
	ID        string    `json:"id"`
	Messages  []Message `json:"messages"`
	UpdatedAt time.Time `json:"updatedAt"`
	Report    string    `json:"report,omitempty"`
}

// UserTurns counts non-hidden user messages: the turn total that the
// scenario threshold is measured against.
func (c *Conversation) UserTurns() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser && !m.IsHidden {
			n++
		}
	}
	return n
}

