package chat

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a conversation. While an assistant reply is
// streaming, Content grows with each delta; after the turn finishes the
// message is never modified again. Incomplete marks a reply whose stream
// ended in an error or cancellation.
type Message struct {
	Role       Role
	Content    string
	CreatedAt  time.Time
	Incomplete bool
}

// Conversation is persisted conversation metadata. Messages are stored
// separately and listed chronologically.
type Conversation struct {
	ID        string
	UserID    string
	SimID     string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SimProfile describes the persona a session talks to. WelcomeMessage, when
// set, seeds new conversations with a client-side greeting that is never
// persisted.
type SimProfile struct {
	ID             string
	Name           string
	WelcomeMessage string
}
