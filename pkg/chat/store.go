package chat

import "context"

// ConversationStore persists conversations and their messages. Implementations
// live under pkg/store; the session only depends on this surface.
type ConversationStore interface {
	CreateConversation(ctx context.Context, userID, simID, title string) (Conversation, error)
	ListConversations(ctx context.Context, userID, simID string) ([]Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
	AppendMessage(ctx context.Context, conversationID string, role Role, content string) error
	DeleteConversation(ctx context.Context, conversationID string) error
}
