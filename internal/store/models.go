package store

import "time"

// DefaultTitle is the placeholder a conversation keeps until the user renames
// it or the first user message supplies one.
const DefaultTitle = "New Conversation"

// DefaultModel tags messages whose request did not specify a model.
const DefaultModel = "groq"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Conversation struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	ID             string    `json:"id"` // UUID
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"` // "user" or "assistant"
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
}
