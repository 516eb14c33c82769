package core

import (
	"github.com/the-llm/backend/internal/store"
)

// ChatService owns the conversation and message operations. Everything is
// scoped to the authenticated user; ownership failures surface as
// store.ErrNotFound.
type ChatService struct {
	dbStore *store.SQLiteStore
}

func NewChatService(db *store.SQLiteStore) *ChatService {
	return &ChatService{dbStore: db}
}

func (s *ChatService) ListConversations(userID string) ([]store.Conversation, error) {
	return s.dbStore.GetConversationsByUserID(userID)
}

func (s *ChatService) CreateConversation(userID, title string) (*store.Conversation, error) {
	return s.dbStore.CreateConversation(userID, title)
}

func (s *ChatService) RenameConversation(conversationID, userID, title string) error {
	return s.dbStore.RenameConversation(conversationID, userID, title)
}

func (s *ChatService) DeleteConversation(conversationID, userID string) error {
	return s.dbStore.DeleteConversation(conversationID, userID)
}

// ListMessages verifies the caller owns the parent conversation before
// reading its messages, oldest first.
func (s *ChatService) ListMessages(conversationID, userID string) ([]store.Message, error) {
	if _, err := s.dbStore.GetConversationByID(conversationID, userID); err != nil {
		return nil, err
	}
	return s.dbStore.GetMessagesByConversationID(conversationID)
}

func (s *ChatService) AppendMessage(conversationID, userID, role, content, model string) (*store.Message, error) {
	return s.dbStore.AppendMessage(conversationID, userID, role, content, model)
}
