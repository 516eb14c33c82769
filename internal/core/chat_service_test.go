package core

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/the-llm/backend/internal/store"
)

func newTestChatService(t *testing.T) *ChatService {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	dbStore, err := store.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })
	return NewChatService(dbStore)
}

func TestListMessagesVerifiesOwnership(t *testing.T) {
	svc := newTestChatService(t)

	conv, err := svc.CreateConversation("user-1", "")
	require.NoError(t, err)
	_, err = svc.AppendMessage(conv.ID, "user-1", store.RoleUser, "hello", "")
	require.NoError(t, err)

	_, err = svc.ListMessages(conv.ID, "user-2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	messages, err := svc.ListMessages(conv.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestListMessagesUnknownConversation(t *testing.T) {
	svc := newTestChatService(t)

	_, err := svc.ListMessages("no-such-id", "user-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListConversationsCrossTenantIsolation(t *testing.T) {
	svc := newTestChatService(t)

	_, err := svc.CreateConversation("user-1", "mine")
	require.NoError(t, err)

	conversations, err := svc.ListConversations("user-2")
	require.NoError(t, err)
	assert.Empty(t, conversations)
}
