package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// ErrNotFound is returned when a conversation does not exist or is owned by a
// different user. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("conversation not found")

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        title TEXT NOT NULL DEFAULT 'New Conversation',
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations (user_id);

    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY, -- UUID
        conversation_id TEXT NOT NULL,
        role TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
        content TEXT NOT NULL,
        timestamp DATETIME NOT NULL,
        model TEXT NOT NULL DEFAULT 'groq',
        FOREIGN KEY (conversation_id) REFERENCES conversations (id)
    );
    CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Conversation methods

func (s *SQLiteStore) CreateConversation(userID, title string) (*Conversation, error) {
	if title == "" {
		title = DefaultTitle
	}

	conv := &Conversation{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
	}
	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now

	_, err := s.db.Exec(
		"INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		conv.ID, conv.UserID, conv.Title, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conv, nil
}

// GetConversationByID looks a conversation up by the compound (id, owner)
// filter. An id-only lookup would leak other users' conversations.
func (s *SQLiteStore) GetConversationByID(conversationID, userID string) (*Conversation, error) {
	var conv Conversation
	err := s.db.QueryRow(
		"SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID,
	).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLiteStore) GetConversationsByUserID(userID string) ([]Conversation, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, title, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY updated_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (s *SQLiteStore) RenameConversation(conversationID, userID, title string) error {
	res, err := s.db.Exec(
		"UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		title, time.Now().UTC(), conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute conversation title update: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteConversation removes a conversation and all of its messages in one
// transaction, so a failure cannot leave orphaned messages behind.
func (s *SQLiteStore) DeleteConversation(conversationID, userID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("DELETE FROM conversations WHERE id = ? AND user_id = ?", conversationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}

	return tx.Commit()
}

// Message methods

func (s *SQLiteStore) GetMessagesByConversationID(conversationID string) ([]Message, error) {
	rows, err := s.db.Query(
		"SELECT id, conversation_id, role, content, timestamp, model FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC",
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Timestamp, &msg.Model); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendMessage verifies ownership of the parent conversation, inserts the
// message, bumps the parent's updated_at, and derives a title from the first
// user message while the title is still the default. The whole sequence runs
// in one transaction so concurrent appends cannot both win the title.
func (s *SQLiteStore) AppendMessage(conversationID, userID, role, content, model string) (*Message, error) {
	if model == "" {
		model = DefaultModel
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin append transaction: %w", err)
	}
	defer tx.Rollback()

	var currentTitle string
	err = tx.QueryRow(
		"SELECT title FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID,
	).Scan(&currentTitle)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify conversation: %w", err)
	}

	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Timestamp:      time.Now().UTC(),
		Model:          model,
	}
	_, err = tx.Exec(
		"INSERT INTO messages (id, conversation_id, role, content, timestamp, model) VALUES (?, ?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Timestamp, msg.Model,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	if role == RoleUser && currentTitle == DefaultTitle {
		_, err = tx.Exec(
			"UPDATE conversations SET title = ?, updated_at = ? WHERE id = ? AND user_id = ?",
			DeriveTitle(content), msg.Timestamp, conversationID, userID,
		)
	} else {
		_, err = tx.Exec(
			"UPDATE conversations SET updated_at = ? WHERE id = ? AND user_id = ?",
			msg.Timestamp, conversationID, userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit append transaction: %w", err)
	}
	return msg, nil
}

// DeriveTitle turns message content into a conversation title: the content
// verbatim when it fits, otherwise the first 47 characters plus an ellipsis.
func DeriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > 50 {
		return string(runes[:47]) + "..."
	}
	return content
}
