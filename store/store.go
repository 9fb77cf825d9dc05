// Package store persists chats and their message lists in Postgres and exposes
// the append/select operations the realtime machinery is built on. Messages are
// owned by their chat: deleting a chat cascades to its messages, and a message
// never exists on its own.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an operation references a chat or message that does not exist.
	ErrNotFound = errors.New("chat not found")
	// ErrEmptyContent rejects messages with no content.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrMissingName rejects chats without both name fields.
	ErrMissingName = errors.New("first name and last name are required")
)

// Chat is a single conversation thread with its embedded message list.
type Chat struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is one entry in a chat. Sender is a free-text label (a display name
// or a bot label), not a foreign key. Only Content is mutable after creation.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatStore is the repository for chats and messages.
type ChatStore struct {
	db *sql.DB
}

// New returns a ChatStore backed by the given database.
func New(db *sql.DB) *ChatStore {
	return &ChatStore{db: db}
}

// Create inserts a new chat. Both name fields must be non-empty.
func (s *ChatStore) Create(ctx context.Context, firstName, lastName string) (*Chat, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrMissingName
	}
	c := &Chat{
		ID:        uuid.New().String(),
		FirstName: firstName,
		LastName:  lastName,
		Messages:  []Message{},
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO chats (id, first_name, last_name, created_at, updated_at)
		VALUES ($1,$2,$3,NOW(),NOW()) RETURNING created_at, updated_at`, c.ID, c.FirstName, c.LastName)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("insert chat: %w", err)
	}
	return c, nil
}

// FindAll returns every chat with its messages, most recently updated first.
func (s *ChatStore) FindAll(ctx context.Context) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, first_name, last_name, created_at, updated_at
		FROM chats ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]Chat, 0)
	index := make(map[string]int)
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		c.Messages = []Message{}
		index[c.ID] = len(chats)
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	msgRows, err := s.db.QueryContext(ctx, `SELECT chat_id, id, sender, content, timestamp
		FROM messages ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var chatID string
		var m Message
		if err := msgRows.Scan(&chatID, &m.ID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if i, ok := index[chatID]; ok {
			chats[i].Messages = append(chats[i].Messages, m)
		}
	}
	return chats, msgRows.Err()
}

// FindByID returns one chat with its messages in insertion order.
func (s *ChatStore) FindByID(ctx context.Context, id string) (*Chat, error) {
	var c Chat
	row := s.db.QueryRowContext(ctx, `SELECT id, first_name, last_name, created_at, updated_at
		FROM chats WHERE id=$1`, id)
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query chat: %w", err)
	}
	c.Messages = []Message{}
	rows, err := s.db.QueryContext(ctx, `SELECT id, sender, content, timestamp
		FROM messages WHERE chat_id=$1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		c.Messages = append(c.Messages, m)
	}
	return &c, rows.Err()
}

// UpdateMetadata changes the name fields of a chat.
func (s *ChatStore) UpdateMetadata(ctx context.Context, id, firstName, lastName string) (*Chat, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" {
		return nil, ErrMissingName
	}
	res, err := s.db.ExecContext(ctx, `UPDATE chats SET first_name=$1, last_name=$2, updated_at=NOW() WHERE id=$3`,
		firstName, lastName, id)
	if err != nil {
		return nil, fmt.Errorf("update chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

// Delete removes a chat and, through the cascade, all its messages.
func (s *ChatStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendMessage adds a message to a chat, assigning its id and timestamp at
// persistence time, and touches the chat's updated_at. Returns ErrNotFound if
// the chat no longer exists, which callers on background paths downgrade to a
// logged no-op.
func (s *ChatStore) AppendMessage(ctx context.Context, chatID, sender, content string) (*Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	m := &Message{
		ID:      uuid.New().String(),
		Sender:  sender,
		Content: content,
	}
	row := s.db.QueryRowContext(ctx, `INSERT INTO messages (id, chat_id, sender, content, timestamp)
		SELECT $1, id, $2, $3, NOW() FROM chats WHERE id=$4
		RETURNING timestamp`, m.ID, m.Sender, m.Content, chatID)
	if err := row.Scan(&m.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("insert message: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE chats SET updated_at=NOW() WHERE id=$1`, chatID); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}
	return m, nil
}

// UpdateMessageContent edits one message's content in place.
func (s *ChatStore) UpdateMessageContent(ctx context.Context, chatID, messageID, content string) (*Chat, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	res, err := s.db.ExecContext(ctx, `UPDATE messages SET content=$1 WHERE id=$2 AND chat_id=$3`,
		content, messageID, chatID)
	if err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, chatID)
}

// Random selects one chat uniformly at random, without its messages.
// Returns ErrNotFound when no chats exist; the scheduler treats that as a
// silent skip, not an error.
func (s *ChatStore) Random(ctx context.Context) (*Chat, error) {
	var c Chat
	row := s.db.QueryRowContext(ctx, `SELECT id, first_name, last_name, created_at, updated_at
		FROM chats ORDER BY random() LIMIT 1`)
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pick random chat: %w", err)
	}
	return &c, nil
}
