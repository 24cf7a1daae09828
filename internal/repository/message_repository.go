package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mentorhive/mentor-booking/internal/model"
)

// MessageRepo persists chat messages.  The table is an append-only
// ordered log: rows are never updated or deleted, and history remains
// readable after the parent chat expires.  Ordering is by primary key,
// which matches insertion order.
type MessageRepo struct {
	DB *sql.DB
}

// NewMessageRepo returns a new MessageRepo bound to the given database.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// Create appends a message and populates the generated ID and
// timestamp on the provided record.  Gating on the chat's active flag
// is the caller's responsibility; the repository only appends.
func (r *MessageRepo) Create(ctx context.Context, m *model.Message) error {
	now := time.Now().UTC()
	const q = `INSERT INTO messages (chat_id, sender_id, content, created_at) VALUES (?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q, m.ChatID, m.SenderID, m.Content, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	m.CreatedAt = now
	return nil
}

// ListByChat returns the full message history of a chat in
// chronological order (oldest first).
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uint64) ([]model.Message, error) {
	const q = `SELECT id, chat_id, sender_id, content, created_at
			   FROM messages WHERE chat_id = ? ORDER BY id ASC`
	rows, err := r.DB.QueryContext(ctx, q, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
