package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mentorhive/mentor-booking/internal/model"
)

// ChatRepo provides lookup and provisioning for chat rooms.  A chat is
// scoped to exactly one booking; the chats table carries a unique index
// on booking_id so that concurrent provisioning of the same booking can
// never produce two rooms.  Expiry is expressed as conditional updates
// ("set inactive only if currently active") so the lazy on-read check
// and the background sweep can race safely.
type ChatRepo struct {
	DB *sql.DB
}

// NewChatRepo returns a new ChatRepo bound to the given database.
func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{DB: db} }

const chatCols = `id, booking_id, mentor_id, mentee_id, is_active, expires_at, created_at`

// GetByID loads a chat by its primary key.  ErrChatNotFound is
// returned when no row exists.
func (r *ChatRepo) GetByID(ctx context.Context, id uint64) (*model.Chat, error) {
	const q = `SELECT ` + chatCols + ` FROM chats WHERE id = ?`
	c, err := scanChat(r.DB.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrChatNotFound
	}
	return c, err
}

// FindByBooking loads the chat provisioned for a booking, if any.
func (r *ChatRepo) FindByBooking(ctx context.Context, bookingID uint64) (*model.Chat, error) {
	const q = `SELECT ` + chatCols + ` FROM chats WHERE booking_id = ?`
	c, err := scanChat(r.DB.QueryRowContext(ctx, q, bookingID))
	if err == sql.ErrNoRows {
		return nil, ErrChatNotFound
	}
	return c, err
}

// FindOrCreate returns the chat bound to the booking, creating it with
// an active flag and the given lifetime when absent.  The lookup and
// insert are not wrapped in a transaction; instead the unique index on
// booking_id arbitrates races.  When two requests provision the same
// booking concurrently, the second insert fails with a duplicate-key
// error and we re-read the winner's row.  The boolean result reports
// whether this call created the chat.
func (r *ChatRepo) FindOrCreate(ctx context.Context, mentorID, menteeID, bookingID uint64, ttl time.Duration) (*model.Chat, bool, error) {
	if c, err := r.FindByBooking(ctx, bookingID); err == nil {
		return c, false, nil
	} else if err != ErrChatNotFound {
		return nil, false, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	const ins = `INSERT INTO chats (booking_id, mentor_id, mentee_id, is_active, expires_at, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, ins, bookingID, mentorID, menteeID, true, expiresAt, now)
	if err != nil {
		if isDuplicate(err) {
			// Lost the race; the first writer's chat is authoritative.
			c, err2 := r.FindByBooking(ctx, bookingID)
			return c, false, err2
		}
		return nil, false, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	return &model.Chat{
		ID:        uint64(id),
		BookingID: bookingID,
		MentorID:  mentorID,
		MenteeID:  menteeID,
		IsActive:  true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, true, nil
}

// ListByUser returns all chats in which the user participates, newest
// first.  Expiry is not applied here; callers run DeactivateIfExpired
// per row so the persisted flag converges as a side effect of reads.
func (r *ChatRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Chat, error) {
	const q = `SELECT ` + chatCols + ` FROM chats
		WHERE mentor_id = ? OR mentee_id = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Chat, 0)
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeactivateIfExpired flips is_active to false when the chat's deadline
// has passed.  Both conditions live in the WHERE clause, so applying it
// twice (or racing the sweep job) affects at most one row once.
func (r *ChatRepo) DeactivateIfExpired(ctx context.Context, chatID uint64, now time.Time) (bool, error) {
	const q = `UPDATE chats SET is_active = ? WHERE id = ? AND is_active = ? AND expires_at < ?`
	res, err := r.DB.ExecContext(ctx, q, false, chatID, true, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Deactivate flips is_active to false unconditionally on the deadline
// but still conditionally on the current flag, for use by the sweep job
// which selects its targets by booking date rather than chat expiry.
func (r *ChatRepo) Deactivate(ctx context.Context, chatID uint64) (bool, error) {
	const q = `UPDATE chats SET is_active = ? WHERE id = ? AND is_active = ?`
	res, err := r.DB.ExecContext(ctx, q, false, chatID, true)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// isDuplicate reports whether the error is a duplicate-key violation.
// MySQL reports error 1062; the SQLite driver used in tests reports a
// UNIQUE constraint failure.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}

func scanChat(s rowScanner) (*model.Chat, error) {
	var c model.Chat
	err := s.Scan(&c.ID, &c.BookingID, &c.MentorID, &c.MenteeID, &c.IsActive, &c.ExpiresAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
