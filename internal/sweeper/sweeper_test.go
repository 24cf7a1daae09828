package sweeper

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{
		`CREATE TABLE bookings (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			mentor_id       INTEGER NOT NULL,
			mentee_id       INTEGER NOT NULL,
			session_date    DATETIME NOT NULL,
			slot            TEXT NOT NULL,
			amount          INTEGER NOT NULL,
			order_id        TEXT NOT NULL,
			payment_id      TEXT,
			signature       TEXT,
			status          TEXT NOT NULL,
			chat_id         INTEGER,
			chat_active     BOOLEAN NOT NULL DEFAULT 1,
			video_call_link TEXT,
			created_at      DATETIME NOT NULL,
			updated_at      DATETIME NOT NULL
		)`,
		`CREATE TABLE chats (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			booking_id INTEGER NOT NULL UNIQUE,
			mentor_id  INTEGER NOT NULL,
			mentee_id  INTEGER NOT NULL,
			is_active  BOOLEAN NOT NULL DEFAULT 1,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
	} {
		_, err := db.Exec(ddl)
		require.NoError(t, err)
	}
	return db
}

// paidBookingWithChat creates a paid booking for the given session date
// with its chat provisioned, returning both ids.
func paidBookingWithChat(t *testing.T, bookings *repository.BookingRepo, chats *repository.ChatRepo, sessionDate time.Time) (uint64, uint64) {
	t.Helper()
	ctx := context.Background()
	b := &model.Booking{
		MentorID:    1,
		MenteeID:    2,
		SessionDate: sessionDate,
		Slot:        "10:00 AM",
		Amount:      1000,
		OrderID:     "order_" + sessionDate.Format("20060102150405.000000000"),
	}
	require.NoError(t, bookings.Create(ctx, b))
	won, err := bookings.MarkPaid(ctx, b.ID, "pay_x", b.OrderID, "sig_x")
	require.NoError(t, err)
	require.True(t, won)
	chat, _, err := chats.FindOrCreate(ctx, b.MentorID, b.MenteeID, b.ID, 24*time.Hour)
	require.NoError(t, err)
	require.NoError(t, bookings.SetChat(ctx, b.ID, chat.ID))
	return b.ID, chat.ID
}

func TestSweepClosesOldSessions(t *testing.T) {
	db := openTestDB(t)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	sw := New(bookings, chats, 24*time.Hour, time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	oldID, oldChat := paidBookingWithChat(t, bookings, chats, now.Add(-48*time.Hour))
	freshID, freshChat := paidBookingWithChat(t, bookings, chats, now.Add(24*time.Hour))

	n, err := sw.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	oldB, err := bookings.GetByID(ctx, oldID)
	require.NoError(t, err)
	assert.False(t, oldB.ChatActive)
	oldC, err := chats.GetByID(ctx, oldChat)
	require.NoError(t, err)
	assert.False(t, oldC.IsActive)

	freshB, err := bookings.GetByID(ctx, freshID)
	require.NoError(t, err)
	assert.True(t, freshB.ChatActive)
	freshC, err := chats.GetByID(ctx, freshChat)
	require.NoError(t, err)
	assert.True(t, freshC.IsActive)
}

func TestSweepIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	sw := New(bookings, chats, 24*time.Hour, time.Hour)
	ctx := context.Background()

	now := time.Now().UTC()
	paidBookingWithChat(t, bookings, chats, now.Add(-30*time.Hour))

	n, err := sw.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = sw.SweepOnce(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSweepSkipsUnpaid(t *testing.T) {
	db := openTestDB(t)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	sw := New(bookings, chats, 24*time.Hour, time.Hour)
	ctx := context.Background()

	b := &model.Booking{
		MentorID:    1,
		MenteeID:    2,
		SessionDate: time.Now().UTC().Add(-72 * time.Hour),
		Slot:        "9:00 AM",
		Amount:      500,
		OrderID:     "order_unpaid",
	}
	require.NoError(t, bookings.Create(ctx, b))

	n, err := sw.SweepOnce(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Zero(t, n)
}
