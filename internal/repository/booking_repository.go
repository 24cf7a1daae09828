package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/mentorhive/mentor-booking/internal/model"
)

// BookingRepo provides CRUD operations for bookings.  A booking is the
// persisted record of a purchase attempt and its lifecycle status.
// Status transitions are expressed as conditional updates so that a
// retried callback or a racing sweep never applies a change twice.
// All timestamp fields are stored in UTC.
type BookingRepo struct {
	DB *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = `id, mentor_id, mentee_id, session_date, slot, amount, order_id,
	   payment_id, signature, status, chat_id, chat_active, video_call_link,
	   created_at, updated_at`

// Create inserts a new booking in status 'created' and populates the
// generated ID and timestamps on the provided record.  The order id
// must already be assigned by the payment processor; no booking row
// exists for orders the processor refused to create.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	now := time.Now().UTC()
	const q = `INSERT INTO bookings
		(mentor_id, mentee_id, session_date, slot, amount, order_id, status, chat_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.DB.ExecContext(ctx, q,
		b.MentorID, b.MenteeID, b.SessionDate, b.Slot, b.Amount, b.OrderID,
		model.BookingCreated, true, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Status = model.BookingCreated
	b.ChatActive = true
	b.CreatedAt = now
	b.UpdatedAt = now
	return nil
}

// GetByID loads a booking by its primary key.  ErrBookingNotFound is
// returned when no row exists.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.DB.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	return b, err
}

// MarkPaid transitions a booking from 'created' to 'paid' and records
// the verified payment details.  The WHERE clause on status makes the
// transition a compare-and-set: the first verified callback wins and a
// replay affects zero rows.  The boolean result reports whether this
// call performed the transition.
func (r *BookingRepo) MarkPaid(ctx context.Context, id uint64, paymentID, orderID, signature string) (bool, error) {
	const q = `UPDATE bookings
		SET payment_id = ?, order_id = ?, signature = ?, status = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.DB.ExecContext(ctx, q,
		paymentID, orderID, signature, model.BookingPaid, time.Now().UTC(),
		id, model.BookingCreated)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkFailed transitions a booking from 'created' to 'failed'.  Like
// MarkPaid it is conditional on the current status, so a booking that
// already reached 'paid' is never demoted.
func (r *BookingRepo) MarkFailed(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE bookings SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := r.DB.ExecContext(ctx, q, model.BookingFailed, time.Now().UTC(), id, model.BookingCreated)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetChat stores the provisioned chat reference on a paid booking.
// Provisioning runs only after a successful payment, so the status
// guard protects against a stray write on an unpaid row.
func (r *BookingRepo) SetChat(ctx context.Context, bookingID, chatID uint64) error {
	const q = `UPDATE bookings SET chat_id = ?, updated_at = ? WHERE id = ? AND status = ?`
	_, err := r.DB.ExecContext(ctx, q, chatID, time.Now().UTC(), bookingID, model.BookingPaid)
	return err
}

// SetVideoCallLink stores the call URL on a booking.  Only the mentor
// who owns the booking may set it, and only once the booking is paid.
// Returns ErrBookingNotFound or ErrForbidden accordingly.
func (r *BookingRepo) SetVideoCallLink(ctx context.Context, bookingID, mentorID uint64, link string) error {
	b, err := r.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if b.MentorID != mentorID {
		return ErrForbidden
	}
	if b.Status != model.BookingPaid {
		return ErrForbidden
	}
	const q = `UPDATE bookings SET video_call_link = ?, updated_at = ? WHERE id = ?`
	_, err = r.DB.ExecContext(ctx, q, link, time.Now().UTC(), bookingID)
	return err
}

// ListByUser returns all bookings in which the user participates on
// either side, newest first.  When no bookings exist, an empty slice
// is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE mentor_id = ? OR mentee_id = ?
		ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// ListExpiredActive returns paid bookings whose session date lies
// before the cutoff and whose chat flag is still active.  The sweep
// job uses this to find rooms that should be closed.
func (r *BookingRepo) ListExpiredActive(ctx context.Context, cutoff time.Time) ([]model.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
		WHERE session_date < ? AND status = ? AND chat_active = ?`
	rows, err := r.DB.QueryContext(ctx, q, cutoff, model.BookingPaid, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// DeactivateChatFlag clears the booking-side chat flag.  The condition
// on the current value makes repeated sweeps a no-op.  The boolean
// result reports whether this call flipped the flag.
func (r *BookingRepo) DeactivateChatFlag(ctx context.Context, bookingID uint64) (bool, error) {
	const q = `UPDATE bookings SET chat_active = ?, updated_at = ? WHERE id = ? AND chat_active = ?`
	res, err := r.DB.ExecContext(ctx, q, false, time.Now().UTC(), bookingID, true)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(s rowScanner) (*model.Booking, error) {
	var b model.Booking
	var paymentID, signature, videoCallLink sql.NullString
	var chatID sql.NullInt64
	err := s.Scan(
		&b.ID, &b.MentorID, &b.MenteeID, &b.SessionDate, &b.Slot, &b.Amount, &b.OrderID,
		&paymentID, &signature, &b.Status, &chatID, &b.ChatActive, &videoCallLink,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if paymentID.Valid {
		v := paymentID.String
		b.PaymentID = &v
	}
	if signature.Valid {
		v := signature.String
		b.Signature = &v
	}
	if chatID.Valid {
		v := uint64(chatID.Int64)
		b.ChatID = &v
	}
	if videoCallLink.Valid {
		v := videoCallLink.String
		b.VideoCallLink = &v
	}
	return &b, nil
}
