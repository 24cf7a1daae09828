package model

import "time"

// Booking status values.  A booking starts as created when the payment
// order is issued, then moves exactly once to paid (successful
// verification) or failed.  Paid is terminal; bookings are never deleted
// so the table doubles as an audit trail.
const (
	BookingCreated = "created"
	BookingPaid    = "paid"
	BookingFailed  = "failed"
)

// Booking records one purchase of one mentoring session slot.  The
// external order id is assigned by the payment processor at order
// creation; the payment id and signature are stored only after a
// verified callback.  ChatID is set when the chat room is provisioned
// for a paid booking.
//
// Fields:
//  ID            – primary key identifier.
//  MentorID      – mentor offering the session.
//  MenteeID      – mentee who purchased the session.
//  SessionDate   – scheduled date of the session.
//  Slot          – human readable time slot label (e.g. "10:00 AM").
//  Amount        – price in major currency units (rupees).
//  OrderID       – external payment order id.
//  PaymentID     – external payment id, set after verification (nullable).
//  Signature     – verified callback signature snapshot (nullable).
//  Status        – created | paid | failed.
//  ChatID        – provisioned chat room, set after payment (nullable).
//  ChatActive    – booking-side flag flipped by the expiry sweep.
//  VideoCallLink – call URL set later by the mentor (nullable).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Booking struct {
	ID            uint64     // bookings.id
	MentorID      uint64     // bookings.mentor_id
	MenteeID      uint64     // bookings.mentee_id
	SessionDate   time.Time  // bookings.session_date
	Slot          string     // bookings.slot
	Amount        uint32     // bookings.amount
	OrderID       string     // bookings.order_id
	PaymentID     *string    // bookings.payment_id (nullable)
	Signature     *string    // bookings.signature (nullable)
	Status        string     // bookings.status
	ChatID        *uint64    // bookings.chat_id (nullable)
	ChatActive    bool       // bookings.chat_active
	VideoCallLink *string    // bookings.video_call_link (nullable)
	CreatedAt     time.Time  // bookings.created_at
	UpdatedAt     time.Time  // bookings.updated_at
}
