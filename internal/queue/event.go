// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingPaidEvent is published after a payment callback verifies and the
// booking flips to paid. It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type BookingPaidEvent struct {
	BookingID   uint64 `json:"booking_id"`
	MentorID    uint64 `json:"mentor_id"`
	MenteeID    uint64 `json:"mentee_id"`
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	AmountPaise uint64 `json:"amount_paise"`
	SessionDate string `json:"session_date"`
	Slot        string `json:"slot"`
	ChatID      uint64 `json:"chat_id"`
	PaidAt      string `json:"paid_at"`
}
