package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/config"
	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/payment"
	q "github.com/mentorhive/mentor-booking/internal/queue"
	"github.com/mentorhive/mentor-booking/internal/repository"
	queue_publisher "github.com/mentorhive/mentor-booking/internal/service"
)

// PaymentHandler drives the booking purchase flow: order creation against
// the payment processor and verification of its signed callback.  A
// verified callback is the single trigger for chat provisioning.
type PaymentHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Chats    *repository.ChatRepo
	Razorpay *payment.Client
}

func NewPaymentHandler(cfg config.Config, b *repository.BookingRepo, ch *repository.ChatRepo, rz *payment.Client) *PaymentHandler {
	return &PaymentHandler{Cfg: cfg, Bookings: b, Chats: ch, Razorpay: rz}
}

type createOrderReq struct {
	MentorID    uint64 `json:"mentor_id"`
	SessionDate string `json:"session_date"` // YYYY-MM-DD
	Slot        string `json:"slot"`
	Amount      uint32 `json:"amount"` // rupees
}

type paymentFailedReq struct {
	BookingID uint64 `json:"booking_id"`
}

type verifyReq struct {
	BookingID         uint64 `json:"booking_id"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type bookingPart struct {
	ID            uint64  `json:"id"`
	MentorID      uint64  `json:"mentor_id"`
	MenteeID      uint64  `json:"mentee_id"`
	SessionDate   string  `json:"session_date"`
	Slot          string  `json:"slot"`
	Amount        uint32  `json:"amount"`
	OrderID       string  `json:"order_id"`
	Status        string  `json:"status"`
	ChatID        *uint64 `json:"chat_id,omitempty"`
	VideoCallLink *string `json:"video_call_link,omitempty"`
}

func toBookingPart(b *model.Booking) bookingPart {
	return bookingPart{
		ID:            b.ID,
		MentorID:      b.MentorID,
		MenteeID:      b.MenteeID,
		SessionDate:   b.SessionDate.Format("2006-01-02"),
		Slot:          b.Slot,
		Amount:        b.Amount,
		OrderID:       b.OrderID,
		Status:        b.Status,
		ChatID:        b.ChatID,
		VideoCallLink: b.VideoCallLink,
	}
}

// CreateOrder creates a payment order with the processor and persists a
// booking in status created.  No booking row is written when the
// processor refuses the order: the booking only ever exists with a
// valid order id attached.  Mentee only.
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	menteeID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createOrderReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MentorID == 0 || req.Amount == 0 || strings.TrimSpace(req.Slot) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mentor_id, session_date, slot and amount required"})
	}
	if req.MentorID == menteeID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot book a session with yourself"})
	}
	sessionDate, err := time.Parse("2006-01-02", req.SessionDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "session_date must be YYYY-MM-DD"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	// Amount is carried in rupees and converted to paise at the API
	// boundary; the processor only understands minor units.
	receipt := fmt.Sprintf("rcpt_%d", time.Now().UnixNano())
	order, err := h.Razorpay.CreateOrder(ctx, int64(req.Amount)*100, "INR", receipt)
	if err != nil {
		if errors.Is(err, payment.ErrUpstream) {
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create order failed"})
	}

	b := &model.Booking{
		MentorID:    req.MentorID,
		MenteeID:    menteeID,
		SessionDate: sessionDate,
		Slot:        strings.TrimSpace(req.Slot),
		Amount:      req.Amount,
		OrderID:     order.ID,
	}
	if err := h.Bookings.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"booking":  toBookingPart(b),
		"order_id": order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"key_id":   h.Cfg.RazorpayKeyID,
	})
}

// VerifyPayment validates the processor's signed callback and, on the
// first valid callback, flips the booking to paid and provisions the
// chat room.  The endpoint is idempotent: replaying a valid callback
// returns the same outcome without side effects.  A bad signature never
// touches the booking, so the client may retry with corrected data.
func (h *PaymentHandler) VerifyPayment(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.BookingID == 0 || req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id, razorpay_order_id, razorpay_payment_id and razorpay_signature required"})
	}

	if !payment.VerifySignature(h.Cfg.RazorpayKeySecret, req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if b.OrderID != req.RazorpayOrderID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order does not belong to booking"})
	}

	switch b.Status {
	case model.BookingPaid:
		// Replayed callback. The chat normally exists already; if a
		// previous provisioning attempt died between MarkPaid and
		// SetChat, repair it here.
		chat, err := h.ensureChat(ctx, b)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision chat failed"})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"booking": toBookingPart(b),
			"chat_id": chat.ID,
			"status":  model.BookingPaid,
		})
	case model.BookingFailed:
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already failed"})
	}

	won, err := h.Bookings.MarkPaid(ctx, b.ID, req.RazorpayPaymentID, req.RazorpayOrderID, req.RazorpaySignature)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update booking failed"})
	}
	if !won {
		// A concurrent callback got there first; re-read for the final state.
		b, err = h.Bookings.GetByID(ctx, b.ID)
		if err != nil || b.Status != model.BookingPaid {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking not payable"})
		}
	} else {
		b.Status = model.BookingPaid
		b.PaymentID = &req.RazorpayPaymentID
	}

	chat, err := h.ensureChat(ctx, b)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "provision chat failed"})
	}

	if won {
		ev := q.BookingPaidEvent{
			BookingID:   b.ID,
			MentorID:    b.MentorID,
			MenteeID:    b.MenteeID,
			OrderID:     req.RazorpayOrderID,
			PaymentID:   req.RazorpayPaymentID,
			AmountPaise: uint64(b.Amount) * 100,
			SessionDate: b.SessionDate.Format("2006-01-02"),
			Slot:        b.Slot,
			ChatID:      chat.ID,
			PaidAt:      time.Now().UTC().Format(time.RFC3339),
		}
		// Fire and forget; a broker outage must not fail the callback.
		go func() {
			pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer pcancel()
			_ = queue_publisher.PublishBookingPaid(pctx, ev)
		}()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"booking": toBookingPart(b),
		"chat_id": chat.ID,
		"status":  model.BookingPaid,
	})
}

// PaymentFailed records an abandoned or cancelled checkout.  The
// transition is conditional on the booking still being in created, so
// a failure report racing a successful callback never demotes a paid
// booking.
func (h *PaymentHandler) PaymentFailed(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req paymentFailedReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.GetByID(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
	}
	if b.MenteeID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	flipped, err := h.Bookings.MarkFailed(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update booking failed"})
	}
	if !flipped {
		// Already paid or already failed; report the current state.
		b, err = h.Bookings.GetByID(ctx, b.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
		}
		if b.Status == model.BookingPaid {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking already paid"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": b.ID, "status": model.BookingFailed})
}

// ensureChat provisions the chat for a paid booking if it does not
// exist yet and links it back onto the booking row.
func (h *PaymentHandler) ensureChat(ctx context.Context, b *model.Booking) (*model.Chat, error) {
	ttl := time.Duration(h.Cfg.ChatTTLHours) * time.Hour
	chat, created, err := h.Chats.FindOrCreate(ctx, b.MentorID, b.MenteeID, b.ID, ttl)
	if err != nil {
		return nil, err
	}
	if created || b.ChatID == nil {
		if err := h.Bookings.SetChat(ctx, b.ID, chat.ID); err != nil {
			return nil, err
		}
		id := chat.ID
		b.ChatID = &id
	}
	return chat, nil
}
