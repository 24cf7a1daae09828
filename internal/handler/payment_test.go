package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentorhive/mentor-booking/internal/config"
	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/payment"
	"github.com/mentorhive/mentor-booking/internal/repository"
)

const testSecret = "rzp_test_secret"

func newPaymentHandler(t *testing.T, rzURL string) (*PaymentHandler, *repository.BookingRepo, *repository.ChatRepo) {
	t.Helper()
	db := openTestDB(t)
	bookings := repository.NewBookingRepo(db)
	chats := repository.NewChatRepo(db)
	cfg := config.Config{
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: testSecret,
		ChatTTLHours:      24,
	}
	rz := payment.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, rzURL)
	return NewPaymentHandler(cfg, bookings, chats, rz), bookings, chats
}

func createdBooking(t *testing.T, bookings *repository.BookingRepo, orderID string) *model.Booking {
	t.Helper()
	b := &model.Booking{
		MentorID:    1,
		MenteeID:    2,
		SessionDate: time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC),
		Slot:        "10:00 AM",
		Amount:      1500,
		OrderID:     orderID,
	}
	require.NoError(t, bookings.Create(context.Background(), b))
	return b
}

func verifyBody(bookingID uint64, orderID, paymentID, sig string) string {
	return fmt.Sprintf(`{"booking_id":%d,"razorpay_order_id":%q,"razorpay_payment_id":%q,"razorpay_signature":%q}`,
		bookingID, orderID, paymentID, sig)
}

func TestCreateOrderPersistsBooking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		// 1500 rupees arrive as 150000 paise.
		assert.Equal(t, float64(150000), body["amount"])
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "order_new", "amount": 150000, "currency": "INR", "status": "created",
		})
	}))
	defer srv.Close()

	h, bookings, _ := newPaymentHandler(t, srv.URL)
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/create-order",
		`{"mentor_id":1,"session_date":"2026-09-05","slot":"10:00 AM","amount":1500}`, 2)

	require.NoError(t, h.CreateOrder(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "order_new", body["order_id"])
	assert.Equal(t, "rzp_test_key", body["key_id"])

	list, err := bookings.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.BookingCreated, list[0].Status)
	assert.Equal(t, "order_new", list[0].OrderID)
}

func TestCreateOrderUpstreamDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unavailable"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	h, bookings, _ := newPaymentHandler(t, srv.URL)
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/create-order",
		`{"mentor_id":1,"session_date":"2026-09-05","slot":"10:00 AM","amount":1500}`, 2)

	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	// No booking row without an order.
	list, err := bookings.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateOrderSelfBooking(t *testing.T) {
	h, _, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/create-order",
		`{"mentor_id":2,"session_date":"2026-09-05","slot":"10:00 AM","amount":1500}`, 2)
	require.NoError(t, h.CreateOrder(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyPaymentHappyPathAndReplay(t *testing.T) {
	h, bookings, chats := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_hp")
	sig := payment.SignPayload(testSecret, "order_hp", "pay_hp")

	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_hp", "pay_hp", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	require.Equal(t, http.StatusOK, rec.Code)
	first := decodeBody(t, rec)
	assert.Equal(t, model.BookingPaid, first["status"])
	chatID := first["chat_id"].(float64)
	require.NotZero(t, chatID)

	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "pay_hp", *got.PaymentID)
	require.NotNil(t, got.ChatID)
	assert.Equal(t, uint64(chatID), *got.ChatID)

	chat, err := chats.GetByID(context.Background(), uint64(chatID))
	require.NoError(t, err)
	assert.True(t, chat.IsActive)
	assert.Equal(t, b.ID, chat.BookingID)

	// Replaying the same callback is a no-op with the same answer.
	c2, rec2 := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_hp", "pay_hp", sig), 2)
	require.NoError(t, h.VerifyPayment(c2))
	require.Equal(t, http.StatusOK, rec2.Code)
	second := decodeBody(t, rec2)
	assert.Equal(t, chatID, second["chat_id"])

	// Still exactly one chat for the booking.
	all, err := chats.ListByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestVerifyPaymentBadSignature(t *testing.T) {
	h, bookings, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_bad")

	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_bad", "pay_bad", "deadbeef"), 2)
	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Booking untouched: the client may retry with corrected data.
	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCreated, got.Status)
	assert.Nil(t, got.ChatID)
}

func TestVerifyPaymentUnknownBooking(t *testing.T) {
	h, _, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	sig := payment.SignPayload(testSecret, "order_x", "pay_x")
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(999, "order_x", "pay_x", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestVerifyPaymentWrongOrder(t *testing.T) {
	h, bookings, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_real")
	sig := payment.SignPayload(testSecret, "order_other", "pay_1")

	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_other", "pay_1", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentFailed(t *testing.T) {
	h, bookings, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_pf")

	// Only the booking's mentee may report failure.
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/payment-failed",
		fmt.Sprintf(`{"booking_id":%d}`, b.ID), 99)
	require.NoError(t, h.PaymentFailed(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newJSONContext(t, http.MethodPost, "/v1/payments/payment-failed",
		fmt.Sprintf(`{"booking_id":%d}`, b.ID), 2)
	require.NoError(t, h.PaymentFailed(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingFailed, got.Status)

	// A late valid callback cannot resurrect a failed booking.
	sig := payment.SignPayload(testSecret, "order_pf", "pay_pf")
	c, rec = newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_pf", "pay_pf", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPaymentFailedNeverDemotesPaid(t *testing.T) {
	h, bookings, _ := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_pd")
	sig := payment.SignPayload(testSecret, "order_pd", "pay_pd")

	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_pd", "pay_pd", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newJSONContext(t, http.MethodPost, "/v1/payments/payment-failed",
		fmt.Sprintf(`{"booking_id":%d}`, b.ID), 2)
	require.NoError(t, h.PaymentFailed(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, got.Status)
}

func TestVerifyPaymentRepairsMissingChat(t *testing.T) {
	h, bookings, chats := newPaymentHandler(t, "http://127.0.0.1:0")
	b := createdBooking(t, bookings, "order_gap")

	// Simulate a crash between MarkPaid and chat provisioning.
	won, err := bookings.MarkPaid(context.Background(), b.ID, "pay_gap", "order_gap", "sig")
	require.NoError(t, err)
	require.True(t, won)

	sig := payment.SignPayload(testSecret, "order_gap", "pay_gap")
	c, rec := newJSONContext(t, http.MethodPost, "/v1/payments/verify-payment",
		verifyBody(b.ID, "order_gap", "pay_gap", sig), 2)
	require.NoError(t, h.VerifyPayment(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := bookings.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ChatID)
	chat, err := chats.GetByID(context.Background(), *got.ChatID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, chat.BookingID)
}
