package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/config"
	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/repository"
)

// BookingHandler serves booking listings and the mentor's call link.
type BookingHandler struct {
	Cfg      config.Config
	Bookings *repository.BookingRepo
	Chats    *repository.ChatRepo
}

func NewBookingHandler(cfg config.Config, b *repository.BookingRepo, ch *repository.ChatRepo) *BookingHandler {
	return &BookingHandler{Cfg: cfg, Bookings: b, Chats: ch}
}

type videoCallLinkReq struct {
	VideoCallLink string `json:"video_call_link"`
}

// ListBookings returns every booking the caller participates in on
// either side, newest first.  A paid booking that somehow lost its
// chat (crash between payment and provisioning) is repaired on the way
// out, so the listing doubles as a self-healing pass.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	bookings, err := h.Bookings.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
	}

	ttl := time.Duration(h.Cfg.ChatTTLHours) * time.Hour
	out := make([]bookingPart, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if b.Status == model.BookingPaid && b.ChatID == nil {
			if chat, _, err := h.Chats.FindOrCreate(ctx, b.MentorID, b.MenteeID, b.ID, ttl); err == nil {
				if err := h.Bookings.SetChat(ctx, b.ID, chat.ID); err == nil {
					id := chat.ID
					b.ChatID = &id
				}
			}
		}
		out = append(out, toBookingPart(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// SetVideoCallLink stores the session call URL on a paid booking.
// Mentor only, and only the mentor the booking belongs to.
func (h *BookingHandler) SetVideoCallLink(c echo.Context) error {
	mentorID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req videoCallLinkReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	link := strings.TrimSpace(req.VideoCallLink)
	if link == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "video_call_link required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.SetVideoCallLink(ctx, bookingID, mentorID, link); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update booking failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"booking_id": bookingID, "video_call_link": link})
}
