package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/realtime"
	"github.com/mentorhive/mentor-booking/internal/repository"
)

// ChatHandler serves chat room listing, message history and sending.
// Expiry is enforced lazily: every read that touches a chat past its
// deadline flips the stored flag before answering, so the persisted
// state converges without waiting for the background sweep.
type ChatHandler struct {
	Chats    *repository.ChatRepo
	Messages *repository.MessageRepo
	Hub      *realtime.Hub
}

func NewChatHandler(ch *repository.ChatRepo, m *repository.MessageRepo, hub *realtime.Hub) *ChatHandler {
	return &ChatHandler{Chats: ch, Messages: m, Hub: hub}
}

type sendMessageReq struct {
	ChatID  uint64 `json:"chat_id"`
	Content string `json:"content"`
}

type chatPart struct {
	ID               uint64    `json:"id"`
	BookingID        uint64    `json:"booking_id"`
	MentorID         uint64    `json:"mentor_id"`
	MenteeID         uint64    `json:"mentee_id"`
	OtherParticipant uint64    `json:"other_participant"`
	IsActive         bool      `json:"is_active"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

type messagePart struct {
	ID        uint64    `json:"id"`
	ChatID    uint64    `json:"chat_id"`
	SenderID  uint64    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toMessagePart(m *model.Message) messagePart {
	return messagePart{ID: m.ID, ChatID: m.ChatID, SenderID: m.SenderID, Content: m.Content, CreatedAt: m.CreatedAt}
}

// ListChats returns every chat the caller participates in, newest
// first, with expiry applied before the response is built.
func (h *ChatHandler) ListChats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	chats, err := h.Chats.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list chats failed"})
	}

	now := time.Now().UTC()
	out := make([]chatPart, 0, len(chats))
	for i := range chats {
		ch := &chats[i]
		if ch.IsActive && ch.Expired(now) {
			if _, err := h.Chats.DeactivateIfExpired(ctx, ch.ID, now); err == nil {
				ch.IsActive = false
			}
		}
		out = append(out, chatPart{
			ID:               ch.ID,
			BookingID:        ch.BookingID,
			MentorID:         ch.MentorID,
			MenteeID:         ch.MenteeID,
			OtherParticipant: ch.OtherParticipant(userID),
			IsActive:         ch.IsActive,
			ExpiresAt:        ch.ExpiresAt,
			CreatedAt:        ch.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"chats": out})
}

// GetMessages returns the full history of a chat in chronological
// order.  History stays readable after expiry; only sending is gated.
func (h *ChatHandler) GetMessages(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	chatID, err := strconv.ParseUint(c.Param("chatId"), 10, 64)
	if err != nil || chatID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid chat id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	chat, err := h.Chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load chat failed"})
	}
	if !chat.HasParticipant(userID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	// Reads flip the flag too, so an expired chat someone only ever
	// reads still converges to inactive.
	now := time.Now().UTC()
	if chat.IsActive && chat.Expired(now) {
		_, _ = h.Chats.DeactivateIfExpired(ctx, chat.ID, now)
	}

	msgs, err := h.Messages.ListByChat(ctx, chatID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list messages failed"})
	}
	out := make([]messagePart, 0, len(msgs))
	for i := range msgs {
		out = append(out, toMessagePart(&msgs[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

// SendMessage persists a message into an active chat and pushes it to
// the other participant's live connections.  An expired chat rejects
// the send with a 403 whose error body is distinct from the
// authorization 403, so clients can tell "not yours" from "too late".
func (h *ChatHandler) SendMessage(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.ChatID == 0 || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "chat_id and content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	chat, err := h.Chats.GetByID(ctx, req.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "chat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load chat failed"})
	}
	if !chat.HasParticipant(userID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	now := time.Now().UTC()
	if !chat.IsActive || chat.Expired(now) {
		_, _ = h.Chats.DeactivateIfExpired(ctx, chat.ID, now)
		return c.JSON(http.StatusForbidden, echo.Map{"error": "chat expired"})
	}

	msg := &model.Message{ChatID: chat.ID, SenderID: userID, Content: req.Content}
	if err := h.Messages.Create(ctx, msg); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send message failed"})
	}

	// Best effort push; an offline recipient reads it from history.
	h.Hub.Emit(chat.OtherParticipant(userID), realtime.EventMessage, toMessagePart(msg))

	return c.JSON(http.StatusCreated, echo.Map{"message": toMessagePart(msg)})
}
