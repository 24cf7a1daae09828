package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/handler"
	"github.com/mentorhive/mentor-booking/internal/middleware"
	"github.com/mentorhive/mentor-booking/internal/model"
	"github.com/mentorhive/mentor-booking/internal/realtime"
)

// RegisterChat registers chat endpoints under /v1.  Both mentors and
// mentees use them; participant checks happen inside the handlers
// because membership is per chat, not per role.  The websocket endpoint
// for receiving pushed messages also lives here.
func RegisterChat(e *echo.Echo, h *handler.ChatHandler, ws *realtime.WSHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMentor, model.RoleMentee),
	)
	g.GET("/chat", h.ListChats)
	g.GET("/chat/:chatId/messages", h.GetMessages)
	g.POST("/chat/message", h.SendMessage)
	g.GET("/ws", ws.Serve)
}
