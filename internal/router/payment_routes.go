package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/handler"
	"github.com/mentorhive/mentor-booking/internal/middleware"
	"github.com/mentorhive/mentor-booking/internal/model"
)

// RegisterPayment registers the purchase flow under /v1/payments.  Both
// endpoints require a valid JWT and the MENTEE role: only mentees buy
// sessions, and the verification callback is relayed through the
// mentee's client after checkout completes.
func RegisterPayment(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1/payments",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMentee),
	)
	g.POST("/create-order", h.CreateOrder)
	g.POST("/verify-payment", h.VerifyPayment)
	g.POST("/payment-failed", h.PaymentFailed)
}
