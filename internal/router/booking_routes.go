package router

import (
	"github.com/labstack/echo/v4"

	"github.com/mentorhive/mentor-booking/internal/handler"
	"github.com/mentorhive/mentor-booking/internal/middleware"
	"github.com/mentorhive/mentor-booking/internal/model"
)

// RegisterBooking registers booking listing and mentor-side booking
// management under /v1.  The listing is open to both roles since a
// booking always has a participant on each side; setting the call link
// is mentor-only.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMentor, model.RoleMentee),
	)
	g.GET("/my-bookings", h.ListBookings)

	m := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMentor),
	)
	m.PATCH("/bookings/:id/video-call-link", h.SetVideoCallLink)
}
