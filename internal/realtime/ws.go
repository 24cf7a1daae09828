package realtime

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WSHandler upgrades authenticated requests to websocket connections
// and parks them in the hub under the caller's user id.  The socket is
// receive-only from the client's perspective: sends go through the
// regular HTTP endpoint so they hit persistence and gating first.
type WSHandler struct {
	Hub      *Hub
	upgrader websocket.Upgrader
}

// NewWSHandler constructs a WSHandler bound to the given hub.
func NewWSHandler(hub *Hub) *WSHandler {
	return &WSHandler{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients connect from a separate origin in dev;
			// auth is carried by the JWT, not the origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve handles GET /v1/ws.  JWT middleware has already stored the
// authenticated user id in the context.  The connection stays open
// until the client goes away; everything the client writes is drained
// and discarded.
func (h *WSHandler) Serve(c echo.Context) error {
	userID, err := contextUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}
	sess := h.Hub.Join(userID, conn)
	defer func() {
		h.Hub.Leave(userID, sess)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}

// contextUserID extracts the authenticated user id placed in context by
// the JWT middleware.  JWT numeric claims decode as float64.
func contextUserID(c echo.Context) (uint64, error) {
	switch t := c.Get("user_id").(type) {
	case uint64:
		return t, nil
	case float64:
		return uint64(t), nil
	case string:
		return strconv.ParseUint(t, 10, 64)
	}
	return 0, echo.ErrUnauthorized
}
