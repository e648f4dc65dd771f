package handler

import (
	"gowa-pairing/internal/ws"

	"github.com/labstack/echo/v4"
)

// Routes mounts the API. hub may be nil when websockets are disabled; auth
// guards everything under /api except the health check.
func Routes(e *echo.Echo, h *SessionHandler, hub *ws.Hub, auth ...echo.MiddlewareFunc) {
	e.GET("/api/health", h.Health)

	api := e.Group("/api", auth...)
	api.GET("/qr", h.GetQR)
	api.GET("/qr/:sessionId", h.GetQR)
	api.GET("/pair/:sessionId/:phone", h.RequestPairingCode)
	api.GET("/me/:sessionId", h.GetMe)
	api.GET("/sessions", h.ListSessions)
	api.POST("/logout/:sessionId", h.Logout)

	if hub != nil {
		e.GET("/ws", WebSocketHandler(hub), auth...)
	}
}
