package handler

import (
	"context"
	"net/http"

	"gowa-pairing/internal/helper"
	"gowa-pairing/internal/model"
	"gowa-pairing/internal/service"

	"github.com/labstack/echo/v4"
)

// SessionService is the part of the session registry the HTTP API uses.
type SessionService interface {
	GetQR(ctx context.Context, id string) (service.QRResult, error)
	RequestPairingCode(ctx context.Context, id, phone string) (service.PairResult, error)
	GetStatus(id string) (model.SessionStatus, error)
	List() []model.SessionStatus
	Logout(ctx context.Context, id string) error
}

type SessionHandler struct {
	sessions SessionService
}

func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// GET /api/health
func (h *SessionHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

// GET /api/qr/:sessionId (sessionId opsional, kosong = buat session baru)
func (h *SessionHandler) GetQR(c echo.Context) error {
	res, err := h.sessions.GetQR(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return ServiceError(c, err, res.SessionID)
	}

	if res.Authenticated() {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"sessionId": res.SessionID,
			"message":   "Already authenticated",
			"user":      res.Identity,
		})
	}

	dataURL, err := helper.QRDataURL(res.QR)
	if err != nil {
		return ErrorResponse(c, http.StatusInternalServerError, "Failed to encode QR code", "QR_ENCODE_FAILED", res.SessionID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessionId": res.SessionID,
		"qr":        dataURL,
	})
}

// GET /api/pair/:sessionId/:phone
func (h *SessionHandler) RequestPairingCode(c echo.Context) error {
	sessionID := c.Param("sessionId")

	res, err := h.sessions.RequestPairingCode(c.Request().Context(), sessionID, c.Param("phone"))
	if err != nil {
		return ServiceError(c, err, sessionID)
	}

	if res.Authenticated() {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"sessionId": res.SessionID,
			"message":   "Already authenticated",
			"user":      res.Identity,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessionId": res.SessionID,
		"code":      res.Code,
	})
}

// GET /api/me/:sessionId
func (h *SessionHandler) GetMe(c echo.Context) error {
	sessionID := c.Param("sessionId")

	status, err := h.sessions.GetStatus(sessionID)
	if err != nil {
		return ServiceError(c, err, sessionID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":       status.User,
		"connection": status.Connection,
	})
}

// GET /api/sessions
func (h *SessionHandler) ListSessions(c echo.Context) error {
	sessions := h.sessions.List()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"total":    len(sessions),
		"sessions": sessions,
	})
}

// POST /api/logout/:sessionId
func (h *SessionHandler) Logout(c echo.Context) error {
	sessionID := c.Param("sessionId")

	if err := h.sessions.Logout(c.Request().Context(), sessionID); err != nil {
		return ServiceError(c, err, sessionID)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"message":   "Logged out successfully",
	})
}
