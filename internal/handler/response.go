package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gowa-pairing/internal/service"

	"github.com/labstack/echo/v4"
)

// ErrorResponse writes the canonical failure body {error, code[, sessionId]}.
func ErrorResponse(c echo.Context, status int, message, code, sessionID string) error {
	body := map[string]interface{}{
		"error": message,
		"code":  code,
	}
	if sessionID != "" {
		body["sessionId"] = sessionID
	}
	return c.JSON(status, body)
}

// ServiceError maps registry errors to HTTP status and machine code.
func ServiceError(c echo.Context, err error, sessionID string) error {
	switch {
	case errors.Is(err, service.ErrInvalidPhoneNumber):
		return ErrorResponse(c, http.StatusBadRequest, "Invalid phone number", "INVALID_PHONE_NUMBER", sessionID)
	case errors.Is(err, service.ErrUnknownSession):
		return ErrorResponse(c, http.StatusNotFound, "Unknown session", "UNKNOWN_SESSION", sessionID)
	case errors.Is(err, service.ErrQRTimeout):
		return ErrorResponse(c, http.StatusRequestTimeout, "Timed out waiting for QR code, please retry", "QR_TIMEOUT", sessionID)
	case errors.Is(err, service.ErrPairingCodeUnavailable):
		return ErrorResponse(c, http.StatusBadGateway, err.Error(), "PAIRING_CODE_UNAVAILABLE", sessionID)
	case errors.Is(err, service.ErrProviderUnavailable), errors.Is(err, service.ErrRegistryClosed):
		return ErrorResponse(c, http.StatusServiceUnavailable, err.Error(), "PROVIDER_UNAVAILABLE", sessionID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrorResponse(c, http.StatusRequestTimeout, "Request canceled", "REQUEST_CANCELED", sessionID)
	default:
		return ErrorResponse(c, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR", sessionID)
	}
}

// HTTPErrorHandler renders framework errors (404, 405, 401 from middleware) in the same shape.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal Server Error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprintf("%v", he.Message)
	}

	errorCode := "INTERNAL_ERROR"
	// Custom code untuk error tertentu
	switch code {
	case http.StatusUnauthorized:
		errorCode = "UNAUTHORIZED"
	case http.StatusMethodNotAllowed:
		errorCode = "METHOD_NOT_ALLOWED"
	case http.StatusNotFound:
		errorCode = "NOT_FOUND"
	case http.StatusTooManyRequests:
		errorCode = "RATE_LIMITED"
	}

	_ = ErrorResponse(c, code, message, errorCode, "")
}
