package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"medsecure/internal/envelope"
	"medsecure/internal/http/middleware"
	"medsecure/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps domain errors to their HTTP representation.
//
// Codec failures are unprocessable input, not server faults, so they map
// to 422 with a code precise enough for the client to tell a foreign file
// from a corrupted one.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, envelope.ErrNotThisPlatform):
		return writeError(c, fiber.StatusUnprocessableEntity, "NOT_THIS_PLATFORM", "file was not encrypted by this platform")
	case errors.Is(err, envelope.ErrDecryptionFailed):
		return writeError(c, fiber.StatusUnprocessableEntity, "DECRYPTION_FAILED", "decryption failed, file may be corrupted or tampered with")
	case errors.Is(err, envelope.ErrMalformedPayload):
		return writeError(c, fiber.StatusUnprocessableEntity, "MALFORMED_PAYLOAD", "encrypted payload is malformed")
	case errors.Is(err, envelope.ErrSignatureMismatch):
		return writeError(c, fiber.StatusUnprocessableEntity, "SIGNATURE_MISMATCH", "file integrity verification failed")
	case errors.Is(err, service.ErrAccessDenied):
		return writeError(c, fiber.StatusForbidden, "ACCESS_DENIED", "access restricted to authorized personnel")
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrAlreadyDecided):
		return writeError(c, fiber.StatusConflict, "ALREADY_DECIDED", "request has already been decided")
	case errors.Is(err, service.ErrInvalidRole):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", "invalid role")
	case errors.Is(err, service.ErrInvalidDecision):
		return writeError(c, fiber.StatusBadRequest, "INVALID_DECISION", "decision must be approved or rejected")
	case errors.Is(err, service.ErrAnalysisDisabled):
		return writeError(c, fiber.StatusServiceUnavailable, "ANALYSIS_DISABLED", "analysis endpoint is not configured")
	case errors.Is(err, service.ErrStoreUnavailable):
		return writeError(c, fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE", "storage is temporarily unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
