package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samirrijal/utmgrid/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, out_of_range, internal_error, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errOutOfRange returns a 422 error for coordinates the grid cannot represent.
func errOutOfRange(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusUnprocessableEntity, "out_of_range", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// errFromDomain maps a service error onto the API error taxonomy.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrDegenerateViewport):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrOutOfRange):
		return errOutOfRange(c, err.Error())
	case errors.Is(err, domain.ErrInvariantViolation):
		LoggerFromCtx(c.UserContext()).Error("grid invariant violated", "error", err)
		return errInternal(c, "internal grid error")
	default:
		return errInternal(c, err.Error())
	}
}
