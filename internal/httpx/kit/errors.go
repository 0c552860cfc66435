package kit

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/romangarms/WhereHaveIBeen/internal/logx"
)

var kitLogger = logx.GetScope("httpx")

// InternalMessage is the only text a client ever sees for a 5xx.
const InternalMessage = "An internal error has occurred."

// APIError is a structured application error with code and message.
// Key names the JSON field carrying Message ("error" unless set).
// Cause is logged for 5xx responses and never rendered; errors that are
// not an *APIError always render as InternalMessage.
type APIError struct {
	HTTPStatus int
	Code       string
	Message    string
	Key        string
	Cause      error
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error { return e.Cause }

func NewAPIError(httpStatus int, code, msg string) *APIError {
	return &APIError{HTTPStatus: httpStatus, Code: code, Message: msg}
}

// WithKey renders Message under key instead of "error".
func (e *APIError) WithKey(key string) *APIError {
	e.Key = key
	return e
}

// Common helpers
func BadRequest(msg string) *APIError {
	return NewAPIError(http.StatusBadRequest, "E_INVALID_PARAM", msg)
}

func Unauthorized(msg string) *APIError {
	return NewAPIError(http.StatusUnauthorized, "E_UNAUTHORIZED", msg)
}

func TooManyRequests(msg string) *APIError {
	return NewAPIError(http.StatusTooManyRequests, "E_RATE_LIMITED", msg)
}

// Internal hides cause behind InternalMessage.
func Internal(cause error) *APIError {
	return &APIError{HTTPStatus: http.StatusInternalServerError, Code: "E_INTERNAL", Message: InternalMessage, Cause: cause}
}

// asAPIError classifies err the way ErrorHandler renders it.
func asAPIError(err error) *APIError {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < http.StatusInternalServerError {
		return NewAPIError(fe.Code, httpStatusToCode(fe.Code), fe.Message)
	}
	return Internal(err)
}

// StatusOf is the HTTP status ErrorHandler will answer err with.
func StatusOf(err error) int { return asAPIError(err).HTTPStatus }

// ErrorHandler returns a Fiber error handler that emits unified error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		ae := asAPIError(err)

		if ae.HTTPStatus >= http.StatusInternalServerError {
			kitLogger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", ae.HTTPStatus),
				zap.String("request_id", RequestID(c)),
				zap.Error(firstErr(ae.Cause, err)))
		}

		key := ae.Key
		if key == "" {
			key = "error"
		}
		return c.Status(ae.HTTPStatus).JSON(fiber.Map{
			key:          ae.Message,
			"code":       ae.Code,
			"request_id": RequestID(c),
		})
	}
}

func firstErr(preferred, fallback error) error {
	if preferred != nil {
		return preferred
	}
	return fallback
}

func httpStatusToCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "E_INVALID_PARAM"
	case http.StatusNotFound:
		return "E_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "E_METHOD_NOT_ALLOWED"
	case http.StatusUnauthorized:
		return "E_UNAUTHORIZED"
	case http.StatusForbidden:
		return "E_FORBIDDEN"
	case http.StatusTooManyRequests:
		return "E_RATE_LIMITED"
	default:
		if status >= 500 {
			return "E_INTERNAL"
		}
		return "E_UNKNOWN"
	}
}
