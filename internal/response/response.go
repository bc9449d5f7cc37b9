// Package response implements the uniform JSON envelope used by every
// endpoint: {success, message, data?, error?, pagination?, timestamp}.
package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sporthub/venue-booking/internal/apperr"
)

// Pagination describes the page window of a list response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes TotalPages from the total row count and limit.
func NewPagination(total int64, page, limit int) *Pagination {
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return &Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Data       any         `json:"data,omitempty"`
	Error      *errorBody  `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

// OK writes a success envelope with the given status and payload.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, envelope{Success: true, Message: message, Data: data, Timestamp: now()})
}

// Paginated writes a 200 success envelope carrying pagination metadata.
func Paginated(c echo.Context, message string, data any, p *Pagination) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data, Pagination: p, Timestamp: now()})
}

// ErrorHandler returns an echo.HTTPErrorHandler that maps operational
// errors one-to-one onto the envelope and forces everything else to a
// generic 500. Unexpected errors are always logged; their message is only
// echoed back outside production.
func ErrorHandler(env string) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var op *apperr.Error
		if errors.As(err, &op) {
			_ = c.JSON(op.Status, envelope{
				Success:   false,
				Message:   op.Message,
				Error:     &errorBody{Code: op.Code, Message: op.Message, Details: op.Details},
				Timestamp: now(),
			})
			return
		}

		// Echo's own 404/405 responses keep their status but still use the envelope.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			msg := http.StatusText(he.Code)
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			_ = c.JSON(he.Code, envelope{
				Success:   false,
				Message:   msg,
				Error:     &errorBody{Code: "HTTP_ERROR", Message: msg},
				Timestamp: now(),
			})
			return
		}

		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unexpected error")

		msg := apperr.ErrInternal.Message
		if env != "prod" {
			msg = err.Error()
		}
		_ = c.JSON(http.StatusInternalServerError, envelope{
			Success:   false,
			Message:   apperr.ErrInternal.Message,
			Error:     &errorBody{Code: apperr.ErrInternal.Code, Message: msg},
			Timestamp: now(),
		})
	}
}
