package response

import (
	"errors"
	"net/http"

	"ctchen222/tictactoe-core/internal/events"
	"ctchen222/tictactoe-core/internal/session"

	"github.com/go-playground/validator/v10"
)

// StatusOf maps an error from binding or from the session to an HTTP status.
// Rejected placements answer 409 so views can ignore them.
func StatusOf(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case session.IsRejected(err):
		return http.StatusConflict
	case errors.Is(err, session.ErrUnknownMode),
		errors.Is(err, events.ErrUnknownEvent),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
