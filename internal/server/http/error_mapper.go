package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"smartsheet/internal/channels/whatsapp"
	"smartsheet/internal/server/app"
	"smartsheet/internal/sheets"
)

const notConnectedMessage = "WhatsApp is not connected. Please initialize WhatsApp first."

// mapDomainError translates a domain/service error into an HTTP status code
// and a user-facing message.
//
// Returns (0, "") if the error is not a recognized domain error, letting
// the caller decide on a default (typically 500).
func mapDomainError(err error) (status int, message string) {
	if err == nil {
		return 0, ""
	}

	var notFound *whatsapp.GroupNotFoundError
	var invalidRows *sheets.ValidationError

	switch {
	case errors.Is(err, app.ErrValidation):
		return http.StatusBadRequest, trimSentinel(err, app.ErrValidation)

	case errors.As(err, &invalidRows):
		return http.StatusBadRequest, invalidRows.Error()

	case errors.Is(err, sheets.ErrValidation):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, whatsapp.ErrEmptyGroupName):
		return http.StatusBadRequest, "Group name is required"

	case errors.Is(err, whatsapp.ErrNotReady):
		return http.StatusServiceUnavailable, notConnectedMessage

	case errors.As(err, &notFound):
		return http.StatusNotFound, fmt.Sprintf("Group %q not found. Available groups: %s",
			notFound.Query, strings.Join(notFound.Available, ", "))

	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound, trimSentinel(err, app.ErrNotFound)

	case errors.Is(err, sheets.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, app.ErrUnavailable):
		return http.StatusServiceUnavailable, trimSentinel(err, app.ErrUnavailable)

	case errors.Is(err, whatsapp.ErrInitTimeout):
		return http.StatusGatewayTimeout, "WhatsApp initialization timed out; scan the QR code and retry"

	default:
		return 0, ""
	}
}

// trimSentinel drops the ": <sentinel>" suffix added by the app constructors.
func trimSentinel(err, sentinel error) string {
	return strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
}

// statusFor maps err, falling back to defaultStatus with err's own text.
func statusFor(err error, defaultStatus int) (int, string) {
	if status, msg := mapDomainError(err); status != 0 {
		return status, msg
	}
	return defaultStatus, err.Error()
}
