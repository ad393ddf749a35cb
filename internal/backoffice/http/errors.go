package http

import (
	"errors"
	"net/http"

	"github.com/estatehq/backoffice/internal/backoffice/media"
	"github.com/estatehq/backoffice/internal/backoffice/notify"
	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/pkg/httpx"
	"github.com/estatehq/backoffice/pkg/slogx"
)

// writeServiceError maps service-layer sentinels onto HTTP statuses. The
// envelope shape is the same for every failure: {"message": "..."}.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		httpx.WriteMessage(w, http.StatusBadRequest, verr.Error())

	case errors.Is(err, service.ErrClientNotFound),
		errors.Is(err, service.ErrAdminNotFound),
		errors.Is(err, service.ErrAgencyNotFound):
		httpx.WriteMessage(w, http.StatusNotFound, err.Error())

	case errors.Is(err, store.ErrAlreadyExists):
		httpx.WriteMessage(w, http.StatusConflict, "a record with that email or phone number already exists")

	case errors.Is(err, service.ErrNotVerified):
		httpx.WriteMessage(w, http.StatusForbidden, "email has not been verified")

	case errors.Is(err, service.ErrSessionNotFound):
		httpx.WriteMessage(w, http.StatusNotFound, "verification session not found or expired")

	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid verification code")

	case errors.Is(err, service.ErrAlreadyVerified):
		httpx.WriteMessage(w, http.StatusConflict, "verification code already used")

	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteMessage(w, http.StatusTooManyRequests, "too many failed attempts, request a new code")

	case errors.Is(err, notify.ErrDispatch):
		httpx.WriteMessage(w, http.StatusBadGateway, "failed to send verification code, please try again")

	case errors.Is(err, media.ErrUpload):
		httpx.WriteMessage(w, http.StatusBadGateway, "failed to upload file, please try again")

	default:
		slogx.FromContext(r.Context()).Error("unhandled service error", "error", err)
		httpx.WriteMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
