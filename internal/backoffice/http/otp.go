package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/pkg/httpx"
)

// OTPHandler handles email verification endpoints.
type OTPHandler struct {
	OTPService *service.OTPService
}

type issueOTPRequest struct {
	Email string `json:"email"`
}

type issueOTPResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type verifyOTPRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

// HandleIssue handles POST /otp
//
//	@Summary		Request a verification code
//	@Description	Emails a one-time code to the given address and returns an opaque session token. The code itself never appears in the response. Re-requesting invalidates any outstanding code for the address.
//	@Tags			Verification
//	@Accept			json
//	@Produce		json
//	@Param			request	body		issueOTPRequest	true	"Address to verify"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		502		{object}	httpx.Envelope
//	@Router			/otp [post].
func (h *OTPHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	issue, err := h.OTPService.Issue(ctx, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteData(w, http.StatusOK, "verification code sent", issueOTPResponse{
		Token:     issue.Token,
		ExpiresAt: issue.ExpiresAt.Format(time.RFC3339),
	})
}

// HandleVerify handles POST /otp/verify
//
//	@Summary		Verify a code
//	@Description	Checks the emailed code against the session token. A wrong code may be retried until the attempt limit; a correct code marks the session verified for one form submission.
//	@Tags			Verification
//	@Accept			json
//	@Produce		json
//	@Param			request	body		verifyOTPRequest	true	"Session token and emailed code"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		404		{object}	httpx.Envelope
//	@Failure		429		{object}	httpx.Envelope
//	@Router			/otp/verify [post].
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	if err := h.OTPService.Verify(ctx, req.Token, req.Code); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "email verified successfully")
}
