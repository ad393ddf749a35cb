package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/pkg/httpx"
	"github.com/estatehq/backoffice/pkg/slogx"
)

// AgenciesHandler handles all agency record endpoints.
type AgenciesHandler struct {
	AgencyService *service.AgencyService
	OTPService    *service.OTPService

	RequireVerification bool
}

type createAgencyRequest struct {
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phoneNumber"`
	Email       string   `json:"email"`
	Address     string   `json:"address"`
	Logo        string   `json:"logo"`
	Clients     []string `json:"clients"`
}

type updateAgencyRequest struct {
	Name        *string   `json:"name"`
	PhoneNumber *string   `json:"phoneNumber"`
	Email       *string   `json:"email"`
	Address     *string   `json:"address"`
	Logo        *string   `json:"logo"`
	Clients     *[]string `json:"clients"`
}

type agencyResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phoneNumber"`
	Email       string   `json:"email"`
	Address     string   `json:"address"`
	Logo        string   `json:"logo"`
	Clients     []string `json:"clients"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
}

func toAgencyResponse(a domain.Agency) agencyResponse {
	return agencyResponse{
		ID:          a.ID,
		Name:        a.Name,
		PhoneNumber: a.PhoneNumber,
		Email:       a.Email,
		Address:     a.Address,
		Logo:        a.Logo,
		Clients:     a.Clients,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleGet handles GET /agency
//
//	@Summary		List or fetch agencies
//	@Description	Returns all agency records, or a single record when the id query parameter is present.
//	@Tags			Agencies
//	@Produce		json
//	@Param			id	query		string	false	"Agency ID (ULID)"
//	@Success		200	{object}	httpx.Envelope
//	@Failure		404	{object}	httpx.Envelope
//	@Router			/agency [get].
func (h *AgenciesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := r.URL.Query().Get("id"); id != "" {
		agency, err := h.AgencyService.GetAgency(ctx, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteData(w, http.StatusOK, "agency retrieved successfully", toAgencyResponse(agency))
		return
	}

	agencies, err := h.AgencyService.ListAgencies(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]agencyResponse, len(agencies))
	for i, a := range agencies {
		out[i] = toAgencyResponse(a)
	}
	httpx.WriteData(w, http.StatusOK, "agencies retrieved successfully", out)
}

// HandleCreate handles POST /agency
//
//	@Summary		Create agency
//	@Description	Creates an agency record. The submitted email must hold a verified session token presented in the X-Verification-Token header.
//	@Tags			Agencies
//	@Accept			json
//	@Produce		json
//	@Param			X-Verification-Token	header		string				true	"Verified session token"
//	@Param			request					body		createAgencyRequest	true	"Agency record"
//	@Success		201						{object}	httpx.Envelope
//	@Failure		400						{object}	httpx.Envelope
//	@Failure		403						{object}	httpx.Envelope
//	@Failure		409						{object}	httpx.Envelope
//	@Router			/agency [post].
func (h *AgenciesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createAgencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	token := r.Header.Get(verificationTokenHeader)
	if h.RequireVerification {
		if err := h.OTPService.Check(ctx, token, req.Email); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	agency, err := h.AgencyService.CreateAgency(ctx, service.CreateAgencyInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		Logo:        req.Logo,
		Clients:     req.Clients,
	})
	if err != nil {
		// The verification session is untouched, so a corrected
		// resubmission may reuse the same token.
		writeServiceError(w, r, err)
		return
	}

	if h.RequireVerification {
		if err := h.OTPService.Consume(ctx, token, req.Email); err != nil {
			log.Warn("verification session already spent", "error", err)
		}
	}

	log.Info("agency created", "agency_id", agency.ID)
	httpx.WriteData(w, http.StatusCreated, "agency created successfully", toAgencyResponse(agency))
}

// HandleUpdate handles PUT /agency?id=
//
//	@Summary		Update agency
//	@Description	Partially updates an agency record; only the fields present in the body are changed.
//	@Tags			Agencies
//	@Accept			json
//	@Produce		json
//	@Param			id		query		string				true	"Agency ID (ULID)"
//	@Param			request	body		updateAgencyRequest	true	"Fields to change"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		404		{object}	httpx.Envelope
//	@Failure		409		{object}	httpx.Envelope
//	@Router			/agency [put].
func (h *AgenciesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	var req updateAgencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	agency, err := h.AgencyService.UpdateAgency(ctx, id, service.UpdateAgencyInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Address:     req.Address,
		Logo:        req.Logo,
		Clients:     req.Clients,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, "agency updated successfully", toAgencyResponse(agency))
}

// HandleDelete handles DELETE /agency?id=
//
//	@Summary		Delete agency
//	@Description	Deletes an agency record and returns the deleted record.
//	@Tags			Agencies
//	@Produce		json
//	@Param			id	query		string	true	"Agency ID (ULID)"
//	@Success		200	{object}	httpx.Envelope
//	@Failure		400	{object}	httpx.Envelope
//	@Failure		404	{object}	httpx.Envelope
//	@Router			/agency [delete].
func (h *AgenciesHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	agency, err := h.AgencyService.DeleteAgency(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("agency deleted", "agency_id", agency.ID)
	httpx.WriteData(w, http.StatusOK, "agency deleted successfully", toAgencyResponse(agency))
}
