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

// AdminsHandler handles all admin record endpoints.
type AdminsHandler struct {
	AdminService *service.AdminService
	OTPService   *service.OTPService

	RequireVerification bool
}

type createAdminRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ClientID    string `json:"clientId"`
}

type updateAdminRequest struct {
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phoneNumber"`
	ClientID    *string `json:"clientId"`
}

type adminResponse struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ClientID    string `json:"clientId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toAdminResponse(a domain.Admin) adminResponse {
	return adminResponse{
		ID:          a.ID,
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Email:       a.Email,
		PhoneNumber: a.PhoneNumber,
		ClientID:    a.ClientID,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   a.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleGet handles GET /admin
//
//	@Summary		List or fetch admins
//	@Description	Returns all admin records, a single record when id is present, or the admins of one client when clientId is present.
//	@Tags			Admins
//	@Produce		json
//	@Param			id			query		string	false	"Admin ID (ULID)"
//	@Param			clientId	query		string	false	"Filter by owning client"
//	@Success		200			{object}	httpx.Envelope
//	@Failure		404			{object}	httpx.Envelope
//	@Router			/admin [get].
func (h *AdminsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := r.URL.Query().Get("id"); id != "" {
		admin, err := h.AdminService.GetAdmin(ctx, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteData(w, http.StatusOK, "admin retrieved successfully", toAdminResponse(admin))
		return
	}

	admins, err := h.AdminService.ListAdmins(ctx, r.URL.Query().Get("clientId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]adminResponse, len(admins))
	for i, a := range admins {
		out[i] = toAdminResponse(a)
	}
	httpx.WriteData(w, http.StatusOK, "admins retrieved successfully", out)
}

// HandleCreate handles POST /admin
//
//	@Summary		Create admin
//	@Description	Creates an admin record bound to an existing client. The submitted email must hold a verified session token presented in the X-Verification-Token header.
//	@Tags			Admins
//	@Accept			json
//	@Produce		json
//	@Param			X-Verification-Token	header		string				true	"Verified session token"
//	@Param			request					body		createAdminRequest	true	"Admin record"
//	@Success		201						{object}	httpx.Envelope
//	@Failure		400						{object}	httpx.Envelope
//	@Failure		403						{object}	httpx.Envelope
//	@Failure		409						{object}	httpx.Envelope
//	@Router			/admin [post].
func (h *AdminsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createAdminRequest
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

	admin, err := h.AdminService.CreateAdmin(ctx, service.CreateAdminInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		ClientID:    req.ClientID,
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

	log.Info("admin created", "admin_id", admin.ID, "client_id", admin.ClientID)
	httpx.WriteData(w, http.StatusCreated, "admin created successfully", toAdminResponse(admin))
}

// HandleUpdate handles PUT /admin?id=
//
//	@Summary		Update admin
//	@Description	Partially updates an admin record; only the fields present in the body are changed.
//	@Tags			Admins
//	@Accept			json
//	@Produce		json
//	@Param			id		query		string				true	"Admin ID (ULID)"
//	@Param			request	body		updateAdminRequest	true	"Fields to change"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		404		{object}	httpx.Envelope
//	@Failure		409		{object}	httpx.Envelope
//	@Router			/admin [put].
func (h *AdminsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	var req updateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	admin, err := h.AdminService.UpdateAdmin(ctx, id, service.UpdateAdminInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		ClientID:    req.ClientID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, "admin updated successfully", toAdminResponse(admin))
}

// HandleDelete handles DELETE /admin?id=
//
//	@Summary		Delete admin
//	@Description	Deletes an admin record and returns the deleted record.
//	@Tags			Admins
//	@Produce		json
//	@Param			id	query		string	true	"Admin ID (ULID)"
//	@Success		200	{object}	httpx.Envelope
//	@Failure		400	{object}	httpx.Envelope
//	@Failure		404	{object}	httpx.Envelope
//	@Router			/admin [delete].
func (h *AdminsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	admin, err := h.AdminService.DeleteAdmin(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("admin deleted", "admin_id", admin.ID)
	httpx.WriteData(w, http.StatusOK, "admin deleted successfully", toAdminResponse(admin))
}
