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

// verificationTokenHeader carries the opaque session token handed out by
// POST /otp. Create endpoints redeem it before writing anything.
const verificationTokenHeader = "X-Verification-Token"

// ClientsHandler handles all client record endpoints.
type ClientsHandler struct {
	ClientService *service.ClientService
	OTPService    *service.OTPService

	// RequireVerification gates record creation behind a verified email.
	RequireVerification bool
}

// createClientRequest deliberately has no password field: credential
// material supplied in an untrusted form payload is never persisted.
type createClientRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	City        string `json:"city"`
	State       string `json:"state"`
	Address     string `json:"address"`
	Logo        string `json:"logo"`
}

type updateClientRequest struct {
	Name        *string `json:"name"`
	PhoneNumber *string `json:"phoneNumber"`
	Email       *string `json:"email"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	Address     *string `json:"address"`
	Logo        *string `json:"logo"`
}

type clientResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
	City        string `json:"city"`
	State       string `json:"state"`
	Address     string `json:"address"`
	Logo        string `json:"logo"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:          c.ID,
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Email:       c.Email,
		City:        c.City,
		State:       c.State,
		Address:     c.Address,
		Logo:        c.Logo,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleGet handles GET /clients
//
//	@Summary		List or fetch clients
//	@Description	Returns all client records, or a single record when the id query parameter is present.
//	@Tags			Clients
//	@Produce		json
//	@Param			id	query		string	false	"Client ID (ULID)"
//	@Success		200	{object}	httpx.Envelope
//	@Failure		404	{object}	httpx.Envelope
//	@Router			/clients [get].
func (h *ClientsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if id := r.URL.Query().Get("id"); id != "" {
		client, err := h.ClientService.GetClient(ctx, id)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		httpx.WriteData(w, http.StatusOK, "client retrieved successfully", toClientResponse(client))
		return
	}

	clients, err := h.ClientService.ListClients(ctx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]clientResponse, len(clients))
	for i, c := range clients {
		out[i] = toClientResponse(c)
	}
	httpx.WriteData(w, http.StatusOK, "clients retrieved successfully", out)
}

// HandleCreate handles POST /clients
//
//	@Summary		Create client
//	@Description	Creates a client record. The submitted email must hold a verified session token (see POST /otp) presented in the X-Verification-Token header.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Param			X-Verification-Token	header		string				true	"Verified session token"
//	@Param			request					body		createClientRequest	true	"Client record"
//	@Success		201						{object}	httpx.Envelope
//	@Failure		400						{object}	httpx.Envelope
//	@Failure		403						{object}	httpx.Envelope
//	@Failure		409						{object}	httpx.Envelope
//	@Router			/clients [post].
func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createClientRequest
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

	client, err := h.ClientService.CreateClient(ctx, service.CreateClientInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		City:        req.City,
		State:       req.State,
		Address:     req.Address,
		Logo:        req.Logo,
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

	log.Info("client created", "client_id", client.ID)
	httpx.WriteData(w, http.StatusCreated, "client created successfully", toClientResponse(client))
}

// HandleUpdate handles PUT /clients?id=
//
//	@Summary		Update client
//	@Description	Partially updates a client record; only the fields present in the body are changed.
//	@Tags			Clients
//	@Accept			json
//	@Produce		json
//	@Param			id		query		string				true	"Client ID (ULID)"
//	@Param			request	body		updateClientRequest	true	"Fields to change"
//	@Success		200		{object}	httpx.Envelope
//	@Failure		400		{object}	httpx.Envelope
//	@Failure		404		{object}	httpx.Envelope
//	@Failure		409		{object}	httpx.Envelope
//	@Router			/clients [put].
func (h *ClientsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	var req updateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteMessage(w, http.StatusBadRequest, "invalid JSON in request body")
		return
	}

	client, err := h.ClientService.UpdateClient(ctx, id, service.UpdateClientInput{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		City:        req.City,
		State:       req.State,
		Address:     req.Address,
		Logo:        req.Logo,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteData(w, http.StatusOK, "client updated successfully", toClientResponse(client))
}

// HandleDelete handles DELETE /clients?id=
//
//	@Summary		Delete client
//	@Description	Deletes a client record and returns the deleted record.
//	@Tags			Clients
//	@Produce		json
//	@Param			id	query		string	true	"Client ID (ULID)"
//	@Success		200	{object}	httpx.Envelope
//	@Failure		400	{object}	httpx.Envelope
//	@Failure		404	{object}	httpx.Envelope
//	@Router			/clients [delete].
func (h *ClientsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.URL.Query().Get("id")
	if id == "" {
		httpx.WriteMessage(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	client, err := h.ClientService.DeleteClient(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.Info("client deleted", "client_id", client.ID)
	httpx.WriteData(w, http.StatusOK, "client deleted successfully", toClientResponse(client))
}
