package service

import (
	"context"
	"errors"
	"strings"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/pkg/idx"
	"github.com/estatehq/backoffice/pkg/slogx"
)

var ErrClientNotFound = errors.New("client not found")

type ClientService struct {
	Store store.Store
}

// CreateClientInput carries the caller-supplied fields for a new client.
// There is deliberately no password field: untrusted form payloads must
// never persist one, so the request type cannot express it.
type CreateClientInput struct {
	Name        string
	PhoneNumber string
	Email       string
	City        string
	State       string
	Address     string
	Logo        string
}

// UpdateClientInput carries a partial overwrite; nil fields are left untouched.
type UpdateClientInput struct {
	Name        *string
	PhoneNumber *string
	Email       *string
	City        *string
	State       *string
	Address     *string
	Logo        *string
}

// CreateClient validates the input, assigns an ID and persists the record.
// Uniqueness of phone number and email is enforced by the store; a
// violation surfaces as store.ErrAlreadyExists.
func (s *ClientService) CreateClient(ctx context.Context, in CreateClientInput) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	if err := validateClientInput(in); err != nil {
		return domain.Client{}, err
	}

	client := domain.Client{
		ID:          idx.New().String(),
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Email:       normalizeEmail(in.Email),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Address:     strings.TrimSpace(in.Address),
		Logo:        strings.TrimSpace(in.Logo),
	}

	if err := s.Store.Clients().CreateClient(ctx, client); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			l.Error("failed to create client", "error", err)
		}
		return domain.Client{}, err
	}

	l.Info("client created", "client_id", client.ID, "name", client.Name)
	return s.Store.Clients().GetClientByID(ctx, client.ID)
}

// ListClients returns all clients. An empty list is a valid result.
func (s *ClientService) ListClients(ctx context.Context) ([]domain.Client, error) {
	return s.Store.Clients().ListClients(ctx)
}

// GetClient fetches a client by id.
func (s *ClientService) GetClient(ctx context.Context, id string) (domain.Client, error) {
	client, err := s.Store.Clients().GetClientByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, err
	}
	return client, nil
}

// UpdateClient applies a partial overwrite to an existing client.
func (s *ClientService) UpdateClient(ctx context.Context, id string, in UpdateClientInput) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	client, err := s.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	applyString(&client.Name, in.Name)
	applyString(&client.PhoneNumber, in.PhoneNumber)
	if in.Email != nil {
		client.Email = normalizeEmail(*in.Email)
	}
	applyString(&client.City, in.City)
	applyString(&client.State, in.State)
	applyString(&client.Address, in.Address)
	applyString(&client.Logo, in.Logo)

	if err := validateClientInput(CreateClientInput{
		Name:        client.Name,
		PhoneNumber: client.PhoneNumber,
		Email:       client.Email,
		City:        client.City,
		State:       client.State,
		Address:     client.Address,
		Logo:        client.Logo,
	}); err != nil {
		return domain.Client{}, err
	}

	if err := s.Store.Clients().UpdateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			l.Error("failed to update client", "error", err, "client_id", id)
		}
		return domain.Client{}, err
	}

	l.Info("client updated", "client_id", id)
	return s.Store.Clients().GetClientByID(ctx, id)
}

// DeleteClient removes a client and returns the deleted record. Admins
// referencing the client keep their (now dangling) reference.
func (s *ClientService) DeleteClient(ctx context.Context, id string) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	client, err := s.GetClient(ctx, id)
	if err != nil {
		return domain.Client{}, err
	}

	if err := s.Store.Clients().DeleteClient(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		l.Error("failed to delete client", "error", err, "client_id", id)
		return domain.Client{}, err
	}

	l.Info("client deleted", "client_id", id)
	return client, nil
}

func validateClientInput(in CreateClientInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return missingField("name")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return missingField("phoneNumber")
	case strings.TrimSpace(in.Email) == "":
		return missingField("email")
	case strings.TrimSpace(in.City) == "":
		return missingField("city")
	case strings.TrimSpace(in.State) == "":
		return missingField("state")
	case strings.TrimSpace(in.Address) == "":
		return missingField("address")
	case strings.TrimSpace(in.Logo) == "":
		return missingField("logo")
	}

	if !looksLikeEmail(in.Email) {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// looksLikeEmail is a shape check only; real ownership is proven by the OTP
// flow, not by parsing.
func looksLikeEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
