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

var ErrAgencyNotFound = errors.New("agency not found")

type AgencyService struct {
	Store store.Store
}

// CreateAgencyInput mirrors CreateClientInput plus the clients reference
// list, which is accepted as-is with no referential validation.
type CreateAgencyInput struct {
	Name        string
	PhoneNumber string
	Email       string
	Address     string
	Logo        string
	Clients     []string
}

type UpdateAgencyInput struct {
	Name        *string
	PhoneNumber *string
	Email       *string
	Address     *string
	Logo        *string
	Clients     *[]string
}

func (s *AgencyService) CreateAgency(ctx context.Context, in CreateAgencyInput) (domain.Agency, error) {
	l := slogx.FromContext(ctx)

	if err := validateAgencyInput(in); err != nil {
		return domain.Agency{}, err
	}

	agency := domain.Agency{
		ID:          idx.New().String(),
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Email:       normalizeEmail(in.Email),
		Address:     strings.TrimSpace(in.Address),
		Logo:        strings.TrimSpace(in.Logo),
		Clients:     trimRefs(in.Clients),
	}

	if err := s.Store.Agencies().CreateAgency(ctx, agency); err != nil {
		if !errors.Is(err, store.ErrAlreadyExists) {
			l.Error("failed to create agency", "error", err)
		}
		return domain.Agency{}, err
	}

	l.Info("agency created", "agency_id", agency.ID, "name", agency.Name)
	return s.Store.Agencies().GetAgencyByID(ctx, agency.ID)
}

func (s *AgencyService) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	return s.Store.Agencies().ListAgencies(ctx)
}

func (s *AgencyService) GetAgency(ctx context.Context, id string) (domain.Agency, error) {
	agency, err := s.Store.Agencies().GetAgencyByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Agency{}, ErrAgencyNotFound
		}
		return domain.Agency{}, err
	}
	return agency, nil
}

func (s *AgencyService) UpdateAgency(ctx context.Context, id string, in UpdateAgencyInput) (domain.Agency, error) {
	l := slogx.FromContext(ctx)

	agency, err := s.GetAgency(ctx, id)
	if err != nil {
		return domain.Agency{}, err
	}

	applyString(&agency.Name, in.Name)
	applyString(&agency.PhoneNumber, in.PhoneNumber)
	if in.Email != nil {
		agency.Email = normalizeEmail(*in.Email)
	}
	applyString(&agency.Address, in.Address)
	applyString(&agency.Logo, in.Logo)
	if in.Clients != nil {
		agency.Clients = trimRefs(*in.Clients)
	}

	if err := validateAgencyInput(CreateAgencyInput{
		Name:        agency.Name,
		PhoneNumber: agency.PhoneNumber,
		Email:       agency.Email,
		Address:     agency.Address,
		Logo:        agency.Logo,
		Clients:     agency.Clients,
	}); err != nil {
		return domain.Agency{}, err
	}

	if err := s.Store.Agencies().UpdateAgency(ctx, agency); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Agency{}, ErrAgencyNotFound
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			l.Error("failed to update agency", "error", err, "agency_id", id)
		}
		return domain.Agency{}, err
	}

	l.Info("agency updated", "agency_id", id)
	return s.Store.Agencies().GetAgencyByID(ctx, id)
}

func (s *AgencyService) DeleteAgency(ctx context.Context, id string) (domain.Agency, error) {
	l := slogx.FromContext(ctx)

	agency, err := s.GetAgency(ctx, id)
	if err != nil {
		return domain.Agency{}, err
	}

	if err := s.Store.Agencies().DeleteAgency(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Agency{}, ErrAgencyNotFound
		}
		l.Error("failed to delete agency", "error", err, "agency_id", id)
		return domain.Agency{}, err
	}

	l.Info("agency deleted", "agency_id", id)
	return agency, nil
}

func validateAgencyInput(in CreateAgencyInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return missingField("name")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return missingField("phoneNumber")
	case strings.TrimSpace(in.Email) == "":
		return missingField("email")
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

func trimRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
