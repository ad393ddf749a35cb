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

var ErrAdminNotFound = errors.New("admin not found")

type AdminService struct {
	Store store.Store
}

type CreateAdminInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	ClientID    string
}

type UpdateAdminInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	ClientID    *string
}

// CreateAdmin validates the input, checks that the referenced client exists
// and persists the record. The existence check is a point-in-time read, not
// a transactional constraint: the client may be deleted afterwards and the
// reference left dangling.
func (s *AdminService) CreateAdmin(ctx context.Context, in CreateAdminInput) (domain.Admin, error) {
	l := slogx.FromContext(ctx)

	if err := validateAdminInput(in); err != nil {
		return domain.Admin{}, err
	}

	if err := s.checkClientExists(ctx, in.ClientID); err != nil {
		return domain.Admin{}, err
	}

	admin := domain.Admin{
		ID:          idx.New().String(),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       normalizeEmail(in.Email),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		ClientID:    strings.TrimSpace(in.ClientID),
	}

	if err := s.Store.Admins().CreateAdmin(ctx, admin); err != nil {
		l.Error("failed to create admin", "error", err)
		return domain.Admin{}, err
	}

	l.Info("admin created", "admin_id", admin.ID, "client_id", admin.ClientID)
	return s.Store.Admins().GetAdminByID(ctx, admin.ID)
}

// ListAdmins returns all admins, filtered by clientID when non-empty.
func (s *AdminService) ListAdmins(ctx context.Context, clientID string) ([]domain.Admin, error) {
	return s.Store.Admins().ListAdmins(ctx, clientID)
}

func (s *AdminService) GetAdmin(ctx context.Context, id string) (domain.Admin, error) {
	admin, err := s.Store.Admins().GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, ErrAdminNotFound
		}
		return domain.Admin{}, err
	}
	return admin, nil
}

func (s *AdminService) UpdateAdmin(ctx context.Context, id string, in UpdateAdminInput) (domain.Admin, error) {
	l := slogx.FromContext(ctx)

	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}

	applyString(&admin.FirstName, in.FirstName)
	applyString(&admin.LastName, in.LastName)
	if in.Email != nil {
		admin.Email = normalizeEmail(*in.Email)
	}
	applyString(&admin.PhoneNumber, in.PhoneNumber)
	if in.ClientID != nil {
		if err := s.checkClientExists(ctx, *in.ClientID); err != nil {
			return domain.Admin{}, err
		}
		admin.ClientID = strings.TrimSpace(*in.ClientID)
	}

	if err := validateAdminInput(CreateAdminInput{
		FirstName:   admin.FirstName,
		LastName:    admin.LastName,
		Email:       admin.Email,
		PhoneNumber: admin.PhoneNumber,
		ClientID:    admin.ClientID,
	}); err != nil {
		return domain.Admin{}, err
	}

	if err := s.Store.Admins().UpdateAdmin(ctx, admin); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, ErrAdminNotFound
		}
		l.Error("failed to update admin", "error", err, "admin_id", id)
		return domain.Admin{}, err
	}

	l.Info("admin updated", "admin_id", id)
	return s.Store.Admins().GetAdminByID(ctx, id)
}

func (s *AdminService) DeleteAdmin(ctx context.Context, id string) (domain.Admin, error) {
	l := slogx.FromContext(ctx)

	admin, err := s.GetAdmin(ctx, id)
	if err != nil {
		return domain.Admin{}, err
	}

	if err := s.Store.Admins().DeleteAdmin(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Admin{}, ErrAdminNotFound
		}
		l.Error("failed to delete admin", "error", err, "admin_id", id)
		return domain.Admin{}, err
	}

	l.Info("admin deleted", "admin_id", id)
	return admin, nil
}

func (s *AdminService) checkClientExists(ctx context.Context, clientID string) error {
	_, err := s.Store.Clients().GetClientByID(ctx, strings.TrimSpace(clientID))
	if errors.Is(err, store.ErrNotFound) {
		return &ValidationError{Field: "clientId", Reason: "referenced client does not exist"}
	}
	return err
}

func validateAdminInput(in CreateAdminInput) error {
	switch {
	case strings.TrimSpace(in.FirstName) == "":
		return missingField("firstName")
	case strings.TrimSpace(in.LastName) == "":
		return missingField("lastName")
	case strings.TrimSpace(in.Email) == "":
		return missingField("email")
	case strings.TrimSpace(in.PhoneNumber) == "":
		return missingField("phoneNumber")
	case strings.TrimSpace(in.ClientID) == "":
		return missingField("clientId")
	}

	if !looksLikeEmail(in.Email) {
		return &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	return nil
}
