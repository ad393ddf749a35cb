package store

import (
	"context"
	"errors"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this. It exposes sub-repositories to keep concerns
// tidy and testable.
type Store interface {
	Clients() Clients
	Admins() Admins
	Agencies() Agencies
	OTPSessions() OTPSessions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClientByID returns a client by id.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClients returns all clients ordered by creation date (newest first).
	// An empty result is not an error.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateClient inserts a new client (id is provided by app via ULID).
	// Returns ErrAlreadyExists when phone_number or email collides.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClient overwrites the mutable fields of a client and bumps
	// updated_at. Returns ErrNotFound if the id is absent.
	UpdateClient(ctx context.Context, c domain.Client) error

	// DeleteClient removes a client. Admins referencing it are left in place.
	DeleteClient(ctx context.Context, id string) error
}

type Admins interface {
	GetAdminByID(ctx context.Context, id string) (domain.Admin, error)

	// ListAdmins returns all admins, filtered by clientID when it is non-empty.
	ListAdmins(ctx context.Context, clientID string) ([]domain.Admin, error)

	CreateAdmin(ctx context.Context, a domain.Admin) error

	UpdateAdmin(ctx context.Context, a domain.Admin) error

	DeleteAdmin(ctx context.Context, id string) error
}

type Agencies interface {
	GetAgencyByID(ctx context.Context, id string) (domain.Agency, error)

	ListAgencies(ctx context.Context) ([]domain.Agency, error)

	// CreateAgency inserts a new agency. The clients reference list is stored
	// as-is; no existence check is performed on its entries.
	CreateAgency(ctx context.Context, a domain.Agency) error

	UpdateAgency(ctx context.Context, a domain.Agency) error

	DeleteAgency(ctx context.Context, id string) error
}

type OTPSessions interface {
	// CreateOTPSession stores a freshly issued verification session.
	CreateOTPSession(ctx context.Context, s domain.OTPSession) error

	// GetOTPSessionByFingerprint fetches a session by its token fingerprint.
	GetOTPSessionByFingerprint(ctx context.Context, fingerprint string) (domain.OTPSession, error)

	// IncrementOTPSessionAttempts bumps the failed attempt counter and
	// returns the updated session.
	IncrementOTPSessionAttempts(ctx context.Context, id string) (domain.OTPSession, error)

	// MarkOTPSessionVerified sets verified_at for the session.
	MarkOTPSessionVerified(ctx context.Context, id string, at time.Time) error

	// DeleteOTPSession removes a session by id.
	DeleteOTPSession(ctx context.Context, id string) error

	// DeleteOTPSessionsByEmail removes all sessions issued for an email.
	// Re-issuing for an email invalidates any outstanding code.
	DeleteOTPSessionsByEmail(ctx context.Context, email string) error

	// DeleteExpiredOTPSessions removes all expired sessions (housekeeping).
	DeleteExpiredOTPSessions(ctx context.Context) error
}
