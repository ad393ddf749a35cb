package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
)

type agenciesRepo struct {
	db dbtx
}

const agencyColumns = `id, name, phone_number, email, password_hash, address, logo, clients, created_at, updated_at`

func scanAgency(row interface{ Scan(...any) error }) (domain.Agency, error) {
	var a domain.Agency
	var passwordHash sql.NullString
	var clients string
	err := row.Scan(
		&a.ID, &a.Name, &a.PhoneNumber, &a.Email, &passwordHash,
		&a.Address, &a.Logo, &clients, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Agency{}, err
	}
	a.PasswordHash = mapNullString(passwordHash)
	a.Clients = splitRefs(clients)
	return a, nil
}

func (r *agenciesRepo) GetAgencyByID(ctx context.Context, id string) (domain.Agency, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agencyColumns+` FROM agencies WHERE id = ?`, id)

	a, err := scanAgency(row)
	if err != nil {
		return domain.Agency{}, mapNotFound(err)
	}
	return a, nil
}

func (r *agenciesRepo) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+agencyColumns+` FROM agencies ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agencies := make([]domain.Agency, 0)
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, err
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

func (r *agenciesRepo) CreateAgency(ctx context.Context, a domain.Agency) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO agencies (`+agencyColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.PhoneNumber, a.Email, mapStringNull(a.PasswordHash),
		a.Address, a.Logo, joinRefs(a.Clients), now, now,
	)
	return mapConflict(err)
}

func (r *agenciesRepo) UpdateAgency(ctx context.Context, a domain.Agency) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE agencies
		 SET name = ?, phone_number = ?, email = ?, address = ?, logo = ?,
		     clients = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, a.PhoneNumber, a.Email, a.Address, a.Logo,
		joinRefs(a.Clients), time.Now().UTC(), a.ID,
	)
	return expectOneRow(res, err)
}

func (r *agenciesRepo) DeleteAgency(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM agencies WHERE id = ?`, id)
	return expectOneRow(res, err)
}
