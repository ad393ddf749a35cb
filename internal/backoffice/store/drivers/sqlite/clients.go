package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
)

type clientsRepo struct {
	db dbtx
}

const clientColumns = `id, name, phone_number, email, password_hash, city, state, address, logo, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	var passwordHash sql.NullString
	err := row.Scan(
		&c.ID, &c.Name, &c.PhoneNumber, &c.Email, &passwordHash,
		&c.City, &c.State, &c.Address, &c.Logo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Client{}, err
	}
	c.PasswordHash = mapNullString(passwordHash)
	return c, nil
}

func (r *clientsRepo) GetClientByID(ctx context.Context, id string) (domain.Client, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)

	c, err := scanClient(row)
	if err != nil {
		return domain.Client{}, mapNotFound(err)
	}
	return c, nil
}

func (r *clientsRepo) ListClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM clients ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *clientsRepo) CreateClient(ctx context.Context, c domain.Client) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (`+clientColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.PhoneNumber, c.Email, mapStringNull(c.PasswordHash),
		c.City, c.State, c.Address, c.Logo, now, now,
	)
	return mapConflict(err)
}

func (r *clientsRepo) UpdateClient(ctx context.Context, c domain.Client) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE clients
		 SET name = ?, phone_number = ?, email = ?, city = ?, state = ?,
		     address = ?, logo = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.PhoneNumber, c.Email, c.City, c.State,
		c.Address, c.Logo, time.Now().UTC(), c.ID,
	)
	return expectOneRow(res, err)
}

func (r *clientsRepo) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	return expectOneRow(res, err)
}
