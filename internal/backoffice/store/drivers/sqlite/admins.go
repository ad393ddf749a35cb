package sqlite

import (
	"context"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
)

type adminsRepo struct {
	db dbtx
}

const adminColumns = `id, first_name, last_name, email, phone_number, client_id, created_at, updated_at`

func scanAdmin(row interface{ Scan(...any) error }) (domain.Admin, error) {
	var a domain.Admin
	err := row.Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email,
		&a.PhoneNumber, &a.ClientID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return domain.Admin{}, err
	}
	return a, nil
}

func (r *adminsRepo) GetAdminByID(ctx context.Context, id string) (domain.Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM admins WHERE id = ?`, id)

	a, err := scanAdmin(row)
	if err != nil {
		return domain.Admin{}, mapNotFound(err)
	}
	return a, nil
}

func (r *adminsRepo) ListAdmins(ctx context.Context, clientID string) ([]domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins`
	args := []any{}
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	admins := make([]domain.Admin, 0)
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

func (r *adminsRepo) CreateAdmin(ctx context.Context, a domain.Admin) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (`+adminColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FirstName, a.LastName, a.Email, a.PhoneNumber, a.ClientID, now, now,
	)
	return mapConflict(err)
}

func (r *adminsRepo) UpdateAdmin(ctx context.Context, a domain.Admin) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE admins
		 SET first_name = ?, last_name = ?, email = ?, phone_number = ?,
		     client_id = ?, updated_at = ?
		 WHERE id = ?`,
		a.FirstName, a.LastName, a.Email, a.PhoneNumber,
		a.ClientID, time.Now().UTC(), a.ID,
	)
	return expectOneRow(res, err)
}

func (r *adminsRepo) DeleteAdmin(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	return expectOneRow(res, err)
}
