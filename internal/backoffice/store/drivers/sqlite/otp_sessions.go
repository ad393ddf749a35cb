package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
)

type otpSessionsRepo struct {
	db dbtx
}

const otpSessionColumns = `id, token_fingerprint, email, code_hash, attempts, verified_at, expires_at, created_at`

func scanOTPSession(row interface{ Scan(...any) error }) (domain.OTPSession, error) {
	var s domain.OTPSession
	var verifiedAt sql.NullTime
	err := row.Scan(
		&s.ID, &s.TokenFingerprint, &s.Email, &s.CodeHash,
		&s.Attempts, &verifiedAt, &s.ExpiresAt, &s.CreatedAt,
	)
	if err != nil {
		return domain.OTPSession{}, err
	}
	s.VerifiedAt = mapNullTimePtr(verifiedAt)
	return s, nil
}

func (r *otpSessionsRepo) CreateOTPSession(ctx context.Context, s domain.OTPSession) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_sessions (`+otpSessionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TokenFingerprint, s.Email, s.CodeHash,
		s.Attempts, nil, s.ExpiresAt.UTC(), time.Now().UTC(),
	)
	return mapConflict(err)
}

func (r *otpSessionsRepo) GetOTPSessionByFingerprint(ctx context.Context, fingerprint string) (domain.OTPSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+otpSessionColumns+` FROM otp_sessions WHERE token_fingerprint = ?`,
		fingerprint)

	s, err := scanOTPSession(row)
	if err != nil {
		return domain.OTPSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *otpSessionsRepo) IncrementOTPSessionAttempts(ctx context.Context, id string) (domain.OTPSession, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_sessions SET attempts = attempts + 1 WHERE id = ?`, id)
	if err := expectOneRow(res, err); err != nil {
		return domain.OTPSession{}, err
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT `+otpSessionColumns+` FROM otp_sessions WHERE id = ?`, id)
	s, err := scanOTPSession(row)
	if err != nil {
		return domain.OTPSession{}, mapNotFound(err)
	}
	return s, nil
}

func (r *otpSessionsRepo) MarkOTPSessionVerified(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_sessions SET verified_at = ? WHERE id = ?`, at.UTC(), id)
	return expectOneRow(res, err)
}

func (r *otpSessionsRepo) DeleteOTPSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM otp_sessions WHERE id = ?`, id)
	return expectOneRow(res, err)
}

func (r *otpSessionsRepo) DeleteOTPSessionsByEmail(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_sessions WHERE email = ?`, email)
	return err
}

func (r *otpSessionsRepo) DeleteExpiredOTPSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_sessions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
