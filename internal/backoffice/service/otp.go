package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/pkg/cryptox"
	"github.com/estatehq/backoffice/pkg/idx"
	"github.com/estatehq/backoffice/pkg/slogx"
)

const (
	codeDigits = 6

	// DefaultSessionTTL bounds the validity window of an issued code.
	DefaultSessionTTL = 5 * time.Minute

	// maxVerifyAttempts locks a session after this many failed code checks.
	maxVerifyAttempts = 5
)

var (
	ErrSessionNotFound = errors.New("verification session not found or expired")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many failed verification attempts")
	ErrAlreadyVerified = errors.New("verification code already used")
	ErrNotVerified     = errors.New("email has not been verified")
)

// Dispatcher delivers a verification code out-of-band. Implemented by
// notify.Mailer.
type Dispatcher interface {
	SendCode(ctx context.Context, email, code string) error
}

// OTPService owns the server-held verification sessions. The caller only
// ever holds the opaque session token; the code itself is delivered by the
// Dispatcher and stored argon2id-hashed.
type OTPService struct {
	Store  store.Store
	Mailer Dispatcher
	TTL    time.Duration
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultSessionTTL
}

// Issue generates a fresh 6-digit code for the email, persists the session
// and dispatches exactly one notification. Any outstanding session for the
// same email is invalidated first, so re-requesting (or editing the email
// on the form) always resets the gate. On dispatch failure the session is
// removed again and the caller may simply re-request.
func (s *OTPService) Issue(ctx context.Context, email string) (domain.OTPIssue, error) {
	l := slogx.FromContext(ctx)

	email = normalizeEmail(email)
	if email == "" {
		return domain.OTPIssue{}, missingField("email")
	}
	if !looksLikeEmail(email) {
		return domain.OTPIssue{}, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}

	code, err := cryptox.GenerateNumericCode(codeDigits)
	if err != nil {
		return domain.OTPIssue{}, fmt.Errorf("failed to generate code: %w", err)
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.OTPIssue{}, fmt.Errorf("failed to generate session token: %w", err)
	}

	codeHash, err := cryptox.HashCode(code)
	if err != nil {
		return domain.OTPIssue{}, fmt.Errorf("failed to hash code: %w", err)
	}

	session := domain.OTPSession{
		ID:               idx.New().String(),
		TokenFingerprint: cryptox.FingerprintToken(token),
		Email:            email,
		CodeHash:         codeHash,
		ExpiresAt:        time.Now().UTC().Add(s.ttl()),
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.OTPSessions().DeleteOTPSessionsByEmail(ctx, email); err != nil {
			return fmt.Errorf("failed to invalidate outstanding sessions: %w", err)
		}
		return tx.OTPSessions().CreateOTPSession(ctx, session)
	})
	if err != nil {
		l.Error("failed to store verification session", "error", err)
		return domain.OTPIssue{}, err
	}

	if err := s.Mailer.SendCode(ctx, email, code); err != nil {
		// Compensate: an undeliverable code must not stay redeemable.
		if delErr := s.Store.OTPSessions().DeleteOTPSession(ctx, session.ID); delErr != nil {
			l.Error("failed to remove session after dispatch failure", "error", delErr)
		}
		l.Warn("code dispatch failed", "error", err)
		return domain.OTPIssue{}, err
	}

	l.Info("verification code dispatched", "session_id", session.ID)
	return domain.OTPIssue{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Verify checks a submitted code against the session identified by its
// opaque token. A correct code marks the session verified; a wrong one
// counts an attempt and may be retried until the lockout threshold.
func (s *OTPService) Verify(ctx context.Context, token, code string) error {
	l := slogx.FromContext(ctx)

	session, err := s.lookup(ctx, token)
	if err != nil {
		return err
	}

	if session.Verified() {
		return ErrAlreadyVerified
	}
	if session.Attempts >= maxVerifyAttempts {
		return ErrTooManyAttempts
	}

	if err := cryptox.VerifyCode(code, session.CodeHash); err != nil {
		if !errors.Is(err, cryptox.ErrCodeMismatch) {
			return err
		}

		updated, incErr := s.Store.OTPSessions().IncrementOTPSessionAttempts(ctx, session.ID)
		if incErr != nil {
			return incErr
		}
		if updated.Attempts >= maxVerifyAttempts {
			l.Warn("verification session locked", "session_id", session.ID)
			return ErrTooManyAttempts
		}
		return ErrInvalidCode
	}

	if err := s.Store.OTPSessions().MarkOTPSessionVerified(ctx, session.ID, time.Now().UTC()); err != nil {
		return err
	}

	l.Info("email verified", "session_id", session.ID)
	return nil
}

// Check reports whether the token holds a verified, unexpired session
// bound to the email. It never spends the session: a form submission that
// fails for unrelated reasons (missing field, duplicate email) stays
// verified and can simply be retried with the same token.
func (s *OTPService) Check(ctx context.Context, token, email string) error {
	_, err := s.verifiedSession(ctx, token, email)
	return err
}

// Consume redeems a verified session once a record has actually been
// created, destroying it (single use). Losing a race with a concurrent
// submission that spent the same session first reports ErrNotVerified.
func (s *OTPService) Consume(ctx context.Context, token, email string) error {
	session, err := s.verifiedSession(ctx, token, email)
	if err != nil {
		return err
	}

	if err := s.Store.OTPSessions().DeleteOTPSession(ctx, session.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotVerified
		}
		return err
	}
	return nil
}

// verifiedSession resolves the token to a session that is verified,
// unexpired and bound to the given email.
func (s *OTPService) verifiedSession(ctx context.Context, token, email string) (domain.OTPSession, error) {
	if token == "" {
		return domain.OTPSession{}, ErrNotVerified
	}

	session, err := s.lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return domain.OTPSession{}, ErrNotVerified
		}
		return domain.OTPSession{}, err
	}

	if !session.Verified() || session.Email != normalizeEmail(email) {
		return domain.OTPSession{}, ErrNotVerified
	}

	return session, nil
}

// lookup resolves the token to a live session, lazily deleting it when the
// validity window has passed.
func (s *OTPService) lookup(ctx context.Context, token string) (domain.OTPSession, error) {
	fingerprint := cryptox.FingerprintToken(token)

	session, err := s.Store.OTPSessions().GetOTPSessionByFingerprint(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OTPSession{}, ErrSessionNotFound
		}
		return domain.OTPSession{}, err
	}

	if session.Expired(time.Now().UTC()) {
		_ = s.Store.OTPSessions().DeleteOTPSession(ctx, session.ID)
		return domain.OTPSession{}, ErrSessionNotFound
	}

	return session, nil
}
