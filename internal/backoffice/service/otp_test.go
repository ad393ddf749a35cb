package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/estatehq/backoffice/internal/backoffice/domain"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/pkg/cryptox"
	"github.com/estatehq/backoffice/pkg/idx"
	"github.com/stretchr/testify/require"
)

type fakeDispatcher struct {
	email string
	code  string
	calls int
	err   error
}

func (f *fakeDispatcher) SendCode(_ context.Context, email, code string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.email = email
	f.code = code
	return nil
}

func TestIssueVerifyConsume(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: newTestStore(t), Mailer: mailer}

	issue, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, issue.Token)
	require.True(t, issue.ExpiresAt.After(time.Now()))

	require.Equal(t, 1, mailer.calls)
	require.Equal(t, "buyer@example.com", mailer.email)
	require.Len(t, mailer.code, 6)

	t.Run("wrong code is rejected but retryable", func(t *testing.T) {
		err := svc.Verify(ctx, issue.Token, "000000")
		if mailer.code == "000000" {
			t.Skip("generated code collided with the deliberately wrong guess")
		}
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("correct code verifies the session", func(t *testing.T) {
		require.NoError(t, svc.Verify(ctx, issue.Token, mailer.code))
	})

	t.Run("a verified code cannot be verified twice", func(t *testing.T) {
		err := svc.Verify(ctx, issue.Token, mailer.code)
		require.ErrorIs(t, err, ErrAlreadyVerified)
	})

	t.Run("consume requires the matching email", func(t *testing.T) {
		err := svc.Consume(ctx, issue.Token, "someone-else@example.com")
		require.ErrorIs(t, err, ErrNotVerified)
	})

	t.Run("consume is single use", func(t *testing.T) {
		require.NoError(t, svc.Consume(ctx, issue.Token, "buyer@example.com"))

		err := svc.Consume(ctx, issue.Token, "buyer@example.com")
		require.ErrorIs(t, err, ErrNotVerified)
	})
}

func TestIssueValidation(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: newTestStore(t), Mailer: mailer}

	_, err := svc.Issue(ctx, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.Issue(ctx, "not-an-address")
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Field)

	require.Zero(t, mailer.calls)
}

func TestIssueReplacesOutstandingSession(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: newTestStore(t), Mailer: mailer}

	first, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)
	firstCode := mailer.code

	second, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	t.Run("old token is dead", func(t *testing.T) {
		err := svc.Verify(ctx, first.Token, firstCode)
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("new token still works", func(t *testing.T) {
		require.NoError(t, svc.Verify(ctx, second.Token, mailer.code))
	})
}

func TestIssueCompensatesOnDispatchFailure(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	boom := errors.New("mail relay unreachable")
	svc := &OTPService{Store: st, Mailer: &fakeDispatcher{err: boom}}

	_, err := svc.Issue(ctx, "buyer@example.com")
	require.ErrorIs(t, err, boom)

	// No redeemable session may survive a failed dispatch: once the relay
	// recovers the email can be gated again from a clean slate.
	mailer := &fakeDispatcher{}
	svc.Mailer = mailer
	issue, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Verify(ctx, issue.Token, mailer.code))
}

func TestVerifyLockout(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: newTestStore(t), Mailer: mailer}

	issue, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)

	wrong := "000000"
	if mailer.code == wrong {
		wrong = "000001"
	}

	for range maxVerifyAttempts - 1 {
		require.ErrorIs(t, svc.Verify(ctx, issue.Token, wrong), ErrInvalidCode)
	}
	require.ErrorIs(t, svc.Verify(ctx, issue.Token, wrong), ErrTooManyAttempts)

	t.Run("even the right code is refused after lockout", func(t *testing.T) {
		require.ErrorIs(t, svc.Verify(ctx, issue.Token, mailer.code), ErrTooManyAttempts)
	})
}

func TestExpiredSessionIsGone(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	svc := &OTPService{Store: st, Mailer: &fakeDispatcher{}}

	token, err := cryptox.GenerateToken(cryptox.TokenSize128)
	require.NoError(t, err)
	codeHash, err := cryptox.HashCode("123456")
	require.NoError(t, err)

	session := domain.OTPSession{
		ID:               idx.New().String(),
		TokenFingerprint: cryptox.FingerprintToken(token),
		Email:            "buyer@example.com",
		CodeHash:         codeHash,
		ExpiresAt:        time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, st.OTPSessions().CreateOTPSession(ctx, session))

	require.ErrorIs(t, svc.Verify(ctx, token, "123456"), ErrSessionNotFound)
	require.ErrorIs(t, svc.Consume(ctx, token, "buyer@example.com"), ErrNotVerified)
}

func TestCheckDoesNotSpendSession(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: newTestStore(t), Mailer: mailer}

	issue, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)

	t.Run("unverified session fails the check", func(t *testing.T) {
		require.ErrorIs(t, svc.Check(ctx, issue.Token, "buyer@example.com"), ErrNotVerified)
	})

	require.NoError(t, svc.Verify(ctx, issue.Token, mailer.code))

	t.Run("repeated checks leave the session alive", func(t *testing.T) {
		require.NoError(t, svc.Check(ctx, issue.Token, "buyer@example.com"))
		require.NoError(t, svc.Check(ctx, issue.Token, "buyer@example.com"))
	})

	t.Run("check enforces the email binding", func(t *testing.T) {
		require.ErrorIs(t, svc.Check(ctx, issue.Token, "someone-else@example.com"), ErrNotVerified)
	})

	t.Run("consume still works after checking", func(t *testing.T) {
		require.NoError(t, svc.Consume(ctx, issue.Token, "buyer@example.com"))
	})

	t.Run("a spent session fails both check and consume", func(t *testing.T) {
		require.ErrorIs(t, svc.Check(ctx, issue.Token, "buyer@example.com"), ErrNotVerified)
		require.ErrorIs(t, svc.Consume(ctx, issue.Token, "buyer@example.com"), ErrNotVerified)
	})
}

// vanishingSessions reports every delete as gone, as if another request
// spent the session first.
type vanishingSessions struct {
	store.OTPSessions
}

func (v vanishingSessions) DeleteOTPSession(ctx context.Context, id string) error {
	if err := v.OTPSessions.DeleteOTPSession(ctx, id); err != nil {
		return err
	}
	return store.ErrNotFound
}

type vanishingStore struct {
	store.Store
}

func (v vanishingStore) OTPSessions() store.OTPSessions {
	return vanishingSessions{v.Store.OTPSessions()}
}

func TestConsumeLosingTheSpendRace(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeDispatcher{}
	svc := &OTPService{Store: vanishingStore{newTestStore(t)}, Mailer: mailer}

	issue, err := svc.Issue(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.NoError(t, svc.Verify(ctx, issue.Token, mailer.code))

	require.ErrorIs(t, svc.Consume(ctx, issue.Token, "buyer@example.com"), ErrNotVerified)
}

func TestConsumeWithoutToken(t *testing.T) {
	ctx := context.Background()
	svc := &OTPService{Store: newTestStore(t), Mailer: &fakeDispatcher{}}

	require.ErrorIs(t, svc.Consume(ctx, "", "buyer@example.com"), ErrNotVerified)
	require.ErrorIs(t, svc.Consume(ctx, "bogus-token", "buyer@example.com"), ErrNotVerified)
}
