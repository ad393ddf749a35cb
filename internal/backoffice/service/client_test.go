package service

import (
	"context"
	"testing"

	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/internal/backoffice/store/drivers/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func testClientInput() CreateClientInput {
	return CreateClientInput{
		Name:        "Acme Realty",
		PhoneNumber: "+61 400 000 001",
		Email:       "contact@acme.example",
		City:        "Brisbane",
		State:       "QLD",
		Address:     "1 Example Street",
		Logo:        "https://cdn.example/acme.png",
	}
}

func TestClientLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := &ClientService{Store: newTestStore(t)}

	created, err := svc.CreateClient(ctx, testClientInput())
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())

	t.Run("get returns the stored record", func(t *testing.T) {
		got, err := svc.GetClient(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created, got)
	})

	t.Run("no credential material is ever persisted", func(t *testing.T) {
		got, err := svc.GetClient(ctx, created.ID)
		require.NoError(t, err)
		require.Empty(t, got.PasswordHash)
	})

	t.Run("list includes the record", func(t *testing.T) {
		all, err := svc.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Equal(t, created.ID, all[0].ID)
	})

	t.Run("update applies only the provided fields", func(t *testing.T) {
		city := "Sydney"
		updated, err := svc.UpdateClient(ctx, created.ID, UpdateClientInput{City: &city})
		require.NoError(t, err)
		require.Equal(t, "Sydney", updated.City)
		require.Equal(t, created.Name, updated.Name)
		require.Equal(t, created.Email, updated.Email)
	})

	t.Run("delete returns the record then forgets it", func(t *testing.T) {
		deleted, err := svc.DeleteClient(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, deleted.ID)

		_, err = svc.GetClient(ctx, created.ID)
		require.ErrorIs(t, err, ErrClientNotFound)
	})
}

func TestCreateClientValidation(t *testing.T) {
	ctx := context.Background()
	svc := &ClientService{Store: newTestStore(t)}

	t.Run("rejects missing name", func(t *testing.T) {
		in := testClientInput()
		in.Name = ""
		_, err := svc.CreateClient(ctx, in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "name", verr.Field)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		in := testClientInput()
		in.Email = "not-an-address"
		_, err := svc.CreateClient(ctx, in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, "email", verr.Field)
	})

	t.Run("normalizes email casing", func(t *testing.T) {
		in := testClientInput()
		in.Email = "  MIXED@Case.Example "
		created, err := svc.CreateClient(ctx, in)
		require.NoError(t, err)
		require.Equal(t, "mixed@case.example", created.Email)
	})
}

func TestCreateClientDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := &ClientService{Store: newTestStore(t)}

	_, err := svc.CreateClient(ctx, testClientInput())
	require.NoError(t, err)

	dup := testClientInput()
	dup.PhoneNumber = "+61 400 000 002"
	_, err = svc.CreateClient(ctx, dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestClientNotFound(t *testing.T) {
	ctx := context.Background()
	svc := &ClientService{Store: newTestStore(t)}

	_, err := svc.GetClient(ctx, "missing")
	require.ErrorIs(t, err, ErrClientNotFound)

	name := "whatever"
	_, err = svc.UpdateClient(ctx, "missing", UpdateClientInput{Name: &name})
	require.ErrorIs(t, err, ErrClientNotFound)

	_, err = svc.DeleteClient(ctx, "missing")
	require.ErrorIs(t, err, ErrClientNotFound)
}
