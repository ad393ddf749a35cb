package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAdminInput(clientID string) CreateAdminInput {
	return CreateAdminInput{
		FirstName:   "Jordan",
		LastName:    "Lee",
		Email:       "jordan@acme.example",
		PhoneNumber: "+61 400 100 001",
		ClientID:    clientID,
	}
}

func TestAdminLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	clients := &ClientService{Store: st}
	svc := &AdminService{Store: st}

	owner, err := clients.CreateClient(ctx, testClientInput())
	require.NoError(t, err)

	created, err := svc.CreateAdmin(ctx, testAdminInput(owner.ID))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.Equal(t, owner.ID, created.ClientID)

	t.Run("get returns the stored record", func(t *testing.T) {
		got, err := svc.GetAdmin(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created, got)
	})

	t.Run("update applies only the provided fields", func(t *testing.T) {
		phone := "+61 400 100 999"
		updated, err := svc.UpdateAdmin(ctx, created.ID, UpdateAdminInput{PhoneNumber: &phone})
		require.NoError(t, err)
		require.Equal(t, phone, updated.PhoneNumber)
		require.Equal(t, created.FirstName, updated.FirstName)
	})

	t.Run("delete returns the record then forgets it", func(t *testing.T) {
		deleted, err := svc.DeleteAdmin(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.ID, deleted.ID)

		_, err = svc.GetAdmin(ctx, created.ID)
		require.ErrorIs(t, err, ErrAdminNotFound)
	})
}

func TestCreateAdminRequiresExistingClient(t *testing.T) {
	ctx := context.Background()
	svc := &AdminService{Store: newTestStore(t)}

	_, err := svc.CreateAdmin(ctx, testAdminInput("no-such-client"))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "clientId", verr.Field)
}

func TestListAdminsFiltersByClient(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	clients := &ClientService{Store: st}
	svc := &AdminService{Store: st}

	first, err := clients.CreateClient(ctx, testClientInput())
	require.NoError(t, err)

	other := testClientInput()
	other.Email = "second@acme.example"
	other.PhoneNumber = "+61 400 000 002"
	second, err := clients.CreateClient(ctx, other)
	require.NoError(t, err)

	a := testAdminInput(first.ID)
	_, err = svc.CreateAdmin(ctx, a)
	require.NoError(t, err)

	b := testAdminInput(second.ID)
	b.Email = "sam@acme.example"
	_, err = svc.CreateAdmin(ctx, b)
	require.NoError(t, err)

	t.Run("unfiltered list returns every admin", func(t *testing.T) {
		all, err := svc.ListAdmins(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
	})

	t.Run("filtered list is scoped to the client", func(t *testing.T) {
		scoped, err := svc.ListAdmins(ctx, first.ID)
		require.NoError(t, err)
		require.Len(t, scoped, 1)
		require.Equal(t, first.ID, scoped[0].ClientID)
	})
}
