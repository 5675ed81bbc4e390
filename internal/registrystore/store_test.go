package registrystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(Config{DSN: ":memory:", Logger: zap.NewNop()})
	require.NoError(t, err)
	return NewStore(db, zap.NewNop())
}

func TestAddAccount_ListReturnsJoinedProviderMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddProvider(ctx, "local", "Local Disk", "drive-harddisk"))
	require.NoError(t, store.AddAccount(ctx, "acct-1", "svc-1", "My Files", "local"))

	got, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acct-1", got[0].ID)
	assert.Equal(t, "svc-1", got[0].ServiceID)
	assert.Equal(t, "My Files", got[0].DisplayName)
	assert.Equal(t, "local", got[0].ProviderID)
	assert.Equal(t, "Local Disk", got[0].ProviderName)
	assert.Equal(t, "drive-harddisk", got[0].IconName)
}

func TestAddAccount_DuplicateAccountIDIsConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddProvider(ctx, "local", "Local Disk", ""))
	require.NoError(t, store.AddAccount(ctx, "acct-1", "svc-1", "One", "local"))

	err := store.AddAccount(ctx, "acct-1", "svc-2", "Two", "local")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRemoveAccount_UnknownAccountIsNotFound(t *testing.T) {
	store := newTestStore(t)
	err := store.RemoveAccount(context.Background(), "no-such-account")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveAccount_DropsFromList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddProvider(ctx, "local", "Local Disk", ""))
	require.NoError(t, store.AddAccount(ctx, "acct-1", "svc-1", "One", "local"))
	require.NoError(t, store.RemoveAccount(ctx, "acct-1"))

	got, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestService_List_ReturnsStoreAccounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.AddProvider(ctx, "local", "Local Disk", ""))
	require.NoError(t, store.AddAccount(ctx, "acct-1", "svc-1", "One", "local"))

	svc := NewService(store)
	resp, err := svc.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, resp.Accounts, 1)
	assert.Equal(t, "acct-1", resp.Accounts[0].ID)
}
