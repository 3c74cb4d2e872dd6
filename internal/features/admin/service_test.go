package admin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func TestListUsers(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})
	user := testutil.SeedUser(t, store, ledger.User{})

	users, err := svc.ListUsers(ctx, adm.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, user.ID, users[0].ID)

	_, err = svc.ListUsers(ctx, user.ID)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	_, err = svc.ListUsers(ctx, 999)
	assert.Equal(t, common.KindNotFound, common.KindOf(err))
}

func TestSetBanned(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})
	user := testutil.SeedUser(t, store, ledger.User{})

	u, err := svc.SetBanned(ctx, adm.ID, user.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsBanned)
	assert.True(t, testutil.User(t, store, user.ID).IsBanned)

	// Повторная блокировка идемпотентна
	_, err = svc.SetBanned(ctx, adm.ID, user.ID, true)
	require.NoError(t, err)

	u, err = svc.SetBanned(ctx, adm.ID, user.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)

	_, err = svc.SetBanned(ctx, adm.ID, adm.ID, true)
	assert.ErrorIs(t, err, common.ErrSelfBan)

	_, err = svc.SetBanned(ctx, user.ID, adm.ID, true)
	assert.ErrorIs(t, err, common.ErrNotAdmin)

	_, err = svc.SetBanned(ctx, adm.ID, 12345, true)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestRequireAdmin_BannedAdmin(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true, IsBanned: true})

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		_, err := svc.RequireAdmin(ctx, tx, adm.ID)
		return err
	})
	assert.ErrorIs(t, err, common.ErrUserBanned)
}
