package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func notify(t *testing.T, svc *Service, store ledger.Store, userID int64, msgs ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.InTx(ctx, func(tx ledger.Tx) error {
		for _, m := range msgs {
			if err := svc.Notify(ctx, tx, userID, m); err != nil {
				return err
			}
		}
		return nil
	}))
}

func TestListAndUnread(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})

	notify(t, svc, store, u.ID, "first", "second", "third")

	list, err := svc.List(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, "first", list[2].Message)

	n, err := svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, svc.MarkRead(ctx, u.ID, list[1].ID))
	// Повторная отметка ничего не ломает
	require.NoError(t, svc.MarkRead(ctx, u.ID, list[1].ID))

	n, _ = svc.UnreadCount(ctx, u.ID)
	assert.Equal(t, 2, n)

	marked, err := svc.MarkAllRead(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, marked)

	n, _ = svc.UnreadCount(ctx, u.ID)
	assert.Zero(t, n)
}

func TestMarkRead_Errors(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{})
	other := testutil.SeedUser(t, store, ledger.User{})

	notify(t, svc, store, owner.ID, "hello")
	list, _ := svc.List(ctx, owner.ID)

	err := svc.MarkRead(ctx, other.ID, list[0].ID)
	assert.Equal(t, common.KindUnauthorized, common.KindOf(err))

	err = svc.MarkRead(ctx, owner.ID, 9999)
	assert.ErrorIs(t, err, common.ErrNotificationNotFound)
}

func TestNotify_RolledBackWithCaller(t *testing.T) {
	store := testutil.NewStore()
	svc := NewService(store)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})

	err := store.InTx(ctx, func(tx ledger.Tx) error {
		if err := svc.Notify(ctx, tx, u.ID, "lost"); err != nil {
			return err
		}
		return errors.New("caller failed")
	})
	require.Error(t, err)

	n, err := svc.UnreadCount(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReads_UnknownUser(t *testing.T) {
	svc := NewService(testutil.NewStore())
	ctx := context.Background()

	_, err := svc.List(ctx, 1)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	_, err = svc.UnreadCount(ctx, 1)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
	_, err = svc.MarkAllRead(ctx, 1)
	assert.ErrorIs(t, err, common.ErrUserNotFound)
}
