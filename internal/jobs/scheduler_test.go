package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/features/admin"
	"serotonyl.ru/taskmarket/internal/features/moderation"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func newTestScheduler(t *testing.T) (*Scheduler, *moderation.Service, ledger.Store) {
	t.Helper()
	store := testutil.NewStore()
	cfg := testutil.Config()
	w := wallet.NewService(store, cfg)
	n := notifications.NewService(store)
	m := moderation.NewService(store, w, admin.NewService(store), referrals.NewService(store, w, n, cfg), n, cfg)
	return NewScheduler(store, m, n, cfg), m, store
}

func TestDigestMessage(t *testing.T) {
	assert.Equal(t, "1 deposit and 2 withdrawals are awaiting review.", DigestMessage(1, 2))
	assert.Equal(t, "3 deposits and 0 withdrawals are awaiting review.", DigestMessage(3, 0))
}

func TestRunDigest(t *testing.T) {
	s, m, store := newTestScheduler(t)
	ctx := context.Background()
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})
	retired := testutil.SeedUser(t, store, ledger.User{IsAdmin: true, IsBanned: true})
	user := testutil.SeedUser(t, store, ledger.User{WithdrawableBalance: 500})

	// Пустая очередь — без уведомлений
	d, w, err := s.RunDigest(ctx)
	require.NoError(t, err)
	assert.Zero(t, d+w)
	assert.Empty(t, testutil.Notifications(t, store, adm.ID))

	_, err = m.RequestDeposit(ctx, user.ID, moderation.DepositRequest{Amount: 500, PaymentName: "Ada"})
	require.NoError(t, err)
	_, err = m.RequestWithdrawal(ctx, user.ID, moderation.WithdrawalRequest{Amount: 100, Network: "MTN", PhoneNumber: "08012345678"})
	require.NoError(t, err)
	_, err = m.RequestWithdrawal(ctx, user.ID, moderation.WithdrawalRequest{Amount: 100, Network: "Glo", PhoneNumber: "08012345678"})
	require.NoError(t, err)

	before := testutil.TotalMoney(t, store)
	d, w, err = s.RunDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, d)
	assert.Equal(t, 2, w)
	assert.Equal(t, before, testutil.TotalMoney(t, store))

	notes := testutil.Notifications(t, store, adm.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "1 deposit and 2 withdrawals are awaiting review.", notes[0].Message)
	assert.Empty(t, testutil.Notifications(t, store, retired.ID))
	assert.Empty(t, testutil.Notifications(t, store, user.ID))
}

func TestStart_InvalidSchedule(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	s.cfg.DigestSchedule = "every tuesday"
	require.Error(t, s.Start(context.Background()))
}
