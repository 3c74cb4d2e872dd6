package tasks

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func newTestService(t *testing.T) (*Service, ledger.Store) {
	t.Helper()
	store := testutil.NewStore()
	cfg := testutil.Config()
	return NewService(store, wallet.NewService(store, cfg), cfg), store
}

func validInput() CreateInput {
	return CreateInput{
		Name:         "Follow page",
		Description:  "Follow and screenshot",
		Link:         "https://example.com/page",
		PricePerUser: 100,
		TotalSlots:   5,
	}
}

func TestCreate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: 600})

	task, err := svc.Create(ctx, owner.ID, validInput())
	require.NoError(t, err)
	assert.True(t, task.IsActive)
	assert.Zero(t, task.FilledSlots)
	assert.Equal(t, 5, task.TotalSlots)

	assert.Equal(t, int64(100), testutil.User(t, store, owner.ID).WalletBalance)

	txs := testutil.Transactions(t, store, owner.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.TxTaskDebit, txs[0].Type)
	assert.Equal(t, ledger.TxCompleted, txs[0].Status)
	assert.Equal(t, int64(500), txs[0].Amount)
}

func TestCreate_InsufficientFundsCreatesNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: 499})

	_, err := svc.Create(ctx, owner.ID, validInput())
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)
	assert.Equal(t, common.KindInsufficientFunds, common.KindOf(err))

	assert.Equal(t, int64(499), testutil.User(t, store, owner.ID).WalletBalance)
	assert.Empty(t, testutil.Transactions(t, store, owner.ID))
	mine, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCreate_Validation(t *testing.T) {
	svc, store := newTestService(t)
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: math.MaxInt64})

	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		want   error
	}{
		{"empty name", func(in *CreateInput) { in.Name = "  " }, common.ErrMissingField},
		{"empty link", func(in *CreateInput) { in.Link = "" }, common.ErrMissingField},
		{"zero price", func(in *CreateInput) { in.PricePerUser = 0 }, common.ErrInvalidAmount},
		{"cheap", func(in *CreateInput) { in.PricePerUser = 99 }, common.ErrPriceTooLow},
		{"no slots", func(in *CreateInput) { in.TotalSlots = 0 }, common.ErrInvalidSlots},
		{"overflow", func(in *CreateInput) { in.PricePerUser = math.MaxInt64 / 2; in.TotalSlots = 3 }, common.ErrAmountOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), owner.ID, in)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, common.KindValidation, common.KindOf(err))
		})
	}
	assert.Empty(t, testutil.Transactions(t, store, owner.ID))
}

func TestCreate_BannedOwner(t *testing.T) {
	svc, store := newTestService(t)
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: 1000, IsBanned: true})

	_, err := svc.Create(context.Background(), owner.ID, validInput())
	assert.ErrorIs(t, err, common.ErrUserBanned)
}

func fill(t *testing.T, svc *Service, store ledger.Store, taskID int64) (*ledger.Task, error) {
	t.Helper()
	var task *ledger.Task
	ctx := context.Background()
	err := store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		task, err = svc.FillSlot(ctx, tx, taskID)
		return err
	})
	return task, err
}

func TestFillSlot(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: 200})

	in := validInput()
	in.TotalSlots = 2
	task, err := svc.Create(ctx, owner.ID, in)
	require.NoError(t, err)

	got, err := fill(t, svc, store, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.FilledSlots)
	assert.True(t, got.IsActive)

	got, err = fill(t, svc, store, task.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FilledSlots)
	assert.False(t, got.IsActive, "последний слот деактивирует задание")

	// Заполненное задание отвечает TaskFull, а не TaskInactive
	_, err = fill(t, svc, store, task.ID)
	assert.ErrorIs(t, err, common.ErrTaskFull)
	assert.Equal(t, 2, testutil.Task(t, store, task.ID).FilledSlots)

	_, err = fill(t, svc, store, 999)
	assert.ErrorIs(t, err, common.ErrTaskNotFound)
}

func TestDeactivate(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{WalletBalance: 1000})
	stranger := testutil.SeedUser(t, store, ledger.User{})
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})

	first, err := svc.Create(ctx, owner.ID, validInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, owner.ID, validInput())
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, stranger.ID, first.ID)
	assert.ErrorIs(t, err, common.ErrNotTaskOwner)

	got, err := svc.Deactivate(ctx, owner.ID, first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	_, err = svc.Deactivate(ctx, owner.ID, first.ID)
	assert.ErrorIs(t, err, common.ErrTaskInactive)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))

	_, err = svc.Deactivate(ctx, adm.ID, second.ID)
	require.NoError(t, err)

	// Остаток не возвращается
	assert.Zero(t, testutil.User(t, store, owner.ID).WalletBalance)

	_, err = fill(t, svc, store, first.ID)
	assert.ErrorIs(t, err, common.ErrTaskInactive)
}

func TestReads(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, store, ledger.User{Email: "owner@example.com", WalletBalance: 1000})
	stranger := testutil.SeedUser(t, store, ledger.User{})
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})

	older, err := svc.Create(ctx, owner.ID, validInput())
	require.NoError(t, err)
	newer, err := svc.Create(ctx, owner.ID, validInput())
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, owner.ID, older.ID)
	require.NoError(t, err)

	avail, err := svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, avail, 1)
	assert.Equal(t, newer.ID, avail[0].Task.ID)
	assert.Equal(t, "own***@example.com", avail[0].OwnerEmail)

	emails := []struct {
		name   string
		caller int64
		want   string
	}{
		{"stranger", stranger.ID, "own***@example.com"},
		{"owner", owner.ID, "owner@example.com"},
		{"admin", adm.ID, "owner@example.com"},
	}
	for _, tt := range emails {
		t.Run(tt.name, func(t *testing.T) {
			v, err := svc.Get(ctx, tt.caller, older.ID)
			require.NoError(t, err)
			assert.False(t, v.Task.IsActive)
			assert.Equal(t, tt.want, v.OwnerEmail)
		})
	}

	_, err = svc.Get(ctx, stranger.ID, 777)
	assert.ErrorIs(t, err, common.ErrTaskNotFound)

	mine, err := svc.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID)
}
