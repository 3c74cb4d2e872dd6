package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/features/admin"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/testutil"
)

func newTestService(t *testing.T) (*Service, ledger.Store, *ledger.User) {
	t.Helper()
	store := testutil.NewStore()
	cfg := testutil.Config()
	w := wallet.NewService(store, cfg)
	n := notifications.NewService(store)
	svc := NewService(store, w, admin.NewService(store), referrals.NewService(store, w, n, cfg), n, cfg)
	adm := testutil.SeedUser(t, store, ledger.User{IsAdmin: true})
	return svc, store, adm
}

var deposit = DepositRequest{Amount: 700, PaymentName: "Ada Obi", PaymentReceipt: "RCPT-1"}

func TestDeposit_Approve(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})

	req, err := svc.RequestDeposit(ctx, u.ID, deposit)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxPending, req.Status)
	assert.Zero(t, testutil.User(t, store, u.ID).WalletBalance)

	queue, err := svc.PendingDeposits(ctx, adm.ID)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, u.Email, queue[0].UserEmail)

	got, err := svc.ApproveDeposit(ctx, adm.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxCompleted, got.Status)
	assert.Equal(t, int64(700), got.Amount)

	bal := testutil.User(t, store, u.ID)
	assert.Equal(t, int64(600), bal.WalletBalance)
	assert.Zero(t, bal.WithdrawableBalance)

	notes := testutil.Notifications(t, store, u.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your deposit of ₦700 has been approved. ₦600 added to your wallet after service fee.", notes[0].Message)

	_, err = svc.ApproveDeposit(ctx, adm.ID, req.ID)
	assert.ErrorIs(t, err, common.ErrNotPending)
	_, err = svc.RejectDeposit(ctx, adm.ID, req.ID)
	assert.ErrorIs(t, err, common.ErrNotPending)
	assert.Equal(t, int64(600), testutil.User(t, store, u.ID).WalletBalance)

	queue, err = svc.PendingDeposits(ctx, adm.ID)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestDeposit_FeeFixedAtRequest(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})

	req, err := svc.RequestDeposit(ctx, u.ID, deposit)
	require.NoError(t, err)
	assert.Equal(t, int64(100), req.Fee)

	// Комиссию подняли выше суммы заявки, пока она ждала в очереди
	svc.cfg.DepositServiceFee = 1000

	_, err = svc.ApproveDeposit(ctx, adm.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), testutil.User(t, store, u.ID).WalletBalance)

	// Новые заявки проверяются по новой комиссии
	_, err = svc.RequestDeposit(ctx, u.ID, deposit)
	assert.ErrorIs(t, err, common.ErrAmountBelowFee)
}

func TestDeposit_ReferralCascade(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	referrer := testutil.SeedUser(t, store, ledger.User{})
	u := testutil.SeedUser(t, store, ledger.User{ReferredBy: referrer.ReferralCode})

	req, err := svc.RequestDeposit(ctx, u.ID, deposit)
	require.NoError(t, err)
	_, err = svc.ApproveDeposit(ctx, adm.ID, req.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(600), testutil.User(t, store, u.ID).WalletBalance)
	r := testutil.User(t, store, referrer.ID)
	assert.Equal(t, int64(25), r.WithdrawableBalance)
	assert.Zero(t, r.WalletBalance)

	txs := testutil.Transactions(t, store, referrer.ID)
	require.Len(t, txs, 1)
	assert.Equal(t, ledger.TxReferralBonus, txs[0].Type)

	notes := testutil.Notifications(t, store, referrer.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "You just got a referral bonus of ₦25.", notes[0].Message)
}

func TestDeposit_Reject(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})

	req, err := svc.RequestDeposit(ctx, u.ID, deposit)
	require.NoError(t, err)
	got, err := svc.RejectDeposit(ctx, adm.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRejected, got.Status)
	assert.Zero(t, testutil.User(t, store, u.ID).WalletBalance)

	notes := testutil.Notifications(t, store, u.ID)
	require.Len(t, notes, 1)
	assert.Equal(t, "Your deposit of ₦700 has been rejected.", notes[0].Message)
}

func TestRequestDeposit_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{})
	banned := testutil.SeedUser(t, store, ledger.User{IsBanned: true})

	tests := []struct {
		name   string
		userID int64
		in     DepositRequest
		want   error
	}{
		{"zero", u.ID, DepositRequest{Amount: 0, PaymentName: "x"}, common.ErrInvalidAmount},
		{"equals fee", u.ID, DepositRequest{Amount: 100, PaymentName: "x"}, common.ErrAmountBelowFee},
		{"no details", u.ID, DepositRequest{Amount: 500, PaymentName: " "}, common.ErrEmptyPaymentDetails},
		{"unknown user", 999, deposit, common.ErrUserNotFound},
		{"banned", banned.ID, deposit, common.ErrUserBanned},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestDeposit(ctx, tt.userID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Empty(t, testutil.Transactions(t, store, u.ID))
}

func TestWithdrawal_ApproveAndReject(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{WithdrawableBalance: 500})

	first, err := svc.RequestWithdrawal(ctx, u.ID, WithdrawalRequest{Amount: 200, Network: "mtn", PhoneNumber: "08012345678"})
	require.NoError(t, err)
	assert.Equal(t, "MTN", first.Network)
	assert.Equal(t, int64(300), testutil.User(t, store, u.ID).WithdrawableBalance)

	second, err := svc.RequestWithdrawal(ctx, u.ID, WithdrawalRequest{Amount: 300, Network: "Airtel", PhoneNumber: "08012345678"})
	require.NoError(t, err)
	assert.Zero(t, testutil.User(t, store, u.ID).WithdrawableBalance)

	_, err = svc.RequestWithdrawal(ctx, u.ID, WithdrawalRequest{Amount: 1, Network: "Glo", PhoneNumber: "08012345678"})
	assert.ErrorIs(t, err, common.ErrInsufficientFunds)

	queue, err := svc.PendingWithdrawals(ctx, adm.ID)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].Transaction.ID, "старые первыми")

	_, err = svc.ApproveWithdrawal(ctx, adm.ID, first.ID)
	require.NoError(t, err)
	assert.Zero(t, testutil.User(t, store, u.ID).WithdrawableBalance)

	_, err = svc.RejectWithdrawal(ctx, adm.ID, second.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(300), testutil.User(t, store, u.ID).WithdrawableBalance)

	notes := testutil.Notifications(t, store, u.ID)
	require.Len(t, notes, 2)
	assert.Equal(t, "Your withdrawal of ₦300 was rejected. The amount has been returned to your withdrawable balance.", notes[0].Message)
	assert.Equal(t, "Your withdrawal of ₦200 has been processed successfully.", notes[1].Message)

	_, err = svc.RejectWithdrawal(ctx, adm.ID, second.ID)
	assert.ErrorIs(t, err, common.ErrNotPending)
	assert.Equal(t, int64(300), testutil.User(t, store, u.ID).WithdrawableBalance)
}

func TestRequestWithdrawal_Validation(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{WithdrawableBalance: 500, WalletBalance: 1000})

	tests := []struct {
		name string
		in   WithdrawalRequest
		want error
	}{
		{"zero", WithdrawalRequest{Amount: 0, Network: "MTN", PhoneNumber: "08012345678"}, common.ErrInvalidAmount},
		{"short phone", WithdrawalRequest{Amount: 10, Network: "MTN", PhoneNumber: "0801234567"}, common.ErrInvalidPhone},
		{"letters", WithdrawalRequest{Amount: 10, Network: "MTN", PhoneNumber: "0801234567a"}, common.ErrInvalidPhone},
		{"network", WithdrawalRequest{Amount: 10, Network: "Vodafone", PhoneNumber: "08012345678"}, common.ErrInvalidNetwork},
		{"wallet is not withdrawable", WithdrawalRequest{Amount: 600, Network: "MTN", PhoneNumber: "08012345678"}, common.ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RequestWithdrawal(ctx, u.ID, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	got := testutil.User(t, store, u.ID)
	assert.Equal(t, int64(500), got.WithdrawableBalance)
	assert.Equal(t, int64(1000), got.WalletBalance)
	assert.Empty(t, testutil.Transactions(t, store, u.ID))
}

func TestDecisions_RequireAdminAndType(t *testing.T) {
	svc, store, adm := newTestService(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, store, ledger.User{WithdrawableBalance: 100})

	dep, err := svc.RequestDeposit(ctx, u.ID, deposit)
	require.NoError(t, err)
	wd, err := svc.RequestWithdrawal(ctx, u.ID, WithdrawalRequest{Amount: 100, Network: "9mobile", PhoneNumber: "09012345678"})
	require.NoError(t, err)

	_, err = svc.ApproveDeposit(ctx, u.ID, dep.ID)
	assert.ErrorIs(t, err, common.ErrNotAdmin)
	_, err = svc.PendingDeposits(ctx, u.ID)
	assert.ErrorIs(t, err, common.ErrNotAdmin)

	_, err = svc.ApproveDeposit(ctx, adm.ID, wd.ID)
	assert.ErrorIs(t, err, common.ErrWrongTransactionType)
	assert.Equal(t, common.KindInvalidState, common.KindOf(err))

	_, err = svc.RejectWithdrawal(ctx, adm.ID, dep.ID)
	assert.ErrorIs(t, err, common.ErrWrongTransactionType)

	_, err = svc.ApproveWithdrawal(ctx, adm.ID, 9999)
	assert.ErrorIs(t, err, common.ErrTransactionNotFound)

	_, err = svc.Decide(ctx, adm.ID, dep.ID, ledger.TxDeposit, "maybe")
	assert.ErrorIs(t, err, common.ErrInvalidDecision)

	got, err := svc.Decide(ctx, adm.ID, wd.ID, ledger.TxWithdrawal, Reject)
	require.NoError(t, err)
	assert.Equal(t, ledger.TxRejected, got.Status)

	deposits, withdrawals, err := svc.QueueSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deposits)
	assert.Zero(t, withdrawals)
}
