package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// ─── helpers ────────────────────────────────────────────────────────────────

func mustCreateUser(t *testing.T, s *Store, email, code string) *ledger.User {
	t.Helper()
	u := &ledger.User{Email: email, ReferralCode: code}
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		return tx.CreateUser(context.Background(), u)
	}))
	return u
}

// ─── rollback ───────────────────────────────────────────────────────────────

func TestInTx_RollbackRestoresEveryWrite(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := mustCreateUser(t, s, "a@example.com", "QR000001")

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		require.NoError(t, tx.SetUserBalances(ctx, u.ID, 500, 40))
		require.NoError(t, tx.CreateTask(ctx, &ledger.Task{OwnerID: u.ID, Name: "x", TotalSlots: 1, PricePerUser: 100, IsActive: true}))
		require.NoError(t, tx.CreateTransaction(ctx, &ledger.Transaction{UserID: u.ID, Type: ledger.TxTaskDebit, Amount: 100, Status: ledger.TxCompleted}))
		require.NoError(t, tx.CreateNotification(ctx, &ledger.Notification{UserID: u.ID, Message: "hi"}))
		require.NoError(t, tx.CreateUser(ctx, &ledger.User{Email: "b@example.com", ReferralCode: "QR000002"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		got, err := tx.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Zero(t, got.WalletBalance)
		assert.Zero(t, got.WithdrawableBalance)

		tasks, _ := tx.ListTasksByOwner(ctx, u.ID)
		assert.Empty(t, tasks)
		n, _ := tx.CountTransactionsByUser(ctx, u.ID)
		assert.Zero(t, n)
		unread, _ := tx.CountUnreadNotifications(ctx, u.ID)
		assert.Zero(t, unread)
		_, err = tx.GetUserByEmail(ctx, "b@example.com")
		assert.ErrorIs(t, err, common.ErrUserNotFound)
		return nil
	}))
}

func TestInTx_PanicRollsBackAndRepanics(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := mustCreateUser(t, s, "p@example.com", "QR000003")

	assert.PanicsWithValue(t, "boom", func() {
		_ = s.InTx(ctx, func(tx ledger.Tx) error {
			require.NoError(t, tx.SetUserBalances(ctx, u.ID, 900, 10))
			require.NoError(t, tx.CreateNotification(ctx, &ledger.Notification{UserID: u.ID, Message: "lost"}))
			panic("boom")
		})
	})

	// Мьютекс освобождён, записи откатаны
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		got, err := tx.GetUser(ctx, u.ID)
		require.NoError(t, err)
		assert.Zero(t, got.WalletBalance)
		assert.Zero(t, got.WithdrawableBalance)
		unread, _ := tx.CountUnreadNotifications(ctx, u.ID)
		assert.Zero(t, unread)
		return nil
	}))
}

func TestInTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.InTx(ctx, func(tx ledger.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

// ─── uniqueness ─────────────────────────────────────────────────────────────

func TestCreateUser_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()
	mustCreateUser(t, s, "a@example.com", "QR000001")

	tests := []struct {
		name  string
		email string
		code  string
		want  error
	}{
		{"same email", "a@example.com", "QR000009", common.ErrEmailTaken},
		{"same code", "c@example.com", "QR000001", common.ErrReferralCodeTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.InTx(ctx, func(tx ledger.Tx) error {
				return tx.CreateUser(ctx, &ledger.User{Email: tt.email, ReferralCode: tt.code})
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateSubmission_DuplicatePair(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InTx(ctx, func(tx ledger.Tx) error {
		if err := tx.CreateSubmission(ctx, &ledger.Submission{TaskID: 1, UserID: 2, Status: ledger.SubmissionPending}); err != nil {
			return err
		}
		return tx.CreateSubmission(ctx, &ledger.Submission{TaskID: 1, UserID: 2, Status: ledger.SubmissionPending})
	})
	assert.ErrorIs(t, err, common.ErrDuplicateSubmission)

	// Первый пруф тоже откатился вместе с единицей работы
	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		ok, err := tx.HasSubmission(ctx, 1, 2)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
}

// ─── ordering & pagination ──────────────────────────────────────────────────

func TestTransactions_OrderingAndPagination(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := mustCreateUser(t, s, "a@example.com", "QR000001")

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		for i := 1; i <= 12; i++ {
			tr := &ledger.Transaction{UserID: u.ID, Type: ledger.TxDeposit, Amount: int64(i * 100), Status: ledger.TxPending}
			if err := tx.CreateTransaction(ctx, tr); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		page1, err := tx.ListTransactionsByUser(ctx, u.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, page1, 10)
		assert.Equal(t, int64(1200), page1[0].Amount)

		page2, err := tx.ListTransactionsByUser(ctx, u.ID, 10, 10)
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.Equal(t, int64(100), page2[1].Amount)

		empty, err := tx.ListTransactionsByUser(ctx, u.ID, 10, 20)
		require.NoError(t, err)
		assert.Empty(t, empty)

		pending, err := tx.ListPendingTransactions(ctx, ledger.TxDeposit)
		require.NoError(t, err)
		require.Len(t, pending, 12)
		assert.Equal(t, int64(100), pending[0].Transaction.Amount)
		assert.Equal(t, "a@example.com", pending[0].UserEmail)
		return nil
	}))
}

func TestMarkAllNotificationsRead(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		for _, uid := range []int64{1, 1, 1, 2} {
			require.NoError(t, tx.CreateNotification(ctx, &ledger.Notification{UserID: uid, Message: "m"}))
		}
		require.NoError(t, tx.MarkNotificationRead(ctx, 1))
		n, err := tx.MarkAllNotificationsRead(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		unread, _ := tx.CountUnreadNotifications(ctx, 2)
		assert.Equal(t, 1, unread)
		return nil
	}))
}

// ─── concurrency ────────────────────────────────────────────────────────────

func TestInTx_SerializesReadModifyWrite(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := mustCreateUser(t, s, "a@example.com", "QR000001")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.InTx(ctx, func(tx ledger.Tx) error {
				cur, err := tx.LockUser(ctx, u.ID)
				if err != nil {
					return err
				}
				return tx.SetUserBalances(ctx, u.ID, cur.WalletBalance+1, cur.WithdrawableBalance)
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.InTx(ctx, func(tx ledger.Tx) error {
		got, _ := tx.GetUser(ctx, u.ID)
		assert.Equal(t, int64(50), got.WalletBalance)
		return nil
	}))
}
