// Package testutil — общие фикстуры для тестов сервисов:
// конфигурация по умолчанию, хранилище в памяти и засев пользователей.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/db/memory"
	"serotonyl.ru/taskmarket/internal/ledger"
)

var codeSeq atomic.Int64

// Config возвращает конфигурацию с продовыми значениями по умолчанию.
func Config() *config.Config {
	return &config.Config{
		StorageDriver:      config.StorageMemory,
		AppTimezone:        "Africa/Lagos",
		JWTSecret:          "test-secret-0123456789",
		JWTTTL:             time.Hour,
		JWTIssuer:          "taskmarket-test",
		DepositServiceFee:  100,
		ReferralBonus:      25,
		MinPricePerUser:    100,
		PhoneDigits:        11,
		WithdrawalNetworks: []string{"MTN", "Airtel", "Glo", "9mobile"},
		PageSize:           10,
		MinPasswordLength:  6,
		DigestSchedule:     "0 * * * *",
	}
}

// NewStore создаёт пустое хранилище в памяти.
func NewStore() *memory.Store {
	return memory.New()
}

// SeedUser создаёт пользователя напрямую в хранилище, минуя регистрацию.
// Пустые Email и ReferralCode заполняются уникальными значениями.
func SeedUser(t *testing.T, s ledger.Store, u ledger.User) *ledger.User {
	t.Helper()
	n := codeSeq.Add(1)
	if u.Email == "" {
		u.Email = fmt.Sprintf("user%d@example.com", n)
	}
	if u.ReferralCode == "" {
		u.ReferralCode = fmt.Sprintf("QR9%05d", n%100000)
	}
	if u.PasswordHash == "" {
		u.PasswordHash = "-"
	}
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		return tx.CreateUser(context.Background(), &u)
	}))
	return &u
}

// User перечитывает пользователя из хранилища.
func User(t *testing.T, s ledger.Store, id int64) *ledger.User {
	t.Helper()
	var u *ledger.User
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		u, err = tx.GetUser(context.Background(), id)
		return err
	}))
	return u
}

// Task перечитывает задание из хранилища.
func Task(t *testing.T, s ledger.Store, id int64) *ledger.Task {
	t.Helper()
	var task *ledger.Task
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		task, err = tx.GetTask(context.Background(), id)
		return err
	}))
	return task
}

// Transactions возвращает весь журнал пользователя, новые первыми.
func Transactions(t *testing.T, s ledger.Store, userID int64) []*ledger.Transaction {
	t.Helper()
	var out []*ledger.Transaction
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListTransactionsByUser(context.Background(), userID, 1<<20, 0)
		return err
	}))
	return out
}

// Notifications возвращает уведомления пользователя, новые первыми.
func Notifications(t *testing.T, s ledger.Store, userID int64) []*ledger.Notification {
	t.Helper()
	var out []*ledger.Notification
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListNotifications(context.Background(), userID)
		return err
	}))
	return out
}

// TotalMoney — сумма обоих балансов по всем пользователям.
func TotalMoney(t *testing.T, s ledger.Store) int64 {
	t.Helper()
	var sum int64
	require.NoError(t, s.InTx(context.Background(), func(tx ledger.Tx) error {
		users, err := tx.ListUsers(context.Background())
		if err != nil {
			return err
		}
		for _, u := range users {
			sum += u.WalletBalance + u.WithdrawableBalance
		}
		return nil
	}))
	return sum
}
