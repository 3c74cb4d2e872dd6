// Package wallet — service.go содержит четыре примитива движения денег.
//
// Примитивы работают внутри единицы работы вызывающего (ledger.Tx): строка
// пользователя блокируется, баланс проверяется и перезаписывается. Запись в
// журнал транзакций делает вызывающий — у него есть контекст операции.
package wallet

import (
	"context"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// Service управляет балансами.
type Service struct {
	store ledger.Store
	cfg   *config.Config
}

// NewService создаёт сервис кошелька.
func NewService(store ledger.Store, cfg *config.Config) *Service {
	return &Service{store: store, cfg: cfg}
}

// DebitWallet списывает с основного баланса (создание задания).
func (s *Service) DebitWallet(ctx context.Context, tx ledger.Tx, userID, amount int64) error {
	return s.apply(ctx, tx, userID, amount, accountWallet, true)
}

// CreditWallet зачисляет на основной баланс (одобренный депозит).
func (s *Service) CreditWallet(ctx context.Context, tx ledger.Tx, userID, amount int64) error {
	return s.apply(ctx, tx, userID, amount, accountWallet, false)
}

// DebitWithdrawable списывает с баланса к выводу (заявка на вывод).
func (s *Service) DebitWithdrawable(ctx context.Context, tx ledger.Tx, userID, amount int64) error {
	return s.apply(ctx, tx, userID, amount, accountWithdrawable, true)
}

// CreditWithdrawable зачисляет на баланс к выводу (оплата пруфа, реферальный бонус).
func (s *Service) CreditWithdrawable(ctx context.Context, tx ledger.Tx, userID, amount int64) error {
	return s.apply(ctx, tx, userID, amount, accountWithdrawable, false)
}

func (s *Service) apply(ctx context.Context, tx ledger.Tx, userID, amount int64, acc account, debit bool) error {
	if amount <= 0 {
		return common.ErrInvalidAmount
	}

	// Блокируем строку пользователя до конца единицы работы
	u, err := tx.LockUser(ctx, userID)
	if err != nil {
		return err
	}
	if debit && u.IsBanned {
		return common.ErrUserBanned
	}

	wallet, withdrawable := u.WalletBalance, u.WithdrawableBalance
	balance := &wallet
	if acc == accountWithdrawable {
		balance = &withdrawable
	}

	if debit {
		if *balance < amount {
			return fmt.Errorf("%w: need %s, have %s",
				common.ErrInsufficientFunds, common.FormatNaira(amount), common.FormatNaira(*balance))
		}
		*balance -= amount
	} else {
		if *balance > math.MaxInt64-amount {
			return common.ErrAmountOverflow
		}
		*balance += amount
	}

	if err := tx.SetUserBalances(ctx, userID, wallet, withdrawable); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"account": acc.String(),
		"amount":  amount,
		"debit":   debit,
	}).Debug("Баланс изменён")
	return nil
}

// Balances возвращает текущие балансы пользователя.
func (s *Service) Balances(ctx context.Context, userID int64) (*Balances, error) {
	var out *Balances
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out = &Balances{Wallet: u.WalletBalance, Withdrawable: u.WithdrawableBalance}
		return nil
	})
	return out, err
}

// History возвращает страницу журнала пользователя, новые первыми.
// Номер страницы меньше 1 считается первой страницей.
func (s *Service) History(ctx context.Context, userID int64, page int) (*HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	limit := s.cfg.PageSize

	out := &HistoryPage{Page: page, Limit: limit}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}

		total, err := tx.CountTransactionsByUser(ctx, userID)
		if err != nil {
			return err
		}
		out.Total = total
		out.Pages = (total + limit - 1) / limit

		out.Transactions, err = tx.ListTransactionsByUser(ctx, userID, limit, (page-1)*limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out.Transactions == nil {
		out.Transactions = []*ledger.Transaction{}
	}
	return out, nil
}
