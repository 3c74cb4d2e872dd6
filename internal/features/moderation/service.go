// Package moderation — service.go ведёт очередь заявок и проводит решения.
//
// Пополнение не меняет балансов до одобрения; при одобрении основной баланс
// получает сумму за вычетом комиссии, а пригласивший — реферальный бонус.
// Вывод списывает баланс к выводу сразу при подаче заявки; отклонение
// возвращает сумму обратно.
package moderation

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/features/admin"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/metrics"
)

// Service — шлюз модерации.
type Service struct {
	store     ledger.Store
	wallet    *wallet.Service
	admin     *admin.Service
	referrals *referrals.Service
	notifier  *notifications.Service
	cfg       *config.Config
}

// NewService создаёт шлюз модерации.
func NewService(
	store ledger.Store,
	w *wallet.Service,
	a *admin.Service,
	r *referrals.Service,
	n *notifications.Service,
	cfg *config.Config,
) *Service {
	return &Service{store: store, wallet: w, admin: a, referrals: r, notifier: n, cfg: cfg}
}

// RequestDeposit ставит заявку на пополнение в очередь. Балансы не меняются.
func (s *Service) RequestDeposit(ctx context.Context, userID int64, in DepositRequest) (*ledger.Transaction, error) {
	in.PaymentName = strings.TrimSpace(in.PaymentName)
	in.PaymentReceipt = strings.TrimSpace(in.PaymentReceipt)
	if in.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if in.Amount <= s.cfg.DepositServiceFee {
		return nil, common.ErrAmountBelowFee
	}
	if in.PaymentName == "" && in.PaymentReceipt == "" {
		return nil, common.ErrEmptyPaymentDetails
	}

	t := &ledger.Transaction{
		UserID:         userID,
		Type:           ledger.TxDeposit,
		Amount:         in.Amount,
		Fee:            s.cfg.DepositServiceFee,
		Status:         ledger.TxPending,
		PaymentName:    in.PaymentName,
		PaymentReceipt: in.PaymentReceipt,
	}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.IsBanned {
			return common.ErrUserBanned
		}
		return tx.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tx_id":   t.ID,
		"user_id": userID,
		"amount":  t.Amount,
	}).Info("Заявка на пополнение создана")
	return t, nil
}

// RequestWithdrawal списывает сумму с баланса к выводу и ставит заявку в очередь.
func (s *Service) RequestWithdrawal(ctx context.Context, userID int64, in WithdrawalRequest) (*ledger.Transaction, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	if in.Amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	if !common.ValidPhone(in.PhoneNumber, s.cfg.PhoneDigits) {
		return nil, common.ErrInvalidPhone
	}
	network, ok := s.cfg.NetworkAllowed(in.Network)
	if !ok {
		return nil, common.ErrInvalidNetwork
	}

	t := &ledger.Transaction{
		UserID:      userID,
		Type:        ledger.TxWithdrawal,
		Amount:      in.Amount,
		Status:      ledger.TxPending,
		Network:     network,
		PhoneNumber: in.PhoneNumber,
	}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if err := s.wallet.DebitWithdrawable(ctx, tx, userID, in.Amount); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"tx_id":   t.ID,
		"user_id": userID,
		"amount":  t.Amount,
		"network": network,
	}).Info("Заявка на вывод создана")
	return t, nil
}

// lockPending блокирует заявку и проверяет её тип и статус.
func lockPending(ctx context.Context, tx ledger.Tx, txID int64, typ ledger.TransactionType) (*ledger.Transaction, error) {
	t, err := tx.LockTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if t.Type != typ {
		return nil, common.ErrWrongTransactionType
	}
	if t.Status != ledger.TxPending {
		return nil, common.ErrNotPending
	}
	return t, nil
}

// decide проводит решение администратора в одной единице работы.
// apply получает заблокированную заявку и выполняет побочные эффекты.
func (s *Service) decide(
	ctx context.Context,
	adminID, txID int64,
	typ ledger.TransactionType,
	d Decision,
	apply func(tx ledger.Tx, t *ledger.Transaction) error,
) (*ledger.Transaction, error) {
	status := ledger.TxCompleted
	if d == Reject {
		status = ledger.TxRejected
	}

	var t *ledger.Transaction
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := s.admin.RequireAdmin(ctx, tx, adminID); err != nil {
			return err
		}
		var err error
		t, err = lockPending(ctx, tx, txID, typ)
		if err != nil {
			return err
		}
		if err := tx.SetTransactionStatus(ctx, t.ID, status); err != nil {
			return err
		}
		t.Status = status
		return apply(tx, t)
	})
	if err != nil {
		return nil, err
	}

	metrics.ModerationDecisions.WithLabelValues(string(typ), string(d)).Inc()
	log.WithFields(log.Fields{
		"tx_id":    t.ID,
		"admin_id": adminID,
		"type":     typ,
		"decision": d,
		"amount":   t.Amount,
	}).Info("Заявка обработана")
	return t, nil
}

// ApproveDeposit зачисляет пополнение за вычетом комиссии и платит реферальный бонус.
func (s *Service) ApproveDeposit(ctx context.Context, adminID, txID int64) (*ledger.Transaction, error) {
	var net, bonus int64
	t, err := s.decide(ctx, adminID, txID, ledger.TxDeposit, Approve, func(tx ledger.Tx, t *ledger.Transaction) error {
		// Комиссия берётся из заявки: смена настройки не трогает очередь
		net = t.Amount - t.Fee
		if err := s.wallet.CreditWallet(ctx, tx, t.UserID, net); err != nil {
			return err
		}
		msg := fmt.Sprintf("Your deposit of %s has been approved. %s added to your wallet after service fee.",
			common.FormatNaira(t.Amount), common.FormatNaira(net))
		if err := s.notifier.Notify(ctx, tx, t.UserID, msg); err != nil {
			return err
		}

		depositor, err := tx.GetUser(ctx, t.UserID)
		if err != nil {
			return err
		}
		bonus, err = s.referrals.PayBonus(ctx, tx, depositor)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.MoneyMoved.WithLabelValues(string(ledger.TxDeposit)).Add(float64(net))
	if bonus > 0 {
		metrics.MoneyMoved.WithLabelValues(string(ledger.TxReferralBonus)).Add(float64(bonus))
	}
	return t, nil
}

// RejectDeposit отклоняет пополнение. Балансы не меняются.
func (s *Service) RejectDeposit(ctx context.Context, adminID, txID int64) (*ledger.Transaction, error) {
	return s.decide(ctx, adminID, txID, ledger.TxDeposit, Reject, func(tx ledger.Tx, t *ledger.Transaction) error {
		msg := fmt.Sprintf("Your deposit of %s has been rejected.", common.FormatNaira(t.Amount))
		return s.notifier.Notify(ctx, tx, t.UserID, msg)
	})
}

// ApproveWithdrawal отмечает вывод выполненным. Деньги списаны при подаче.
func (s *Service) ApproveWithdrawal(ctx context.Context, adminID, txID int64) (*ledger.Transaction, error) {
	t, err := s.decide(ctx, adminID, txID, ledger.TxWithdrawal, Approve, func(tx ledger.Tx, t *ledger.Transaction) error {
		msg := fmt.Sprintf("Your withdrawal of %s has been processed successfully.", common.FormatNaira(t.Amount))
		return s.notifier.Notify(ctx, tx, t.UserID, msg)
	})
	if err != nil {
		return nil, err
	}
	metrics.MoneyMoved.WithLabelValues(string(ledger.TxWithdrawal)).Add(float64(t.Amount))
	return t, nil
}

// RejectWithdrawal отклоняет вывод и возвращает сумму на баланс к выводу.
func (s *Service) RejectWithdrawal(ctx context.Context, adminID, txID int64) (*ledger.Transaction, error) {
	return s.decide(ctx, adminID, txID, ledger.TxWithdrawal, Reject, func(tx ledger.Tx, t *ledger.Transaction) error {
		if err := s.wallet.CreditWithdrawable(ctx, tx, t.UserID, t.Amount); err != nil {
			return err
		}
		msg := fmt.Sprintf("Your withdrawal of %s was rejected. The amount has been returned to your withdrawable balance.",
			common.FormatNaira(t.Amount))
		return s.notifier.Notify(ctx, tx, t.UserID, msg)
	})
}

// Decide проводит решение по заявке любого типа.
func (s *Service) Decide(ctx context.Context, adminID, txID int64, typ ledger.TransactionType, d Decision) (*ledger.Transaction, error) {
	switch {
	case typ == ledger.TxDeposit && d == Approve:
		return s.ApproveDeposit(ctx, adminID, txID)
	case typ == ledger.TxDeposit && d == Reject:
		return s.RejectDeposit(ctx, adminID, txID)
	case typ == ledger.TxWithdrawal && d == Approve:
		return s.ApproveWithdrawal(ctx, adminID, txID)
	case typ == ledger.TxWithdrawal && d == Reject:
		return s.RejectWithdrawal(ctx, adminID, txID)
	}
	return nil, common.ErrInvalidDecision
}

// PendingDeposits возвращает очередь пополнений, старые первыми.
func (s *Service) PendingDeposits(ctx context.Context, adminID int64) ([]ledger.PendingTransaction, error) {
	return s.pending(ctx, adminID, ledger.TxDeposit)
}

// PendingWithdrawals возвращает очередь выводов, старые первыми.
func (s *Service) PendingWithdrawals(ctx context.Context, adminID int64) ([]ledger.PendingTransaction, error) {
	return s.pending(ctx, adminID, ledger.TxWithdrawal)
}

func (s *Service) pending(ctx context.Context, adminID int64, typ ledger.TransactionType) ([]ledger.PendingTransaction, error) {
	var out []ledger.PendingTransaction
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := s.admin.RequireAdmin(ctx, tx, adminID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListPendingTransactions(ctx, typ)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.PendingTransaction{}
	}
	return out, nil
}

// QueueSize возвращает размеры очередей без проверки прав (для фоновых задач).
func (s *Service) QueueSize(ctx context.Context) (deposits, withdrawals int, err error) {
	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		d, err := tx.ListPendingTransactions(ctx, ledger.TxDeposit)
		if err != nil {
			return err
		}
		w, err := tx.ListPendingTransactions(ctx, ledger.TxWithdrawal)
		if err != nil {
			return err
		}
		deposits, withdrawals = len(d), len(w)
		return nil
	})
	return deposits, withdrawals, err
}
