// Package referrals — service.go связывает пользователей и начисляет бонусы.
package referrals

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// Service управляет реферальной программой.
type Service struct {
	store    ledger.Store
	wallet   *wallet.Service
	notifier *notifications.Service
	cfg      *config.Config
}

// NewService создаёт реферальный сервис.
func NewService(store ledger.Store, w *wallet.Service, n *notifications.Service, cfg *config.Config) *Service {
	return &Service{store: store, wallet: w, notifier: n, cfg: cfg}
}

// Link записывает связь «пригласил → приглашённый» и уведомляет пригласившего.
// Вызывается из регистрации внутри её единицы работы.
func (s *Service) Link(ctx context.Context, tx ledger.Tx, referrerID, referredID int64) error {
	if err := tx.CreateReferral(ctx, &ledger.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
	}); err != nil {
		return err
	}
	return s.notifier.Notify(ctx, tx, referrerID, notifications.MsgNewReferral)
}

// PayBonus начисляет бонус пригласившему depositor, если он есть.
// Возвращает начисленную сумму (0 — бонус не положен).
func (s *Service) PayBonus(ctx context.Context, tx ledger.Tx, depositor *ledger.User) (int64, error) {
	bonus := s.cfg.ReferralBonus
	if depositor.ReferredBy == "" || bonus <= 0 {
		return 0, nil
	}

	referrer, err := tx.GetUserByReferralCode(ctx, depositor.ReferredBy)
	if errors.Is(err, common.ErrUserNotFound) {
		log.WithFields(log.Fields{
			"user_id": depositor.ID,
			"code":    depositor.ReferredBy,
		}).Warn("Код пригласившего не найден, бонус не начислен")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if referrer.ID == depositor.ID {
		return 0, nil
	}

	if err := s.wallet.CreditWithdrawable(ctx, tx, referrer.ID, bonus); err != nil {
		return 0, err
	}
	if err := tx.CreateTransaction(ctx, &ledger.Transaction{
		UserID: referrer.ID,
		Type:   ledger.TxReferralBonus,
		Amount: bonus,
		Status: ledger.TxCompleted,
	}); err != nil {
		return 0, err
	}

	msg := fmt.Sprintf("You just got a referral bonus of %s.", common.FormatNaira(bonus))
	if err := s.notifier.Notify(ctx, tx, referrer.ID, msg); err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"referrer_id": referrer.ID,
		"referred_id": depositor.ID,
		"bonus":       bonus,
	}).Info("Реферальный бонус начислен")
	return bonus, nil
}

// Summary возвращает код пользователя, приглашённых и заработок на бонусах.
func (s *Service) Summary(ctx context.Context, userID int64) (*Summary, error) {
	out := &Summary{Referees: []Referee{}}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		u, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		out.ReferralCode = u.ReferralCode

		refs, err := tx.ListReferralsByReferrer(ctx, userID)
		if err != nil {
			return err
		}
		for _, r := range refs {
			referred, err := tx.GetUser(ctx, r.ReferredID)
			if err != nil {
				return err
			}
			out.Referees = append(out.Referees, Referee{
				Email:    common.MaskEmail(referred.Email),
				JoinedAt: r.CreatedAt,
			})
		}
		out.Count = len(out.Referees)

		out.Earnings, err = tx.SumTransactions(ctx, userID, ledger.TxReferralBonus, ledger.TxCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
