// Package admin — проверка прав администратора и управление пользователями.
// Модерация заявок живёт в moderation и проверяет права через RequireAdmin.
package admin

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// Service управляет админ-операциями.
type Service struct {
	store ledger.Store
}

// NewService создаёт админ-сервис.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// RequireAdmin проверяет, что callerID — действующий администратор.
// Работает внутри единицы работы вызывающего.
func (s *Service) RequireAdmin(ctx context.Context, tx ledger.Tx, callerID int64) (*ledger.User, error) {
	u, err := tx.GetUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin {
		return nil, common.ErrNotAdmin
	}
	if u.IsBanned {
		return nil, common.ErrUserBanned
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (s *Service) ListUsers(ctx context.Context, adminID int64) ([]*ledger.User, error) {
	var out []*ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := s.RequireAdmin(ctx, tx, adminID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListUsers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetBanned блокирует или разблокирует пользователя.
// Заблокированный не может входить и тратить деньги, но зачисления ему проходят.
func (s *Service) SetBanned(ctx context.Context, adminID, userID int64, banned bool) (*ledger.User, error) {
	var out *ledger.User
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := s.RequireAdmin(ctx, tx, adminID); err != nil {
			return err
		}
		if adminID == userID {
			return common.ErrSelfBan
		}

		u, err := tx.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		if u.IsBanned != banned {
			if err := tx.SetUserBanned(ctx, userID, banned); err != nil {
				return err
			}
			u.IsBanned = banned
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"user_id":  userID,
		"banned":   banned,
	}).Info("Статус блокировки изменён")
	return out, nil
}
