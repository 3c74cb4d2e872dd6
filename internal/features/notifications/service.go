// Package notifications — журнал уведомлений пользователей.
// Уведомления создаются внутри чужих единиц работы (Notify) и после создания
// меняют только флаг прочтения. Доставка (push, email) сюда не входит.
package notifications

import (
	"context"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// Тексты уведомлений
const (
	MsgNewReferral        = "You have a new referral"
	MsgSubmissionReceived = "A user has completed your task. Please click to review."
	MsgSubmissionApproved = "Your Task Has Been Approved."
	MsgSubmissionRejected = "Your task submission was rejected."
)

// Service — приёмник уведомлений.
type Service struct {
	store ledger.Store
}

// NewService создаёт сервис уведомлений.
func NewService(store ledger.Store) *Service {
	return &Service{store: store}
}

// Notify добавляет уведомление в рамках единицы работы вызывающего.
func (s *Service) Notify(ctx context.Context, tx ledger.Tx, userID int64, message string) error {
	return tx.CreateNotification(ctx, &ledger.Notification{
		UserID:  userID,
		Message: message,
	})
}

// List возвращает уведомления пользователя, новые первыми.
func (s *Service) List(ctx context.Context, userID int64) ([]*ledger.Notification, error) {
	var out []*ledger.Notification
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListNotifications(ctx, userID)
		return err
	})
	return out, err
}

// UnreadCount возвращает число непрочитанных уведомлений.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		n, err = tx.CountUnreadNotifications(ctx, userID)
		return err
	})
	return n, err
}

// MarkRead отмечает уведомление прочитанным. Чужое уведомление → Unauthorized.
func (s *Service) MarkRead(ctx context.Context, callerID, notificationID int64) error {
	return s.store.InTx(ctx, func(tx ledger.Tx) error {
		n, err := tx.GetNotification(ctx, notificationID)
		if err != nil {
			return err
		}
		if n.UserID != callerID {
			return common.ErrNotOwner
		}
		if n.IsRead {
			return nil
		}
		return tx.MarkNotificationRead(ctx, notificationID)
	})
}

// MarkAllRead отмечает прочитанными все уведомления пользователя.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int, error) {
	var n int
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		n, err = tx.MarkAllNotificationsRead(ctx, userID)
		return err
	})
	return n, err
}
