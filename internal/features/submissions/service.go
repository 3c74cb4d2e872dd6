// Package submissions — service.go принимает пруфы и проводит решения владельца.
//
// Одобрение — одна единица работы: статус, оплата исполнителю на баланс к
// выводу, запись task_credit, уведомление и занятие слота. Любая ошибка
// откатывает всё целиком.
package submissions

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/tasks"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/metrics"
)

// Service управляет пруфами.
type Service struct {
	store    ledger.Store
	wallet   *wallet.Service
	tasks    *tasks.Service
	notifier *notifications.Service
}

// NewService создаёт сервис пруфов.
func NewService(store ledger.Store, w *wallet.Service, t *tasks.Service, n *notifications.Service) *Service {
	return &Service{store: store, wallet: w, tasks: t, notifier: n}
}

// Submit отправляет пруф к заданию и уведомляет владельца.
// Один пользователь — один пруф на задание, даже после отклонения.
func (s *Service) Submit(ctx context.Context, callerID, taskID int64, proof Proof) (*ledger.Submission, error) {
	proof.Text = strings.TrimSpace(proof.Text)
	proof.Image = strings.TrimSpace(proof.Image)

	var sub *ledger.Submission
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		caller, err := tx.GetUser(ctx, callerID)
		if err != nil {
			return err
		}
		if caller.IsBanned {
			return common.ErrUserBanned
		}
		// Заполненное задание тоже неактивно, поэтому полнота проверяется первой
		if task.FilledSlots >= task.TotalSlots {
			return common.ErrTaskFull
		}
		if !task.IsActive {
			return common.ErrTaskInactive
		}
		if task.OwnerID == callerID {
			return common.ErrSelfSubmission
		}
		dup, err := tx.HasSubmission(ctx, taskID, callerID)
		if err != nil {
			return err
		}
		if dup {
			return common.ErrDuplicateSubmission
		}
		if proof.Text == "" && proof.Image == "" {
			return common.ErrEmptyProof
		}

		// Параллельный дубль отсекает уникальный индекс (task_id, user_id)
		sub = &ledger.Submission{
			TaskID:     taskID,
			UserID:     callerID,
			ProofText:  proof.Text,
			ProofImage: proof.Image,
			Status:     ledger.SubmissionPending,
		}
		if err := tx.CreateSubmission(ctx, sub); err != nil {
			return err
		}
		return s.notifier.Notify(ctx, tx, task.OwnerID, notifications.MsgSubmissionReceived)
	})
	if err != nil {
		return nil, err
	}

	metrics.Submissions.WithLabelValues(string(ledger.SubmissionPending)).Inc()
	log.WithFields(log.Fields{
		"submission_id": sub.ID,
		"task_id":       taskID,
		"user_id":       callerID,
	}).Info("Пруф отправлен")
	return sub, nil
}

// Review проводит решение владельца задания по пруфу.
func (s *Service) Review(ctx context.Context, reviewerID, submissionID int64, decision ledger.SubmissionStatus) (*ledger.Submission, error) {
	if decision != ledger.SubmissionApproved && decision != ledger.SubmissionRejected {
		return nil, common.ErrInvalidDecision
	}

	var (
		sub  *ledger.Submission
		paid int64
	)
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		sub, err = tx.LockSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		task, err := tx.GetTask(ctx, sub.TaskID)
		if err != nil {
			return err
		}
		// Чужому проверяющему статус пруфа не раскрывается
		if task.OwnerID != reviewerID {
			return common.ErrNotTaskOwner
		}
		if sub.Status != ledger.SubmissionPending {
			return common.ErrAlreadyReviewed
		}

		if err := tx.SetSubmissionStatus(ctx, sub.ID, decision); err != nil {
			return err
		}
		sub.Status = decision

		if decision == ledger.SubmissionRejected {
			return s.notifier.Notify(ctx, tx, sub.UserID, notifications.MsgSubmissionRejected)
		}

		if _, err := s.tasks.FillSlot(ctx, tx, task.ID); err != nil {
			return err
		}
		if err := s.wallet.CreditWithdrawable(ctx, tx, sub.UserID, task.PricePerUser); err != nil {
			return err
		}
		if err := tx.CreateTransaction(ctx, &ledger.Transaction{
			UserID: sub.UserID,
			Type:   ledger.TxTaskCredit,
			Amount: task.PricePerUser,
			Status: ledger.TxCompleted,
		}); err != nil {
			return err
		}
		paid = task.PricePerUser
		return s.notifier.Notify(ctx, tx, sub.UserID, notifications.MsgSubmissionApproved)
	})
	if err != nil {
		return nil, err
	}

	metrics.Submissions.WithLabelValues(string(decision)).Inc()
	if paid > 0 {
		metrics.MoneyMoved.WithLabelValues(string(ledger.TxTaskCredit)).Add(float64(paid))
	}
	log.WithFields(log.Fields{
		"submission_id": sub.ID,
		"reviewer_id":   reviewerID,
		"decision":      decision,
	}).Info("Пруф проверен")
	return sub, nil
}

// ListByUser возвращает пруфы пользователя с названиями заданий, новые первыми.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]ledger.UserSubmission, error) {
	var out []ledger.UserSubmission
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListSubmissionsByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.UserSubmission{}
	}
	return out, nil
}

// PendingForOwner возвращает пруфы, ожидающие решения владельца.
// Email исполнителя маскируется.
func (s *Service) PendingForOwner(ctx context.Context, ownerID int64) ([]ledger.PendingReview, error) {
	var out []ledger.PendingReview
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, ownerID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListPendingReviews(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []ledger.PendingReview{}
	}
	for i := range out {
		out[i].SubmitterEmail = common.MaskEmail(out[i].SubmitterEmail)
	}
	return out, nil
}
