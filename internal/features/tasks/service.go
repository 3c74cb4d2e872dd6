// Package tasks — service.go создаёт задания и ведёт счётчик слотов.
//
// При создании с основного баланса владельца списывается полная стоимость
// (цена × слоты). Неиспользованный остаток при деактивации не возвращается.
package tasks

import (
	"context"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/metrics"
)

// Service управляет заданиями.
type Service struct {
	store  ledger.Store
	wallet *wallet.Service
	cfg    *config.Config
}

// NewService создаёт сервис заданий.
func NewService(store ledger.Store, w *wallet.Service, cfg *config.Config) *Service {
	return &Service{store: store, wallet: w, cfg: cfg}
}

// TotalCost возвращает цену × слоты или ошибку переполнения.
func TotalCost(pricePerUser int64, totalSlots int) (int64, error) {
	if pricePerUser > math.MaxInt64/int64(totalSlots) {
		return 0, common.ErrAmountOverflow
	}
	return pricePerUser * int64(totalSlots), nil
}

func (s *Service) validate(in *CreateInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Link = strings.TrimSpace(in.Link)
	if in.Name == "" || in.Description == "" || in.Link == "" {
		return common.ErrMissingField
	}
	if in.PricePerUser <= 0 {
		return common.ErrInvalidAmount
	}
	if in.PricePerUser < s.cfg.MinPricePerUser {
		return common.ErrPriceTooLow
	}
	if in.TotalSlots < 1 {
		return common.ErrInvalidSlots
	}
	return nil
}

// Create создаёт задание и списывает его полную стоимость с основного баланса.
// Нехватка средств — ничего не создаётся.
func (s *Service) Create(ctx context.Context, ownerID int64, in CreateInput) (*ledger.Task, error) {
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	cost, err := TotalCost(in.PricePerUser, in.TotalSlots)
	if err != nil {
		return nil, err
	}

	task := &ledger.Task{
		OwnerID:      ownerID,
		Name:         in.Name,
		Description:  in.Description,
		Link:         in.Link,
		PricePerUser: in.PricePerUser,
		TotalSlots:   in.TotalSlots,
		IsActive:     true,
	}
	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		if err := s.wallet.DebitWallet(ctx, tx, ownerID, cost); err != nil {
			return err
		}
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		return tx.CreateTransaction(ctx, &ledger.Transaction{
			UserID: ownerID,
			Type:   ledger.TxTaskDebit,
			Amount: cost,
			Status: ledger.TxCompleted,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TasksCreated.Inc()
	metrics.MoneyMoved.WithLabelValues(string(ledger.TxTaskDebit)).Add(float64(cost))
	log.WithFields(log.Fields{
		"task_id":  task.ID,
		"owner_id": ownerID,
		"slots":    task.TotalSlots,
		"cost":     cost,
	}).Info("Задание создано")
	return task, nil
}

// FillSlot занимает один слот задания внутри единицы работы вызывающего.
// Последний слот деактивирует задание.
func (s *Service) FillSlot(ctx context.Context, tx ledger.Tx, taskID int64) (*ledger.Task, error) {
	task, err := tx.LockTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.FilledSlots >= task.TotalSlots {
		return nil, common.ErrTaskFull
	}
	if !task.IsActive {
		return nil, common.ErrTaskInactive
	}

	task.FilledSlots++
	if task.FilledSlots == task.TotalSlots {
		task.IsActive = false
	}
	if err := tx.SetTaskProgress(ctx, taskID, task.FilledSlots, task.IsActive); err != nil {
		return nil, err
	}
	return task, nil
}

// Deactivate снимает задание с публикации. Доступно владельцу и администратору.
func (s *Service) Deactivate(ctx context.Context, callerID, taskID int64) (*ledger.Task, error) {
	var task *ledger.Task
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		caller, err := tx.GetUser(ctx, callerID)
		if err != nil {
			return err
		}
		task, err = tx.LockTask(ctx, taskID)
		if err != nil {
			return err
		}
		if task.OwnerID != callerID && !caller.IsAdmin {
			return common.ErrNotTaskOwner
		}
		if !task.IsActive {
			return common.ErrTaskInactive
		}
		task.IsActive = false
		return tx.SetTaskProgress(ctx, taskID, task.FilledSlots, false)
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"task_id":   taskID,
		"caller_id": callerID,
		"filled":    task.FilledSlots,
		"total":     task.TotalSlots,
	}).Info("Задание деактивировано")
	return task, nil
}

// Get возвращает задание. Email владельца маскируется для всех,
// кроме самого владельца и администратора.
func (s *Service) Get(ctx context.Context, callerID, taskID int64) (*View, error) {
	var out *View
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		owner, err := tx.GetUser(ctx, task.OwnerID)
		if err != nil {
			return err
		}
		email := owner.Email
		if callerID != owner.ID {
			caller, err := tx.GetUser(ctx, callerID)
			if err != nil {
				return err
			}
			if !caller.IsAdmin {
				email = common.MaskEmail(email)
			}
		}
		out = &View{Task: task, OwnerEmail: email}
		return nil
	})
	return out, err
}

// ListAvailable возвращает активные незаполненные задания, новые первыми.
func (s *Service) ListAvailable(ctx context.Context) ([]View, error) {
	var listings []ledger.TaskListing
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		listings, err = tx.ListAvailableTasks(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]View, 0, len(listings))
	for i := range listings {
		out = append(out, View{
			Task:       &listings[i].Task,
			OwnerEmail: common.MaskEmail(listings[i].OwnerEmail),
		})
	}
	return out, nil
}

// ListByOwner возвращает задания пользователя, новые первыми.
func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*ledger.Task, error) {
	var out []*ledger.Task
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetUser(ctx, ownerID); err != nil {
			return err
		}
		var err error
		out, err = tx.ListTasksByOwner(ctx, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*ledger.Task{}
	}
	return out, nil
}
