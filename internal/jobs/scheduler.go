// Package jobs управляет фоновыми задачами (cron).
// scheduler.go настраивает расписание сводки для модераторов.
package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/features/moderation"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/ledger"
	"serotonyl.ru/taskmarket/internal/metrics"
)

// Scheduler управляет фоновыми задачами.
type Scheduler struct {
	cron       *cron.Cron
	store      ledger.Store
	moderation *moderation.Service
	notifier   *notifications.Service
	cfg        *config.Config
}

// NewScheduler создаёт планировщик в часовом поясе из конфигурации.
func NewScheduler(store ledger.Store, m *moderation.Service, n *notifications.Service, cfg *config.Config) *Scheduler {
	loc := common.LoadLocation(cfg.AppTimezone)
	if loc.String() != cfg.AppTimezone {
		log.WithField("timezone", cfg.AppTimezone).Warn("Не удалось загрузить часовой пояс, используем UTC")
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		store:      store,
		moderation: m,
		notifier:   n,
		cfg:        cfg,
	}
}

// Start регистрирует задачи и запускает планировщик.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.cfg.DigestSchedule, func() {
		log.Debug("[CRON] Сводка очереди модерации")
		if _, _, err := s.RunDigest(ctx); err != nil {
			log.WithError(err).Error("[CRON] Ошибка сводки")
		}
	})
	if err != nil {
		return fmt.Errorf("некорректное расписание DIGEST_SCHEDULE %q: %w", s.cfg.DigestSchedule, err)
	}

	s.cron.Start()
	log.WithFields(log.Fields{
		"schedule": s.cfg.DigestSchedule,
		"timezone": s.cfg.AppTimezone,
	}).Info("Планировщик задач запущен")
	return nil
}

// Stop останавливает планировщик и ждёт завершения текущих задач.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Планировщик задач остановлен")
}

// DigestMessage — текст сводки для администратора.
func DigestMessage(deposits, withdrawals int) string {
	return fmt.Sprintf("%s and %s are awaiting review.",
		common.CountNoun(deposits, "deposit", "deposits"),
		common.CountNoun(withdrawals, "withdrawal", "withdrawals"))
}

// RunDigest считает очередь модерации, обновляет метрики и, если очередь не
// пуста, уведомляет всех действующих администраторов. Деньги не двигает.
func (s *Scheduler) RunDigest(ctx context.Context) (deposits, withdrawals int, err error) {
	deposits, withdrawals, err = s.moderation.QueueSize(ctx)
	if err != nil {
		return 0, 0, err
	}
	metrics.PendingQueue.WithLabelValues(string(ledger.TxDeposit)).Set(float64(deposits))
	metrics.PendingQueue.WithLabelValues(string(ledger.TxWithdrawal)).Set(float64(withdrawals))

	if deposits+withdrawals == 0 {
		return deposits, withdrawals, nil
	}

	msg := DigestMessage(deposits, withdrawals)
	notified := 0
	err = s.store.InTx(ctx, func(tx ledger.Tx) error {
		admins, err := tx.ListAdmins(ctx)
		if err != nil {
			return err
		}
		for _, a := range admins {
			if a.IsBanned {
				continue
			}
			if err := s.notifier.Notify(ctx, tx, a.ID, msg); err != nil {
				return err
			}
			notified++
		}
		return nil
	})
	if err != nil {
		return deposits, withdrawals, err
	}

	log.WithFields(log.Fields{
		"deposits":    deposits,
		"withdrawals": withdrawals,
		"admins":      notified,
	}).Info("[CRON] Сводка отправлена")
	return deposits, withdrawals, nil
}
