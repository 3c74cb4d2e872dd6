// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: выбирает хранилище, создаёт сервисы, HTTP-сервер
// и планировщик и собирает всё в один объект App.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/api"
	"serotonyl.ru/taskmarket/internal/config"
	"serotonyl.ru/taskmarket/internal/db/memory"
	"serotonyl.ru/taskmarket/internal/db/postgres"
	"serotonyl.ru/taskmarket/internal/features/admin"
	"serotonyl.ru/taskmarket/internal/features/members"
	"serotonyl.ru/taskmarket/internal/features/moderation"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/features/submissions"
	"serotonyl.ru/taskmarket/internal/features/tasks"
	"serotonyl.ru/taskmarket/internal/features/wallet"
	"serotonyl.ru/taskmarket/internal/jobs"
	"serotonyl.ru/taskmarket/internal/ledger"
)

// App содержит все компоненты приложения.
type App struct {
	Store     ledger.Store
	Services  api.Services
	HTTP      *http.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool // nil для хранилища в памяти
	cfg       *config.Config
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	// === 1. Хранилище ===
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Используется хранилище в памяти: данные пропадут при остановке")
		a.Store = memory.New()
	default:
		pool, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.DB = pool
		a.Store = postgres.NewStore(pool)
	}

	// === 2. Сервисы ===
	a.Services = NewServices(a.Store, cfg)

	// === 3. Администратор из конфигурации ===
	if cfg.AdminEmail != "" {
		if _, err := a.Services.Members.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPasswordHash); err != nil {
			a.Close()
			return nil, fmt.Errorf("ошибка назначения администратора: %w", err)
		}
	}

	// === 4. HTTP API ===
	server := api.NewServer(a.Services, api.NewTokenManager(cfg))
	if cfg.MetricsEnabled {
		server.EnableMetrics()
	}
	a.HTTP = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// === 5. Планировщик задач ===
	a.Scheduler = jobs.NewScheduler(a.Store, a.Services.Moderation, a.Services.Notifications, cfg)

	return a, nil
}

// NewServices связывает доменные сервисы поверх хранилища.
func NewServices(store ledger.Store, cfg *config.Config) api.Services {
	walletService := wallet.NewService(store, cfg)
	notificationService := notifications.NewService(store)
	adminService := admin.NewService(store)
	referralService := referrals.NewService(store, walletService, notificationService, cfg)
	taskService := tasks.NewService(store, walletService, cfg)

	return api.Services{
		Members:       members.NewService(store, referralService, cfg),
		Wallet:        walletService,
		Tasks:         taskService,
		Submissions:   submissions.NewService(store, walletService, taskService, notificationService),
		Moderation:    moderation.NewService(store, walletService, adminService, referralService, notificationService, cfg),
		Notifications: notificationService,
		Referrals:     referralService,
		Admin:         adminService,
	}
}

// OpenDatabase подключается к PostgreSQL и применяет миграции.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}
	return pool, nil
}

// Run запускает HTTP-сервер и планировщик и блокируется до отмены ctx,
// после чего останавливает всё с таймаутом HTTP_SHUTDOWN_TIMEOUT.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.DigestEnabled {
		if err := a.Scheduler.Start(ctx); err != nil {
			return err
		}
		defer a.Scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", a.HTTP.Addr).Info("HTTP-сервер запущен")
		if err := a.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPShutdownTimeout)
	defer cancel()
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ошибка остановки HTTP-сервера: %w", err)
	}
	log.Info("HTTP-сервер остановлен")
	return nil
}

// Close освобождает ресурсы.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
