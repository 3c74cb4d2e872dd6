// Package metrics — счётчики Prometheus для маркетплейса.
// Метрики регистрируются в реестре по умолчанию и отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskmarket"

var (
	// MoneyMoved — сумма завершённых движений денег по типу транзакции.
	MoneyMoved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "money_moved_total",
		Help:      "Sum of completed ledger movements by transaction type.",
	}, []string{"type"})

	TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_created_total",
		Help:      "Tasks created with escrow debit.",
	})

	// Submissions — пруфы по статусу: pending (отправлен), approved, rejected.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Task submissions by resulting status.",
	}, []string{"status"})

	// ModerationDecisions — решения модераторов по заявкам.
	ModerationDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_decisions_total",
		Help:      "Admin decisions on deposits and withdrawals.",
	}, []string{"type", "decision"})

	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Registered accounts by referral presence.",
	}, []string{"referred"})

	// PendingQueue — размер очереди модерации, обновляется cron-задачей.
	PendingQueue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "moderation_queue_size",
		Help:      "Pending deposits and withdrawals awaiting an admin.",
	}, []string{"type"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)
