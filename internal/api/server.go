// Package api — server.go собирает маршрутизатор и общие помощники ответа.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/common"
	"serotonyl.ru/taskmarket/internal/features/admin"
	"serotonyl.ru/taskmarket/internal/features/members"
	"serotonyl.ru/taskmarket/internal/features/moderation"
	"serotonyl.ru/taskmarket/internal/features/notifications"
	"serotonyl.ru/taskmarket/internal/features/referrals"
	"serotonyl.ru/taskmarket/internal/features/submissions"
	"serotonyl.ru/taskmarket/internal/features/tasks"
	"serotonyl.ru/taskmarket/internal/features/wallet"
)

const maxBodyBytes = 1 << 20

// Services — доменные сервисы, которые обслуживает HTTP-слой.
type Services struct {
	Members       *members.Service
	Wallet        *wallet.Service
	Tasks         *tasks.Service
	Submissions   *submissions.Service
	Moderation    *moderation.Service
	Notifications *notifications.Service
	Referrals     *referrals.Service
	Admin         *admin.Service
}

// Server — HTTP API маркетплейса.
type Server struct {
	svc            Services
	tokens         *TokenManager
	metricsEnabled bool
}

// NewServer создаёт API-сервер.
func NewServer(svc Services, tokens *TokenManager) *Server {
	return &Server{svc: svc, tokens: tokens}
}

// EnableMetrics включает эндпоинт /metrics.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler возвращает маршрутизатор со всеми маршрутами.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logRequests)
	r.Use(recoverPanic)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/me", s.handleProfile)
			r.Get("/me/tasks", s.handleMyTasks)
			r.Get("/me/submissions", s.handleMySubmissions)
			r.Get("/me/reviews", s.handleMyReviews)
			r.Get("/me/transactions", s.handleHistory)
			r.Get("/me/notifications", s.handleNotifications)
			r.Get("/me/notifications/unread", s.handleUnreadCount)
			r.Post("/me/notifications/read-all", s.handleReadAll)
			r.Get("/me/referrals", s.handleReferrals)

			r.Get("/tasks", s.handleListTasks)
			r.Post("/tasks", s.handleCreateTask)
			r.Get("/tasks/{id}", s.handleGetTask)
			r.Post("/tasks/{id}/deactivate", s.handleDeactivateTask)
			r.Post("/tasks/{id}/submissions", s.handleSubmit)
			r.Post("/submissions/{id}/review", s.handleReview)

			r.Get("/wallet", s.handleBalances)
			r.Post("/wallet/deposits", s.handleRequestDeposit)
			r.Post("/wallet/withdrawals", s.handleRequestWithdrawal)

			r.Post("/notifications/{id}/read", s.handleMarkRead)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", s.handleAdminUsers)
				r.Post("/users/{id}/ban", s.handleAdminBan)
				r.Get("/deposits", s.handleAdminDeposits)
				r.Post("/deposits/{id}/{decision}", s.handleAdminDeposit)
				r.Get("/withdrawals", s.handleAdminWithdrawals)
				r.Post("/withdrawals/{id}/{decision}", s.handleAdminWithdrawal)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: string(common.KindNotFound), Message: "route not found"})
	})
	return r
}

// errorBody — тело ответа с ошибкой.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor переводит вид ошибки в HTTP-статус.
func statusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindInsufficientFunds:
		return http.StatusPaymentRequired
	case common.KindUnauthorized:
		if isTokenError(err) {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case common.KindInvalidState, common.KindDuplicateSubmission:
		return http.StatusConflict
	case common.KindSelfSubmission:
		return http.StatusUnprocessableEntity
	case common.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON пишет JSON-ответ.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Debug("Ошибка записи ответа")
	}
}

// writeError пишет ошибку домена. Внутренние ошибки наружу не раскрываются.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	kind := common.KindOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"route":      routePattern(r),
		}).WithError(err).Error("Внутренняя ошибка")
		kind = common.KindInternal
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: string(kind), Message: msg})
}

// decode читает JSON-тело запроса.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedBody, err)
	}
	return nil
}

// pathID читает числовой параметр {id}.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrInvalidID
	}
	return id, nil
}
