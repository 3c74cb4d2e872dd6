// Package api — middleware.go: журнал запросов, метрики и восстановление после паники.
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/taskmarket/internal/metrics"
)

// logRequests пишет строку журнала на каждый запрос и обновляет метрики.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		entry := log.WithFields(log.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"route":      route,
			"status":     status,
			"bytes":      ww.BytesWritten(),
			"elapsed":    elapsed.String(),
			"remote":     r.RemoteAddr,
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("HTTP-запрос")
		} else {
			entry.Debug("HTTP-запрос")
		}
	})
}

// routePattern возвращает шаблон маршрута chi, чтобы метки метрик не зависели от ID.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// recoverPanic перехватывает панику обработчика и отвечает 500.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			log.WithFields(log.Fields{
				"component":  "panic_recovery",
				"request_id": middleware.GetReqID(r.Context()),
				"panic":      fmt.Sprintf("%v", rec),
				"stack":      string(debug.Stack()),
			}).Error("ПАНИКА в обработчике — восстановлено")
			writeJSON(w, http.StatusInternalServerError, errorBody{
				Error:   "internal",
				Message: "internal server error",
			})
		}()
		next.ServeHTTP(w, r)
	})
}
