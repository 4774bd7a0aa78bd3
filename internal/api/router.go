// Package api serves the coach HTTP surface: the crypto radar agent, the
// goal coaching agents, PowerSense admin reports, health and metrics.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kalambet/coach/internal/agents"
	"github.com/kalambet/coach/internal/goal"
	"github.com/kalambet/coach/internal/intent"
	"github.com/kalambet/coach/internal/ledger"
	"github.com/kalambet/coach/internal/metrics"
	"github.com/kalambet/coach/internal/radar"
	"github.com/kalambet/coach/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// SessionHeader selects whose latest goal GET /agents/goal/latest returns.
const SessionHeader = "X-Session-ID"

// RadarAgent answers crypto radar requests.
type RadarAgent interface {
	Ask(ctx context.Context, message string) (radar.Response, error)
	Handle(ctx context.Context, req intent.Request) (radar.Response, error)
}

// AlertReader lists on-chain alerts.
type AlertReader interface {
	AlertsByOwner(ctx context.Context, owner string) ([]ledger.Alert, error)
}

// AdminStore provides the PowerSense reports.
type AdminStore interface {
	ListRooms(ctx context.Context) ([]storage.Room, error)
	ListPowerAlerts(ctx context.Context) ([]storage.PowerAlert, error)
	DailyUsage(ctx context.Context) ([]storage.DailyUsage, error)
	Summary(ctx context.Context) (storage.UsageSummary, error)
}

type Deps struct {
	Radar  RadarAgent
	Alerts AlertReader
	Goals  *agents.Service
	Admin  AdminStore
	// Token, when non-empty, is required as a bearer token on /agents routes.
	Token  string
	Logger *slog.Logger
}

// NewRouter builds the full HTTP handler.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/agent", handleAgent(deps.Radar))
	r.Get("/alerts", handleAlerts(deps.Alerts))

	r.Route("/agents", func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}
		r.Use(withSession)
		r.Post("/intake", handleIntake(deps.Goals))
		r.Post("/planner", handlePlanner(deps.Goals))
		r.Post("/accountability", handleAccountability(deps.Goals))
		r.Post("/reflection", handleReflection(deps.Goals))
		r.Patch("/goal", handleUpdateGoal(deps.Goals))
		r.Get("/goal/latest", handleLatestGoal(deps.Goals))
		r.Get("/goal/{id}", handleGetGoal(deps.Goals))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/rooms", handleRooms(deps.Admin))
		r.Get("/alerts", handlePowerAlerts(deps.Admin))
		r.Get("/usage/daily", handleDailyUsage(deps.Admin))
		r.Get("/summary", handleSummary(deps.Admin))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// withSession carries the caller's session id into the request context.
func withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := goal.WithSession(r.Context(), r.Header.Get(SessionHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	writeJSON(w, code, map[string]string{"error": fmt.Sprintf(format, args...)})
}
