// Package httptransport assembles the HTTP surface: middleware chain,
// feature routers, health and metrics endpoints.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerhandler "fieldsafe/internal/ledger/handler"
	"fieldsafe/internal/platform/metrics"
	"fieldsafe/internal/platform/middleware"
	visithandler "fieldsafe/internal/visit/handler"
	worksitehandler "fieldsafe/internal/worksite/handler"
	"fieldsafe/pkg/platform/httputil"
)

// HealthChecker probes one dependency. A nil error means healthy.
type HealthChecker func(ctx context.Context) error

// Deps carries everything the router mounts.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator *middleware.JWTValidator

	Persons   *ledgerhandler.Handler
	Worksites *worksitehandler.Handler
	Visits    *visithandler.Handler

	// Health probes by dependency name, reported on /healthz.
	Health map[string]HealthChecker
}

// NewRouter builds the full HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger, deps.Metrics))

	r.Get("/healthz", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Persons.Register(r)
		deps.Worksites.Register(r)
		deps.Visits.Register(r)
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(probes map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		status := http.StatusOK
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
