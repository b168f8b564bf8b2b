package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"profast/internal/platform/metrics"
	"profast/internal/platform/middleware"
)

// Module is a feature handler that mounts its own routes.
type Module interface {
	Register(r chi.Router, g middleware.Guards)
}

type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Guards         middleware.Guards
	RequestTimeout time.Duration
	Checks         []HealthCheck
	Modules        []Module
}

// NewRouter builds the full route tree behind the shared middleware chain.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger, d.Metrics))
	r.Use(middleware.Recovery(d.Logger))
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}

	r.Get("/", home)
	r.Get("/healthz", healthHandler(d.Checks))
	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, m := range d.Modules {
		m.Register(r, d.Guards)
	}
	return r
}

func home(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Profast home page api"))
}
