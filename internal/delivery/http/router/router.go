package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/wikiracer/internal/delivery/http/handler"
	"github.com/user/wikiracer/internal/delivery/http/middleware"
	"github.com/user/wikiracer/pkg/metrics"
	"go.uber.org/zap"
)

// RequestTimeout bounds a handler. The server's write deadline sits above it so
// a timed-out request still gets its 504.
const RequestTimeout = 8 * time.Second

// NewServer returns an http.Server whose deadlines agree with RequestTimeout.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: RequestTimeout + 2*time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// New builds the API router. gatherer backs /metrics; nil serves the default registry.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(RequestTimeout))

	r.Get("/api/health", h.HandleHealthCheck)
	r.Post("/api/races", h.HandleSubmitRace)
	r.Get("/api/races/{id}", h.HandleGetRaceStatus)

	// Prometheus metrics endpoint
	if gatherer == nil {
		r.Handle("/metrics", promhttp.Handler())
	} else {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
