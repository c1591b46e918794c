package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/loaves/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loaves"

// Metrics holds the storefront collectors and the registry they live on.
type Metrics struct {
	Registry *prometheus.Registry

	Requests   *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	CartEvents *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on a fresh registry.
// Process and Go runtime collectors are included.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CartEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cart_events_total",
				Help:      "Total number of cart lifecycle events",
			},
			[]string{"event"},
		),
	}

	m.Registry.MustRegister(
		m.Requests,
		m.Duration,
		m.CartEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Hooks returns cart hooks that count every event by type.
func (m *Metrics) Hooks() domain.CartHooks {
	count := func(_ context.Context, e *domain.CartEvent) {
		m.CartEvents.WithLabelValues(string(e.Type)).Inc()
	}
	return domain.CartHooks{
		OnItemAdded:       count,
		OnQuantityChanged: count,
		OnItemRemoved:     count,
		OnCartCleared:     count,
		OnCheckout:        count,
	}
}

// Middleware records request count and latency. The route label is the chi
// route pattern so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.Requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.Duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
