// Package metrics exposes Prometheus collectors for the HTTP API and the
// grievance event stream.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "grievancedesk/internal/errors"
	"grievancedesk/internal/events"
)

const namespace = "grievancedesk"

// Metrics holds the collectors registered for one process.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	events   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: method, route (echo path pattern), status
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		// Labels: key (routing key), result (ok, error)
		events: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Grievance events handed to the broker",
		}, []string{"key", "result"}),
	}
}

// Middleware records count and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				// the error handler has not written the response yet
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				} else {
					status = apperrors.MapErrorToHTTP(err).StatusCode
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.requests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			m.latency.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Publisher counts every publish attempt made through next.
func (m *Metrics) Publisher(next events.Publisher) events.Publisher {
	return &countingPublisher{next: next, counter: m.events}
}

type countingPublisher struct {
	next    events.Publisher
	counter *prometheus.CounterVec
}

func (p *countingPublisher) Publish(ctx context.Context, key string, v any) error {
	err := p.next.Publish(ctx, key, v)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.counter.WithLabelValues(key, result).Inc()
	return err
}

func (p *countingPublisher) Close() error {
	return p.next.Close()
}
