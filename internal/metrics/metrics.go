package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/brettbedarf/projfs"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label for successful operations; failures use their error code
const OutcomeOK = "ok"

// Backend operation metrics
var (
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projfs_operations_total",
			Help: "Total list and create operations by outcome",
		},
		[]string{"op", "outcome"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projfs_operation_duration_seconds",
			Help:    "Time to list a directory or create an entry",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"op"},
	)

	EntriesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projfs_entries_created_total",
			Help: "Total entries created by kind",
		},
		[]string{"kind"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projfs_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "projfs_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(
		OperationsTotal,
		OperationDuration,
		EntriesCreatedTotal,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// EchoMiddleware returns Echo middleware that instruments HTTP requests.
func EchoMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			HTTPRequestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				strconv.Itoa(status),
			).Inc()
			HTTPRequestDuration.WithLabelValues(c.Request().Method, c.Path()).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Outcome labels err by its stable error code
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(projfs.CodeOf(err))
}

func observe(op string, start time.Time, err error) {
	OperationsTotal.WithLabelValues(op, Outcome(err)).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// instrumented records every call made through a backend
type instrumented struct {
	next projfs.Backend
}

// Instrument wraps next so each list and create is counted and timed
func Instrument(next projfs.Backend) projfs.Backend {
	return &instrumented{next: next}
}

func (b *instrumented) List(ctx context.Context, dir string) (*projfs.Listing, error) {
	start := time.Now()
	l, err := b.next.List(ctx, dir)
	observe("list", start, err)
	return l, err
}

func (b *instrumented) Create(ctx context.Context, currentDir, input string) (*projfs.Created, error) {
	start := time.Now()
	c, err := b.next.Create(ctx, currentDir, input)
	observe("create", start, err)
	if err == nil {
		EntriesCreatedTotal.WithLabelValues(string(c.Kind)).Inc()
	}
	return c, err
}
