package monitoring

import (
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eventstudio/eventstudio-api/internal/apperr"
)

const (
	OperationBook    = "book"
	OperationCancel  = "cancel"
	OperationCheckIn = "check_in"

	OutcomeSuccess = "success"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ticketOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_operations_total",
			Help: "Total ticket operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	_ = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "active_goroutines_total",
			Help: "Current number of active goroutines",
		},
		func() float64 { return float64(runtime.NumGoroutine()) },
	)
)

// TrackHTTPRequest records a served request. route is the matched pattern,
// not the raw path, to keep label cardinality bounded.
func TrackHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackTicketOperation counts an operation under its error kind, or success when err is nil.
func TrackTicketOperation(operation string, err error) {
	ticketOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func Outcome(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	return apperr.KindOf(err).String()
}
