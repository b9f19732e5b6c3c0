package client

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace      = "bugboard"
	operationLabel = "operation"
	outcomeLabel   = "outcome"
)

// Metrics tracks calls made to the bug-tracker API.
type Metrics struct {
	callsTotal  *prometheus.CounterVec
	callSeconds *prometheus.HistogramVec
}

// NewMetrics registers the upstream metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		callsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "calls_total",
			Help:      "Total number of calls to the bug-tracker API by operation and outcome.",
		}, []string{operationLabel, outcomeLabel}),
		callSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "call_seconds",
			Help:      "Latency of calls to the bug-tracker API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{operationLabel}),
	}
}

func (m *Metrics) record(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(op, outcome(err)).Inc()
	m.callSeconds.WithLabelValues(op).Observe(d.Seconds())
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "server"
	}
}
