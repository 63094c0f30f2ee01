// Package metrics holds the Prometheus collectors of the action server.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	errx "github.com/placefinder/server/internal/core/error"
)

const namespace = "placefinder"

// Action outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomePanic    = "panic"
	OutcomeNotFound = "not_found"
)

var (
	ActionInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "action_invocations_total",
		Help:      "Custom action executions by action name and outcome.",
	}, []string{"action", "outcome"})

	ActionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "action_duration_seconds",
		Help:      "Time spent running a custom action.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_calls_total",
		Help:      "Calls to external services by service and resulting status.",
	}, []string{"service", "status"})
)

// ObserveAction records one action run.
func ObserveAction(action, outcome string, took time.Duration) {
	ActionInvocations.WithLabelValues(action, outcome).Inc()
	ActionDuration.WithLabelValues(action).Observe(took.Seconds())
}

// ObserveUpstream records one call to service. The status label is "ok", the
// upstream HTTP status when known, or "error".
func ObserveUpstream(service string, err error) {
	UpstreamCalls.WithLabelValues(service, upstreamStatus(err)).Inc()
}

func upstreamStatus(err error) string {
	if err == nil {
		return "ok"
	}
	var ue *errx.UpstreamError
	if errors.As(err, &ue) && ue.Status != 0 {
		return strconv.Itoa(ue.Status)
	}
	return "error"
}
