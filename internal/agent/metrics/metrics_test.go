package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	errx "github.com/placefinder/server/internal/core/error"
)

func TestObserveUpstream(t *testing.T) {
	before := testutil.ToFloat64(UpstreamCalls.WithLabelValues("svc", "503"))
	ObserveUpstream("svc", errx.WrapUpstream("svc", &errx.UpstreamError{Service: "svc", Status: 503}))
	assert.Equal(t, before+1, testutil.ToFloat64(UpstreamCalls.WithLabelValues("svc", "503")))

	assert.Equal(t, "ok", upstreamStatus(nil))
	assert.Equal(t, "error", upstreamStatus(errors.New("dial tcp: refused")))
}

func TestObserveAction(t *testing.T) {
	before := testutil.ToFloat64(ActionInvocations.WithLabelValues("action_x", OutcomeOK))
	ObserveAction("action_x", OutcomeOK, 20*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(ActionInvocations.WithLabelValues("action_x", OutcomeOK)))
}
