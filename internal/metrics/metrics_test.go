package metrics

import (
	"testing"

	"github.com/perbu/sessmon/internal/async"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New("test", reg)

	c.Observe(async.Status{ID: 1, State: async.StateRunning})
	if got := testutil.ToFloat64(c.started); got != 1 {
		t.Errorf("started = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.inflight); got != 1 {
		t.Errorf("inflight = %v, want 1", got)
	}

	c.Observe(async.Status{ID: 1, State: async.StateSucceeded})
	if got := testutil.ToFloat64(c.succeeded); got != 1 {
		t.Errorf("succeeded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.inflight); got != 0 {
		t.Errorf("inflight = %v, want 0", got)
	}

	c.Observe(async.Status{ID: 2, State: async.StateRunning})
	c.Observe(async.Status{ID: 2, State: async.StateFailed})
	if got := testutil.ToFloat64(c.failed); got != 1 {
		t.Errorf("failed = %v, want 1", got)
	}

	c.Observe(async.Status{ID: 3, State: async.StateRunning})
	c.Observe(async.Status{ID: 3, State: async.StateCanceled})
	if got := testutil.ToFloat64(c.canceled); got != 1 {
		t.Errorf("canceled = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.started); got != 3 {
		t.Errorf("started = %v, want 3", got)
	}
}

func TestSetActiveSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New("", reg)

	c.SetActiveSessions(12)
	if got := testutil.ToFloat64(c.sessions); got != 12 {
		t.Errorf("sessions = %v, want 12", got)
	}
}
