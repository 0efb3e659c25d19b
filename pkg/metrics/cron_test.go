package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilRegistererProducesNoopMetrics(t *testing.T) {
	m := NewCronJobMetrics(nil)
	// Must not panic.
	m.ObserveDuration("leaderboard-reset", time.Second)
	m.IncSuccess("leaderboard-reset")
	m.IncFailure("leaderboard-reset")
}

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("otp-cleanup")
	m.IncSuccess("otp-cleanup")
	m.IncFailure("otp-cleanup")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.success.WithLabelValues("otp-cleanup")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("otp-cleanup")))
}

func TestEmptyJobLabelNormalized(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.IncSuccess("")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.success.WithLabelValues("unknown")))
}
