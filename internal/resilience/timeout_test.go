package resilience_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FeedHarvester/internal/resilience"
)

func TestEstimatorStaticFallbackBelowMinSamples(t *testing.T) {
	t.Parallel()

	te := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{
		MinSamples: 10,
		Default:    30 * time.Second,
	})

	for i := 0; i < 9; i++ {
		te.Record(100 * time.Millisecond)
	}

	got := te.Estimate()
	require.Equal(t, 30*time.Second, got.Connect)
	require.Equal(t, 30*time.Second, got.Read)
	require.Equal(t, 30*time.Second, got.Total)
}

func TestEstimatorAdaptsAfterMinSamples(t *testing.T) {
	t.Parallel()

	te := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{
		MinSamples: 10,
		Floor:      time.Second,
		Default:    30 * time.Second,
	})

	for i := 0; i < 20; i++ {
		te.Record(time.Second)
	}

	got := te.Estimate()
	require.Equal(t, time.Duration(1.5*float64(time.Second))+5*time.Second, got.Connect)
	require.Equal(t, time.Duration(1.2*float64(time.Second))+10*time.Second, got.Read)
	require.Equal(t, time.Duration(1.1*float64(time.Second))+15*time.Second, got.Total)
}

func TestEstimatorMonotoneInLatency(t *testing.T) {
	t.Parallel()

	slow := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{MinSamples: 10})
	fast := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{MinSamples: 10})

	for i := 0; i < 20; i++ {
		fast.Record(50 * time.Millisecond)
		slow.Record(5 * time.Second)
	}

	fastT, slowT := fast.Estimate(), slow.Estimate()
	require.LessOrEqual(t, fastT.Connect, slowT.Connect)
	require.LessOrEqual(t, fastT.Read, slowT.Read)
	require.LessOrEqual(t, fastT.Total, slowT.Total)
}

func TestEstimatorFloor(t *testing.T) {
	t.Parallel()

	te := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{
		MinSamples: 1,
		Floor:      20 * time.Second,
	})
	te.Record(time.Millisecond)

	got := te.Estimate()
	require.GreaterOrEqual(t, got.Connect, 20*time.Second)
	require.GreaterOrEqual(t, got.Read, 20*time.Second)
	require.GreaterOrEqual(t, got.Total, 20*time.Second)
}

func TestEstimatorBoundedHistory(t *testing.T) {
	t.Parallel()

	te := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{Capacity: 5, MinSamples: 1})

	for i := 0; i < 100; i++ {
		te.Record(time.Duration(i) * time.Millisecond)
	}
	require.Equal(t, 5, te.Count())

	// Only the newest five samples remain, so the estimate reflects the
	// 95..99ms window, not the early cheap ones.
	got := te.Estimate()
	require.Greater(t, got.Total, 15*time.Second)
}

func TestEstimatorIgnoresNegativeSamples(t *testing.T) {
	t.Parallel()

	te := resilience.NewTimeoutEstimator(resilience.EstimatorConfig{})
	te.Record(-time.Second)
	require.Equal(t, 0, te.Count())
}
