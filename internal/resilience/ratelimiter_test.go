package resilience_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"FeedHarvester/internal/resilience"
)

func TestLimiterBurstThenBlocks(t *testing.T) {
	t.Parallel()

	rl := resilience.NewRateLimiter(resilience.LimiterConfig{Rate: 0.01, Burst: 3})

	for i := 0; i < 3; i++ {
		require.NoError(t, rl.TryAcquire())
	}
	require.ErrorIs(t, rl.TryAcquire(), resilience.ErrWouldBlock)
}

func TestLimiterTokensNeverExceedBurst(t *testing.T) {
	t.Parallel()

	rl := resilience.NewRateLimiter(resilience.LimiterConfig{Rate: 1000, Burst: 5})
	time.Sleep(20 * time.Millisecond)

	require.LessOrEqual(t, rl.Tokens(), 5.0)
	require.GreaterOrEqual(t, rl.Tokens(), 0.0)
}

func TestLimiterNoOversubscriptionUnderConcurrency(t *testing.T) {
	t.Parallel()

	rl := resilience.NewRateLimiter(resilience.LimiterConfig{Rate: 0.01, Burst: 5})

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.TryAcquire() == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 5, wins)
}

func TestLimiterAcquireWaitsForRefill(t *testing.T) {
	t.Parallel()

	rl := resilience.NewRateLimiter(resilience.LimiterConfig{Rate: 50, Burst: 1})
	require.NoError(t, rl.TryAcquire())

	start := time.Now()
	require.NoError(t, rl.Acquire(context.Background()))
	elapsed := time.Since(start)

	// One token refills in 20ms at 50/s.
	require.GreaterOrEqual(t, elapsed, 10*time.Millisecond)
}

func TestLimiterAcquireHonorsContext(t *testing.T) {
	t.Parallel()

	rl := resilience.NewRateLimiter(resilience.LimiterConfig{Rate: 0.01, Burst: 1})
	require.NoError(t, rl.TryAcquire())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.ErrorIs(t, rl.Acquire(ctx), context.DeadlineExceeded)
}
