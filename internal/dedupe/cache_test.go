package dedupe_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"FeedHarvester/internal/dedupe"
)

func TestTryClaimFirstWins(t *testing.T) {
	t.Parallel()

	cache := dedupe.NewURLCache()
	require.True(t, cache.TryClaim("https://example.com/a"))
	require.False(t, cache.TryClaim("https://example.com/a"))
	require.True(t, cache.Contains("https://example.com/a"))
}

func TestTryClaimExactlyOneWinnerUnderConcurrency(t *testing.T) {
	t.Parallel()

	cache := dedupe.NewURLCache()

	const workers = 64
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.TryClaim("https://example.com/contested") {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
}

func TestTryClaimDistinctURLsAllWin(t *testing.T) {
	t.Parallel()

	cache := dedupe.NewURLCache()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if cache.TryClaim(fmt.Sprintf("https://example.com/%d", i)) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 20, wins)
	require.Equal(t, 20, cache.Len())
}

func TestCanonicalNormalizes(t *testing.T) {
	t.Parallel()

	cache := dedupe.NewURLCache()
	require.True(t, cache.TryClaim("HTTPS://Example.COM/path/"))
	require.False(t, cache.TryClaim("https://example.com/path#section"))
}

func TestCanonicalKeepsUnparseableInput(t *testing.T) {
	t.Parallel()

	require.Equal(t, "not a url", dedupe.Canonical("  not a url "))
}
