package media

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClock drives a rate limiter without real sleeping. Slept durations
// are recorded and advance the clock.
type testClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d > 0 {
		c.slept = append(c.slept, d)
		c.now = c.now.Add(d)
	}
	return nil
}

func newTestLimiter(limits map[string]ProviderLimit) (*RateLimiter, *testClock) {
	rl := NewRateLimiter(limits)
	clock := newTestClock()
	rl.now = clock.Now
	rl.sleep = clock.Sleep
	return rl, clock
}

func TestAcquire_FirstRequestImmediate(t *testing.T) {
	rl, clock := newTestLimiter(map[string]ProviderLimit{
		"rawg": {MinInterval: 200 * time.Millisecond, DailyLimit: 100},
	})

	ok, err := rl.Acquire(context.Background(), "rawg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, clock.slept, "first request should not wait")
}

func TestAcquire_EnforcesSpacing(t *testing.T) {
	rl, clock := newTestLimiter(map[string]ProviderLimit{
		"rawg": {MinInterval: 200 * time.Millisecond, DailyLimit: 100},
	})
	ctx := context.Background()

	for range 3 {
		ok, err := rl.Acquire(ctx, "rawg")
		require.NoError(t, err)
		require.True(t, ok)
	}

	// Two follow-up requests each wait out the spacing.
	require.Len(t, clock.slept, 2)
	for _, d := range clock.slept {
		assert.Equal(t, 200*time.Millisecond, d)
	}
}

func TestAcquire_QuotaExhaustedReturnsImmediately(t *testing.T) {
	rl, clock := newTestLimiter(map[string]ProviderLimit{
		"rawg": {MinInterval: time.Millisecond, DailyLimit: 2},
	})
	ctx := context.Background()

	for range 2 {
		ok, err := rl.Acquire(ctx, "rawg")
		require.NoError(t, err)
		require.True(t, ok)
	}

	sleptBefore := len(clock.slept)
	ok, err := rl.Acquire(ctx, "rawg")
	require.NoError(t, err)
	assert.False(t, ok, "quota exhausted should refuse")
	assert.Len(t, clock.slept, sleptBefore, "quota refusal must not wait")
	assert.Equal(t, 2, rl.RequestsToday("rawg"))
}

func TestAcquire_QuotaResetsAtMidnight(t *testing.T) {
	rl, clock := newTestLimiter(map[string]ProviderLimit{
		"rawg": {DailyLimit: 1},
	})
	ctx := context.Background()

	ok, err := rl.Acquire(ctx, "rawg")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = rl.Acquire(ctx, "rawg")
	require.NoError(t, err)
	require.False(t, ok)

	// Next day the counter rolls over.
	clock.mu.Lock()
	clock.now = clock.now.Add(24 * time.Hour)
	clock.mu.Unlock()

	ok, err = rl.Acquire(ctx, "rawg")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, rl.RequestsToday("rawg"))
}

func TestAcquire_ProvidersIndependent(t *testing.T) {
	rl, _ := newTestLimiter(map[string]ProviderLimit{
		"rawg":       {DailyLimit: 1},
		"thegamesdb": {DailyLimit: 1},
	})
	ctx := context.Background()

	ok, _ := rl.Acquire(ctx, "rawg")
	require.True(t, ok)
	ok, _ = rl.Acquire(ctx, "rawg")
	require.False(t, ok)

	// The other provider's quota is untouched.
	ok, _ = rl.Acquire(ctx, "thegamesdb")
	assert.True(t, ok)
}

func TestAcquire_UnknownProviderUnlimited(t *testing.T) {
	rl, clock := newTestLimiter(nil)
	ctx := context.Background()

	for range 10 {
		ok, err := rl.Acquire(ctx, "mystery")
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Empty(t, clock.slept)
}

func TestAcquire_ConcurrentCallersNeverExceedQuota(t *testing.T) {
	const limit = 5
	rl := NewRateLimiter(map[string]ProviderLimit{
		"rawg": {DailyLimit: limit},
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := rl.Acquire(context.Background(), "rawg")
			require.NoError(t, err)
			if ok {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, limit, granted, "grants must match the quota exactly")
	assert.Equal(t, limit, rl.RequestsToday("rawg"))
}

func TestAcquire_ConcurrentCallersAreSpaced(t *testing.T) {
	interval := 20 * time.Millisecond
	rl := NewRateLimiter(map[string]ProviderLimit{
		"rawg": {MinInterval: interval, DailyLimit: 100},
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var stamps []time.Time

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := rl.Acquire(context.Background(), "rawg")
			require.NoError(t, err)
			require.True(t, ok)
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, stamps, 4)
	// Sort by wall time and check pairwise spacing. A small scheduling
	// tolerance avoids flakes on slow machines.
	for i := range stamps {
		for j := i + 1; j < len(stamps); j++ {
			if stamps[j].Before(stamps[i]) {
				stamps[i], stamps[j] = stamps[j], stamps[i]
			}
		}
	}
	for i := 1; i < len(stamps); i++ {
		gap := stamps[i].Sub(stamps[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond,
			"requests %d and %d too close: %v", i-1, i, gap)
	}
}

func TestAcquire_ContextCancelledWhileWaiting(t *testing.T) {
	rl := NewRateLimiter(map[string]ProviderLimit{
		"rawg": {MinInterval: time.Minute, DailyLimit: 100},
	})

	ctx, cancel := context.WithCancel(context.Background())
	ok, err := rl.Acquire(ctx, "rawg")
	require.NoError(t, err)
	require.True(t, ok)

	cancel()
	ok, err = rl.Acquire(ctx, "rawg")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
