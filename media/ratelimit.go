package media

import (
	"context"
	"sync"
	"time"

	csmap "github.com/mhmtszr/concurrent-swiss-map"
)

// ProviderLimit configures the rate limit for one provider.
type ProviderLimit struct {
	MinInterval time.Duration // minimum spacing between requests
	DailyLimit  int           // requests per day, 0 = unlimited
}

// providerQuota is the mutable rate state for one provider. Counters are
// only touched under mu, so a check and its increment are one atomic unit.
type providerQuota struct {
	mu            sync.Mutex
	requestsToday int
	quotaResetAt  time.Time
	lastRequestAt time.Time
	nextAllowedAt time.Time
}

// RateLimiter spaces requests per provider and enforces daily quotas.
// Construct one per process and share it between resolvers.
type RateLimiter struct {
	limits map[string]ProviderLimit
	quotas *csmap.CsMap[string, *providerQuota]

	initMu sync.Mutex

	// now and sleep are swapped out in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRateLimiter creates a rate limiter with the given per-provider limits.
// Providers without an entry are unlimited but still serialized through
// their quota state.
func NewRateLimiter(limits map[string]ProviderLimit) *RateLimiter {
	if limits == nil {
		limits = make(map[string]ProviderLimit)
	}
	return &RateLimiter{
		limits: limits,
		quotas: csmap.Create[string, *providerQuota](),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Acquire reserves one request slot for the provider. It blocks until the
// minimum spacing from the previous request is satisfied and returns true,
// or returns false immediately when the daily quota is exhausted. A non-nil
// error only means the context was cancelled while waiting.
func (rl *RateLimiter) Acquire(ctx context.Context, providerID string) (bool, error) {
	q := rl.quota(providerID)
	limit := rl.limits[providerID]

	q.mu.Lock()
	now := rl.now()

	// Roll the daily window.
	if !now.Before(q.quotaResetAt) {
		q.requestsToday = 0
		q.quotaResetAt = nextMidnight(now)
	}

	if limit.DailyLimit > 0 && q.requestsToday >= limit.DailyLimit {
		q.mu.Unlock()
		return false, nil
	}

	// Reserve the next slot. Each caller gets its own slot, so concurrent
	// acquisitions come out spaced by MinInterval.
	slot := now
	if slot.Before(q.nextAllowedAt) {
		slot = q.nextAllowedAt
	}
	q.requestsToday++
	q.lastRequestAt = slot
	q.nextAllowedAt = slot.Add(limit.MinInterval)
	wait := slot.Sub(now)
	q.mu.Unlock()

	if err := rl.sleep(ctx, wait); err != nil {
		return false, err
	}
	return true, nil
}

// RequestsToday returns the current daily counter for a provider.
func (rl *RateLimiter) RequestsToday(providerID string) int {
	q := rl.quota(providerID)
	q.mu.Lock()
	defer q.mu.Unlock()
	if !rl.now().Before(q.quotaResetAt) {
		return 0
	}
	return q.requestsToday
}

func (rl *RateLimiter) quota(providerID string) *providerQuota {
	if q, ok := rl.quotas.Load(providerID); ok {
		return q
	}
	rl.initMu.Lock()
	defer rl.initMu.Unlock()
	if q, ok := rl.quotas.Load(providerID); ok {
		return q
	}
	q := &providerQuota{}
	rl.quotas.Store(providerID, q)
	return q
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}
