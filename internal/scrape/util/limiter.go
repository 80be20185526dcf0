package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SourceLimiter rate-limits per external source (places API, yelp,
// yellowpages, etc). Pacing is a global budget shared by every caller, so
// the limiter is safe for concurrent use.
type SourceLimiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

func NewSourceLimiter(reqPerSec float64, burst int) *SourceLimiter {
	if burst < 1 {
		burst = 1
	}
	return &SourceLimiter{
		m: make(map[string]*rate.Limiter),
		r: rate.Limit(reqPerSec),
		b: burst,
	}
}

func (sl *SourceLimiter) limiterFor(source string) *rate.Limiter {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if lim, ok := sl.m[source]; ok {
		return lim
	}
	lim := rate.NewLimiter(sl.r, sl.b)
	sl.m[source] = lim
	return lim
}

// Wait blocks until the named source's budget allows another request.
func (sl *SourceLimiter) Wait(ctx context.Context, source string) error {
	if source == "" {
		source = "_"
	}
	return sl.limiterFor(source).Wait(ctx)
}

// Cooldown sleeps for d or until ctx is done. Used for the mandatory
// inter-page pause before a pagination token becomes valid.
func Cooldown(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
