package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outbound requests with a token bucket. One token is one
// request.
type Limiter struct {
	bucket *rate.Limiter
}

// NewLimiter allows perSecond requests per second with bursts of up to burst.
// A non-positive perSecond disables pacing, and burst is raised to 1 so that
// a single request can always be admitted.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{bucket: rate.NewLimiter(limit, burst)}
}

// Unlimited reports whether the limiter admits every request immediately.
func (l *Limiter) Unlimited() bool {
	return l.bucket.Limit() == rate.Inf
}

// TryAcquire takes a request slot if one is free right now.
func (l *Limiter) TryAcquire() bool {
	return l.bucket.AllowN(time.Now(), 1)
}

// Acquire blocks until a request slot is free or ctx is done. It fails fast
// when ctx would expire before the slot becomes available.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
