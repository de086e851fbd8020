package scanner

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultDelay is the pause between two consecutive log queries.
const DefaultDelay = 100 * time.Millisecond

// Pacer throttles the scan between batches. Wait is called after every batch
// except the last one and must return early with ctx.Err() on cancellation.
type Pacer interface {
	Wait(ctx context.Context, done Batch) error
}

// PacerFunc adapts a function to the Pacer interface.
type PacerFunc func(ctx context.Context, done Batch) error

func (f PacerFunc) Wait(ctx context.Context, done Batch) error { return f(ctx, done) }

type fixedDelay time.Duration

// FixedDelay sleeps for d between batches.
func FixedDelay(d time.Duration) Pacer { return fixedDelay(d) }

func (d fixedDelay) Wait(ctx context.Context, _ Batch) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoDelay issues the next query immediately.
func NoDelay() Pacer { return fixedDelay(0) }

type rateLimit struct {
	limiter *rate.Limiter
}

// RateLimit allows at most rps log queries per second with the given burst.
func RateLimit(rps float64, burst int) Pacer {
	if burst < 1 {
		burst = 1
	}
	return &rateLimit{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *rateLimit) Wait(ctx context.Context, _ Batch) error {
	return r.limiter.Wait(ctx)
}
