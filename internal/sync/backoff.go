package sync

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Backoff defaults. The ten-minute window is long enough to ride out one
// gateway restart without abandoning the rest of the sync.
const (
	DefaultTimeout   = 10 * time.Minute
	defaultBaseDelay = 750 * time.Millisecond
	defaultMaxDelay  = 30 * time.Second
	defaultJitter    = 0.2
)

// TimeoutError is returned when the retry deadline is exhausted. It always
// aborts the enclosing sync phase rather than being treated as per-agent.
type TimeoutError struct {
	Elapsed time.Duration
	Last    error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Gateway unreachable after %s (template sync timeout). Last error: %v",
		e.Elapsed.Round(time.Second), e.Last)
}

func (e *TimeoutError) Unwrap() error { return e.Last }

// Backoff retries an operation with bounded, jittered exponential backoff.
// Each Run call arms a fresh wall-clock deadline, so long-running syncs
// tolerate a later gateway restart without an already-expired retry window.
// The current delay carries across Run calls and resets on any success.
type Backoff struct {
	Timeout   time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Jitter    float64

	delay time.Duration

	// Overridable in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBackoff returns a Backoff with the given per-phase deadline and
// default delay parameters. A zero timeout means DefaultTimeout.
func NewBackoff(timeout time.Duration) *Backoff {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Backoff{
		Timeout:   timeout,
		BaseDelay: defaultBaseDelay,
		MaxDelay:  defaultMaxDelay,
		Jitter:    defaultJitter,
		delay:     defaultBaseDelay,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// Reset returns the current delay to its base value.
func (b *Backoff) Reset() {
	b.delay = b.BaseDelay
}

// Run executes fn until it succeeds, fails fatally, or the deadline expires.
// Transient failures sleep and retry; non-transient failures propagate
// immediately. Context cancellation unblocks a pending sleep right away.
func (b *Backoff) Run(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if b.now == nil {
		b.now = time.Now
	}
	if b.sleep == nil {
		b.sleep = sleepCtx
	}
	if b.delay <= 0 {
		b.delay = b.BaseDelay
	}

	start := b.now()
	deadline := start.Add(b.Timeout)
	for {
		value, err := fn(ctx)
		if err == nil {
			b.Reset()
			return value, nil
		}
		if !IsTransient(err) {
			return nil, err
		}

		remaining := deadline.Sub(b.now())
		if remaining <= 0 {
			return nil, &TimeoutError{Elapsed: b.Timeout, Last: err}
		}

		sleep := b.delay
		if sleep > remaining {
			sleep = remaining
		}
		if b.Jitter > 0 {
			sleep = time.Duration(float64(sleep) * (1.0 + b.Jitter*(2*rand.Float64()-1)))
		}
		if sleep < 0 {
			sleep = 0
		}
		if sleep > remaining {
			sleep = remaining
		}
		if err := b.sleep(ctx, sleep); err != nil {
			return nil, err
		}

		b.delay *= 2
		if b.delay > b.MaxDelay {
			b.delay = b.MaxDelay
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		// Still honor cancellation on zero-length sleeps.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
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
