package dispatch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle paces consecutive outbound calls. Wait is called between two
// calls, never before the first or after the last.
type Throttle interface {
	Wait(ctx context.Context) error
}

const DefaultDelay = 10 * time.Millisecond

type fixedDelay struct {
	delay time.Duration
}

// FixedDelay sleeps d between calls. It approximates the gateway's 600 TPS
// ceiling with a 10ms default.
func FixedDelay(d time.Duration) Throttle {
	return fixedDelay{delay: d}
}

func (f fixedDelay) Wait(ctx context.Context) error {
	if f.delay <= 0 {
		return ctx.Err()
	}
	tmr := time.NewTimer(f.delay)
	select {
	case <-ctx.Done():
		if !tmr.Stop() {
			<-tmr.C
		}
		return ctx.Err()
	case <-tmr.C:
		return nil
	}
}

// RateLimit is a token bucket bounded at perSec calls per second with a
// burst of one. The initial token is spent on construction since the first
// call goes out without a Wait.
func RateLimit(perSec int) Throttle {
	limiter := rate.NewLimiter(rate.Limit(perSec), 1)
	limiter.Allow()
	return limiter
}

// NewThrottle picks the token bucket when perSec is positive and the fixed
// delay otherwise.
func NewThrottle(delay time.Duration, perSec int) Throttle {
	if perSec > 0 {
		return RateLimit(perSec)
	}
	return FixedDelay(delay)
}
