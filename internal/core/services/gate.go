package services

import (
	"context"

	"golang.org/x/time/rate"
)

// Gate bounds concurrent access to the shared model runtime. A loaded model
// is a stateful, non-reentrant resource: the default is a single inference
// call in flight at a time, with more slots only when the backend actually
// serves multiple instances. An optional rate limiter throttles hosted
// backends.
type Gate struct {
	slots   chan struct{}
	limiter *rate.Limiter
}

// NewGate creates a gate with the given number of concurrent slots.
// A requestsPerSecond of zero disables rate limiting.
func NewGate(slots int, requestsPerSecond float64) *Gate {
	if slots < 1 {
		slots = 1
	}

	g := &Gate{slots: make(chan struct{}, slots)}
	if requestsPerSecond > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return g
}

// acquire blocks until a slot is free (and the rate limiter admits the
// call). The returned release function must be called exactly once.
func (g *Gate) acquire(ctx context.Context) (func(), error) {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			<-g.slots
			return nil, err
		}
	}

	return func() { <-g.slots }, nil
}
