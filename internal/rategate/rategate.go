// Package rategate implements the per-destination-host admission gate: a
// token bucket per hostname, process-local, backed by golang.org/x/time/rate.
package rategate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRatePerSecond is the steady per-host request rate used when none
// is configured; the bucket size equals the rate.
const DefaultRatePerSecond = 5.0

// Decision is the outcome of Check: either the caller may proceed now, or
// it must wait until At.
type Decision struct {
	Admit bool
	At    time.Time
}

// Gate is a per-key token bucket keyed by hostname. State is process-local
// — cross-process rate limiting is explicitly not guaranteed by this type.
type Gate struct {
	ratePerSec float64
	burst      int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a Gate with the given steady rate (requests/second). Bucket
// size equals the rate truncated to an integer, and is at least 1.
func New(ratePerSecond float64) *Gate {
	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &Gate{
		ratePerSec: ratePerSecond,
		burst:      burst,
		limiters:   make(map[string]*rate.Limiter),
	}
}

func (g *Gate) limiterFor(host string) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(g.ratePerSec), g.burst)
		g.limiters[host] = l
	}
	return l
}

// Check atomically consumes a token for host if one is available and
// returns Admit. Otherwise it returns DeferUntil(t), where t is the
// instant the next token becomes available — no token is consumed in
// that case.
func (g *Gate) Check(host string, now time.Time) Decision {
	l := g.limiterFor(host)

	r := l.ReserveN(now, 1)
	if !r.OK() {
		// Burst of 1 guarantees a reservation always succeeds; this
		// branch exists only to satisfy the API contract defensively.
		return Decision{Admit: true}
	}

	delay := r.DelayFrom(now)
	if delay <= 0 {
		return Decision{Admit: true}
	}

	// The token would be consumed in the future — give it back so this
	// deferral doesn't cost a real request's worth of budget.
	r.CancelAt(now)
	return Decision{Admit: false, At: now.Add(delay)}
}
