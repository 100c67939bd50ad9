package auth

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SubmissionLimiter throttles job submissions per principal (the
// SubmittedBy string a Verifier resolves a bearer token to), so a single
// caller cannot flood the orchestrator with queued jobs.
type SubmissionLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastUsed map[string]time.Time
	rps      int
	burst    int
}

// NewSubmissionLimiter builds a limiter allowing rps submissions per second
// per principal, with the given burst.
func NewSubmissionLimiter(rps, burst int) *SubmissionLimiter {
	l := &SubmissionLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastUsed: make(map[string]time.Time),
		rps:      rps,
		burst:    burst,
	}
	go l.cleanup()
	return l
}

// Allow reports whether principal may submit another job right now.
func (l *SubmissionLimiter) Allow(principal string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastUsed[principal] = time.Now()
	return l.limiterFor(principal).Allow()
}

func (l *SubmissionLimiter) limiterFor(principal string) *rate.Limiter {
	limiter, ok := l.limiters[principal]
	if ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[principal] = limiter
	return limiter
}

// cleanup evicts limiters for principals idle for over an hour, so a
// long-lived orchestrator doesn't accumulate one limiter per caller forever.
func (l *SubmissionLimiter) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, last := range l.lastUsed {
			if now.Sub(last) > time.Hour {
				delete(l.limiters, key)
				delete(l.lastUsed, key)
			}
		}
		l.mu.Unlock()
	}
}
