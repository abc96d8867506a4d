// Package ratelimit provides a keyed token-bucket rate limiter, used to
// protect the login endpoint from credential stuffing.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultIdleTTL is how long an unused key's limiter survives before the
// sweeper drops it.
const defaultIdleTTL = 10 * time.Minute

// KeyedLimiter manages one independent token bucket per key.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int

	done     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a keyed limiter allowing rps requests per second with the
// given burst per key.
func New(rps float64, burst int) *KeyedLimiter {
	kl := &KeyedLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		done:     make(chan struct{}),
	}
	go kl.sweep()
	return kl
}

// Allow reports whether a request for key may proceed right now.
func (kl *KeyedLimiter) Allow(key string) bool {
	return kl.get(key).Allow()
}

// Wait blocks until a request for key is allowed or ctx is canceled.
func (kl *KeyedLimiter) Wait(ctx context.Context, key string) error {
	return kl.get(key).Wait(ctx)
}

// Stop shuts down the background sweeper.
func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.done) })
}

func (kl *KeyedLimiter) get(key string) *rate.Limiter {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	e, ok := kl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(kl.limit, kl.burst)}
		kl.limiters[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// sweep drops limiters that have been idle past the TTL, bounding memory
// under churning client IPs.
func (kl *KeyedLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-kl.done:
			return
		case now := <-ticker.C:
			kl.mu.Lock()
			for key, e := range kl.limiters {
				if now.Sub(e.lastSeen) > defaultIdleTTL {
					delete(kl.limiters, key)
				}
			}
			kl.mu.Unlock()
		}
	}
}
