// Package ratelimit keeps one token bucket per client key for the HTTP and gRPC limiters.
package ratelimit

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// PerKey evicts a key after idleTTL without requests; the next request starts with a full bucket.
type PerKey struct {
	mu       sync.Mutex
	limiters *lru.LRU[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewPerKey(limit float64, burst, cacheSize int, idleTTL time.Duration) *PerKey {
	return &PerKey{
		limiters: lru.NewLRU[string, *rate.Limiter](cacheSize, nil, idleTTL),
		limit:    rate.Limit(limit),
		burst:    burst,
	}
}

func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	lim, ok := p.limiters.Get(key)
	if !ok {
		lim = rate.NewLimiter(p.limit, p.burst)
	}
	// Add продлевает TTL записи
	p.limiters.Add(key, lim)
	p.mu.Unlock()

	return lim.Allow()
}

func (p *PerKey) Len() int {
	return p.limiters.Len()
}
