// Package ratelimit provides per-key token bucket budgets for MCP tools.
//
// Buckets are denominated in work units rather than calls, so an expensive
// request (a long run on a large network) can spend many tokens at once.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Limiter implements a per-key token bucket. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   float64          // bucket capacity, also the initial token count
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a limiter that refills rate tokens per second up to
// burst.
func NewLimiter(rate, burst float64) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow spends one token for key.
func (l *Limiter) Allow(key string) bool {
	return l.AllowN(key, 1)
}

// AllowN spends n tokens for key if that many are available. A request
// larger than the whole bucket is never allowed.
func (l *Limiter) AllowN(key string, n float64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: l.burst, lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens += l.rate * elapsed
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
		b.lastCheck = now
	}

	if b.tokens < n {
		return false
	}
	b.tokens -= n
	return true
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() float64 { return l.burst }

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default virusnet tool budgets. The
// virusnet_run bucket holds node-steps and is charged by every tool that
// simulates, virusnet_graph included. The graph and archive buckets are
// charged per call.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"virusnet_run":   NewLimiter(50_000_000.0/60.0, 20_000_000), // 50M node-steps/minute
		"virusnet_graph": NewLimiter(30.0/60.0, 5),                 // 30/minute, burst 5
		"virusnet_runs":  NewLimiter(1.0, 10),                      // 60/minute, burst 10
	}
}

// CheckLimit charges cost tokens to toolName. Tools without a limiter are
// always allowed.
func CheckLimit(limiters ToolLimiters, toolName string, cost float64) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if cost > limiter.Burst() {
		return fmt.Errorf("%s request costs %.0f units, above the per-request maximum of %.0f", toolName, cost, limiter.Burst())
	}
	if !limiter.AllowN(toolName, cost) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
