package resilience

import (
	"sync"
	"time"

	"github.com/voxgate/voxgate/pkg/errorsx"
)

// CircuitBreaker blocks a provider after repeated retryable failures.
// The orchestrator consults it before spending a fallback attempt on a
// provider that has been rate limiting or erroring.
type CircuitBreaker struct {
	mu        sync.Mutex
	failures  int
	threshold int
	openUntil time.Time
	cooldown  time.Duration
}

func NewCircuitBreaker(threshold int, cooldown time.Duration) *CircuitBreaker {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{threshold: threshold, cooldown: cooldown}
}

func (c *CircuitBreaker) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !time.Now().Before(c.openUntil)
}

func (c *CircuitBreaker) OnSuccess() {
	c.mu.Lock()
	c.failures = 0
	c.openUntil = time.Time{}
	c.mu.Unlock()
}

// OnError counts retryable provider failures only; fatal failures and
// cancellations do not trip the breaker.
func (c *CircuitBreaker) OnError(err error) {
	pf, ok := errorsx.IsProviderFailure(err)
	if !ok || !pf.Retryable {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	if c.failures >= c.threshold {
		c.openUntil = time.Now().Add(c.cooldown)
	}
}
