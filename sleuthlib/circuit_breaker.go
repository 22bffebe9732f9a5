package sleuthlib

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

type circuitBreakerCallback func(context.Context) (*http.Response, error)

const (
	circuitBreakerStateClosed uint32 = iota
	circuitBreakerStateHalfOpened
	circuitBreakerStateOpened
)

// circuitBreaker stops sending requests to a netloc which keeps
// failing.
//
// CLOSED: requests go through. If there are more than openThreshold
// failures within resetFailuresTimeout, it switches to OPENED.
//
// OPENED: all requests fail immediately. After halfOpenTimeout it
// switches to HALF_OPENED.
//
// HALF_OPENED: exactly one request goes through. Success closes the
// breaker, failure opens it again.
type circuitBreaker struct {
	mutex sync.Mutex
	now   func() time.Time

	state            uint32
	failuresCount    uint32
	halfOpenInFlight bool
	openedAt         time.Time
	lastFailureAt    time.Time

	openThreshold        uint32
	halfOpenTimeout      time.Duration
	resetFailuresTimeout time.Duration
}

func (c *circuitBreaker) Do(ctx context.Context, callback circuitBreakerCallback) (*http.Response, error) {
	if err := c.acquire(); err != nil {
		return nil, err
	}

	resp, err := callback(ctx)

	c.release(err)

	return resp, err
}

func (c *circuitBreaker) acquire() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.refresh()

	switch c.state {
	case circuitBreakerStateClosed:
		return nil
	case circuitBreakerStateHalfOpened:
		if c.halfOpenInFlight {
			return ErrCircuitBreakerOpened
		}

		c.halfOpenInFlight = true

		return nil
	}

	return ErrCircuitBreakerOpened
}

func (c *circuitBreaker) release(err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if errors.Is(err, ErrCircuitBreakerIgnore) {
		c.halfOpenInFlight = false

		return
	}

	switch {
	case c.state == circuitBreakerStateHalfOpened && err != nil:
		c.switchState(circuitBreakerStateOpened)
	case c.state == circuitBreakerStateHalfOpened:
		c.switchState(circuitBreakerStateClosed)
	case c.state != circuitBreakerStateClosed:
	case err == nil:
		c.failuresCount = 0
	default:
		c.failuresCount++
		c.lastFailureAt = c.now()

		if c.failuresCount > c.openThreshold {
			c.switchState(circuitBreakerStateOpened)
		}
	}
}

func (c *circuitBreaker) refresh() {
	now := c.now()

	switch c.state {
	case circuitBreakerStateClosed:
		if c.failuresCount > 0 && now.Sub(c.lastFailureAt) >= c.resetFailuresTimeout {
			c.failuresCount = 0
		}
	case circuitBreakerStateOpened:
		if now.Sub(c.openedAt) >= c.halfOpenTimeout {
			c.switchState(circuitBreakerStateHalfOpened)
		}
	}
}

func (c *circuitBreaker) switchState(state uint32) {
	c.state = state
	c.failuresCount = 0
	c.halfOpenInFlight = false

	if state == circuitBreakerStateOpened {
		c.openedAt = c.now()
	}
}

func (c *circuitBreaker) State() uint32 {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.refresh()

	return c.state
}

func newCircuitBreaker(openThreshold uint32,
	halfOpenTimeout, resetFailuresTimeout time.Duration) *circuitBreaker {
	return &circuitBreaker{
		now:                  time.Now,
		openThreshold:        openThreshold,
		halfOpenTimeout:      halfOpenTimeout,
		resetFailuresTimeout: resetFailuresTimeout,
	}
}
