package sleuthlib

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

type httpClient struct {
	userAgent      string
	client         *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *circuitBreaker
}

func (h httpClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", h.userAgent)
	}

	return h.circuitBreaker.Do(req.Context(), func(ctx context.Context) (*http.Response, error) {
		if err := h.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCircuitBreakerIgnore, err)
		}

		resp, err := h.client.Do(req.WithContext(ctx))
		if err != nil {
			if resp != nil {
				flushResponse(resp.Body)
			}

			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			flushResponse(resp.Body)

			return nil, fmt.Errorf("netloc has responded with %s", resp.Status)
		}

		return resp, nil
	})
}

func flushResponse(body io.ReadCloser) {
	io.Copy(io.Discard, body) // nolint: errcheck
	body.Close()
}

// NewHTTPClient prepares a new HTTP client, wraps it with rate limiter,
// circuit breaker, sets a default user agent etc. Requests which
// already have User-Agent header keep it: providers emulate browsers.
//
// Any response with 4xx or 5xx status code is converted to error and
// its body is drained.
//
// Please see https://pkg.go.dev/golang.org/x/time/rate to get a meaning
// of rate limiter parameters.
//
// A meaning of circuit breaker parameters:
//
// circuitBreakerOpenThreshold - this is a threshold of failures when
// circuit breaker becomes OPEN. So, if you pass 3 here, then after 3
// failures, circuit breaker switches into OPEN state and blocks access
// to a target.
//
// circuitBreakerResetFailuresTimeout - if there were no failures for
// this period, failure counter is reset.
//
// circuitBreakerHalfOpenTimeout - an OPEN circuit breaker goes into
// HALF_OPEN state after this time period. Within this state we allow 1
// attempt. If this attempt fails, then it goes into OPEN state again.
// If succeed - goes to CLOSED.
func NewHTTPClient(client *http.Client,
	userAgent string,
	rateLimiterInterval time.Duration,
	rateLimitBurst int,
	circuitBreakerOpenThreshold uint32,
	circuitBreakerHalfOpenTimeout, circuitBreakerResetFailuresTimeout time.Duration) HTTPClient {
	return httpClient{
		userAgent:   userAgent,
		client:      client,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimiterInterval), rateLimitBurst),
		circuitBreaker: newCircuitBreaker(circuitBreakerOpenThreshold,
			circuitBreakerHalfOpenTimeout,
			circuitBreakerResetFailuresTimeout),
	}
}
