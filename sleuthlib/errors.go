package sleuthlib

import "errors"

var (
	// ErrInvalidAddress is returned if a given string is not an IPv4 or
	// IPv6 literal. Resolver returns it before any network activity.
	ErrInvalidAddress = errors.New("invalid ip address")

	// ErrCacheUnavailable marks errors of segment stores. These errors
	// are logged and treated as cache misses.
	ErrCacheUnavailable = errors.New("segment cache is unavailable")

	// ErrAPIUnavailable marks failures of the keyed lookup API. Resolver
	// falls through to the challenge path on them.
	ErrAPIUnavailable = errors.New("lookup api is unavailable")

	// ErrChallengeExhausted is returned if all verification rounds have
	// failed. This is a terminal failure.
	ErrChallengeExhausted = errors.New("challenge verification rounds are exhausted")

	// ErrScrapeExtractionFailed is returned if a demo page has no
	// embedded JSON block or this block cannot be parsed.
	ErrScrapeExtractionFailed = errors.New("cannot extract data from a scraped page")

	// ErrTransport marks timeouts, connection errors and unexpected
	// responses of the final scrape request.
	ErrTransport = errors.New("transport error")

	// ErrSegmentNotFound is returned by SegmentStore if there is no
	// document for a given key.
	ErrSegmentNotFound = errors.New("segment is not found")

	// ErrChallengeTokenConsumed is returned on attempt to submit a
	// challenge token twice.
	ErrChallengeTokenConsumed = errors.New("challenge token is already consumed")

	// ErrResolverShutdown is returned if resolver is already shutdown.
	ErrResolverShutdown = errors.New("resolver instance was shutdown")

	// ErrCircuitBreakerOpened is returned by HTTPClient if too many
	// requests have failed recently and remote side is not contacted.
	ErrCircuitBreakerOpened = errors.New("circuit breaker is opened")

	// ErrCircuitBreakerIgnore marks errors which are not failures of
	// a remote side and so are not counted by circuit breaker.
	ErrCircuitBreakerIgnore = errors.New("this error should be ignored by circuit breaker")

	errNoAPIKey = errors.New("api key is not configured")
)
