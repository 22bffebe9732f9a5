package sleuthlib

import (
	"context"
	"net/http"
)

// HTTPClient is an interface for all outgoing requests. Please use
// NewHTTPClient to get a proper implementation.
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// SegmentStore is a key-value document storage for resolved results.
// Keys are escaped segments, documents are JSON encoded ResolveResult.
//
// Put has to replace a document atomically: concurrent readers may see
// an old or a new document but never a partial one.
type SegmentStore interface {
	Name() string
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, doc []byte) error
	Close() error
}

// APIFetcher makes a single request to the keyed lookup API.
type APIFetcher interface {
	FetchAPI(ctx context.Context, addr string) (ResolveResult, error)
}

// ChallengeSolver makes a single attempt to get a CAPTCHA solution.
type ChallengeSolver interface {
	Solve(ctx context.Context) (*ChallengeToken, error)
}

// ChallengeVerifier submits a token for the session. It has to consume
// a token exactly once and return nil only if remote side accepted it.
type ChallengeVerifier interface {
	Verify(ctx context.Context, session SessionID, addr string, token *ChallengeToken) error
}

// ScrapeFetcher fetches data from the demo page within a verified
// session.
type ScrapeFetcher interface {
	FetchScrape(ctx context.Context, addr string, session SessionID) (ResolveResult, error)
}

// Logger receives events of resolution pipeline. Nothing is logged
// globally by sleuthlib.
type Logger interface {
	CacheError(addr string, err error)
	AttemptError(addr string, stage Stage, attempt int, err error)
	Fallback(addr string, stage Stage, err error)
	Resolved(addr string, stage Stage)
	ResolveFailed(addr string, err error)
}
