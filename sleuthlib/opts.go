package sleuthlib

import "time"

const (
	DefaultVerifyRounds    = 3
	DefaultRetryBackoff    = 2 * time.Second
	DefaultMemoryCacheSize = 4096
	DefaultMemoryCacheTTL  = time.Minute
	DefaultWorkerPoolSize  = 512
)

// ResolverOpts is a set of collaborators and settings of Resolver.
// Store, Solver, Verifier and Scraper are mandatory. APIFetcher is
// optional: if it is nil, keyed API is skipped and resolver goes
// straight to the challenge path.
type ResolverOpts struct {
	Store      SegmentStore
	APIFetcher APIFetcher
	Solver     ChallengeSolver
	Verifier   ChallengeVerifier
	Scraper    ScrapeFetcher
	Logger     Logger

	// MemoryCacheSize is a number of segments kept in memory. Negative
	// value disables memory layer, 0 means default.
	MemoryCacheSize int

	// MemoryCacheTTL is a lifetime of a segment in memory. Other
	// instances may overwrite a segment in a shared store, this is
	// how long such update can stay unseen.
	MemoryCacheTTL time.Duration

	// VerifyRounds is a maximal number of challenge verification rounds.
	VerifyRounds int

	// RetryBackoff is a pause between challenge attempts.
	RetryBackoff time.Duration

	// WorkerPoolSize limits concurrency of ResolveAll.
	WorkerPoolSize int
}

func (r ResolverOpts) GetMemoryCacheSize() int {
	switch {
	case r.MemoryCacheSize < 0:
		return 0
	case r.MemoryCacheSize == 0:
		return DefaultMemoryCacheSize
	}

	return r.MemoryCacheSize
}

func (r ResolverOpts) GetMemoryCacheTTL() time.Duration {
	if r.MemoryCacheTTL <= 0 {
		return DefaultMemoryCacheTTL
	}

	return r.MemoryCacheTTL
}

func (r ResolverOpts) GetVerifyRounds() int {
	if r.VerifyRounds <= 0 {
		return DefaultVerifyRounds
	}

	return r.VerifyRounds
}

func (r ResolverOpts) GetRetryBackoff() time.Duration {
	if r.RetryBackoff <= 0 {
		return DefaultRetryBackoff
	}

	return r.RetryBackoff
}

func (r ResolverOpts) GetWorkerPoolSize() int {
	if r.WorkerPoolSize <= 0 {
		return DefaultWorkerPoolSize
	}

	return r.WorkerPoolSize
}
