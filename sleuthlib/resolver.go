package sleuthlib

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const workerPoolExpireTime = time.Minute

var errCacheMiss = errors.New("cache miss")

// Resolver walks a fallback chain for an IP address: segment cache,
// keyed lookup API and a scrape of CAPTCHA-protected demo page.
type Resolver struct {
	cache        *SegmentCache
	store        SegmentStore
	apiFetcher   APIFetcher
	scraper      ScrapeFetcher
	challenge    challenge
	logger       Logger
	verifyRounds int
	usageStats   []*UsageStats

	rwmutex    sync.RWMutex
	closeOnce  sync.Once
	closed     bool
	workerPool *ants.PoolWithFunc
}

// BatchResult is an outcome of a single address of ResolveAll.
type BatchResult struct {
	Address string
	Result  ResolveResult
	Err     error
}

type resolveRequest struct {
	ctx    context.Context
	result *BatchResult
	wg     *sync.WaitGroup
}

// Resolve returns what we know about the address. Returned error wraps
// one of ErrInvalidAddress, ErrChallengeExhausted,
// ErrScrapeExtractionFailed, ErrTransport or ErrResolverShutdown.
//
// Resolution is not cancelled by a given context: once started, it
// runs until success or terminal failure. Each remote call has its own
// timeout though.
func (r *Resolver) Resolve(ctx context.Context, addr string) (ResolveResult, error) {
	r.rwmutex.RLock()
	defer r.rwmutex.RUnlock()

	if r.closed {
		return ResolveResult{}, ErrResolverShutdown
	}

	return r.resolve(context.WithoutCancel(ctx), addr)
}

// ResolveAll resolves a batch of addresses concurrently using a worker
// pool. Results have the same order as given addresses.
func (r *Resolver) ResolveAll(ctx context.Context, addrs []string) ([]BatchResult, error) {
	r.rwmutex.RLock()
	defer r.rwmutex.RUnlock()

	if r.closed {
		return nil, ErrResolverShutdown
	}

	ctx = context.WithoutCancel(ctx)
	rv := make([]BatchResult, len(addrs))
	wg := &sync.WaitGroup{}

	for i, v := range addrs {
		rv[i].Address = v

		wg.Add(1)

		req := &resolveRequest{
			ctx:    ctx,
			result: &rv[i],
			wg:     wg,
		}

		if err := r.workerPool.Invoke(req); err != nil {
			wg.Done()

			rv[i].Err = fmt.Errorf("cannot schedule a task: %w", err)
		}
	}

	wg.Wait()

	return rv, nil
}

// UsageStats returns statistics for each stage of the pipeline.
func (r *Resolver) UsageStats() []*UsageStats {
	return r.usageStats
}

// Shutdown waits for running resolutions, releases worker pool and
// closes segment store.
func (r *Resolver) Shutdown() {
	r.rwmutex.Lock()
	defer r.rwmutex.Unlock()

	r.closed = true

	r.closeOnce.Do(func() {
		r.workerPool.Release()

		if err := r.store.Close(); err != nil {
			r.logger.CacheError("", fmt.Errorf("cannot close %s: %w", r.store.Name(), err))
		}
	})
}

func (r *Resolver) resolve(ctx context.Context, addr string) (ResolveResult, error) {
	if !ValidateAddress(addr) {
		return r.fail(addr, fmt.Errorf("%w: %q", ErrInvalidAddress, addr))
	}

	if result, ok := r.cache.Load(ctx, addr); ok {
		r.stats(StageCache).Used(nil)
		r.logger.Resolved(addr, StageCache)

		return result, nil
	}

	r.stats(StageCache).Used(errCacheMiss)

	if result, ok := r.resolveAPI(ctx, addr); ok {
		return result, nil
	}

	session := NewSessionID()

	if !r.challenge.verify(ctx, session, addr, r.verifyRounds) {
		r.stats(StageChallenge).Used(ErrChallengeExhausted)

		return r.fail(addr, ErrChallengeExhausted)
	}

	r.stats(StageChallenge).Used(nil)

	result, err := r.scraper.FetchScrape(ctx, addr, session)
	r.stats(StageScrape).Used(err)

	if err != nil {
		if !errors.Is(err, ErrScrapeExtractionFailed) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}

		return r.fail(addr, err)
	}

	r.cache.Save(ctx, addr, result)
	r.logger.Resolved(addr, StageScrape)

	return result, nil
}

// resolveAPI is not fatal: any failure, including invalid key, means
// fallback to the challenge path.
func (r *Resolver) resolveAPI(ctx context.Context, addr string) (ResolveResult, bool) {
	if r.apiFetcher == nil {
		r.logger.Fallback(addr, StageAPI, errNoAPIKey)

		return ResolveResult{}, false
	}

	result, err := r.apiFetcher.FetchAPI(ctx, addr)
	r.stats(StageAPI).Used(err)

	if err != nil {
		r.logger.Fallback(addr, StageAPI, fmt.Errorf("%w: %w", ErrAPIUnavailable, err))

		return ResolveResult{}, false
	}

	r.cache.Save(ctx, addr, result)
	r.logger.Resolved(addr, StageAPI)

	return result, true
}

func (r *Resolver) fail(addr string, err error) (ResolveResult, error) {
	r.logger.ResolveFailed(addr, err)

	return ResolveResult{}, err
}

func (r *Resolver) stats(stage Stage) *UsageStats {
	for _, v := range r.usageStats {
		if v.Name == stage {
			return v
		}
	}

	panic("unknown stage " + string(stage))
}

func (r *Resolver) resolveTask(args interface{}) {
	req := args.(*resolveRequest)
	defer req.wg.Done()

	req.result.Result, req.result.Err = r.resolve(req.ctx, req.result.Address)
}

// NewResolver builds a new resolver from given options.
func NewResolver(opts ResolverOpts) (*Resolver, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("segment store is required")
	case opts.Solver == nil:
		return nil, errors.New("challenge solver is required")
	case opts.Verifier == nil:
		return nil, errors.New("challenge verifier is required")
	case opts.Scraper == nil:
		return nil, errors.New("scrape fetcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	cache, err := NewSegmentCache(opts.Store, opts.GetMemoryCacheSize(), opts.GetMemoryCacheTTL(), logger)
	if err != nil {
		return nil, err
	}

	rv := &Resolver{
		cache:        cache,
		store:        opts.Store,
		apiFetcher:   opts.APIFetcher,
		scraper:      opts.Scraper,
		logger:       logger,
		verifyRounds: opts.GetVerifyRounds(),
		challenge: challenge{
			solver:   opts.Solver,
			verifier: opts.Verifier,
			logger:   logger,
			backoff:  opts.GetRetryBackoff(),
		},
		usageStats: []*UsageStats{
			{Name: StageCache},
			{Name: StageAPI},
			{Name: StageChallenge},
			{Name: StageScrape},
		},
	}

	rv.workerPool, err = ants.NewPoolWithFunc(opts.GetWorkerPoolSize(), rv.resolveTask,
		ants.WithExpiryDuration(workerPoolExpireTime))
	if err != nil {
		return nil, fmt.Errorf("cannot create worker pool: %w", err)
	}

	return rv, nil
}

type noopLogger struct{}

func (noopLogger) CacheError(string, error) {}
func (noopLogger) AttemptError(string, Stage, int, error) {}
func (noopLogger) Fallback(string, Stage, error) {}
func (noopLogger) Resolved(string, Stage) {}
func (noopLogger) ResolveFailed(string, error) {}
