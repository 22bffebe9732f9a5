package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/9seconds/ipsleuth/providers"
	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/9seconds/ipsleuth/stores"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"golang.org/x/net/proxy"
)

const storeConnectTimeout = 10 * time.Second

func makeRootContext() (context.Context, context.CancelFunc) {
	rootCtx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)

	go func() {
		for range sigChan {
			cancel()
		}
	}()

	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	return rootCtx, cancel
}

func makeTransport(conf *config) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	if conf.GetProxy() == "" {
		return transport, nil
	}

	parsed, err := url.Parse(conf.GetProxy())
	if err != nil {
		return nil, fmt.Errorf("cannot parse proxy url: %w", err)
	}

	var auth *proxy.Auth

	if parsed.User != nil {
		password, _ := parsed.User.Password()
		auth = &proxy.Auth{
			User:     parsed.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("cannot create socks5 dialer: %w", err)
	}

	contextDialer, ok := dialer.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("socks5 dialer does not support contexts")
	}

	transport.Proxy = nil
	transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return contextDialer.DialContext(ctx, network, addr)
	}

	return transport, nil
}

func makeHTTPClient(conf *config, transport http.RoundTripper) sleuthlib.HTTPClient {
	httpClient := &http.Client{
		Timeout:   conf.GetHTTPTimeout(),
		Transport: transport,
	}

	return sleuthlib.NewHTTPClient(httpClient,
		"ipsleuth/"+version,
		conf.GetRateLimitInterval(),
		conf.GetRateLimitBurst(),
		conf.CircuitBreaker.GetOpenThreshold(),
		conf.CircuitBreaker.GetHalfOpenTimeout(),
		conf.CircuitBreaker.GetResetFailuresTimeout())
}

func makeStore(ctx context.Context, conf *config) (sleuthlib.SegmentStore, error) {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	rootDir := conf.GetRootDirectory()

	switch conf.Store.GetName() {
	case stores.NameFS:
		return stores.NewFS(afero.NewOsFs(), conf.Store.GetDirectory(rootDir))
	case stores.NameRedis:
		return stores.NewRedis(ctx, &redis.Options{
			Addr:     conf.Store.GetRedisAddr(),
			Password: conf.Store.GetRedisPassword(),
			DB:       conf.Store.GetRedisDB(),
		}, "")
	case stores.NameSQLite:
		if err := os.MkdirAll(rootDir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create root directory: %w", err)
		}

		return stores.NewSQLite(ctx, conf.Store.GetDSN(rootDir))
	case stores.NamePostgres:
		return stores.NewPostgres(ctx, conf.Store.GetDSN(rootDir))
	}

	return nil, fmt.Errorf("unsupported store name: %s", conf.Store.GetName())
}

func makeResolver(ctx context.Context, conf *config, logger sleuthlib.Logger) (*sleuthlib.Resolver, error) {
	transport, err := makeTransport(conf)
	if err != nil {
		return nil, fmt.Errorf("cannot create http transport: %w", err)
	}

	store, err := makeStore(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("cannot create %s store: %w", conf.Store.GetName(), err)
	}

	opts := sleuthlib.ResolverOpts{
		Store:           store,
		Solver:          providers.NewRecaptcha(makeHTTPClient(conf, transport)),
		Logger:          logger,
		MemoryCacheSize: conf.GetMemoryCacheSize(),
		MemoryCacheTTL:  conf.GetMemoryCacheTTL(),
		VerifyRounds:    conf.GetVerifyRounds(),
		RetryBackoff:    conf.GetRetryBackoff(),
		WorkerPoolSize:  conf.GetWorkerPoolSize(),
	}

	demo := providers.NewIP2LocationDemo(makeHTTPClient(conf, transport))
	opts.Verifier = demo
	opts.Scraper = demo

	if conf.GetAPIKey() != "" {
		opts.APIFetcher, err = providers.NewIP2LocationAPI(makeHTTPClient(conf, transport), conf.GetAPIKey())
		if err != nil {
			store.Close()

			return nil, fmt.Errorf("cannot create %s provider: %w", providers.NameIP2LocationAPI, err)
		}
	}

	resolver, err := sleuthlib.NewResolver(opts)
	if err != nil {
		store.Close()

		return nil, fmt.Errorf("cannot create resolver: %w", err)
	}

	return resolver, nil
}
