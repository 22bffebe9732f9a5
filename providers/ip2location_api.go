package providers

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
)

const (
	ip2locationAPIEndpoint = "https://api.ip2location.io/"
	ip2locationAPITimeout  = 10 * time.Second
)

type ip2locationAPIProvider struct {
	client sleuthlib.HTTPClient
	apiKey string
}

func (i ip2locationAPIProvider) Name() string {
	return NameIP2LocationAPI
}

// FetchAPI makes exactly one request. There are no retries here:
// resolver falls back to another path on any error.
func (i ip2locationAPIProvider) FetchAPI(ctx context.Context, addr string) (sleuthlib.ResolveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ip2locationAPITimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.buildURL(addr), nil)
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return sleuthlib.ResolveResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := sleuthlib.DecodeJSONObject(bufio.NewReader(limitedBody(resp)))
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("cannot parse a response: %w", err)
	}

	return sleuthlib.NewSuccessResult(data), nil
}

func (i ip2locationAPIProvider) buildURL(addr string) string {
	getQuery := url.Values{}

	getQuery.Set("key", i.apiKey)
	getQuery.Set("ip", addr)

	return ip2locationAPIEndpoint + "?" + getQuery.Encode()
}

// NewIP2LocationAPI returns a fetcher for keyed ip2location.io API.
func NewIP2LocationAPI(client sleuthlib.HTTPClient, apiKey string) (sleuthlib.APIFetcher, error) {
	if apiKey == "" {
		return nil, ErrAuthTokenIsRequired
	}

	return ip2locationAPIProvider{
		client: client,
		apiKey: apiKey,
	}, nil
}
