package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/antchfx/htmlquery"
)

const (
	ip2locationDemoOrigin = "https://www.ip2location.com"
	ip2locationDemoURL    = ip2locationDemoOrigin + "/demo"

	ip2locationSessionCookie    = "__SECURE-SESSIONID"
	ip2locationFirstVisitCookie = "first_visit"
	ip2locationFirstVisitAge    = 100 * time.Second

	ip2locationVerifyTimeout = 10 * time.Second
	ip2locationScrapeTimeout = 15 * time.Second

	ip2locationJSONBlockXPath = `//code[contains(@class, "language-json")]`
)

var ip2locationWhitespaceRegexp = regexp.MustCompile(`[\s\x{00A0}]+`)

type ip2locationVerifyResponse struct {
	Success interface{} `json:"success"`
}

// IP2LocationDemo works with a demo page of ip2location.com. First a
// session has to pass invisible reCAPTCHA with Verify, then the same
// session can fetch a page with embedded JSON data.
type IP2LocationDemo struct {
	client sleuthlib.HTTPClient
	now    func() time.Time
}

func (i *IP2LocationDemo) Name() string {
	return NameIP2LocationDemo
}

// Verify submits a token on behalf of the session. Token is consumed
// even if request has failed.
func (i *IP2LocationDemo) Verify(ctx context.Context,
	session sleuthlib.SessionID,
	addr string,
	token *sleuthlib.ChallengeToken) error {
	value, err := token.Consume()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, ip2locationVerifyTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("action", "verify")
	form.Set("token", value)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ip2locationDemoURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("cannot build a request: %w", err)
	}

	i.setSession(req, session)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", ip2locationDemoOrigin)
	req.Header.Set("Referer", ip2locationDemoURL+"/"+url.PathEscape(addr))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := i.client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	jsonResponse := ip2locationVerifyResponse{}

	if err := json.NewDecoder(limitedBody(resp)).Decode(&jsonResponse); err != nil {
		return fmt.Errorf("cannot parse a response: %w", err)
	}

	// remote side responds with a string, not a boolean
	if success, ok := jsonResponse.Success.(string); !ok || success != "true" {
		return fmt.Errorf("%w: success=%v", ErrVerificationRejected, jsonResponse.Success)
	}

	return nil
}

// FetchScrape fetches a demo page for the address and extracts JSON
// which is rendered there as a code sample.
func (i *IP2LocationDemo) FetchScrape(ctx context.Context,
	addr string,
	session sleuthlib.SessionID) (sleuthlib.ResolveResult, error) {
	ctx, cancel := context.WithTimeout(ctx, ip2locationScrapeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ip2locationDemoURL+"/"+url.PathEscape(addr), nil)
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("cannot build a request: %w", err)
	}

	i.setSession(req, session)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	req.Header.Set("Referer", ip2locationDemoURL)

	resp, err := i.client.Do(req)
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return sleuthlib.ResolveResult{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	tree, err := htmlquery.Parse(limitedBody(resp))
	if err != nil {
		return sleuthlib.ResolveResult{}, fmt.Errorf("%w: cannot parse html: %w", sleuthlib.ErrScrapeExtractionFailed, err)
	}

	data, err := extractJSONBlock(tree)
	if err != nil {
		return sleuthlib.ResolveResult{}, err
	}

	return sleuthlib.NewSuccessResult(data), nil
}

func (i *IP2LocationDemo) setSession(req *http.Request, session sleuthlib.SessionID) {
	req.Header.Set("User-Agent", BrowserUserAgent())
	req.AddCookie(&http.Cookie{
		Name:  ip2locationSessionCookie,
		Value: session.String(),
	})
	req.AddCookie(firstVisitCookie(i.now()))
}

// NewIP2LocationDemo returns both challenge verifier and scrape fetcher
// for ip2location.com demo page.
func NewIP2LocationDemo(client sleuthlib.HTTPClient) *IP2LocationDemo {
	return &IP2LocationDemo{
		client: client,
		now:    time.Now,
	}
}
