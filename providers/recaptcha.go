package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/PuerkitoBio/goquery"
)

// Anchor of invisible reCAPTCHA v3 of ip2location.com demo page. Site
// key, origin (co) and version (v) are constants of the target site.
const recaptchaAnchorURL = "https://www.google.com/recaptcha/api2/anchor?ar=1" +
	"&k=6LdjXpEUAAAAABG9zEnu_48EEQEdUx4hoqoaDio3" +
	"&co=aHR0cHM6Ly93d3cuaXAybG9jYXRpb24uY29tOjQ0Mw.." +
	"&hl=zh-CN&v=h7qt2xUGz2zqKEhSc8DD8baZ&size=invisible&cb=tsydujrrobvx"

const recaptchaTimeout = 20 * time.Second

var recaptchaAnswerRegexp = regexp.MustCompile(`"rresp","(.*?)"`)

type recaptchaSolver struct {
	client    sleuthlib.HTTPClient
	anchorURL *url.URL
}

func (r recaptchaSolver) Name() string {
	return NameRecaptcha
}

// Solve emulates what invisible reCAPTCHA does in a browser: fetches
// an anchor page to get an initial token and exchanges it on reload
// endpoint for an answer.
func (r recaptchaSolver) Solve(ctx context.Context) (*sleuthlib.ChallengeToken, error) {
	ctx, cancel := context.WithTimeout(ctx, recaptchaTimeout)
	defer cancel()

	userAgent := BrowserUserAgent()

	anchorToken, err := r.getAnchorToken(ctx, userAgent)
	if err != nil {
		return nil, fmt.Errorf("cannot get anchor token: %w", err)
	}

	answer, err := r.getAnswer(ctx, userAgent, anchorToken)
	if err != nil {
		return nil, fmt.Errorf("cannot get an answer: %w", err)
	}

	return sleuthlib.NewChallengeToken(answer), nil
}

func (r recaptchaSolver) getAnchorToken(ctx context.Context, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.anchorURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	doc, err := goquery.NewDocumentFromReader(limitedBody(resp))
	if err != nil {
		return "", fmt.Errorf("cannot parse anchor page: %w", err)
	}

	token, ok := doc.Find("#recaptcha-token").First().Attr("value")
	if !ok || token == "" {
		return "", ErrNoAnchorToken
	}

	return token, nil
}

func (r recaptchaSolver) getAnswer(ctx context.Context, userAgent, anchorToken string) (string, error) {
	params := r.anchorURL.Query()

	form := url.Values{}
	form.Set("v", params.Get("v"))
	form.Set("reason", "q")
	form.Set("c", anchorToken)
	form.Set("k", params.Get("k"))
	form.Set("co", params.Get("co"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.reloadURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("cannot build a request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("cannot send a request: %w", err)
	}

	defer flushResponse(resp.Body)

	body, err := io.ReadAll(limitedBody(resp))
	if err != nil {
		return "", fmt.Errorf("cannot read a response: %w", err)
	}

	matches := recaptchaAnswerRegexp.FindSubmatch(body)
	if len(matches) < 2 || len(matches[1]) == 0 {
		return "", ErrNoAnswer
	}

	return string(matches[1]), nil
}

func (r recaptchaSolver) reloadURL() string {
	query := url.Values{}
	query.Set("k", r.anchorURL.Query().Get("k"))

	u := url.URL{
		Scheme:   r.anchorURL.Scheme,
		Host:     r.anchorURL.Host,
		Path:     path.Join(path.Dir(r.anchorURL.Path), "reload"),
		RawQuery: query.Encode(),
	}

	return u.String()
}

// NewRecaptcha returns a solver of invisible reCAPTCHA protecting
// ip2location.com demo page.
func NewRecaptcha(client sleuthlib.HTTPClient) sleuthlib.ChallengeSolver {
	anchorURL, err := url.Parse(recaptchaAnchorURL)
	if err != nil {
		panic(err)
	}

	return recaptchaSolver{
		client:    client,
		anchorURL: anchorURL,
	}
}
