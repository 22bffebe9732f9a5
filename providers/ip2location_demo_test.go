package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/suite"
)

const ip2locationDemoTestPage = `<!DOCTYPE html>
<html lang="en">
<head><title>IP2Location Demo</title></head>
<body>
<div class="card">
<pre class="mb-0"><code class="language-json">{
	&quot;ip&quot;: &quot;8.8.8.8&quot;,
	&quot;country_code&quot;: &quot;US&quot;,
	&quot;city_name&quot;: &quot;Mountain View&quot;,
	&quot;as&quot;: &quot;Google LLC &amp; Co&quot;,
	&quot;latitude&quot;: 37.405992,
	&quot;is_proxy&quot;: false
}</code></pre>
</div>
</body>
</html>`

type IP2LocationDemoTestSuite struct {
	MockedProviderTestSuite

	now     time.Time
	session sleuthlib.SessionID
	demo    *IP2LocationDemo
}

func (suite *IP2LocationDemoTestSuite) SetupTest() {
	suite.MockedProviderTestSuite.SetupTest()

	suite.now = time.Unix(1700000000, 0)
	suite.session = sleuthlib.NewSessionID()
	suite.demo = NewIP2LocationDemo(suite.http)
	suite.demo.now = func() time.Time {
		return suite.now
	}
}

func (suite *IP2LocationDemoTestSuite) checkSession(req *http.Request) {
	sessionCookie, err := req.Cookie(ip2locationSessionCookie)

	suite.NoError(err)
	suite.Equal(suite.session.String(), sessionCookie.Value)

	firstVisit, err := req.Cookie(ip2locationFirstVisitCookie)

	suite.NoError(err)
	suite.Equal(strconv.FormatInt(suite.now.Unix()-100, 10), firstVisit.Value)

	suite.Contains(req.Header.Get("User-Agent"), "Chrome/")
}

func (suite *IP2LocationDemoTestSuite) TestName() {
	suite.Equal(NameIP2LocationDemo, suite.demo.Name())
}

func (suite *IP2LocationDemoTestSuite) TestVerifyOk() {
	httpmock.RegisterResponder(http.MethodPost, "https://www.ip2location.com/demo",
		func(req *http.Request) (*http.Response, error) {
			suite.checkSession(req)
			suite.NoError(req.ParseForm())
			suite.Equal("verify", req.PostForm.Get("action"))
			suite.Equal("03AFcWeA6answer", req.PostForm.Get("token"))
			suite.Equal("https://www.ip2location.com", req.Header.Get("Origin"))
			suite.Equal("https://www.ip2location.com/demo/8.8.8.8", req.Header.Get("Referer"))
			suite.Equal("XMLHttpRequest", req.Header.Get("X-Requested-With"))

			return httpmock.NewStringResponse(http.StatusOK, `{"success":"true"}`), nil
		})

	token := sleuthlib.NewChallengeToken("03AFcWeA6answer")

	suite.NoError(suite.demo.Verify(context.Background(), suite.session, "8.8.8.8", token))
	suite.True(token.Consumed())
}

func (suite *IP2LocationDemoTestSuite) TestVerifyRejected() {
	responses := []string{
		`{"success":"false"}`,
		`{"success":true}`,
		`{"success":"TRUE"}`,
		`{}`,
	}

	for _, v := range responses {
		httpmock.RegisterResponder(http.MethodPost, "https://www.ip2location.com/demo",
			httpmock.NewStringResponder(http.StatusOK, v))

		err := suite.demo.Verify(context.Background(), suite.session, "8.8.8.8",
			sleuthlib.NewChallengeToken("token"))

		suite.ErrorIs(err, ErrVerificationRejected, v)
	}
}

func (suite *IP2LocationDemoTestSuite) TestVerifyConsumesTokenOnFailure() {
	httpmock.RegisterResponder(http.MethodPost, "https://www.ip2location.com/demo",
		httpmock.NewStringResponder(http.StatusBadGateway, ""))

	token := sleuthlib.NewChallengeToken("token")

	suite.Error(suite.demo.Verify(context.Background(), suite.session, "8.8.8.8", token))
	suite.True(token.Consumed())
}

func (suite *IP2LocationDemoTestSuite) TestVerifyConsumedToken() {
	token := sleuthlib.NewChallengeToken("token")

	token.Consume() // nolint: errcheck

	err := suite.demo.Verify(context.Background(), suite.session, "8.8.8.8", token)

	suite.ErrorIs(err, sleuthlib.ErrChallengeTokenConsumed)
	suite.Equal(0, httpmock.GetTotalCallCount())
}

func (suite *IP2LocationDemoTestSuite) TestScrapeOk() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		func(req *http.Request) (*http.Response, error) {
			suite.checkSession(req)

			return httpmock.NewStringResponse(http.StatusOK, ip2locationDemoTestPage), nil
		})

	result, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.NoError(err)
	suite.True(result.Success)
	suite.Equal("8.8.8.8", result.Data["ip"])
	suite.Equal("US", result.Data["country_code"])
	suite.Equal("Mountain View", result.Data["city_name"])
	suite.Equal("Google LLC & Co", result.Data["as"])
	suite.Equal(json.Number("37.405992"), result.Data["latitude"])
	suite.Equal(false, result.Data["is_proxy"])
}

func (suite *IP2LocationDemoTestSuite) TestScrapeIPv6() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/2001:db8::1",
		httpmock.NewStringResponder(http.StatusOK,
			`<code class="hljs language-json">{"ip": "2001:db8::1"}</code>`))

	result, err := suite.demo.FetchScrape(context.Background(), "2001:db8::1", suite.session)

	suite.NoError(err)
	suite.Equal("2001:db8::1", result.Data["ip"])
}

func (suite *IP2LocationDemoTestSuite) TestScrapeNoJSONBlock() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><body><code class="language-python">print(1)</code></body></html>`))

	_, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.ErrorIs(err, sleuthlib.ErrScrapeExtractionFailed)
}

func (suite *IP2LocationDemoTestSuite) TestScrapeBrokenJSON() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><body><code class="language-json">{"ip": "8.8.8.8",</code></body></html>`))

	_, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.ErrorIs(err, sleuthlib.ErrScrapeExtractionFailed)
}

func (suite *IP2LocationDemoTestSuite) TestScrapeNonBreakingSpaces() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		httpmock.NewStringResponder(http.StatusOK,
			`<code class="language-json">{&nbsp;&quot;ip&quot;:&nbsp;&quot;8.8.8.8&quot;,`+
				"\u00a0&quot;region_name&quot;: &quot;Bob&#39;s&nbsp;Place&quot;}</code>"))

	result, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.NoError(err)
	suite.Equal("8.8.8.8", result.Data["ip"])
	suite.Equal("Bob's Place", result.Data["region_name"])
}

func (suite *IP2LocationDemoTestSuite) TestScrapeEmptyObject() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		httpmock.NewStringResponder(http.StatusOK,
			`<html><body><code class="language-json">{ }</code></body></html>`))

	_, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.ErrorIs(err, sleuthlib.ErrScrapeExtractionFailed)
}

func (suite *IP2LocationDemoTestSuite) TestScrapeHTTPError() {
	httpmock.RegisterResponder(http.MethodGet, "https://www.ip2location.com/demo/8.8.8.8",
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	_, err := suite.demo.FetchScrape(context.Background(), "8.8.8.8", suite.session)

	suite.Error(err)
	suite.NotErrorIs(err, sleuthlib.ErrScrapeExtractionFailed)
}

func TestIP2LocationDemo(t *testing.T) {
	suite.Run(t, &IP2LocationDemoTestSuite{})
}
