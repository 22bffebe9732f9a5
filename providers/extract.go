package providers

import (
	"fmt"
	"strings"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// extractJSONBlock finds <code class="language-json"> and parses its
// text. HTML parser has already decoded all entities, &nbsp; included,
// so the text is a raw JSON which is only normalized by whitespaces.
// An empty object means that page has no data for the address.
func extractJSONBlock(tree *html.Node) (map[string]interface{}, error) {
	node := htmlquery.FindOne(tree, ip2locationJSONBlockXPath)
	if node == nil {
		return nil, fmt.Errorf("%w: no json block", sleuthlib.ErrScrapeExtractionFailed)
	}

	text := htmlquery.InnerText(node)
	text = strings.TrimSpace(ip2locationWhitespaceRegexp.ReplaceAllString(text, " "))

	data, err := sleuthlib.DecodeJSONObject(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sleuthlib.ErrScrapeExtractionFailed, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty json block", sleuthlib.ErrScrapeExtractionFailed)
	}

	return data, nil
}
