package providers

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

const maxResponseSize = 4 * 1024 * 1024

func flushResponse(resp io.ReadCloser) {
	io.Copy(io.Discard, resp) // nolint: errcheck
	resp.Close()
}

func limitedBody(resp *http.Response) io.Reader {
	return io.LimitReader(resp.Body, maxResponseSize)
}

func firstVisitCookie(now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:  ip2locationFirstVisitCookie,
		Value: formatUnix(now.Add(-ip2locationFirstVisitAge)),
	}
}

func formatUnix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}
