package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLogLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	rv := []map[string]interface{}{}

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}

		value := map[string]interface{}{}

		require.NoError(t, json.Unmarshal([]byte(line), &value))

		rv = append(rv, value)
	}

	return rv
}

func TestLoggerEvents(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(newRootLogger(buf, false))

	log.AttemptError("192.0.2.1", sleuthlib.StageChallenge, 2, errors.New("no token"))
	log.Resolved("192.0.2.1", sleuthlib.StageAPI)
	log.ResolveFailed("192.0.2.1", sleuthlib.ErrChallengeExhausted)

	lines := readLogLines(t, buf)

	require.Len(t, lines, 2)
	assert.Equal(t, "challenge", lines[0]["event_name"])
	assert.Equal(t, "challenge", lines[0]["stage"])
	assert.EqualValues(t, 2, lines[0]["attempt"])
	assert.Equal(t, "no token", lines[0]["error"])
	assert.Equal(t, "lookup", lines[1]["event_name"])
	assert.Equal(t, "error", lines[1]["level"])
}

func TestLoggerDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(newRootLogger(buf, true))

	log.Resolved("192.0.2.1", sleuthlib.StageCache)

	lines := readLogLines(t, buf)

	require.Len(t, lines, 1)
	assert.Equal(t, "cache", lines[0]["stage"])
}

func TestAccessLogMiddleware(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := accessLogMiddleware(newRootLogger(buf, false),
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

	req := httptest.NewRequest(http.MethodGet, "/192.0.2.1", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	lines := readLogLines(t, buf)

	require.Len(t, lines, 1)
	assert.Equal(t, "http", lines[0]["event_name"])
	assert.EqualValues(t, http.StatusTeapot, lines[0]["status"])
	assert.Equal(t, "/192.0.2.1", lines[0]["url"])
	assert.NotEmpty(t, lines[0]["request_id"])
	assert.NotEmpty(t, recorder.Header().Get("X-Request-Id"))
}
