package main

import (
	"io"
	"net/http"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type logger struct {
	lookupLog    zerolog.Logger
	challengeLog zerolog.Logger
	cacheLog     zerolog.Logger
}

func (l *logger) CacheError(addr string, err error) {
	l.cacheLog.Warn().Str("ip", addr).Err(err).Msg("")
}

func (l *logger) AttemptError(addr string, stage sleuthlib.Stage, attempt int, err error) {
	l.challengeLog.Warn().
		Str("ip", addr).
		Str("stage", string(stage)).
		Int("attempt", attempt).
		Err(err).
		Msg("")
}

func (l *logger) Fallback(addr string, stage sleuthlib.Stage, err error) {
	l.lookupLog.Info().
		Str("ip", addr).
		Str("stage", string(stage)).
		Err(err).
		Msg("Stage has failed, falling back")
}

func (l *logger) Resolved(addr string, stage sleuthlib.Stage) {
	l.lookupLog.Debug().Str("ip", addr).Str("stage", string(stage)).Msg("Address was resolved")
}

func (l *logger) ResolveFailed(addr string, err error) {
	l.lookupLog.Error().Str("ip", addr).Err(err).Msg("")
}

func newRootLogger(w io.Writer, debug bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func newLogger(root zerolog.Logger) sleuthlib.Logger {
	return &logger{
		lookupLog:    root.With().Str("event_name", "lookup").Logger(),
		challengeLog: root.With().Str("event_name", "challenge").Logger(),
		cacheLog:     root.With().Str("event_name", "cache").Logger(),
	}
}

func accessLogMiddleware(root zerolog.Logger, next http.Handler) http.Handler {
	handler := hlog.AccessHandler(func(req *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(req).Info().
			Str("method", req.Method).
			Stringer("url", req.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("")
	})(next)
	handler = hlog.UserAgentHandler("user_agent")(handler)
	handler = hlog.RemoteAddrHandler("remote_addr")(handler)
	handler = hlog.RequestIDHandler("request_id", "X-Request-Id")(handler)

	return hlog.NewHandler(root.With().Str("event_name", "http").Logger())(handler)
}
