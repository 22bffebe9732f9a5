package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/9seconds/ipsleuth/sleuthlib"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
)

const (
	cacheControlPublic  = "public, max-age=604800"
	cacheControlNoCache = "no-cache, no-store, must-revalidate"

	publicCacheMaxAge = 7 * 24 * time.Hour
)

type httpHandler struct {
	resolver Resolver
	now      func() time.Time
}

func (h httpHandler) resolve(w http.ResponseWriter, req *http.Request, addr string, cacheable bool) {
	resolved, err := h.resolver.Resolve(req.Context(), addr)
	if err != nil {
		h.sendError(w, req, h.classifyError(err))

		return
	}

	if cacheable {
		w.Header().Set("Cache-Control", cacheControlPublic)
		w.Header().Set("Expires", h.now().Add(publicCacheMaxAge).UTC().Format(http.TimeFormat))
	} else {
		w.Header().Set("Cache-Control", cacheControlNoCache)
	}

	h.encodeJSON(w, http.StatusOK, resolved)
}

func (h httpHandler) classifyError(err error) *httpError {
	switch {
	case errors.Is(err, sleuthlib.ErrInvalidAddress):
		return &httpError{
			message:    msgInvalidAddress,
			err:        err,
			statusCode: http.StatusBadRequest,
		}
	case errors.Is(err, sleuthlib.ErrResolverShutdown):
		return &httpError{
			message:    msgShutdown,
			err:        err,
			statusCode: http.StatusServiceUnavailable,
		}
	}

	return &httpError{
		message:    msgResolveFailed,
		err:        err,
		statusCode: http.StatusInternalServerError,
	}
}

func (h httpHandler) handleNotFound(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, req, &httpError{
		message:    msgRouteNotFound,
		statusCode: http.StatusNotFound,
	})
}

func (h httpHandler) handleMethodNotAllowed(w http.ResponseWriter, req *http.Request) {
	h.sendError(w, req, &httpError{
		message:    msgMethodNotAllowed,
		statusCode: http.StatusMethodNotAllowed,
	})
}

func (h httpHandler) encodeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)

	encoder.SetEscapeHTML(false)
	encoder.Encode(data) // nolint: errcheck
}

func (h httpHandler) sendError(w http.ResponseWriter, req *http.Request, err *httpError) {
	logger := hlog.FromRequest(req)

	if err.StatusCode() >= http.StatusInternalServerError {
		logger.Error().Err(err.Unwrap()).Msg(err.Message())
	} else {
		logger.Debug().Err(err.Unwrap()).Msg(err.Message())
	}

	w.Header().Set("Cache-Control", cacheControlNoCache)
	h.encodeJSON(w, err.StatusCode(), err)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		headers := w.Header()

		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("X-XSS-Protection", "1; mode=block")
		headers.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		next.ServeHTTP(w, req)
	})
}

// NewHandler returns HTTP handler which serves resolver results.
//
//	GET  /        resolves the address of the requester
//	GET  /{ip}    resolves a given address
//	POST /        resolves a batch of addresses: {"ips": [...]}
//	GET  /stats   returns usage statistics of each resolution stage
func NewHandler(resolver Resolver) http.Handler {
	handler := httpHandler{
		resolver: resolver,
		now:      time.Now,
	}

	return newRouter(handler)
}

func newRouter(handler httpHandler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(securityHeaders)

	router.NotFound(handler.handleNotFound)
	router.MethodNotAllowed(handler.handleMethodNotAllowed)

	router.Get("/", handler.handleSelf)
	router.Post("/", handler.handlePost)
	router.Get("/stats", handler.handleStats)
	router.Get("/{ip}", handler.handleGetIP)

	return router
}
