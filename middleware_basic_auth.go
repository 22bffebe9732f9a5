package main

import (
	"crypto/subtle"
	"net/http"
)

const basicAuthRealm = `Basic realm="ipsleuth", charset="UTF-8"`

type basicAuthMiddleware struct {
	handler  http.Handler
	user     []byte
	password []byte
}

// ServeHTTP compares both credentials in constant time. Response for
// unauthorized requests has the same JSON shape as other API errors.
func (b *basicAuthMiddleware) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	user, password, ok := req.BasicAuth()

	userMatch := subtle.ConstantTimeCompare(b.user, []byte(user))
	passwordMatch := subtle.ConstantTimeCompare(b.password, []byte(password))

	if ok && userMatch&passwordMatch == 1 {
		b.handler.ServeHTTP(w, req)

		return
	}

	w.Header().Set("WWW-Authenticate", basicAuthRealm)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"success":false,"error":"Authentication is required"}`)) // nolint: errcheck
}

func newBasicAuthMiddleware(handler http.Handler, user, password string) http.Handler {
	return &basicAuthMiddleware{
		handler:  handler,
		user:     []byte(user),
		password: []byte(password),
	}
}
