package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/9seconds/ipsleuth/sleuthlib"
)

// Headers which may carry an address of the client if service is
// deployed behind reverse proxy or CDN. Order matters.
var clientAddressHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"True-Client-IP",
}

func (h httpHandler) handleSelf(w http.ResponseWriter, req *http.Request) {
	h.resolve(w, req, clientAddress(req), false)
}

func clientAddress(req *http.Request) string {
	for _, name := range clientAddressHeaders {
		value := req.Header.Get(name)
		if value == "" {
			continue
		}

		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}

		value = strings.TrimSpace(value)

		if sleuthlib.ValidateAddress(value) {
			return value
		}
	}

	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}

	return req.RemoteAddr
}
