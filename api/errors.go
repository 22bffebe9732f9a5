package api

import (
	"encoding/json"
	"net/http"
)

const (
	msgInvalidAddress   = "Invalid IP address format"
	msgResolveFailed    = "Unable to retrieve IP information, please try again later"
	msgRouteNotFound    = "Route not found"
	msgMethodNotAllowed = "This HTTP method is not allowed"
	msgShutdown         = "Service is shutting down"
)

type jsonHTTPError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

// MarshalJSON never exposes a wrapped error: it may contain details of
// upstream services.
func (h *httpError) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonHTTPError{
		Error: h.Message(),
	})
}
