package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

const maxPostBodySize = 64 * 1024

func (h httpHandler) handleGetIP(w http.ResponseWriter, req *http.Request) {
	addr := chi.URLParam(req, "ip")

	if unescaped, err := url.PathUnescape(addr); err == nil {
		addr = unescaped
	}

	h.resolve(w, req, addr, true)
}

func (h httpHandler) handlePost(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, req, &httpError{
			message:    "Incorrect content type",
			statusCode: http.StatusUnsupportedMediaType,
		})

		return
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(req.Body, maxPostBodySize))

	req.Body.Close()

	if err != nil {
		h.sendError(w, req, &httpError{
			message:    "Cannot read request body",
			err:        err,
			statusCode: http.StatusBadRequest,
		})

		return
	}

	errs, err := postRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, req, &httpError{
			message:    "Invalid request body",
			err:        err,
			statusCode: http.StatusBadRequest,
		})

		return
	}

	if len(errs) > 0 {
		h.sendError(w, req, &httpError{
			message:    "Invalid request body",
			err:        errs[0],
			statusCode: http.StatusBadRequest,
		})

		return
	}

	parsedRequest := postRequest{}
	if err := json.Unmarshal(bodyBytes, &parsedRequest); err != nil {
		h.sendError(w, req, &httpError{
			message:    "Cannot parse request JSON",
			err:        err,
			statusCode: http.StatusBadRequest,
		})

		return
	}

	resolved, err := h.resolver.ResolveAll(req.Context(), uniqueAddresses(parsedRequest.IPs))
	if err != nil {
		h.sendError(w, req, h.classifyError(err))

		return
	}

	response := postResponse{
		Success: true,
		Results: make([]postResponseItem, len(resolved)),
	}

	for i, v := range resolved {
		item := &response.Results[i]
		item.Address = v.Address

		if v.Err != nil {
			item.Error = h.classifyError(v.Err).Message()

			continue
		}

		item.Success = v.Result.Success
		item.Data = v.Result.Data
	}

	w.Header().Set("Cache-Control", cacheControlNoCache)
	h.encodeJSON(w, http.StatusOK, response)
}

func uniqueAddresses(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	rv := make([]string, 0, len(addrs))

	for _, v := range addrs {
		v = strings.TrimSpace(v)

		if !seen[v] {
			seen[v] = true
			rv = append(rv, v)
		}
	}

	return rv
}
