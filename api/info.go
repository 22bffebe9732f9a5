package api

import "net/http"

func (h httpHandler) handleStats(w http.ResponseWriter, req *http.Request) {
	response := statsResponse{
		Success: true,
		Results: h.resolver.UsageStats(),
	}

	w.Header().Set("Cache-Control", cacheControlNoCache)
	h.encodeJSON(w, http.StatusOK, response)
}
