package middleware

import (
	"mime"
	"net/http"
)

// ContentType requires application/json on requests that carry a body.
// Bodiless POSTs such as /todos/{id}/toggle pass through.
func ContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hasBody(r) {
			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				writeJSONError(w, http.StatusBadRequest, "Content-Type header is required")
				return
			}

			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || mediaType != "application/json" {
				writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPatch, http.MethodPut:
	default:
		return false
	}
	// -1 means unknown length, e.g. chunked encoding
	return r.ContentLength != 0
}
