package middleware

import (
	"net/http"
)

// DefaultMaxBodySize is 1MB; webhook payloads carry metadata, not files.
const DefaultMaxBodySize int64 = 1 << 20

// RequestSize limits the size of incoming request bodies. Requests whose body
// exceeds maxBytes fail with 413 when the handler reads them.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}

// WebhookRequestSize limits request bodies to the default webhook size.
func WebhookRequestSize() func(http.Handler) http.Handler {
	return RequestSize(DefaultMaxBodySize)
}
