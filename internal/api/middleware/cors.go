package middleware

import "net/http"

const (
	DefaultAllowOrigin  = "*"
	DefaultAllowHeaders = "authorization, x-client-info, apikey, content-type, x-correlation-id"
	allowMethods        = "POST, GET, OPTIONS"
)

// CORS sets the CORS headers on every response and answers preflight
// requests directly, before any authentication or body parsing.
func CORS(allowOrigin, allowHeaders string) func(http.Handler) http.Handler {
	if allowOrigin == "" {
		allowOrigin = DefaultAllowOrigin
	}
	if allowHeaders == "" {
		allowHeaders = DefaultAllowHeaders
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowOrigin)
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Allow-Methods", allowMethods)
			h.Set("Access-Control-Expose-Headers", "X-Correlation-ID")
			if allowOrigin != "*" {
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("ok"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
