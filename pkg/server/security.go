package server

import (
	"net/http"
	"strings"
)

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Strict-Transport-Security: max-age=2 years
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

		// Prevent MIME-sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		// only JSON and plain text is served
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// account data must not end up in shared caches
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Add("Vary", "Authorization")
		}

		next.ServeHTTP(w, r)
	})
}
