package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/listenupapp/listenup-addon/internal/logger"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyBaseURL contextKey = "base_url"

// withBaseURL attaches the externally visible base URL to the request
// context. Relay links in responses are built under it.
func (s *Server) withBaseURL(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		base := s.publicBaseURL
		if base == "" {
			base = requestBaseURL(r)
		}
		ctx := context.WithValue(r.Context(), contextKeyBaseURL, base)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestBaseURL derives scheme://host from the request, honouring
// X-Forwarded-Proto from a fronting proxy.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host
}

// getBaseURL extracts the base URL from request context.
// Returns empty string outside a request.
func getBaseURL(ctx context.Context) string {
	if base, ok := ctx.Value(contextKeyBaseURL).(string); ok {
		return base
	}
	return ""
}

// withRequestID hands chi's request id to the logger package so service
// log lines can be correlated with the access log.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
