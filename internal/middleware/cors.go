// Package middleware provides reusable HTTP middleware for the QuickAvail API.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// AdminKeyHeader carries the admin key on the analytics route.
const AdminKeyHeader = "X-Admin-Key"

// NewCORSHandler returns a middleware that applies CORS headers based on allowedOrigins.
// Each entry in allowedOrigins must be a full origin (scheme + host, no trailing slash).
// The share page is read cross-origin, so GET, POST and the admin key header are allowed.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", AdminKeyHeader},
		ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(next)
	}
}
