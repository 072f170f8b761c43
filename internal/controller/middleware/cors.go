package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

var corsPolicy = cors.New(cors.Options{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", RequestIDHeader},
})

// CORS allows any origin to call the API from a browser. Preflight requests are
// answered here and never reach next.
func CORS(next http.Handler) http.Handler {
	return corsPolicy.Handler(next)
}
