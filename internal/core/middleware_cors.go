package core

import (
	"net/http"
	"slices"
	"strings"

	"github.com/rs/cors"
)

// NewCORSMiddleware builds the browser allow-list for the checkout endpoint.
//
// match selects how an Origin is compared against allowedOrigins:
//   - "exact": the Origin must equal one entry.
//   - "prefix": the Origin must start with one entry. This is looser than
//     exact matching ("https://app.example.com.evil.test" passes an
//     "https://app.example.com" entry) and is only honoured when configured.
//
// A "*" entry allows every origin in either mode.
func NewCORSMiddleware(allowedOrigins []string, match string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         86400,
	}

	switch {
	case slices.Contains(allowedOrigins, "*"):
		opts.AllowedOrigins = []string{"*"}
	case match == "prefix":
		prefixes := slices.Clone(allowedOrigins)
		opts.AllowOriginFunc = func(origin string) bool {
			for _, p := range prefixes {
				if strings.HasPrefix(origin, p) {
					return true
				}
			}
			return false
		}
	default:
		opts.AllowedOrigins = allowedOrigins
	}

	return cors.New(opts).Handler
}
