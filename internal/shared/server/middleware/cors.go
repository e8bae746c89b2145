package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const corsMaxAge = 10 * time.Minute

// CORS allows the configured origins and answers preflight requests. An empty
// list or a "*" entry allows any origin without credentials. Entries such as
// "https://*.example.com" match subdomains.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "Retry-After"},
		MaxAge:        corsMaxAge,
	}

	origins, allowAll := normalizeOrigins(allowedOrigins)
	if allowAll {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	for _, o := range origins {
		if strings.Contains(o, "*") {
			cfg.AllowWildcard = true
			break
		}
	}
	return cors.New(cfg)
}

func normalizeOrigins(in []string) (origins []string, allowAll bool) {
	for _, o := range in {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
			continue
		case "*":
			return nil, true
		}
		origins = append(origins, o)
	}
	return origins, len(origins) == 0
}
