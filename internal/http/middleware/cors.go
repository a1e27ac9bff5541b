package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
}

// CORS allows the configured POS front-end origins. An empty list falls back
// to local dev servers; "*" opens it to any origin without credentials.
func CORS(allowed []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", "Idempotency-Key", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}

	origins := []string{}
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		switch {
		case o == "*":
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
		case strings.HasPrefix(o, "http://") || strings.HasPrefix(o, "https://"):
			origins = append(origins, strings.TrimRight(o, "/"))
		}
	}
	if !cfg.AllowAllOrigins {
		if len(origins) == 0 {
			origins = devOrigins
		}
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
