package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"medspa/internal/auth"
	"medspa/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	principalKey = "principal"
	userIDKey    = "userID"
	userRoleKey  = "userRole"
)

// Auth requires a valid bearer token and stores the caller in the context.
// The websocket route may pass the token as ?token= because browsers cannot
// set headers on an upgrade request.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			abort(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		p, err := auth.ParseToken(secret, raw)
		if err != nil {
			abort(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		SetPrincipal(c, p)
		c.Next()
	}
}

// SetPrincipal stores p under the keys handlers and RequireRoles read.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(principalKey, p)
	c.Set(userIDKey, int64(p.UserID))
	c.Set(userRoleKey, p.Role)
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) (domain.Principal, bool) {
	if c == nil {
		return domain.Principal{}, false
	}
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

func bearerToken(h string) string {
	h = strings.TrimSpace(h)
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"code":       code,
		"message":    msg,
		"request_id": GetRequestID(c),
	})
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
