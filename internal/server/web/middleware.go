package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesley950/coisando-coisas/internal/logging"
	"github.com/wesley950/coisando-coisas/internal/server/auth"
	"github.com/wesley950/coisando-coisas/internal/server/identity"
)

// SessionCookie carries the signed session token.
const SessionCookie = "sessao"

const (
	identityKey = "identity"
	claimsKey   = "claims"
)

// identityMiddleware resolves the session cookie once per request. Any
// problem with the cookie yields identity.Anonymous.
func (s *Server) identityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ident identity.Identity = identity.Anonymous{}
		var claims *auth.Claims
		if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
			ident, claims = s.deps.Sessions.ResolveSession(c.Request.Context(), token)
		}
		c.Set(identityKey, ident)
		if claims != nil {
			c.Set(claimsKey, claims)
		}
		c.Next()
	}
}

func identityOf(c *gin.Context) identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(identity.Identity); ok {
			return ident
		}
	}
	return identity.Anonymous{}
}

func claimsOf(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequestLogger logs one line per request, at a level that follows the
// response status.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []any{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id, ok := identityOf(c).(identity.Authenticated); ok {
			fields = append(fields, "user_id", id.UserID)
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "HTTP request", fields...)
		case status >= 400:
			log.Warn(ctx, "HTTP request", fields...)
		default:
			log.Info(ctx, "HTTP request", fields...)
		}
	}
}

func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "same-origin")
		c.Next()
	}
}

// BodyLimit rejects request bodies larger than maxBytes. Zero disables it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
