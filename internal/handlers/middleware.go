package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"airport_manager/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
	sessionKey   = "session"
)

// RequireAuth validates the bearer token and stores the Session in the
// request context.
func RequireAuth(users services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader(authHeader)
		if len(h) < len(bearerPrefix) || !strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}
		sess, err := users.Authenticate(c.Request.Context(), h[len(bearerPrefix):])
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func session(c *gin.Context) services.Session {
	return c.MustGet(sessionKey).(services.Session)
}

// RequestLogger logs one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "request", attrs...)
			return
		}
		slog.DebugContext(c.Request.Context(), "request", attrs...)
	}
}
