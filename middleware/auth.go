package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"HealthAssist/pkg/auth"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/session"
)

// TokenResolver turns a bearer token into the session it belongs to.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*session.Session, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireAuth resolves the caller on every request and stores the session in
// the request context. Requests without a live session are rejected with 401.
func RequireAuth(resolver TokenResolver, log *logger.Logger) gin.HandlerFunc {
	log = log.With("middleware", "RequireAuth")
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}
		tok, ok := BearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		s, err := resolver.Resolve(c.Request.Context(), tok)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrRevokedToken):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has been revoked"})
			return
		case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		default:
			log.Error("session lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not verify session"})
			return
		}

		c.Request = c.Request.WithContext(session.WithSession(c.Request.Context(), s))
		c.Next()
	}
}

// CurrentSession returns the session stored by RequireAuth, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	return session.FromContext(c.Request.Context())
}
