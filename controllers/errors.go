package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/middleware"
	"HealthAssist/pkg/session"
)

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// requireSession returns the caller's session or writes 401.
func requireSession(c *gin.Context) (*session.Session, bool) {
	s := middleware.CurrentSession(c)
	if s == nil {
		abortWithError(c, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return s, true
}
