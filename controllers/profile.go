package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/pkg/store"
)

// Profile returns the authenticated account.
func Profile(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		user, err := users.GetByID(c.Request.Context(), s.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				abortWithError(c, http.StatusNotFound, "User not found")
				return
			}
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
