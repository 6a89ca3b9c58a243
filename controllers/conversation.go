package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/models"
	"HealthAssist/pkg/store"
	"HealthAssist/pkg/utils"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ListConversation returns the caller's newest messages in chronological order.
func ListConversation(convs store.ConversationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		limit := utils.ParseLimit(c.Query("limit"), defaultHistoryLimit, maxHistoryLimit)
		msgs, err := convs.ListByUser(c.Request.Context(), s.UserID, limit)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if msgs == nil {
			msgs = []models.ConversationMessage{}
		}
		c.JSON(http.StatusOK, msgs)
	}
}
