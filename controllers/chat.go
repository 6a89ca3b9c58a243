package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/services"
)

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// Chat streams the assistant reply as plain text, flushing after every
// token. Once the body has started, failures can only cut the stream short.
func Chat(relay *services.ChatRelay, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "Chat")
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		var body chatRequest
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			abortWithError(c, http.StatusBadRequest, "message is required")
			return
		}
		if body.UserID != "" && body.UserID != s.UserID {
			abortWithError(c, http.StatusForbidden, "userId does not match the authenticated user")
			return
		}

		ctx := c.Request.Context()
		stream, err := relay.Open(ctx, s.UserID, body.Message)
		if err != nil && ctx.Err() != nil {
			log.Debug("client left before the reply started", "userID", s.UserID, "error", err)
			c.Abort()
			return
		}
		if err != nil {
			log.Error("chat request failed", "userID", s.UserID, "error", err)
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}

		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.Flush()

		text, err := stream.Pipe(ctx, func(tok string) error {
			if _, err := c.Writer.WriteString(tok); err != nil {
				return err
			}
			c.Writer.Flush()
			return nil
		})
		if err != nil {
			log.Warn("chat stream interrupted", "userID", s.UserID, "state", stream.State().String(), "error", err)
			return
		}
		log.Debug("chat reply streamed", "userID", s.UserID, "offline", stream.Offline(), "chars", len(text))
	}
}
