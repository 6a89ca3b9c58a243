package websocket

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

// Register mounts the chat socket; it authenticates with ?token= and
// applies the rate limit itself.
func Register(r *gin.Engine, d *controllers.Deps) {
	r.GET("/ws/chat", controllers.ChatWS(d.Authenticator, d.RateLimiter, d.Relay, d.Log))
}
