package chat

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

func Register(g *gin.RouterGroup, d *controllers.Deps) {
	g.POST("/chat", d.RateLimiter.Handler(), controllers.Chat(d.Relay, d.Log))
}
