package conversation

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

// Register registers conversation history routes (protected)
func Register(g *gin.RouterGroup, d *controllers.Deps) {
	g.GET("/conversations", controllers.ListConversation(d.Conversations))
}
