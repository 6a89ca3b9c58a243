package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
	"HealthAssist/middleware"

	authRoutes "HealthAssist/routes/auth"
	chatRoutes "HealthAssist/routes/chat"
	convRoutes "HealthAssist/routes/conversation"
	medRoutes "HealthAssist/routes/medications"
	metricRoutes "HealthAssist/routes/metrics"
	seedRoutes "HealthAssist/routes/seed"
	websocketRoutes "HealthAssist/routes/websocket"
)

// StreamingPaths are routes whose responses stay open for a whole reply.
var StreamingPaths = []string{"/api/chat", "/ws/chat"}

func RegisterRoutes(r *gin.Engine, d *controllers.Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "health assistant backend running"})
	})
	r.GET("/healthz", controllers.Healthz(d.Ping))

	websocketRoutes.Register(r, d)

	api := r.Group("/api")
	authRoutes.RegisterPublic(api, d)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(d.Authenticator, d.Log))
	authRoutes.RegisterProtected(protected, d)
	chatRoutes.Register(protected, d)
	metricRoutes.Register(protected, d)
	medRoutes.Register(protected, d)
	seedRoutes.Register(protected, d)
	convRoutes.Register(protected, d)
}
