package seed

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

// Register registers the demo data loader (protected)
func Register(g *gin.RouterGroup, d *controllers.Deps) {
	g.POST("/seed", controllers.SeedMetrics(d.Seeder))
}
