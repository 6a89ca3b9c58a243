package metrics

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

func Register(g *gin.RouterGroup, d *controllers.Deps) {
	g.GET("/metrics/latest", controllers.LatestMetrics(d.Metrics))
	g.GET("/metrics/weekly", controllers.WeeklyMetrics(d.Metrics))
}
