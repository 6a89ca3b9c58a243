package medications

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

func Register(g *gin.RouterGroup, d *controllers.Deps) {
	g.GET("/medications", controllers.ListMedications(d.Medications))
	g.POST("/medications/toggle", controllers.ToggleMedication(d.Medications, d.Log))
}
