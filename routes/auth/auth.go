package auth

import (
	"github.com/gin-gonic/gin"

	"HealthAssist/controllers"
)

// RegisterPublic registers public auth routes: /register, /login
func RegisterPublic(g *gin.RouterGroup, d *controllers.Deps) {
	g.POST("/register", controllers.Register(d.Users, d.Log))
	g.POST("/login", controllers.Login(d.Users, d.Issuer, d.Log))
}

// RegisterProtected registers routes that need a session: /logout, /me
func RegisterProtected(g *gin.RouterGroup, d *controllers.Deps) {
	g.POST("/logout", controllers.Logout(d.Authenticator, d.Log))
	g.GET("/me", controllers.Profile(d.Users))
}
