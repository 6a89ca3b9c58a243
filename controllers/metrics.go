package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/models"
	"HealthAssist/pkg/services"
	"HealthAssist/pkg/store"
)

const weeklyDays = 7

// emptyMetrics is what a user with no rows sees.
func emptyMetrics() gin.H {
	return gin.H{"steps": 0, "water_ml": 0, "sleep_hours": 0, "mood": 5}
}

func LatestMetrics(metrics store.MetricStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		m, err := metrics.Latest(c.Request.Context(), s.UserID)
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, emptyMetrics())
			return
		}
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// WeeklyMetrics returns the newest seven rows, oldest first.
func WeeklyMetrics(metrics store.MetricStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		rows, err := metrics.Recent(c.Request.Context(), s.UserID, weeklyDays)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if rows == nil {
			rows = []models.Metric{}
		}
		c.JSON(http.StatusOK, rows)
	}
}

// SeedMetrics fills the trailing week with demo values.
func SeedMetrics(seeder *services.Seeder) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		if _, err := seeder.SeedMetrics(c.Request.Context(), s.UserID); err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Demo data loaded"})
	}
}
