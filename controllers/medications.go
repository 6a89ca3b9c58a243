package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/store"
)

type toggleRequest struct {
	ID     string `json:"id" binding:"required"`
	Active *bool  `json:"active" binding:"required"`
}

func ListMedications(meds store.MedicationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		rows, err := meds.ListByUser(c.Request.Context(), s.UserID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		if rows == nil {
			rows = []models.Medication{}
		}
		c.JSON(http.StatusOK, rows)
	}
}

// ToggleMedication sets the active flag on one of the caller's medications.
func ToggleMedication(meds store.MedicationStore, log *logger.Logger) gin.HandlerFunc {
	log = log.With("handler", "ToggleMedication")
	return func(c *gin.Context) {
		s, ok := requireSession(c)
		if !ok {
			return
		}
		var body toggleRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			abortWithError(c, http.StatusBadRequest, "id and active are required")
			return
		}

		med, err := meds.SetActive(c.Request.Context(), s.UserID, body.ID, *body.Active)
		if errors.Is(err, store.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "medication not found")
			return
		}
		if err != nil {
			log.Error("failed to toggle medication", "userID", s.UserID, "medicationID", body.ID, "error", err)
			abortWithError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, med)
	}
}
