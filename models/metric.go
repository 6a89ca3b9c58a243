package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DateLayout is the day-granularity format used for Metric.Date.
const DateLayout = "2006-01-02"

// Metric is a daily snapshot; (UserID, Date) is unique.
type Metric struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;not null;uniqueIndex:uidx_metrics_user_date" json:"user_id"`
	Date       string    `gorm:"size:10;not null;uniqueIndex:uidx_metrics_user_date" json:"date"`
	Steps      int       `gorm:"not null" json:"steps"`
	WaterML    int       `gorm:"column:water_ml;not null" json:"water_ml"`
	SleepHours float64   `gorm:"not null" json:"sleep_hours"`
	Mood       int       `gorm:"not null" json:"mood"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Metric) TableName() string {
	return "metrics"
}

func (m *Metric) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
