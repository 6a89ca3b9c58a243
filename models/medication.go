package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Medication struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	UserID       string    `gorm:"size:36;not null;index" json:"user_id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Dose         string    `gorm:"size:60" json:"dose"`
	ScheduleTime string    `gorm:"size:5" json:"schedule_time"` // HH:MM
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Medication) TableName() string {
	return "medications"
}

func (m *Medication) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
