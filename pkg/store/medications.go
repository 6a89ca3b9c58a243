package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
)

type MedicationStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Medication, error)
	// SetActive updates a medication only if it belongs to userID.
	SetActive(ctx context.Context, userID, id string, active bool) (*models.Medication, error)
	// ReplaceForUser deletes the user's medications and inserts meds.
	ReplaceForUser(ctx context.Context, userID string, meds []models.Medication) error
}

type medicationStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMedicationStore(db *gorm.DB, log *logger.Logger) MedicationStore {
	return &medicationStore{db: db, log: log.With("store", "MedicationStore")}
}

func (s *medicationStore) ListByUser(ctx context.Context, userID string) ([]models.Medication, error) {
	var meds []models.Medication
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("schedule_time ASC").
		Find(&meds).Error; err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	return meds, nil
}

func (s *medicationStore) SetActive(ctx context.Context, userID, id string, active bool) (*models.Medication, error) {
	var med models.Medication
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&med).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&models.Medication{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("active", active).Error; err != nil {
			return fmt.Errorf("update medication: %w", err)
		}
		med.Active = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &med, nil
}

func (s *medicationStore) ReplaceForUser(ctx context.Context, userID string, meds []models.Medication) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Medication{}).Error; err != nil {
			return fmt.Errorf("clear medications: %w", err)
		}
		if len(meds) == 0 {
			return nil
		}
		for i := range meds {
			meds[i].UserID = userID
		}
		if err := tx.Create(&meds).Error; err != nil {
			return fmt.Errorf("insert medications: %w", err)
		}
		return nil
	})
}
