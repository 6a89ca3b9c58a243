package store

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
)

type MetricStore interface {
	Latest(ctx context.Context, userID string) (*models.Metric, error)
	// Recent returns up to n of the newest rows in ascending date order.
	Recent(ctx context.Context, userID string, n int) ([]models.Metric, error)
	// Upsert inserts rows, overwriting the values of an existing (user_id, date).
	Upsert(ctx context.Context, metrics []models.Metric) error
}

type metricStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricStore(db *gorm.DB, log *logger.Logger) MetricStore {
	return &metricStore{db: db, log: log.With("store", "MetricStore")}
}

func (s *metricStore) Latest(ctx context.Context, userID string) (*models.Metric, error) {
	var m models.Metric
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		First(&m).Error; err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *metricStore) Recent(ctx context.Context, userID string, n int) ([]models.Metric, error) {
	var rows []models.Metric
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Limit(n).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("recent metrics: %w", err)
	}
	slices.Reverse(rows)
	return rows, nil
}

func (s *metricStore) Upsert(ctx context.Context, metrics []models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"steps", "water_ml", "sleep_hours", "mood"}),
	}).Create(&metrics).Error
	if err != nil {
		s.log.Error("failed to upsert metrics", "rows", len(metrics), "error", err)
		return fmt.Errorf("upsert metrics: %w", err)
	}
	return nil
}
