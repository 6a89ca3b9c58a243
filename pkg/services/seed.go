package services

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"HealthAssist/models"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/store"
)

const seedDays = 7

// waterRange describes water_ml as base + [0, spread).
type waterRange struct {
	base, spread int
}

var (
	apiWater  = waterRange{base: 1000, spread: 1000}
	demoWater = waterRange{base: 1500, spread: 1000}
)

type Seeder struct {
	metrics     store.MetricStore
	medications store.MedicationStore
	messages    store.ConversationStore
	log         *logger.Logger

	intn func(n int) int
	now  func() time.Time
}

func NewSeeder(metrics store.MetricStore, medications store.MedicationStore, messages store.ConversationStore, log *logger.Logger) *Seeder {
	return &Seeder{
		metrics:     metrics,
		medications: medications,
		messages:    messages,
		log:         log.With("service", "Seeder"),
		intn:        rand.IntN,
		now:         time.Now,
	}
}

// SeedMetrics upserts one randomized row for each of the last seven days,
// today included.
func (s *Seeder) SeedMetrics(ctx context.Context, userID string) ([]models.Metric, error) {
	rows := s.week(userID, apiWater)
	if err := s.metrics.Upsert(ctx, rows); err != nil {
		return nil, err
	}
	s.log.Info("seeded metrics", "userID", userID, "days", len(rows))
	return rows, nil
}

// SeedDemo loads a full demo account: a week of metrics, a fresh set of
// medications and an opening exchange with the assistant.
func (s *Seeder) SeedDemo(ctx context.Context, userID string) error {
	if err := s.metrics.Upsert(ctx, s.week(userID, demoWater)); err != nil {
		return fmt.Errorf("seed metrics: %w", err)
	}
	if err := s.medications.ReplaceForUser(ctx, userID, DemoMedications()); err != nil {
		return fmt.Errorf("seed medications: %w", err)
	}
	if err := s.messages.AppendMany(ctx, demoConversation(userID)); err != nil {
		return fmt.Errorf("seed conversation: %w", err)
	}
	s.log.Info("seeded demo account", "userID", userID)
	return nil
}

func (s *Seeder) week(userID string, water waterRange) []models.Metric {
	today := s.now().UTC()
	rows := make([]models.Metric, 0, seedDays)
	for i := seedDays - 1; i >= 0; i-- {
		rows = append(rows, models.Metric{
			UserID:     userID,
			Date:       today.AddDate(0, 0, -i).Format(models.DateLayout),
			Steps:      5000 + s.intn(5000),
			WaterML:    water.base + s.intn(water.spread),
			SleepHours: float64(6 + s.intn(3)),
			Mood:       5 + s.intn(5),
		})
	}
	return rows
}

func DemoMedications() []models.Medication {
	return []models.Medication{
		{Name: "Vitamin D", Dose: "1000 IU", ScheduleTime: "08:00", Active: false},
		{Name: "Omega-3", Dose: "500mg", ScheduleTime: "13:00", Active: true},
		{Name: "Magnesium", Dose: "200mg", ScheduleTime: "21:00", Active: true},
	}
}

func demoConversation(userID string) []*models.ConversationMessage {
	return []*models.ConversationMessage{
		{UserID: userID, Role: models.RoleUser, Content: "Hi, how are my steps this week?"},
		{UserID: userID, Role: models.RoleAssistant, Content: "You have been doing great! You averaged 7,500 steps this week."},
	}
}
