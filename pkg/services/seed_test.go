package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HealthAssist/models"
	"HealthAssist/pkg/database"
	"HealthAssist/pkg/logger"
	"HealthAssist/pkg/store"
)

type seedFixture struct {
	seeder      *Seeder
	metrics     store.MetricStore
	medications store.MedicationStore
	messages    store.ConversationStore
}

func newSeedFixture(t *testing.T) seedFixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	log := logger.NewNop()
	f := seedFixture{
		metrics:     store.NewMetricStore(db, log),
		medications: store.NewMedicationStore(db, log),
		messages:    store.NewConversationStore(db, log),
	}
	f.seeder = NewSeeder(f.metrics, f.medications, f.messages, log)
	f.seeder.now = func() time.Time { return time.Date(2025, 3, 2, 23, 30, 0, 0, time.UTC) }
	return f
}

func TestSeedMetricsCoversLastSevenDays(t *testing.T) {
	f := newSeedFixture(t)
	f.seeder.intn = func(n int) int { return n - 1 }

	rows, err := f.seeder.SeedMetrics(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rows, 7)

	assert.Equal(t, "2025-02-24", rows[0].Date)
	assert.Equal(t, "2025-03-02", rows[6].Date)
	for _, r := range rows {
		assert.Equal(t, 9999, r.Steps)
		assert.Equal(t, 1999, r.WaterML)
		assert.Equal(t, 8.0, r.SleepHours)
		assert.Equal(t, 9, r.Mood)
	}
}

func TestSeedMetricsRangesAtMinimum(t *testing.T) {
	f := newSeedFixture(t)
	f.seeder.intn = func(int) int { return 0 }

	rows, err := f.seeder.SeedMetrics(context.Background(), "u1")
	require.NoError(t, err)
	for _, r := range rows {
		assert.Equal(t, 5000, r.Steps)
		assert.Equal(t, 1000, r.WaterML)
		assert.Equal(t, 6.0, r.SleepHours)
		assert.Equal(t, 5, r.Mood)
	}
}

func TestSeedMetricsTwiceKeepsOneRowPerDay(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t)

	_, err := f.seeder.SeedMetrics(ctx, "u1")
	require.NoError(t, err)
	f.seeder.intn = func(int) int { return 0 }
	_, err = f.seeder.SeedMetrics(ctx, "u1")
	require.NoError(t, err)

	recent, err := f.metrics.Recent(ctx, "u1", 30)
	require.NoError(t, err)
	require.Len(t, recent, 7)

	dates := map[string]bool{}
	for _, m := range recent {
		assert.False(t, dates[m.Date], "duplicate date %s", m.Date)
		dates[m.Date] = true
		assert.Equal(t, 5000, m.Steps)
	}

	latest, err := f.metrics.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", latest.Date)
}

func TestSeedDemoLoadsAccount(t *testing.T) {
	ctx := context.Background()
	f := newSeedFixture(t)
	f.seeder.intn = func(int) int { return 0 }

	require.NoError(t, f.seeder.SeedDemo(ctx, "u1"))
	require.NoError(t, f.seeder.SeedDemo(ctx, "u1"))

	recent, err := f.metrics.Recent(ctx, "u1", 30)
	require.NoError(t, err)
	require.Len(t, recent, 7)
	assert.Equal(t, 1500, recent[0].WaterML)

	meds, err := f.medications.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, meds, 3)
	assert.Equal(t, "Vitamin D", meds[0].Name)
	assert.False(t, meds[0].Active)
	assert.Equal(t, "21:00", meds[2].ScheduleTime)

	history, err := f.messages.ListByUser(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, models.RoleUser, history[0].Role)
	assert.Equal(t, models.RoleAssistant, history[1].Role)
}
