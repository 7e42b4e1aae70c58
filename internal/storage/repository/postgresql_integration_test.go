package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))

	createSchema(t, db)

	cleanup := func() {
		_ = db.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return &Storage{DB: db}, cleanup
}

func createSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS entitlements (
		username TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'none',
		trial_start TIMESTAMPTZ,
		trial_end TIMESTAMPTZ,
		subscription_start TIMESTAMPTZ,
		subscription_end TIMESTAMPTZ,
		has_seen_gate BOOLEAN NOT NULL DEFAULT FALSE
	)`)
	require.NoError(t, err)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS reminder_settings (
		username TEXT PRIMARY KEY,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		meal_reminders_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		meal_times JSONB NOT NULL DEFAULT '[]'::jsonb,
		workout_reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		workout_hour INT NOT NULL DEFAULT 18,
		workout_minute INT NOT NULL DEFAULT 0,
		weight_reminder_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		weight_hour INT NOT NULL DEFAULT 9,
		weight_minute INT NOT NULL DEFAULT 0,
		weight_weekday INT NOT NULL DEFAULT 1
	)`)
	require.NoError(t, err)
}

func TestStorage_Entitlement_RoundTrip(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	// Записи еще нет
	_, err := storage.ReadEntitlement(ctx, "testuser")
	require.ErrorIs(t, err, ErrNotFound)

	trialStart := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	trialEnd := trialStart.AddDate(0, 0, 7)
	record := &models.EntitlementRecord{
		Username:   "testuser",
		Status:     models.StatusTrial,
		TrialStart: &trialStart,
		TrialEnd:   &trialEnd,
	}
	require.NoError(t, storage.SaveEntitlement(ctx, record))

	got, err := storage.ReadEntitlement(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTrial, got.Status)
	require.NotNil(t, got.TrialStart)
	require.NotNil(t, got.TrialEnd)
	assert.True(t, got.TrialStart.Equal(trialStart))
	assert.True(t, got.TrialEnd.Equal(trialEnd))
	assert.Nil(t, got.SubscriptionEnd)
	assert.False(t, got.HasSeenGate)

	// Повторное сохранение обновляет существующую запись
	subEnd := trialEnd.AddDate(0, 1, 0)
	record.Status = models.StatusActive
	record.SubscriptionStart = &trialEnd
	record.SubscriptionEnd = &subEnd
	record.HasSeenGate = true
	require.NoError(t, storage.SaveEntitlement(ctx, record))

	got, err = storage.ReadEntitlement(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	require.NotNil(t, got.SubscriptionEnd)
	assert.True(t, got.SubscriptionEnd.Equal(subEnd))
	assert.True(t, got.HasSeenGate)
}

func TestStorage_Settings_RoundTrip(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()

	_, err := storage.ReadSettings(ctx, "testuser")
	require.ErrorIs(t, err, ErrNotFound)

	settings := models.DefaultReminderSettings("testuser")
	settings.Enabled = true
	settings.MealRemindersEnabled = true
	require.NoError(t, storage.SaveSettings(ctx, settings))

	got, err := storage.ReadSettings(ctx, "testuser")
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.True(t, got.MealRemindersEnabled)
	require.Len(t, got.MealTimes, 3)
	assert.Equal(t, "breakfast", got.MealTimes[0].Label)
	assert.Equal(t, 8, got.MealTimes[0].Hour)
	assert.Equal(t, models.TimeSlot{Hour: 18, Minute: 0}, got.WorkoutTime)
	assert.Equal(t, 1, got.WeightWeekday)

	// Полная перезапись настроек
	settings.MealTimes = []models.MealTime{
		{Label: "breakfast", Hour: 7, Minute: 30},
		{Label: "dinner", Hour: 20, Minute: 0},
	}
	settings.MealRemindersEnabled = false
	require.NoError(t, storage.SaveSettings(ctx, settings))

	got, err = storage.ReadSettings(ctx, "testuser")
	require.NoError(t, err)
	assert.False(t, got.MealRemindersEnabled)
	require.Len(t, got.MealTimes, 2)
	assert.Equal(t, 7, got.MealTimes[0].Hour)
	assert.Equal(t, 30, got.MealTimes[0].Minute)
}
