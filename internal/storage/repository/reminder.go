package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// ReadSettings возвращает настройки напоминаний пользователя.
// Возвращает ErrNotFound, если настройки ещё не сохранялись.
func (s *Storage) ReadSettings(ctx context.Context, username string) (*models.ReminderSettings, error) {
	const op = "storage.ReadSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT username, enabled, meal_reminders_enabled, meal_times,
			      workout_reminder_enabled, workout_hour, workout_minute,
			      weight_reminder_enabled, weight_hour, weight_minute, weight_weekday
			  FROM reminder_settings WHERE username = $1`
	row := s.DB.QueryRowContext(ctx, query, username)

	var result models.ReminderSettings
	var mealTimesRaw []byte
	err := row.Scan(&result.Username, &result.Enabled, &result.MealRemindersEnabled, &mealTimesRaw,
		&result.WorkoutReminderEnabled, &result.WorkoutTime.Hour, &result.WorkoutTime.Minute,
		&result.WeightReminderEnabled, &result.WeightTime.Hour, &result.WeightTime.Minute,
		&result.WeightWeekday)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(mealTimesRaw, &result.MealTimes); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// SaveSettings сохраняет настройки напоминаний целиком, создавая запись при первом обращении.
func (s *Storage) SaveSettings(ctx context.Context, settings *models.ReminderSettings) error {
	const op = "storage.SaveSettings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	mealTimesRaw, err := json.Marshal(settings.MealTimes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO reminder_settings (username, enabled, meal_reminders_enabled, meal_times,
			      workout_reminder_enabled, workout_hour, workout_minute,
			      weight_reminder_enabled, weight_hour, weight_minute, weight_weekday)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  ON CONFLICT (username) DO UPDATE
			  SET enabled = EXCLUDED.enabled,
			      meal_reminders_enabled = EXCLUDED.meal_reminders_enabled,
			      meal_times = EXCLUDED.meal_times,
			      workout_reminder_enabled = EXCLUDED.workout_reminder_enabled,
			      workout_hour = EXCLUDED.workout_hour,
			      workout_minute = EXCLUDED.workout_minute,
			      weight_reminder_enabled = EXCLUDED.weight_reminder_enabled,
			      weight_hour = EXCLUDED.weight_hour,
			      weight_minute = EXCLUDED.weight_minute,
			      weight_weekday = EXCLUDED.weight_weekday`
	_, err = s.DB.ExecContext(ctx, query,
		settings.Username, settings.Enabled, settings.MealRemindersEnabled, mealTimesRaw,
		settings.WorkoutReminderEnabled, settings.WorkoutTime.Hour, settings.WorkoutTime.Minute,
		settings.WeightReminderEnabled, settings.WeightTime.Hour, settings.WeightTime.Minute,
		settings.WeightWeekday)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
