// Package reminder содержит бизнес-логику согласования настроек напоминаний
// с таблицей триггеров планировщика.
//
// Настройки — декларативное описание желаемого набора напоминаний. Любое их
// изменение приводит к полному пересозданию набора: сначала снимаются все
// триггеры пользователя, затем набор выводится заново из текущих настроек.
// Никакого поэлементного сравнения — так состояние планировщика не может
// разойтись с настройками.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/lib/timeslot"
	"github.com/magabrotheeeer/fitness-reminders/internal/metrics"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
	"github.com/magabrotheeeer/fitness-reminders/internal/storage/repository"
)

// Scheduler описывает планировщик локальных уведомлений.
type Scheduler interface {
	// RequestPermission запрашивает разрешение на доставку уведомлений.
	RequestPermission(ctx context.Context) (bool, error)
	// RegisterRecurring регистрирует повторяющийся триггер.
	RegisterRecurring(ctx context.Context, username string, spec models.TriggerSpec, payload models.ReminderPayload) (string, error)
	// RegisterOnce немедленно доставляет одноразовое уведомление.
	RegisterOnce(ctx context.Context, username string, payload models.ReminderPayload) (string, error)
	// CancelAll снимает все триггеры пользователя.
	CancelAll(ctx context.Context, username string) error
	// ListRegistered возвращает идентификаторы триггеров пользователя.
	ListRegistered(ctx context.Context, username string) ([]string, error)
}

// Repository определяет методы для работы с настройками напоминаний в хранилище.
type Repository interface {
	// ReadSettings возвращает настройки пользователя.
	ReadSettings(ctx context.Context, username string) (*models.ReminderSettings, error)
	// SaveSettings сохраняет настройки пользователя целиком.
	SaveSettings(ctx context.Context, settings *models.ReminderSettings) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service реализует сохранение настроек и согласование триггеров.
// Проходы согласования сериализуются мьютексом: два прохода, наперегонки
// снимающие и регистрирующие триггеры, оставили бы планировщик
// в несогласованном состоянии.
type Service struct {
	repo  Repository
	cache Cache
	sched Scheduler
	log   *slog.Logger

	mu sync.Mutex
	// permissionDenied отражает системное разрешение на уведомления, которое
	// выдаётся на устройство целиком, а не на пользователя, поэтому флаг
	// общий для сервиса. Перепроверяется только при следующем включении
	// главного выключателя.
	permissionDenied bool
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, sched Scheduler, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		sched: sched,
		log:   log,
	}
}

// GetSettings возвращает настройки пользователя. Отсутствующая или
// нечитаемая запись заменяется настройками по умолчанию.
func (s *Service) GetSettings(ctx context.Context, username string) *models.ReminderSettings {
	return s.readSettings(ctx, username)
}

func (s *Service) readSettings(ctx context.Context, username string) *models.ReminderSettings {
	cacheKey := fmt.Sprintf("reminder_settings:%s", username)

	var cached models.ReminderSettings
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read settings from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached
	}

	settings, err := s.repo.ReadSettings(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultReminderSettings(username)
	}
	if err != nil {
		s.log.Warn("failed to read settings, falling back to defaults",
			slog.String("username", username), sl.Err(err))
		return models.DefaultReminderSettings(username)
	}

	if err := s.cache.Set(ctx, cacheKey, settings, time.Hour); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey), sl.Err(err))
	}
	return settings
}

// SaveSettings применяет частичное обновление к настройкам пользователя,
// сохраняет их и безусловно запускает полное согласование триггеров.
// Времена приёмов пищи проверяются на хронологию до записи: невалидное
// расписание в хранилище не попадает.
func (s *Service) SaveSettings(ctx context.Context, username string, patch models.DummySettingsPatch) (*models.ReminderSettings, error) {
	const op = "services.reminder.SaveSettings"

	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.readSettings(ctx, username)
	applyPatch(settings, patch)

	if patch.MealTimes != nil {
		if err := timeslot.ValidateMealTimes(settings.MealTimes); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cacheKey := fmt.Sprintf("reminder_settings:%s", username)
	if err := s.cache.Set(ctx, cacheKey, settings, time.Hour); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey), sl.Err(err))
	}

	// Разрешение перепроверяется только при явном включении главного
	// выключателя: опрашивать систему на каждом запуске слишком навязчиво.
	if patch.Enabled != nil && *patch.Enabled {
		granted, err := s.sched.RequestPermission(ctx)
		if err != nil {
			s.log.Warn("failed to request notification permission", sl.Err(err))
		}
		s.permissionDenied = err == nil && !granted
		if s.permissionDenied {
			s.log.Warn("notification permission denied, reminders will not be scheduled",
				slog.String("username", username))
		}
	}

	s.reconcileLocked(ctx, settings)
	return settings, nil
}

// SaveMealSchedule заменяет расписание приёмов пищи целиком. Это второй
// вход редактора расписания питания рядом с частичным обновлением настроек:
// обе дороги проходят одну и ту же проверку хронологии, и невалидное
// расписание не попадает в хранилище ни по одной из них.
func (s *Service) SaveMealSchedule(ctx context.Context, username string, meals []models.MealTime) (*models.ReminderSettings, error) {
	const op = "services.reminder.SaveMealSchedule"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := timeslot.ValidateMealTimes(meals); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	settings := s.readSettings(ctx, username)
	settings.MealTimes = meals

	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cacheKey := fmt.Sprintf("reminder_settings:%s", username)
	if err := s.cache.Set(ctx, cacheKey, settings, time.Hour); err != nil {
		s.log.Warn("failed to cache settings", slog.String("key", cacheKey), sl.Err(err))
	}

	s.reconcileLocked(ctx, settings)
	return settings, nil
}

// Reconcile запускает полный проход согласования по текущим настройкам.
func (s *Service) Reconcile(ctx context.Context, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconcileLocked(ctx, s.readSettings(ctx, username))
}

// reconcileLocked выполняет один проход: снять все триггеры, затем вывести
// набор заново. Фаза снятия полностью завершается до первой регистрации,
// иначе старый и новый триггер одной категории могли бы жить одновременно.
// Отказ планировщика по отдельному триггеру не прерывает проход.
func (s *Service) reconcileLocked(ctx context.Context, settings *models.ReminderSettings) {
	const op = "services.reminder.reconcile"
	log := s.log.With(sl.Op(op), slog.String("username", settings.Username))

	metrics.ReconcilePasses.Inc()

	if err := s.sched.CancelAll(ctx, settings.Username); err != nil {
		log.Warn("failed to cancel existing triggers", sl.Err(err))
	}

	if !settings.Enabled {
		log.Info("reminders disabled by master switch, no triggers registered")
		return
	}
	if s.permissionDenied {
		log.Info("notification permission denied, no triggers registered")
		return
	}

	registered := 0
	if settings.MealRemindersEnabled {
		for _, meal := range settings.MealTimes {
			spec := models.TriggerSpec{Kind: models.TriggerDaily, Hour: meal.Hour, Minute: meal.Minute}
			payload := models.ReminderPayload{
				Username:  settings.Username,
				Category:  models.CategoryMeal,
				MealLabel: meal.Label,
			}
			if _, err := s.sched.RegisterRecurring(ctx, settings.Username, spec, payload); err != nil {
				log.Error("failed to register meal trigger", slog.String("meal", meal.Label), sl.Err(err))
				metrics.RegisterFailures.WithLabelValues(models.CategoryMeal).Inc()
				continue
			}
			metrics.TriggersRegistered.WithLabelValues(models.CategoryMeal).Inc()
			registered++
		}
	}

	if settings.WorkoutReminderEnabled {
		spec := models.TriggerSpec{
			Kind:   models.TriggerDaily,
			Hour:   settings.WorkoutTime.Hour,
			Minute: settings.WorkoutTime.Minute,
		}
		payload := models.ReminderPayload{Username: settings.Username, Category: models.CategoryWorkout}
		if _, err := s.sched.RegisterRecurring(ctx, settings.Username, spec, payload); err != nil {
			log.Error("failed to register workout trigger", sl.Err(err))
			metrics.RegisterFailures.WithLabelValues(models.CategoryWorkout).Inc()
		} else {
			metrics.TriggersRegistered.WithLabelValues(models.CategoryWorkout).Inc()
			registered++
		}
	}

	if settings.WeightReminderEnabled {
		spec := models.TriggerSpec{
			Kind:    models.TriggerWeekly,
			Hour:    settings.WeightTime.Hour,
			Minute:  settings.WeightTime.Minute,
			Weekday: settings.WeightWeekday,
		}
		payload := models.ReminderPayload{Username: settings.Username, Category: models.CategoryWeight}
		if _, err := s.sched.RegisterRecurring(ctx, settings.Username, spec, payload); err != nil {
			log.Error("failed to register weight trigger", sl.Err(err))
			metrics.RegisterFailures.WithLabelValues(models.CategoryWeight).Inc()
		} else {
			metrics.TriggersRegistered.WithLabelValues(models.CategoryWeight).Inc()
			registered++
		}
	}

	log.Info("reconciliation pass finished", slog.Int("registered", registered))
}

// SendTestNotification немедленно отправляет проверочное уведомление.
// Флаги включения не учитываются: это проба доставки, а не напоминание.
func (s *Service) SendTestNotification(ctx context.Context, username string) error {
	const op = "services.reminder.SendTestNotification"

	payload := models.ReminderPayload{Username: username, Category: models.CategoryTest}
	if _, err := s.sched.RegisterOnce(ctx, username, payload); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("test notification sent", slog.String("username", username))
	return nil
}

// applyPatch накладывает частичное обновление на настройки.
// Нулевые указатели оставляют поле без изменений.
func applyPatch(settings *models.ReminderSettings, patch models.DummySettingsPatch) {
	if patch.Enabled != nil {
		settings.Enabled = *patch.Enabled
	}
	if patch.MealRemindersEnabled != nil {
		settings.MealRemindersEnabled = *patch.MealRemindersEnabled
	}
	if patch.MealTimes != nil {
		meals := make([]models.MealTime, 0, len(patch.MealTimes))
		for _, m := range patch.MealTimes {
			meals = append(meals, models.MealTime{Label: m.Label, Hour: m.Hour, Minute: m.Minute})
		}
		settings.MealTimes = meals
	}
	if patch.WorkoutReminderEnabled != nil {
		settings.WorkoutReminderEnabled = *patch.WorkoutReminderEnabled
	}
	if patch.WorkoutHour != nil {
		settings.WorkoutTime.Hour = *patch.WorkoutHour
	}
	if patch.WorkoutMinute != nil {
		settings.WorkoutTime.Minute = *patch.WorkoutMinute
	}
	if patch.WeightReminderEnabled != nil {
		settings.WeightReminderEnabled = *patch.WeightReminderEnabled
	}
	if patch.WeightHour != nil {
		settings.WeightTime.Hour = *patch.WeightHour
	}
	if patch.WeightMinute != nil {
		settings.WeightTime.Minute = *patch.WeightMinute
	}
	if patch.WeightWeekday != nil {
		settings.WeightWeekday = *patch.WeightWeekday
	}
}
