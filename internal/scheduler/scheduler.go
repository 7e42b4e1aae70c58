// Package scheduler реализует таблицу триггеров локальных напоминаний —
// аналог системного планировщика уведомлений. Триггеры живут в памяти,
// не переживают перезапуск и пересоздаются из настроек при согласовании.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/metrics"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
)

// Publisher доставляет полезную нагрузку сработавшего триггера.
type Publisher interface {
	PublishReminder(payload models.ReminderPayload) error
}

// Registration — один зарегистрированный триггер.
type Registration struct {
	ID      string
	Spec    models.TriggerSpec
	Payload models.ReminderPayload
}

// Local хранит триггеры по пользователям и запускает их по тикам часов.
type Local struct {
	mu       sync.Mutex
	triggers map[string]map[string]Registration

	pub               Publisher
	log               *slog.Logger
	tick              time.Duration
	permissionGranted bool
	now               func() time.Time
}

// NewLocal создает планировщик. permissionGranted имитирует системное
// разрешение на доставку уведомлений.
func NewLocal(pub Publisher, log *slog.Logger, tick time.Duration, permissionGranted bool) *Local {
	return &Local{
		triggers:          make(map[string]map[string]Registration),
		pub:               pub,
		log:               log,
		tick:              tick,
		permissionGranted: permissionGranted,
		now:               time.Now,
	}
}

// RequestPermission возвращает, разрешена ли доставка уведомлений.
func (s *Local) RequestPermission(_ context.Context) (bool, error) {
	return s.permissionGranted, nil
}

// RegisterRecurring регистрирует повторяющийся триггер и возвращает его идентификатор.
func (s *Local) RegisterRecurring(_ context.Context, username string, spec models.TriggerSpec, payload models.ReminderPayload) (string, error) {
	const op = "scheduler.RegisterRecurring"

	if spec.Hour < 0 || spec.Hour > 23 || spec.Minute < 0 || spec.Minute > 59 {
		return "", fmt.Errorf("%s: invalid time %02d:%02d", op, spec.Hour, spec.Minute)
	}
	switch spec.Kind {
	case models.TriggerDaily:
	case models.TriggerWeekly:
		if spec.Weekday < 0 || spec.Weekday > 6 {
			return "", fmt.Errorf("%s: invalid weekday %d", op, spec.Weekday)
		}
	default:
		return "", fmt.Errorf("%s: unknown trigger kind %q", op, spec.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	if s.triggers[username] == nil {
		s.triggers[username] = make(map[string]Registration)
	}
	s.triggers[username][id] = Registration{ID: id, Spec: spec, Payload: payload}

	s.log.Info("registered recurring trigger",
		slog.String("username", username),
		slog.String("category", payload.Category),
		slog.String("kind", string(spec.Kind)))
	return id, nil
}

// RegisterOnce немедленно доставляет одноразовое уведомление и возвращает
// идентификатор. В таблицу триггеров ничего не добавляется.
func (s *Local) RegisterOnce(_ context.Context, username string, payload models.ReminderPayload) (string, error) {
	const op = "scheduler.RegisterOnce"

	if err := s.pub.PublishReminder(payload); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("delivered one-shot notification",
		slog.String("username", username),
		slog.String("category", payload.Category))
	return uuid.New().String(), nil
}

// CancelAll удаляет все триггеры пользователя.
func (s *Local) CancelAll(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := len(s.triggers[username])
	delete(s.triggers, username)
	s.log.Info("cancelled triggers", slog.String("username", username), slog.Int("count", count))
	return nil
}

// ListRegistered возвращает идентификаторы триггеров пользователя.
func (s *Local) ListRegistered(_ context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.triggers[username]))
	for id := range s.triggers[username] {
		ids = append(ids, id)
	}
	return ids, nil
}

// Run запускает цикл срабатывания триггеров до отмены контекста.
func (s *Local) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	lastCheck := s.now()
	for {
		select {
		case <-ticker.C:
			now := s.now()
			s.fireBetween(lastCheck, now)
			lastCheck = now
		case <-ctx.Done():
			return
		}
	}
}

// fireBetween доставляет триггеры, чьё время срабатывания попало в интервал (from, to].
func (s *Local) fireBetween(from, to time.Time) {
	due := s.collectDue(from, to)
	for _, reg := range due {
		if err := s.pub.PublishReminder(reg.Payload); err != nil {
			s.log.Error("failed to deliver reminder", sl.Err(err),
				slog.String("category", reg.Payload.Category))
			continue
		}
		metrics.RemindersFired.WithLabelValues(reg.Payload.Category).Inc()
	}
}

func (s *Local) collectDue(from, to time.Time) []Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Registration
	for _, userTriggers := range s.triggers {
		for _, reg := range userTriggers {
			if occursBetween(reg.Spec, from, to) {
				due = append(due, reg)
			}
		}
	}
	return due
}

// occursBetween проверяет, попадает ли срабатывание триггера в интервал (from, to].
// Интервал не длиннее нескольких тиков, поэтому достаточно пройтись по дням.
func occursBetween(spec models.TriggerSpec, from, to time.Time) bool {
	for day := from.AddDate(0, 0, -1); !day.After(to); day = day.AddDate(0, 0, 1) {
		occ := time.Date(day.Year(), day.Month(), day.Day(), spec.Hour, spec.Minute, 0, 0, day.Location())
		if occ.After(from) && !occ.After(to) {
			if spec.Kind == models.TriggerWeekly && int(occ.Weekday()) != spec.Weekday {
				continue
			}
			return true
		}
	}
	return false
}
