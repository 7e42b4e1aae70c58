// Package entitlement содержит бизнес-логику прав доступа к премиум-функциям.
//
// Статус всегда выводится заново из сохранённых временных меток: фоновых
// таймеров нет, каждое чтение — свежий вывод. Поле Status в записи носит
// справочный характер и обновляется только явным вызовом RefreshStatus.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/magabrotheeeer/fitness-reminders/internal/lib/sl"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
	"github.com/magabrotheeeer/fitness-reminders/internal/storage/repository"
)

// ErrTrialAlreadyUsed возвращается при попытке начать второй пробный период.
var ErrTrialAlreadyUsed = errors.New("trial already used")

// DeriveStatus выводит текущий статус из временных меток записи.
// Чистая функция: запись не изменяется, время передаётся снаружи.
//
// Порядок правил гарантирует, что подписка всегда приоритетнее триала,
// а "expired" достижим только из прежних "active" или "trial" — запись,
// которая всегда была "none", не может незаметно стать "expired".
func DeriveStatus(record *models.EntitlementRecord, now time.Time) models.Status {
	switch {
	case record.SubscriptionEnd != nil && now.Before(*record.SubscriptionEnd):
		return models.StatusActive
	case record.SubscriptionEnd != nil && record.Status == models.StatusActive:
		return models.StatusExpired
	case record.TrialEnd != nil && now.Before(*record.TrialEnd):
		return models.StatusTrial
	case record.TrialEnd != nil && record.Status == models.StatusTrial:
		return models.StatusExpired
	default:
		return record.Status
	}
}

// RemainingTrialDays возвращает число оставшихся дней триала, округлённое вверх.
// Не бывает отрицательным; без триального окна возвращает 0.
func RemainingTrialDays(record *models.EntitlementRecord, now time.Time) int {
	if record.TrialEnd == nil {
		return 0
	}
	remaining := record.TrialEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

// IsPremium сообщает, есть ли у пользователя доступ к премиум-функциям.
func IsPremium(record *models.EntitlementRecord, now time.Time) bool {
	status := DeriveStatus(record, now)
	return status == models.StatusTrial || status == models.StatusActive
}

// Repository определяет методы для работы с entitlement-записями в хранилище.
type Repository interface {
	// ReadEntitlement возвращает запись пользователя.
	ReadEntitlement(ctx context.Context, username string) (*models.EntitlementRecord, error)
	// SaveEntitlement сохраняет запись пользователя.
	SaveEntitlement(ctx context.Context, record *models.EntitlementRecord) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service реализует операции над правами пользователя поверх хранилища и кеша.
type Service struct {
	repo      Repository
	cache     Cache
	log       *slog.Logger
	trialDays int
	now       func() time.Time
}

// NewService создает новый экземпляр Service. Часы передаются снаружи,
// чтобы тесты были детерминированными.
func NewService(repo Repository, cache Cache, log *slog.Logger, trialDays int, now func() time.Time) *Service {
	return &Service{
		repo:      repo,
		cache:     cache,
		log:       log,
		trialDays: trialDays,
		now:       now,
	}
}

// getRecord читает запись пользователя: кеш, затем хранилище.
// Отсутствующая или нечитаемая запись заменяется записью "none" —
// худший исход деградации здесь безопасен.
func (s *Service) getRecord(ctx context.Context, username string) *models.EntitlementRecord {
	cacheKey := fmt.Sprintf("entitlement:%s", username)

	var cached models.EntitlementRecord
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read entitlement from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return &cached
	}

	record, err := s.repo.ReadEntitlement(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewEntitlementRecord(username)
	}
	if err != nil {
		s.log.Warn("failed to read entitlement, falling back to empty record",
			slog.String("username", username), sl.Err(err))
		return models.NewEntitlementRecord(username)
	}

	if err := s.cache.Set(ctx, cacheKey, record, time.Hour); err != nil {
		s.log.Warn("failed to cache entitlement", slog.String("key", cacheKey), sl.Err(err))
	}
	return record
}

// saveRecord сохраняет запись и обновляет кеш. Ошибка записи в хранилище
// возвращается вызывающему, ошибка кеша — только предупреждение.
func (s *Service) saveRecord(ctx context.Context, record *models.EntitlementRecord) error {
	if err := s.repo.SaveEntitlement(ctx, record); err != nil {
		return err
	}
	cacheKey := fmt.Sprintf("entitlement:%s", record.Username)
	if err := s.cache.Set(ctx, cacheKey, record, time.Hour); err != nil {
		s.log.Warn("failed to cache entitlement", slog.String("key", cacheKey), sl.Err(err))
	}
	return nil
}

// GetView возвращает выведенный статус, остаток триала и флаг премиума.
// Ничего не сохраняет: вывод статуса не имеет побочных эффектов.
func (s *Service) GetView(ctx context.Context, username string) *models.EntitlementView {
	record := s.getRecord(ctx, username)
	now := s.now()
	return &models.EntitlementView{
		Status:             DeriveStatus(record, now),
		RemainingTrialDays: RemainingTrialDays(record, now),
		IsPremium:          IsPremium(record, now),
		HasSeenGate:        record.HasSeenGate,
	}
}

// RefreshStatus выводит актуальный статус и сохраняет его в записи,
// если он изменился. Это единственное место, где вывод попадает в хранилище.
func (s *Service) RefreshStatus(ctx context.Context, username string) (models.Status, error) {
	record := s.getRecord(ctx, username)
	derived := DeriveStatus(record, s.now())
	if derived == record.Status {
		return derived, nil
	}

	record.Status = derived
	if err := s.saveRecord(ctx, record); err != nil {
		return derived, err
	}
	s.log.Info("refreshed entitlement status",
		slog.String("username", username), slog.String("status", string(derived)))
	return derived, nil
}

// StartTrial начинает пробный период. Повторный запуск триала запрещён:
// если триальное окно уже открывалось, возвращается ErrTrialAlreadyUsed.
func (s *Service) StartTrial(ctx context.Context, username string) (*models.EntitlementRecord, error) {
	record := s.getRecord(ctx, username)
	if record.TrialStart != nil {
		return nil, ErrTrialAlreadyUsed
	}

	now := s.now()
	trialEnd := now.AddDate(0, 0, s.trialDays)
	record.TrialStart = &now
	record.TrialEnd = &trialEnd
	record.Status = models.StatusTrial

	if err := s.saveRecord(ctx, record); err != nil {
		return nil, err
	}
	s.log.Info("started trial", slog.String("username", username),
		slog.Time("trial_end", trialEnd))
	return record, nil
}

// Activate открывает или продлевает подписку. При отсутствии даты окончания
// подписка действует один календарный месяц; повторный вызов при активной
// подписке заменяет окно (продление).
func (s *Service) Activate(ctx context.Context, username string, endDate *time.Time) (*models.EntitlementRecord, error) {
	record := s.getRecord(ctx, username)

	now := s.now()
	end := now.AddDate(0, 1, 0)
	if endDate != nil {
		end = *endDate
	}

	record.SubscriptionStart = &now
	record.SubscriptionEnd = &end
	record.Status = models.StatusActive

	if err := s.saveRecord(ctx, record); err != nil {
		return nil, err
	}
	s.log.Info("activated subscription", slog.String("username", username),
		slog.Time("subscription_end", end))
	return record, nil
}

// Cancel помечает подписку отменённой, не трогая временные окна.
func (s *Service) Cancel(ctx context.Context, username string) error {
	record := s.getRecord(ctx, username)
	record.Status = models.StatusCancelled
	if err := s.saveRecord(ctx, record); err != nil {
		return err
	}
	s.log.Info("cancelled subscription", slog.String("username", username))
	return nil
}

// MarkGateSeen отмечает, что пользователь закрыл экран оплаты.
// Повторные вызовы не меняют запись.
func (s *Service) MarkGateSeen(ctx context.Context, username string) error {
	record := s.getRecord(ctx, username)
	if record.HasSeenGate {
		return nil
	}
	record.HasSeenGate = true
	return s.saveRecord(ctx, record)
}
