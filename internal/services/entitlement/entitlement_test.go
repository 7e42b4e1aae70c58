package entitlement

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/fitness-reminders/internal/models"
	"github.com/magabrotheeeer/fitness-reminders/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) ReadEntitlement(ctx context.Context, username string) (*models.EntitlementRecord, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EntitlementRecord), args.Error(1)
}

func (m *RepoMock) SaveEntitlement(ctx context.Context, record *models.EntitlementRecord) error {
	return m.Called(ctx, record).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func tp(t time.Time) *time.Time { return &t }

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name   string
		record models.EntitlementRecord
		now    time.Time
		want   models.Status
	}{
		{
			name:   "новая запись остается none",
			record: models.EntitlementRecord{Status: models.StatusNone},
			now:    baseTime,
			want:   models.StatusNone,
		},
		{
			name: "действующий триал",
			record: models.EntitlementRecord{
				Status:   models.StatusTrial,
				TrialEnd: tp(baseTime.AddDate(0, 0, 3)),
			},
			now:  baseTime,
			want: models.StatusTrial,
		},
		{
			name: "истекший триал переходит в expired",
			record: models.EntitlementRecord{
				Status:   models.StatusTrial,
				TrialEnd: tp(baseTime.AddDate(0, 0, -1)),
			},
			now:  baseTime,
			want: models.StatusExpired,
		},
		{
			name: "действующая подписка",
			record: models.EntitlementRecord{
				Status:          models.StatusActive,
				SubscriptionEnd: tp(baseTime.AddDate(0, 1, 0)),
			},
			now:  baseTime,
			want: models.StatusActive,
		},
		{
			name: "истекшая подписка переходит в expired",
			record: models.EntitlementRecord{
				Status:          models.StatusActive,
				SubscriptionEnd: tp(baseTime.AddDate(0, 0, -2)),
			},
			now:  baseTime,
			want: models.StatusExpired,
		},
		{
			name: "подписка приоритетнее триала",
			record: models.EntitlementRecord{
				Status:          models.StatusTrial,
				TrialEnd:        tp(baseTime.AddDate(0, 0, 5)),
				SubscriptionEnd: tp(baseTime.AddDate(0, 1, 0)),
			},
			now:  baseTime,
			want: models.StatusActive,
		},
		{
			name: "истекший триал после активации подписки",
			record: models.EntitlementRecord{
				Status:          models.StatusActive,
				TrialEnd:        tp(baseTime.AddDate(0, 0, -10)),
				SubscriptionEnd: tp(baseTime.AddDate(0, 0, 20)),
			},
			now:  baseTime,
			want: models.StatusActive,
		},
		{
			name: "cancelled сохраняется после конца окна",
			record: models.EntitlementRecord{
				Status:          models.StatusCancelled,
				SubscriptionEnd: tp(baseTime.AddDate(0, 0, -5)),
			},
			now:  baseTime,
			want: models.StatusCancelled,
		},
		{
			name: "запись none с чужим истекшим окном не становится expired",
			record: models.EntitlementRecord{
				Status:   models.StatusNone,
				TrialEnd: tp(baseTime.AddDate(0, 0, -5)),
			},
			now:  baseTime,
			want: models.StatusNone,
		},
		{
			name: "граница окна не включается",
			record: models.EntitlementRecord{
				Status:   models.StatusTrial,
				TrialEnd: tp(baseTime),
			},
			now:  baseTime,
			want: models.StatusExpired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := tt.record
			got := DeriveStatus(&record, tt.now)
			assert.Equal(t, tt.want, got)
			// Вывод статуса не изменяет запись
			assert.Equal(t, tt.record, record)
		})
	}
}

func TestRemainingTrialDays(t *testing.T) {
	tests := []struct {
		name   string
		record models.EntitlementRecord
		want   int
	}{
		{
			name:   "без триального окна",
			record: models.EntitlementRecord{Status: models.StatusNone},
			want:   0,
		},
		{
			name:   "ровно семь дней",
			record: models.EntitlementRecord{TrialEnd: tp(baseTime.AddDate(0, 0, 7))},
			want:   7,
		},
		{
			name:   "неполный день округляется вверх",
			record: models.EntitlementRecord{TrialEnd: tp(baseTime.Add(25 * time.Hour))},
			want:   2,
		},
		{
			name:   "меньше суток",
			record: models.EntitlementRecord{TrialEnd: tp(baseTime.Add(time.Hour))},
			want:   1,
		},
		{
			name:   "истекший триал дает ноль",
			record: models.EntitlementRecord{TrialEnd: tp(baseTime.AddDate(0, 0, -3))},
			want:   0,
		},
		{
			name:   "момент окончания дает ноль",
			record: models.EntitlementRecord{TrialEnd: tp(baseTime)},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemainingTrialDays(&tt.record, baseTime)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestIsPremium(t *testing.T) {
	trial := models.EntitlementRecord{
		Status:   models.StatusTrial,
		TrialEnd: tp(baseTime.AddDate(0, 0, 2)),
	}
	assert.True(t, IsPremium(&trial, baseTime))

	active := models.EntitlementRecord{
		Status:          models.StatusActive,
		SubscriptionEnd: tp(baseTime.AddDate(0, 1, 0)),
	}
	assert.True(t, IsPremium(&active, baseTime))

	expired := models.EntitlementRecord{
		Status:   models.StatusTrial,
		TrialEnd: tp(baseTime.AddDate(0, 0, -1)),
	}
	assert.False(t, IsPremium(&expired, baseTime))

	none := models.EntitlementRecord{Status: models.StatusNone}
	assert.False(t, IsPremium(&none, baseTime))
}

func newTestService(repo *RepoMock, cache *CacheMock) *Service {
	return NewService(repo, cache, newNoopLogger(), 7, func() time.Time { return baseTime })
}

func TestService_StartTrial(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, c *CacheMock)
		wantErr    error
	}{
		{
			name: "успешный запуск триала",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
				r.On("ReadEntitlement", mock.Anything, "testuser").
					Return(nil, repository.ErrNotFound).Once()
				r.On("SaveEntitlement", mock.Anything, mock.MatchedBy(func(rec *models.EntitlementRecord) bool {
					return rec.Status == models.StatusTrial &&
						rec.TrialStart != nil && rec.TrialStart.Equal(baseTime) &&
						rec.TrialEnd != nil && rec.TrialEnd.Equal(baseTime.AddDate(0, 0, 7))
				})).Return(nil).Once()
				c.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil).Once()
			},
		},
		{
			name: "повторный триал запрещен",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
				r.On("ReadEntitlement", mock.Anything, "testuser").Return(&models.EntitlementRecord{
					Username:   "testuser",
					Status:     models.StatusExpired,
					TrialStart: tp(baseTime.AddDate(0, -1, 0)),
					TrialEnd:   tp(baseTime.AddDate(0, -1, 7)),
				}, nil).Once()
				c.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil).Once()
			},
			wantErr: ErrTrialAlreadyUsed,
		},
		{
			name: "ошибка сохранения возвращается вызывающему",
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
				r.On("ReadEntitlement", mock.Anything, "testuser").
					Return(nil, repository.ErrNotFound).Once()
				r.On("SaveEntitlement", mock.Anything, mock.Anything).
					Return(errors.New("db down")).Once()
			},
			wantErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := newTestService(repo, cache)

			record, err := svc.StartTrial(context.Background(), "testuser")
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.StatusTrial, record.Status)
			}
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Activate_MakesPremiumUntilEnd(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
	repo.On("ReadEntitlement", mock.Anything, "testuser").Return(nil, repository.ErrNotFound).Once()

	var saved *models.EntitlementRecord
	repo.On("SaveEntitlement", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.EntitlementRecord)
	}).Return(nil).Once()
	cache.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil).Once()

	svc := newTestService(repo, cache)
	record, err := svc.Activate(context.Background(), "testuser", nil)
	require.NoError(t, err)

	// Без даты окончания подписка действует один календарный месяц
	require.NotNil(t, record.SubscriptionEnd)
	assert.True(t, record.SubscriptionEnd.Equal(baseTime.AddDate(0, 1, 0)))
	require.NotNil(t, saved)

	// Премиум действует в любой момент строго до конца окна
	assert.True(t, IsPremium(saved, baseTime))
	assert.True(t, IsPremium(saved, saved.SubscriptionEnd.Add(-time.Second)))
	assert.False(t, IsPremium(saved, *saved.SubscriptionEnd))
}

func TestService_Activate_ExplicitEndDate(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	end := baseTime.AddDate(1, 0, 0)

	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
	repo.On("ReadEntitlement", mock.Anything, "testuser").Return(&models.EntitlementRecord{
		Username:        "testuser",
		Status:          models.StatusActive,
		SubscriptionEnd: tp(baseTime.AddDate(0, 0, 3)),
	}, nil).Once()
	cache.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil)
	repo.On("SaveEntitlement", mock.Anything, mock.Anything).Return(nil).Once()

	svc := newTestService(repo, cache)
	record, err := svc.Activate(context.Background(), "testuser", &end)
	require.NoError(t, err)

	// Продление заменяет окно подписки
	require.NotNil(t, record.SubscriptionEnd)
	assert.True(t, record.SubscriptionEnd.Equal(end))
}

func TestService_Cancel_KeepsPaidWindow(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
	repo.On("ReadEntitlement", mock.Anything, "testuser").Return(&models.EntitlementRecord{
		Username:          "testuser",
		Status:            models.StatusActive,
		SubscriptionStart: tp(baseTime.AddDate(0, 0, -20)),
		SubscriptionEnd:   tp(baseTime.AddDate(0, 0, 10)),
	}, nil).Once()
	cache.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil)

	var saved *models.EntitlementRecord
	repo.On("SaveEntitlement", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*models.EntitlementRecord)
	}).Return(nil).Once()

	svc := newTestService(repo, cache)
	require.NoError(t, svc.Cancel(context.Background(), "testuser"))

	// Отмена меняет только статус, окно подписки остается
	require.NotNil(t, saved)
	assert.Equal(t, models.StatusCancelled, saved.Status)
	require.NotNil(t, saved.SubscriptionEnd)

	// Доступ сохраняется до конца оплаченного периода
	assert.Equal(t, models.StatusActive, DeriveStatus(saved, baseTime))
	assert.True(t, IsPremium(saved, baseTime))

	// После конца окна премиума нет, статус остается cancelled
	after := saved.SubscriptionEnd.Add(time.Second)
	assert.Equal(t, models.StatusCancelled, DeriveStatus(saved, after))
	assert.False(t, IsPremium(saved, after))
}

func TestService_Cancel_SaveErrorSurfaces(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
	repo.On("ReadEntitlement", mock.Anything, "testuser").
		Return(nil, repository.ErrNotFound).Once()
	repo.On("SaveEntitlement", mock.Anything, mock.Anything).
		Return(errors.New("db down")).Once()

	svc := newTestService(repo, cache)
	err := svc.Cancel(context.Background(), "testuser")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestService_GetView_FallsBackOnStorageError(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil).Once()
	repo.On("ReadEntitlement", mock.Anything, "testuser").
		Return(nil, errors.New("storage corrupt")).Once()

	svc := newTestService(repo, cache)
	view := svc.GetView(context.Background(), "testuser")

	// Нечитаемое хранилище деградирует до статуса none, а не падает
	assert.Equal(t, models.StatusNone, view.Status)
	assert.False(t, view.IsPremium)
	assert.Equal(t, 0, view.RemainingTrialDays)
}

func TestService_RefreshStatus_PersistsOnlyOnChange(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)

	// Триал истек: статус в записи устарел и должен быть сохранён заново
	cache.On("Get", mock.Anything, "entitlement:testuser", mock.Anything).Return(false, nil)
	repo.On("ReadEntitlement", mock.Anything, "testuser").Return(&models.EntitlementRecord{
		Username: "testuser",
		Status:   models.StatusTrial,
		TrialEnd: tp(baseTime.AddDate(0, 0, -1)),
	}, nil)
	cache.On("Set", mock.Anything, "entitlement:testuser", mock.Anything, time.Hour).Return(nil)
	repo.On("SaveEntitlement", mock.Anything, mock.MatchedBy(func(rec *models.EntitlementRecord) bool {
		return rec.Status == models.StatusExpired
	})).Return(nil).Once()

	svc := newTestService(repo, cache)
	status, err := svc.RefreshStatus(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, status)

	// Повторный вызов: статус уже актуален, записи нет
	status, err = svc.RefreshStatus(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, status)
	repo.AssertNumberOfCalls(t, "SaveEntitlement", 1)
}
