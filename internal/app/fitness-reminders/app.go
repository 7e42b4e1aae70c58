// Package fitnessreminders собирает основное приложение: хранилище, кеш,
// планировщик, бизнес-сервисы и HTTP-сервер.
package fitnessreminders

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fitness-reminders/internal/cache"
	"github.com/magabrotheeeer/fitness-reminders/internal/config"
	jwtlib "github.com/magabrotheeeer/fitness-reminders/internal/lib/jwt"
	"github.com/magabrotheeeer/fitness-reminders/internal/migrations"
	"github.com/magabrotheeeer/fitness-reminders/internal/models"
	"github.com/magabrotheeeer/fitness-reminders/internal/rabbitmq"
	"github.com/magabrotheeeer/fitness-reminders/internal/scheduler"
	entitlementservice "github.com/magabrotheeeer/fitness-reminders/internal/services/entitlement"
	reminderservice "github.com/magabrotheeeer/fitness-reminders/internal/services/reminder"
	"github.com/magabrotheeeer/fitness-reminders/internal/storage/repository"
)

// App держит вместе HTTP-сервер, планировщик и внешние соединения.
type App struct {
	server    *http.Server
	scheduler *scheduler.Local
	logger    *slog.Logger
	db        *repository.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
}

// queuePublisher доставляет сработавшие триггеры в очередь RabbitMQ.
type queuePublisher struct {
	ch *amqp.Channel
}

func (p *queuePublisher) PublishReminder(payload models.ReminderPayload) error {
	return rabbitmq.PublishMessage(p.ch, rabbitmq.ExchangeName, rabbitmq.RoutingKeyFire, payload)
}

// New создает приложение и все его зависимости.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.DefaultQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	sched := scheduler.NewLocal(&queuePublisher{ch: ch}, logger, cfg.Tick, cfg.NotificationsAllowed)

	entitlementService := entitlementservice.NewService(db, cacheRedis, logger, cfg.TrialDays, time.Now)
	reminderService := reminderservice.NewService(db, cacheRedis, sched, logger)

	jwtMaker := jwtlib.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, entitlementService, reminderService, db, jwtMaker)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		scheduler: sched,
		logger:    logger,
		db:        db,
		conn:      conn,
		ch:        ch,
	}, nil
}

// Run запускает цикл планировщика и HTTP-сервер, завершаясь по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	go a.scheduler.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		a.db.DB.Close()
		return err
	}
}
