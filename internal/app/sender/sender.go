// Package sender собирает приложение доставки уведомлений: потребитель
// очереди сработавших триггеров и клиент шлюза push-уведомлений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/fitness-reminders/internal/config"
	"github.com/magabrotheeeer/fitness-reminders/internal/rabbitmq"
	senderservice "github.com/magabrotheeeer/fitness-reminders/internal/services/sender"
)

// App держит соединение с RabbitMQ и сервис доставки.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает приложение доставки и все его зависимости.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.ConnectRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.DefaultQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	senderService := senderservice.NewService(logger, cfg.GatewayURL, cfg.GatewayToken, cfg.GatewayTimeout)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребителя очереди и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueFire, a.senderService.HandleMessage, a.logger)
	if err != nil {
		a.logger.Error("failed to start reminders.fire consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}
	return nil
}
