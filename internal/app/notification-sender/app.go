// Package notificationsender wires the decision e-mail consumer: broker
// connection, SMTP transport and the consume loop.
package notificationsender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/inspec-ai/account-service/internal/config"
	"github.com/inspec-ai/account-service/internal/lib/rabbitmq"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/lib/smtp"
	senderservice "github.com/inspec-ai/account-service/internal/services/sender"
)

// App is the assembled consumer application.
type App struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	sender *senderservice.Service
	logger *slog.Logger
}

// New connects to the broker and prepares the sender service.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	sender := senderservice.New(transport, logger)

	return &App{
		conn:   conn,
		ch:     ch,
		sender: sender,
		logger: logger,
	}, nil
}

// Run consumes decision events until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumeMessages(ctx, a.ch, rabbitmq.DecisionQueue, a.sender.HandleDecisionEvent)
	if err != nil {
		a.logger.Error("failed to start decision consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notification sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
