// Package accountservice wires the HTTP API: storage, migrations, cache,
// broker, services, router and the server lifecycle.
package accountservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/inspec-ai/account-service/internal/cache"
	"github.com/inspec-ai/account-service/internal/config"
	"github.com/inspec-ai/account-service/internal/lib/jwt"
	"github.com/inspec-ai/account-service/internal/lib/rabbitmq"
	"github.com/inspec-ai/account-service/internal/lib/sl"
	"github.com/inspec-ai/account-service/internal/migrations"
	approvalservice "github.com/inspec-ai/account-service/internal/services/approval"
	authservice "github.com/inspec-ai/account-service/internal/services/auth"
	notificationservice "github.com/inspec-ai/account-service/internal/services/notification"
	usersservice "github.com/inspec-ai/account-service/internal/services/users"
	"github.com/inspec-ai/account-service/internal/storage/repository"
)

// App is the assembled HTTP application.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

// New builds the application from configuration. The broker is optional:
// when no URL is configured decisions are still committed, only the
// e-mail pipeline is off.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var (
		amqpConn  *amqp.Connection
		publisher approvalservice.EventPublisher
	)
	if cfg.RabbitMQURL != "" {
		amqpConn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(amqpConn)
		if err != nil {
			amqpConn.Close()
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url not configured, decision e-mails disabled")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	grace := cfg.Subscription.GracePeriod()

	authSvc := authservice.New(db, jwtMaker, logger)
	approvalSvc := approvalservice.New(db, cacheRedis, publisher, logger, grace)
	usersSvc := usersservice.New(db, cacheRedis, logger, grace)
	notificationSvc := notificationservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, jwtMaker, &Services{
		Auth:         authSvc,
		Approval:     approvalSvc,
		Users:        usersSvc,
		Notification: notificationSvc,
		Readiness:    db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
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
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		if a.amqp != nil {
			if closeErr := a.amqp.Close(); closeErr != nil {
				a.logger.Error("failed to close broker connection", sl.Err(closeErr))
			}
		}
		return err
	}
}
