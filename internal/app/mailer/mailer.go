// internal/app/mailer/mailer.go
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rabbitmq/amqp091-go"

	"orderflow/internal/adapter/rabbitmq"
	"orderflow/internal/adapter/rabbitmq/mail_subscriber"
	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/domain/types"
	"orderflow/pkg/config"
	"orderflow/pkg/logger"
)

// MailerApp drains the mail queue. The actual SMTP relay sits behind this
// boundary; this mode renders each job to the console, which stands in for
// the transport during development.
type MailerApp struct {
	ctx        context.Context
	cancel     context.CancelFunc
	logger     logger.Logger
	subscriber *mail_subscriber.MailSubscriber
}

// NewMailerApp creates a new mailer application
func NewMailerApp() *MailerApp {
	cfg, err := config.ParseYAML()
	if err != nil {
		config.PrintYAMLHelp()
		slog.Error("failed to configure application", "error", err)
		os.Exit(1)
	}

	log := logger.InitLogger("Mailer", logger.LevelDebug)

	ctx, cancel := context.WithCancel(context.Background())

	subscriber, err := mail_subscriber.NewMailSubscriber(ctx, cfg)
	if err != nil {
		cancel()
		log.Error(ctx, types.ActionRabbitMQConnectFailed, "failed to connect to RabbitMQ", err)
		os.Exit(1)
	}

	return &MailerApp{
		ctx:        ctx,
		cancel:     cancel,
		logger:     log,
		subscriber: subscriber,
	}
}

// Start begins draining the mail queue
func (app *MailerApp) Start() {
	go app.consumeMail()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	<-sigs
	app.logger.Info(app.ctx, types.ActionGracefulShutdown, "service is shutting down")
	app.cancel()

	if app.subscriber != nil {
		if err := app.subscriber.Close(); err != nil {
			app.logger.Error(app.ctx, types.ActionGracefulShutdown, "error closing RabbitMQ connection", err)
		}
	}
}

func (app *MailerApp) consumeMail() {
	handler := rabbitmq.MessageHandlerFunc(func(ctx context.Context, delivery amqp091.Delivery) error {
		var message models.EmailMessage

		if err := json.Unmarshal(delivery.Body, &message); err != nil {
			app.logger.Error(ctx, types.ActionMessageProcessingFailed, "failed to unmarshal email message", err)
			return err
		}

		app.logger.Debug(ctx, types.ActionMailReceived, "received email job",
			"message_id", message.ID,
			"recipients", len(message.Recipients),
		)

		fmt.Printf("To: %s\nSubject: %s\n\n%s\n---\n",
			strings.Join(message.Recipients, ", "),
			message.Subject,
			message.Body,
		)

		app.logger.Info(ctx, types.ActionMailDelivered, "email job delivered",
			"message_id", message.ID,
		)
		return nil
	})

	err := app.subscriber.ConsumeMail(app.ctx, handler)
	if err != nil && err != context.Canceled {
		app.logger.Error(app.ctx, types.ActionRabbitMQConsumeFailed, "error consuming mail", err)
		app.cancel()
	}
}
