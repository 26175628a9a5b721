package mail_producer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"orderflow/internal/adapter/rabbitmq"
	"orderflow/internal/core/domain/models"
	"orderflow/internal/core/domain/types"
	"orderflow/pkg/config"
	"orderflow/pkg/logger"
)

// MailProducer hands formatted notifications to the mail exchange. It is
// the audit engine's MailDispatcher: Send only returns nil once the broker
// confirmed the publish, so a journaled notification is durably queued.
type MailProducer struct {
	conn *rabbitmq.Connection
	log  logger.Logger
}

// NewMailProducer creates a confirm-mode producer for outbound mail.
func NewMailProducer(ctx context.Context, cfg config.Config) (*MailProducer, error) {
	log := logger.InitLogger("mail_producer", logger.LevelDebug)

	conn, err := rabbitmq.NewConnection(ctx, cfg, true)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQConnectFailed, "failed to create RabbitMQ connection", err)
		return nil, fmt.Errorf("failed to create RabbitMQ connection: %w", err)
	}

	if err := rabbitmq.SetupRabbitMQ(ctx, conn, log); err != nil {
		conn.Close()
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to setup RabbitMQ", err)
		return nil, fmt.Errorf("failed to setup RabbitMQ: %w", err)
	}

	return &MailProducer{
		conn: conn,
		log:  log,
	}, nil
}

// Send publishes one email job and waits for the broker acknowledgement.
// The caller's context bounds the wait; expiry is a dispatch failure.
func (p *MailProducer) Send(ctx context.Context, recipients []string, subject, body string) error {
	message := models.EmailMessage{
		ID:         uuid.NewString(),
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
		QueuedAt:   time.Now(),
	}

	jsonBody, err := json.Marshal(message)
	if err != nil {
		p.log.Error(ctx, types.ActionRabbitmqPublishFailed, "failed to marshal email message", err)
		return fmt.Errorf("failed to marshal email message: %w", err)
	}

	err = p.conn.PublishAndConfirm(
		ctx,
		rabbitmq.MailFanoutExchange, // exchange name
		"",                          // routing key (not used for fanout)
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent, // message persisted to disk
			MessageId:    message.ID,
			Timestamp:    message.QueuedAt,
			Body:         jsonBody,
		},
	)
	if err != nil {
		p.log.Error(ctx, types.ActionRabbitmqPublishFailed, "failed to publish email message", err,
			"message_id", message.ID,
		)
		return fmt.Errorf("%w: %v", models.ErrorDispatchFailed, err)
	}

	p.log.Debug(ctx, types.ActionMailDelivered, "email message queued",
		"message_id", message.ID,
		"recipients", len(recipients),
	)

	return nil
}

// Close closes the connection to RabbitMQ
func (p *MailProducer) Close() error {
	return p.conn.Close()
}
