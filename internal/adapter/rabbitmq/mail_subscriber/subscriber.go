package mail_subscriber

import (
	"context"
	"errors"
	"fmt"

	"orderflow/internal/adapter/rabbitmq"
	"orderflow/internal/core/domain/types"
	"orderflow/pkg/config"
	"orderflow/pkg/logger"
)

// MailSubscriber drains the mail queue and hands each message to the
// transport handler. Handler failures send the message to the dead letter
// queue; the journal on the producing side already guarantees each
// violation was queued once.
type MailSubscriber struct {
	conn *rabbitmq.Connection
	log  logger.Logger
}

// NewMailSubscriber creates a new subscriber on the mail queue.
func NewMailSubscriber(ctx context.Context, cfg config.Config) (*MailSubscriber, error) {
	log := logger.InitLogger("mail_subscriber", logger.LevelDebug)

	conn, err := rabbitmq.NewConnection(ctx, cfg, false)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQConnectFailed, "failed to create RabbitMQ connection", err)
		return nil, fmt.Errorf("failed to create RabbitMQ connection: %w", err)
	}

	if err := rabbitmq.SetupRabbitMQ(ctx, conn, log); err != nil {
		conn.Close()
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to setup RabbitMQ", err)
		return nil, fmt.Errorf("failed to setup RabbitMQ: %w", err)
	}

	return &MailSubscriber{
		conn: conn,
		log:  log,
	}, nil
}

// ConsumeMail consumes email jobs until the context is cancelled.
func (s *MailSubscriber) ConsumeMail(ctx context.Context, handler rabbitmq.MessageHandler) error {
	ch := s.conn.Channel()

	msgs, err := ch.Consume(
		rabbitmq.MailQueue, // queue name
		"mailer",           // consumer name
		false,              // auto-ack
		false,              // exclusive
		false,              // no-local
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		s.log.Error(ctx, types.ActionRabbitMQConsumeFailed, "failed to start consuming", err)
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.log.Info(ctx, types.ActionRabbitMQConsumeStarted, "started consuming from queue",
		"queue", rabbitmq.MailQueue,
	)

	for {
		select {
		case <-ctx.Done():
			s.log.Info(ctx, types.ActionGracefulShutdown, "stopping consumption due to context cancellation")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				s.log.Error(ctx, types.ActionRabbitMQConsumeFailed, "message channel closed", errors.New("channel closed"))
				return errors.New("message channel closed")
			}

			if err := handler.HandleMessage(ctx, msg); err != nil {
				s.log.Error(ctx, types.ActionMessageProcessingFailed, "failed to process mail message", err)
				// Permanent failure, route to the dead letter queue
				if err := msg.Nack(false, false); err != nil {
					s.log.Error(ctx, types.ActionRabbitMQNackFailed, "failed to nack message to DLQ", err)
				}
				continue
			}

			if err := msg.Ack(false); err != nil {
				s.log.Error(ctx, types.ActionRabbitMQAckFailed, "failed to ack message", err)
			}
		}
	}
}

// Close closes the connection to RabbitMQ
func (s *MailSubscriber) Close() error {
	return s.conn.Close()
}
