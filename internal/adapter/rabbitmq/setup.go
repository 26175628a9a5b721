// internal/adapter/rabbitmq/setup.go
package rabbitmq

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"orderflow/internal/core/domain/types"
	"orderflow/pkg/logger"
)

// Exchange and queue constants
const (
	MailFanoutExchange = "mail_fanout"
	MailQueue          = "mail_queue"

	DeadLetterQueue    = "dead_letter_queue"
	DeadLetterExchange = "dead_letter_exchange"
)

// SetupRabbitMQ configures all necessary exchanges, queues and bindings
func SetupRabbitMQ(ctx context.Context, conn *Connection, log logger.Logger) error {
	ch := conn.Channel()

	log.Info(ctx, types.ActionRabbitMQSetup, "setting up RabbitMQ exchanges and queues")

	// Dead letter exchange stores unprocessable mail messages
	if err := setupDeadLetterExchange(ctx, ch, log); err != nil {
		return err
	}

	if err := setupMailExchange(ctx, ch, log); err != nil {
		return err
	}

	if err := setupMailQueue(ctx, ch, log); err != nil {
		return err
	}

	log.Info(ctx, types.ActionRabbitMQSetupComplete, "RabbitMQ setup completed successfully")

	return nil
}

// setupDeadLetterExchange configures exchange and queue for "dead letters"
func setupDeadLetterExchange(ctx context.Context, ch *amqp091.Channel, log logger.Logger) error {
	err := ch.ExchangeDeclare(
		DeadLetterExchange, // name
		"fanout",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to declare dead letter exchange", err)
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		DeadLetterQueue, // name
		true,            // durable
		false,           // auto-deleted
		false,           // exclusive
		false,           // no-wait
		nil,             // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to declare dead letter queue", err)
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}

	err = ch.QueueBind(
		DeadLetterQueue,    // queue name
		"",                 // routing key (irrelevant for fanout)
		DeadLetterExchange, // exchange name
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to bind dead letter queue", err)
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}

	return nil
}

// setupMailExchange configures the exchange for outbound mail
func setupMailExchange(ctx context.Context, ch *amqp091.Channel, log logger.Logger) error {
	err := ch.ExchangeDeclare(
		MailFanoutExchange, // name
		"fanout",           // type
		true,               // durable
		false,              // auto-deleted
		false,              // internal
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to declare mail fanout exchange", err)
		return fmt.Errorf("failed to declare mail fanout exchange: %w", err)
	}

	return nil
}

// setupMailQueue configures the queue drained by the mailer
func setupMailQueue(ctx context.Context, ch *amqp091.Channel, log logger.Logger) error {
	args := amqp091.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	_, err := ch.QueueDeclare(
		MailQueue, // name
		true,      // durable
		false,     // auto-deleted
		false,     // exclusive
		false,     // no-wait
		args,      // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to declare mail queue", err)
		return fmt.Errorf("failed to declare mail queue: %w", err)
	}

	err = ch.QueueBind(
		MailQueue,          // queue name
		"",                 // routing key (irrelevant for fanout)
		MailFanoutExchange, // exchange name
		false,              // no-wait
		nil,                // arguments
	)
	if err != nil {
		log.Error(ctx, types.ActionRabbitMQSetupFailed, "failed to bind mail queue", err)
		return fmt.Errorf("failed to bind mail queue: %w", err)
	}

	return nil
}
