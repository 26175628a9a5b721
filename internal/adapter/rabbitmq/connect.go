// internal/adapter/rabbitmq/connect.go
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"orderflow/internal/core/domain/types"
	"orderflow/pkg/config"
	"orderflow/pkg/logger"
)

// Connection wraps AMQP connection with recovery functionality
type Connection struct {
	log         logger.Logger
	conn        *amqp091.Connection
	channel     *amqp091.Channel
	cfg         config.Config
	closed      bool
	confirmMode bool
	reconnect   chan struct{}
	metrics     *connMetrics
}

// NewConnection creates a new RabbitMQ connection. With confirmMode set the
// channel runs in publisher-confirm mode, so publishers can wait for the
// broker acknowledgement.
func NewConnection(ctx context.Context, cfg config.Config, confirmMode bool) (*Connection, error) {
	log := logger.InitLogger("rabbitmq", logger.LevelDebug)

	connection := &Connection{
		log:         log,
		cfg:         cfg,
		closed:      false,
		confirmMode: confirmMode,
		reconnect:   make(chan struct{}, 1),
		metrics:     newConnMetrics(),
	}

	if err := connection.connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go connection.handleReconnect(ctx)

	return connection, nil
}

// connect establishes a connection to RabbitMQ and creates a channel
func (c *Connection) connect(ctx context.Context) error {
	c.log.Info(ctx, types.ActionRabbitMQConnecting, "connecting to RabbitMQ")

	rabbitCfg := c.cfg.RabbitMQ
	url := fmt.Sprintf("amqp://%s:%s@%s:%d/",
		rabbitCfg.User,
		rabbitCfg.Password,
		rabbitCfg.Host,
		rabbitCfg.Port,
	)

	var err error
	c.conn, err = amqp091.Dial(url)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("failed to create channel: %w", err)
	}

	// Confirm mode must be re-enabled after every reconnect.
	if c.confirmMode {
		if err := c.channel.Confirm(false); err != nil {
			c.channel.Close()
			c.conn.Close()
			return fmt.Errorf("failed to enable confirm mode: %w", err)
		}
	}

	// Monitor connection closure for auto-recovery
	go func() {
		connClosed := c.conn.NotifyClose(make(chan *amqp091.Error, 1))

		select {
		case <-ctx.Done():
			c.log.Info(ctx, types.ActionRabbitMQDisconnected, "context cancelled, stopping connection monitoring")
			return
		case err := <-connClosed:
			if c.closed {
				c.log.Info(ctx, types.ActionRabbitMQDisconnected, "connection closed gracefully")
				return
			}
			c.log.Error(ctx, types.ActionRabbitMQDisconnected, "connection closed unexpectedly", err)
			// Trigger reconnect
			c.reconnect <- struct{}{}
		}
	}()

	c.metrics.connectionEstablished()
	c.log.Info(ctx, types.ActionRabbitMQConnected, "successfully connected to RabbitMQ")
	return nil
}

// handleReconnect handles reconnection to RabbitMQ
func (c *Connection) handleReconnect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.log.Info(ctx, types.ActionGracefulShutdown, "context cancelled, stopping reconnect handler")
			return
		case <-c.reconnect:
			if c.closed {
				return
			}

			backoff := 1 * time.Second
			maxBackoff := 30 * time.Second

			for {
				c.metrics.reconnectAttempted()
				c.log.Info(ctx, types.ActionRabbitMQReconnecting,
					"attempting to reconnect to RabbitMQ",
					"backoff", backoff.String(),
				)

				// Close old connections if they still exist
				if c.channel != nil {
					c.channel.Close()
				}
				if c.conn != nil {
					c.conn.Close()
				}

				err := c.connect(ctx)
				if err == nil {
					c.log.Info(ctx, types.ActionRabbitMQReconnected, "successfully reconnected to RabbitMQ")
					break
				}

				c.log.Error(ctx, types.ActionRabbitMQReconnectFailed, "failed to reconnect", err,
					"next_attempt", backoff.String(),
				)

				select {
				case <-ctx.Done():
					c.log.Info(ctx, types.ActionGracefulShutdown, "context cancelled during reconnect")
					return
				case <-time.After(backoff):
					// Increase backoff time for next attempt with a limit
					backoff *= 2
					if backoff > maxBackoff {
						backoff = maxBackoff
					}
				}
			}
		}
	}
}

// Channel returns the current RabbitMQ channel
func (c *Connection) Channel() *amqp091.Channel {
	return c.channel
}

// PublishWithContext publishes a message with context and tracks metrics
func (c *Connection) PublishWithContext(ctx context.Context, exchange, routingKey string, mandatory, immediate bool, msg amqp091.Publishing) error {
	err := c.channel.PublishWithContext(ctx, exchange, routingKey, mandatory, immediate, msg)
	if err != nil {
		c.metrics.publishFailed()
		return err
	}

	c.metrics.publishSucceeded()
	return nil
}

// PublishAndConfirm publishes a message and waits for the broker
// acknowledgement. The connection must run in confirm mode. A context
// deadline bounds the wait; expiry or a broker nack is a publish failure.
func (c *Connection) PublishAndConfirm(ctx context.Context, exchange, routingKey string, msg amqp091.Publishing) error {
	if !c.confirmMode {
		return errors.New("connection is not in confirm mode")
	}

	confirmation, err := c.channel.PublishWithDeferredConfirmWithContext(
		ctx, exchange, routingKey, false, false, msg)
	if err != nil {
		c.metrics.publishFailed()
		return err
	}

	acked, err := confirmation.WaitContext(ctx)
	if err != nil {
		c.metrics.publishFailed()
		return fmt.Errorf("waiting for publish confirmation: %w", err)
	}
	if !acked {
		c.metrics.publishFailed()
		return errors.New("broker rejected the publish")
	}

	c.metrics.publishSucceeded()
	return nil
}

// Close closes the RabbitMQ connection, logging the publish and recovery
// totals for the connection's lifetime.
func (c *Connection) Close() error {
	c.closed = true

	published, failed, reconnects, uptime := c.metrics.totals()
	c.log.Info(context.Background(), types.ActionRabbitMQDisconnected, "closing RabbitMQ connection",
		"published", published,
		"publish_failures", failed,
		"reconnect_attempts", reconnects,
		"uptime", uptime.String(),
	)

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			return fmt.Errorf("error closing channel: %w", err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("error closing connection: %w", err)
		}
	}

	return nil
}
