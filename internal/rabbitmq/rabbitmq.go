package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"statboard/internal/config"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

type Client interface {
	Close() error

	// Setup declares the configured exchange and queue and binds them
	Setup() error

	Publish(ctx context.Context, routingKey string, body []byte) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)

	Health() error
}

type client struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	config       config.RabbitMQConfig
	mu           sync.Mutex
	reconnecting bool
	closed       bool
}

func NewClientFromConfig(cfg config.RabbitMQConfig) (Client, error) {
	c := &client{config: cfg}

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *client) url() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		c.config.Username,
		c.config.Password,
		c.config.Host,
		c.config.Port,
		c.config.VHost,
	)
}

// connect dials a new connection and channel and arms the reconnect watcher
func (c *client) connect() error {
	conn, err := amqp.DialConfig(c.url(), amqp.Config{
		Heartbeat: 30 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to RabbitMQ")
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open RabbitMQ channel")
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if c.config.PrefetchCount > 0 {
		if err := ch.Qos(c.config.PrefetchCount, 0, false); err != nil {
			log.Error().Err(err).Msg("Failed to set channel QoS")
			conn.Close()
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	c.conn = conn
	c.channel = ch
	c.watch(conn)

	log.Info().
		Str("host", c.config.Host).
		Int("port", c.config.Port).
		Str("vhost", c.config.VHost).
		Msg("RabbitMQ connection established")

	return nil
}

func (c *client) watch(conn *amqp.Connection) {
	notify := conn.NotifyClose(make(chan *amqp.Error, 1))

	go func() {
		err, ok := <-notify
		if !ok || err == nil {
			// Graceful close
			return
		}
		log.Warn().
			Str("reason", err.Reason).
			Int("code", err.Code).
			Bool("recover", err.Recover).
			Msg("RabbitMQ connection closed, attempting to reconnect...")

		c.reconnect()
	}()
}

func (c *client) reconnect() {
	c.mu.Lock()
	if c.reconnecting || c.closed {
		c.mu.Unlock()
		return
	}
	c.reconnecting = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
	}()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		c.mu.Lock()
		// Closed by the owner, or a publisher already replaced the connection
		if c.closed || (c.conn != nil && !c.conn.IsClosed()) {
			c.mu.Unlock()
			return
		}

		log.Info().Dur("backoff", backoff).Msg("Attempting to reconnect to RabbitMQ")
		err := c.connect()
		if err == nil {
			if derr := c.declare(); derr != nil {
				log.Error().Err(derr).Msg("Failed to redeclare RabbitMQ topology")
			}
		}
		c.mu.Unlock()

		if err == nil {
			log.Info().Msg("Successfully reconnected to RabbitMQ")
			return
		}

		// Sleep unlocked so Close and Health are not stuck behind the backoff
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// ensureOpen must be called with mu held
func (c *client) ensureOpen() error {
	if c.closed {
		return amqp.ErrClosed
	}
	if c.conn == nil || c.channel == nil || c.conn.IsClosed() || c.channel.IsClosed() {
		return c.connect()
	}
	return nil
}

func (c *client) Health() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.channel == nil {
		log.Error().Msg("RabbitMQ health check failed: nil connection or channel")
		return fmt.Errorf("nil connection or channel")
	}

	if c.conn.IsClosed() {
		log.Error().Msg("RabbitMQ connection is closed")
		return fmt.Errorf("connection is closed")
	}

	// A passive declare fails (and closes the channel) if the exchange is gone
	err := c.channel.ExchangeDeclarePassive(c.config.ExchangeName, amqp.ExchangeDirect, true, false, false, false, nil)
	if err != nil {
		log.Error().Err(err).Msg("RabbitMQ health check failed on passive exchange declare")
		return err
	}

	return nil
}

func (c *client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ channel")
			return fmt.Errorf("channel close error: %w", err)
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close RabbitMQ connection")
			return fmt.Errorf("connection close error: %w", err)
		}
	}

	log.Info().Msg("RabbitMQ connection and channel closed")
	return nil
}

func (c *client) Publish(ctx context.Context, routingKey string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return fmt.Errorf("failed to reconnect before publishing: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	}

	err := c.channel.PublishWithContext(ctx, c.config.ExchangeName, routingKey, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		// One retry on a fresh channel
		if err = c.connect(); err == nil {
			err = c.channel.PublishWithContext(ctx, c.config.ExchangeName, routingKey, false, false, msg)
		}
	}

	if err != nil {
		log.Error().
			Err(err).
			Str("exchange", c.config.ExchangeName).
			Str("routingKey", routingKey).
			Msg("Failed to publish message")
		return err
	}

	log.Debug().
		Str("exchange", c.config.ExchangeName).
		Str("routingKey", routingKey).
		Int("size", len(body)).
		Msg("Published message")

	return nil
}

// Consume starts a manual-ack consumer on the configured queue
func (c *client) Consume(consumerTag string) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return nil, fmt.Errorf("failed to reconnect before consuming: %w", err)
	}

	deliveries, err := c.channel.Consume(
		c.config.QueueName,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		log.Error().
			Err(err).
			Str("queue", c.config.QueueName).
			Str("consumerTag", consumerTag).
			Msg("Failed to start consuming")
		return nil, fmt.Errorf("consume error: %w", err)
	}

	log.Info().
		Str("queue", c.config.QueueName).
		Str("consumerTag", consumerTag).
		Msg("Started consuming messages")

	return deliveries, nil
}
