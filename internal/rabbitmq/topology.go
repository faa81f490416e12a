package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

func (c *client) Setup() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureOpen(); err != nil {
		return fmt.Errorf("failed to reconnect before declaring topology: %w", err)
	}
	return c.declare()
}

// declare must be called with mu held
func (c *client) declare() error {
	exchange, queue, key := c.config.ExchangeName, c.config.QueueName, c.config.RoutingKey

	if err := c.channel.ExchangeDeclare(exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		log.Error().Err(err).Str("exchange", exchange).Msg("Failed to declare exchange")
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	if _, err := c.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("Failed to declare queue")
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(queue, key, exchange, false, nil); err != nil {
		log.Error().
			Err(err).
			Str("queue", queue).
			Str("exchange", exchange).
			Str("routingKey", key).
			Msg("Failed to bind queue")
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}

	log.Info().
		Str("queue", queue).
		Str("exchange", exchange).
		Str("routingKey", key).
		Msg("RabbitMQ topology declared")
	return nil
}
