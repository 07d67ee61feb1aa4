package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// AMQPPublisher publishes notifications to a topic exchange, routed by Kind.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      zerolog.Logger
}

func NewAMQPPublisher(url, exchange string, log zerolog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info().Str("exchange", exchange).Msg("RabbitMQ publisher initialized")

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		log:      log,
	}, nil
}

func (p *AMQPPublisher) Notify(ctx context.Context, n Notification) error {
	msg, err := publishing(n)
	if err != nil {
		return err
	}

	if err := p.channel.PublishWithContext(ctx, p.exchange, string(n.Kind), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", n.Kind, err)
	}

	p.log.Debug().Str("routing_key", string(n.Kind)).Str("registration_id", n.RegistrationID).Msg("notification published")
	return nil
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

func publishing(n Notification) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal notification: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.RegistrationID + ":" + string(n.Kind),
		Timestamp:    n.At,
		Type:         string(n.Kind),
		Body:         body,
	}, nil
}
