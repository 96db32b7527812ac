package publish

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	v1 "github.com/xcity-lab/telemetry/internal/api/v1"
)

// AMQPPublisher publishes readings to a durable topic exchange. The routing key
// is derived from the live topic, e.g. "/topic/air-quality" → "topic.air-quality".
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true, // durable
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %q: %w", exchange, err)
	}

	slog.Info("[AMQP] Publisher connected", "exchange", exchange)
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

// RoutingKey maps a slash-separated topic onto AMQP's dot-separated words.
func RoutingKey(topic string) string {
	return strings.TrimPrefix(strings.ReplaceAll(topic, "/", "."), ".")
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic string, reading *v1.SensorReading) error {
	payload, err := encodeReading(reading)
	if err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx,
		p.exchange,
		RoutingKey(topic),
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   reading.ID,
			Timestamp:   time.Now().UTC(),
			Type:        reading.Class,
			Body:        payload,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
