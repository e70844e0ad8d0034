package events

import (
	"context"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

func NewAMQPPublisher(conn *amqp.Connection, channel *amqp.Channel, logger *zap.SugaredLogger) (*AMQPPublisher, error) {
	_, err := channel.QueueDeclare(
		QueueName,
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, multierr.Append(err, conn.Close())
	}

	closeChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(closeChan)
	go func() {
		if err, ok := <-closeChan; ok && err != nil {
			logger.Warnw("RabbitMQ connection closed", "error", err)
		}
	}()

	return &AMQPPublisher{
		conn:    conn,
		channel: channel,
		queue:   QueueName,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, event types.JourneyEvent) error {
	body, err := encode(event)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Type:        string(event.Type),
			Timestamp:   event.At,
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return multierr.Combine(p.channel.Close(), p.conn.Close())
}
