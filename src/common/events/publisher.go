package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
	"go.uber.org/zap"
)

const (
	QueueName        = "journeys"
	StompDestination = "/queue/journeys"
)

type Publisher interface {
	Publish(ctx context.Context, event types.JourneyEvent) error
	Close() error
}

// NewPublisher connects the configured event backend. "none" discards events.
func NewPublisher(cfg config.Config, logger *zap.SugaredLogger) (Publisher, error) {
	switch cfg.Events.Backend {
	case "", "none":
		return Discard{}, nil
	case "amqp":
		conn, channel, err := utils.NewRabbitConnection(cfg.MQ)
		if err != nil {
			return nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		return NewAMQPPublisher(conn, channel, logger)
	case "stomp":
		conn, err := utils.NewStompConnection(cfg.Stomp)
		if err != nil {
			return nil, fmt.Errorf("connect to stomp broker: %w", err)
		}
		return NewStompPublisher(conn, StompDestination), nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Events.Backend)
	}
}

func encode(event types.JourneyEvent) ([]byte, error) {
	return json.Marshal(event)
}

type Discard struct{}

func (Discard) Publish(context.Context, types.JourneyEvent) error { return nil }

func (Discard) Close() error { return nil }
