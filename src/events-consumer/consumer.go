package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jack-barr3tt/journey-tracker/src/common/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const activityTTL = 24 * time.Hour

func activityKey(journeyID string) string {
	return fmt.Sprintf("journey:%s", journeyID)
}

// Consumer mirrors the latest event for each journey into a redis hash so
// other tools can see recent activity without reading the store blob.
type Consumer struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewConsumer(rdb *redis.Client, logger *zap.SugaredLogger) *Consumer {
	return &Consumer{rdb: rdb, ttl: activityTTL, logger: logger}
}

// Run handles deliveries until ctx is done or the channel closes.
func (c *Consumer) Run(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Warnw("delivery channel closed")
				return
			}
			if err := c.Handle(ctx, msg.Body); err != nil {
				c.logger.Warnw("failed to handle journey event", "error", err)
			}
		}
	}
}

func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var event types.JourneyEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("bad event json: %w", err)
	}
	if event.Journey.ID == "" {
		return fmt.Errorf("event %q has no journey id", event.Type)
	}

	key := activityKey(event.Journey.ID)

	if event.Type == types.JourneyRemoved {
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", key, err)
		}
		c.logger.Infow("journey removed", "id", event.Journey.ID)
		return nil
	}

	data := map[string]interface{}{
		"event_type":     string(event.Type),
		"from":           event.Journey.From,
		"to":             event.Journey.To,
		"status":         event.Journey.Status,
		"departure_time": event.Journey.DepartureTime,
		"at":             event.At.UTC().Format(time.RFC3339),
	}

	if _, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, data)
		pipe.Expire(ctx, key, c.ttl)
		return nil
	}); err != nil {
		return fmt.Errorf("redis hset %s: %w", key, err)
	}

	c.logger.Infow("journey activity", "id", event.Journey.ID, "type", event.Type, "status", event.Journey.Status)
	return nil
}
