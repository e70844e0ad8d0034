package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jack-barr3tt/journey-tracker/src/common/events"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.GetLogger().Fatalw("failed to load config", "error", err)
	}

	utils.InitLogger(cfg.LogLevel)
	defer utils.SyncLogger()
	logger := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := utils.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	conn, channel, err := utils.NewRabbitConnection(cfg.MQ)
	if err != nil {
		logger.Fatalw("failed to connect to RabbitMQ", "error", err)
	}
	defer conn.Close()
	defer channel.Close()

	if _, err := channel.QueueDeclare(events.QueueName, false, false, false, false, nil); err != nil {
		logger.Fatalw("failed to declare queue", "queue", events.QueueName, "error", err)
	}

	msgs, err := channel.Consume(events.QueueName, "", true, false, false, false, nil)
	if err != nil {
		logger.Fatalw("failed to consume queue", "queue", events.QueueName, "error", err)
	}

	logger.Infow("tracking journey activity", "queue", events.QueueName)
	NewConsumer(rdb, utils.Named("consumer")).Run(ctx, msgs)
}
