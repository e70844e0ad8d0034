package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/jack-barr3tt/journey-tracker/src/common/config"
	"github.com/jack-barr3tt/journey-tracker/src/common/events"
	"github.com/jack-barr3tt/journey-tracker/src/common/journeys"
	"github.com/jack-barr3tt/journey-tracker/src/common/rail"
	"github.com/jack-barr3tt/journey-tracker/src/common/store"
	"github.com/jack-barr3tt/journey-tracker/src/common/utils"
	"github.com/jack-barr3tt/journey-tracker/src/http-api/api"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.GetLogger().Fatalw("failed to load config", "error", err)
	}

	utils.InitLogger(cfg.LogLevel)
	defer utils.SyncLogger()
	log := utils.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	journeyStore, err := store.Open(ctx, cfg, utils.Named("store"))
	if err != nil {
		log.Fatalw("failed to open journey store", "backend", cfg.Store.Backend, "error", err)
	}

	publisher, err := events.NewPublisher(cfg, utils.Named("events"))
	if err != nil {
		_ = journeyStore.Close()
		log.Fatalw("failed to start event publisher", "backend", cfg.Events.Backend, "error", err)
	}

	railClient := rail.NewClient(cfg.Rail, utils.Named("rail"))
	controller := journeys.NewController(ctx, railClient, journeyStore, publisher, utils.Named("journeys"))

	server, err := api.NewServer(controller, railClient, cfg.Location(), utils.Named("http"))
	if err != nil {
		log.Fatalw("failed to start http api server", "error", err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()

		if path := c.Path(); path != "/health" {
			log.Infow("request", "method", c.Method(), "path", path, "status", c.Response().StatusCode())
		}

		return err
	})

	app.Use(cors.New())

	api.RegisterHandlers(app, server)

	go func() {
		log.Infow("listening", "addr", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Errorw("fiber listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Infow("shutting down")

	if err := shutdown(app, controller, publisher, journeyStore); err != nil {
		log.Errorw("shutdown incomplete", "error", err)
	}
}

// shutdown stops accepting requests, saves anything a failed save left
// behind, then releases the broker and store connections.
func shutdown(app *fiber.App, controller *journeys.Controller, publisher events.Publisher, journeyStore *store.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := app.ShutdownWithContext(ctx)
	err = multierr.Append(err, controller.Flush(ctx))
	err = multierr.Append(err, publisher.Close())
	err = multierr.Append(err, journeyStore.Close())
	return err
}
