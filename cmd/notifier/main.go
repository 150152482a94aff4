// Command notifier consumes grievance events and tells the citizen about them.
// Delivery is a structured log line; a mail or SMS sender would plug in at notify.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"grievancedesk/internal/bootstrap"
	"grievancedesk/internal/config"
	"grievancedesk/internal/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.AMQPURL == "" {
		log.Fatalf("config: AMQP_URL is required for the notifier")
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", "notifier")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := bootstrap.OpenStores(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}
	defer stores.Close(context.Background())

	consumer, err := events.NewConsumer(cfg.AMQPURL, cfg.AMQPExchange, cfg.NotifyQueue, events.AllKeys, 8)
	if err != nil {
		log.Fatalf("amqp init: %v", err)
	}
	defer consumer.Close()

	n := &notifier{users: stores.Users, logger: logger}
	logger.Info("waiting for grievance events", "queue", cfg.NotifyQueue, "exchange", cfg.AMQPExchange)
	if err := consumer.Run(ctx, n.handle); err != nil {
		logger.Error("consumer stopped", "error", err)
	}
}
