package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/nyikasafaris/safaribooking/config"
	"github.com/nyikasafaris/safaribooking/internal/email"
	"github.com/nyikasafaris/safaribooking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// The worker drains the notifications topic and turns events into emails.
// Sends are best-effort: a failed send is logged and the message is still
// considered handled.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := email.NewSender(cfg.SMTP, logger)

	logger.WithField("topic", cfg.Kafka.NotificationsTopic).Info("notification worker started")

	if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.NotificationEvent) error {
		sender.Dispatch(ctx, event)
		return nil
	}); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("consumer stopped")
	}
}
