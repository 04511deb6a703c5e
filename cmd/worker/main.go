package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/email"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logger.New(cfg.Log)
	if !cfg.Kafka.Enabled() {
		log.Fatal("worker needs kafka.brokers (or KAFKA_BROKERS)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sender := email.NewSender(cfg.SMTP, cfg.HTTP.PublicURL, log)
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, log)
	defer consumer.Close()

	log.WithFields(logrus.Fields{
		"topic": cfg.Kafka.NotificationsTopic,
		"group": cfg.Kafka.GroupID,
	}).Info("notification worker started")

	if err := consumer.ConsumeNotifications(ctx, sender.Handle); err != nil {
		log.Errorf("consumer stopped: %v", err)
		return
	}
	log.Info("notification worker stopped")
}
