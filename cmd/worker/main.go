package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/arsconsole/config"
	"github.com/Domenick1991/arsconsole/internal/kafka"
	"github.com/Domenick1991/arsconsole/internal/logger"
	"github.com/Domenick1991/arsconsole/internal/notify"
	"github.com/spf13/pflag"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	pflag.StringVar(&cfgPath, "config", cfgPath, "path to the config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatalf("kafka.brokers is not configured")
	}
	logs := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, logs.With(slog.String("component", "consumer")))
	defer consumer.Close()

	sender := notify.NewSender(os.Stdout, logs.With(slog.String("component", "notify")))

	logs.Info("worker started", slog.String("topic", cfg.Kafka.Topic), slog.String("group_id", cfg.Kafka.GroupID))
	if err := consumer.Consume(ctx, sender.Send); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("consumer stopped: %v", err)
	}
	logs.Info("worker stopped")
}
