package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-payroll/internal/config"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/kafka"
	"github.com/cmlabs-hris/hris-payroll/internal/repository/postgresql"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "hris-payroll-worker"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.Options{
		QueryTimeout:    cfg.Database.QueryTimeout,
		ConnectAttempts: cfg.Database.RetryAttempts,
	})
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	defer db.Close()

	writer := kafka.NewWriter(cfg.Kafka.Brokers)
	defer func() {
		if err := writer.Close(); err != nil {
			slog.Warn("failed to close kafka writer", "error", err)
		}
	}()

	relay := kafka.NewRelay(
		postgresql.NewTransactor(db),
		postgresql.NewOutboxRepository(db),
		kafka.NewPublisher(writer),
		cfg.Kafka.PollInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("outbox worker starting", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.NotificationTopic)
	relay.Run(ctx)
	return nil
}
