package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/benvon/memtodo/internal/config"
	"github.com/benvon/memtodo/internal/logger"
	"github.com/benvon/memtodo/internal/queue"
	"github.com/benvon/memtodo/internal/workers"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var debug bool

	rootCmd := &cobra.Command{
		Use:          "todo-events",
		Short:        "Follow the todo change feed",
		Long:         "Consumes change events published by todo-server and logs running activity counts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), debug)
		},
	}
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging (overrides WORKER_DEBUG_MODE)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, debugFlag bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.RabbitMQURL == "" {
		return errors.New("RABBITMQ_URL is required")
	}

	debugMode := cfg.WorkerDebugMode || debugFlag
	zapLogger, err := logger.New(logger.Options{Debug: debugMode})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	subscriber, err := queue.NewRabbitMQSubscriber(cfg.RabbitMQURL, cfg.EventsQueueName)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	defer func() {
		if err := subscriber.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq",
		zap.String("queue", subscriber.QueueName()),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	deliveries, errs, err := subscriber.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	tracker := workers.NewActivityTracker(zapLogger)
	zapLogger.Info("worker_started")
	tracker.Run(ctx, deliveries, errs)

	snapshot := tracker.Snapshot()
	zapLogger.Info("worker_stopped",
		zap.Int("events_total", snapshot.Total),
		zap.Any("events_by_action", snapshot.ByAction),
		zap.Int("live_todos", snapshot.LiveTodos),
	)
	return nil
}
