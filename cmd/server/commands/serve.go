package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/memtodo/internal/config"
	"github.com/benvon/memtodo/internal/logger"
	"github.com/benvon/memtodo/internal/middleware"
	"github.com/benvon/memtodo/internal/queue"
	"github.com/benvon/memtodo/internal/services/todos"
	"github.com/benvon/memtodo/internal/telemetry"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func runServe(ctx context.Context, flags *serveFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.port != "" {
		cfg.ServerPort = flags.port
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	debugMode := cfg.ServerDebugMode || flags.debug

	zapLogger, err := logger.New(logger.Options{Debug: debugMode})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(zapLogger)
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	zapLogger.Info("starting_server",
		zap.String("version", Version),
		zap.Bool("debug_mode", debugMode),
		zap.String("server_port", cfg.ServerPort),
		zap.Strings("cors_allowed_origins", cfg.CORSAllowedOrigins),
		zap.String("rate_limit", cfg.RateLimit),
		zap.Bool("redis_configured", cfg.RedisURL != ""),
		zap.Bool("rabbitmq_configured", cfg.RabbitMQURL != ""),
		zap.Bool("otel_enabled", cfg.OTELEnabled),
	)

	deps := routerDeps{}

	if cfg.OTELEnabled {
		if cfg.OTELEndpoint == "" {
			zapLogger.Warn("otel_enabled_but_endpoint_not_configured")
		} else {
			tp, err := telemetry.InitTracer(ctx, telemetry.Config{
				ServiceName:    telemetry.ServiceName,
				ServiceVersion: Version,
				Endpoint:       cfg.OTELEndpoint,
			})
			if err != nil {
				zapLogger.Warn("failed_to_initialize_otel_tracer", zap.Error(err))
			} else {
				deps.tracing = true
				zapLogger.Info("otel_tracer_initialized", zap.String("endpoint", cfg.OTELEndpoint))
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := telemetry.Shutdown(shutdownCtx, tp); err != nil {
						zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
					}
				}()
			}
		}
	}

	if cfg.RedisURL != "" {
		redisClient, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.redis = redisClient
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_redis")
	}

	serviceOpts := []todos.Option{}
	if cfg.RabbitMQURL != "" {
		publisher, err := queue.ConnectWithRetry(ctx, queue.DefaultRetryPolicy, zapLogger, func() (queue.EventPublisher, error) {
			return queue.NewRabbitMQPublisher(cfg.RabbitMQURL)
		})
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		deps.publisher = publisher
		serviceOpts = append(serviceOpts, todos.WithPublisher(publisher))
		defer func() {
			if err := publisher.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		zapLogger.Info("connected_to_rabbitmq")
	}

	service := todos.NewService(zapLogger, serviceOpts...)
	if cfg.SeedDemoData {
		seeded := service.Bootstrap(ctx)
		zapLogger.Info("seeded_demo_data", zap.Int("count", seeded))
	}

	handler, err := newRouter(cfg, zapLogger, service, deps)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSecs)*time.Second + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		zapLogger.Info("server_starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	zapLogger.Info("server_shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	zapLogger.Info("server_exited")
	return nil
}
