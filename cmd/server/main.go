package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citabot/internal/api"
	"citabot/internal/app"
	"citabot/internal/config"
	"citabot/internal/logging"
	"citabot/internal/metrics"
	"citabot/internal/models"
	"citabot/internal/repository"
	"citabot/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "server-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, ready, redisClient := initStores(ctx, cfg, baseLogger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	a, err := app.New(cfg, stores, baseLogger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	// каждая сессия демо начинается с исходных данных
	if err := a.Reset(ctx); err != nil {
		return fmt.Errorf("seed demo state: %w", err)
	}

	startMetrics(ctx, cfg, logger)

	router := api.NewRouter(a, ready, cfg.API.RateLimit, baseLogger)
	httpServer := api.NewHTTPServer(cfg.API, router, baseLogger)

	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

// initStores picks redis when it is configured and reachable, memory
// otherwise. The screen state keeps a memory fallback behind redis.
func initStores(ctx context.Context, cfg *config.Config, base *zerolog.Logger) (app.Stores, api.ReadyFunc, *redis.Client) {
	logger := logging.Component(base, "stores")
	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using memory stores")
		return app.MemoryStores(), nil, nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	policy := worker.RetryPolicy{MaxRetries: 3, InitialDelay: 500 * time.Millisecond, MaxDelay: 4 * time.Second}
	err := worker.Retry(ctx, policy, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return repository.Ping(pingCtx, client)
	}, func(attempt int, err error) {
		logger.Warn().Err(err).Int("attempt", attempt).Msg("redis ping failed, retrying")
	})
	if err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with memory stores")
		_ = repository.Close(client)
		return app.MemoryStores(), nil, nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	screens := repository.NewFailoverScreenRepository(
		repository.NewRedisScreenRepository(client, models.DefaultScreenTTL*time.Second),
		repository.NewMemoryScreenRepository(),
		logging.Component(base, "screen-store"),
	)
	stores := app.Stores{
		Bookings: repository.NewRedisBookingRepository(client),
		Messages: repository.NewRedisMessageRepository(client),
		Screens:  screens,
	}
	ready := func(ctx context.Context) error { return repository.Ping(ctx, client) }
	return stores, ready, client
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Str("clinic", cfg.Clinic.Name).Msg("demo server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("demo server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
