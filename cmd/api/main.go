package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pawnest/internal/api"
	"pawnest/internal/config"
	"pawnest/internal/database"
	"pawnest/internal/domain"
	"pawnest/internal/events"
	"pawnest/internal/google"
	"pawnest/internal/logging"
	"pawnest/internal/metrics"
	"pawnest/internal/models"
	"pawnest/internal/notification"
	"pawnest/internal/paymob"
	"pawnest/internal/repository"
	"pawnest/internal/service"
	"pawnest/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	shelters, err := loadShelters(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, shelters, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}
	cache := repository.NewRedisCorrelationCache(redisClient, time.Duration(models.CorrelationTTL)*time.Second)

	eventBus := events.NewEventBus()

	notifier, err := notification.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ManagerChatIDs, &logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
	} else if notifier.Enabled() {
		notifier.Register(eventBus)
		logger.Info().Int("chats", len(cfg.Telegram.ManagerChatIDs)).Msg("telegram notifications enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncWorker := initSyncWorker(ctx, cfg, db, &logger)

	provider := paymob.NewClient(cfg.Paymob)
	payments := service.NewPaymentService(db, provider, cache, eventBus, syncWorker, &logger)

	httpServer := api.NewHTTPServer(cfg.API, payments, db, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// loadShelters reads the shelter catalog. A separate SHELTERS_PATH file wins
// over the inline config section so the catalog can be managed independently.
func loadShelters(cfg *config.Config, logger *zerolog.Logger) ([]models.Shelter, error) {
	sheltersPath := os.Getenv("SHELTERS_PATH")
	if sheltersPath == "" {
		sheltersPath = "configs/shelters.yaml"
	}

	data, err := os.ReadFile(sheltersPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("shelters_path", sheltersPath).Int("inline", len(cfg.Shelters)).Msg("no shelters file, using inline catalog")
			return cfg.Shelters, nil
		}
		logger.Error().Err(err).Str("shelters_path", sheltersPath).Msg("read shelters")
		return nil, err
	}

	var sheltersConfig struct {
		Shelters []models.Shelter `yaml:"shelters"`
	}
	if err := yaml.Unmarshal(data, &sheltersConfig); err != nil {
		logger.Error().Err(err).Str("shelters_path", sheltersPath).Msg("parse shelters")
		return nil, err
	}

	if err := config.ValidateShelters(sheltersConfig.Shelters); err != nil {
		return nil, err
	}

	return sheltersConfig.Shelters, nil
}

func initDatabase(cfg *config.Config, shelters []models.Shelter, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	db.SetShelters(shelters)
	return db, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initSyncWorker wires the Sheets export pipeline. Without credentials the
// queue is not drained and the service runs standalone.
func initSyncWorker(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) domain.SyncWorker {
	if cfg.Google.CredentialsFile == "" || cfg.Google.BookingsSpreadsheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.BookingsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed, continuing without sheets")
		return nil
	}
	logger.Info().Msg("google sheets connected")

	syncWorker := worker.NewSyncWorker(db, sheetsService, worker.RetryPolicy{}, logger)
	go syncWorker.Run(ctx)
	return syncWorker
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

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
