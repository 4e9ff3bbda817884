package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	_ "time/tzdata"

	"robotrent/internal/api"
	"robotrent/internal/bot"
	"robotrent/internal/config"
	"robotrent/internal/database"
	"robotrent/internal/domain"
	"robotrent/internal/google"
	"robotrent/internal/logging"
	"robotrent/internal/metrics"
	"robotrent/internal/repository"
	"robotrent/internal/service"
	"robotrent/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// незавершённые брони моложе этого не попадают в аудит
const auditGrace = 10 * time.Minute

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
		defer closer.Close()
	}

	if err := prepareDirectories(cfg, logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logging.Component(logger, "journal"))
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	sheetsService, err := initGoogleSheets(ctx, cfg, logger)
	if err != nil {
		return err
	}

	redisClient, sessionService, locker := initSessionState(ctx, cfg, logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}

	botWrapper, err := bot.NewBotWrapper(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	tgService := service.NewTelegramService(botWrapper)

	retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
	notifier := worker.NewNotifier(tgService, redisClient, retryPolicy, logging.Component(logger, "notifier"))
	go notifier.Start(ctx)

	loc := cfg.Location()
	availability := service.NewAvailabilityService(sheetsService, cfg.Calendar, loc)
	reservations := service.NewReservationService(
		sheetsService, locker, db, notifier,
		cfg.Calendar, cfg.Bot.AdminChatID, loc,
		logging.Component(logger, "reservations"),
	)

	scheduler, err := initScheduler(cfg, sheetsService, db, notifier, logger)
	if err != nil {
		return err
	}
	go scheduler.Start(ctx)

	servers := startHTTPServers(cfg, availability, db, redisClient, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}
	}()

	telegramBot, err := bot.NewBot(
		tgService, cfg, sessionService, availability, reservations,
		sheetsService, db, scheduler, logging.Component(logger, "bot"),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)
	telegramBot.Stop()

	// дожидаемся отправки уведомлений из очереди
	notifier.Wait()
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logging.Component(baseLogger, "bot-main"), closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*google.SheetsService, error) {
	sheetsSvc, err := google.NewSheetsService(ctx, cfg.Google, logging.Component(logger, "sheets"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil, err
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil, err
	}

	logger.Info().Str("spreadsheet_id", cfg.Google.SpreadsheetID).Msg("Google Sheets service initialized successfully")
	return sheetsSvc, nil
}

// initSessionState поднимает сессии и блокировки: Redis, если доступен,
// иначе всё в памяти процесса.
func initSessionState(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.SessionService, domain.RangeLocker) {
	ttl := time.Duration(cfg.Bot.SessionTTL) * time.Second
	fallbackRepo := repository.NewMemorySessionRepository(ttl)
	sessionLogger := logging.Component(logger, "sessions")

	if cfg.Redis.Address == "" {
		logger.Warn().Msg("Redis is not configured, sessions and locks are kept in memory")
		return nil, service.NewSessionService(fallbackRepo, sessionLogger), repository.NewMemoryLocker()
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, falling back to memory")
		_ = repository.Close(redisClient)
		return nil, service.NewSessionService(fallbackRepo, sessionLogger), repository.NewMemoryLocker()
	}

	primaryRepo := repository.NewRedisSessionRepository(redisClient, ttl)
	sessionRepo := repository.NewFailoverSessionRepository(primaryRepo, fallbackRepo, sessionLogger)
	locker := repository.NewRedisLocker(redisClient, cfg.Calendar.LockTTL, cfg.Calendar.LockWait, logging.Component(logger, "locks"))
	return redisClient, service.NewSessionService(sessionRepo, sessionLogger), locker
}

func initScheduler(
	cfg *config.Config,
	sheetsService *google.SheetsService,
	db *database.DB,
	notifier *worker.Notifier,
	logger *zerolog.Logger,
) (*worker.Scheduler, error) {
	scheduler := worker.NewScheduler(cfg.Location(), logging.Component(logger, "scheduler"))

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logging.Component(logger, "backup"))
	backupSpec := cfg.Scheduler.Backup
	if !cfg.Backup.Enabled {
		backupSpec = ""
	}

	jobs := []struct {
		name string
		spec string
		fn   worker.JobFunc
	}{
		{"content_refresh", cfg.Scheduler.ContentRefresh, worker.ContentRefreshJob(sheetsService)},
		{"audit", cfg.Scheduler.Audit, worker.AuditJob(db, notifier, cfg.Bot.AdminChatID, auditGrace)},
		{"backup", backupSpec, backup.Run},
	}
	for _, job := range jobs {
		if err := scheduler.Add(job.name, job.spec, job.fn); err != nil {
			logger.Error().Err(err).Str("job", job.name).Msg("Ошибка регистрации задачи")
			return nil, err
		}
	}
	return scheduler, nil
}

func startHTTPServers(
	cfg *config.Config,
	availability domain.AvailabilityView,
	db *database.DB,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) []*api.HTTPServer {
	checks := map[string]api.HealthCheck{"database": db.HealthCheck}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return repository.Ping(ctx, redisClient) }
	}

	httpLogger := logging.Component(logger, "http")
	var servers []*api.HTTPServer
	if cfg.Monitoring.PrometheusEnabled {
		servers = append(servers, api.NewHTTPServer(api.Options{
			Port:    cfg.Monitoring.PrometheusPort,
			Metrics: true,
			Checks:  checks,
		}, httpLogger))
	}
	if cfg.API.Enabled {
		servers = append(servers, api.NewHTTPServer(api.Options{
			Port:         cfg.API.Port,
			API:          cfg.API,
			Availability: availability,
			Journal:      db,
			Checks:       checks,
			Location:     cfg.Location(),
		}, httpLogger))
	}

	for _, srv := range servers {
		go func(s *api.HTTPServer) {
			if err := s.Start(); err != nil {
				logger.Error().Err(err).Msg("HTTP server error")
			}
		}(srv)
	}
	return servers
}
