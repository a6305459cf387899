package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/plaksha-connect/internal/config"
	"github.com/noah-isme/plaksha-connect/internal/database"
	"github.com/noah-isme/plaksha-connect/internal/geo"
	"github.com/noah-isme/plaksha-connect/internal/handler"
	"github.com/noah-isme/plaksha-connect/internal/kvstore"
	"github.com/noah-isme/plaksha-connect/internal/middleware"
	"github.com/noah-isme/plaksha-connect/internal/repository"
	"github.com/noah-isme/plaksha-connect/internal/repository/local"
	"github.com/noah-isme/plaksha-connect/internal/repository/remote"
	"github.com/noah-isme/plaksha-connect/internal/router"
	"github.com/noah-isme/plaksha-connect/internal/service"
	"github.com/noah-isme/plaksha-connect/internal/session"
	cloud "github.com/noah-isme/plaksha-connect/pkg/cloudinary"
)

const uploadURLPrefix = "/uploads"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := newLogger(cfg)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, "plaksha-connect")
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Close()
	}

	registry, resetter, err := buildRegistry(cfg, redisClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build data gateway")
	}
	logger.Info().Str("mode", string(registry.Mode)).Str("store", cfg.StoreDriver).Msg("data gateway ready")

	storage, err := buildStorage(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure upload storage")
	}

	validate := service.NewValidator()
	tokens := session.NewTokens(cfg.JWTSecret, cfg.JWTTTL)

	var sender service.OTPSender
	switch cfg.OTPDelivery {
	case "log":
		sender = service.LogOTPSender{Logger: logger}
	case "smtp":
		sender = service.SMTPOTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TTL:      cfg.OTPTTL,
		}
	}

	notificationService := service.NewNotificationService(registry.Notifications, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	var notifier service.Notifier = notificationService
	if registry.Mode == repository.ModeRemote {
		// The upstream backend raises its own notifications.
		notifier = service.NopNotifier{}
	}

	authService := service.NewAuthService(registry.Auth, registry.Users, tokens, sender, validate, logger)
	announcementService := service.NewAnnouncementService(registry.Announcements, registry.Users, notifier, redisClient, cfg.RedisCacheTTL, validate, logger)
	chatService := service.NewChatService(service.ChatDeps{
		Repo:        registry.Chat,
		Users:       registry.Users,
		Notifier:    notifier,
		Redis:       redisClient,
		NATS:        natsConn,
		ChannelBase: cfg.RealtimeChannel,
		Validator:   validate,
		Logger:      logger,
	})
	issueService := service.NewIssueService(registry.Issues, registry.Users, notifier, validate, logger)
	teamService := service.NewTeamService(registry.Teams, notifier, validate, logger)
	challengeService := service.NewChallengeService(registry.Challenges, notifier, validate, logger)
	messService := service.NewMessService(registry.MessReviews, nil, validate, logger)
	locationService := service.NewLocationService(registry.Locations, validate, logger)
	buildingService := service.NewBuildingService(registry.Buildings, registry.Locations, validate, logger)
	uploadService := service.NewUploadService(storage, int(cfg.UploadMaxBytes>>20), logger)
	devService := service.NewDevService(resetter, logger, announcementService)

	app := fiber.New(fiber.Config{
		AppName:      "PlakshaConnect",
		ServerHeader: "plaksha-connect",
		BodyLimit:    int(cfg.UploadMaxBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins, AccessLog: cfg.IsDevelopment()})
	if _, ok := storage.(service.DiskStorage); ok {
		app.Static(uploadURLPrefix, cfg.UploadDir)
	}

	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		AnnouncementHandler: handler.NewAnnouncementHandler(announcementService, logger),
		ChatHandler:         handler.NewChatHandler(chatService, logger),
		IssueHandler:        handler.NewIssueHandler(issueService, logger),
		TeamHandler:         handler.NewTeamHandler(teamService, logger),
		ChallengeHandler:    handler.NewChallengeHandler(challengeService, logger),
		MessHandler:         handler.NewMessHandler(messService, logger),
		LocationHandler:     handler.NewLocationHandler(locationService, logger),
		BuildingHandler:     handler.NewBuildingHandler(buildingService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 0),
		UploadHandler:       handler.NewUploadHandler(uploadService, authService, issueService, logger),
		DevHandler:          handler.NewDevHandler(devService, logger),
		JWTMiddleware:       middleware.JWTProtected(tokens),
		OTPLimit:            middleware.RateLimit("otp", cfg.OTPRatePerMinute, time.Minute),
		VerifyLimit:         middleware.RateLimit("otp_verify", cfg.OTPVerifyPerMinute, time.Minute),
		ChatLimit:           middleware.RateLimit("chat", cfg.ChatRatePerMinute, time.Minute),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chatService.Start(ctx)
	notificationService.Start(ctx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(ctx, app, logger)
}

func newLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(level).With().Timestamp().Str("service", "plaksha-connect").Logger()
}

// buildRegistry selects the data source once for the process lifetime. The
// returned resetter is nil in remote mode.
func buildRegistry(cfg config.Config, redisClient *redis.Client, logger zerolog.Logger) (repository.Registry, service.Resetter, error) {
	if cfg.DataMode == string(repository.ModeRemote) {
		client := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteTimeout, logger)
		return remote.NewRegistry(client), nil, nil
	}

	kv, err := openKV(cfg, redisClient)
	if err != nil {
		return repository.Registry{}, nil, err
	}
	writeMode, err := local.ParseWriteMode(cfg.DataWriteMode)
	if err != nil {
		return repository.Registry{}, nil, err
	}

	store := local.NewStore(kv, local.Options{
		Latency:   local.FixedLatency(cfg.DataLatency),
		WriteMode: writeMode,
		Logger:    logger,
	})
	return local.NewRegistry(store, geo.AllowAllRelationships{}, local.AuthOptions{OTPTTL: cfg.OTPTTL, MaxAttempts: cfg.OTPMaxAttempts}), store, nil
}

func openKV(cfg config.Config, redisClient *redis.Client) (kvstore.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		return kvstore.NewRedis(redisClient, ""), nil
	case config.StoreSQLite:
		db, err := database.ConnectSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return kvstore.NewSQL(db)
	case config.StorePostgres:
		db, err := database.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return kvstore.NewSQL(db)
	default:
		return kvstore.NewMemory(), nil
	}
}

func buildStorage(cfg config.Config, logger zerolog.Logger) (service.FileStorage, error) {
	if cfg.CloudinaryCloudName == "" {
		logger.Info().Str("dir", cfg.UploadDir).Msg("cloudinary not configured, storing uploads on disk")
		return service.DiskStorage{Dir: cfg.UploadDir, URLPrefix: uploadURLPrefix}, nil
	}
	uploader, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		return nil, err
	}
	return uploader, nil
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
