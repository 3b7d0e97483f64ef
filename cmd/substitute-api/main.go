package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-substitute-api/api/swagger"
	"github.com/noah-isme/sma-substitute-api/internal/handler"
	"github.com/noah-isme/sma-substitute-api/internal/middleware"
	"github.com/noah-isme/sma-substitute-api/internal/models"
	"github.com/noah-isme/sma-substitute-api/internal/repository"
	"github.com/noah-isme/sma-substitute-api/internal/route"
	"github.com/noah-isme/sma-substitute-api/internal/service"
	"github.com/noah-isme/sma-substitute-api/pkg/cache"
	"github.com/noah-isme/sma-substitute-api/pkg/config"
	"github.com/noah-isme/sma-substitute-api/pkg/database"
	"github.com/noah-isme/sma-substitute-api/pkg/jobs"
	"github.com/noah-isme/sma-substitute-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-substitute-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-substitute-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-substitute-api/pkg/notify"
	"github.com/noah-isme/sma-substitute-api/pkg/storage"
)

// @title SMA Substitute API
// @version 1.0.0
// @description Weekly timetable, substitute proposals and absence history for a secondary school
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, falling back to in-memory drafts", zap.Error(err))
			redisClient = nil
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	scheduleRepo := repository.NewScheduleRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	behaviorRepo := repository.NewBehaviorRepository(db)
	userRepo := repository.NewUserRepository(db)

	var (
		cacheSvc *service.CacheService
		drafts   service.DraftStore
	)
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, cfg.Redis.KeyPrefix, logr)
		defer cacheRepo.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Statistics.CacheTTL, logr, true)
		drafts = service.NewCacheDraftStore(cacheRepo, cfg.Substitution.DraftTTL)
	} else {
		drafts = service.NewMemoryDraftStore(cfg.Substitution.DraftTTL)
	}

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	scheduleSvc := service.NewScheduleService(scheduleRepo, validate, logr)
	substitutionSvc := service.NewSubstitutionService(scheduleRepo, historyRepo, drafts, cacheSvc, metricsSvc, validate, logr, service.SubstitutionConfig{
		Proposer: service.ProposerOptions{
			LoadBalancing:        cfg.Substitution.LoadBalancing,
			SkipExcludedSlots:    cfg.Substitution.SkipExcludedSlots,
			RequireDayPresence:   cfg.Substitution.RequireDayPresence,
			SupportBusyElsewhere: cfg.Substitution.SupportBusyIsConflict,
		},
		Validator:     service.ValidatorOptions{SupportBusyIsConflict: cfg.Substitution.SupportBusyIsConflict},
		AbsencePolicy: models.AbsencePolicy(cfg.Substitution.AbsencePolicy),
	})
	if cfg.Telegram.Enabled() {
		publisher, err := notify.NewTelegramPublisher(notify.TelegramConfig{BotToken: cfg.Telegram.BotToken, ChatID: cfg.Telegram.ChatID})
		if err != nil {
			logr.Warn("telegram announcements disabled", zap.Error(err))
		} else {
			substitutionSvc.WithAnnouncer(publisher, cfg.Telegram.PublishOnCommit)
			logr.Info("telegram announcements enabled",
				zap.Int64("chat_id", cfg.Telegram.ChatID),
				zap.Bool("publish_on_commit", cfg.Telegram.PublishOnCommit),
			)
		}
	}
	historySvc := service.NewHistoryService(historyRepo, cacheSvc, metricsSvc, cfg.Statistics.CacheTTL, validate, logr)
	behaviorSvc := service.NewBehaviorService(behaviorRepo, validate, logr)

	backupFiles, err := storage.NewLocalStorage(cfg.Backups.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare backup storage", zap.Error(err))
	}
	signer := storage.NewDownloadTokenSigner(cfg.Backups.SignedURLSecret, cfg.Backups.SignedURLTTL)
	backupSvc := service.NewBackupService(scheduleRepo, historyRepo, backupFiles, signer, service.BackupConfig{
		APIPrefix: cfg.APIPrefix,
		Retention: cfg.Backups.Retention,
		Interval:  cfg.Backups.Interval,
	}, logr).WithMetrics(metricsSvc)

	backupQueue := jobs.NewQueue("backups", backupSvc.HandleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Backups.MaxRetries,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	backupQueue.Start(ctx)
	defer backupQueue.Stop()
	backupSvc.StartSchedule(ctx, backupQueue)

	checks := map[string]handler.Pinger{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	route.Register(r, cfg.APIPrefix, route.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Schedule:     handler.NewScheduleHandler(scheduleSvc),
		Substitution: handler.NewSubstitutionHandler(substitutionSvc),
		History:      handler.NewHistoryHandler(historySvc),
		Backup:       handler.NewBackupHandler(backupSvc),
		Behavior:     handler.NewBehaviorHandler(behaviorSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc, checks),
	}, route.Dependencies{Tokens: authSvc, Audit: userRepo, Logger: logr})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
