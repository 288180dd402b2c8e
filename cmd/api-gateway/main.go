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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/pgr-adp-api/api/swagger"
	"github.com/noah-isme/pgr-adp-api/internal/handler"
	"github.com/noah-isme/pgr-adp-api/internal/middleware"
	"github.com/noah-isme/pgr-adp-api/internal/repository"
	"github.com/noah-isme/pgr-adp-api/internal/service"
	"github.com/noah-isme/pgr-adp-api/pkg/cache"
	"github.com/noah-isme/pgr-adp-api/pkg/config"
	"github.com/noah-isme/pgr-adp-api/pkg/database"
	"github.com/noah-isme/pgr-adp-api/pkg/logger"
	"github.com/noah-isme/pgr-adp-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/pgr-adp-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/pgr-adp-api/pkg/middleware/requestid"
	"github.com/noah-isme/pgr-adp-api/pkg/storage"
)

// @title PGR Administration API
// @version 1.0.0
// @description Postgraduate research student administration: progression workflows, supervision, submissions and reporting.
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
	sugar := logr.Sugar()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		sugar.Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}
	defer func() {
		if redisClient != nil {
			redisClient.Close() //nolint:errcheck
		}
	}()

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		sugar.Fatalw("failed to init upload storage", "error", err)
	}

	mail := mailer.New(cfg.Mailer)
	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	linkRepo := repository.NewStudentSupervisorRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	appraisalRepo := repository.NewAppraisalRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	vivaRepo := repository.NewVivaTeamRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)

	metricsSvc := service.NewMetricsService()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, mail, logr, service.NotificationQueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	supervisorSvc := service.NewSupervisorService(supervisorRepo, linkRepo, studentRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, studentRepo, notificationSvc, validate, logr)
	timelineSvc := service.NewTimelineService(timelineRepo, studentRepo, validate, logr)
	appraisalSvc := service.NewAppraisalService(appraisalRepo, studentRepo, notificationSvc, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, studentRepo, uploadStore, notificationSvc, cfg.Uploads.MaxFileSizeBytes, validate, logr)
	vivaSvc := service.NewVivaService(vivaRepo, studentRepo, supervisorRepo, notificationSvc, validate, logr)

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
	}
	reportSvc := service.NewReportService(reportRepo, appraisalRepo, submissionRepo, cacheSvc, cfg.Reports.CacheTTL, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	handlers := handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Students:      handler.NewStudentHandler(studentSvc, supervisorSvc),
		Supervisors:   handler.NewSupervisorHandler(supervisorSvc),
		Registrations: handler.NewRegistrationHandler(registrationSvc),
		Timelines:     handler.NewTimelineHandler(timelineSvc),
		Appraisals:    handler.NewAppraisalHandler(appraisalSvc),
		Submissions:   handler.NewSubmissionHandler(submissionSvc),
		Vivas:         handler.NewVivaHandler(vivaSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Reports:       handler.NewReportHandler(reportSvc),
		Users:         handler.NewUserHandler(userSvc),
		Metrics:       handler.NewMetricsHandler(metricsSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", handlers.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", handlers.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc, middleware.DefaultPolicy(), userRepo)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
