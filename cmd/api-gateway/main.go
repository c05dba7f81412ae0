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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/tahfidz-api/api/swagger"
	"github.com/noah-isme/tahfidz-api/internal/handler"
	"github.com/noah-isme/tahfidz-api/internal/middleware"
	"github.com/noah-isme/tahfidz-api/internal/models"
	"github.com/noah-isme/tahfidz-api/internal/period"
	"github.com/noah-isme/tahfidz-api/internal/repository"
	"github.com/noah-isme/tahfidz-api/internal/service"
	"github.com/noah-isme/tahfidz-api/pkg/cache"
	"github.com/noah-isme/tahfidz-api/pkg/config"
	"github.com/noah-isme/tahfidz-api/pkg/database"
	"github.com/noah-isme/tahfidz-api/pkg/jobs"
	"github.com/noah-isme/tahfidz-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/tahfidz-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/tahfidz-api/pkg/middleware/requestid"
	"github.com/noah-isme/tahfidz-api/pkg/storage"
)

// @title Tahfidz API
// @version 1.0.0
// @description Tasmi' exam lifecycle, period recaps and document generation
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

type handlers struct {
	auth      *service.AuthService
	tasmi     *handler.TasmiHandler
	recap     *handler.RecapHandler
	artifacts *handler.ArtifactHandler
	metrics   *handler.MetricsHandler
	observer  middleware.RequestObserver
}

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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	var redisClient *redis.Client
	if cfg.Recap.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, recap cache disabled", zap.Error(err))
		}
	}

	tasmiRepo := repository.NewTasmiRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	gradingRepo := repository.NewGradingRepository(db)
	artifactRepo := repository.NewArtifactRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, cache.KeyPrefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Recap.CacheTTL, logr, cfg.Recap.CacheEnabled && redisClient != nil)
	resolver := period.NewResolver(period.ParseConvention(cfg.Recap.SemesterConvention), cfg.Location())

	files, err := storage.NewLocalStorage(cfg.Artifacts.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare artifact storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SignedURLSecret, cfg.Artifacts.SignedURLTTL)

	var worker *service.ArtifactWorker
	queue := jobs.NewQueue("artifacts", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Artifacts.WorkerConcurrency,
		BufferSize: cfg.Artifacts.QueueSize,
		MaxRetries: cfg.Artifacts.WorkerRetries,
		Logger:     logr,
		OnDrop: func(ctx context.Context, job jobs.Job, err error) {
			worker.Dropped(ctx, job, err)
		},
	})

	artifactSvc := service.NewArtifactService(artifactRepo, queue, files, signer, metricsSvc, logr, service.ArtifactServiceConfig{
		ResultTTL:       cfg.Artifacts.SignedURLTTL,
		CleanupInterval: cfg.Artifacts.CleanupInterval,
	})
	recapSvc := service.NewRecapService(service.RecapDeps{
		Resolver:   resolver,
		Students:   studentRepo,
		Attendance: attendanceRepo,
		Grading:    gradingRepo,
		Exams:      tasmiRepo,
		Artifacts:  artifactSvc,
		Cache:      cacheSvc,
		Metrics:    metricsSvc,
	}, service.RecapConfig{Location: cfg.Location(), CacheTTL: cfg.Recap.CacheTTL}, logr)
	documentSvc := service.NewDocumentService(tasmiRepo, recapSvc, files, signer, service.DocumentConfig{
		APIPrefix: cfg.APIPrefix,
		Location:  cfg.Location(),
	}, logr, nil, nil)
	worker = service.NewArtifactWorker(artifactRepo, documentSvc, metricsSvc, cfg.Artifacts.WorkerRetries, logr)

	tasmiSvc := service.NewTasmiService(tasmiRepo, studentRepo, artifactSvc, recapSvc, metricsSvc, validator.New(), cfg.Location(), logr)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Leeway:            30 * time.Second,
	})

	queue.Start(ctx)
	defer queue.Stop()
	artifactSvc.RecoverPendingJobs(ctx)
	artifactSvc.StartCleanup(ctx)

	h := handlers{
		auth:      authSvc,
		tasmi:     handler.NewTasmiHandler(tasmiSvc),
		recap:     handler.NewRecapHandler(recapSvc),
		artifacts: handler.NewArtifactHandler(artifactSvc),
		metrics:   handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
		observer:  metricsSvc,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(h.observer))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), h)

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
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func registerRoutes(api *gin.RouterGroup, h handlers) {
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	api.GET("/artifacts/download/:token", h.artifacts.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(h.auth))

	tasmi := secured.Group("/tasmi")
	tasmi.POST("", middleware.RequireRoles(models.RoleStudent, models.RoleTeacher, models.RoleAdmin), h.tasmi.Register)
	tasmi.GET("", h.tasmi.List)
	tasmi.GET("/recap", staff, h.recap.ExamRecap)
	tasmi.GET("/summary", staff, h.recap.ClassSummary)
	tasmi.GET("/:id", h.tasmi.Get)
	tasmi.POST("/:id/schedule", staff, h.tasmi.Schedule)
	tasmi.POST("/:id/reject", staff, h.tasmi.Reject)
	tasmi.POST("/:id/grade", staff, h.tasmi.Grade)
	tasmi.POST("/:id/publish", staff, h.tasmi.Publish)
	tasmi.POST("/:id/artifact", staff, h.tasmi.RegenerateArtifact)

	recap := secured.Group("/recap", staff)
	recap.GET("", h.recap.Recap)
	recap.POST("/export", h.recap.Export)

	secured.GET("/artifacts/:id", staff, h.artifacts.Status)
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.ReadinessCheck {
	checks := map[string]handler.ReadinessCheck{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}
