package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/exam-scheduler/api/swagger"
	"github.com/noah-isme/exam-scheduler/internal/handler"
	internalmiddleware "github.com/noah-isme/exam-scheduler/internal/middleware"
	"github.com/noah-isme/exam-scheduler/internal/repository"
	"github.com/noah-isme/exam-scheduler/internal/service"
	"github.com/noah-isme/exam-scheduler/pkg/cache"
	"github.com/noah-isme/exam-scheduler/pkg/config"
	"github.com/noah-isme/exam-scheduler/pkg/database"
	"github.com/noah-isme/exam-scheduler/pkg/export"
	"github.com/noah-isme/exam-scheduler/pkg/jobs"
	"github.com/noah-isme/exam-scheduler/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-scheduler/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-scheduler/pkg/middleware/requestid"
)

// @title Exam Scheduler API
// @version 1.0.0
// @description Automatic exam arrangement: scheduling runs, conflict checks, teacher constraints and adjustment requests.
// @BasePath /api/v1
// @schemes http

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	deps := map[string]handler.Pinger{"postgres": db}

	var (
		lock     service.RunLocker
		jobStore service.ScheduleJobStore = service.NewMemoryJobStore(cfg.Scheduler.JobTTL)
	)
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		lock = repository.NewRedisRunLock(client, cfg.Scheduler.LockKey, cfg.Scheduler.LockTTL, logr)
		jobStore = service.NewCacheJobStore(repository.NewCacheRepository(client, logr), client.Key("jobs"), cfg.Scheduler.JobTTL)
		deps["redis"] = client
		logr.Info("redis run lock enabled", zap.String("key", cfg.Scheduler.LockKey))
	}

	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	constraintRepo := repository.NewTeacherConstraintRepository(db)
	arrangementRepo := repository.NewExamArrangementRepository(db)
	requestRepo := repository.NewAdjustmentRequestRepository(db)

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	constraintSvc := service.NewConstraintService(constraintRepo, arrangementRepo, metricsSvc, validate, logr)
	conflictSvc := service.NewConflictService(arrangementRepo, roomRepo, metricsSvc, validate, logr)
	schedulerSvc := service.NewExamSchedulerService(
		courseRepo,
		roomRepo,
		arrangementRepo,
		constraintSvc,
		conflictSvc,
		db,
		lock,
		metricsSvc,
		validate,
		logr,
		service.ExamSchedulerConfig{RandomSeed: cfg.Scheduler.RandomSeed},
	)
	requestSvc := service.NewAdjustmentRequestService(requestRepo, arrangementRepo, roomRepo, conflictSvc, schedulerSvc, db, validate, logr)
	exportSvc := service.NewExportService(schedulerSvc, export.NewCSVExporter(), export.NewPDFExporter(), validate, logr)

	jobSvc := service.NewScheduleJobService(schedulerSvc, jobStore, logr)
	queue := jobs.NewQueue("exam-schedule", jobSvc.Handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 8,
		MaxRetries: -1,
		Logger:     logr,
	})
	queue.Start(ctx)
	jobSvc.SetQueue(queue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc, deps)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Arrangements: handler.NewExamArrangementHandler(schedulerSvc, jobSvc, exportSvc),
		Conflicts:    handler.NewConflictHandler(conflictSvc),
		Teachers:     handler.NewTeacherConstraintHandler(constraintSvc),
		Requests:     handler.NewAdjustmentRequestHandler(requestSvc),
		Audit: func(action string) gin.HandlerFunc {
			return internalmiddleware.Audit(logr, action)
		},
	})

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
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	queue.Stop()
}
