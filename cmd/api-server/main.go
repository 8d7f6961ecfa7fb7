package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/facemark/facemark-api/api/swagger"
	"github.com/facemark/facemark-api/internal/classifier"
	"github.com/facemark/facemark-api/internal/handler"
	appMiddleware "github.com/facemark/facemark-api/internal/middleware"
	"github.com/facemark/facemark-api/internal/repository"
	"github.com/facemark/facemark-api/internal/service"
	"github.com/facemark/facemark-api/internal/stream"
	"github.com/facemark/facemark-api/internal/vision"
	"github.com/facemark/facemark-api/pkg/cache"
	"github.com/facemark/facemark-api/pkg/config"
	"github.com/facemark/facemark-api/pkg/database"
	"github.com/facemark/facemark-api/pkg/logger"
	"github.com/facemark/facemark-api/pkg/mailer"
	corsmiddleware "github.com/facemark/facemark-api/pkg/middleware/cors"
	reqidmiddleware "github.com/facemark/facemark-api/pkg/middleware/requestid"
	"github.com/facemark/facemark-api/pkg/storage"
)

// @title Facemark API
// @version 1.0.0
// @description Face recognition attendance service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	dataset, err := storage.NewDatasetStore(cfg.Dataset.Dir)
	if err != nil {
		logr.Sugar().Fatalw("open dataset store", "error", err)
	}
	store, err := classifier.NewStore(cfg.Dataset.ArtifactPath)
	if err != nil {
		logr.Sugar().Fatalw("load classifier artifact", "error", err)
	}

	detector, err := vision.NewCascadeDetector(cfg.Recognition.CascadeFile)
	if err != nil {
		logr.Sugar().Fatalw("load face cascade", "error", err)
	}
	defer detector.Close()
	extractor := vision.NewExtractor(detector)

	// Repositories.
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	studentSvc := service.NewStudentService(studentRepo, dataset, logr)
	enrollmentSvc := service.NewEnrollmentService(dataset, extractor, studentRepo, logr)
	ledgerSvc := service.NewLedgerService(attendanceRepo, studentRepo, logr)
	trainingSvc := service.NewTrainingService(dataset, extractor, store, studentRepo, cfg.Recognition.Neighbors, logr)
	recognitionSvc := service.NewRecognitionService(extractor, store, ledgerSvc, studentRepo, cfg.Recognition.ConfidenceThreshold, logr)
	statsSvc := service.NewStatsService(attendanceRepo, studentRepo, redisClient, cfg.Stats.CacheTTL, logr)
	exportSvc := service.NewExportService(attendanceRepo, logr)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var notificationSvc *service.NotificationService
	if cfg.SMTP.Username != "" {
		notificationSvc = service.NewNotificationService(mailer.NewSMTPMailer(cfg.SMTP), studentRepo, attendanceRepo, logr)
		notificationSvc.Start(rootCtx)
		defer notificationSvc.Stop()
	}

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	trainingHandler := handler.NewTrainingHandler(trainingSvc, metricsSvc, logr)
	trainingHandler.Start(rootCtx)
	defer trainingHandler.Stop()
	recognitionHandler := handler.NewRecognitionHandler(recognitionSvc, notificationSvc, metricsSvc)
	attendanceHandler := handler.NewAttendanceHandler(ledgerSvc, statsSvc, notificationSvc, metricsSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	healthHandler := handler.NewHealthHandler(db, redisClient, store)

	sampler := startLiveSampler(rootCtx, cfg, recognitionSvc, ledgerSvc, studentRepo, metricsSvc, logr)
	streamHandler := handler.NewStreamHandler(sampler)

	if cfg.Cleanup.Enabled {
		scheduler := gocron.NewScheduler(time.UTC)
		_, err := scheduler.Every(1).Day().At(cfg.Cleanup.At).Do(func() {
			if _, err := ledgerSvc.CleanupDuplicates(context.Background()); err != nil {
				logr.Sugar().Errorw("scheduled cleanup failed", "error", err)
			}
		})
		if err != nil {
			logr.Sugar().Fatalw("schedule cleanup job", "error", err)
		}
		scheduler.StartAsync()
		defer scheduler.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appMiddleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Live)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}

		protected := api.Group("")
		protected.Use(appMiddleware.JWT(authSvc))
		{
			protected.POST("/auth/register",
				appMiddleware.RequireRole("admin"), authHandler.Register)

			protected.GET("/students", studentHandler.List)
			protected.POST("/students", studentHandler.Create)
			protected.GET("/students/:id", studentHandler.Get)
			protected.PUT("/students/:id", studentHandler.Update)
			protected.DELETE("/students/:id", studentHandler.Delete)
			protected.POST("/students/:id/faces", enrollmentHandler.Upload)
			protected.GET("/students/:id/faces", enrollmentHandler.Count)
			protected.DELETE("/students/:id/faces", enrollmentHandler.Clear)

			protected.POST("/training/runs", trainingHandler.Trigger)
			protected.GET("/training/status", trainingHandler.Status)

			protected.POST("/recognition", recognitionHandler.Recognize)

			protected.GET("/attendance", attendanceHandler.List)
			protected.POST("/attendance", attendanceHandler.Mark)
			protected.GET("/attendance/day", attendanceHandler.Day)
			protected.GET("/attendance/day/export", exportHandler.DayRoster)
			protected.GET("/attendance/stats", attendanceHandler.Stats)
			protected.POST("/attendance/cleanup",
				appMiddleware.RequireRole("admin"), attendanceHandler.Cleanup)
			protected.GET("/attendance/export", exportHandler.Attendance)

			protected.POST("/notifications/attendance", notificationHandler.Send)

			protected.GET("/live/stream", streamHandler.Feed)
			protected.GET("/live/status", streamHandler.Status)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown", "error", err)
	}
}

// startLiveSampler brings up the camera pipeline when enabled. Failures
// are logged and leave the feature off rather than killing the server.
func startLiveSampler(
	ctx context.Context,
	cfg *config.Config,
	recognition *service.RecognitionService,
	ledger *service.LedgerService,
	students *repository.StudentRepository,
	metrics *service.MetricsService,
	logr *zap.Logger,
) *stream.Sampler {
	if !cfg.Live.Enabled {
		return nil
	}

	camera, err := stream.OpenCamera(cfg.Live.DeviceID, cfg.Live.FrameWidth, cfg.Live.FrameHeight)
	if err != nil {
		logr.Sugar().Errorw("open camera, live stream disabled", "error", err)
		return nil
	}

	var detector vision.Detector
	if _, statErr := os.Stat(cfg.Live.DNNModelFile); statErr == nil {
		detector, err = vision.NewLongRangeDetector(cfg.Live.DNNModelFile, cfg.Live.DNNConfigFile)
	} else {
		detector, err = vision.NewCascadeDetector(cfg.Recognition.CascadeFile)
	}
	if err != nil {
		logr.Sugar().Errorw("load live detector, live stream disabled", "error", err)
		camera.Close()
		return nil
	}

	overlay, err := stream.NewOverlay(cfg.Live.FontFile)
	if err != nil {
		logr.Sugar().Errorw("load overlay font, live stream disabled", "error", err)
		camera.Close()
		detector.Close()
		return nil
	}

	sampler := stream.NewSampler(
		camera, detector, recognition, ledger, students,
		stream.NewDedupeCache(5*time.Minute, 5*time.Second), overlay, metrics,
		stream.SamplerConfig{
			DetectionInterval: cfg.Live.DetectionInterval,
			JPEGQuality:       cfg.Live.JPEGQuality,
		},
		logr,
	)

	go func() {
		defer camera.Close()
		defer detector.Close()
		if err := sampler.Run(ctx); err != nil && ctx.Err() == nil {
			logr.Sugar().Errorw("live sampler stopped", "error", err)
		}
	}()
	return sampler
}
