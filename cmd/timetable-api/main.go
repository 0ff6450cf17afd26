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

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable-api/api/swagger"
	"github.com/noah-isme/sma-timetable-api/internal/handler"
	"github.com/noah-isme/sma-timetable-api/internal/repository"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/cache"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
	"github.com/noah-isme/sma-timetable-api/pkg/database"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
	"github.com/noah-isme/sma-timetable-api/pkg/lock"
	"github.com/noah-isme/sma-timetable-api/pkg/logger"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Timing configuration, class timetables and extra sessions with teacher conflict detection
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 10 * time.Second

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	app := buildApp(cfg, db, redisClient, logr)
	router := newRouter(cfg, app, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "redis", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	metrics  *service.MetricsService
	timing   *handler.TimingHandler
	table    *handler.TimetableHandler
	sessions *handler.ExtraSessionHandler
	ops      *handler.MetricsHandler
}

func buildApp(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) *application {
	metrics := service.NewMetricsService()

	var locker lock.Locker = lock.NewLocalLocker()
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient)
	}
	cacheEnabled := cfg.Timetable.CacheEnabled && redisClient != nil
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, "timetable", logr),
		metrics,
		cfg.Timetable.CacheTTL,
		logr,
		cacheEnabled,
	)

	deps := service.TimetableDeps{
		Years:     repository.NewAcademicYearRepository(db),
		Classes:   repository.NewClassSectionRepository(db),
		Configs:   repository.NewTimingConfigRepository(db),
		Slots:     repository.NewTimeSlotRepository(db),
		Entries:   repository.NewTimetableEntryRepository(db),
		Sessions:  repository.NewExtraSessionRepository(db),
		Directory: repository.NewDirectoryRepository(db),
		Tx:        db,
		Locker:    locker,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validator.New(),
		Logger:    logr,
		Settings: service.TimetableSettings{
			StrictBreaks: cfg.Timetable.StrictBreaks,
			LockTTL:      cfg.Timetable.LockTTL,
			CacheTTL:     cfg.Timetable.CacheTTL,
		},
	}

	timetableSvc := service.NewTimetableService(deps)
	tableHandler := handler.NewTimetableHandler(timetableSvc, nil)
	if cfg.Timetable.ExportEnabled {
		exportSvc := service.NewExportService(deps, export.NewCSVExporter(), export.NewPDFExporter())
		tableHandler = handler.NewTimetableHandler(timetableSvc, exportSvc)
	}

	checks := []handler.ReadinessCheck{{Name: "postgres", Check: db.PingContext}}
	if redisClient != nil {
		checks = append(checks, handler.ReadinessCheck{Name: "redis", Check: cache.Ping(redisClient)})
	}

	return &application{
		metrics:  metrics,
		timing:   handler.NewTimingHandler(service.NewTimingService(deps)),
		table:    tableHandler,
		sessions: handler.NewExtraSessionHandler(service.NewExtraSessionService(deps)),
		ops:      handler.NewMetricsHandler(metrics, checks...),
	}
}
