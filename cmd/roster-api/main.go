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

	_ "github.com/noah-isme/school-roster/api/swagger"
	"github.com/noah-isme/school-roster/internal/bootstrap"
	"github.com/noah-isme/school-roster/internal/handler"
	"github.com/noah-isme/school-roster/internal/middleware"
	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/internal/repository"
	"github.com/noah-isme/school-roster/internal/service"
	"github.com/noah-isme/school-roster/pkg/cache"
	"github.com/noah-isme/school-roster/pkg/config"
	"github.com/noah-isme/school-roster/pkg/jobs"
	"github.com/noah-isme/school-roster/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-roster/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-roster/pkg/middleware/requestid"
	"github.com/noah-isme/school-roster/pkg/storage"
)

// @title School Roster API
// @version 1.0.0
// @description Students, courses, classrooms, schedules and attendance of a single school
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()

	roster, closeBackend, err := bootstrap.OpenRoster(ctx, cfg, metrics, logr)
	if roster == nil {
		logr.Fatal("failed to open roster store", zap.Error(err))
	}
	if err != nil {
		logr.Warn("roster store loaded partially", zap.Error(err))
	}
	defer closeBackend() //nolint:errcheck

	var calendarCache *service.CacheService
	if cfg.Calendar.CacheEnabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			calendarCache = service.NewCacheService(repository.NewCacheRepository(client, logr), metrics, cfg.Calendar.CacheTTL, logr, true)
		}
	}

	exports, err := storage.NewLocalStorage(cfg.Exports.Dir)
	if err != nil {
		logr.Fatal("failed to open exports dir", zap.Error(err))
	}

	calendar := service.NewCalendarService(roster, calendarCache, exports, cfg.Calendar.CacheTTL, logr)
	supply := service.NewSupplyService(roster, exports, logr)
	auth := service.NewAuthService(models.AdminUser{
		Person: models.Person{
			Name:        cfg.Admin.Name,
			LastName:    cfg.Admin.LastName,
			DateOfBirth: cfg.Admin.DateOfBirth,
		},
		Username:     cfg.Admin.Username,
		PasswordHash: cfg.Admin.PasswordHash,
	}, validator.New(), logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	if cfg.Admin.PasswordHash == "" {
		logr.Warn("ADMIN_PASSWORD_HASH is empty, mutations cannot be authorised")
	}

	var autosave *service.AutosaveService
	if cfg.Store.Autosave {
		retries := cfg.Store.AutosaveRetries
		if retries <= 0 {
			retries = jobs.NoRetry
		}
		autosave = service.NewAutosaveService(roster, jobs.QueueConfig{
			Workers:    cfg.Store.AutosaveWorkers,
			MaxRetries: retries,
		}, metrics, logr)
		autosave.Start(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(auth),
		Roster:     handler.NewRosterHandler(roster, supply),
		Attendance: handler.NewAttendanceHandler(roster),
		Calendar:   handler.NewCalendarHandler(calendar),
		Store:      handler.NewStoreHandler(roster, logr),
		Metrics:    handler.NewMetricsHandler(metrics, roster),
	}, middleware.JWT(auth))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "backend", roster.Backend())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("server forced shutdown", zap.Error(err))
	}
	if autosave != nil {
		autosave.Stop()
	}
	if err := roster.Save(shutdownCtx); err != nil {
		logr.Error("final roster save failed", zap.Error(err))
	}
}
