package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/handler"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/middleware"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/repository"
	"github.com/toletmelearn/PNS-Dhampur-sub001/internal/service"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/cache"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/config"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/database"
	"github.com/toletmelearn/PNS-Dhampur-sub001/pkg/logger"
	corsmiddleware "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/toletmelearn/PNS-Dhampur-sub001/pkg/middleware/requestid"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// Redis is optional: without it the dashboard reads straight from
	// postgres on every call.
	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)
	}

	availabilityRepo := repository.NewAvailabilityRepository(db)
	substitutionRepo := repository.NewSubstitutionRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	notificationSvc := service.NewNotificationService(&service.LogSender{Logger: logr}, cfg.Notifications, logr)
	notificationSvc.Start(ctx)
	defer notificationSvc.Stop()

	availabilitySvc := service.NewAvailabilityService(availabilityRepo, substitutionRepo, teacherRepo, cfg.Engine.DefaultDailyCap, validate, logr)
	conflictSvc := service.NewConflictService(substitutionRepo, availabilityRepo, nil, logr)
	candidateSvc := service.NewCandidateService(availabilitySvc, conflictSvc, substitutionRepo, cfg.Engine.ReliabilityWindowMonths, logr)
	substitutionSvc := service.NewSubstitutionService(substitutionRepo, candidateSvc, conflictSvc, teacherRepo, availabilityRepo, notificationSvc, metricsSvc, cfg.Engine, validate, logr)
	dashboardSvc := service.NewDashboardService(substitutionRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	{
		availabilities := api.Group("/availabilities")
		{
			availabilities.POST("", availabilityHandler.Declare)
			availabilities.POST("/bulk", availabilityHandler.BulkDeclare)
			availabilities.GET("", availabilityHandler.Query)
			availabilities.GET("/teacher/:teacherId", availabilityHandler.ListByTeacher)
			availabilities.PUT("/:id", availabilityHandler.Update)
			availabilities.DELETE("/:id", availabilityHandler.Delete)
		}

		substitutions := api.Group("/substitutions")
		{
			substitutions.POST("", substitutionHandler.Create)
			substitutions.GET("", substitutionHandler.List)
			substitutions.POST("/auto-assign", substitutionHandler.AutoAssign)
			substitutions.GET("/available-teachers", substitutionHandler.AvailableTeachers)
			substitutions.GET("/:id", substitutionHandler.Get)
			substitutions.POST("/:id/assign", substitutionHandler.Assign)
			substitutions.POST("/:id/confirm", substitutionHandler.Confirm)
			substitutions.POST("/:id/decline", substitutionHandler.Decline)
			substitutions.POST("/:id/complete", substitutionHandler.Complete)
			substitutions.POST("/:id/cancel", substitutionHandler.Cancel)
			substitutions.POST("/:id/escalate", substitutionHandler.Escalate)
		}

		api.GET("/dashboard/substitutions", dashboardHandler.SubstitutionStats)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
