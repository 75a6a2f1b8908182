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

	_ "github.com/noah-isme/training-admin-api/api/swagger"
	"github.com/noah-isme/training-admin-api/internal/handler"
	"github.com/noah-isme/training-admin-api/internal/middleware"
	"github.com/noah-isme/training-admin-api/internal/models"
	"github.com/noah-isme/training-admin-api/internal/repository"
	"github.com/noah-isme/training-admin-api/internal/service"
	"github.com/noah-isme/training-admin-api/pkg/cache"
	"github.com/noah-isme/training-admin-api/pkg/config"
	"github.com/noah-isme/training-admin-api/pkg/database"
	"github.com/noah-isme/training-admin-api/pkg/jobs"
	"github.com/noah-isme/training-admin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/training-admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/training-admin-api/pkg/middleware/requestid"
	"github.com/noah-isme/training-admin-api/pkg/storage"
)

// @title Training Admin API
// @version 1.0.0
// @description Corporate training administration service
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
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, quota cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	employeeRepo := repository.NewEmployeeRepository(db)
	eventRepo := repository.NewEventRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	changeRequestRepo := repository.NewChangeRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)

	metricsSvc := service.NewMetricsService()
	authDirectory := struct {
		*repository.EmployeeRepository
		*repository.AuditRepository
	}{employeeRepo, auditRepo}
	authSvc := service.NewAuthService(authDirectory, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	targetPoolSvc := service.NewTargetPoolService(employeeRepo, poolRepo, eventRepo, auditRepo, logr)

	var quotaSvc *service.QuotaService
	if redisClient != nil {
		quotaCache := repository.NewCacheRepository(redisClient, logr)
		quotaSvc = service.NewQuotaService(quotaRepo, eventRepo, quotaCache, cfg.Quotas.CacheTTL, auditRepo, logr)
	} else {
		quotaSvc = service.NewQuotaService(quotaRepo, eventRepo, nil, cfg.Quotas.CacheTTL, auditRepo, logr)
	}
	quotaSvc.WithMetrics(metricsSvc)
	lifecycleSvc := service.NewLifecycleService(poolRepo, eventRepo, quotaSvc, auditRepo, logr).WithMetrics(metricsSvc)
	changeRequestSvc := service.NewChangeRequestService(changeRequestRepo, assignmentRepo, eventRepo, auditRepo, logr).WithMetrics(metricsSvc)
	eventSvc := service.NewEventService(eventRepo, targetPoolSvc, auditRepo, logr)
	importSvc := service.NewImportService(quotaRepo, eventRepo, employeeRepo, auditRepo, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportSvc *service.RosterExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("export storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exporter := service.NewRosterExporter(eventRepo, assignmentRepo, files, signer, cfg.APIPrefix, logr)
		worker := service.NewExportWorker(exportJobRepo, exporter, cfg.Exports.WorkerRetries, logr).WithMetrics(metricsSvc)
		queue := jobs.NewQueue("roster-export", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		exportSvc = service.NewRosterExportService(exportJobRepo, eventRepo, queue, exporter, auditRepo, logr)
		exportSvc.RecoverPendingJobs(ctx)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	eventHandler := handler.NewEventHandler(eventSvc)
	poolHandler := handler.NewPoolHandler(targetPoolSvc, lifecycleSvc)
	quotaHandler := handler.NewQuotaHandler(quotaSvc, importSvc)
	changeRequestHandler := handler.NewChangeRequestHandler(changeRequestSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)

	staff := authed.Group("")
	staff.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleCoordinator))
	staff.GET("/events", eventHandler.List)
	staff.GET("/events/:id", eventHandler.Get)
	staff.GET("/events/:id/pool", poolHandler.List)
	staff.POST("/pool/:id/exclude", poolHandler.Exclude)
	staff.POST("/pool/:id/unexclude", poolHandler.Unexclude)
	staff.POST("/pool/:id/assign", poolHandler.Assign)
	staff.GET("/date-options/:id/quotas", quotaHandler.Status)
	staff.POST("/change-requests", changeRequestHandler.Submit)
	staff.GET("/change-requests", changeRequestHandler.List)
	staff.GET("/change-requests/:id", changeRequestHandler.Get)

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/events", eventHandler.Create)
	admin.POST("/events/:id/pool/resolve", poolHandler.Resolve)
	admin.POST("/pool/confirm", poolHandler.Confirm)
	admin.POST("/date-options/:id/quotas", quotaHandler.Add)
	admin.POST("/date-options/:id/quotas/import", quotaHandler.Import)
	admin.POST("/targets/resolve", quotaHandler.ResolveTargets)
	admin.POST("/change-requests/:id/approve", changeRequestHandler.Approve)
	admin.POST("/change-requests/:id/reject", changeRequestHandler.Reject)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		staff.POST("/events/:id/roster-export", exportHandler.Request)
		staff.GET("/roster-exports/:id", exportHandler.Status)
		api.GET("/roster-exports/download/:token", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}
