package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/upeu-dev/vinculacion-api/api/swagger"
	"github.com/upeu-dev/vinculacion-api/internal/handler"
	"github.com/upeu-dev/vinculacion-api/internal/middleware"
	"github.com/upeu-dev/vinculacion-api/internal/repository"
	"github.com/upeu-dev/vinculacion-api/internal/service"
	"github.com/upeu-dev/vinculacion-api/pkg/cache"
	"github.com/upeu-dev/vinculacion-api/pkg/config"
	"github.com/upeu-dev/vinculacion-api/pkg/database"
	"github.com/upeu-dev/vinculacion-api/pkg/logger"
	corsmiddleware "github.com/upeu-dev/vinculacion-api/pkg/middleware/cors"
	reqidmiddleware "github.com/upeu-dev/vinculacion-api/pkg/middleware/requestid"
)

// @title Vinculación API
// @version 1.0.0
// @description Enrollment and attendance engine for university extension projects
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	var lookupCache *repository.LookupCache
	if cfg.Lookups.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("redis connection failed", "error", err)
		}
		defer redisClient.Close()
		lookupCache = repository.NewLookupCache(redisClient)
	}

	catalogRepo := repository.NewCatalogRepository(db)
	recordRepo := repository.NewStudentRecordRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	processRepo := repository.NewProcessRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	tokenRepo := repository.NewCheckInTokenRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)

	metricsSvc := service.NewMetricsService()
	eligibilitySvc := service.NewEligibilityService(participationRepo, catalogRepo, logr)
	projectSvc := service.NewProjectService(projectRepo, processRepo, sessionRepo, catalogRepo, recordRepo, participationRepo, cfg.Attendance.MaxLevel, logr)
	enrollmentSvc := service.NewEnrollmentService(participationRepo, recordRepo, projectRepo, eligibilitySvc, logr)
	processSvc := service.NewProcessService(processRepo, projectRepo, logr)
	sessionSvc := service.NewSessionService(sessionRepo, processRepo, projectRepo, catalogRepo, logr)
	checkInSvc := service.NewCheckInService(
		tokenRepo, attendanceRepo, sessionRepo, processRepo, projectRepo, recordRepo, participationRepo,
		cfg.Attendance.WindowGraceBefore, cfg.Attendance.WindowGraceAfter, cfg.Attendance.QRDefaultMaxUses, logr,
	)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, ledgerRepo, sessionRepo, processRepo, projectRepo, recordRepo, participationRepo, logr)

	var lookupStore service.LookupCacheStore
	if lookupCache != nil {
		lookupStore = lookupCache
	}
	lookupSvc := service.NewLookupService(catalogRepo, lookupStore, metricsSvc, cfg.Lookups.CacheEnabled, cfg.Lookups.CacheTTL, logr)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r, cfg.APIPrefix, cfg.JWT, handler.Handlers{
		Projects:    handler.NewProjectHandler(projectSvc),
		Enrollments: handler.NewEnrollmentHandler(enrollmentSvc, metricsSvc),
		Processes:   handler.NewProcessHandler(processSvc),
		Sessions:    handler.NewSessionHandler(sessionSvc),
		CheckIns:    handler.NewCheckInHandler(checkInSvc, metricsSvc),
		Attendances: handler.NewAttendanceHandler(attendanceSvc),
		Lookups:     handler.NewLookupHandler(lookupSvc),
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
