package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/lms-grade-api/api/swagger"
	"github.com/noah-isme/lms-grade-api/internal/handler"
	"github.com/noah-isme/lms-grade-api/internal/middleware"
	"github.com/noah-isme/lms-grade-api/internal/repository"
	"github.com/noah-isme/lms-grade-api/internal/service"
	"github.com/noah-isme/lms-grade-api/pkg/cache"
	"github.com/noah-isme/lms-grade-api/pkg/config"
	"github.com/noah-isme/lms-grade-api/pkg/database"
	"github.com/noah-isme/lms-grade-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/lms-grade-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/lms-grade-api/pkg/middleware/requestid"
)

// @title LMS Grade API
// @version 1.0.0
// @description Grade aggregation engine for the learning-management backend
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	categoryRepo := repository.NewCategoryRepository(db)
	itemRepo := repository.NewItemRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	termRepo := repository.NewTermRepository(db)
	scaleRepo := repository.NewScaleRepository(db)
	rollupRepo := repository.NewRollupRepository(db)

	var cacheSvc *service.CacheService
	if cfg.Reports.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Reports.CacheTTL, logr, true)
		}
	}

	rollupSvc := service.NewRollupService(itemRepo, recordRepo, categoryRepo, scaleRepo, termRepo, rollupRepo, metricsSvc, validate, logr, cfg.Engine.ApplyRetries)
	reportSvc := service.NewReportService(recordRepo, categoryRepo, scaleRepo, cacheSvc, metricsSvc, validate, logr, cfg.Reports.PageSize, cfg.Reports.MaxPageSize)
	categorySvc := service.NewCategoryService(categoryRepo, validate, logr)
	scaleSvc := service.NewScaleService(scaleRepo, validate, logr)

	rollupHandler := handler.NewRollupHandler(rollupSvc, logr)
	reportHandler := handler.NewReportHandler(reportSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	scaleHandler := handler.NewScaleHandler(scaleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/grade-events", rollupHandler.ApplyGrade)
		api.GET("/students/:studentId/courses/:courseId/rollup", rollupHandler.Get)
		api.POST("/students/:studentId/courses/:courseId/rollup/prune", rollupHandler.Prune)

		api.GET("/reports/gradebook", reportHandler.Gradebook)
		api.GET("/reports/gradebook/export", reportHandler.Export)
		api.GET("/reports/students/:studentId/courses/:courseId", reportHandler.StudentCourse)

		api.GET("/courses/:courseId/categories", categoryHandler.List)
		api.POST("/courses/:courseId/categories", categoryHandler.Create)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Delete)

		api.GET("/scales/grade", scaleHandler.GetGradeScale)
		api.PUT("/scales/grade", scaleHandler.PutGradeScale)
		api.GET("/scales/gpa", scaleHandler.GetGPAScale)
		api.PUT("/scales/gpa", scaleHandler.PutGPAScale)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
