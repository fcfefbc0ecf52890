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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Paperlinksoftwares/thumbnail-view-submission/api/swagger"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/app"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/handler"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/middleware"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/config"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/logger"
	corsmiddleware "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/middleware/cors"
	reqidmiddleware "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/middleware/requestid"
)

// @title Submission Image Export API
// @version 1.0.0
// @description Packages assignment submission images into ZIP downloads and serves submission galleries.
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to init dependencies", zap.Error(err))
	}
	defer deps.Close()
	deps.Purge.Start(ctx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.Metrics))

	registerRoutes(r, cfg, deps)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func registerRoutes(r *gin.Engine, cfg *config.Config, deps *app.App) {
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, deps.DB)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	exportHandler := handler.NewExportHandler(deps.Exports, handler.ExportReturnURLs{
		Student: cfg.Export.StudentReturnURL,
		Course:  cfg.Export.CourseReturnURL,
	})
	galleryHandler := handler.NewGalleryHandler(deps.Gallery)
	fileHandler := handler.NewFileHandler(deps.Files)

	api := r.Group(cfg.APIPrefix)
	api.GET("/files/:id/content", fileHandler.Content)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Auth))

	exports := secured.Group("/exports")
	exports.GET("/students/:studentId/images",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin),
		exportHandler.ExportStudent)
	exports.GET("/course-modules/:cmid/images",
		middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher),
		exportHandler.ExportCourse)

	secured.GET("/course-modules/:cmid/gallery", galleryHandler.List)
	secured.POST("/course-modules/:cmid/gallery/delete", galleryHandler.Delete)
}
