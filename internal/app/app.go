// Package app assembles stores, repositories and services shared by the
// HTTP gateway and the export CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/repository"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/service"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/cache"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/config"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/database"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/export"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/jobs"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/storage"
)

// stagingTTL bounds how long an abandoned archive may linger on disk.
const stagingTTL = 24 * time.Hour

// BlobStore is the content-addressed file store behind both drivers.
type BlobStore interface {
	Open(ctx context.Context, hash string) (io.ReadCloser, error)
	Delete(ctx context.Context, hash string) error
}

// App holds the wired dependencies.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	DB      *sqlx.DB
	Redis   *redis.Client
	Blobs   BlobStore
	Staging *storage.Staging
	Metrics *service.MetricsService
	Purge   *jobs.Queue

	Auth    *service.AuthService
	Exports *service.ExportService
	Gallery *service.GalleryService
	Files   *service.FileService
}

// New connects to the configured stores and builds every service.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{Config: cfg, Logger: logger, Metrics: service.NewMetricsService()}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.DB = db

	if cfg.Gallery.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, gallery cache disabled", zap.Error(err))
		} else {
			a.Redis = client
		}
	}

	blobs, err := newBlobStore(ctx, cfg.Blob)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Blobs = blobs

	staging, err := storage.NewStaging(cfg.Export.TempDir)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Staging = staging
	if removed, err := staging.CleanupOlderThan(service.ArchivePrefix, stagingTTL); err != nil {
		logger.Warn("staging cleanup failed", zap.Error(err))
	} else if len(removed) > 0 {
		logger.Info("removed stale export archives", zap.Int("count", len(removed)))
	}

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	files := repository.NewFileRepository(db)

	resolver := service.NewSelectionResolver(users, courses, assignments, submissions, logger)
	collector := service.NewAssetCollector(files, blobs, service.AssetCollectorConfig{
		Workers:                cfg.Export.Workers,
		DisambiguateCollisions: cfg.Export.DisambiguateCollisions,
	}, logger)
	builder := service.NewArchiveBuilder(staging, service.ArchiveBuilderConfig{
		CompressionLevel: cfg.Export.CompressionLevel,
		Prefetch:         cfg.Export.Prefetch,
		Manifest:         export.NewRenderer(cfg.Export.Manifest),
	}, logger)
	a.Exports = service.NewExportService(resolver, collector, builder, a.Metrics, logger, service.ExportServiceConfig{
		Timeout: cfg.Export.Timeout,
	})

	purger := service.NewBlobPurgeService(files, blobs, logger)
	a.Purge = jobs.NewQueue("blob-purge", purger.Handle, jobs.QueueConfig{
		Workers:    cfg.Purge.Workers,
		MaxRetries: cfg.Purge.Retries,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})

	var cacheRepo service.CacheRepository
	if a.Redis != nil {
		cacheRepo = repository.NewCacheRepository(a.Redis, logger)
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.Metrics, cfg.Gallery.CacheTTL, logger, cfg.Gallery.CacheEnabled)

	signer := storage.NewFileTokenSigner(cfg.Files.SignedURLSecret, cfg.Files.SignedURLTTL)
	a.Gallery = service.NewGalleryService(assignments, submissions, files, signer, cacheSvc, a.Purge, logger, service.GalleryServiceConfig{
		APIPrefix: cfg.APIPrefix,
		CacheTTL:  cfg.Gallery.CacheTTL,
	})
	a.Files = service.NewFileService(files, blobs, signer)
	a.Auth = service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
	})

	return a, nil
}

// Close releases connections and stops the purge queue.
func (a *App) Close() {
	if a.Purge != nil {
		a.Purge.Stop()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("close redis", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Warn("close postgres", zap.Error(err))
		}
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig) (BlobStore, error) {
	switch cfg.Driver {
	case config.BlobDriverMinio:
		store, err := storage.NewMinioBlobStore(cfg)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case config.BlobDriverLocal, "":
		store, err := storage.NewFileDir(cfg.LocalDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
