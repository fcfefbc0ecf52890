package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/dto"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
)

type galleryAssignmentReader interface {
	FindCourseModule(ctx context.Context, id int64) (*models.CourseModule, error)
	FindModuleContextID(ctx context.Context, courseModuleID int64) (int64, error)
}

type gallerySubmissionReader interface {
	FindByAssignmentAndUser(ctx context.Context, assignmentID, userID int64) (*models.Submission, error)
}

type galleryFileStore interface {
	ListArea(ctx context.Context, area models.FileArea) ([]models.StoredFile, error)
	DeleteInArea(ctx context.Context, area models.FileArea, ids []int64) ([]models.StoredFile, error)
}

type fileURLSigner interface {
	Generate(fileID int64, contentHash string) (string, time.Time, error)
}

type galleryCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type purgeScheduler interface {
	Submit(jobType string, payload interface{}) (string, error)
}

// GalleryServiceConfig configures gallery links and caching.
type GalleryServiceConfig struct {
	APIPrefix string
	CacheTTL  time.Duration
}

// GalleryService lists and deletes the caller's own submitted images.
type GalleryService struct {
	assignments galleryAssignmentReader
	submissions gallerySubmissionReader
	files       galleryFileStore
	signer      fileURLSigner
	cache       galleryCache
	purge       purgeScheduler
	logger      *zap.Logger
	cfg         GalleryServiceConfig
}

// NewGalleryService constructs the service. cache and purge may be nil.
func NewGalleryService(assignments galleryAssignmentReader, submissions gallerySubmissionReader, files galleryFileStore, signer fileURLSigner, cache galleryCache, purge purgeScheduler, logger *zap.Logger, cfg GalleryServiceConfig) *GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &GalleryService{
		assignments: assignments,
		submissions: submissions,
		files:       files,
		signer:      signer,
		cache:       cache,
		purge:       purge,
		logger:      logger,
		cfg:         cfg,
	}
}

// GalleryCacheKey is the cache key of one user's gallery listing.
func GalleryCacheKey(courseModuleID, userID int64) string {
	return fmt.Sprintf("gallery:%d:%d", courseModuleID, userID)
}

// List returns the caller's images for a course module. Nothing is listed
// until the submission has been submitted.
func (s *GalleryService) List(ctx context.Context, courseModuleID int64, actor *models.JWTClaims) (*dto.GalleryResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	key := GalleryCacheKey(courseModuleID, actor.UserID)
	if s.cache != nil {
		var cached dto.GalleryResponse
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	resp := &dto.GalleryResponse{CourseModuleID: courseModuleID, Items: []dto.GalleryItem{}}
	area, submission, err := s.submissionArea(ctx, courseModuleID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return resp, nil
	}
	resp.SubmissionID = submission.ID
	resp.Status = submission.Status
	if !submission.Submitted() {
		return resp, nil
	}

	files, err := s.files.ListArea(ctx, area)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submission files")
	}
	for _, file := range files {
		if !file.IsImage() {
			continue
		}
		token, expiresAt, err := s.signer.Generate(file.ID, file.ContentHash)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign file url")
		}
		resp.Items = append(resp.Items, dto.GalleryItem{
			FileID:    file.ID,
			FileName:  file.FileName,
			MimeType:  file.ContentType(),
			FileSize:  file.FileSize,
			URL:       fmt.Sprintf("%s/files/%d/content?token=%s", s.cfg.APIPrefix, file.ID, url.QueryEscape(token)),
			ExpiresAt: expiresAt,
		})
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	}
	return resp, nil
}

// Delete removes the listed files from the caller's submission. Ids outside
// that submission are reported as ignored, so repeating a request is harmless.
func (s *GalleryService) Delete(ctx context.Context, courseModuleID int64, fileIDs []int64, actor *models.JWTClaims) (*dto.DeleteGalleryResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	requested := uniqueIDs(fileIDs)
	if len(requested) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no files selected")
	}

	resp := &dto.DeleteGalleryResponse{Deleted: []int64{}, Ignored: []int64{}}
	area, submission, err := s.submissionArea(ctx, courseModuleID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		resp.Ignored = requested
		return resp, nil
	}

	removed, err := s.files.DeleteInArea(ctx, area, requested)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete files")
	}
	deleted := make(map[int64]struct{}, len(removed))
	hashes := make([]string, 0, len(removed))
	seenHash := make(map[string]struct{}, len(removed))
	for _, file := range removed {
		deleted[file.ID] = struct{}{}
		if _, ok := seenHash[file.ContentHash]; !ok && file.ContentHash != "" {
			seenHash[file.ContentHash] = struct{}{}
			hashes = append(hashes, file.ContentHash)
		}
	}
	for _, id := range requested {
		if _, ok := deleted[id]; ok {
			resp.Deleted = append(resp.Deleted, id)
		} else {
			resp.Ignored = append(resp.Ignored, id)
		}
	}

	if len(removed) > 0 && s.cache != nil {
		_ = s.cache.Invalidate(ctx, GalleryCacheKey(courseModuleID, actor.UserID))
	}
	s.schedulePurge(hashes)
	s.logger.Info("gallery files deleted",
		zap.Int64("course_module_id", courseModuleID),
		zap.Int64("user_id", actor.UserID),
		zap.Int64s("deleted", resp.Deleted),
		zap.Int("ignored", len(resp.Ignored)))
	return resp, nil
}

func (s *GalleryService) schedulePurge(hashes []string) {
	if s.purge == nil {
		return
	}
	for _, hash := range hashes {
		if _, err := s.purge.Submit(BlobPurgeJobType, hash); err != nil {
			s.logger.Warn("failed to schedule blob purge", zap.String("contenthash", hash), zap.Error(err))
		}
	}
}

// submissionArea resolves the caller's submission file area. A nil submission
// means the caller has not submitted anything for the module.
func (s *GalleryService) submissionArea(ctx context.Context, courseModuleID, userID int64) (models.FileArea, *models.Submission, error) {
	cm, err := s.assignments.FindCourseModule(ctx, courseModuleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileArea{}, nil, appErrors.Clone(appErrors.ErrNotFound, "course module not found")
		}
		return models.FileArea{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course module")
	}
	if cm.ModuleName != models.ModuleAssign {
		return models.FileArea{}, nil, appErrors.Clone(appErrors.ErrNotFound, "course module not found")
	}
	contextID, err := s.assignments.FindModuleContextID(ctx, cm.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileArea{}, nil, appErrors.Clone(appErrors.ErrNotFound, "course module not found")
		}
		return models.FileArea{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module context")
	}
	submission, err := s.submissions.FindByAssignmentAndUser(ctx, cm.InstanceID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FileArea{}, nil, nil
		}
		return models.FileArea{}, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	return models.SubmissionArea(contextID, submission.ID), submission, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
