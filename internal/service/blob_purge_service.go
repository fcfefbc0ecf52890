package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/jobs"
)

// BlobPurgeJobType labels jobs that remove unreferenced blobs.
const BlobPurgeJobType = "blob_purge"

type blobReferenceCounter interface {
	CountByContentHash(ctx context.Context, hash string) (int, error)
}

// BlobDeleter removes stored bytes by content hash.
type BlobDeleter interface {
	Delete(ctx context.Context, hash string) error
}

// BlobPurgeService deletes blobs that no file row references any more.
type BlobPurgeService struct {
	files  blobReferenceCounter
	blobs  BlobDeleter
	logger *zap.Logger
}

// NewBlobPurgeService constructs the purge handler.
func NewBlobPurgeService(files blobReferenceCounter, blobs BlobDeleter, logger *zap.Logger) *BlobPurgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobPurgeService{files: files, blobs: blobs, logger: logger}
}

// Handle is a jobs.Handler. The payload is the content hash to check.
func (s *BlobPurgeService) Handle(ctx context.Context, job jobs.Job) error {
	hash, ok := job.Payload.(string)
	if !ok || hash == "" {
		s.logger.Warn("discarding purge job without hash", zap.String("job_id", job.ID))
		return nil
	}
	refs, err := s.files.CountByContentHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("count references for %s: %w", hash, err)
	}
	if refs > 0 {
		s.logger.Debug("blob still referenced", zap.String("contenthash", hash), zap.Int("references", refs))
		return nil
	}
	if err := s.blobs.Delete(ctx, hash); err != nil {
		return fmt.Errorf("delete blob %s: %w", hash, err)
	}
	s.logger.Info("blob purged", zap.String("contenthash", hash))
	return nil
}
