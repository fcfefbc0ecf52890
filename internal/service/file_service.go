package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"time"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/internal/models"
	appErrors "github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/errors"
	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/storage"
)

type fileRecordReader interface {
	FindByID(ctx context.Context, id int64) (*models.StoredFile, error)
}

type fileTokenParser interface {
	Parse(token string, contentHash string) (int64, time.Time, error)
}

// FileContent is an opened stored file ready for streaming.
type FileContent struct {
	Reader   io.ReadCloser
	FileName string
	MimeType string
	Size     int64
}

// FileService serves file bytes behind signed links.
type FileService struct {
	files  fileRecordReader
	blobs  BlobReader
	tokens fileTokenParser
}

// NewFileService constructs the service.
func NewFileService(files fileRecordReader, blobs BlobReader, tokens fileTokenParser) *FileService {
	return &FileService{files: files, blobs: blobs, tokens: tokens}
}

// Open verifies token for fileID and opens the file content.
func (s *FileService) Open(ctx context.Context, fileID int64, token string) (*FileContent, error) {
	if token == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token required")
	}
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load file")
	}
	tokenFileID, _, err := s.tokens.Parse(token, file.ContentHash)
	if err != nil || tokenFileID != file.ID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	reader, err := s.blobs.Open(ctx, file.ContentHash)
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file content missing")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	mimeType := file.ContentType()
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &FileContent{Reader: reader, FileName: file.FileName, MimeType: mimeType, Size: file.FileSize}, nil
}
