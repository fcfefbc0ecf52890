package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrBlobNotFound is returned when no blob exists for a content hash.
var ErrBlobNotFound = errors.New("blob not found")

// FileDir is a content-addressed blob store laid out like an LMS filedir:
// <base>/<h[0:2]>/<h[2:4]>/<hash>.
type FileDir struct {
	baseDir string
}

// NewFileDir ensures the base directory exists and returns a handle.
func NewFileDir(baseDir string) (*FileDir, error) {
	if baseDir == "" {
		baseDir = "./filedir"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create filedir: %w", err)
	}
	return &FileDir{baseDir: baseDir}, nil
}

// Open returns a reader over the blob identified by hash.
func (s *FileDir) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validHash(hash) {
		return nil, fmt.Errorf("open blob %q: %w", hash, ErrBlobNotFound)
	}
	file, err := os.Open(s.Path(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open blob %s: %w", hash, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("open blob %s: %w", hash, err)
	}
	return file, nil
}

// Delete removes a blob if present.
func (s *FileDir) Delete(ctx context.Context, hash string) error {
	if !validHash(hash) {
		return nil
	}
	if err := os.Remove(s.Path(hash)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", hash, err)
	}
	return nil
}

// Path exposes the on-disk location of a blob (useful for debugging).
func (s *FileDir) Path(hash string) string {
	if len(hash) < 4 {
		return filepath.Join(s.baseDir, hash)
	}
	return filepath.Join(s.baseDir, hash[0:2], hash[2:4], hash)
}

func validHash(hash string) bool {
	if len(hash) < 4 {
		return false
	}
	return strings.Trim(strings.ToLower(hash), "0123456789abcdef") == ""
}
