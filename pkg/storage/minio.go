package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Paperlinksoftwares/thumbnail-view-submission/pkg/config"
)

// MinioBlobStore keeps blobs in an S3 bucket keyed by content hash.
type MinioBlobStore struct {
	client *minio.Client
	bucket string
	region string
}

// NewMinioBlobStore creates a MinIO client from cfg.
func NewMinioBlobStore(cfg config.BlobConfig) (*MinioBlobStore, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioBlobStore{client: client, bucket: cfg.S3Bucket, region: cfg.S3Region}, nil
}

// EnsureBucket makes sure the blob bucket exists before use.
func (s *MinioBlobStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("make bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Open streams the blob for hash straight from the bucket.
func (s *MinioBlobStore) Open(ctx context.Context, hash string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, hash, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", hash, err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close() //nolint:errcheck
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("get blob %s: %w", hash, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("stat blob %s: %w", hash, err)
	}
	return obj, nil
}

// Delete removes the blob for hash; missing keys are not an error.
func (s *MinioBlobStore) Delete(ctx context.Context, hash string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, hash, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove blob %s: %w", hash, err)
	}
	return nil
}
