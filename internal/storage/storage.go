// Package storage uploads message attachments to S3-compatible object
// storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/talkboard/backend/internal/config"
)

type Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// New connects to the configured endpoint and makes sure the bucket
// exists.
func New(ctx context.Context, cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object storage: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.S3Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.S3Bucket, minio.MakeBucketOptions{Region: cfg.S3Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: strings.TrimRight(cfg.S3PublicURL, "/"),
	}, nil
}

// Upload stores one attachment under a random object name, keeping the
// original extension, and returns its public URL.
func (s *Storage) Upload(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	object := "attachments/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	_, err := s.client.PutObject(ctx, s.bucket, object, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + object, nil
	}
	return fmt.Sprintf("https://%s/%s/%s", s.client.EndpointURL().Host, s.bucket, object), nil
}
