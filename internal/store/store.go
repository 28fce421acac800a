// Package store archives generated guides in a MinIO (S3 compatible) bucket.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/taskenti/topoguia/internal/config"
)

// Archive stores generated PDFs.
type Archive interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Discard is an Archive that stores nothing.
type Discard struct{}

func (Discard) Put(context.Context, string, []byte) error { return nil }

// ObjectKey returns the key a guide is archived under: {template}/{filename}.
func ObjectKey(template, filename string) string {
	return path.Join(strings.ToLower(strings.TrimSpace(template)), path.Base(filename))
}

// Client wraps a MinIO client bound to one bucket.
type Client struct {
	client *minio.Client
	bucket string
}

// New connects to MinIO and makes sure the bucket exists.
func New(ctx context.Context, cfg config.MinIOConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("minio endpoint is not configured")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}
	return &Client{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads a PDF under key.
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	opts := minio.PutObjectOptions{ContentType: "application/pdf"}
	if _, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), opts); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// IsNoSuchBucket reports whether err means the bucket does not exist.
func IsNoSuchBucket(err error) bool {
	if err == nil {
		return false
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		return strings.EqualFold(strings.TrimSpace(minioErr.Code), "NoSuchBucket")
	}
	return strings.Contains(strings.ToLower(err.Error()), "nosuchbucket")
}
