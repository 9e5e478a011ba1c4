package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/amirrudd/flyerboard/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

const imageKeyPrefix = "listings/"

// S3Storage stores listing images in a MinIO (S3 compatible) bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

func NewS3Storage(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool, log *logger.Logger) (*S3Storage, error) {
	log = log.Named("S3Storage")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client for %s: %w", endpoint, err)
	}

	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		exists, existsErr := client.BucketExists(ctx, bucket)
		if existsErr != nil || !exists {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, err)
		}
	}
	log.Info("Image storage ready", zap.String("endpoint", endpoint), zap.String("bucket", bucket))

	return &S3Storage{client: client, bucket: bucket, logger: log}, nil
}

// ObjectKey derives a unique key that keeps the file extension.
func ObjectKey(fileName string) string {
	return imageKeyPrefix + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))
}

// Upload stores the image and returns its storage key, which is what listings keep.
func (s *S3Storage) Upload(ctx context.Context, fileName string, data []byte) (string, error) {
	key := ObjectKey(fileName)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  http.DetectContentType(data),
		UserMetadata: map[string]string{"original-filename": filepath.Base(fileName)},
	})
	if err != nil {
		s.logger.Error("PutObject failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Info("Image uploaded", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return key, nil
}

// PresignedURL signs a time-limited GET for a stored image.
func (s *S3Storage) PresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
