package object

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/config"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

type minioStorage struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// NewMinIOStorage creates a new object.Storage implementation using MinIO
// and makes sure the bucket exists.
func NewMinIOStorage(ctx context.Context, cfg config.MinioConfig, logger *zap.Logger) (Storage, error) {
	logger = logger.With(
		zap.String("host:port", cfg.Host+":"+cfg.Port),
		zap.String("user", cfg.User),
		zap.String("bucket", cfg.BucketName),
	)

	client, err := minio.New(cfg.Host+":"+cfg.Port, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.User, cfg.Password, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("checking bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		}); err != nil {
			return nil, fmt.Errorf("creating bucket: %w", err)
		}
		logger.Info("Successfully created bucket")
	} else {
		logger.Info("Bucket already exists")
	}

	return &minioStorage{
		client: client,
		bucket: cfg.BucketName,
		logger: logger,
	}, nil
}

// PutObject implements object.Storage.PutObject
func (m *minioStorage) PutObject(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error) {
	info, err := m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.UserMetadata,
		UserTags:     opts.Tags,
		PartSize:     opts.PartSize,
	})
	if err != nil {
		m.logger.Error("Failed to upload object to MinIO", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}

	return &ObjectInfo{
		Key:      key,
		ETag:     NormalizeETag(info.ETag),
		Size:     info.Size,
		Location: m.Location(key),
	}, nil
}

// GetObject implements object.Storage.GetObject
func (m *minioStorage) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, m.wrapError(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, m.wrapError(key, err)
	}

	return data, nil
}

// StatObject implements object.Storage.StatObject
func (m *minioStorage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	info, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, m.wrapError(key, err)
	}

	return &ObjectInfo{
		Key:      key,
		ETag:     NormalizeETag(info.ETag),
		Size:     info.Size,
		Location: m.Location(key),
	}, nil
}

// Location implements object.Storage.Location
func (m *minioStorage) Location(key string) string {
	return Location(m.bucket, key)
}

// GetBucket implements object.Storage.GetBucket
func (m *minioStorage) GetBucket() string {
	return m.bucket
}

func (m *minioStorage) wrapError(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" {
		return fmt.Errorf("object %s: %w", key, errdomain.ErrNotFound)
	}
	return fmt.Errorf("reading %s: %w", key, err)
}
