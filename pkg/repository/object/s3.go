package object

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/constant"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// s3MinPartSize is the smallest multipart part S3 accepts.
const s3MinPartSize = 5 * constant.MB

type s3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger
}

// NewS3Storage creates an object.Storage implementation on AWS S3 (or an
// S3-compatible endpoint). Without static credentials the default AWS
// credential chain is used.
func NewS3Storage(ctx context.Context, cfg config.S3Config, partSize uint64, logger *zap.Logger) (Storage, error) {
	logger = logger.With(zap.String("region", cfg.Region), zap.String("bucket", cfg.Bucket))

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)))
		logger.Info("S3 client using static credentials from config")
	} else {
		logger.Warn("S3 client using default credential chain")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	if partSize < s3MinPartSize {
		partSize = s3MinPartSize
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = int64(partSize)
		u.Concurrency = 1
	})

	return &s3Storage{
		client:   client,
		uploader: uploader,
		bucket:   cfg.Bucket,
		logger:   logger,
	}, nil
}

// PutObject implements object.Storage.PutObject
func (s *s3Storage) PutObject(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(opts.ContentType),
		Metadata:    opts.UserMetadata,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if len(opts.Tags) > 0 {
		tags := url.Values{}
		for k, v := range opts.Tags {
			tags.Set(k, v)
		}
		input.Tagging = aws.String(tags.Encode())
	}

	uploadOpts := []func(*manager.Uploader){}
	if opts.PartSize >= s3MinPartSize {
		uploadOpts = append(uploadOpts, func(u *manager.Uploader) {
			u.PartSize = int64(opts.PartSize)
		})
	}

	out, err := s.uploader.Upload(ctx, input, uploadOpts...)
	if err != nil {
		s.logger.Error("Failed to upload object to S3", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}

	// The uploader doesn't report the stored size; the head request also
	// confirms the object is visible.
	info, err := s.StatObject(ctx, key)
	if err != nil {
		return nil, err
	}
	if etag := aws.ToString(out.ETag); etag != "" {
		info.ETag = NormalizeETag(etag)
	}

	return info, nil
}

// GetObject implements object.Storage.GetObject
func (s *s3Storage) GetObject(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapError(key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}

	return data, nil
}

// StatObject implements object.Storage.StatObject
func (s *s3Storage) StatObject(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s.wrapError(key, err)
	}

	return &ObjectInfo{
		Key:      key,
		ETag:     NormalizeETag(aws.ToString(out.ETag)),
		Size:     aws.ToInt64(out.ContentLength),
		Location: s.Location(key),
	}, nil
}

// Location implements object.Storage.Location
func (s *s3Storage) Location(key string) string {
	return Location(s.bucket, key)
}

// GetBucket implements object.Storage.GetBucket
func (s *s3Storage) GetBucket() string {
	return s.bucket
}

func (s *s3Storage) wrapError(key string, err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("object %s: %w", key, errdomain.ErrNotFound)
	}
	return fmt.Errorf("reading %s: %w", key, err)
}
