package object

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/config"
)

// NewStorage creates the backend selected by storage.provider.
func NewStorage(ctx context.Context, cfg config.AppConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Storage.Provider {
	case config.StorageProviderMinIO, "":
		return NewMinIOStorage(ctx, cfg.Minio, logger)
	case config.StorageProviderS3:
		return NewS3Storage(ctx, cfg.S3, cfg.Ingest.Transfer.PartSize, logger)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Storage.Provider)
	}
}
