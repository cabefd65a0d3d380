package object

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Storage defines the interface for object storage operations
// Implementations: MinIO (default), S3
type Storage interface {
	// PutObject streams r into key. size may be -1 when unknown; uploads
	// are multipart with opts.PartSize parts so memory use doesn't depend
	// on the object size.
	PutObject(ctx context.Context, key string, r io.Reader, size int64, opts PutOptions) (*ObjectInfo, error)
	// GetObject reads a whole object. Only used for small JSON records.
	GetObject(ctx context.Context, key string) ([]byte, error)
	// StatObject confirms an object exists and returns its fingerprint.
	StatObject(ctx context.Context, key string) (*ObjectInfo, error)
	// Location is the stable reference recorded for key.
	Location(key string) string
	// GetBucket returns the bucket the backend writes to.
	GetBucket() string
}

// PutOptions are per-object write settings.
type PutOptions struct {
	ContentType  string
	UserMetadata map[string]string
	Tags         map[string]string
	PartSize     uint64
}

// ObjectInfo describes a stored object. ETag is the storage system's
// content fingerprint.
type ObjectInfo struct {
	Key      string
	ETag     string
	Size     int64
	Location string
}

// Location renders an s3:// reference with an escaped key.
func Location(bucket, key string) string {
	u := url.URL{Scheme: "s3", Host: bucket, Path: "/" + key}
	return u.String()
}

// NormalizeETag strips the quotes some backends keep around the tag.
func NormalizeETag(etag string) string {
	return strings.Trim(etag, `"`)
}

// PutJSON marshals v and stores it under key.
func PutJSON(ctx context.Context, s Storage, key string, v any, tags map[string]string) (*ObjectInfo, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", key, err)
	}

	return s.PutObject(ctx, key, bytes.NewReader(b), int64(len(b)), PutOptions{
		ContentType: "application/json",
		Tags:        tags,
	})
}
