// Package mock provides in-memory stand-ins for the external collaborators of
// the pipeline, for use in tests.
package mock

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/instill-ai/recording-backend/pkg/repository/object"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// StoredObject is an object kept by StorageMock.
type StoredObject struct {
	Data    []byte
	Info    object.ObjectInfo
	Options object.PutOptions
}

// StorageMock is an in-memory object.Storage.
type StorageMock struct {
	Bucket string
	// PutErr, when set, is returned by PutObject for the matching keys.
	PutErr map[string]error

	mu      sync.Mutex
	objects map[string]StoredObject
	puts    map[string]int
}

var _ object.Storage = (*StorageMock)(nil)

// NewStorageMock returns an empty storage.
func NewStorageMock() *StorageMock {
	return &StorageMock{
		Bucket:  "recordings",
		PutErr:  map[string]error{},
		objects: map[string]StoredObject{},
		puts:    map[string]int{},
	}
}

// PutObject implements object.Storage.
func (s *StorageMock) PutObject(ctx context.Context, key string, r io.Reader, size int64, opts object.PutOptions) (*object.ObjectInfo, error) {
	s.mu.Lock()
	err := s.PutErr[key]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return nil, fmt.Errorf("uploading %s: read %d bytes, expected %d", key, len(data), size)
	}

	sum := md5.Sum(data)
	info := object.ObjectInfo{
		Key:      key,
		ETag:     hex.EncodeToString(sum[:]),
		Size:     int64(len(data)),
		Location: s.Location(key),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = StoredObject{Data: data, Info: info, Options: opts}
	s.puts[key]++

	return &info, nil
}

// GetObject implements object.Storage.
func (s *StorageMock) GetObject(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, errdomain.ErrNotFound)
	}
	return obj.Data, nil
}

// StatObject implements object.Storage.
func (s *StorageMock) StatObject(_ context.Context, key string) (*object.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, errdomain.ErrNotFound)
	}
	info := obj.Info
	return &info, nil
}

// Location implements object.Storage.
func (s *StorageMock) Location(key string) string {
	return object.Location(s.Bucket, key)
}

// GetBucket implements object.Storage.
func (s *StorageMock) GetBucket() string {
	return s.Bucket
}

// Object returns a stored object.
func (s *StorageMock) Object(key string) (StoredObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[key]
	return obj, ok
}

// Keys lists the stored keys in order.
func (s *StorageMock) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PutCount returns how many times key was written.
func (s *StorageMock) PutCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.puts[key]
}
