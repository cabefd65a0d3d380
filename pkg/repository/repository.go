package repository

import (
	"gorm.io/gorm"

	"github.com/instill-ai/recording-backend/pkg/repository/object"
)

// Repository is the persistence layer of the pipeline: the keyed record store
// (PostgreSQL) and the durable object storage.
type Repository interface {
	RecordingDocumentI
	ObjectStorage() object.Storage
}

type repository struct {
	db            *gorm.DB
	objectStorage object.Storage
}

// NewRepository returns a Repository over the given database and storage.
func NewRepository(db *gorm.DB, objectStorage object.Storage) Repository {
	return &repository{
		db:            db,
		objectStorage: objectStorage,
	}
}

// ObjectStorage returns the object storage backend.
func (r *repository) ObjectStorage() object.Storage {
	return r.objectStorage
}
