package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// RecordingDocumentI stores canonical recording documents.
type RecordingDocumentI interface {
	// UpsertRecordingDocument writes the document row keyed by recording_id.
	// Writing the same document twice leaves a single identical row.
	UpsertRecordingDocument(ctx context.Context, doc *types.RecordingDocument) error
	// GetRecordingDocument reads a document row.
	GetRecordingDocument(ctx context.Context, recordingID string) (*types.RecordingDocument, error)
	// SaveRecordingDocumentBlob writes {recording_id}/recording_document.json.
	SaveRecordingDocumentBlob(ctx context.Context, doc *types.RecordingDocument) (*object.ObjectInfo, error)
	// LoadRecordingDocumentBlob reads {recording_id}/recording_document.json.
	LoadRecordingDocumentBlob(ctx context.Context, recordingID string) (*types.RecordingDocument, error)
}

// RecordingDocumentModel is the recording_document row.
type RecordingDocumentModel struct {
	RecordingID       string         `gorm:"column:recording_id;primaryKey"`
	RecordingPath     string         `gorm:"column:recording_path"`
	MeetingUUID       string         `gorm:"column:meeting_uuid"`
	ParentMeetingUUID string         `gorm:"column:parent_meeting_uuid"`
	Organization      string         `gorm:"column:organization"`
	MeetingID         int64          `gorm:"column:meeting_id"`
	MeetingTopic      string         `gorm:"column:meeting_topic"`
	StartTime         string         `gorm:"column:start_time"`
	EndTime           string         `gorm:"column:end_time"`
	HostID            string         `gorm:"column:host_id"`
	FileCount         int            `gorm:"column:file_count"`
	Document          datatypes.JSON `gorm:"column:document;type:jsonb"`
	CreateTime        time.Time      `gorm:"column:create_time;autoCreateTime"`
	UpdateTime        time.Time      `gorm:"column:update_time;autoUpdateTime"`
}

// TableName overrides the default table name.
func (RecordingDocumentModel) TableName() string {
	return "recording_document"
}

// RecordingDocumentObjectKey is the blob key of a run's document.
func RecordingDocumentObjectKey(recordingID string) string {
	return recordingID + "/" + constant.RecordingDocumentObject
}

var recordingDocumentUpdateColumns = []string{
	"recording_path",
	"meeting_uuid",
	"parent_meeting_uuid",
	"organization",
	"meeting_id",
	"meeting_topic",
	"start_time",
	"end_time",
	"host_id",
	"file_count",
	"document",
	"update_time",
}

// UpsertRecordingDocument implements RecordingDocumentI.
func (r *repository) UpsertRecordingDocument(ctx context.Context, doc *types.RecordingDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling recording document: %w", err)
	}

	record := &RecordingDocumentModel{
		RecordingID:       doc.RecordingID,
		RecordingPath:     doc.RecordingPath,
		MeetingUUID:       doc.MeetingUUID,
		ParentMeetingUUID: doc.ParentMeetingUUID,
		Organization:      doc.Organization,
		MeetingID:         doc.MeetingID,
		MeetingTopic:      doc.MeetingTopic,
		StartTime:         doc.StartTime,
		EndTime:           doc.EndTime,
		HostID:            doc.HostID,
		FileCount:         len(doc.Files),
		Document:          datatypes.JSON(raw),
	}

	updateOnConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "recording_id"}},
		DoUpdates: clause.AssignmentColumns(recordingDocumentUpdateColumns),
	}
	if result := r.db.WithContext(ctx).Clauses(updateOnConflict).Create(record); result.Error != nil {
		return fmt.Errorf("upserting recording document: %w", result.Error)
	}

	return nil
}

// GetRecordingDocument implements RecordingDocumentI.
func (r *repository) GetRecordingDocument(ctx context.Context, recordingID string) (*types.RecordingDocument, error) {
	var record RecordingDocumentModel
	if result := r.db.WithContext(ctx).
		Where("recording_id = ?", recordingID).
		First(&record); result.Error != nil {

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("recording document %s: %w", recordingID, errdomain.ErrNotFound)
		}
		return nil, result.Error
	}

	var doc types.RecordingDocument
	if err := json.Unmarshal(record.Document, &doc); err != nil {
		return nil, fmt.Errorf("decoding recording document: %w", err)
	}

	return &doc, nil
}

// SaveRecordingDocumentBlob implements RecordingDocumentI.
func (r *repository) SaveRecordingDocumentBlob(ctx context.Context, doc *types.RecordingDocument) (*object.ObjectInfo, error) {
	return object.PutJSON(ctx, r.objectStorage, RecordingDocumentObjectKey(doc.RecordingID), doc, nil)
}

// LoadRecordingDocumentBlob implements RecordingDocumentI.
func (r *repository) LoadRecordingDocumentBlob(ctx context.Context, recordingID string) (*types.RecordingDocument, error) {
	raw, err := r.objectStorage.GetObject(ctx, RecordingDocumentObjectKey(recordingID))
	if err != nil {
		return nil, err
	}

	var doc types.RecordingDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: decoding stored document: %w", errdomain.ErrMalformedInput, err)
	}

	return &doc, nil
}
