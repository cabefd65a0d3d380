package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

var validate = validator.New()

// AssembleDocument combines a run with the receipts of all its files. It
// requires exactly one receipt per task, matched by logical key, and keeps
// the task order. Anything else is an invariant violation: a document with
// missing files must never be produced.
func AssembleDocument(run *types.RecordingRun, receipts []types.FileTransferReceipt) (*types.RecordingDocument, error) {
	if len(receipts) != len(run.Files) {
		return nil, fmt.Errorf("%w: %d receipts for %d files", errdomain.ErrAssemblyInvariant, len(receipts), len(run.Files))
	}

	byKey := make(map[string]types.FileTransferReceipt, len(receipts))
	for _, r := range receipts {
		if _, dup := byKey[r.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate receipt for %s", errdomain.ErrAssemblyInvariant, r.Key)
		}
		if r.Location == "" || r.ETag == "" {
			return nil, fmt.Errorf("%w: incomplete receipt for %s", errdomain.ErrAssemblyInvariant, r.Key)
		}
		byKey[r.Key] = r
	}

	files := make([]types.FileTransferReceipt, 0, len(run.Files))
	for _, task := range run.Files {
		r, ok := byKey[task.Key]
		if !ok {
			return nil, fmt.Errorf("%w: no receipt for %s", errdomain.ErrAssemblyInvariant, task.Key)
		}
		files = append(files, r)
	}

	return &types.RecordingDocument{
		RecordingID:       run.RecordingID,
		RecordingPath:     run.RecordingPath,
		MeetingUUID:       run.MeetingUUID,
		ParentMeetingUUID: run.ParentMeetingUUID,
		Organization:      run.Organization,
		MeetingID:         run.MeetingID,
		MeetingTopic:      run.MeetingTopic,
		StartTime:         run.StartTime,
		EndTime:           run.EndTime,
		Password:          run.Password,
		HostID:            run.HostID,
		Files:             files,
	}, nil
}

// PersistDocument writes the document blob and then the keyed record. Both
// are whole-value overwrites keyed by recording_id, so a second call with
// the same document leaves the same state.
func (s *service) PersistDocument(ctx context.Context, doc *types.RecordingDocument) error {
	log := s.log.With(zap.String("recording_id", doc.RecordingID))

	info, err := s.repository.SaveRecordingDocumentBlob(ctx, doc)
	if err != nil {
		log.Error("Failed to store recording document", zap.Error(err))
		return errorsx.AddMessage(
			fmt.Errorf("storing recording document: %w", err),
			"Unable to store the recording document. Please try again.",
		)
	}

	if err := s.repository.UpsertRecordingDocument(ctx, doc); err != nil {
		log.Error("Failed to upsert recording document", zap.Error(err))
		return errorsx.AddMessage(
			fmt.Errorf("upserting recording document: %w", err),
			"Unable to save the recording document. Please try again.",
		)
	}

	log.Info("Recording document persisted",
		zap.String("recording_path", doc.RecordingPath),
		zap.String("location", info.Location),
		zap.Int("files", len(doc.Files)))

	return nil
}

// LoadDocument reads a stored document blob and checks it still has the
// fields a downstream consumer relies on.
func (s *service) LoadDocument(ctx context.Context, recordingID string) (*types.RecordingDocument, error) {
	doc, err := s.repository.LoadRecordingDocumentBlob(ctx, recordingID)
	if err != nil {
		return nil, fmt.Errorf("loading recording document: %w", err)
	}

	if doc.RecordingID != recordingID {
		return nil, fmt.Errorf("%w: stored document belongs to %q", errdomain.ErrMalformedInput, doc.RecordingID)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: stored document: %w", errdomain.ErrMalformedInput, err)
	}

	return doc, nil
}

// GetDocument reads a document from the record store.
func (s *service) GetDocument(ctx context.Context, recordingID string) (*types.RecordingDocument, error) {
	return s.repository.GetRecordingDocument(ctx, recordingID)
}

// NotifyDocument hands a persisted document to the downstream queue.
func (s *service) NotifyDocument(ctx context.Context, doc *types.RecordingDocument) error {
	if err := s.dispatcher.Notify(ctx, doc); err != nil {
		s.log.Warn("Failed to notify downstream",
			zap.String("recording_id", doc.RecordingID),
			zap.Error(err))
		return err
	}

	s.log.Info("Downstream notified", zap.String("recording_id", doc.RecordingID))
	return nil
}
