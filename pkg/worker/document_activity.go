package worker

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/notification"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

// This file contains the document activities shared by IngestRecordingWorkflow
// and ReindexRecordingWorkflow:
// - PersistDocumentActivity - Writes the document blob and record
// - NotifyDocumentActivity - Enqueues the document for the publisher
// - LoadDocumentActivity - Reads a stored document blob back

// PersistDocumentActivityParam defines parameters for persisting a document
type PersistDocumentActivityParam struct {
	Document *types.RecordingDocument
}

// NotifyDocumentActivityParam defines parameters for notifying downstream
type NotifyDocumentActivityParam struct {
	Document *types.RecordingDocument
}

// LoadDocumentActivityParam defines parameters for loading a stored document
type LoadDocumentActivityParam struct {
	RecordingID string
}

// PersistDocumentActivity stores the document. It is an idempotent overwrite
// keyed by recording_id, so retries are safe.
func (w *Worker) PersistDocumentActivity(ctx context.Context, param *PersistDocumentActivityParam) error {
	w.log.Info("Starting PersistDocumentActivity",
		zap.String("recording_id", param.Document.RecordingID))

	if err := w.service.PersistDocument(ctx, param.Document); err != nil {
		return temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			persistDocumentActivityError,
			err,
		)
	}

	return nil
}

// NotifyDocumentActivity hands the document to the downstream queue. The
// activity attempt is carried in the envelope.
func (w *Worker) NotifyDocumentActivity(ctx context.Context, param *NotifyDocumentActivityParam) error {
	attempt := int(activity.GetInfo(ctx).Attempt)
	w.log.Info("Starting NotifyDocumentActivity",
		zap.String("recording_id", param.Document.RecordingID),
		zap.Int("attempt", attempt))

	ctx = notification.ContextWithAttempt(ctx, attempt)
	if err := w.service.NotifyDocument(ctx, param.Document); err != nil {
		err = errorsx.AddMessage(err, "Unable to notify the publishing service. Please try again.")
		return temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			notifyDocumentActivityError,
			err,
		)
	}

	return nil
}

// LoadDocumentActivity reads a previously persisted document. A missing or
// invalid document won't fix itself, so those failures aren't retried.
func (w *Worker) LoadDocumentActivity(ctx context.Context, param *LoadDocumentActivityParam) (*types.RecordingDocument, error) {
	log := w.log.With(zap.String("recording_id", param.RecordingID))
	log.Info("Starting LoadDocumentActivity")

	doc, err := w.service.LoadDocument(ctx, param.RecordingID)
	if err != nil {
		log.Error("Failed to load recording document", zap.Error(err))
		switch {
		case errors.Is(err, errdomain.ErrNotFound):
			err = errorsx.AddMessage(err, "The recording has not been archived.")
			return nil, temporal.NewNonRetryableApplicationError(
				errorsx.MessageOrErr(err),
				loadDocumentActivityError,
				err,
			)
		case errors.Is(err, errdomain.ErrMalformedInput):
			err = errorsx.AddMessage(err, "The stored recording document is invalid.")
			return nil, temporal.NewNonRetryableApplicationError(
				errorsx.MessageOrErr(err),
				loadDocumentActivityError,
				err,
			)
		}

		err = errorsx.AddMessage(err, "Unable to read the recording document. Please try again.")
		return nil, temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			loadDocumentActivityError,
			err,
		)
	}

	return doc, nil
}

// Activity error type constants
const (
	persistDocumentActivityError = "PersistDocumentActivity"
	notifyDocumentActivityError  = "NotifyDocumentActivity"
	loadDocumentActivityError    = "LoadDocumentActivity"
)
