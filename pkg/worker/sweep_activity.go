package worker

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/webhook"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

// ListRecordingsToIngestActivityParam defines the sweep window
type ListRecordingsToIngestActivityParam struct {
	From time.Time
	To   time.Time
}

// ListRecordingsToIngestActivityResult lists the recordings that still need
// an ingest run
type ListRecordingsToIngestActivityResult struct {
	Params   []service.IngestRecordingWorkflowParam
	Found    int
	Ignored  int
	Archived int
}

// ListRecordingsToIngestActivity lists every recent cloud recording, applies
// admission and drops the ones that already have a stored document.
func (w *Worker) ListRecordingsToIngestActivity(ctx context.Context, param *ListRecordingsToIngestActivityParam) (*ListRecordingsToIngestActivityResult, error) {
	w.log.Info("Starting ListRecordingsToIngestActivity",
		zap.Time("from", param.From),
		zap.Time("to", param.To))

	events, err := w.service.ListRecentRecordings(ctx, param.From, param.To)
	if err != nil {
		w.log.Error("Failed to list recent recordings", zap.Error(err))
		err = errorsx.AddMessage(err, "Unable to list recent recordings. Please try again.")
		return nil, temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			listRecordingsToIngestActivityError,
			err,
		)
	}

	deleteSource := w.service.IngestConfig().DeleteSourceAfterIngest
	result := &ListRecordingsToIngestActivityResult{Found: len(events)}
	for i := range events {
		event := &events[i]

		// Listings go through the same checks as webhook deliveries.
		if err := webhook.ValidateRecordingEvent(event); err != nil {
			w.log.Warn("Skipping invalid recording listing",
				zap.String("meetingUUID", event.Payload.Object.UUID),
				zap.Error(err))
			result.Ignored++
			continue
		}

		admission, err := w.service.AdmitEvent(ctx, event)
		if err != nil {
			// One bad listing entry doesn't stop the sweep.
			w.log.Warn("Skipping unusable recording",
				zap.String("meetingUUID", event.Payload.Object.UUID),
				zap.Error(err))
			result.Ignored++
			continue
		}
		if !admission.Accepted {
			result.Ignored++
			continue
		}

		_, err = w.service.GetDocument(ctx, admission.RecordingID)
		switch {
		case err == nil:
			result.Archived++
			continue
		case !errors.Is(err, errdomain.ErrNotFound):
			w.log.Error("Failed to look up recording document",
				zap.String("recording_id", admission.RecordingID),
				zap.Error(err))
			return nil, temporal.NewApplicationErrorWithCause(
				errorsx.MessageOrErr(err),
				listRecordingsToIngestActivityError,
				err,
			)
		}

		result.Params = append(result.Params, service.IngestRecordingWorkflowParam{
			RecordingID:  admission.RecordingID,
			Event:        *event,
			DeleteSource: deleteSource,
		})
		activity.RecordHeartbeat(ctx, i)
	}

	w.log.Info("Recordings to ingest listed",
		zap.Int("found", result.Found),
		zap.Int("ignored", result.Ignored),
		zap.Int("archived", result.Archived),
		zap.Int("pending", len(result.Params)))

	return result, nil
}

// Activity error type constants
const (
	listRecordingsToIngestActivityError = "ListRecordingsToIngestActivity"
)
