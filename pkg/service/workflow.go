package service

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"

	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// TriggerIngestRecording starts (or attaches to) the ingest workflow of the
// event's recording.
func (s *service) TriggerIngestRecording(ctx context.Context, event *types.RecordingEvent) (*WorkflowRun, error) {
	recordingID, err := DeriveRunIdentity(event.Payload.Object.UUID)
	if err != nil {
		return nil, err
	}

	run, err := s.ingestRecordingWorkflow.Execute(ctx, IngestRecordingWorkflowParam{
		RecordingID:  recordingID,
		Event:        *event,
		DeleteSource: s.ingestCfg.DeleteSourceAfterIngest,
	})
	if err != nil {
		return nil, fmt.Errorf("starting ingest workflow: %w", err)
	}

	return run, nil
}

// TriggerReindexRecording starts the reindex workflow of a stored recording.
func (s *service) TriggerReindexRecording(ctx context.Context, recordingID string) (*WorkflowRun, error) {
	id, err := uuid.FromString(recordingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recording id %q", errdomain.ErrMalformedInput, recordingID)
	}

	run, err := s.reindexRecordingWorkflow.Execute(ctx, ReindexRecordingWorkflowParam{
		RecordingID: id.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("starting reindex workflow: %w", err)
	}

	return run, nil
}

// TriggerSweepRecordings starts a sweep over recent recordings.
func (s *service) TriggerSweepRecordings(ctx context.Context, lookbackDays int) (*WorkflowRun, error) {
	if lookbackDays < 0 {
		return nil, fmt.Errorf("%w: negative lookback", errdomain.ErrMalformedInput)
	}

	run, err := s.sweepRecordingsWorkflow.Execute(ctx, SweepRecordingsWorkflowParam{
		LookbackDays: lookbackDays,
	})
	if err != nil {
		return nil, fmt.Errorf("starting sweep workflow: %w", err)
	}

	return run, nil
}
