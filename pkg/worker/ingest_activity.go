package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
	errorsx "github.com/instill-ai/x/errors"
)

// This file contains the activities used by IngestRecordingWorkflow:
// - FetchRunMetadataActivity - Retrieves meeting details and derives the run
// - TransferFileActivity - Copies one recording file into object storage
// - DeleteSourceRecordingActivity - Trashes the cloud recording after ingest

// FetchRunMetadataActivityParam defines parameters for building a recording run
type FetchRunMetadataActivityParam struct {
	RecordingID string
	Event       types.RecordingEvent
}

// TransferFileActivityParam defines parameters for copying a single file
type TransferFileActivityParam struct {
	Task types.FileTransferTask
}

// DeleteSourceRecordingActivityParam defines parameters for deleting the
// source cloud recording
type DeleteSourceRecordingActivityParam struct {
	RecordingID string
	MeetingUUID string
}

// FetchRunMetadataActivity retrieves the past and parent meeting details,
// derives the archive path and builds the file transfer tasks.
func (w *Worker) FetchRunMetadataActivity(ctx context.Context, param *FetchRunMetadataActivityParam) (*types.RecordingRun, error) {
	log := w.log.With(zap.String("recording_id", param.RecordingID))
	log.Info("Starting FetchRunMetadataActivity",
		zap.String("meetingUUID", param.Event.Payload.Object.UUID))

	run, err := w.service.FetchRunMetadata(ctx, param.RecordingID, &param.Event)
	if err != nil {
		log.Error("Failed to fetch run metadata", zap.Error(err))
		if errorsx.Message(err) == "" {
			err = errorsx.AddMessage(err, "Unable to retrieve the recording details. Please try again.")
		}
		if isPermanentMetadataError(err) {
			return nil, temporal.NewNonRetryableApplicationError(
				errorsx.MessageOrErr(err),
				fetchRunMetadataActivityError,
				err,
			)
		}
		return nil, temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			fetchRunMetadataActivityError,
			err,
		)
	}

	log.Info("Run metadata fetched",
		zap.String("recordingPath", run.RecordingPath),
		zap.String("organization", run.Organization),
		zap.Int("files", len(run.Files)))

	return run, nil
}

// isPermanentMetadataError reports whether retrying the metadata fetch can't
// change the outcome: malformed input or a 4xx other than rate limiting.
func isPermanentMetadataError(err error) bool {
	if errors.Is(err, errdomain.ErrMalformedInput) {
		return true
	}

	var apiErr *zoom.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode >= http.StatusBadRequest &&
		apiErr.StatusCode < http.StatusInternalServerError &&
		apiErr.StatusCode != http.StatusTooManyRequests
}

// TransferFileActivity streams one file from the platform into object
// storage. Download retries happen inside the transfer, so a transfer error
// is final for this run. The activity heartbeats while the copy is running.
func (w *Worker) TransferFileActivity(ctx context.Context, param *TransferFileActivityParam) (*types.FileTransferReceipt, error) {
	task := param.Task
	log := w.log.With(
		zap.String("recording_id", task.RecordingID),
		zap.String("key", task.Key))
	log.Info("Starting TransferFileActivity",
		zap.String("recordingType", task.RecordingType),
		zap.Int64("declaredSize", task.DeclaredSize))

	stop := startHeartbeat(ctx, TransferHeartbeatInterval, task.Key)
	defer stop()

	receipt, err := w.service.TransferFile(ctx, task)
	if err != nil {
		log.Error("Failed to transfer file", zap.Error(err))
		err = errorsx.AddMessage(err, fmt.Sprintf("Unable to archive recording file %s. Please try again.", task.Key))
		if errors.Is(err, errdomain.ErrTransfer) && ctx.Err() == nil {
			return nil, temporal.NewNonRetryableApplicationError(
				errorsx.MessageOrErr(err),
				transferFileActivityError,
				err,
			)
		}
		return nil, temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			transferFileActivityError,
			err,
		)
	}

	log.Info("File transferred successfully",
		zap.String("location", receipt.Location),
		zap.Int64("size", receipt.Size))

	return receipt, nil
}

// startHeartbeat records a heartbeat every interval until the returned
// function is called.
func startHeartbeat(ctx context.Context, interval time.Duration, details ...any) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				activity.RecordHeartbeat(ctx, details...)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// DeleteSourceRecordingActivity moves the cloud recording to trash once it is
// archived.
func (w *Worker) DeleteSourceRecordingActivity(ctx context.Context, param *DeleteSourceRecordingActivityParam) error {
	log := w.log.With(zap.String("recording_id", param.RecordingID))
	log.Info("Starting DeleteSourceRecordingActivity")

	if err := w.service.DeleteSourceRecording(ctx, param.MeetingUUID); err != nil {
		log.Error("Failed to delete source recording", zap.Error(err))
		err = errorsx.AddMessage(err, "Unable to delete the source recording. Please try again.")
		return temporal.NewApplicationErrorWithCause(
			errorsx.MessageOrErr(err),
			deleteSourceRecordingActivityError,
			err,
		)
	}

	log.Info("Source recording deleted")
	return nil
}

// Activity error type constants
const (
	fetchRunMetadataActivityError      = "FetchRunMetadataActivity"
	transferFileActivityError          = "TransferFileActivity"
	deleteSourceRecordingActivityError = "DeleteSourceRecordingActivity"
)
