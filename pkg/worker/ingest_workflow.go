package worker

import (
	"fmt"
	"strings"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/types"

	errorsx "github.com/instill-ai/x/errors"
)

// IngestRecordingWorkflowResult reports the outcome of an ingest run.
type IngestRecordingWorkflowResult struct {
	RecordingID   string
	RecordingPath string
	Files         []types.FileTransferReceipt
	// Notified is false when every notification attempt failed. The run
	// still completes: the persisted document is the durable outcome.
	Notified          bool
	NotificationError string
	SourceDeleted     bool
}

const ingestRecordingWorkflowError = "IngestRecordingWorkflow"

// IngestRecordingWorkflow archives one recording:
// 1. Fetch the meeting metadata and derive the run.
// 2. Transfer every file in parallel.
// 3. Assemble and persist the document once all transfers succeeded.
// 4. Notify downstream.
// 5. Optionally delete the source recording.
// A failed transfer fails the whole run and no document is written.
func (w *Worker) IngestRecordingWorkflow(ctx workflow.Context, param service.IngestRecordingWorkflowParam) (*IngestRecordingWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting IngestRecordingWorkflow",
		"recordingID", param.RecordingID,
		"meetingUUID", param.Event.Payload.Object.UUID,
		"files", len(param.Event.Payload.Object.RecordingFiles))

	ctx = workflow.WithActivityOptions(ctx, standardActivityOptions())

	var run types.RecordingRun
	if err := workflow.ExecuteActivity(ctx, w.FetchRunMetadataActivity, &FetchRunMetadataActivityParam{
		RecordingID: param.RecordingID,
		Event:       param.Event,
	}).Get(ctx, &run); err != nil {
		logger.Error("Failed to fetch run metadata", "recordingID", param.RecordingID, "error", err)
		return nil, fmt.Errorf("fetching run metadata: %s", errorsx.MessageOrErr(err))
	}

	if len(run.Files) == 0 {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("recording %s has no files", param.RecordingID),
			ingestRecordingWorkflowError,
			nil,
		)
	}

	receipts, err := w.transferFiles(ctx, &run)
	if err != nil {
		return nil, err
	}

	doc, err := service.AssembleDocument(&run, receipts)
	if err != nil {
		logger.Error("Failed to assemble recording document", "recordingID", run.RecordingID, "error", err)
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), ingestRecordingWorkflowError, err)
	}

	if err := workflow.ExecuteActivity(ctx, w.PersistDocumentActivity, &PersistDocumentActivityParam{
		Document: doc,
	}).Get(ctx, nil); err != nil {
		logger.Error("Failed to persist recording document", "recordingID", run.RecordingID, "error", err)
		return nil, fmt.Errorf("persisting recording document: %s", errorsx.MessageOrErr(err))
	}

	result := &IngestRecordingWorkflowResult{
		RecordingID:   run.RecordingID,
		RecordingPath: run.RecordingPath,
		Files:         doc.Files,
	}

	result.Notified, result.NotificationError = w.notify(ctx, doc)

	if param.DeleteSource {
		if err := workflow.ExecuteActivity(ctx, w.DeleteSourceRecordingActivity, &DeleteSourceRecordingActivityParam{
			RecordingID: run.RecordingID,
			MeetingUUID: run.MeetingUUID,
		}).Get(ctx, nil); err != nil {
			logger.Warn("Failed to delete source recording, continuing",
				"recordingID", run.RecordingID,
				"error", err.Error())
		} else {
			result.SourceDeleted = true
		}
	}

	logger.Info("IngestRecordingWorkflow completed",
		"recordingID", run.RecordingID,
		"recordingPath", run.RecordingPath,
		"files", len(doc.Files),
		"notified", result.Notified)

	return result, nil
}

// transferFiles starts every transfer before waiting on any of them and
// waits for all of them. Transfers run on a disconnected context: a canceled
// run lets in-flight copies finish or fail on their own.
func (w *Worker) transferFiles(ctx workflow.Context, run *types.RecordingRun) ([]types.FileTransferReceipt, error) {
	logger := workflow.GetLogger(ctx)

	transferCtx, _ := workflow.NewDisconnectedContext(ctx)
	transferCtx = workflow.WithActivityOptions(transferCtx, transferActivityOptions())

	futures := make([]workflow.Future, len(run.Files))
	for i, task := range run.Files {
		futures[i] = workflow.ExecuteActivity(transferCtx, w.TransferFileActivity, &TransferFileActivityParam{
			Task: task,
		})
	}

	receipts := make([]types.FileTransferReceipt, 0, len(run.Files))
	var failed []string
	for i, future := range futures {
		var receipt types.FileTransferReceipt
		if err := future.Get(transferCtx, &receipt); err != nil {
			logger.Error("File transfer failed",
				"recordingID", run.RecordingID,
				"key", run.Files[i].Key,
				"error", err)
			failed = append(failed, run.Files[i].Key)
			continue
		}
		receipts = append(receipts, receipt)
	}

	if ctx.Err() != nil {
		logger.Warn("IngestRecordingWorkflow canceled after transfers", "recordingID", run.RecordingID)
		return nil, temporal.NewCanceledError()
	}

	if len(failed) > 0 {
		return nil, temporal.NewApplicationError(
			fmt.Sprintf("transfer failed for %d of %d files: %s", len(failed), len(run.Files), strings.Join(failed, ", ")),
			ingestRecordingWorkflowError,
			failed,
		)
	}

	return receipts, nil
}

// notify reports a failed notification instead of failing the run.
func (w *Worker) notify(ctx workflow.Context, doc *types.RecordingDocument) (bool, string) {
	err := workflow.ExecuteActivity(ctx, w.NotifyDocumentActivity, &NotifyDocumentActivityParam{
		Document: doc,
	}).Get(ctx, nil)
	if err != nil {
		workflow.GetLogger(ctx).Error("Downstream notification failed after retries",
			"recordingID", doc.RecordingID,
			"error", err)
		return false, errorsx.MessageOrErr(err)
	}
	return true, ""
}

func standardActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeoutStandard,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    RetryInitialInterval,
			BackoffCoefficient: RetryBackoffCoefficient,
			MaximumInterval:    RetryMaximumIntervalStandard,
			MaximumAttempts:    RetryMaximumAttempts,
		},
	}
}

func transferActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeoutTransfer,
		HeartbeatTimeout:    TransferHeartbeatTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    RetryInitialInterval,
			BackoffCoefficient: RetryBackoffCoefficient,
			MaximumInterval:    RetryMaximumIntervalLong,
			MaximumAttempts:    TransferMaximumAttempts,
		},
	}
}
