package worker

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/types"

	errorsx "github.com/instill-ai/x/errors"
)

// ReindexRecordingWorkflowResult reports the outcome of a reindex run.
type ReindexRecordingWorkflowResult struct {
	RecordingID       string
	RecordingPath     string
	Notified          bool
	NotificationError string
}

// ReindexRecordingWorkflow reloads an archived document, persists it again
// and resends the downstream notification.
func (w *Worker) ReindexRecordingWorkflow(ctx workflow.Context, param service.ReindexRecordingWorkflowParam) (*ReindexRecordingWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting ReindexRecordingWorkflow", "recordingID", param.RecordingID)

	ctx = workflow.WithActivityOptions(ctx, standardActivityOptions())

	var doc types.RecordingDocument
	if err := workflow.ExecuteActivity(ctx, w.LoadDocumentActivity, &LoadDocumentActivityParam{
		RecordingID: param.RecordingID,
	}).Get(ctx, &doc); err != nil {
		logger.Error("Failed to load recording document", "recordingID", param.RecordingID, "error", err)
		return nil, fmt.Errorf("loading recording document: %s", errorsx.MessageOrErr(err))
	}

	if err := workflow.ExecuteActivity(ctx, w.PersistDocumentActivity, &PersistDocumentActivityParam{
		Document: &doc,
	}).Get(ctx, nil); err != nil {
		logger.Error("Failed to persist recording document", "recordingID", param.RecordingID, "error", err)
		return nil, fmt.Errorf("persisting recording document: %s", errorsx.MessageOrErr(err))
	}

	result := &ReindexRecordingWorkflowResult{
		RecordingID:   doc.RecordingID,
		RecordingPath: doc.RecordingPath,
	}
	result.Notified, result.NotificationError = w.notify(ctx, &doc)

	logger.Info("ReindexRecordingWorkflow completed",
		"recordingID", doc.RecordingID,
		"notified", result.Notified)

	return result, nil
}
