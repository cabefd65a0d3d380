package worker

import (
	"errors"
	"fmt"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/instill-ai/recording-backend/pkg/service"

	errorsx "github.com/instill-ai/x/errors"
)

// SweepRecordingsWorkflowResult counts what a sweep found and did.
type SweepRecordingsWorkflowResult struct {
	Found          int
	Ignored        int
	Archived       int
	Started        int
	AlreadyRunning int
	Failed         int
}

// SweepRecordingsWorkflow catches recordings whose webhook was lost. It lists
// the recent cloud recordings and starts an ingest run for each admitted one
// that isn't archived yet. Runs use the same workflow ID as webhook-started
// runs, so a recording already being ingested isn't started twice.
func (w *Worker) SweepRecordingsWorkflow(ctx workflow.Context, param service.SweepRecordingsWorkflowParam) (*SweepRecordingsWorkflowResult, error) {
	logger := workflow.GetLogger(ctx)

	lookback := param.LookbackDays
	if lookback <= 0 {
		lookback = w.sweepLookbackDays
	}
	to := workflow.Now(ctx).UTC()
	from := to.AddDate(0, 0, -lookback)

	logger.Info("Starting SweepRecordingsWorkflow",
		"lookbackDays", lookback,
		"from", from,
		"to", to)

	listCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: ActivityTimeoutLong,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    RetryInitialInterval,
			BackoffCoefficient: RetryBackoffCoefficient,
			MaximumInterval:    RetryMaximumIntervalLong,
			MaximumAttempts:    RetryMaximumAttempts,
		},
	})

	var listed ListRecordingsToIngestActivityResult
	if err := workflow.ExecuteActivity(listCtx, w.ListRecordingsToIngestActivity, &ListRecordingsToIngestActivityParam{
		From: from,
		To:   to,
	}).Get(listCtx, &listed); err != nil {
		logger.Error("Failed to list recordings", "error", err)
		return nil, fmt.Errorf("listing recordings: %s", errorsx.MessageOrErr(err))
	}

	result := &SweepRecordingsWorkflowResult{
		Found:    listed.Found,
		Ignored:  listed.Ignored,
		Archived: listed.Archived,
	}

	executions := make([]workflow.Future, len(listed.Params))
	for i, p := range listed.Params {
		childCtx := workflow.WithChildOptions(ctx, ingestChildWorkflowOptions(p.RecordingID))
		executions[i] = workflow.ExecuteChildWorkflow(childCtx, w.IngestRecordingWorkflow, p).GetChildWorkflowExecution()
	}

	for i, execution := range executions {
		recordingID := listed.Params[i].RecordingID

		err := execution.Get(ctx, nil)
		var alreadyStarted *temporal.ChildWorkflowExecutionAlreadyStartedError
		switch {
		case err == nil:
			result.Started++
		case errors.As(err, &alreadyStarted):
			result.AlreadyRunning++
		default:
			result.Failed++
			logger.Error("Failed to start ingest run", "recordingID", recordingID, "error", err)
		}
	}

	logger.Info("SweepRecordingsWorkflow completed",
		"found", result.Found,
		"ignored", result.Ignored,
		"archived", result.Archived,
		"started", result.Started,
		"alreadyRunning", result.AlreadyRunning,
		"failed", result.Failed)

	return result, nil
}

// ingestChildWorkflowOptions starts a sweep-found recording under the same
// workflow ID and reuse policy as a webhook delivery. The ingest run survives
// the sweep that started it.
func ingestChildWorkflowOptions(recordingID string) workflow.ChildWorkflowOptions {
	return workflow.ChildWorkflowOptions{
		WorkflowID:            service.IngestRecordingWorkflowID(recordingID),
		TaskQueue:             TaskQueue,
		WorkflowIDReusePolicy: ingestWorkflowIDReusePolicy,
		ParentClosePolicy:     enums.PARENT_CLOSE_POLICY_ABANDON,
	}
}
