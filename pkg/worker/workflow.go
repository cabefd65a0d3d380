package worker

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/instill-ai/recording-backend/pkg/service"

	errorsx "github.com/instill-ai/x/errors"
)

// SweepRecordingsCronWorkflowID is the ID of the scheduled sweep singleton.
const SweepRecordingsCronWorkflowID = "sweep-recordings-cron"

// ingestWorkflowIDReusePolicy lets a closed ingest run, successful or not, be
// started again by a later delivery or sweep.
const ingestWorkflowIDReusePolicy = enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE

type ingestRecordingWorkflow struct {
	temporalClient client.Client
	worker         *Worker
}

// NewIngestRecordingWorkflow creates a new IngestRecordingWorkflow instance
func NewIngestRecordingWorkflow(temporalClient client.Client, worker *Worker) service.IngestRecordingWorkflow {
	return &ingestRecordingWorkflow{
		temporalClient: temporalClient,
		worker:         worker,
	}
}

// Execute starts the run of the recording. A delivery that arrives while a
// run with the same ID is open attaches to it instead of failing.
func (w *ingestRecordingWorkflow) Execute(ctx context.Context, param service.IngestRecordingWorkflowParam) (*service.WorkflowRun, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:                                       service.IngestRecordingWorkflowID(param.RecordingID),
		TaskQueue:                                TaskQueue,
		WorkflowIDReusePolicy:                    ingestWorkflowIDReusePolicy,
		WorkflowExecutionErrorWhenAlreadyStarted: false,
	}

	run, err := w.temporalClient.ExecuteWorkflow(ctx, workflowOptions, w.worker.IngestRecordingWorkflow, param)
	if err != nil {
		return nil, fmt.Errorf("failed to start ingest recording workflow: %s", errorsx.MessageOrErr(err))
	}

	return &service.WorkflowRun{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

type reindexRecordingWorkflow struct {
	temporalClient client.Client
	worker         *Worker
}

// NewReindexRecordingWorkflow creates a new ReindexRecordingWorkflow instance
func NewReindexRecordingWorkflow(temporalClient client.Client, worker *Worker) service.ReindexRecordingWorkflow {
	return &reindexRecordingWorkflow{
		temporalClient: temporalClient,
		worker:         worker,
	}
}

func (w *reindexRecordingWorkflow) Execute(ctx context.Context, param service.ReindexRecordingWorkflowParam) (*service.WorkflowRun, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:                    service.ReindexRecordingWorkflowID(param.RecordingID),
		TaskQueue:             TaskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}

	run, err := w.temporalClient.ExecuteWorkflow(ctx, workflowOptions, w.worker.ReindexRecordingWorkflow, param)
	if err != nil {
		return nil, fmt.Errorf("failed to start reindex recording workflow: %s", errorsx.MessageOrErr(err))
	}

	return &service.WorkflowRun{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}

type sweepRecordingsWorkflow struct {
	temporalClient client.Client
	worker         *Worker
}

// NewSweepRecordingsWorkflow creates a new SweepRecordingsWorkflow instance
func NewSweepRecordingsWorkflow(temporalClient client.Client, worker *Worker) service.SweepRecordingsWorkflow {
	return &sweepRecordingsWorkflow{
		temporalClient: temporalClient,
		worker:         worker,
	}
}

func (w *sweepRecordingsWorkflow) Execute(ctx context.Context, param service.SweepRecordingsWorkflowParam) (*service.WorkflowRun, error) {
	workflowOptions := client.StartWorkflowOptions{
		ID:        fmt.Sprintf("sweep-recordings-%d", time.Now().UnixNano()),
		TaskQueue: TaskQueue,
	}

	run, err := w.temporalClient.ExecuteWorkflow(ctx, workflowOptions, w.worker.SweepRecordingsWorkflow, param)
	if err != nil {
		return nil, fmt.Errorf("failed to start sweep recordings workflow: %s", errorsx.MessageOrErr(err))
	}

	return &service.WorkflowRun{WorkflowID: run.GetID(), RunID: run.GetRunID()}, nil
}
