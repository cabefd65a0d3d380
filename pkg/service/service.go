package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/notification"
	"github.com/instill-ai/recording-backend/pkg/repository"
	"github.com/instill-ai/recording-backend/pkg/transfer"
	"github.com/instill-ai/recording-backend/pkg/types"
	"github.com/instill-ai/recording-backend/pkg/zoom"
)

// Workflow parameter types - the worker package registers workflows that take
// these as input.

// IngestRecordingWorkflowParam defines the parameters for the
// IngestRecordingWorkflow.
type IngestRecordingWorkflowParam struct {
	RecordingID string
	Event       types.RecordingEvent
	// DeleteSource moves the cloud recording to trash once the document is
	// persisted.
	DeleteSource bool
}

// ReindexRecordingWorkflowParam defines the parameters for the
// ReindexRecordingWorkflow.
type ReindexRecordingWorkflowParam struct {
	RecordingID string
}

// SweepRecordingsWorkflowParam defines the parameters for the
// SweepRecordingsWorkflow. A zero LookbackDays uses the configured value.
type SweepRecordingsWorkflowParam struct {
	LookbackDays int
}

// WorkflowRun identifies a started workflow execution.
type WorkflowRun struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
}

// Workflow interfaces - implemented by the worker package on top of the
// Temporal client.

// IngestRecordingWorkflow interface
type IngestRecordingWorkflow interface {
	Execute(ctx context.Context, param IngestRecordingWorkflowParam) (*WorkflowRun, error)
}

// ReindexRecordingWorkflow interface
type ReindexRecordingWorkflow interface {
	Execute(ctx context.Context, param ReindexRecordingWorkflowParam) (*WorkflowRun, error)
}

// SweepRecordingsWorkflow interface
type SweepRecordingsWorkflow interface {
	Execute(ctx context.Context, param SweepRecordingsWorkflowParam) (*WorkflowRun, error)
}

// IngestRecordingWorkflowID is the deterministic workflow ID of a run. Two
// deliveries of the same recording map to the same ID.
func IngestRecordingWorkflowID(recordingID string) string {
	return "ingest-recording-" + recordingID
}

// ReindexRecordingWorkflowID is the workflow ID of a reindex request.
func ReindexRecordingWorkflowID(recordingID string) string {
	return "reindex-recording-" + recordingID
}

// Service defines the recording ingestion use cases.
type Service interface {
	AdmitEvent(context.Context, *types.RecordingEvent) (*Admission, error)
	FetchRunMetadata(context.Context, string, *types.RecordingEvent) (*types.RecordingRun, error)
	TransferFile(context.Context, types.FileTransferTask) (*types.FileTransferReceipt, error)
	PersistDocument(context.Context, *types.RecordingDocument) error
	LoadDocument(context.Context, string) (*types.RecordingDocument, error)
	GetDocument(context.Context, string) (*types.RecordingDocument, error)
	NotifyDocument(context.Context, *types.RecordingDocument) error
	DeleteSourceRecording(context.Context, string) error
	ListRecentRecordings(context.Context, time.Time, time.Time) ([]types.RecordingEvent, error)

	TriggerIngestRecording(context.Context, *types.RecordingEvent) (*WorkflowRun, error)
	TriggerReindexRecording(context.Context, string) (*WorkflowRun, error)
	TriggerSweepRecordings(context.Context, int) (*WorkflowRun, error)

	Repository() repository.Repository
	IngestConfig() config.IngestConfig
}

type service struct {
	repository repository.Repository
	zoom       zoom.MetadataSource
	transfer   transfer.Transferer
	dispatcher notification.Dispatcher
	ingestCfg  config.IngestConfig
	archiveLoc *time.Location
	log        *zap.Logger

	// Workflow implementations
	ingestRecordingWorkflow  IngestRecordingWorkflow
	reindexRecordingWorkflow ReindexRecordingWorkflow
	sweepRecordingsWorkflow  SweepRecordingsWorkflow
}

// NewService initiates a service instance
func NewService(
	r repository.Repository,
	zc zoom.MetadataSource,
	t transfer.Transferer,
	d notification.Dispatcher,
	ingestCfg config.IngestConfig,
	ingestRecordingWorkflow IngestRecordingWorkflow,
	reindexRecordingWorkflow ReindexRecordingWorkflow,
	sweepRecordingsWorkflow SweepRecordingsWorkflow,
	log *zap.Logger,
) (Service, error) {
	loc, err := ingestCfg.ArchiveLocation()
	if err != nil {
		return nil, fmt.Errorf("loading archive time zone: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &service{
		repository:               r,
		zoom:                     zc,
		transfer:                 t,
		dispatcher:               d,
		ingestCfg:                ingestCfg,
		archiveLoc:               loc,
		log:                      log,
		ingestRecordingWorkflow:  ingestRecordingWorkflow,
		reindexRecordingWorkflow: reindexRecordingWorkflow,
		sweepRecordingsWorkflow:  sweepRecordingsWorkflow,
	}, nil
}

func (s *service) Repository() repository.Repository { return s.repository }
func (s *service) IngestConfig() config.IngestConfig { return s.ingestCfg }

// TransferFile copies one file into durable storage.
func (s *service) TransferFile(ctx context.Context, task types.FileTransferTask) (*types.FileTransferReceipt, error) {
	return s.transfer.Transfer(ctx, task)
}
