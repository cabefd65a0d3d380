package worker

import (
	"time"

	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/service"
)

// TaskQueue is the Temporal task queue name for all workflows and activities.
const TaskQueue = "recording-backend"

// ActivityTimeoutStandard is timeout for normal activities. ActivityTimeoutLong is for the sweep listing.
// ActivityTimeoutTransfer bounds a single file copy, which streams up to several GB.
const (
	ActivityTimeoutStandard = 5 * time.Minute  // API calls, DB, small objects
	ActivityTimeoutLong     = 10 * time.Minute // Listing every user's recordings
	ActivityTimeoutTransfer = 2 * time.Hour    // One recording file
)

// TransferHeartbeatInterval is how often a running transfer reports progress.
// TransferHeartbeatTimeout lets the server reschedule a transfer whose worker died.
const (
	TransferHeartbeatInterval = 20 * time.Second
	TransferHeartbeatTimeout  = time.Minute
)

// RetryInitialInterval, RetryBackoffCoefficient, RetryMaximumInterval*, and RetryMaximumAttempts control retry behavior.
const (
	RetryInitialInterval         = 1 * time.Second   // Prevents retry storms
	RetryBackoffCoefficient      = 2.0               // Exponential: 1s→2s→4s
	RetryMaximumIntervalStandard = 30 * time.Second  // Transient failures
	RetryMaximumIntervalLong     = 100 * time.Second // Service recovery
	RetryMaximumAttempts         = 3                 // 3 attempts = ~7s max
	// TransferMaximumAttempts covers worker loss only. Download retries
	// happen inside the activity.
	TransferMaximumAttempts = 2
)

// defaultSweepLookbackDays is used when neither the request nor the config
// sets a lookback.
const defaultSweepLookbackDays = 31

// Config defines the configuration for the worker
type Config struct {
	Service service.Service
	// SweepLookbackDays is the configured sweep window.
	SweepLookbackDays int
}

// Worker implements the Temporal worker with all workflows and activities
type Worker struct {
	service           service.Service
	sweepLookbackDays int
	log               *zap.Logger
}

// New creates a new worker instance
func New(config Config, log *zap.Logger) (*Worker, error) {
	if log == nil {
		log = zap.NewNop()
	}

	lookback := config.SweepLookbackDays
	if lookback <= 0 {
		lookback = defaultSweepLookbackDays
	}

	w := &Worker{
		service:           config.Service,
		sweepLookbackDays: lookback,
		log:               log,
	}
	return w, nil
}

// SetService updates the worker's service instance.
// This is used during initialization to resolve the circular dependency
// between Worker, workflow wrappers, and Service.
func (w *Worker) SetService(svc service.Service) {
	w.service = svc
}
