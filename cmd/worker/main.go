package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
	"gorm.io/gorm"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/notification"
	"github.com/instill-ai/recording-backend/pkg/repository"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/transfer"
	"github.com/instill-ai/recording-backend/pkg/zoom"

	applog "github.com/instill-ai/recording-backend/pkg/logger"
	database "github.com/instill-ai/recording-backend/pkg/db"
	recordingworker "github.com/instill-ai/recording-backend/pkg/worker"
	otelx "github.com/instill-ai/x/otel"
)

const gracefulShutdownWaitPeriod = 15 * time.Second // Wait period before stopping worker
const gracefulShutdownTimeout = 2 * time.Hour       // A transfer may stream for this long

var (
	// These variables might be overridden at buildtime.
	serviceName    = "recording-backend-worker"
	serviceVersion = "dev"
)

func main() {
	if err := config.Init(config.ParseConfigFlag()); err != nil {
		log.Fatal(err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup all OpenTelemetry components
	cleanup := otelx.SetupWithCleanup(ctx,
		otelx.WithServiceName(serviceName),
		otelx.WithServiceVersion(serviceVersion),
		otelx.WithHost(config.Config.OTELCollector.Host),
		otelx.WithPort(config.Config.OTELCollector.Port),
		otelx.WithCollectorEnable(config.Config.OTELCollector.Enable),
	)
	defer cleanup()

	logger, _ := applog.GetZapLogger(ctx)
	defer func() {
		// can't handle the error due to https://github.com/uber-go/zap/issues/880
		_ = logger.Sync()
	}()

	db, redisClient, objectStorage, temporalClient, closeClients := newClients(ctx, logger)
	defer closeClients()

	ingestCfg := config.Config.Ingest
	cw, err := recordingworker.New(recordingworker.Config{
		SweepLookbackDays: config.Config.Sweep.LookbackDays,
	}, logger)
	if err != nil {
		logger.Fatal("Unable to create worker", zap.Error(err))
	}

	svc, err := service.NewService(
		repository.NewRepository(db, objectStorage),
		zoom.NewClient(config.Config.Zoom, logger),
		transfer.NewWorker(objectStorage, ingestCfg.Transfer, logger),
		notification.NewRedisDispatcher(redisClient, config.Config.Notification.QueueKey, logger),
		ingestCfg,
		recordingworker.NewIngestRecordingWorkflow(temporalClient, cw),
		recordingworker.NewReindexRecordingWorkflow(temporalClient, cw),
		recordingworker.NewSweepRecordingsWorkflow(temporalClient, cw),
		logger,
	)
	if err != nil {
		logger.Fatal("Unable to create service", zap.Error(err))
	}
	cw.SetService(svc)

	w := worker.New(temporalClient, recordingworker.TaskQueue, worker.Options{
		WorkflowPanicPolicy:                    worker.BlockWorkflow,
		WorkerStopTimeout:                      gracefulShutdownTimeout,
		MaxConcurrentWorkflowTaskExecutionSize: 100,
		Interceptors: func() []interceptor.WorkerInterceptor {
			if !config.Config.OTELCollector.Enable {
				return nil
			}
			workerInterceptor, err := opentelemetry.NewTracingInterceptor(opentelemetry.TracerOptions{
				Tracer:            otel.Tracer(serviceName),
				TextMapPropagator: otel.GetTextMapPropagator(),
			})
			if err != nil {
				logger.Fatal("Unable to create worker tracing interceptor", zap.Error(err))
			}
			return []interceptor.WorkerInterceptor{workerInterceptor}
		}(),
	})

	// ===== Workflow Registrations =====

	w.RegisterWorkflow(cw.IngestRecordingWorkflow)  // Metadata, file fan-out, document, notification
	w.RegisterWorkflow(cw.ReindexRecordingWorkflow) // Re-persist and re-notify an archived document
	w.RegisterWorkflow(cw.SweepRecordingsWorkflow)  // Start ingestion of recent recordings missed by the webhook

	// ===== IngestRecordingWorkflow Activities =====

	w.RegisterActivity(cw.FetchRunMetadataActivity)      // Past meeting, parent meeting, raw snapshots
	w.RegisterActivity(cw.TransferFileActivity)          // One file into durable storage
	w.RegisterActivity(cw.PersistDocumentActivity)       // Document blob and record-store row
	w.RegisterActivity(cw.NotifyDocumentActivity)        // Downstream queue
	w.RegisterActivity(cw.DeleteSourceRecordingActivity) // Trash the cloud recording

	// ===== ReindexRecordingWorkflow Activities =====

	w.RegisterActivity(cw.LoadDocumentActivity) // Read the stored document blob

	// ===== SweepRecordingsWorkflow Activities =====

	w.RegisterActivity(cw.ListRecordingsToIngestActivity) // List, admit and skip archived recordings

	if err := w.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("Unable to start worker: %s", err))
	}

	logger.Info("Temporal worker started successfully and is polling for tasks")

	// The sweep cron is a singleton: a fixed workflow ID keeps one schedule
	// per namespace no matter how many workers start it.
	if schedule := config.Config.Sweep.CronSchedule; schedule != "" {
		go func() {
			workflowOptions := temporalclient.StartWorkflowOptions{
				ID:                    recordingworker.SweepRecordingsCronWorkflowID,
				TaskQueue:             recordingworker.TaskQueue,
				CronSchedule:          schedule,
				WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
			}

			logger.Info("Starting sweep cron workflow (singleton)", zap.String("schedule", schedule))
			_, err := temporalClient.ExecuteWorkflow(context.Background(), workflowOptions,
				cw.SweepRecordingsWorkflow, service.SweepRecordingsWorkflowParam{})
			if err != nil {
				logger.Error("Failed to start sweep cron workflow", zap.Error(err))
			} else {
				logger.Info("Sweep cron workflow started successfully")
			}
		}()
	}

	// Setup graceful shutdown on SIGTERM (kill) and SIGINT (Ctrl+C)
	quitSig := make(chan os.Signal, 1)
	signal.Notify(quitSig, syscall.SIGINT, syscall.SIGTERM)

	// Block until shutdown signal received
	<-quitSig

	logger.Info("Shutdown signal received, waiting for in-flight activities to complete...")
	time.Sleep(gracefulShutdownWaitPeriod)

	logger.Info("Shutting down worker...")
	w.Stop()
}

// newClients initializes all external service clients and returns a cleanup function
func newClients(ctx context.Context, logger *zap.Logger) (
	*gorm.DB,
	*redis.Client,
	object.Storage,
	temporalclient.Client,
	func(),
) {
	closeFuncs := map[string]func() error{}

	// Initialize PostgreSQL database connection (for recording documents)
	db := database.GetSharedConnection()
	closeFuncs["database"] = func() error {
		database.Close(db)
		return nil
	}

	// Initialize Redis client (for the notification queue)
	redisClient := redis.NewClient(&config.Config.Cache.Redis.RedisOptions)
	closeFuncs["redis"] = redisClient.Close

	// Initialize Temporal client (for workflow orchestration)
	temporalClientOptions := temporalclient.Options{
		HostPort:  config.Config.Temporal.HostPort,
		Namespace: config.Config.Temporal.Namespace,
		Logger:    applog.NewTemporalLogger(logger),
	}

	// Add OpenTelemetry tracing interceptor if enabled
	if config.Config.OTELCollector.Enable {
		temporalTracingInterceptor, err := opentelemetry.NewTracingInterceptor(opentelemetry.TracerOptions{
			Tracer:            otel.Tracer(serviceName),
			TextMapPropagator: otel.GetTextMapPropagator(),
		})
		if err != nil {
			logger.Fatal("Unable to create temporal tracing interceptor", zap.Error(err))
		}
		temporalClientOptions.Interceptors = []interceptor.ClientInterceptor{temporalTracingInterceptor}
	}

	temporalClient, err := temporalclient.Dial(temporalClientOptions)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	closeFuncs["temporal"] = func() error {
		temporalClient.Close()
		return nil
	}

	// Initialize object storage (MinIO or S3, for recording files and documents)
	objectStorage, err := object.NewStorage(ctx, config.Config, logger)
	if err != nil {
		logger.Fatal("failed to create object storage", zap.Error(err))
	}
	logger.Info("Object storage initialized successfully",
		zap.String("provider", config.Config.Storage.Provider),
		zap.String("bucket", objectStorage.GetBucket()))

	// Return all clients and a cleanup function that closes all connections
	closer := func() {
		for conn, fn := range closeFuncs {
			if err := fn(); err != nil {
				logger.Error("Failed to close conn", zap.Error(err), zap.String("conn", conn))
			}
		}
	}

	return db, redisClient, objectStorage, temporalClient, closer
}
