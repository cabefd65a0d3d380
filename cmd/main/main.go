package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	temporalclient "go.temporal.io/sdk/client"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/handler"
	"github.com/instill-ai/recording-backend/pkg/middleware"
	"github.com/instill-ai/recording-backend/pkg/notification"
	"github.com/instill-ai/recording-backend/pkg/repository"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/transfer"
	"github.com/instill-ai/recording-backend/pkg/webhook"
	"github.com/instill-ai/recording-backend/pkg/worker"
	"github.com/instill-ai/recording-backend/pkg/zoom"

	applog "github.com/instill-ai/recording-backend/pkg/logger"
	database "github.com/instill-ai/recording-backend/pkg/db"
	otelx "github.com/instill-ai/x/otel"
)

const gracefulShutdownTimeout = 5 * time.Second

var (
	// These variables might be overridden at buildtime.
	serviceName    = "recording-backend"
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

	// The service starts workflows through the worker's wrappers; the worker
	// gets the service afterwards.
	cw, err := worker.New(worker.Config{
		SweepLookbackDays: config.Config.Sweep.LookbackDays,
	}, logger)
	if err != nil {
		logger.Fatal("Unable to create worker", zap.Error(err))
	}

	ingestCfg := config.Config.Ingest
	svc, err := service.NewService(
		repository.NewRepository(db, objectStorage),
		zoom.NewClient(config.Config.Zoom, logger),
		transfer.NewWorker(objectStorage, ingestCfg.Transfer, logger),
		notification.NewRedisDispatcher(redisClient, config.Config.Notification.QueueKey, logger),
		ingestCfg,
		worker.NewIngestRecordingWorkflow(temporalClient, cw),
		worker.NewReindexRecordingWorkflow(temporalClient, cw),
		worker.NewSweepRecordingsWorkflow(temporalClient, cw),
		logger,
	)
	if err != nil {
		logger.Fatal("Unable to create service", zap.Error(err))
	}
	cw.SetService(svc)

	authenticator, err := webhook.NewAuthenticator(
		config.Config.Zoom.AuthMode,
		config.Config.Zoom.WebhookSecret,
		webhook.WithTimestampTolerance(config.Config.Zoom.TimestampTolerance),
	)
	if err != nil {
		logger.Fatal("Unable to create webhook authenticator", zap.Error(err))
	}

	if !config.Config.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewHandler(svc, authenticator, config.Config.Zoom.WebhookSecret, logger)

	// The webhook faces the meeting platform; operator routes and metrics
	// stay on the private port.
	publicRouter := newRouter(logger)
	h.RegisterPublic(publicRouter)

	privateRouter := newRouter(logger)
	privateRouter.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.RegisterPrivate(privateRouter)

	publicHTTPServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Config.Server.PublicPort),
		Handler:           publicRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}
	privateHTTPServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.Config.Server.PrivatePort),
		Handler:           privateRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errSig := make(chan error, 2)

	go func() {
		logger.Info("Private HTTP server listening", zap.String("addr", privateHTTPServer.Addr))
		if err := privateHTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errSig <- fmt.Errorf("private server: %w", err)
		}
	}()

	go func() {
		logger.Info("Public HTTP server listening", zap.String("addr", publicHTTPServer.Addr))

		var err error
		if cert, key := config.Config.Server.HTTPS.Cert, config.Config.Server.HTTPS.Key; cert != "" && key != "" {
			err = publicHTTPServer.ListenAndServeTLS(cert, key)
		} else {
			err = publicHTTPServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errSig <- fmt.Errorf("public server: %w", err)
		}
	}()

	// Setup graceful shutdown on SIGTERM (kill) and SIGINT (Ctrl+C)
	quitSig := make(chan os.Signal, 1)
	signal.Notify(quitSig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errSig:
		logger.Error("HTTP server failed", zap.Error(err))
	case <-quitSig:
	}

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()
	for name, srv := range map[string]*http.Server{"public": publicHTTPServer, "private": privateHTTPServer} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.String("server", name), zap.Error(err))
		}
	}
}

func newRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())
	return router
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

	db := database.GetSharedConnection()
	closeFuncs["database"] = func() error {
		database.Close(db)
		return nil
	}

	redisClient := redis.NewClient(&config.Config.Cache.Redis.RedisOptions)
	closeFuncs["redis"] = redisClient.Close

	temporalClientOptions := temporalclient.Options{
		HostPort:  config.Config.Temporal.HostPort,
		Namespace: config.Config.Temporal.Namespace,
		Logger:    applog.NewTemporalLogger(logger),
	}
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

	objectStorage, err := object.NewStorage(ctx, config.Config, logger)
	if err != nil {
		logger.Fatal("failed to create object storage", zap.Error(err))
	}

	closer := func() {
		for conn, fn := range closeFuncs {
			if err := fn(); err != nil {
				logger.Error("Failed to close conn", zap.Error(err), zap.String("conn", conn))
			}
		}
	}

	return db, redisClient, objectStorage, temporalClient, closer
}
