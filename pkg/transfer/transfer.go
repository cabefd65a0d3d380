// Package transfer copies one remote recording file into durable storage.
package transfer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dustin/go-humanize"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/config"
	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/repository/object"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

const (
	defaultMaxAttempts    = 4
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = 30 * time.Second
	defaultPartSize       = 16 * constant.MB

	responseHeaderTimeout = time.Minute
)

// Transferer copies the file described by a task and returns its receipt.
type Transferer interface {
	Transfer(ctx context.Context, task types.FileTransferTask) (*types.FileTransferReceipt, error)
}

// Worker streams files from their HTTP source into object storage. The
// download is never buffered whole: the response body is handed to a
// multipart upload with fixed-size parts.
type Worker struct {
	client  *resty.Client
	storage object.Storage
	cfg     config.TransferConfig
	log     *zap.Logger
}

// NewWorker creates a transfer worker. Zero config values get defaults.
func NewWorker(storage object.Storage, cfg config.TransferConfig, log *zap.Logger) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = defaultMaxBackoff
	}
	if cfg.PartSize == 0 {
		cfg.PartSize = defaultPartSize
	}

	client := resty.New().
		SetLogger(log.Sugar()).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetTransport(&http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConnsPerHost:   8,
		})

	return &Worker{
		client:  client,
		storage: storage,
		cfg:     cfg,
		log:     log,
	}
}

// Transfer implements Transferer.
func (w *Worker) Transfer(ctx context.Context, task types.FileTransferTask) (receipt *types.FileTransferReceipt, err error) {
	log := w.log.With(
		zap.String("recording_id", task.RecordingID),
		zap.String("key", task.Key),
		zap.String("recording_type", task.RecordingType),
	)

	start := time.Now()
	defer func() {
		durationSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			filesTotal.WithLabelValues("failure").Inc()
			return
		}
		filesTotal.WithLabelValues("success").Inc()
	}()

	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	body, contentLength, err := w.open(ctx, task, log)
	if err != nil {
		log.Error("Failed to open download", zap.Error(err))
		return nil, fmt.Errorf("%w: downloading %s: %w", errdomain.ErrTransfer, task.Key, err)
	}
	defer body.Close()

	log.Info("Streaming file into storage",
		zap.String("object", task.ObjectName()),
		zap.String("declared_size", humanize.Bytes(uint64(max(task.DeclaredSize, 0)))),
		zap.Int64("content_length", contentLength))

	tags := map[string]string{
		constant.OrganizationTagKey: strings.ToLower(task.Organization),
	}

	counter := &countingReader{r: body}
	info, err := w.storage.PutObject(ctx, task.ObjectName(), counter, contentLength, object.PutOptions{
		ContentType: task.MIMEType,
		UserMetadata: map[string]string{
			"recording-id":   task.RecordingID,
			"recording-type": task.RecordingType,
			"source-file-id": task.SourceFileID,
		},
		Tags:     tags,
		PartSize: w.cfg.PartSize,
	})
	if err != nil {
		log.Error("Failed to store file", zap.Error(err))
		return nil, fmt.Errorf("%w: storing %s: %w", errdomain.ErrTransfer, task.Key, err)
	}

	size := info.Size
	if size <= 0 {
		size = counter.n
	}

	receipt = &types.FileTransferReceipt{
		Key:            task.Key,
		RecordingType:  task.RecordingType,
		Location:       info.Location,
		ETag:           info.ETag,
		Size:           size,
		SourceFileSize: task.DeclaredSize,
		MIMEType:       task.MIMEType,
	}

	record := transferRecord{
		Task:          task.Redacted(),
		Receipt:       receipt,
		TransferredAt: time.Now().UTC(),
	}
	if _, err := object.PutJSON(ctx, w.storage, task.ObjectName()+constant.MetadataObjectSuffix, record, tags); err != nil {
		log.Error("Failed to store transfer record", zap.Error(err))
		return nil, fmt.Errorf("%w: storing transfer record for %s: %w", errdomain.ErrTransfer, task.Key, err)
	}

	bytesTotal.WithLabelValues(task.RecordingType).Add(float64(size))
	if task.DeclaredSize > 0 && task.DeclaredSize != size {
		log.Warn("Stored size differs from declared size",
			zap.Int64("declared_size", task.DeclaredSize),
			zap.Int64("size", size))
	}

	log.Info("File transferred",
		zap.String("etag", receipt.ETag),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.Duration("elapsed", time.Since(start)))

	return receipt, nil
}

// transferRecord is the auxiliary metadata object written next to a file.
type transferRecord struct {
	Task          types.FileTransferTask     `json:"task"`
	Receipt       *types.FileTransferReceipt `json:"receipt"`
	TransferredAt time.Time                  `json:"transferred_at"`
}

// StatusError is a non-success response of the file source.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// open establishes the download, retrying transient failures with capped
// exponential backoff. Once a 2xx response is returned the body belongs to
// the caller; a failure while streaming fails the whole attempt.
func (w *Worker) open(ctx context.Context, task types.FileTransferTask, log *zap.Logger) (io.ReadCloser, int64, error) {
	var body io.ReadCloser
	var contentLength int64

	operation := func() error {
		resp, err := w.client.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			SetAuthToken(task.DownloadToken).
			Get(task.DownloadURL)
		if err != nil {
			closeRawBody(resp)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}

		if resp.IsSuccess() {
			body = resp.RawBody()
			contentLength = resp.RawResponse.ContentLength
			return nil
		}

		closeRawBody(resp)
		statusErr := &StatusError{StatusCode: resp.StatusCode()}
		if statusErr.Retryable() {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}

	notify := func(err error, wait time.Duration) {
		retriesTotal.Inc()
		log.Warn("Download attempt failed, retrying",
			zap.Error(err),
			zap.Duration("wait", wait))
	}

	if err := backoff.RetryNotify(operation, w.backoff(ctx), notify); err != nil {
		return nil, 0, err
	}

	return body, contentLength, nil
}

func (w *Worker) backoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.InitialBackoff
	b.MaxInterval = w.cfg.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(w.cfg.MaxAttempts-1)), ctx)
}

func closeRawBody(resp *resty.Response) {
	if resp == nil || resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.RawResponse.Body, 64*constant.KB))
	_ = resp.RawResponse.Body.Close()
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
