// Package notification delivers archived recording documents to the
// downstream publishing process.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// Dispatcher sends a persisted document downstream. Delivery is
// at-least-once: consumers deduplicate on Message.ID, which is the
// recording_id.
type Dispatcher interface {
	Notify(ctx context.Context, doc *types.RecordingDocument) error
}

// Message is the queue envelope.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Document decodes the envelope payload.
func (m *Message) Document() (*types.RecordingDocument, error) {
	var doc types.RecordingDocument
	if err := json.Unmarshal(m.Payload, &doc); err != nil {
		return nil, fmt.Errorf("decoding notification payload: %w", err)
	}
	return &doc, nil
}

type attemptKey struct{}

// ContextWithAttempt records the delivery attempt number carried in the
// envelope. Consumers use it to tell redeliveries apart.
func ContextWithAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey{}, attempt)
}

func attemptFromContext(ctx context.Context) int {
	if attempt, ok := ctx.Value(attemptKey{}).(int); ok && attempt > 0 {
		return attempt
	}
	return 1
}

// RedisDispatcher pushes messages onto a Redis list.
type RedisDispatcher struct {
	client   *redis.Client
	queueKey string
	logger   *zap.Logger
}

// NewRedisDispatcher creates a Redis-backed dispatcher.
func NewRedisDispatcher(client *redis.Client, queueKey string, logger *zap.Logger) *RedisDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisDispatcher{
		client:   client,
		queueKey: queueKey,
		logger:   logger,
	}
}

// Notify implements Dispatcher.
func (d *RedisDispatcher) Notify(ctx context.Context, doc *types.RecordingDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: marshalling document: %w", errdomain.ErrNotification, err)
	}

	msg := Message{
		ID:        doc.RecordingID,
		Type:      constant.NotificationTypeRecordingArchived,
		Payload:   body,
		Attempt:   attemptFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: marshalling message: %w", errdomain.ErrNotification, err)
	}

	if err := d.client.RPush(ctx, d.queueKey, raw).Err(); err != nil {
		return fmt.Errorf("%w: rpush: %w", errdomain.ErrNotification, err)
	}

	d.logger.Debug("Enqueued recording notification",
		zap.String("recording_id", doc.RecordingID),
		zap.String("queue", d.queueKey))

	return nil
}

// Receive pops the next message, waiting up to timeout. It returns nil
// without error when the queue stayed empty.
func (d *RedisDispatcher) Receive(ctx context.Context, timeout time.Duration) (*Message, error) {
	res, err := d.client.BLPop(ctx, timeout, d.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("blpop: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected blpop result length %d", len(res))
	}

	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}

	return &msg, nil
}
