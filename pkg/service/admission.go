package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// Admission is the outcome of AdmitEvent. A rejected admission is not an
// error: the event is well-formed but intentionally not archived.
type Admission struct {
	Accepted    bool
	Reason      string
	RecordingID string
}

// AdmitEvent checks the event type and applies the duration floor. The floor
// is compared in minutes, the unit of the platform's duration field.
func (s *service) AdmitEvent(ctx context.Context, event *types.RecordingEvent) (*Admission, error) {
	if event.Event != constant.EventRecordingCompleted {
		return nil, fmt.Errorf("%w: unexpected event type %q", errdomain.ErrMalformedInput, event.Event)
	}

	recordingID, err := DeriveRunIdentity(event.Payload.Object.UUID)
	if err != nil {
		return nil, err
	}

	log := s.log.With(zap.String("recording_id", recordingID))

	duration := event.Payload.Object.Duration
	if floor := s.ingestCfg.MinimumDurationMinutes; duration < floor {
		reason := fmt.Sprintf("recording lasted %d minutes, the minimum is %d", duration, floor)
		log.Info("Recording ignored", zap.String("reason", reason))
		return &Admission{
			Accepted:    false,
			Reason:      reason,
			RecordingID: recordingID,
		}, nil
	}

	log.Info("Recording admitted",
		zap.String("topic", event.Payload.Object.Topic),
		zap.Int("duration", duration),
		zap.Int("files", len(event.Payload.Object.RecordingFiles)))

	return &Admission{
		Accepted:    true,
		RecordingID: recordingID,
	}, nil
}
