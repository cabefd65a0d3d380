package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator"

	"github.com/instill-ai/recording-backend/pkg/constant"
	"github.com/instill-ai/recording-backend/pkg/types"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

var validate = validator.New()

// Envelope is the outer shape shared by every event type.
type Envelope struct {
	Event         string          `json:"event"`
	EventTS       int64           `json:"event_ts,omitempty"`
	Payload       json.RawMessage `json:"payload"`
	DownloadToken string          `json:"download_token,omitempty"`
}

// IsValidationProbe reports whether the delivery is the endpoint
// validation handshake.
func (e *Envelope) IsValidationProbe() bool {
	return e.Event == constant.EventEndpointURLValidation
}

// ParseEnvelope decodes a delivery body. Bodies that aren't JSON are
// base64-decoded first.
func ParseEnvelope(body []byte) (*Envelope, error) {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty body", errdomain.ErrMalformedInput)
	}

	if raw[0] != '{' {
		decoded, err := base64.StdEncoding.DecodeString(string(raw))
		if err != nil {
			return nil, fmt.Errorf("%w: body is neither JSON nor base64: %w", errdomain.ErrMalformedInput, err)
		}
		raw = bytes.TrimSpace(decoded)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding body: %w", errdomain.ErrMalformedInput, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event field", errdomain.ErrMalformedInput)
	}

	return &env, nil
}

// RecordingEvent validates the envelope as a recording event.
func (e *Envelope) RecordingEvent() (*types.RecordingEvent, error) {
	if e.Event != constant.EventRecordingCompleted {
		return nil, fmt.Errorf("%w: unexpected event type %q", errdomain.ErrMalformedInput, e.Event)
	}

	event := &types.RecordingEvent{
		Event:         e.Event,
		EventTS:       e.EventTS,
		DownloadToken: e.DownloadToken,
	}
	if len(e.Payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", errdomain.ErrMalformedInput)
	}
	if err := json.Unmarshal(e.Payload, &event.Payload); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %w", errdomain.ErrMalformedInput, err)
	}

	if err := ValidateRecordingEvent(event); err != nil {
		return nil, err
	}

	return event, nil
}

// ValidateRecordingEvent checks the fields the pipeline relies on.
func ValidateRecordingEvent(event *types.RecordingEvent) error {
	if err := validate.Struct(event); err != nil {
		return fmt.Errorf("%w: %w", errdomain.ErrMalformedInput, err)
	}
	return nil
}

// ChallengeResponse answers the endpoint validation handshake.
type ChallengeResponse struct {
	PlainToken     string `json:"plainToken"`
	EncryptedToken string `json:"encryptedToken"`
}

// Challenge echoes the probe's plain token with its HMAC-SHA256 hex digest.
func (e *Envelope) Challenge(secret string) (*ChallengeResponse, error) {
	var payload struct {
		PlainToken string `json:"plainToken"`
	}
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding validation payload: %w", errdomain.ErrMalformedInput, err)
	}
	if payload.PlainToken == "" {
		return nil, fmt.Errorf("%w: missing plainToken", errdomain.ErrMalformedInput)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload.PlainToken))

	return &ChallengeResponse{
		PlainToken:     payload.PlainToken,
		EncryptedToken: hex.EncodeToString(mac.Sum(nil)),
	}, nil
}
