package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/webhook"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// maxWebhookBodyBytes bounds a delivery. Recording events are a few KiB.
const maxWebhookBodyBytes = 1 << 20

// Webhook response statuses.
const (
	WebhookStatusAccepted = "accepted"
	WebhookStatusIgnored  = "ignored"
)

// WebhookResponse is the data of an admitted or ignored delivery.
type WebhookResponse struct {
	Status      string `json:"status"`
	RecordingID string `json:"recording_id"`
	Reason      string `json:"reason,omitempty"`
	WorkflowID  string `json:"workflow_id,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

// ZoomWebhook handles POST /v1/webhooks/zoom. The endpoint validation
// handshake is answered before authentication; every other delivery must
// authenticate before it's parsed as a recording event.
func (h *Handler) ZoomWebhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: reading body: %w", errdomain.ErrMalformedInput, err))
		return
	}
	if len(body) > maxWebhookBodyBytes {
		abortWithError(c, fmt.Errorf("%w: body exceeds %d bytes", errdomain.ErrMalformedInput, maxWebhookBodyBytes))
		return
	}

	envelope, err := webhook.ParseEnvelope(body)
	if err != nil {
		h.log.Info("Rejected webhook delivery", zap.Error(err))
		abortWithError(c, err)
		return
	}

	if envelope.IsValidationProbe() {
		challenge, err := envelope.Challenge(h.webhookSecret)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, challenge)
		return
	}

	if err := h.authenticator.Authenticate(c.Request.Header, body); err != nil {
		h.log.Warn("Unauthenticated webhook delivery",
			zap.String("event", envelope.Event),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	event, err := envelope.RecordingEvent()
	if err != nil {
		h.log.Info("Rejected webhook delivery",
			zap.String("event", envelope.Event),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	admission, err := h.service.AdmitEvent(ctx, event)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !admission.Accepted {
		c.JSON(http.StatusOK, Body{Success: true, Data: WebhookResponse{
			Status:      WebhookStatusIgnored,
			RecordingID: admission.RecordingID,
			Reason:      admission.Reason,
		}})
		return
	}

	run, err := h.service.TriggerIngestRecording(ctx, event)
	if err != nil {
		h.log.Error("Failed to start ingestion",
			zap.String("recording_id", admission.RecordingID),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	h.log.Info("Ingestion started",
		zap.String("recording_id", admission.RecordingID),
		zap.String("workflow_id", run.WorkflowID),
		zap.String("run_id", run.RunID))

	c.JSON(http.StatusOK, Body{Success: true, Data: WebhookResponse{
		Status:      WebhookStatusAccepted,
		RecordingID: admission.RecordingID,
		WorkflowID:  run.WorkflowID,
		RunID:       run.RunID,
	}})
}
