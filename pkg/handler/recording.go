package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"

	errdomain "github.com/instill-ai/recording-backend/pkg/errors"
)

// GetRecording handles GET /v1/recordings/:id. The meeting passcode is
// never returned.
func (h *Handler) GetRecording(c *gin.Context) {
	recordingID, err := recordingIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), recordingID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	redacted := *doc
	redacted.Password = ""

	c.JSON(http.StatusOK, Body{Success: true, Data: &redacted})
}

// ReindexRecording handles POST /v1/recordings/:id/reindex.
func (h *Handler) ReindexRecording(c *gin.Context) {
	recordingID, err := recordingIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	run, err := h.service.TriggerReindexRecording(c.Request.Context(), recordingID)
	if err != nil {
		h.log.Error("Failed to start reindex",
			zap.String("recording_id", recordingID),
			zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, Body{Success: true, Data: run})
}

// SweepRequest is the optional body of POST /v1/sweeps.
type SweepRequest struct {
	LookbackDays int `json:"lookback_days"`
}

// SweepRecordings handles POST /v1/sweeps. An empty body sweeps the
// configured lookback window.
func (h *Handler) SweepRecordings(c *gin.Context) {
	var req SweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, fmt.Errorf("%w: decoding body: %w", errdomain.ErrMalformedInput, err))
			return
		}
	}

	run, err := h.service.TriggerSweepRecordings(c.Request.Context(), req.LookbackDays)
	if err != nil {
		h.log.Error("Failed to start sweep", zap.Error(err))
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, Body{Success: true, Data: run})
}

func recordingIDParam(c *gin.Context) (string, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return "", fmt.Errorf("%w: invalid recording id %q", errdomain.ErrMalformedInput, c.Param("id"))
	}
	return id.String(), nil
}
