package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/instill-ai/recording-backend/pkg/service"
	"github.com/instill-ai/recording-backend/pkg/webhook"
)

// Handler serves the HTTP API. The platform webhook is public; recording
// lookups and operator triggers are only mounted on the private listener.
type Handler struct {
	service       service.Service
	authenticator webhook.Authenticator
	webhookSecret string
	log           *zap.Logger
}

// NewHandler initiates a handler instance. The webhook secret signs the
// endpoint validation challenge.
func NewHandler(s service.Service, auth webhook.Authenticator, webhookSecret string, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		service:       s,
		authenticator: auth,
		webhookSecret: webhookSecret,
		log:           log,
	}
}

// GetService returns the service
func (h *Handler) GetService() service.Service {
	return h.service
}

// SetService sets the service
func (h *Handler) SetService(s service.Service) {
	h.service = s
}

// RegisterPublic mounts the routes reachable by the meeting platform.
func (h *Handler) RegisterPublic(r gin.IRouter) {
	h.registerHealth(r)

	r.POST("/v1/webhooks/zoom", h.ZoomWebhook)
}

// RegisterPrivate mounts the operator routes. They carry no authentication
// and must only be served on the private port.
func (h *Handler) RegisterPrivate(r gin.IRouter) {
	h.registerHealth(r)

	r.GET("/v1/recordings/:id", h.GetRecording)
	r.POST("/v1/recordings/:id/reindex", h.ReindexRecording)
	r.POST("/v1/sweeps", h.SweepRecordings)
}

func (h *Handler) registerHealth(r gin.IRouter) {
	r.GET("/v1/health/liveness", h.Liveness)
	r.GET("/v1/health/readiness", h.Readiness)
}

const servingStatus = "SERVING_STATUS_SERVING"

// Liveness handles GET /v1/health/liveness.
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, Body{Success: true, Data: gin.H{"status": servingStatus}})
}

// Readiness handles GET /v1/health/readiness.
func (h *Handler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, Body{Success: true, Data: gin.H{"status": servingStatus}})
}
