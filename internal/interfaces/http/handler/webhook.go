package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appsync "github.com/erp/bridge/internal/application/sync"
	syncdomain "github.com/erp/bridge/internal/domain/sync"
	"github.com/erp/bridge/internal/infrastructure/commerce"
	"github.com/erp/bridge/internal/interfaces/http/dto"
)

// Webhook headers set by the commerce platform
const (
	// TopicHeader names the event kind
	TopicHeader = "X-Webhook-Topic"
	// SignatureHeader carries the base64 HMAC-SHA256 of the raw body
	SignatureHeader = "X-Webhook-Signature"
)

// maxWebhookPayloadSize caps the webhook body; order and product payloads
// stay well under this
const maxWebhookPayloadSize = 64 * 1024

// WebhookHandler receives commerce platform webhooks. The endpoint is
// unauthenticated; the HMAC signature is the only trust anchor, so it is
// verified against the raw body before anything is parsed.
type WebhookHandler struct {
	BaseHandler
	service *appsync.WebhookService
	secret  string
	logger  *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *appsync.WebhookService, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		service: service,
		secret:  secret,
		logger:  logger.Named("webhook-handler"),
	}
}

// RegisterRoutes registers the webhook endpoint
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/commerce", h.HandleCommerceWebhook)
}

// HandleCommerceWebhook processes one webhook delivery. 401 tells the
// platform the delivery was rejected outright; 500 makes it redeliver;
// 200 acknowledges both real work and deliberate no-ops.
func (h *WebhookHandler) HandleCommerceWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Payload too large")
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if !commerce.VerifySignature(h.secret, payload, signature) {
		h.logger.Warn("webhook signature rejected",
			zap.String("topic", c.GetHeader(TopicHeader)),
			zap.String("remote_addr", c.ClientIP()),
			zap.Bool("signature_present", signature != ""))
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
		return
	}

	topic := syncdomain.Topic(c.GetHeader(TopicHeader))
	if topic == "" {
		h.BadRequest(c, "Missing topic header")
		return
	}

	if err := h.service.Handle(c.Request.Context(), topic, payload); err != nil {
		if errors.Is(err, syncdomain.ErrInvalidPayload) {
			h.logger.Warn("webhook payload rejected",
				zap.String("topic", topic.String()),
				zap.Error(err))
			h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed webhook payload")
			return
		}

		// Processing failed after the payload checked out; the platform
		// redelivers on 5xx, which is exactly what a transient remote or
		// storage failure needs
		h.logger.Error("webhook processing failed",
			zap.String("topic", topic.String()),
			zap.Error(err))
		h.InternalError(c, "Webhook processing failed")
		return
	}

	c.JSON(http.StatusOK, dto.WebhookAck{Received: true, Topic: topic.String()})
}
