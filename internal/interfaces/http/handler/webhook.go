package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	appbilling "github.com/storefront/backend/internal/application/billing"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// StripeSignatureHeader carries the webhook signature
const StripeSignatureHeader = "Stripe-Signature"

// WebhookHandler receives payment gateway callbacks. The route is
// unauthenticated; the signature is the credential.
type WebhookHandler struct {
	BaseHandler
	webhookService *appbilling.StripeWebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(webhookService *appbilling.StripeWebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// WebhookResponse acknowledges a delivery
type WebhookResponse struct {
	Received  bool   `json:"received"`
	EventID   string `json:"event_id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// HandleStripe verifies and processes a Stripe event. Processing failures
// answer 500 so Stripe redelivers the event.
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	// Stripe signs the raw body, so it must be read before any decoding
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Payload too large")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader(StripeSignatureHeader)
	if signature == "" {
		h.BadRequest(c, "Missing "+StripeSignatureHeader+" header")
		return
	}

	result, err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == shared.CodeInvalidSignature {
			h.Error(c, http.StatusBadRequest, shared.CodeInvalidSignature, "Webhook signature verification failed")
			return
		}
		fields := []zap.Field{zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.String("event_id", result.EventID), zap.String("event_type", result.EventType))
		}
		logger.GetGinLogger(c).Error("Webhook processing failed", fields...)
		h.Error(c, http.StatusInternalServerError, shared.CodeInternal, "Webhook processing failed")
		return
	}

	h.Success(c, WebhookResponse{
		Received:  true,
		EventID:   result.EventID,
		EventType: result.EventType,
		Duplicate: result.Duplicate,
		Message:   result.Message,
	})
}
