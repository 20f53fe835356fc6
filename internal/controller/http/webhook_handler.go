package http

import (
	"errors"
	"io"
	"net/http"

	"stayhaven/internal/usecase"
	"stayhaven/pkg/logger"

	"github.com/gin-gonic/gin"
)

type WebhookHandler struct {
	reconUseCase usecase.ReconciliationUseCase
	logger       *logger.Logger
}

func NewWebhookHandler(reconUseCase usecase.ReconciliationUseCase, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconUseCase: reconUseCase,
		logger:       logger,
	}
}

// HandleGatewayWebhook godoc
// @Summary      Receive a payment gateway webhook
// @Description  Verify the gateway signature and reconcile the referenced transaction
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        provider path string true "Gateway provider name"
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /webhooks/{provider} [post]
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
		return
	}

	transaction, err := h.reconUseCase.HandleGatewayEvent(c.Request.Context(), provider, c.Request.Header, body)
	if err != nil {
		// A mismatch is recorded on our side; the gateway must not retry it.
		if errors.Is(err, usecase.ErrAmountMismatch) {
			h.logger.Warn("Webhook amount mismatch for provider %s: %v", provider, err)
			c.JSON(http.StatusOK, gin.H{"status": "recorded"})
			return
		}
		h.logger.Error("Failed to process %s webhook: %v", provider, err)
		respondError(c, err)
		return
	}

	if transaction == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}
