package handlers

import (
	"io"
	"net/http"

	"medspa/internal/http/middleware"
	"medspa/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 65536

// StripeWebhook handles POST /api/webhooks/stripe. It is public; the
// signature header is the only authentication.
func (h *Handlers) StripeWebhook(c *gin.Context) {
	if h.Gateway == nil {
		respondError(c, http.StatusServiceUnavailable, "not_configured", "card payments are not configured", nil)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_payload", "cannot read body", nil)
		return
	}
	if len(payload) > maxWebhookBody {
		respondError(c, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body too large", nil)
		return
	}
	ev, err := h.Gateway.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		utils.LogEvent(middleware.GetRequestID(c), "webhook", "reject", err.Error())
		respondError(c, http.StatusBadRequest, "invalid_signature", "webhook could not be verified", nil)
		return
	}
	if err := h.payments(c).HandleWebhook(c.Request.Context(), ev); err != nil {
		utils.LogError(middleware.GetRequestID(c), "webhook", "handle", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "webhook processing failed", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
