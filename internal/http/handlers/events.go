package handlers

import (
	"net/http"

	"medspa/internal/http/middleware"
	"medspa/internal/utils"

	"github.com/gin-gonic/gin"
)

// PaymentEvents handles GET /api/payments/events and blocks until the client
// disconnects.
func (h *Handlers) PaymentEvents(c *gin.Context) {
	if h.Hub == nil {
		respondError(c, http.StatusServiceUnavailable, "not_configured", "live updates are disabled", nil)
		return
	}
	if err := h.Hub.ServeWS(c.Writer, c.Request); err != nil {
		// the upgrader has already written the handshake error
		utils.LogEvent(middleware.GetRequestID(c), "realtime", "upgrade", err.Error())
	}
}
