package handlers

import (
	"database/sql"

	"medspa/internal/gateway"
	"medspa/internal/http/middleware"
	"medspa/internal/realtime"
	"medspa/internal/services"

	"github.com/gin-gonic/gin"
)

// Handlers holds the services behind the HTTP API. Each request works on a
// copy tagged with its request id.
type Handlers struct {
	Payments services.PaymentService
	Docs     services.DocsService
	Audit    services.AuditService
	Auth     services.AuthService
	Gateway  gateway.PaymentGateway
	Hub      *realtime.Hub
	DB       *sql.DB
}

func (h *Handlers) payments(c *gin.Context) services.PaymentService {
	s := h.Payments
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handlers) docs(c *gin.Context) services.DocsService {
	s := h.Docs
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handlers) audit(c *gin.Context) services.AuditService {
	s := h.Audit
	s.RequestID = middleware.GetRequestID(c)
	return s
}

func (h *Handlers) auth(c *gin.Context) services.AuthService {
	s := h.Auth
	s.RequestID = middleware.GetRequestID(c)
	return s
}
