package handlers

import (
	"net/http"
	"strings"

	"medspa/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func auditFilter(c *gin.Context) (models.AuditFilter, bool) {
	userID, ok := queryInt64(c, "user_id")
	if !ok {
		return models.AuditFilter{}, false
	}
	from, to, ok := dateRange(c)
	if !ok {
		return models.AuditFilter{}, false
	}
	return models.AuditFilter{
		Action:     strings.TrimSpace(c.Query("action")),
		EntityType: strings.TrimSpace(c.Query("entity_type")),
		UserID:     userID,
		From:       from,
		To:         to,
	}, true
}

func complianceFilter(c *gin.Context) models.ComplianceFilter {
	return models.ComplianceFilter{
		Status:   strings.ToLower(strings.TrimSpace(c.Query("status"))),
		Severity: strings.ToLower(strings.TrimSpace(c.Query("severity"))),
	}
}

// ListAuditLogs handles GET /api/audit-logs.
func (h *Handlers) ListAuditLogs(c *gin.Context) {
	f, ok := auditFilter(c)
	if !ok {
		return
	}
	page, ok := pagination(c)
	if !ok {
		return
	}
	out, err := h.audit(c).ListAuditLogs(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportAuditLogs handles GET /api/audit-logs/export.
func (h *Handlers) ExportAuditLogs(c *gin.Context) {
	f, ok := auditFilter(c)
	if !ok {
		return
	}
	data, filename, err := h.docs(c).ExportAuditLogs(c.Request.Context(), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, filename, "attachment")
}

// ListComplianceAlerts handles GET /api/compliance-alerts.
func (h *Handlers) ListComplianceAlerts(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}
	out, err := h.audit(c).ListComplianceAlerts(c.Request.Context(), complianceFilter(c), page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ExportComplianceAlerts handles GET /api/compliance-alerts/export.
func (h *Handlers) ExportComplianceAlerts(c *gin.Context) {
	data, filename, err := h.docs(c).ExportComplianceAlerts(c.Request.Context(), complianceFilter(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sendPDF(c, data, filename, "attachment")
}
