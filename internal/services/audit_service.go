package services

import (
	"context"
	"encoding/json"
	"fmt"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/utils"
)

// AuditService writes and reads the audit trail and compliance alerts.
type AuditService struct {
	Repo       AuditStore
	Compliance ComplianceStore
	RequestID  string
}

// Record appends an audit entry. Failures are logged and swallowed so an audit
// outage never rolls back a payment that already happened.
func (s AuditService) Record(ctx context.Context, actor Actor, action, entityType string, entityID int64, details map[string]any) {
	if s.Repo == nil {
		return
	}
	raw := ""
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			raw = string(b)
		}
	}
	entry := models.AuditLog{
		UserID:     int64(actor.Principal.UserID),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    raw,
		IPAddress:  actor.IP,
	}
	if err := s.Repo.Insert(ctx, entry); err != nil {
		utils.LogEvent(s.RequestID, "audit", action, fmt.Sprintf("entity=%s id=%d insert failed: %v", entityType, entityID, err))
	}
}

func (s AuditService) ListAuditLogs(ctx context.Context, f models.AuditFilter, page domain.Pagination) (domain.Page[models.AuditLog], error) {
	page = page.Normalize()
	rows, total, err := s.Repo.List(ctx, f, page)
	if err != nil {
		return domain.Page[models.AuditLog]{}, err
	}
	page.Total = total
	return domain.NewPage(rows, page), nil
}

func (s AuditService) ListComplianceAlerts(ctx context.Context, f models.ComplianceFilter, page domain.Pagination) (domain.Page[models.ComplianceAlert], error) {
	page = page.Normalize()
	rows, total, err := s.Compliance.List(ctx, f, page)
	if err != nil {
		return domain.Page[models.ComplianceAlert]{}, err
	}
	page.Total = total
	return domain.NewPage(rows, page), nil
}
