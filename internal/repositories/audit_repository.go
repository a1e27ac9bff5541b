package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	intconfig "medspa/internal/config"
	intdb "medspa/internal/db"
	"medspa/internal/domain"
	"medspa/internal/domain/models"
)

type AuditRepository struct {
	DB *sql.DB
}

func (r AuditRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r AuditRepository) Insert(ctx context.Context, l models.AuditLog) error {
	_, err := r.db().ExecContext(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, ip_address, created_at)
		VALUES (?,?,?,?,?,?,NOW())`,
		intdb.NullIfZero(l.UserID), l.Action, l.EntityType, intdb.NullIfZero(l.EntityID),
		intdb.NullIfEmpty(l.Details), intdb.NullIfEmpty(l.IPAddress),
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// List returns one page of audit logs, newest first.
func (r AuditRepository) List(ctx context.Context, f models.AuditFilter, page domain.Pagination) ([]models.AuditLog, int, error) {
	db := r.db()
	page = page.Normalize()

	where := []string{}
	args := []any{}
	if f.Action != "" {
		where = append(where, "action=?")
		args = append(args, f.Action)
	}
	if f.EntityType != "" {
		where = append(where, "entity_type=?")
		args = append(args, f.EntityType)
	}
	if f.UserID > 0 {
		where = append(where, "user_id=?")
		args = append(args, f.UserID)
	}
	if f.From != nil {
		where = append(where, "created_at>=?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "created_at<?")
		args = append(args, *f.To)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_logs`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	pageArgs := append(append([]any{}, args...), page.PageSize, page.Offset())
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(user_id,0), action, entity_type, COALESCE(entity_id,0),
		       COALESCE(details,''), COALESCE(ip_address,''), created_at
		FROM audit_logs`+clause+`
		ORDER BY id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	out := []models.AuditLog{}
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.EntityType, &l.EntityID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, l)
	}
	return out, total, rows.Err()
}

type ComplianceRepository struct {
	DB *sql.DB
}

func (r ComplianceRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r ComplianceRepository) List(ctx context.Context, f models.ComplianceFilter, page domain.Pagination) ([]models.ComplianceAlert, int, error) {
	db := r.db()
	page = page.Normalize()
	if !intdb.HasTable(db, "compliance_alerts") {
		return []models.ComplianceAlert{}, 0, nil
	}

	where := []string{}
	args := []any{}
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, f.Status)
	}
	if f.Severity != "" {
		where = append(where, "severity=?")
		args = append(args, f.Severity)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compliance_alerts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count compliance alerts: %w", err)
	}

	pageArgs := append(append([]any{}, args...), page.PageSize, page.Offset())
	rows, err := db.QueryContext(ctx, `
		SELECT id, COALESCE(client_id,0), COALESCE(alert_type,''), COALESCE(severity,''),
		       COALESCE(message,''), COALESCE(status,''), created_at
		FROM compliance_alerts`+clause+`
		ORDER BY id DESC LIMIT ? OFFSET ?`, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list compliance alerts: %w", err)
	}
	defer rows.Close()

	out := []models.ComplianceAlert{}
	for rows.Next() {
		var a models.ComplianceAlert
		if err := rows.Scan(&a.ID, &a.ClientID, &a.AlertType, &a.Severity, &a.Message, &a.Status, &a.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan compliance alert: %w", err)
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
