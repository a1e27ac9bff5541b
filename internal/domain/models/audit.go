package models

import "time"

type AuditLog struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	Details    string    `json:"details"`
	IPAddress  string    `json:"ip_address"`
	CreatedAt  time.Time `json:"created_at"`
}

type AuditFilter struct {
	Action     string
	EntityType string
	UserID     int64
	From       *time.Time
	To         *time.Time
}

type ComplianceAlert struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	AlertType string    `json:"alert_type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ComplianceFilter struct {
	Status   string
	Severity string
}
