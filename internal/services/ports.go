package services

import (
	"context"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/realtime"
)

// PaymentStore is the persistence the checkout flow needs.
// repositories.PaymentRepository satisfies it.
type PaymentStore interface {
	Create(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (models.Payment, error)
	GetWithItems(ctx context.Context, id int64) (models.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (models.Payment, error)
	GetByTransactionID(ctx context.Context, txnID string) (models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (models.Payment, error)
	List(ctx context.Context, f models.PaymentFilter, page domain.Pagination) ([]models.Payment, int, error)
	UpdateStatus(ctx context.Context, id int64, from, to models.PaymentStatus, lastError string) (bool, error)
	SetIntent(ctx context.Context, id int64, intentID, lastError string) error
	Delete(ctx context.Context, id int64) error
}

type CatalogReader interface {
	GetClient(ctx context.Context, id int64) (models.Client, error)
	GetItem(ctx context.Context, t models.ItemType, id int64) (models.CatalogItem, error)
}

type AuditStore interface {
	Insert(ctx context.Context, l models.AuditLog) error
	List(ctx context.Context, f models.AuditFilter, page domain.Pagination) ([]models.AuditLog, int, error)
}

type ComplianceStore interface {
	List(ctx context.Context, f models.ComplianceFilter, page domain.Pagination) ([]models.ComplianceAlert, int, error)
}

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
}

// EventPublisher receives payment state changes; *realtime.Hub implements it.
type EventPublisher interface {
	Publish(e realtime.Event)
}

// Actor is who is calling and from where, recorded on audit entries.
type Actor struct {
	Principal domain.Principal
	IP        string
}
