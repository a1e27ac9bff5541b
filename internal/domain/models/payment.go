package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash   PaymentMethod = "cash"
	MethodStripe PaymentMethod = "stripe"
)

func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodStripe
}

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusRefunded  PaymentStatus = "refunded"
	StatusFailed    PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusRefunded, StatusFailed:
		return true
	default:
		return false
	}
}

// CanTransition encodes the payment lifecycle:
// pending -> completed | failed, completed -> refunded.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	switch s {
	case StatusPending:
		return to == StatusCompleted || to == StatusFailed
	case StatusCompleted:
		return to == StatusRefunded
	default:
		return false
	}
}

type ItemType string

const (
	ItemService ItemType = "service"
	ItemProduct ItemType = "product"
)

func (t ItemType) Valid() bool {
	return t == ItemService || t == ItemProduct
}

// Payment is one checkout transaction.
// Amount is the merchandise amount after discount; Total adds tax and tips and
// is what the client is charged.
type Payment struct {
	ID                    int64           `json:"id"`
	ClientID              int64           `json:"client_id"`
	Amount                decimal.Decimal `json:"amount"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	DiscountAmount        decimal.Decimal `json:"discount_amount"`
	TaxAmount             decimal.Decimal `json:"tax_amount"`
	Tips                  decimal.Decimal `json:"tips"`
	Commission            decimal.Decimal `json:"commission"`
	Total                 decimal.Decimal `json:"total"`
	PaymentMethod         PaymentMethod   `json:"payment_method"`
	Status                PaymentStatus   `json:"status"`
	TransactionID         string          `json:"transaction_id"`
	IdempotencyKey        string          `json:"-"`
	StripePaymentIntentID string          `json:"stripe_payment_intent_id,omitempty"`
	LastError             string          `json:"last_error,omitempty"`
	Notes                 string          `json:"notes"`
	CreatedBy             int64           `json:"created_by,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	Items                 []PaymentItem   `json:"items,omitempty"`
}

// PaymentItem is a line item owned by exactly one Payment.
type PaymentItem struct {
	ID        int64           `json:"id"`
	PaymentID int64           `json:"payment_id"`
	ItemType  ItemType        `json:"item_type"`
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	Status        PaymentStatus
	PaymentMethod PaymentMethod
	ClientID      int64
	From          *time.Time
	To            *time.Time
}
