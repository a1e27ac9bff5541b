package gateway

import (
	"context"
	"fmt"
)

// IntentStatus mirrors the provider's payment intent lifecycle.
type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentRequiresCapture       IntentStatus = "requires_capture"
	IntentCanceled              IntentStatus = "canceled"
	IntentSucceeded             IntentStatus = "succeeded"
)

// Failed reports statuses after which the intent will not collect money
// without the customer starting over.
func (s IntentStatus) Failed() bool {
	return s == IntentCanceled || s == IntentRequiresPaymentMethod
}

type IntentRequest struct {
	AmountCents    int64
	Currency       string
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	AmountCents  int64
	Currency     string
	Metadata     map[string]string
}

type RefundRequest struct {
	IntentID       string
	AmountCents    int64
	IdempotencyKey string
	Reason         string
}

type Refund struct {
	ID     string
	Status string
}

type EventKind string

const (
	EventIntentSucceeded EventKind = "intent.succeeded"
	EventIntentFailed    EventKind = "intent.failed"
	EventIgnored         EventKind = "ignored"
)

// Event is a verified provider notification.
type Event struct {
	ID     string
	Kind   EventKind
	Intent Intent
}

// PaymentGateway is the card-payment provider seen by the checkout flow.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	Refund(ctx context.Context, req RefundRequest) (Refund, error)
	ParseWebhook(payload []byte, signature string) (Event, error)
}

// Error carries the provider's message verbatim (card declines, invalid
// amounts) so it can be shown to the cashier.
type Error struct {
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Msg, e.Code)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }
