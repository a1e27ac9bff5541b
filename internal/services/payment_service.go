package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/gateway"
	"medspa/internal/pricing"
	"medspa/internal/realtime"
	"medspa/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency    = "usd"
	defaultIdemWindow  = 30 * time.Second
	maxLastErrorLength = 500
	providerStripe     = "stripe"
)

// PaymentService runs the POS checkout: pricing, payment creation, card
// confirmation, refunds and provider reconciliation.
type PaymentService struct {
	Payments    PaymentStore
	Catalog     CatalogReader
	Gateway     gateway.PaymentGateway
	Idempotency IdempotencyStore
	Events      EventPublisher
	Audit       AuditService
	Currency    string
	Window      time.Duration
	RequestID   string
	Now         func() time.Time
}

// CartLineInput is one requested cart line. Name and Price are client hints
// only; the catalog is authoritative.
type CartLineInput struct {
	Type     models.ItemType
	ID       int64
	Name     string
	Price    decimal.Decimal
	Quantity int
}

type QuoteInput struct {
	Items    []CartLineInput
	Discount pricing.Discount
	Tip      decimal.Decimal
}

type Quote struct {
	Lines     []pricing.Line    `json:"lines"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

type CheckoutInput struct {
	ClientID       int64
	Method         models.PaymentMethod
	Items          []CartLineInput
	Discount       pricing.Discount
	Tips           decimal.Decimal
	Commission     decimal.Decimal
	Notes          string
	AmountHint     *decimal.Decimal
	IdempotencyKey string
	Actor          Actor
}

type CheckoutResult struct {
	Payment      models.Payment `json:"payment"`
	ClientSecret string         `json:"client_secret,omitempty"`
	Replayed     bool           `json:"replayed"`
}

func (s PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s PaymentService) currency() string {
	if c := strings.TrimSpace(s.Currency); c != "" {
		return strings.ToLower(c)
	}
	return defaultCurrency
}

func (s PaymentService) window() time.Duration {
	if s.Window > 0 {
		return s.Window
	}
	return defaultIdemWindow
}

func (s PaymentService) audit() AuditService {
	a := s.Audit
	a.RequestID = s.RequestID
	return a
}

// NewTransactionID returns TXN-<32 upper hex>-<unix seconds>.
func NewTransactionID(now time.Time) string {
	u := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("TXN-%s-%d", u, now.Unix())
}

// Quote prices a cart from the catalog without persisting anything.
func (s PaymentService) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	if in.Tip.IsNegative() {
		return Quote{}, domain.ValidationError{Field: "tips", Msg: "must not be negative"}
	}
	cart, err := s.priceCart(ctx, in.Items)
	if err != nil {
		return Quote{}, err
	}
	return Quote{Lines: cart.Lines(), Breakdown: cart.Totals(in.Discount, in.Tip)}, nil
}

func (s PaymentService) priceCart(ctx context.Context, items []CartLineInput) (*pricing.Cart, error) {
	if len(items) == 0 {
		return nil, domain.ValidationError{Field: "cart_items", Msg: "cart is empty"}
	}
	cart := pricing.NewCart()
	seen := make(map[string]struct{}, len(items))
	for i, it := range items {
		if !it.Type.Valid() {
			return nil, domain.ValidationError{Field: fmt.Sprintf("cart_items[%d].type", i), Msg: "must be service or product"}
		}
		if it.ID <= 0 {
			return nil, domain.ValidationError{Field: fmt.Sprintf("cart_items[%d].id", i), Msg: "invalid id"}
		}
		if it.Quantity < 1 {
			return nil, domain.ValidationError{Field: fmt.Sprintf("cart_items[%d].quantity", i), Msg: "must be at least 1"}
		}
		item, err := s.Catalog.GetItem(ctx, it.Type, it.ID)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.ValidationError{Field: fmt.Sprintf("cart_items[%d]", i), Msg: fmt.Sprintf("%s %d is not in the catalog", it.Type, it.ID), Err: err}
			}
			return nil, err
		}
		if !it.Price.IsZero() && !it.Price.Equal(item.Price) {
			utils.LogEvent(s.RequestID, "payment", "reprice",
				fmt.Sprintf("%s %d client price %s replaced by catalog price %s", it.Type, it.ID, it.Price, item.Price))
		}
		k := fmt.Sprintf("%s:%d", it.Type, it.ID)
		if _, dup := seen[k]; dup {
			return nil, domain.ValidationError{Field: fmt.Sprintf("cart_items[%d]", i), Msg: fmt.Sprintf("%s %d appears more than once; send one line with the total quantity", it.Type, it.ID)}
		}
		seen[k] = struct{}{}
		cart.Add(pricing.Line{Type: it.Type, ID: item.ID, Name: item.Name, Price: item.Price, Quantity: it.Quantity})
	}
	return cart, nil
}

func validateCheckout(in CheckoutInput) error {
	if in.ClientID <= 0 {
		return domain.ValidationError{Field: "client_id", Msg: "is required"}
	}
	if !in.Method.Valid() {
		return domain.ValidationError{Field: "payment_method", Msg: "must be cash or stripe"}
	}
	if len(in.Items) == 0 {
		return domain.ValidationError{Field: "cart_items", Msg: "cart is empty"}
	}
	if in.Tips.IsNegative() {
		return domain.ValidationError{Field: "tips", Msg: "must not be negative"}
	}
	if in.Commission.IsNegative() {
		return domain.ValidationError{Field: "commission", Msg: "must not be negative"}
	}
	if in.Discount.Value.IsNegative() {
		return domain.ValidationError{Field: "discount_value", Msg: "must not be negative"}
	}
	return nil
}

// fingerprint identifies a checkout submission when the caller sent no key.
// It hashes the priced cart, so two submissions that would store the same
// payment collide.
func fingerprint(in CheckoutInput, cart *pricing.Cart) string {
	lines := make([]string, 0, cart.Len())
	for _, l := range cart.Lines() {
		lines = append(lines, fmt.Sprintf("%s:%d:%d:%s", l.Type, l.ID, l.Quantity, l.Price.StringFixed(2)))
	}
	sort.Strings(lines)
	raw := strings.Join([]string{
		strconv.FormatInt(int64(in.Actor.Principal.UserID), 10),
		strconv.FormatInt(in.ClientID, 10),
		string(in.Method),
		in.Tips.StringFixed(2),
		in.Commission.StringFixed(2),
		string(in.Discount.Type),
		in.Discount.Value.String(),
		strings.Join(lines, ","),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return "fp:" + hex.EncodeToString(sum[:])
}

// Checkout creates a payment from a cart. Cash payments complete immediately;
// card payments stay pending with a PaymentIntent the browser confirms.
func (s PaymentService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if err := validateCheckout(in); err != nil {
		return CheckoutResult{}, err
	}
	if _, err := s.Catalog.GetClient(ctx, in.ClientID); err != nil {
		if domain.IsNotFound(err) {
			return CheckoutResult{}, domain.ValidationError{Field: "client_id", Msg: "client not found", Err: err}
		}
		return CheckoutResult{}, err
	}

	cart, err := s.priceCart(ctx, in.Items)
	if err != nil {
		return CheckoutResult{}, err
	}
	b := cart.Totals(in.Discount, in.Tips)
	if in.Method == models.MethodStripe && pricing.ToCents(b.Total) <= 0 {
		return CheckoutResult{}, domain.ValidationError{Field: "payment_method", Msg: "a card payment needs a total above zero; use cash for a fully discounted visit"}
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	explicit := key != ""
	if explicit {
		existing, err := s.Payments.GetByIdempotencyKey(ctx, key)
		if err == nil {
			return s.replay(ctx, existing)
		}
		if !domain.IsNotFound(err) {
			return CheckoutResult{}, err
		}
	} else {
		key = fingerprint(in, cart)
	}

	res, err := s.reserve(ctx, key)
	if err != nil {
		return CheckoutResult{}, err
	}
	if res.PaymentID > 0 {
		existing, err := s.Payments.GetWithItems(ctx, res.PaymentID)
		if err != nil {
			return CheckoutResult{}, err
		}
		return s.replay(ctx, existing)
	}
	if !res.Acquired {
		return CheckoutResult{}, domain.ConflictError{Resource: "payment", Msg: "an identical checkout is already in progress"}
	}
	created := false
	defer func() {
		if !created && s.Idempotency != nil {
			if err := s.Idempotency.Release(context.WithoutCancel(ctx), key); err != nil {
				utils.LogError(s.RequestID, "payment", "idempotency_release", err)
			}
		}
	}()

	if in.AmountHint != nil && !in.AmountHint.Round(2).Equal(b.TaxableAmount) && !in.AmountHint.Round(2).Equal(b.Total) {
		utils.LogEvent(s.RequestID, "payment", "reprice",
			fmt.Sprintf("client amount %s differs from computed amount %s / total %s", in.AmountHint, b.TaxableAmount, b.Total))
	}

	status := models.StatusCompleted
	if in.Method == models.MethodStripe {
		status = models.StatusPending
	}
	p := models.Payment{
		ClientID:       in.ClientID,
		Amount:         b.TaxableAmount,
		Subtotal:       b.Subtotal,
		DiscountAmount: b.DiscountAmount,
		TaxAmount:      b.TaxAmount,
		Tips:           b.Tip,
		Commission:     in.Commission.Round(2),
		Total:          b.Total,
		PaymentMethod:  in.Method,
		Status:         status,
		TransactionID:  NewTransactionID(s.now()),
		Notes:          strings.TrimSpace(in.Notes),
		CreatedBy:      int64(in.Actor.Principal.UserID),
	}
	if explicit {
		p.IdempotencyKey = key
	}
	for _, l := range cart.Lines() {
		p.Items = append(p.Items, models.PaymentItem{
			ItemType: l.Type,
			ItemID:   l.ID,
			ItemName: l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().Round(2),
		})
	}

	if err := s.Payments.Create(ctx, &p); err != nil {
		if explicit && domain.IsConflict(err) {
			if existing, gerr := s.Payments.GetByIdempotencyKey(ctx, key); gerr == nil {
				return s.replay(ctx, existing)
			}
		}
		return CheckoutResult{}, err
	}
	created = true
	if s.Idempotency != nil {
		if err := s.Idempotency.Complete(ctx, key, p.ID, s.window()); err != nil {
			utils.LogError(s.RequestID, "payment", "idempotency_complete", err)
		}
	}
	utils.LogEvent(s.RequestID, "payment", "create",
		fmt.Sprintf("payment_id=%d txn=%s method=%s status=%s total=%s items=%d", p.ID, p.TransactionID, p.PaymentMethod, p.Status, p.Total, len(p.Items)))
	s.audit().Record(ctx, in.Actor, "payment.created", "payment", p.ID, map[string]any{
		"transaction_id": p.TransactionID,
		"method":         p.PaymentMethod,
		"status":         p.Status,
		"total":          utils.FormatMoney(p.Total),
		"items":          len(p.Items),
	})

	out := CheckoutResult{Payment: p}
	if p.PaymentMethod != models.MethodStripe {
		s.publish("paymentCompleted", p)
		return out, nil
	}
	secret, err := s.createIntent(ctx, &p)
	out.Payment = p
	if err != nil {
		return out, err
	}
	out.ClientSecret = secret
	return out, nil
}

// reserve claims key in the idempotency store. A store outage fails open:
// the DB unique keys still stop explicit-key duplicates.
func (s PaymentService) reserve(ctx context.Context, key string) (Reservation, error) {
	if s.Idempotency == nil {
		return Reservation{Acquired: true}, nil
	}
	res, err := s.Idempotency.Reserve(ctx, key, s.window())
	if err != nil {
		utils.LogError(s.RequestID, "payment", "idempotency_reserve", err)
		return Reservation{Acquired: true}, nil
	}
	return res, nil
}

// replay returns an earlier payment for a repeated submission, handing back
// the client secret again while the card payment is still open.
func (s PaymentService) replay(ctx context.Context, p models.Payment) (CheckoutResult, error) {
	if p.Items == nil {
		if items, err := s.Payments.GetWithItems(ctx, p.ID); err == nil {
			p = items
		}
	}
	utils.LogEvent(s.RequestID, "payment", "replay", fmt.Sprintf("payment_id=%d txn=%s", p.ID, p.TransactionID))
	out := CheckoutResult{Payment: p, Replayed: true}
	if p.PaymentMethod != models.MethodStripe || p.Status != models.StatusPending {
		return out, nil
	}
	secret, err := s.clientSecret(ctx, &p)
	out.Payment = p
	if err != nil {
		return out, err
	}
	out.ClientSecret = secret
	return out, nil
}

func (s PaymentService) clientSecret(ctx context.Context, p *models.Payment) (string, error) {
	if p.StripePaymentIntentID == "" {
		return s.createIntent(ctx, p)
	}
	if s.Gateway == nil {
		return "", domain.UpstreamError{Provider: providerStripe, Msg: "card payments are not configured", PaymentID: p.ID}
	}
	intent, err := s.Gateway.GetIntent(ctx, p.StripePaymentIntentID)
	if err != nil {
		return "", domain.UpstreamError{Provider: providerStripe, Msg: err.Error(), PaymentID: p.ID, Err: err}
	}
	return intent.ClientSecret, nil
}

// createIntent opens the provider intent for a pending card payment. The
// transaction id is the provider idempotency key, so retries never double charge.
func (s PaymentService) createIntent(ctx context.Context, p *models.Payment) (string, error) {
	if s.Gateway == nil {
		return "", domain.UpstreamError{Provider: providerStripe, Msg: "card payments are not configured", PaymentID: p.ID}
	}
	intent, err := s.Gateway.CreateIntent(ctx, gateway.IntentRequest{
		AmountCents:    pricing.ToCents(p.Total),
		Currency:       s.currency(),
		Description:    "POS checkout " + p.TransactionID,
		IdempotencyKey: p.TransactionID,
		Metadata: map[string]string{
			"payment_id":     strconv.FormatInt(p.ID, 10),
			"transaction_id": p.TransactionID,
			"client_id":      strconv.FormatInt(p.ClientID, 10),
		},
	})
	if err != nil {
		msg := utils.Truncate(err.Error(), maxLastErrorLength)
		p.LastError = msg
		if serr := s.Payments.SetIntent(ctx, p.ID, "", msg); serr != nil {
			utils.LogError(s.RequestID, "payment", "intent_record", serr)
		}
		utils.LogEvent(s.RequestID, "payment", "intent", fmt.Sprintf("payment_id=%d create failed: %s", p.ID, msg))
		return "", domain.UpstreamError{Provider: providerStripe, Msg: err.Error(), PaymentID: p.ID, Err: err}
	}
	p.StripePaymentIntentID = intent.ID
	p.LastError = ""
	if err := s.Payments.SetIntent(ctx, p.ID, intent.ID, ""); err != nil {
		utils.LogError(s.RequestID, "payment", "intent_record", err)
	}
	utils.LogEvent(s.RequestID, "payment", "intent", fmt.Sprintf("payment_id=%d intent=%s", p.ID, intent.ID))
	return intent.ClientSecret, nil
}

// RetryIntent hands out a client secret for a pending card payment, creating
// the intent if an earlier attempt failed.
func (s PaymentService) RetryIntent(ctx context.Context, id int64) (CheckoutResult, error) {
	p, err := s.Payments.GetWithItems(ctx, id)
	if err != nil {
		return CheckoutResult{}, err
	}
	if p.PaymentMethod != models.MethodStripe {
		return CheckoutResult{}, domain.ValidationError{Field: "payment_method", Msg: "only card payments have an intent"}
	}
	if p.Status != models.StatusPending {
		return CheckoutResult{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("payment is %s", p.Status)}
	}
	secret, err := s.clientSecret(ctx, &p)
	out := CheckoutResult{Payment: p}
	if err != nil {
		return out, err
	}
	out.ClientSecret = secret
	return out, nil
}

func (s PaymentService) verifyIntent(p models.Payment, intent gateway.Intent) error {
	if intent.AmountCents != pricing.ToCents(p.Total) {
		return domain.ValidationError{Field: "payment_intent_id", Msg: "intent amount does not match payment total"}
	}
	if intent.Currency != "" && !strings.EqualFold(intent.Currency, s.currency()) {
		return domain.ValidationError{Field: "payment_intent_id", Msg: "intent currency does not match"}
	}
	if txn, ok := intent.Metadata["transaction_id"]; ok && txn != p.TransactionID {
		return domain.ValidationError{Field: "payment_intent_id", Msg: "intent belongs to another payment"}
	}
	if p.StripePaymentIntentID == "" && intent.Metadata["transaction_id"] != p.TransactionID {
		return domain.ValidationError{Field: "payment_intent_id", Msg: "intent belongs to another payment"}
	}
	return nil
}

// Confirm settles a card payment after the browser confirmed the intent. The
// intent is re-read from the provider; the browser's word is not trusted.
func (s PaymentService) Confirm(ctx context.Context, id int64, intentID string, actor Actor) (models.Payment, error) {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return models.Payment{}, domain.ValidationError{Field: "payment_intent_id", Msg: "is required"}
	}
	p, err := s.Payments.GetWithItems(ctx, id)
	if err != nil {
		return models.Payment{}, err
	}
	if p.PaymentMethod != models.MethodStripe {
		return models.Payment{}, domain.ValidationError{Field: "payment_method", Msg: "only card payments need confirmation"}
	}
	if p.StripePaymentIntentID != "" && p.StripePaymentIntentID != intentID {
		return models.Payment{}, domain.ValidationError{Field: "payment_intent_id", Msg: "does not belong to this payment"}
	}
	if p.Status == models.StatusCompleted {
		return p, nil
	}
	if p.Status != models.StatusPending {
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("payment is %s", p.Status)}
	}
	if s.Gateway == nil {
		return models.Payment{}, domain.UpstreamError{Provider: providerStripe, Msg: "card payments are not configured", PaymentID: p.ID}
	}

	intent, err := s.Gateway.GetIntent(ctx, intentID)
	if err != nil {
		return models.Payment{}, domain.UpstreamError{Provider: providerStripe, Msg: err.Error(), PaymentID: p.ID, Err: err}
	}
	if err := s.verifyIntent(p, intent); err != nil {
		utils.LogEvent(s.RequestID, "payment", "confirm", fmt.Sprintf("payment_id=%d intent=%s rejected: %v", p.ID, intentID, err))
		return models.Payment{}, err
	}
	if p.StripePaymentIntentID == "" {
		if err := s.Payments.SetIntent(ctx, p.ID, intent.ID, ""); err != nil {
			return models.Payment{}, err
		}
		p.StripePaymentIntentID = intent.ID
	}

	switch {
	case intent.Status == gateway.IntentSucceeded:
		return s.transition(ctx, p, models.StatusCompleted, "", actor, "payment.confirmed")
	case intent.Status.Failed():
		msg := "card payment " + string(intent.Status)
		failed, err := s.transition(ctx, p, models.StatusFailed, msg, actor, "payment.failed")
		if err != nil {
			return failed, err
		}
		return failed, domain.UpstreamError{Provider: providerStripe, Msg: msg, PaymentID: p.ID}
	default:
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("card payment not yet settled (%s)", intent.Status)}
	}
}

// transition applies a conditional status change. Losing a race to the same
// target status is success; losing it to any other status is a conflict.
func (s PaymentService) transition(ctx context.Context, p models.Payment, to models.PaymentStatus, lastError string, actor Actor, action string) (models.Payment, error) {
	from := p.Status
	if !from.CanTransition(to) {
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("cannot move from %s to %s", from, to)}
	}
	ok, err := s.Payments.UpdateStatus(ctx, p.ID, from, to, utils.Truncate(lastError, maxLastErrorLength))
	if err != nil {
		return models.Payment{}, err
	}
	if !ok {
		current, err := s.Payments.GetWithItems(ctx, p.ID)
		if err != nil {
			return models.Payment{}, err
		}
		if current.Status == to {
			return current, nil
		}
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("payment is %s", current.Status)}
	}
	p.Status = to
	p.LastError = lastError
	p.UpdatedAt = s.now()

	utils.LogEvent(s.RequestID, "payment", "status", fmt.Sprintf("payment_id=%d %s->%s", p.ID, from, to))
	details := map[string]any{"transaction_id": p.TransactionID, "from": from, "to": to}
	if lastError != "" {
		details["error"] = lastError
	}
	s.audit().Record(ctx, actor, action, "payment", p.ID, details)

	switch to {
	case models.StatusCompleted:
		s.publish("paymentCompleted", p)
	case models.StatusFailed:
		s.publish("paymentFailed", p)
	case models.StatusRefunded:
		s.publish("paymentRefunded", p)
	}
	return p, nil
}

// Refund reverses a completed payment. Card payments are refunded at the
// provider first; cash is handed back at the desk.
func (s PaymentService) Refund(ctx context.Context, id int64, reason string, actor Actor) (models.Payment, error) {
	p, err := s.Payments.GetWithItems(ctx, id)
	if err != nil {
		return models.Payment{}, err
	}
	if p.Status != models.StatusCompleted {
		return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: fmt.Sprintf("only completed payments can be refunded (payment is %s)", p.Status)}
	}
	reason = utils.NormalizeSpace(reason)

	if p.PaymentMethod == models.MethodStripe {
		if p.StripePaymentIntentID == "" {
			return models.Payment{}, domain.ConflictError{Resource: "payment", Msg: "card payment has no intent to refund"}
		}
		if s.Gateway == nil {
			return models.Payment{}, domain.UpstreamError{Provider: providerStripe, Msg: "card payments are not configured", PaymentID: p.ID}
		}
		rf, err := s.Gateway.Refund(ctx, gateway.RefundRequest{
			IntentID:       p.StripePaymentIntentID,
			AmountCents:    pricing.ToCents(p.Total),
			IdempotencyKey: "refund-" + p.TransactionID,
			Reason:         reason,
		})
		if err != nil {
			return models.Payment{}, domain.UpstreamError{Provider: providerStripe, Msg: err.Error(), PaymentID: p.ID, Err: err}
		}
		utils.LogEvent(s.RequestID, "payment", "refund", fmt.Sprintf("payment_id=%d refund=%s status=%s", p.ID, rf.ID, rf.Status))
	}

	note := reason
	if note == "" {
		note = "refunded"
	}
	return s.transition(ctx, p, models.StatusRefunded, note, actor, "payment.refunded")
}

// HandleWebhook reconciles a verified provider event with the matching
// payment. Events for unknown intents are ignored.
func (s PaymentService) HandleWebhook(ctx context.Context, ev gateway.Event) error {
	if ev.Kind == gateway.EventIgnored || ev.Intent.ID == "" {
		return nil
	}
	p, err := s.Payments.GetByIntentID(ctx, ev.Intent.ID)
	if domain.IsNotFound(err) {
		txn := ev.Intent.Metadata["transaction_id"]
		if txn == "" {
			utils.LogEvent(s.RequestID, "webhook", string(ev.Kind), "unknown intent "+ev.Intent.ID)
			return nil
		}
		p, err = s.Payments.GetByTransactionID(ctx, txn)
		if domain.IsNotFound(err) {
			utils.LogEvent(s.RequestID, "webhook", string(ev.Kind), "unknown transaction "+txn)
			return nil
		}
	}
	if err != nil {
		return err
	}
	if p.PaymentMethod != models.MethodStripe || p.Status != models.StatusPending {
		return nil
	}
	if err := s.verifyIntent(p, ev.Intent); err != nil {
		utils.LogEvent(s.RequestID, "webhook", string(ev.Kind), fmt.Sprintf("payment_id=%d rejected: %v", p.ID, err))
		return nil
	}
	if p.StripePaymentIntentID == "" {
		if err := s.Payments.SetIntent(ctx, p.ID, ev.Intent.ID, ""); err != nil {
			return err
		}
		p.StripePaymentIntentID = ev.Intent.ID
	}

	system := Actor{Principal: domain.Principal{Name: "stripe-webhook", Role: "system"}}
	switch ev.Kind {
	case gateway.EventIntentSucceeded:
		_, err = s.transition(ctx, p, models.StatusCompleted, "", system, "payment.confirmed")
	case gateway.EventIntentFailed:
		_, err = s.transition(ctx, p, models.StatusFailed, "card payment "+string(ev.Intent.Status), system, "payment.failed")
	}
	if domain.IsConflict(err) {
		return nil
	}
	return err
}

func (s PaymentService) List(ctx context.Context, f models.PaymentFilter, page domain.Pagination) (domain.Page[models.Payment], error) {
	if f.Status != "" && !f.Status.Valid() {
		return domain.Page[models.Payment]{}, domain.ValidationError{Field: "status", Msg: "unknown status"}
	}
	if f.PaymentMethod != "" && !f.PaymentMethod.Valid() {
		return domain.Page[models.Payment]{}, domain.ValidationError{Field: "payment_method", Msg: "must be cash or stripe"}
	}
	page = page.Normalize()
	rows, total, err := s.Payments.List(ctx, f, page)
	if err != nil {
		return domain.Page[models.Payment]{}, err
	}
	page.Total = total
	return domain.NewPage(rows, page), nil
}

func (s PaymentService) Get(ctx context.Context, id int64) (models.Payment, error) {
	return s.Payments.GetWithItems(ctx, id)
}

func (s PaymentService) Delete(ctx context.Context, id int64, actor Actor) error {
	p, err := s.Payments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Payments.Delete(ctx, id); err != nil {
		return err
	}
	utils.LogEvent(s.RequestID, "payment", "delete", fmt.Sprintf("payment_id=%d txn=%s", id, p.TransactionID))
	s.audit().Record(ctx, actor, "payment.deleted", "payment", id, map[string]any{
		"transaction_id": p.TransactionID,
		"status":         p.Status,
		"total":          utils.FormatMoney(p.Total),
	})
	return nil
}

func (s PaymentService) publish(kind string, p models.Payment) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(realtime.Event{
		Type:          kind,
		PaymentID:     p.ID,
		ClientID:      p.ClientID,
		TransactionID: p.TransactionID,
		Status:        string(p.Status),
		Method:        string(p.PaymentMethod),
		Total:         utils.FormatMoney(p.Total),
		At:            s.now().UTC(),
	})
}
