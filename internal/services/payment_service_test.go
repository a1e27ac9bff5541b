package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/gateway"
	"medspa/internal/pricing"

	"github.com/shopspring/decimal"
)

type harness struct {
	svc      PaymentService
	payments *memPayments
	gw       *fakeGateway
	audit    *memAudit
	events   *recordingPublisher
	idem     *MemoryIdempotencyStore
}

func newHarness() *harness {
	h := &harness{
		payments: newMemPayments(),
		gw:       newFakeGateway(),
		audit:    &memAudit{},
		events:   &recordingPublisher{},
		idem:     NewMemoryIdempotencyStore(),
	}
	h.svc = PaymentService{
		Payments:    h.payments,
		Catalog:     newMemCatalog(),
		Gateway:     h.gw,
		Idempotency: h.idem,
		Events:      h.events,
		Audit:       AuditService{Repo: h.audit},
		Currency:    "usd",
		Window:      30 * time.Second,
	}
	return h
}

var staff = Actor{Principal: domain.Principal{UserID: 7, Name: "Front Desk", Role: domain.RoleReception}, IP: "10.0.0.5"}

func facialCheckout(method models.PaymentMethod) CheckoutInput {
	return CheckoutInput{
		ClientID: 3,
		Method:   method,
		Items:    []CartLineInput{{Type: models.ItemService, ID: 1, Name: "Facial", Price: decimal.NewFromInt(150), Quantity: 1}},
		Discount: pricing.Discount{Type: pricing.DiscountNone},
		Actor:    staff,
	}
}

var txnPattern = regexp.MustCompile(`^TXN-[A-Z0-9]+-\d+$`)

func TestCheckoutCashCompletesImmediately(t *testing.T) {
	h := newHarness()

	res, err := h.svc.Checkout(context.Background(), facialCheckout(models.MethodCash))
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	p := res.Payment
	if p.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	if !p.Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected amount 150, got %s", p.Amount)
	}
	if !p.TaxAmount.Equal(decimal.RequireFromString("13.13")) || !p.Total.Equal(decimal.RequireFromString("163.13")) {
		t.Fatalf("unexpected tax/total: %s / %s", p.TaxAmount, p.Total)
	}
	if !txnPattern.MatchString(p.TransactionID) {
		t.Fatalf("transaction id %q does not match pattern", p.TransactionID)
	}
	if len(p.Items) != 1 || p.Items[0].ItemName != "Facial" || p.Items[0].Quantity != 1 {
		t.Fatalf("unexpected items: %+v", p.Items)
	}
	if res.ClientSecret != "" {
		t.Fatalf("cash payment must not carry a client secret")
	}
	if h.gw.creates != 0 {
		t.Fatalf("cash payment must not touch the gateway")
	}
	if got := h.events.types(); len(got) != 1 || got[0] != "paymentCompleted" {
		t.Fatalf("expected one paymentCompleted event, got %v", got)
	}
	if got := h.audit.actions(); len(got) != 1 || got[0] != "payment.created" {
		t.Fatalf("expected payment.created audit entry, got %v", got)
	}
	if h.audit.entries[0].UserID != 7 || h.audit.entries[0].IPAddress != "10.0.0.5" {
		t.Fatalf("audit entry missing actor: %+v", h.audit.entries[0])
	}
}

func TestCheckoutStripeThenConfirm(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	res, err := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	if res.Payment.Status != models.StatusPending {
		t.Fatalf("expected pending, got %s", res.Payment.Status)
	}
	if res.ClientSecret == "" {
		t.Fatalf("expected client secret")
	}
	if h.gw.lastCreate.AmountCents != 16313 || h.gw.lastCreate.Currency != "usd" {
		t.Fatalf("intent charged %d %s", h.gw.lastCreate.AmountCents, h.gw.lastCreate.Currency)
	}
	if h.gw.lastCreate.IdempotencyKey != res.Payment.TransactionID {
		t.Fatalf("intent idempotency key should be the transaction id")
	}
	if len(h.events.types()) != 0 {
		t.Fatalf("pending payment must not publish completion")
	}

	intentID := res.Payment.StripePaymentIntentID
	h.gw.setStatus(intentID, gateway.IntentSucceeded)

	p, err := h.svc.Confirm(ctx, res.Payment.ID, intentID, staff)
	if err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if p.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", p.Status)
	}
	stored, _ := h.payments.GetByID(ctx, p.ID)
	if stored.Status != models.StatusCompleted {
		t.Fatalf("stored status not updated: %s", stored.Status)
	}
	if got := h.events.types(); len(got) != 1 || got[0] != "paymentCompleted" {
		t.Fatalf("expected paymentCompleted after confirm, got %v", got)
	}

	again, err := h.svc.Confirm(ctx, p.ID, intentID, staff)
	if err != nil || again.Status != models.StatusCompleted {
		t.Fatalf("repeat confirm should be a no-op, got %v %v", again.Status, err)
	}
	if len(h.events.types()) != 1 {
		t.Fatalf("repeat confirm must not publish again")
	}
}

func TestConfirmUnknownPaymentIsNotFoundWithoutWrites(t *testing.T) {
	h := newHarness()
	before := h.payments.writes

	_, err := h.svc.Confirm(context.Background(), 999, "pi_1", staff)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if h.payments.writes != before {
		t.Fatalf("unknown payment confirm must not write")
	}
}

func TestConfirmUnsettledIntentIsConflict(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	h.gw.setStatus(res.Payment.StripePaymentIntentID, gateway.IntentProcessing)

	_, err := h.svc.Confirm(ctx, res.Payment.ID, res.Payment.StripePaymentIntentID, staff)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	stored, _ := h.payments.GetByID(ctx, res.Payment.ID)
	if stored.Status != models.StatusPending {
		t.Fatalf("payment should stay pending, got %s", stored.Status)
	}
}

func TestConfirmFailedIntentMarksPaymentFailed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	h.gw.setStatus(res.Payment.StripePaymentIntentID, gateway.IntentCanceled)

	p, err := h.svc.Confirm(ctx, res.Payment.ID, res.Payment.StripePaymentIntentID, staff)
	if !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if p.Status != models.StatusFailed || p.LastError == "" {
		t.Fatalf("expected failed payment with last error, got %+v", p)
	}
}

func TestConfirmRejectsForeignIntent(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))

	_, err := h.svc.Confirm(ctx, res.Payment.ID, "pi_someone_else", staff)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := h.svc.Confirm(ctx, res.Payment.ID, " ", staff); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for blank intent, got %v", err)
	}
}

func TestConfirmCashPaymentIsValidationError(t *testing.T) {
	h := newHarness()
	res, _ := h.svc.Checkout(context.Background(), facialCheckout(models.MethodCash))

	if _, err := h.svc.Confirm(context.Background(), res.Payment.ID, "pi_1", staff); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCheckoutWithSameKeyReturnsSamePayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	in := facialCheckout(models.MethodStripe)
	in.IdempotencyKey = "pos-42-attempt-1"

	first, err := h.svc.Checkout(ctx, in)
	if err != nil {
		t.Fatalf("first Checkout returned error: %v", err)
	}
	second, err := h.svc.Checkout(ctx, in)
	if err != nil {
		t.Fatalf("second Checkout returned error: %v", err)
	}
	if second.Payment.ID != first.Payment.ID || !second.Replayed {
		t.Fatalf("expected replay of payment %d, got %+v", first.Payment.ID, second)
	}
	if second.ClientSecret != first.ClientSecret {
		t.Fatalf("replay should hand back the same client secret")
	}
	if h.payments.creates != 1 || h.gw.creates != 1 {
		t.Fatalf("expected one payment and one intent, got %d / %d", h.payments.creates, h.gw.creates)
	}
	if len(second.Payment.Items) != 1 {
		t.Fatalf("replayed payment should include items")
	}
}

func TestCheckoutDoubleSubmitWithoutKeyIsCollapsed(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.svc.Checkout(ctx, facialCheckout(models.MethodCash))
	if err != nil {
		t.Fatalf("first Checkout returned error: %v", err)
	}
	second, err := h.svc.Checkout(ctx, facialCheckout(models.MethodCash))
	if err != nil {
		t.Fatalf("second Checkout returned error: %v", err)
	}
	if second.Payment.ID != first.Payment.ID || h.payments.creates != 1 {
		t.Fatalf("double submit created %d payments", h.payments.creates)
	}
}

func TestCheckoutInFlightDuplicateIsConflict(t *testing.T) {
	h := newHarness()
	in := facialCheckout(models.MethodCash)
	cart, err := h.svc.priceCart(context.Background(), in.Items)
	if err != nil {
		t.Fatalf("priceCart returned error: %v", err)
	}
	if _, err := h.idem.Reserve(context.Background(), fingerprint(in, cart), time.Minute); err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	_, err = h.svc.Checkout(context.Background(), in)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if h.payments.creates != 0 {
		t.Fatalf("no payment should be created")
	}
}

func TestCheckoutReleasesKeyOnFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.payments.failNext = errors.New("db down")

	if _, err := h.svc.Checkout(ctx, facialCheckout(models.MethodCash)); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := h.svc.Checkout(ctx, facialCheckout(models.MethodCash)); err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
}

func TestCheckoutRepricesFromCatalog(t *testing.T) {
	h := newHarness()
	in := facialCheckout(models.MethodCash)
	in.Items = []CartLineInput{
		{Type: models.ItemService, ID: 1, Name: "Cheap Facial", Price: decimal.NewFromInt(1), Quantity: 2},
		{Type: models.ItemProduct, ID: 9, Quantity: 2},
	}

	res, err := h.svc.Checkout(context.Background(), in)
	if err != nil {
		t.Fatalf("Checkout returned error: %v", err)
	}
	p := res.Payment
	if len(p.Items) != len(in.Items) {
		t.Fatalf("expected one item per submitted line, got %+v", p.Items)
	}
	if p.Items[0].ItemName != "Facial" || !p.Items[0].Price.Equal(decimal.NewFromInt(150)) || p.Items[0].Quantity != 2 {
		t.Fatalf("facial line not repriced: %+v", p.Items[0])
	}
	for i, it := range p.Items {
		if !it.Subtotal.Equal(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))) {
			t.Fatalf("item %d subtotal %s != price x quantity", i, it.Subtotal)
		}
	}
	if !p.Subtotal.Equal(decimal.RequireFromString("391")) {
		t.Fatalf("expected subtotal 391, got %s", p.Subtotal)
	}
}

func TestCheckoutRejectsRepeatedCartLines(t *testing.T) {
	h := newHarness()
	in := facialCheckout(models.MethodCash)
	in.Items = append(in.Items, CartLineInput{Type: models.ItemService, ID: 1, Quantity: 1})

	if _, err := h.svc.Checkout(context.Background(), in); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for a repeated line, got %v", err)
	}
	if h.payments.creates != 0 {
		t.Fatalf("no payment should be created, got %d", h.payments.creates)
	}

	// the key was never reserved, so the corrected cart goes through
	in.Items = in.Items[:1]
	in.Items[0].Quantity = 2
	if _, err := h.svc.Checkout(context.Background(), in); err != nil {
		t.Fatalf("corrected cart returned error: %v", err)
	}
}

func TestFingerprintFollowsPricedCart(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	in := facialCheckout(models.MethodCash)

	hinted := in
	hinted.Items = []CartLineInput{{Type: models.ItemService, ID: 1, Name: "Facial (promo)", Price: decimal.NewFromInt(99), Quantity: 1}}

	a, err := h.svc.priceCart(ctx, in.Items)
	if err != nil {
		t.Fatalf("priceCart returned error: %v", err)
	}
	b, err := h.svc.priceCart(ctx, hinted.Items)
	if err != nil {
		t.Fatalf("priceCart returned error: %v", err)
	}
	if fingerprint(in, a) != fingerprint(hinted, b) {
		t.Fatalf("client price hints must not change the fingerprint")
	}

	more := in
	more.Items = []CartLineInput{{Type: models.ItemService, ID: 1, Quantity: 2}}
	c, err := h.svc.priceCart(ctx, more.Items)
	if err != nil {
		t.Fatalf("priceCart returned error: %v", err)
	}
	if fingerprint(in, a) == fingerprint(more, c) {
		t.Fatalf("different quantities must not collide")
	}
}

func TestCheckoutZeroTotalCardIsRejected(t *testing.T) {
	h := newHarness()
	in := facialCheckout(models.MethodStripe)
	in.Discount = pricing.Discount{Type: pricing.DiscountPercentage, Value: decimal.NewFromInt(100)}

	_, err := h.svc.Checkout(context.Background(), in)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if h.payments.creates != 0 || h.gw.creates != 0 {
		t.Fatalf("zero-total card checkout wrote %d payments and %d intents", h.payments.creates, h.gw.creates)
	}

	// the same visit settles as cash
	in.Method = models.MethodCash
	res, err := h.svc.Checkout(context.Background(), in)
	if err != nil {
		t.Fatalf("cash Checkout returned error: %v", err)
	}
	if res.Payment.Status != models.StatusCompleted || !res.Payment.Total.IsZero() {
		t.Fatalf("unexpected payment %+v", res.Payment)
	}
}

func TestCheckoutValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	cases := map[string]func(*CheckoutInput){
		"missing client": func(in *CheckoutInput) { in.ClientID = 0 },
		"unknown client": func(in *CheckoutInput) { in.ClientID = 404 },
		"empty cart":     func(in *CheckoutInput) { in.Items = nil },
		"bad method":     func(in *CheckoutInput) { in.Method = "cheque" },
		"negative tip":   func(in *CheckoutInput) { in.Tips = decimal.NewFromInt(-1) },
		"unknown item":   func(in *CheckoutInput) { in.Items[0].ID = 77 },
		"bad item type":  func(in *CheckoutInput) { in.Items[0].Type = "voucher" },
		"zero quantity":  func(in *CheckoutInput) { in.Items[0].Quantity = 0 },
	}
	for name, mutate := range cases {
		in := facialCheckout(models.MethodCash)
		mutate(&in)
		if _, err := h.svc.Checkout(ctx, in); !domain.IsValidation(err) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if h.payments.creates != 0 {
		t.Fatalf("invalid checkouts must not create payments")
	}
}

func TestCheckoutIntentFailureKeepsPendingAndRetries(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.gw.createErr = &gateway.Error{Code: "card_declined", Msg: "Your card was declined."}

	res, err := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	var up domain.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if up.PaymentID != res.Payment.ID || res.Payment.ID == 0 {
		t.Fatalf("upstream error should name the payment, got %+v", up)
	}
	stored, _ := h.payments.GetByID(ctx, res.Payment.ID)
	if stored.Status != models.StatusPending || stored.LastError == "" {
		t.Fatalf("expected pending with last error, got %+v", stored)
	}

	h.gw.createErr = nil
	retry, err := h.svc.RetryIntent(ctx, res.Payment.ID)
	if err != nil {
		t.Fatalf("RetryIntent returned error: %v", err)
	}
	if retry.ClientSecret == "" || retry.Payment.StripePaymentIntentID == "" {
		t.Fatalf("retry should open an intent: %+v", retry)
	}
}

func TestRefund(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	intentID := res.Payment.StripePaymentIntentID

	if _, err := h.svc.Refund(ctx, res.Payment.ID, "", staff); !domain.IsConflict(err) {
		t.Fatalf("refunding a pending payment should conflict, got %v", err)
	}

	h.gw.setStatus(intentID, gateway.IntentSucceeded)
	if _, err := h.svc.Confirm(ctx, res.Payment.ID, intentID, staff); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	p, err := h.svc.Refund(ctx, res.Payment.ID, "  client changed\n   mind ", staff)
	if err != nil {
		t.Fatalf("Refund returned error: %v", err)
	}
	if p.Status != models.StatusRefunded {
		t.Fatalf("expected refunded, got %s", p.Status)
	}
	if len(h.gw.refunds) != 1 || h.gw.refunds[0].IntentID != intentID || h.gw.refunds[0].AmountCents != 16313 || h.gw.refunds[0].Reason != "client changed mind" {
		t.Fatalf("unexpected provider refund: %+v", h.gw.refunds)
	}

	cash, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodCash))
	if cash.Payment.ID == res.Payment.ID {
		t.Fatalf("expected a fresh cash payment")
	}
	if p, err := h.svc.Refund(ctx, cash.Payment.ID, "", staff); err != nil || p.Status != models.StatusRefunded {
		t.Fatalf("cash refund failed: %v %v", p.Status, err)
	}
	if len(h.gw.refunds) != 1 {
		t.Fatalf("cash refund must not call the provider")
	}
}

func TestRefundProviderFailureLeavesPaymentCompleted(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	h.gw.setStatus(res.Payment.StripePaymentIntentID, gateway.IntentSucceeded)
	_, _ = h.svc.Confirm(ctx, res.Payment.ID, res.Payment.StripePaymentIntentID, staff)
	h.gw.refundErr = &gateway.Error{Msg: "charge already refunded"}

	if _, err := h.svc.Refund(ctx, res.Payment.ID, "", staff); !domain.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	stored, _ := h.payments.GetByID(ctx, res.Payment.ID)
	if stored.Status != models.StatusCompleted {
		t.Fatalf("payment should stay completed, got %s", stored.Status)
	}
}

func TestTransitionLosingRaceToSameStatusSucceeds(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	p, _ := h.payments.GetWithItems(ctx, res.Payment.ID)
	h.payments.force(p.ID, models.StatusCompleted)

	got, err := h.svc.transition(ctx, p, models.StatusCompleted, "", staff, "payment.confirmed")
	if err != nil || got.Status != models.StatusCompleted {
		t.Fatalf("expected completed without error, got %v %v", got.Status, err)
	}

	h.payments.force(p.ID, models.StatusFailed)
	if _, err := h.svc.transition(ctx, p, models.StatusCompleted, "", staff, "payment.confirmed"); !domain.IsConflict(err) {
		t.Fatalf("expected conflict when another status won, got %v", err)
	}
}

func TestHandleWebhookCompletesPendingPayment(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodStripe))
	intent, _ := h.gw.GetIntent(ctx, res.Payment.StripePaymentIntentID)
	intent.Status = gateway.IntentSucceeded

	if err := h.svc.HandleWebhook(ctx, gateway.Event{Kind: gateway.EventIntentSucceeded, Intent: intent}); err != nil {
		t.Fatalf("HandleWebhook returned error: %v", err)
	}
	stored, _ := h.payments.GetByID(ctx, res.Payment.ID)
	if stored.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}

	// replayed delivery is harmless
	if err := h.svc.HandleWebhook(ctx, gateway.Event{Kind: gateway.EventIntentSucceeded, Intent: intent}); err != nil {
		t.Fatalf("duplicate webhook returned error: %v", err)
	}
}

func TestHandleWebhookIgnoresUnknownIntent(t *testing.T) {
	h := newHarness()
	ev := gateway.Event{Kind: gateway.EventIntentSucceeded, Intent: gateway.Intent{ID: "pi_unknown", Status: gateway.IntentSucceeded}}
	if err := h.svc.HandleWebhook(context.Background(), ev); err != nil {
		t.Fatalf("unknown intent should be ignored, got %v", err)
	}
	if h.payments.writes != 0 {
		t.Fatalf("unknown intent must not write")
	}
}

func TestListReturnsEnvelope(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, _ = h.svc.Checkout(ctx, facialCheckout(models.MethodCash))
	in := facialCheckout(models.MethodStripe)
	_, _ = h.svc.Checkout(ctx, in)

	page, err := h.svc.List(ctx, models.PaymentFilter{Status: models.StatusPending}, domain.Pagination{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Meta.Total != 1 || len(page.Data) != 1 || page.Data[0].Status != models.StatusPending {
		t.Fatalf("unexpected page: %+v", page)
	}
	if page.Meta.Page != 1 || page.Meta.PageSize != 25 {
		t.Fatalf("pagination not normalized: %+v", page.Meta)
	}
	if _, err := h.svc.List(ctx, models.PaymentFilter{Status: "lost"}, domain.Pagination{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}

func TestDeleteRecordsAudit(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res, _ := h.svc.Checkout(ctx, facialCheckout(models.MethodCash))

	if err := h.svc.Delete(ctx, res.Payment.ID, staff); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := h.svc.Get(ctx, res.Payment.ID); !domain.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	actions := h.audit.actions()
	if actions[len(actions)-1] != "payment.deleted" {
		t.Fatalf("expected payment.deleted audit entry, got %v", actions)
	}
}

func TestQuote(t *testing.T) {
	h := newHarness()
	q, err := h.svc.Quote(context.Background(), QuoteInput{
		Items:    []CartLineInput{{Type: models.ItemService, ID: 2, Quantity: 1}},
		Discount: pricing.Discount{Type: pricing.DiscountPercentage, Value: decimal.NewFromInt(10)},
		Tip:      decimal.NewFromInt(20),
	})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	// 300 - 30 = 270, tax 23.625 -> 23.63, total 270 + 23.63 + 20
	if !q.Breakdown.Total.Equal(decimal.RequireFromString("313.63")) {
		t.Fatalf("unexpected total %s", q.Breakdown.Total)
	}
	if len(q.Lines) != 1 || q.Lines[0].Name != "Botox" {
		t.Fatalf("unexpected lines %+v", q.Lines)
	}
}
