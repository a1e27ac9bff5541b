package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"medspa/internal/domain"
	"medspa/internal/domain/models"
	"medspa/internal/pricing"
	"medspa/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cartItemRequest struct {
	Type     string          `json:"type"`
	ItemType string          `json:"item_type"`
	ID       int64           `json:"id"`
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity *int            `json:"quantity"`
}

type checkoutRequest struct {
	ClientID       int64             `json:"client_id"`
	PaymentMethod  string            `json:"payment_method"`
	Amount         *decimal.Decimal  `json:"amount"`
	Tips           decimal.Decimal   `json:"tips"`
	Commission     decimal.Decimal   `json:"commission"`
	Notes          string            `json:"notes"`
	DiscountType   string            `json:"discount_type"`
	DiscountValue  decimal.Decimal   `json:"discount_value"`
	CartItems      []cartItemRequest `json:"cart_items"`
	IdempotencyKey string            `json:"idempotency_key"`
}

// toLines accepts both {type,id} and {item_type,item_id} spellings. A missing
// quantity means one.
func toLines(items []cartItemRequest) []services.CartLineInput {
	out := make([]services.CartLineInput, 0, len(items))
	for _, it := range items {
		t := it.Type
		if t == "" {
			t = it.ItemType
		}
		id := it.ID
		if id == 0 {
			id = it.ItemID
		}
		qty := 1
		if it.Quantity != nil {
			qty = *it.Quantity
		}
		out = append(out, services.CartLineInput{
			Type:     models.ItemType(strings.ToLower(strings.TrimSpace(t))),
			ID:       id,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: qty,
		})
	}
	return out
}

// CreatePayment handles POST /api/payments.
func (h *Handlers) CreatePayment(c *gin.Context) {
	var req checkoutRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	key := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(req.IdempotencyKey)
	}
	if len(key) > 128 {
		respondError(c, http.StatusBadRequest, "validation_error", "idempotency key must be at most 128 characters", nil)
		return
	}

	res, err := h.payments(c).Checkout(c.Request.Context(), services.CheckoutInput{
		ClientID:       req.ClientID,
		Method:         models.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		Items:          toLines(req.CartItems),
		Discount:       pricing.Discount{Type: pricing.ParseDiscountType(req.DiscountType), Value: req.DiscountValue},
		Tips:           req.Tips,
		Commission:     req.Commission,
		Notes:          req.Notes,
		AmountHint:     req.Amount,
		IdempotencyKey: key,
		Actor:          actor(c),
	})
	if err != nil {
		respondCheckoutError(c, res, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// respondCheckoutError keeps the created payment in the body when only the
// provider step failed, so the POS can retry the intent for that payment.
func respondCheckoutError(c *gin.Context, res services.CheckoutResult, err error) {
	var up domain.UpstreamError
	if errors.As(err, &up) && res.Payment.ID > 0 {
		respondError(c, http.StatusPaymentRequired, "payment_provider_error", up.Error(), gin.H{
			"payment_id": res.Payment.ID,
			"payment":    res.Payment,
		})
		return
	}
	RespondDomainError(c, err)
}

// ListPayments handles GET /api/payments.
func (h *Handlers) ListPayments(c *gin.Context) {
	page, ok := pagination(c)
	if !ok {
		return
	}
	clientID, ok := queryInt64(c, "client_id")
	if !ok {
		return
	}
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	f := models.PaymentFilter{
		Status:        models.PaymentStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		PaymentMethod: models.PaymentMethod(strings.ToLower(strings.TrimSpace(c.Query("payment_method")))),
		ClientID:      clientID,
		From:          from,
		To:            to,
	}
	out, err := h.payments(c).List(c.Request.Context(), f, page)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetPayment handles GET /api/payments/:id.
func (h *Handlers) GetPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, err := h.payments(c).Get(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePayment handles DELETE /api/payments/:id.
func (h *Handlers) DeletePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.payments(c).Delete(c.Request.Context(), id, actor(c)); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "payment deleted", "id": id})
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

// ConfirmPayment handles POST /api/payments/:id/confirm.
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req confirmRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	p, err := h.payments(c).Confirm(c.Request.Context(), id, req.PaymentIntentID, actor(c))
	if err != nil {
		if p.ID > 0 {
			respondCheckoutError(c, services.CheckoutResult{Payment: p}, err)
			return
		}
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

// RetryPaymentIntent handles POST /api/payments/:id/intent.
func (h *Handlers) RetryPaymentIntent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.payments(c).RetryIntent(c.Request.Context(), id)
	if err != nil {
		respondCheckoutError(c, res, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type refundRequest struct {
	Reason string `json:"reason"`
}

// RefundPayment handles POST /api/payments/:id/refund.
func (h *Handlers) RefundPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req refundRequest
	if hasBody(c) {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(c, http.StatusBadRequest, "invalid_payload", "invalid JSON payload", err.Error())
			return
		}
	}
	p, err := h.payments(c).Refund(c.Request.Context(), id, req.Reason, actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}

type quoteRequest struct {
	DiscountType  string            `json:"discount_type"`
	DiscountValue decimal.Decimal   `json:"discount_value"`
	Tips          decimal.Decimal   `json:"tips"`
	CartItems     []cartItemRequest `json:"cart_items"`
}

// QuoteCart handles POST /api/pos/quote.
func (h *Handlers) QuoteCart(c *gin.Context) {
	var req quoteRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	q, err := h.payments(c).Quote(c.Request.Context(), services.QuoteInput{
		Items:    toLines(req.CartItems),
		Discount: pricing.Discount{Type: pricing.ParseDiscountType(req.DiscountType), Value: req.DiscountValue},
		Tip:      req.Tips,
	})
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GetPaymentReceipt handles GET /api/payments/:id/receipt.
func (h *Handlers) GetPaymentReceipt(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, filename, err := h.docs(c).GenerateReceipt(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	disposition := "inline"
	if c.Query("download") == "1" {
		disposition = "attachment"
	}
	sendPDF(c, data, filename, disposition)
}
