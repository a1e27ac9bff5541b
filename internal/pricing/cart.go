package pricing

import (
	"strings"

	"medspa/internal/domain/models"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to the discounted subtotal.
var TaxRate = decimal.RequireFromString("0.0875")

var hundred = decimal.NewFromInt(100)

// Line is one cart entry.
type Line struct {
	Type     models.ItemType `json:"type"`
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price x quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart keeps lines in insertion order, one line per (type, id).
type Cart struct {
	lines []Line
}

func NewCart() *Cart { return &Cart{} }

func (c *Cart) index(id int64, t models.ItemType) int {
	for i, l := range c.lines {
		if l.ID == id && l.Type == t {
			return i
		}
	}
	return -1
}

// Add merges into an existing (id, type) line or appends a new one.
// A quantity below 1 counts as 1.
func (c *Cart) Add(l Line) {
	if l.Quantity < 1 {
		l.Quantity = 1
	}
	if i := c.index(l.ID, l.Type); i >= 0 {
		c.lines[i].Quantity += l.Quantity
		return
	}
	c.lines = append(c.lines, l)
}

// UpdateQuantity applies delta, clamping at zero. A line that reaches zero is removed.
func (c *Cart) UpdateQuantity(id int64, t models.ItemType, delta int) {
	i := c.index(id, t)
	if i < 0 {
		return
	}
	q := c.lines[i].Quantity + delta
	if q <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Quantity = q
}

func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

type DiscountType string

const (
	DiscountNone       DiscountType = "none"
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// Discount is either a percentage of the subtotal or a flat amount.
type Discount struct {
	Type  DiscountType    `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// ParseDiscountType accepts the UI spellings; unknown values mean no discount.
func ParseDiscountType(s string) DiscountType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "percentage", "percent", "%":
		return DiscountPercentage
	case "amount", "flat", "fixed":
		return DiscountAmount
	default:
		return DiscountNone
	}
}

// Apply returns the discount for subtotal, never negative and never more than subtotal.
func (d Discount) Apply(subtotal decimal.Decimal) decimal.Decimal {
	if d.Value.IsNegative() || subtotal.IsNegative() {
		return decimal.Zero
	}
	var amt decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		pct := decimal.Min(d.Value, hundred)
		amt = subtotal.Mul(pct).Div(hundred)
	case DiscountAmount:
		amt = d.Value
	default:
		return decimal.Zero
	}
	return decimal.Min(amt, subtotal)
}

// Breakdown is the derived pricing of a cart, each field rounded to cents.
type Breakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Tip            decimal.Decimal `json:"tip"`
	Total          decimal.Decimal `json:"total"`
}

// Totals derives subtotal, discount, tax and total.
// total = subtotal - discount + tax + tip, tax = (subtotal - discount) * TaxRate.
func (c *Cart) Totals(d Discount, tip decimal.Decimal) Breakdown {
	if tip.IsNegative() {
		tip = decimal.Zero
	}
	subtotal := c.Subtotal().Round(2)
	discount := d.Apply(subtotal).Round(2)
	taxable := subtotal.Sub(discount)
	tax := taxable.Mul(TaxRate).Round(2)
	tip = tip.Round(2)

	return Breakdown{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxableAmount:  taxable,
		TaxAmount:      tax,
		Tip:            tip,
		Total:          taxable.Add(tax).Add(tip),
	}
}

// ToCents converts a dollar amount to the smallest currency unit.
func ToCents(v decimal.Decimal) int64 {
	return v.Mul(hundred).Round(0).IntPart()
}
