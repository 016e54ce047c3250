package services

import (
	"strings"

	"airport_manager/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// PaymentSummary describes how much of an order total is covered.
// PaidPercentage is not clamped; Overpaid is set when it exceeds 100.
type PaymentSummary struct {
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Balance        decimal.Decimal `json:"balance"`
	PaidPercentage decimal.Decimal `json:"paid_percentage"`
	Overpaid       bool            `json:"overpaid"`
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ItemSubtotal is max(quantity,0) * max(unitPrice,0), rounded to cents.
func ItemSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	if quantity < 0 {
		quantity = 0
	}
	return decimal.NewFromInt(int64(quantity)).Mul(nonNegative(unitPrice)).Round(2)
}

// OrderTotals sums item subtotals and applies the discount. A discount larger
// than the subtotal yields a zero total, never a negative one. All amounts are
// in cents, as stored.
func OrderTotals(items []models.OrderItem, discount decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(ItemSubtotal(it.Quantity, it.UnitPrice))
	}
	discount = nonNegative(discount).Round(2)
	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    nonNegative(subtotal.Sub(discount)),
	}
}

// Balance computes paid total, outstanding balance and paid percentage.
// Non-positive payment amounts are ignored.
func Balance(total decimal.Decimal, payments []models.Payment) PaymentSummary {
	paid := decimal.Zero
	for _, p := range payments {
		if p.Amount.IsPositive() {
			paid = paid.Add(p.Amount)
		}
	}

	sum := PaymentSummary{
		TotalPaid:      paid,
		Balance:        nonNegative(total.Sub(paid)),
		PaidPercentage: decimal.Zero,
	}
	if total.IsPositive() {
		sum.PaidPercentage = paid.Div(total).Mul(hundred).Round(2)
		sum.Overpaid = sum.PaidPercentage.GreaterThan(hundred)
	}
	return sum
}

// ValidatePayment guards a new payment against the order's current balance.
func ValidatePayment(amount, balance decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if amount.GreaterThan(balance) {
		return ErrAmountExceedsBalance
	}
	return nil
}

// ItemInput is a line item as submitted by a client.
type ItemInput struct {
	CategoryID  *uint           `json:"category_id"`
	Description string          `json:"description"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// BuildItems trims item text fields, rounds prices to cents and fills in
// subtotals.
func BuildItems(in []ItemInput) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		price := it.UnitPrice.Round(2)
		items = append(items, models.OrderItem{
			CategoryID:  it.CategoryID,
			Description: strings.TrimSpace(it.Description),
			Size:        strings.TrimSpace(it.Size),
			Color:       strings.TrimSpace(it.Color),
			Quantity:    it.Quantity,
			UnitPrice:   price,
			Subtotal:    ItemSubtotal(it.Quantity, price),
		})
	}
	return items
}

// ValidateItems checks the order has items, each with quantity >= 1 and a
// non-negative unit price, and that the resulting total is positive.
func ValidateItems(items []models.OrderItem, discount decimal.Decimal) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, ErrItemsRequired
	}
	for i, it := range items {
		if it.Quantity < 1 {
			return Totals{}, validation("item %d: quantity must be at least 1", i+1)
		}
		if it.UnitPrice.IsNegative() {
			return Totals{}, validation("item %d: price must not be negative", i+1)
		}
	}
	if discount.IsNegative() {
		return Totals{}, validation("discount must not be negative")
	}
	t := OrderTotals(items, discount)
	if !t.Total.IsPositive() {
		return t, ErrTotalNotPositive
	}
	return t, nil
}
