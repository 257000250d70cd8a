package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/shop_platform/internal/apperr"
)

// Line is one priced order line. UnitPrice is in minor units (cents).
type Line struct {
	ProductID uint
	UnitPrice int64
	Quantity  uint
}

// Totals are minor units. Total = Subtotal - DiscountAmount.
type Totals struct {
	Subtotal       int64 `json:"subtotal"`
	DiscountAmount int64 `json:"discount_amount"`
	Total          int64 `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// ComputeTotals sums the lines and applies at most one percentage discount.
// discountPercent of 0 means no discount; otherwise it must be in [1,100].
// Pure function: no I/O, deterministic, integer minor units in and out.
// The discount amount is computed in decimal and rounded half up to a cent.
func ComputeTotals(items []Line, discountPercent int64) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("%w: items required", apperr.ErrValidation)
	}
	if discountPercent < 0 || discountPercent > 100 {
		return Totals{}, fmt.Errorf("%w: discount percentage must be between 1 and 100", apperr.ErrValidation)
	}

	var subtotal int64
	for _, it := range items {
		if it.UnitPrice <= 0 {
			return Totals{}, fmt.Errorf("%w: price must be > 0 for product %d", apperr.ErrValidation, it.ProductID)
		}
		if it.Quantity == 0 {
			return Totals{}, fmt.Errorf("%w: quantity must be > 0 for product %d", apperr.ErrValidation, it.ProductID)
		}
		subtotal += it.UnitPrice * int64(it.Quantity)
	}

	t := Totals{Subtotal: subtotal, Total: subtotal}
	if discountPercent > 0 {
		amount := decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(discountPercent)).
			Div(hundred).
			Round(0)
		t.DiscountAmount = amount.IntPart()
		t.Total = subtotal - t.DiscountAmount
	}
	return t, nil
}
