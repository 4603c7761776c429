package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrNoLines     = errors.New("at least one line is required to compute totals")
	ErrInvalidLine = errors.New("line must have a positive quantity and a non-negative price with at most two decimal places")
)

var (
	// TaxRate is applied to the items subtotal.
	TaxRate = decimal.RequireFromString("0.18")
	// FreeShippingThreshold must be strictly exceeded for free shipping.
	FreeShippingThreshold = decimal.NewFromInt(1000)
	// FlatShippingFee is charged when the subtotal does not exceed the threshold.
	FlatShippingFee = decimal.NewFromInt(49)
)

// Line is a single priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals holds the server-computed amounts of an order
type Totals struct {
	ItemsPrice    decimal.Decimal `json:"items_price"`
	TaxPrice      decimal.Decimal `json:"tax_price"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// Compute derives item, tax, shipping and grand totals from lines.
//
// Amounts are rounded half away from zero to two places. Because every input
// is non-negative this is plain round-half-up. Unit prices are limited to two
// decimal places, so TotalPrice always equals ItemsPrice+TaxPrice+ShippingPrice.
func Compute(lines []Line) (Totals, error) {
	if len(lines) == 0 {
		return Totals{}, ErrNoLines
	}

	items := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() || !l.UnitPrice.Equal(round2(l.UnitPrice)) {
			return Totals{}, ErrInvalidLine
		}
		items = items.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	tax := round2(items.Mul(TaxRate))
	shipping := FlatShippingFee
	if items.GreaterThan(FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	return Totals{
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    round2(items.Add(tax).Add(shipping)),
	}, nil
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
