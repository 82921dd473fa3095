// Package pricing computes per-line discount, GST and total amounts. It is
// deliberately free of storage or clock dependencies so that the arithmetic
// can be tested in isolation and invoked before any write.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

// Rounding is fixed at two decimal places, ties away from zero, matching
// conventional currency display.
const places = 2

var hundred = decimal.NewFromInt(100)

// ErrDiscountExceedsBase is returned when the discount amount would push the
// line total below zero.
var ErrDiscountExceedsBase = fmt.Errorf("%w: discount exceeds line base amount", models.ErrValidation)

// Amounts holds the derived money values for one invoice line.
type Amounts struct {
	Base           decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
	GSTAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
}

// Compute prices a single line:
//
//	base       = quantity * unitPrice
//	discount   = percentage ? base * discount / 100 : discount
//	lineTotal  = base - discount
//	gst        = lineTotal * gstRate / 100
//	total      = lineTotal + gst
//
// All outputs are rounded to 2 decimal places. A discount larger than the
// base amount is rejected rather than clamped.
func Compute(quantity, unitPrice, discount decimal.Decimal, discountType models.DiscountType, gstRate decimal.Decimal) (Amounts, error) {
	if quantity.Sign() <= 0 {
		return Amounts{}, fmt.Errorf("%w: quantity must be positive", models.ErrValidation)
	}
	if unitPrice.Sign() < 0 {
		return Amounts{}, fmt.Errorf("%w: unit price must not be negative", models.ErrValidation)
	}
	if discount.Sign() < 0 {
		return Amounts{}, fmt.Errorf("%w: discount must not be negative", models.ErrValidation)
	}
	if gstRate.Sign() < 0 || gstRate.GreaterThan(hundred) {
		return Amounts{}, fmt.Errorf("%w: gst rate must be between 0 and 100", models.ErrValidation)
	}

	base := quantity.Mul(unitPrice)

	var discountAmount decimal.Decimal
	switch discountType {
	case models.DiscountPercentage:
		discountAmount = base.Mul(discount).Div(hundred)
	case models.DiscountAmount:
		discountAmount = discount
	default:
		return Amounts{}, fmt.Errorf("%w: unknown discount type %q", models.ErrValidation, discountType)
	}

	lineTotal := base.Sub(discountAmount)
	if lineTotal.Sign() < 0 {
		return Amounts{}, ErrDiscountExceedsBase
	}

	gst := lineTotal.Mul(gstRate).Div(hundred)

	return Amounts{
		Base:           base.Round(places),
		DiscountAmount: discountAmount.Round(places),
		LineTotal:      lineTotal.Round(places),
		GSTAmount:      gst.Round(places),
		TotalAmount:    lineTotal.Add(gst).Round(places),
	}, nil
}

// ComputeFloats is a convenience wrapper over Compute for callers holding
// float64 fields, returning rounded float64 results.
func ComputeFloats(quantity, unitPrice, discount float64, discountType models.DiscountType, gstRate float64) (gstAmount, lineTotal, totalAmount float64, err error) {
	a, err := Compute(
		decimal.NewFromFloat(quantity),
		decimal.NewFromFloat(unitPrice),
		decimal.NewFromFloat(discount),
		discountType,
		decimal.NewFromFloat(gstRate),
	)
	if err != nil {
		return 0, 0, 0, err
	}
	return a.GSTAmount.InexactFloat64(), a.LineTotal.InexactFloat64(), a.TotalAmount.InexactFloat64(), nil
}

// SumTotals recomputes invoice-level totals from the given items. It is the
// single source of truth for aggregate money fields: totals are always a full
// re-sum, never an incremental patch.
func SumTotals(items []models.InvoiceItem) (subtotal, totalGST, totalAmount float64) {
	sub := decimal.Zero
	gst := decimal.Zero
	for _, it := range items {
		sub = sub.Add(decimal.NewFromFloat(it.LineTotal))
		gst = gst.Add(decimal.NewFromFloat(it.GSTAmount))
	}
	total := sub.Add(gst)
	return sub.Round(places).InexactFloat64(),
		gst.Round(places).InexactFloat64(),
		total.Round(places).InexactFloat64()
}
