package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/blackwhale4ducate1-tech/smart-trolley-backend/internal/domain/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeBasicGST(t *testing.T) {
	// 5 units at 100.00 with 18% GST and no discount.
	a, err := Compute(dec("5"), dec("100.00"), dec("0"), models.DiscountAmount, dec("18"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.LineTotal.StringFixed(2); got != "500.00" {
		t.Fatalf("lineTotal = %s, want 500.00", got)
	}
	if got := a.GSTAmount.StringFixed(2); got != "90.00" {
		t.Fatalf("gstAmount = %s, want 90.00", got)
	}
	if got := a.TotalAmount.StringFixed(2); got != "590.00" {
		t.Fatalf("totalAmount = %s, want 590.00", got)
	}
}

func TestComputePercentageDiscount(t *testing.T) {
	// base 200.00, 10% discount -> 180.00, 5% GST -> 9.00.
	a, err := Compute(dec("2"), dec("100.00"), dec("10"), models.DiscountPercentage, dec("5"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.DiscountAmount.StringFixed(2); got != "20.00" {
		t.Fatalf("discountAmount = %s, want 20.00", got)
	}
	if got := a.LineTotal.StringFixed(2); got != "180.00" {
		t.Fatalf("lineTotal = %s, want 180.00", got)
	}
	if got := a.GSTAmount.StringFixed(2); got != "9.00" {
		t.Fatalf("gstAmount = %s, want 9.00", got)
	}
}

func TestComputeFlatDiscount(t *testing.T) {
	a, err := Compute(dec("3"), dec("50.00"), dec("25.50"), models.DiscountAmount, dec("0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.LineTotal.StringFixed(2); got != "124.50" {
		t.Fatalf("lineTotal = %s, want 124.50", got)
	}
	if got := a.TotalAmount.StringFixed(2); got != "124.50" {
		t.Fatalf("totalAmount = %s, want 124.50", got)
	}
}

func TestComputeRoundsHalfAwayFromZero(t *testing.T) {
	// 0.125 ties must round up to 0.13, not to even (0.12).
	a, err := Compute(dec("1"), dec("0.125"), dec("0"), models.DiscountAmount, dec("0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.LineTotal.StringFixed(2); got != "0.13" {
		t.Fatalf("lineTotal = %s, want 0.13", got)
	}

	// 2.5% of 10.10 = 0.2525 -> 0.25; GST 18% of 10.10 after a 0.05
	// discount: 10.05 * 0.18 = 1.809 -> 1.81.
	a, err = Compute(dec("1"), dec("10.10"), dec("0.05"), models.DiscountAmount, dec("18"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.GSTAmount.StringFixed(2); got != "1.81" {
		t.Fatalf("gstAmount = %s, want 1.81", got)
	}
}

func TestComputeRejectsOversizedDiscount(t *testing.T) {
	_, err := Compute(dec("1"), dec("10.00"), dec("10.01"), models.DiscountAmount, dec("18"))
	if !errors.Is(err, ErrDiscountExceedsBase) {
		t.Fatalf("expected ErrDiscountExceedsBase, got %v", err)
	}
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("discount error should be a validation error, got %v", err)
	}

	// Discount exactly equal to base is allowed and zeroes the line.
	a, err := Compute(dec("1"), dec("10.00"), dec("10.00"), models.DiscountAmount, dec("18"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.TotalAmount.IsZero() {
		t.Fatalf("totalAmount = %s, want 0", a.TotalAmount)
	}
}

func TestComputeInputValidation(t *testing.T) {
	cases := []struct {
		name                      string
		qty, price, discount, gst string
		discountType              models.DiscountType
	}{
		{"zero quantity", "0", "10", "0", "18", models.DiscountAmount},
		{"negative quantity", "-1", "10", "0", "18", models.DiscountAmount},
		{"negative price", "1", "-10", "0", "18", models.DiscountAmount},
		{"negative discount", "1", "10", "-1", "18", models.DiscountAmount},
		{"gst above 100", "1", "10", "0", "101", models.DiscountAmount},
		{"negative gst", "1", "10", "0", "-1", models.DiscountAmount},
		{"unknown discount type", "1", "10", "0", "18", models.DiscountType("bogus")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(dec(tc.qty), dec(tc.price), dec(tc.discount), tc.discountType, dec(tc.gst))
			if !errors.Is(err, models.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSumTotals(t *testing.T) {
	items := []models.InvoiceItem{
		{LineTotal: 500.00, GSTAmount: 90.00},
		{LineTotal: 124.50, GSTAmount: 0},
	}
	sub, gst, total := SumTotals(items)
	if sub != 624.50 {
		t.Fatalf("subtotal = %v, want 624.50", sub)
	}
	if gst != 90.00 {
		t.Fatalf("totalGst = %v, want 90.00", gst)
	}
	if total != 714.50 {
		t.Fatalf("totalAmount = %v, want 714.50", total)
	}
}

func TestSumTotalsEmpty(t *testing.T) {
	sub, gst, total := SumTotals(nil)
	if sub != 0 || gst != 0 || total != 0 {
		t.Fatalf("empty item set should sum to zero, got %v/%v/%v", sub, gst, total)
	}
}
