package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func assertEq(t *testing.T, field string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s = %s, want %s", field, got.String(), want.String())
	}
}

// Guest booking: one hour at $10/h with no discounts or credits.
// The card fee is 2.9% + $0.30.
func TestQuoteGuestOneHour(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(d("10"), d("1"), Eligibility{}, decimal.Zero, false, true)

	assertEq(t, "Subtotal", q.Subtotal, d("10.00"))
	assertEq(t, "DiscountAmount", q.DiscountAmount, d("0"))
	assertEq(t, "CreditsUsed", q.CreditsUsed, d("0"))
	assertEq(t, "OverageHours", q.OverageHours, d("1"))
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("0.59"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("10.59"))
	if q.NFTDiscountApplied {
		t.Fatal("NFTDiscountApplied set for a guest")
	}
}

// NFT holder pays half the workspace rate; the fee applies to the
// discounted amount.
func TestQuoteNFTHolderHalfOff(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(d("10"), d("1"), Eligibility{NFTHolder: true}, decimal.Zero, false, true)

	assertEq(t, "Subtotal", q.Subtotal, d("10.00"))
	assertEq(t, "DiscountAmount", q.DiscountAmount, d("5.00"))
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("0.45"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("5.45"))
	if !q.NFTDiscountApplied {
		t.Fatal("NFTDiscountApplied not set")
	}
}

// A member with enough credits pays nothing, and no card fee is
// charged on a zero cash total.
func TestQuoteFullyCreditCovered(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(d("25"), d("2"), Eligibility{Member: true}, d("5"), true, true)

	assertEq(t, "Subtotal", q.Subtotal, d("50.00"))
	assertEq(t, "CreditsUsed", q.CreditsUsed, d("2"))
	assertEq(t, "OverageHours", q.OverageHours, d("0"))
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("0"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("0"))
}

// NFT holder, three hours at $50/h: $150 subtotal, $75 discount,
// $2.48 fee, $77.48 total.  Rounding is half-up at the final step.
func TestQuoteNFTThreeHours(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(d("50"), d("3"), Eligibility{NFTHolder: true}, decimal.Zero, false, true)

	assertEq(t, "Subtotal", q.Subtotal, d("150.00"))
	assertEq(t, "DiscountAmount", q.DiscountAmount, d("75.00"))
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("2.48"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("77.48"))
}

// Credits cap at the available balance; the shortfall is priced as
// overage at the full rate.
func TestQuoteCreditsClampToAvailable(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(d("20"), d("4"), Eligibility{Member: true}, d("1.5"), true, true)

	assertEq(t, "CreditsUsed", q.CreditsUsed, d("1.5"))
	assertEq(t, "OverageHours", q.OverageHours, d("2.5"))
	// 2.5h * $20 = $50; fee 50*0.029+0.30 = 1.75.
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("1.75"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("51.75"))
}

// Credits require membership, an opted-in request, and a workspace
// that accepts them; missing any one of the three prices the full
// duration.
func TestQuoteCreditGating(t *testing.T) {
	c := NewCalculator()
	cases := []struct {
		name           string
		elig           Eligibility
		useCredits     bool
		acceptsCredits bool
	}{
		{"not a member", Eligibility{}, true, true},
		{"did not opt in", Eligibility{Member: true}, false, true},
		{"workspace rejects credits", Eligibility{Member: true}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := c.QuoteBooking(d("10"), d("2"), tc.elig, d("10"), tc.useCredits, tc.acceptsCredits)
			assertEq(t, "CreditsUsed", q.CreditsUsed, d("0"))
			assertEq(t, "OverageHours", q.OverageHours, d("2"))
		})
	}
}

// The calculator is pure: the same inputs always produce the same
// breakdown.
func TestQuoteDeterministic(t *testing.T) {
	c := NewCalculator()
	elig := Eligibility{NFTHolder: true, Member: true}
	first := c.QuoteBooking(d("33.33"), d("2.5"), elig, d("1"), true, true)
	for i := 0; i < 10; i++ {
		again := c.QuoteBooking(d("33.33"), d("2.5"), elig, d("1"), true, true)
		if !again.TotalPrice.Equal(first.TotalPrice) || !again.ProcessingFee.Equal(first.ProcessingFee) {
			t.Fatalf("quote drifted on iteration %d: %+v vs %+v", i, again, first)
		}
	}
}

// Zero-rate workspaces produce a zero total with no fee.
func TestQuoteZeroRateNoFee(t *testing.T) {
	c := NewCalculator()
	q := c.QuoteBooking(decimal.Zero, d("3"), Eligibility{}, decimal.Zero, false, true)
	assertEq(t, "ProcessingFee", q.ProcessingFee, d("0"))
	assertEq(t, "TotalPrice", q.TotalPrice, d("0"))
}
