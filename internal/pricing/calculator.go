// Package pricing computes booking price breakdowns.  The calculator
// is a pure function of its inputs: no I/O, no clock, no storage, so
// quotes are deterministic and independently testable against literal
// fixtures.
package pricing

import "github.com/shopspring/decimal"

// Eligibility carries the discount flags supplied per request by the
// auth collaborator.  The engine trusts these as given.
type Eligibility struct {
	NFTHolder bool // qualifies for the workspace discount
	Member    bool // active membership; enables credit payment
}

// Quote is the full price breakdown for a requested booking.  All
// monetary amounts are in the space's currency; CreditsUsed and
// OverageHours are in hours.
type Quote struct {
	Subtotal           decimal.Decimal `json:"subtotal"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	NFTDiscountApplied bool            `json:"nft_discount_applied"`
	CreditsUsed        decimal.Decimal `json:"credits_used"`
	OverageHours       decimal.Decimal `json:"overage_hours"`
	ProcessingFee      decimal.Decimal `json:"processing_fee"`
	TotalPrice         decimal.Decimal `json:"total_price"`
}

// Calculator holds the pricing constants.  Rates are configuration in
// the sense that admins may tune them, but they change rarely; the
// defaults below are the production values.
type Calculator struct {
	WorkspaceDiscountRate decimal.Decimal // NFT-holder discount on workspace bookings
	CafeDiscountRate      decimal.Decimal // member discount for the cafe category; not applied to workspace bookings
	CardProcessingRate    decimal.Decimal // proportional card fee
	CardFixedFee          decimal.Decimal // fixed per-charge card fee
}

// NewCalculator returns a Calculator with the production rates:
// 50% NFT workspace discount, 10% member cafe discount, and a
// 2.9% + $0.30 card processing fee.
func NewCalculator() *Calculator {
	return &Calculator{
		WorkspaceDiscountRate: decimal.NewFromFloat(0.50),
		CafeDiscountRate:      decimal.NewFromFloat(0.10),
		CardProcessingRate:    decimal.NewFromFloat(0.029),
		CardFixedFee:          decimal.NewFromFloat(0.30),
	}
}

// QuoteBooking prices a workspace booking.
//
// The steps, in order:
//  1. subtotal = rate × duration.
//  2. Members may pay with meeting-room credits when the workspace
//     accepts them and the request opts in: credits cover
//     min(duration, available) hours at zero cash cost and the
//     shortfall becomes overage, which is the only priceable part.
//  3. NFT holders get the workspace discount on the post-credit
//     amount.
//  4. A processing fee of rate×net + fixed applies only when cash is
//     actually due; a fully credit-covered booking costs nothing.
//  5. The total is rounded half-up to 2 decimal places.
func (c *Calculator) QuoteBooking(hourlyRate, durationHours decimal.Decimal, elig Eligibility, availableCreditHours decimal.Decimal, useCredits, acceptsCredits bool) Quote {
	q := Quote{
		Subtotal:       hourlyRate.Mul(durationHours).Round(2),
		DiscountAmount: decimal.Zero,
		CreditsUsed:    decimal.Zero,
		OverageHours:   durationHours,
		ProcessingFee:  decimal.Zero,
	}

	if elig.Member && acceptsCredits && useCredits && availableCreditHours.IsPositive() {
		q.CreditsUsed = decimal.Min(durationHours, availableCreditHours)
		q.OverageHours = durationHours.Sub(q.CreditsUsed)
	}

	priceable := hourlyRate.Mul(q.OverageHours)
	if elig.NFTHolder && priceable.IsPositive() {
		q.DiscountAmount = priceable.Mul(c.WorkspaceDiscountRate).Round(2)
		q.NFTDiscountApplied = true
	}
	net := priceable.Sub(q.DiscountAmount)

	if net.IsPositive() {
		fee := net.Mul(c.CardProcessingRate).Add(c.CardFixedFee)
		q.ProcessingFee = fee.Round(2)
		q.TotalPrice = net.Add(fee).Round(2)
	} else {
		q.TotalPrice = decimal.Zero
	}
	return q
}
