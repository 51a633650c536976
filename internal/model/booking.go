package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus enumerates the lifecycle states of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCheckedIn BookingStatus = "checked-in"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Active reports whether the status still occupies its time slot.
// Completed and cancelled bookings release the slot.
func (s BookingStatus) Active() bool {
	return s == BookingPending || s == BookingConfirmed || s == BookingCheckedIn
}

// PaymentStatus tracks the cash side of a booking.
type PaymentStatus string

const (
	PaymentUnpaid      PaymentStatus = "unpaid"
	PaymentPaid        PaymentStatus = "paid"
	PaymentNotRequired PaymentStatus = "not-required"
)

// Booking represents one reservation in the `bookings` table together
// with the price breakdown frozen at creation time.  The breakdown is
// denormalized onto the row on purpose: rates and eligibility may
// change later, but the booking keeps the numbers it was sold at.
//
// Fields:
//  ID                  – primary key identifier of the booking.
//  WorkspaceID         – the booked workspace.
//  UserID              – the booking owner.
//  Date                – calendar date of the booking, YYYY-MM-DD.
//  StartMinute         – window start, minutes from midnight (inclusive).
//  EndMinute           – window end, minutes from midnight (exclusive).
//  DurationHours       – booked length in hours.
//  Attendees           – headcount declared at booking time.
//  Subtotal            – hourly rate × booked duration.
//  DiscountAmount      – NFT-holder discount applied to the cash portion.
//  NFTDiscountApplied  – whether the discount row above is non-zero by eligibility.
//  CreditsUsed         – credit-hours consumed from the member's balance.
//  OverageHours        – hours beyond the credit coverage, billed in cash.
//  ProcessingFee       – card fee added when cash is due.
//  TotalPrice          – final amount charged at creation.
//  Status              – lifecycle state.
//  PaymentStatus       – unpaid, paid, or not-required.
//  ConfirmationCode    – opaque code handed to the member on creation.
//  CreditTransactionID – usage ledger entry backing CreditsUsed (nullable).
//  CancelReason        – optional reason recorded on cancellation.
//  CheckInAt           – recorded arrival time (nullable).
//  CheckOutAt          – recorded departure time (nullable).
//  ActualDurationHours – measured usage between check-in and check-out (nullable).
//  FinalCharge         – reconciled amount after check-out (nullable).
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type Booking struct {
	ID                  uint64           // bookings.id
	WorkspaceID         uint64           // bookings.workspace_id
	UserID              uint64           // bookings.user_id
	Date                string           // bookings.date
	StartMinute         int              // bookings.start_minute
	EndMinute           int              // bookings.end_minute
	DurationHours       decimal.Decimal  // bookings.duration_hours
	Attendees           int              // bookings.attendees
	Subtotal            decimal.Decimal  // bookings.subtotal
	DiscountAmount      decimal.Decimal  // bookings.discount_amount
	NFTDiscountApplied  bool             // bookings.nft_discount_applied
	CreditsUsed         decimal.Decimal  // bookings.credits_used
	OverageHours        decimal.Decimal  // bookings.overage_hours
	ProcessingFee       decimal.Decimal  // bookings.processing_fee
	TotalPrice          decimal.Decimal  // bookings.total_price
	Status              BookingStatus    // bookings.status
	PaymentStatus       PaymentStatus    // bookings.payment_status
	ConfirmationCode    string           // bookings.confirmation_code
	CreditTransactionID *uint64          // bookings.credit_transaction_id (nullable)
	CancelReason        *string          // bookings.cancel_reason (nullable)
	CheckInAt           *time.Time       // bookings.check_in_at (nullable)
	CheckOutAt          *time.Time       // bookings.check_out_at (nullable)
	ActualDurationHours *decimal.Decimal // bookings.actual_duration_hours (nullable)
	FinalCharge         *decimal.Decimal // bookings.final_charge (nullable)
	CreatedAt           time.Time        // bookings.created_at
	UpdatedAt           time.Time        // bookings.updated_at
}
