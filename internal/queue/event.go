// Package queue defines message payloads exchanged over the message broker.
package queue

// Lifecycle event types published to the booking.lifecycle queue.
const (
	EventBookingCreated    = "booking.created"
	EventBookingConfirmed  = "booking.confirmed"
	EventBookingCheckedIn  = "booking.checked_in"
	EventBookingCheckedOut = "booking.checked_out"
	EventBookingCancelled  = "booking.cancelled"
)

// BookingEvent is published on every booking lifecycle transition.
// It contains enough information for downstream consumers (email,
// real-time occupancy boards, analytics) to act without querying the
// primary database.  Monetary amounts are pre-formatted strings so
// consumers need no decimal library.
type BookingEvent struct {
	Type             string `json:"type"`
	BookingID        uint64 `json:"booking_id"`
	UserID           uint64 `json:"user_id"`
	WorkspaceID      uint64 `json:"workspace_id"`
	WorkspaceName    string `json:"workspace_name"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	Status           string `json:"status"`
	ConfirmationCode string `json:"confirmation_code"`
	TotalPrice       string `json:"total_price"`
	FinalCharge      string `json:"final_charge,omitempty"`
	ShouldRefund     bool   `json:"should_refund,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}
