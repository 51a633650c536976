// Package engine implements the booking availability and pricing
// engine: slot validation, booking lifecycle transitions with their
// credit-ledger side effects, and the per-workspace/date coordinator
// that keeps concurrent creation attempts from double-booking a slot.
// These sentinel values let the handler layer map failures to HTTP
// responses without inspecting error strings.
package engine

import "errors"

// ErrWorkspaceNotFound is returned when a booking references a
// workspace that does not exist or is inactive.
var ErrWorkspaceNotFound = errors.New("workspace not found")

// ErrBookingNotFound is returned when a lifecycle operation
// references an unknown booking.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSlotUnavailable is returned when the requested window conflicts
// with an active booking or loses the coordinator's race check.
// Recoverable: the caller should re-query availability and retry with
// a different slot.
var ErrSlotUnavailable = errors.New("slot unavailable")

// ErrDurationOutOfRange is returned when the requested duration
// violates the workspace's minimum or maximum booking duration.
var ErrDurationOutOfRange = errors.New("duration out of range")

// ErrInvalidTransition is returned for any lifecycle transition not
// in the state machine's table.  The booking is left unchanged.
var ErrInvalidTransition = errors.New("invalid booking state transition")
