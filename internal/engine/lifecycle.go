package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/ledger"
	"github.com/iliyamo/coworking-space-booking/internal/model"
	"github.com/iliyamo/coworking-space-booking/internal/pricing"
	"github.com/iliyamo/coworking-space-booking/internal/queue"
	"github.com/iliyamo/coworking-space-booking/internal/schedule"
)

// Store opens the transactional scope every lifecycle operation runs
// in.  The callback's work commits atomically or not at all, which is
// what keeps booking state changes and their credit-ledger side
// effects from ever partially applying.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx TxStore) error) error
}

// TxStore is the persistence surface visible inside one transaction.
// It embeds the ledger's store so credit mutations ride the same
// transaction as the booking rows they belong to.  Implementations
// must return nil (not an error) for lookups that find nothing.
type TxStore interface {
	ledger.Store

	Workspace(ctx context.Context, id uint64) (*model.Workspace, error)
	// ActiveBookings returns bookings with an active status for the
	// workspace and date, locked for the duration of the transaction.
	ActiveBookings(ctx context.Context, workspaceID uint64, date string) ([]*model.Booking, error)
	Booking(ctx context.Context, id uint64) (*model.Booking, error)
	// InsertBooking persists the booking and populates its ID.
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
}

// Publisher emits lifecycle events to the notification collaborator.
// Delivery is best-effort: the engine logs failures and never fails a
// booking operation over them.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}

// Engine is the booking lifecycle state machine.  All methods are
// safe for concurrent use; creation must additionally go through the
// Coordinator so racing requests for the same workspace/date are
// serialized.
type Engine struct {
	store     Store
	pricer    *pricing.Calculator
	publisher Publisher
	now       func() time.Time
}

// New constructs an Engine.  The publisher may be nil when no broker
// is configured; events are then dropped.
func New(store Store, pricer *pricing.Calculator, publisher Publisher) *Engine {
	if store == nil || pricer == nil {
		panic("nil dependency passed to engine.New")
	}
	return &Engine{
		store:     store,
		pricer:    pricer,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateRequest carries everything needed to create a booking.  The
// eligibility flags come from the auth collaborator (JWT claims) and
// are trusted as given.
type CreateRequest struct {
	WorkspaceID uint64
	UserID      uint64
	Date        string // YYYY-MM-DD
	StartMinute int
	EndMinute   int
	Attendees   int
	Eligibility pricing.Eligibility
	UseCredits  bool
}

// ComputeAvailability returns the ordered free slots for a workspace
// and date, given the current set of active bookings.
func (e *Engine) ComputeAvailability(ctx context.Context, workspaceID uint64, date string) ([]schedule.Interval, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	var slots []schedule.Interval
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		_, gen, booked, err := e.loadSchedule(ctx, tx, workspaceID, date)
		if err != nil {
			return err
		}
		slots = gen.FreeSlots(booked)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slots, nil
}

// QuotePrice computes the price breakdown for a prospective booking
// without creating anything.  Pure read: credit balances are
// consulted but not mutated.
func (e *Engine) QuotePrice(ctx context.Context, workspaceID, userID uint64, durationMinutes int, elig pricing.Eligibility, useCredits bool) (pricing.Quote, error) {
	var quote pricing.Quote
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		ws, err := e.workspace(ctx, tx, workspaceID)
		if err != nil {
			return err
		}
		if durationMinutes < ws.MinDurationMinutes || durationMinutes > ws.MaxDurationMinutes {
			return fmt.Errorf("%w: %d minutes, workspace allows %d-%d",
				ErrDurationOutOfRange, durationMinutes, ws.MinDurationMinutes, ws.MaxDurationMinutes)
		}
		available := e.availableCredits(ctx, tx, userID, elig, useCredits, ws)
		quote = e.pricer.QuoteBooking(ws.HourlyRate, minutesToHours(durationMinutes), elig, available, useCredits, ws.AcceptsCredits)
		return nil
	})
	return quote, err
}

// Create validates the requested window against the free slots,
// prices the booking, reserves credits in the same transaction, and
// persists the booking in `pending` (or `confirmed` immediately when
// fully credit-covered).  On any mid-sequence failure the transaction
// rolls back and no partial state remains.  Callers must hold the
// Coordinator's section for the workspace/date.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}
	requested, err := schedule.NewInterval(req.StartMinute, req.EndMinute)
	if err != nil {
		return nil, err
	}

	var booking *model.Booking
	var events []queue.BookingEvent
	err = e.store.WithinTx(ctx, func(tx TxStore) error {
		ws, gen, booked, err := e.loadSchedule(ctx, tx, req.WorkspaceID, req.Date)
		if err != nil {
			return err
		}
		dur := requested.DurationMinutes()
		if dur < ws.MinDurationMinutes || dur > ws.MaxDurationMinutes {
			return fmt.Errorf("%w: %d minutes, workspace allows %d-%d",
				ErrDurationOutOfRange, dur, ws.MinDurationMinutes, ws.MaxDurationMinutes)
		}
		// Re-validated against the current active set on every attempt;
		// the coordinator guarantees no concurrent attempt interleaves.
		if !gen.Covers(requested, booked) {
			return fmt.Errorf("%w: %s on %s", ErrSlotUnavailable, requested, req.Date)
		}

		available := e.availableCredits(ctx, tx, req.UserID, req.Eligibility, req.UseCredits, ws)
		quote := e.pricer.QuoteBooking(ws.HourlyRate, minutesToHours(dur), req.Eligibility, available, req.UseCredits, ws.AcceptsCredits)

		b := &model.Booking{
			WorkspaceID:        ws.ID,
			UserID:             req.UserID,
			Date:               req.Date,
			StartMinute:        requested.Start,
			EndMinute:          requested.End,
			DurationHours:      minutesToHours(dur),
			Attendees:          req.Attendees,
			Subtotal:           quote.Subtotal,
			DiscountAmount:     quote.DiscountAmount,
			NFTDiscountApplied: quote.NFTDiscountApplied,
			CreditsUsed:        quote.CreditsUsed,
			OverageHours:       quote.OverageHours,
			ProcessingFee:      quote.ProcessingFee,
			TotalPrice:         quote.TotalPrice,
			Status:             model.BookingPending,
			PaymentStatus:      model.PaymentUnpaid,
			ConfirmationCode:   uuid.New().String(),
		}
		if b.TotalPrice.IsZero() {
			// Fully credit-covered: nothing to capture, confirm at once.
			b.Status = model.BookingConfirmed
			b.PaymentStatus = model.PaymentNotRequired
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}

		if quote.CreditsUsed.IsPositive() {
			resv, err := ledger.New(tx).Reserve(ctx, req.UserID, model.CreditMeetingRoom, quote.CreditsUsed, b.ID)
			if err != nil {
				return err
			}
			b.CreditTransactionID = &resv.TransactionID
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return err
			}
		}

		booking = b
		events = append(events, e.eventFor(b, ws.Name, queue.EventBookingCreated))
		if b.Status == model.BookingConfirmed {
			events = append(events, e.eventFor(b, ws.Name, queue.EventBookingConfirmed))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events...)
	return booking, nil
}

// Confirm transitions pending → confirmed once external payment
// capture succeeds.  Idempotent: confirming an already-confirmed
// booking is a no-op, not an error.
func (e *Engine) Confirm(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	var booking *model.Booking
	var events []queue.BookingEvent
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		b, ws, err := e.bookingWithWorkspace(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		switch b.Status {
		case model.BookingConfirmed:
			booking = b // already confirmed; nothing to do
			return nil
		case model.BookingPending:
			b.Status = model.BookingConfirmed
			b.PaymentStatus = model.PaymentPaid
			if err := tx.UpdateBooking(ctx, b); err != nil {
				return err
			}
			booking = b
			events = append(events, e.eventFor(b, ws.Name, queue.EventBookingConfirmed))
			return nil
		default:
			return fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, b.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events...)
	return booking, nil
}

// CheckIn transitions confirmed → checked-in and records the arrival
// timestamp.
func (e *Engine) CheckIn(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	var booking *model.Booking
	var events []queue.BookingEvent
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		b, ws, err := e.bookingWithWorkspace(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingConfirmed {
			return fmt.Errorf("%w: check-in from %s", ErrInvalidTransition, b.Status)
		}
		now := e.now()
		b.Status = model.BookingCheckedIn
		b.CheckInAt = &now
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		events = append(events, e.eventFor(b, ws.Name, queue.EventBookingCheckedIn))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events...)
	return booking, nil
}

// CheckOut transitions checked-in → completed and reconciles usage.
// When actual usage is shorter than booked, unused reserved
// credit-hours are refunded and the final charge is the recomputed
// price for the actual duration; when it is longer, the excess is
// charged at the undiscounted rate (the discount applies only to the
// originally booked window).
func (e *Engine) CheckOut(ctx context.Context, bookingID uint64, at time.Time) (*model.Booking, error) {
	var booking *model.Booking
	var events []queue.BookingEvent
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		b, ws, err := e.bookingWithWorkspace(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status != model.BookingCheckedIn || b.CheckInAt == nil {
			return fmt.Errorf("%w: check-out from %s", ErrInvalidTransition, b.Status)
		}
		if at.IsZero() {
			at = e.now()
		}
		if at.Before(*b.CheckInAt) {
			return fmt.Errorf("%w: check-out before check-in", schedule.ErrInvalidInterval)
		}

		actual := decimal.NewFromFloat(at.Sub(*b.CheckInAt).Hours()).Round(2)
		finalCharge := b.TotalPrice

		switch {
		case actual.LessThan(b.DurationHours):
			// Unused reserved credits go back; the final charge is the
			// price the actual duration would have quoted, with credits
			// capped at the original reservation.
			if b.CreditsUsed.IsPositive() && actual.LessThan(b.CreditsUsed) && b.CreditTransactionID != nil {
				unused := b.CreditsUsed.Sub(decimal.Max(actual, decimal.Zero))
				refunded, err := ledger.New(tx).Refund(ctx, *b.CreditTransactionID, unused)
				if err != nil {
					return err
				}
				b.CreditsUsed = b.CreditsUsed.Sub(refunded)
			}
			elig := pricing.Eligibility{NFTHolder: b.NFTDiscountApplied, Member: b.CreditsUsed.IsPositive()}
			q := e.pricer.QuoteBooking(ws.HourlyRate, actual, elig, b.CreditsUsed, true, true)
			finalCharge = q.TotalPrice
		case actual.GreaterThan(b.DurationHours):
			// Overage billed at the full rate, no discount, no credits.
			excess := actual.Sub(b.DurationHours)
			q := e.pricer.QuoteBooking(ws.HourlyRate, excess, pricing.Eligibility{}, decimal.Zero, false, false)
			finalCharge = b.TotalPrice.Add(q.TotalPrice)
		}

		b.Status = model.BookingCompleted
		b.CheckOutAt = &at
		b.ActualDurationHours = &actual
		b.FinalCharge = &finalCharge
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		events = append(events, e.eventFor(b, ws.Name, queue.EventBookingCheckedOut))
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, events...)
	return booking, nil
}

// Cancel transitions any pre-completion state to cancelled, releases
// the time slot, refunds reserved credit-hours in full and reports
// whether a captured card payment should be refunded.  Reversing the
// payment itself is delegated to the external refund-policy
// collaborator.
func (e *Engine) Cancel(ctx context.Context, bookingID uint64, reason string) (*model.Booking, bool, error) {
	var booking *model.Booking
	var shouldRefund bool
	var events []queue.BookingEvent
	err := e.store.WithinTx(ctx, func(tx TxStore) error {
		b, ws, err := e.bookingWithWorkspace(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.Active() {
			return fmt.Errorf("%w: cancel from %s", ErrInvalidTransition, b.Status)
		}
		shouldRefund = b.PaymentStatus == model.PaymentPaid && b.TotalPrice.IsPositive()

		if b.CreditsUsed.IsPositive() && b.CreditTransactionID != nil {
			if _, err := ledger.New(tx).Refund(ctx, *b.CreditTransactionID, b.CreditsUsed); err != nil {
				return err
			}
		}

		b.Status = model.BookingCancelled
		if reason != "" {
			b.CancelReason = &reason
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		booking = b
		ev := e.eventFor(b, ws.Name, queue.EventBookingCancelled)
		ev.ShouldRefund = shouldRefund
		events = append(events, ev)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	e.publish(ctx, events...)
	return booking, shouldRefund, nil
}

// ---- helpers ----

func (e *Engine) workspace(ctx context.Context, tx TxStore, id uint64) (*model.Workspace, error) {
	ws, err := tx.Workspace(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil || !ws.IsActive {
		return nil, fmt.Errorf("%w: id %d", ErrWorkspaceNotFound, id)
	}
	return ws, nil
}

// loadSchedule fetches the workspace, builds its slot generator and
// collects the intervals of the date's active bookings.
func (e *Engine) loadSchedule(ctx context.Context, tx TxStore, workspaceID uint64, date string) (*model.Workspace, *schedule.Generator, []schedule.Interval, error) {
	ws, err := e.workspace(ctx, tx, workspaceID)
	if err != nil {
		return nil, nil, nil, err
	}
	gen, err := schedule.NewGenerator(ws.OpenMinute, ws.CloseMinute, ws.MinDurationMinutes)
	if err != nil {
		return nil, nil, nil, err
	}
	active, err := tx.ActiveBookings(ctx, workspaceID, date)
	if err != nil {
		return nil, nil, nil, err
	}
	booked := make([]schedule.Interval, 0, len(active))
	for _, b := range active {
		booked = append(booked, schedule.Interval{Start: b.StartMinute, End: b.EndMinute})
	}
	return ws, gen, booked, nil
}

func (e *Engine) bookingWithWorkspace(ctx context.Context, tx TxStore, id uint64) (*model.Booking, *model.Workspace, error) {
	b, err := tx.Booking(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, fmt.Errorf("%w: id %d", ErrBookingNotFound, id)
	}
	ws, err := tx.Workspace(ctx, b.WorkspaceID)
	if err != nil {
		return nil, nil, err
	}
	if ws == nil {
		return nil, nil, fmt.Errorf("%w: id %d", ErrWorkspaceNotFound, b.WorkspaceID)
	}
	return b, ws, nil
}

// availableCredits resolves the spendable meeting-room hours for a
// quote or creation.  A missing cycle is simply zero credits here;
// ErrNoActiveCycle only surfaces on direct balance queries.
func (e *Engine) availableCredits(ctx context.Context, tx TxStore, userID uint64, elig pricing.Eligibility, useCredits bool, ws *model.Workspace) decimal.Decimal {
	if !elig.Member || !useCredits || !ws.AcceptsCredits {
		return decimal.Zero
	}
	remaining, err := ledger.New(tx).Balance(ctx, userID, model.CreditMeetingRoom)
	if err != nil {
		return decimal.Zero
	}
	return remaining
}

func (e *Engine) eventFor(b *model.Booking, workspaceName, eventType string) queue.BookingEvent {
	ev := queue.BookingEvent{
		Type:             eventType,
		BookingID:        b.ID,
		UserID:           b.UserID,
		WorkspaceID:      b.WorkspaceID,
		WorkspaceName:    workspaceName,
		Date:             b.Date,
		StartTime:        schedule.FormatMinute(b.StartMinute),
		EndTime:          schedule.FormatMinute(b.EndMinute),
		Status:           string(b.Status),
		ConfirmationCode: b.ConfirmationCode,
		TotalPrice:       b.TotalPrice.StringFixed(2),
		OccurredAt:       e.now().Format(time.RFC3339),
	}
	if b.FinalCharge != nil {
		ev.FinalCharge = b.FinalCharge.StringFixed(2)
	}
	return ev
}

// publish fans events out after the transaction committed.  Failures
// are logged and ignored; notification delivery is best-effort.
func (e *Engine) publish(ctx context.Context, events ...queue.BookingEvent) {
	if e.publisher == nil {
		return
	}
	for _, ev := range events {
		if err := e.publisher.PublishBookingEvent(ctx, ev); err != nil {
			log.Printf("engine: publish %s for booking %d failed: %v", ev.Type, ev.BookingID, err)
		}
	}
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date %q", schedule.ErrInvalidInterval, date)
	}
	return nil
}

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(decimal.NewFromInt(60))
}
