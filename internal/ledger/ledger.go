// Package ledger implements the prepaid-credit ledger: an append-only
// transaction log per user, credit type and billing cycle, with the
// balance row kept as a derived projection.  Every mutation appends
// exactly one transaction and updates the projection in the same
// storage transaction, so the two can never drift under the stated
// invariants; Reconcile exists to detect the drift that would signal
// a bug.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// ErrNoActiveCycle is returned when a balance query finds no active
// allocation for the user and credit type.
var ErrNoActiveCycle = errors.New("no active credit cycle")

// ErrLedgerInconsistency is returned when a balance projection does
// not reconcile to the sum of its transactions.  It should never
// occur if the invariants hold and indicates a bug requiring manual
// investigation.
var ErrLedgerInconsistency = errors.New("ledger inconsistency")

// ErrTransactionNotFound is returned when a refund references an
// unknown or non-usage transaction.
var ErrTransactionNotFound = errors.New("credit transaction not found")

// Store is the persistence surface the ledger mutates.  All methods
// are expected to run inside the caller's storage transaction so that
// ledger changes commit or roll back together with the booking step
// that triggered them.
type Store interface {
	// ActiveBalance returns the active cycle balance covering the
	// given instant, or sql-style not-found translated to nil, nil.
	ActiveBalance(ctx context.Context, userID uint64, creditType model.CreditType, at time.Time) (*model.CreditBalance, error)
	InsertBalance(ctx context.Context, b *model.CreditBalance) error
	UpdateBalance(ctx context.Context, b *model.CreditBalance) error
	// AppendTransaction persists the entry and populates its ID.
	AppendTransaction(ctx context.Context, t *model.CreditTransaction) error
	// UsageTransaction loads a usage entry by ID together with its balance row.
	UsageTransaction(ctx context.Context, txnID uint64) (*model.CreditTransaction, *model.CreditBalance, error)
	// SumTransactions returns the signed sum of all entries for a balance.
	SumTransactions(ctx context.Context, balanceID uint64) (decimal.Decimal, error)
	// SumRefunds returns the total already refunded against a usage entry.
	SumRefunds(ctx context.Context, usageTxnID uint64) (decimal.Decimal, error)
}

// Reservation reports the outcome of a Reserve call: how many
// credit-hours were actually consumed, the shortfall to be billed in
// cash, and the usage transaction backing the consumption (zero when
// nothing was consumed).
type Reservation struct {
	CreditsUsed   decimal.Decimal
	OverageHours  decimal.Decimal
	TransactionID uint64
}

// Ledger wraps a Store with the credit accounting rules.
type Ledger struct {
	store Store
	now   func() time.Time
}

// New returns a Ledger over the given store.
func New(store Store) *Ledger {
	return &Ledger{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Balance returns the remaining amount for the user's active cycle.
// It fails with ErrNoActiveCycle when no allocation covers now.
func (l *Ledger) Balance(ctx context.Context, userID uint64, creditType model.CreditType) (decimal.Decimal, error) {
	bal, err := l.store.ActiveBalance(ctx, userID, creditType, l.now())
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, ErrNoActiveCycle
	}
	return bal.Remaining, nil
}

// Reserve consumes up to `requested` credit-hours for a booking.  It
// decrements the remaining balance by min(requested, remaining) and
// appends a usage transaction referencing the booking; the shortfall
// is reported as overage for the caller to bill in cash.  Remaining
// never goes negative.  When no active cycle exists the whole request
// is overage and no transaction is written.
func (l *Ledger) Reserve(ctx context.Context, userID uint64, creditType model.CreditType, requested decimal.Decimal, bookingID uint64) (*Reservation, error) {
	if !requested.IsPositive() {
		return nil, fmt.Errorf("reserve amount must be positive, got %s", requested)
	}
	bal, err := l.store.ActiveBalance(ctx, userID, creditType, l.now())
	if err != nil {
		return nil, err
	}
	if bal == nil || !bal.Remaining.IsPositive() {
		return &Reservation{CreditsUsed: decimal.Zero, OverageHours: requested}, nil
	}

	used := decimal.Min(requested, bal.Remaining)
	bal.Used = bal.Used.Add(used)
	bal.Remaining = bal.Remaining.Sub(used)
	if err := l.store.UpdateBalance(ctx, bal); err != nil {
		return nil, err
	}

	txn := &model.CreditTransaction{
		BalanceID:        bal.ID,
		UserID:           userID,
		CreditType:       creditType,
		Type:             model.TxnUsage,
		Amount:           used.Neg(),
		ResultingBalance: bal.Remaining,
		BookingID:        &bookingID,
	}
	if err := l.store.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return &Reservation{
		CreditsUsed:   used,
		OverageHours:  requested.Sub(used),
		TransactionID: txn.ID,
	}, nil
}

// Refund reverses a prior usage transaction, fully or partially, and
// returns the amount actually restored.  The clamp is cumulative: the
// refund is capped at the usage amount minus everything already
// refunded against the same entry, so repeated refunds cannot mint
// credits.  A fully refunded entry yields zero and writes nothing.
// Used on cancellation and when actual usage at check-out is less
// than reserved.
func (l *Ledger) Refund(ctx context.Context, usageTxnID uint64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("refund amount must be positive, got %s", amount)
	}
	usage, bal, err := l.store.UsageTransaction(ctx, usageTxnID)
	if err != nil {
		return decimal.Zero, err
	}
	if usage == nil || bal == nil || usage.Type != model.TxnUsage {
		return decimal.Zero, ErrTransactionNotFound
	}
	already, err := l.store.SumRefunds(ctx, usageTxnID)
	if err != nil {
		return decimal.Zero, err
	}

	refundable := usage.Amount.Neg().Sub(already)
	refund := decimal.Min(amount, refundable)
	if !refund.IsPositive() {
		return decimal.Zero, nil
	}
	bal.Used = bal.Used.Sub(refund)
	bal.Remaining = bal.Remaining.Add(refund)
	if err := l.store.UpdateBalance(ctx, bal); err != nil {
		return decimal.Zero, err
	}

	txn := &model.CreditTransaction{
		BalanceID:        bal.ID,
		UserID:           usage.UserID,
		CreditType:       usage.CreditType,
		Type:             model.TxnRefund,
		Amount:           refund,
		ResultingBalance: bal.Remaining,
		BookingID:        usage.BookingID,
		RelatedTxnID:     &usageTxnID,
	}
	if err := l.store.AppendTransaction(ctx, txn); err != nil {
		return decimal.Zero, err
	}
	return refund, nil
}

// Allocate opens a new cycle balance with the given allowance and
// appends the matching allocation transaction.  Invoked by the
// external billing collaborator, not by the booking flow.
func (l *Ledger) Allocate(ctx context.Context, userID uint64, creditType model.CreditType, amount decimal.Decimal, cycleStart, cycleEnd time.Time) (*model.CreditBalance, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("allocation amount must be positive, got %s", amount)
	}
	if !cycleEnd.After(cycleStart) {
		return nil, fmt.Errorf("cycle end %s must be after start %s", cycleEnd, cycleStart)
	}
	bal := &model.CreditBalance{
		UserID:     userID,
		CreditType: creditType,
		Allocated:  amount,
		Used:       decimal.Zero,
		Remaining:  amount,
		CycleStart: cycleStart,
		CycleEnd:   cycleEnd,
		Status:     model.CycleActive,
	}
	if err := l.store.InsertBalance(ctx, bal); err != nil {
		return nil, err
	}
	txn := &model.CreditTransaction{
		BalanceID:        bal.ID,
		UserID:           userID,
		CreditType:       creditType,
		Type:             model.TxnAllocation,
		Amount:           amount,
		ResultingBalance: bal.Remaining,
	}
	if err := l.store.AppendTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return bal, nil
}

// Expire closes out a cycle: any remaining credits are forfeited via
// an expiration transaction and the balance is marked expired.
// Invoked by the external scheduled job at cycle end; idempotent for
// already-expired cycles.
func (l *Ledger) Expire(ctx context.Context, bal *model.CreditBalance) error {
	if bal.Status != model.CycleActive {
		return nil
	}
	forfeited := bal.Remaining
	bal.Used = bal.Used.Add(forfeited)
	bal.Remaining = decimal.Zero
	bal.Status = model.CycleExpired
	if err := l.store.UpdateBalance(ctx, bal); err != nil {
		return err
	}
	if forfeited.IsPositive() {
		txn := &model.CreditTransaction{
			BalanceID:        bal.ID,
			UserID:           bal.UserID,
			CreditType:       bal.CreditType,
			Type:             model.TxnExpiration,
			Amount:           forfeited.Neg(),
			ResultingBalance: decimal.Zero,
		}
		if err := l.store.AppendTransaction(ctx, txn); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile verifies that the cached balance projection matches the
// transaction log: the signed sum of all entries must equal Remaining
// and Allocated must equal Used + Remaining.  A mismatch returns
// ErrLedgerInconsistency.
func (l *Ledger) Reconcile(ctx context.Context, bal *model.CreditBalance) error {
	sum, err := l.store.SumTransactions(ctx, bal.ID)
	if err != nil {
		return err
	}
	if !sum.Equal(bal.Remaining) {
		return fmt.Errorf("%w: balance %d remaining %s but transactions sum to %s",
			ErrLedgerInconsistency, bal.ID, bal.Remaining, sum)
	}
	if !bal.Allocated.Equal(bal.Used.Add(bal.Remaining)) {
		return fmt.Errorf("%w: balance %d allocated %s != used %s + remaining %s",
			ErrLedgerInconsistency, bal.ID, bal.Allocated, bal.Used, bal.Remaining)
	}
	if bal.Used.IsNegative() || bal.Remaining.IsNegative() {
		return fmt.Errorf("%w: balance %d has negative used %s or remaining %s",
			ErrLedgerInconsistency, bal.ID, bal.Used, bal.Remaining)
	}
	return nil
}
