package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditType enumerates the credit buckets a membership tier grants.
// Bookings consume meeting-room credits; the other types are tracked
// by the same ledger for other collaborators.
type CreditType string

const (
	CreditMeetingRoom CreditType = "meeting-room"
	CreditPrinting    CreditType = "printing"
	CreditGuestPass   CreditType = "guest-pass"
)

// CycleStatus marks the state of a billing-cycle allocation.
type CycleStatus string

const (
	CycleActive     CycleStatus = "active"
	CycleExpired    CycleStatus = "expired"
	CycleRolledOver CycleStatus = "rolled-over"
)

// CreditBalance is one billing cycle's allocation for a user and
// credit type, stored in `credit_balances`.  It is a projection over
// the transaction log: Allocated = Used + Remaining always holds, and
// Remaining equals the signed sum of the cycle's transactions.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the balance.
//  CreditType – which bucket this cycle covers.
//  Allocated  – hours granted at cycle start.
//  Used       – hours consumed (or forfeited at expiry).
//  Remaining  – hours still spendable; never negative.
//  CycleStart – start of the billing cycle.
//  CycleEnd   – end of the billing cycle.
//  Status     – active, expired, or rolled-over.
//  CreatedAt  – timestamp of creation.
//  UpdatedAt  – timestamp of last update.
type CreditBalance struct {
	ID         uint64          // credit_balances.id
	UserID     uint64          // credit_balances.user_id
	CreditType CreditType      // credit_balances.credit_type
	Allocated  decimal.Decimal // credit_balances.allocated
	Used       decimal.Decimal // credit_balances.used
	Remaining  decimal.Decimal // credit_balances.remaining
	CycleStart time.Time       // credit_balances.cycle_start
	CycleEnd   time.Time       // credit_balances.cycle_end
	Status     CycleStatus     // credit_balances.status
	CreatedAt  time.Time       // credit_balances.created_at
	UpdatedAt  time.Time       // credit_balances.updated_at
}

// CreditTransactionType enumerates ledger entry kinds.
type CreditTransactionType string

const (
	TxnAllocation CreditTransactionType = "allocation"
	TxnUsage      CreditTransactionType = "usage"
	TxnRefund     CreditTransactionType = "refund"
	TxnExpiration CreditTransactionType = "expiration"
)

// CreditTransaction is one append-only entry in `credit_transactions`.
// Amounts are signed: allocations and refunds are positive, usage and
// expiration negative.  Entries are never updated or deleted.
//
// Fields:
//  ID               – primary key identifier.
//  BalanceID        – the cycle balance this entry belongs to.
//  UserID           – owner, denormalized for per-user history queries.
//  CreditType       – bucket, denormalized likewise.
//  Type             – allocation, usage, refund, or expiration.
//  Amount           – signed hours delta.
//  ResultingBalance – Remaining after this entry applied.
//  BookingID        – booking that triggered a usage/refund (nullable).
//  RelatedTxnID     – for refunds, the usage entry being reversed (nullable).
//  CreatedAt        – timestamp of the entry.
type CreditTransaction struct {
	ID               uint64                // credit_transactions.id
	BalanceID        uint64                // credit_transactions.balance_id
	UserID           uint64                // credit_transactions.user_id
	CreditType       CreditType            // credit_transactions.credit_type
	Type             CreditTransactionType // credit_transactions.type
	Amount           decimal.Decimal       // credit_transactions.amount
	ResultingBalance decimal.Decimal       // credit_transactions.resulting_balance
	BookingID        *uint64               // credit_transactions.booking_id (nullable)
	RelatedTxnID     *uint64               // credit_transactions.related_transaction_id (nullable)
	CreatedAt        time.Time             // credit_transactions.created_at
}
