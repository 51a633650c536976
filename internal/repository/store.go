package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/coworking-space-booking/internal/engine"
	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// Store adapts *sql.DB to the engine's transactional contract.  Every
// lifecycle operation runs inside one database transaction; booking
// rows and credit-ledger rows commit or roll back together.
type Store struct {
	db *sql.DB
}

// NewStore returns a Store bound to the given database.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// WithinTx begins a transaction, runs fn against it and commits when
// fn returns nil.  Any error from fn (or the commit) rolls everything
// back.
func (s *Store) WithinTx(ctx context.Context, fn func(tx engine.TxStore) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// txStore implements engine.TxStore over one open transaction.
type txStore struct {
	tx *sql.Tx
}

// rowScanner abstracts *sql.Row and *sql.Rows for the shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const workspaceColumns = `id, name, category, hourly_rate, min_duration_minutes, max_duration_minutes,
	open_minute, close_minute, accepts_credits, is_active, created_at, updated_at`

func scanWorkspace(row rowScanner) (*model.Workspace, error) {
	var w model.Workspace
	err := row.Scan(
		&w.ID, &w.Name, &w.Category, &w.HourlyRate, &w.MinDurationMinutes, &w.MaxDurationMinutes,
		&w.OpenMinute, &w.CloseMinute, &w.AcceptsCredits, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Workspace fetches a workspace row by ID, or nil when absent.
func (t *txStore) Workspace(ctx context.Context, id uint64) (*model.Workspace, error) {
	const q = `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = ?`
	w, err := scanWorkspace(t.tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

const bookingColumns = `id, workspace_id, user_id, date, start_minute, end_minute, duration_hours,
	attendees, subtotal, discount_amount, nft_discount_applied, credits_used, overage_hours,
	processing_fee, total_price, status, payment_status, confirmation_code, credit_transaction_id,
	cancel_reason, check_in_at, check_out_at, actual_duration_hours, final_charge, created_at, updated_at`

func scanBooking(row rowScanner) (*model.Booking, error) {
	return scanBookingWithExtra(row)
}

// scanBookingWithExtra scans the booking columns plus any trailing
// columns a join appended (e.g. the workspace name).
func scanBookingWithExtra(row rowScanner, extra ...interface{}) (*model.Booking, error) {
	var b model.Booking
	var creditTxnID sql.NullInt64
	var cancelReason sql.NullString
	var checkIn, checkOut sql.NullTime
	var actualHours, finalCharge decimal.NullDecimal
	dest := []interface{}{
		&b.ID, &b.WorkspaceID, &b.UserID, &b.Date, &b.StartMinute, &b.EndMinute, &b.DurationHours,
		&b.Attendees, &b.Subtotal, &b.DiscountAmount, &b.NFTDiscountApplied, &b.CreditsUsed, &b.OverageHours,
		&b.ProcessingFee, &b.TotalPrice, &b.Status, &b.PaymentStatus, &b.ConfirmationCode, &creditTxnID,
		&cancelReason, &checkIn, &checkOut, &actualHours, &finalCharge, &b.CreatedAt, &b.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if creditTxnID.Valid {
		id := uint64(creditTxnID.Int64)
		b.CreditTransactionID = &id
	}
	if cancelReason.Valid {
		r := cancelReason.String
		b.CancelReason = &r
	}
	if checkIn.Valid {
		ts := checkIn.Time
		b.CheckInAt = &ts
	}
	if checkOut.Valid {
		ts := checkOut.Time
		b.CheckOutAt = &ts
	}
	if actualHours.Valid {
		d := actualHours.Decimal
		b.ActualDurationHours = &d
	}
	if finalCharge.Valid {
		d := finalCharge.Decimal
		b.FinalCharge = &d
	}
	return &b, nil
}

// ActiveBookings returns the date's still-slot-holding bookings for a
// workspace, locked FOR UPDATE so a concurrent creation in another
// transaction cannot interleave between validation and insert.
func (t *txStore) ActiveBookings(ctx context.Context, workspaceID uint64, date string) ([]*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + `
	           FROM bookings
	           WHERE workspace_id = ? AND date = ? AND status IN ('pending', 'confirmed', 'checked-in')
	           ORDER BY start_minute
	           FOR UPDATE`
	rows, err := t.tx.QueryContext(ctx, q, workspaceID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Booking fetches a booking row by ID, or nil when absent.
func (t *txStore) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ? FOR UPDATE`
	b, err := scanBooking(t.tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// InsertBooking persists a new booking and populates its generated ID
// and timestamps.
func (t *txStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (workspace_id, user_id, date, start_minute, end_minute,
	               duration_hours, attendees, subtotal, discount_amount, nft_discount_applied,
	               credits_used, overage_hours, processing_fee, total_price, status,
	               payment_status, confirmation_code)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.WorkspaceID, b.UserID, b.Date, b.StartMinute, b.EndMinute,
		b.DurationHours, b.Attendees, b.Subtotal, b.DiscountAmount, b.NFTDiscountApplied,
		b.CreditsUsed, b.OverageHours, b.ProcessingFee, b.TotalPrice, b.Status,
		b.PaymentStatus, b.ConfirmationCode,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return t.tx.QueryRowContext(ctx, `SELECT created_at, updated_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt, &b.UpdatedAt)
}

// UpdateBooking rewrites the mutable lifecycle fields of a booking.
func (t *txStore) UpdateBooking(ctx context.Context, b *model.Booking) error {
	const q = `UPDATE bookings
	           SET status = ?, payment_status = ?, credits_used = ?, credit_transaction_id = ?,
	               cancel_reason = ?, check_in_at = ?, check_out_at = ?, actual_duration_hours = ?,
	               final_charge = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	var creditTxnID interface{}
	if b.CreditTransactionID != nil {
		creditTxnID = *b.CreditTransactionID
	}
	var cancelReason interface{}
	if b.CancelReason != nil {
		cancelReason = *b.CancelReason
	}
	var checkIn, checkOut interface{}
	if b.CheckInAt != nil {
		checkIn = *b.CheckInAt
	}
	if b.CheckOutAt != nil {
		checkOut = *b.CheckOutAt
	}
	var actualHours, finalCharge interface{}
	if b.ActualDurationHours != nil {
		actualHours = *b.ActualDurationHours
	}
	if b.FinalCharge != nil {
		finalCharge = *b.FinalCharge
	}
	res, err := t.tx.ExecContext(ctx, q,
		b.Status, b.PaymentStatus, b.CreditsUsed, creditTxnID,
		cancelReason, checkIn, checkOut, actualHours,
		finalCharge, b.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const balanceColumns = `id, user_id, credit_type, allocated, used, remaining,
	cycle_start, cycle_end, status, created_at, updated_at`

func scanBalance(row rowScanner) (*model.CreditBalance, error) {
	var b model.CreditBalance
	err := row.Scan(
		&b.ID, &b.UserID, &b.CreditType, &b.Allocated, &b.Used, &b.Remaining,
		&b.CycleStart, &b.CycleEnd, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ActiveBalance returns the active cycle covering the given instant,
// locked FOR UPDATE, or nil when no cycle covers it.
func (t *txStore) ActiveBalance(ctx context.Context, userID uint64, creditType model.CreditType, at time.Time) (*model.CreditBalance, error) {
	const q = `SELECT ` + balanceColumns + `
	           FROM credit_balances
	           WHERE user_id = ? AND credit_type = ? AND status = 'active'
	             AND cycle_start <= ? AND cycle_end > ?
	           ORDER BY cycle_start DESC
	           LIMIT 1
	           FOR UPDATE`
	b, err := scanBalance(t.tx.QueryRowContext(ctx, q, userID, creditType, at, at))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// InsertBalance persists a new cycle balance and populates its ID.
func (t *txStore) InsertBalance(ctx context.Context, b *model.CreditBalance) error {
	const q = `INSERT INTO credit_balances (user_id, credit_type, allocated, used, remaining,
	               cycle_start, cycle_end, status)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := t.tx.ExecContext(ctx, q,
		b.UserID, b.CreditType, b.Allocated, b.Used, b.Remaining,
		b.CycleStart, b.CycleEnd, b.Status,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// UpdateBalance rewrites the projection columns of a cycle balance.
func (t *txStore) UpdateBalance(ctx context.Context, b *model.CreditBalance) error {
	const q = `UPDATE credit_balances
	           SET allocated = ?, used = ?, remaining = ?, status = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := t.tx.ExecContext(ctx, q, b.Allocated, b.Used, b.Remaining, b.Status, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AppendTransaction persists a ledger entry and populates its ID.
// Entries are append-only; there is deliberately no update or delete.
func (t *txStore) AppendTransaction(ctx context.Context, txn *model.CreditTransaction) error {
	const q = `INSERT INTO credit_transactions (balance_id, user_id, credit_type, type, amount,
	               resulting_balance, booking_id, related_transaction_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var bookingID interface{}
	if txn.BookingID != nil {
		bookingID = *txn.BookingID
	}
	var relatedID interface{}
	if txn.RelatedTxnID != nil {
		relatedID = *txn.RelatedTxnID
	}
	res, err := t.tx.ExecContext(ctx, q,
		txn.BalanceID, txn.UserID, txn.CreditType, txn.Type, txn.Amount,
		txn.ResultingBalance, bookingID, relatedID,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	txn.ID = uint64(id)
	return nil
}

// UsageTransaction loads a ledger entry by ID together with its
// balance row (balance locked FOR UPDATE).  Both come back nil when
// the entry does not exist.
func (t *txStore) UsageTransaction(ctx context.Context, txnID uint64) (*model.CreditTransaction, *model.CreditBalance, error) {
	const q = `SELECT id, balance_id, user_id, credit_type, type, amount, resulting_balance,
	                  booking_id, related_transaction_id, created_at
	           FROM credit_transactions WHERE id = ?`
	var txn model.CreditTransaction
	var bookingID, relatedID sql.NullInt64
	err := t.tx.QueryRowContext(ctx, q, txnID).Scan(
		&txn.ID, &txn.BalanceID, &txn.UserID, &txn.CreditType, &txn.Type, &txn.Amount,
		&txn.ResultingBalance, &bookingID, &relatedID, &txn.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if bookingID.Valid {
		id := uint64(bookingID.Int64)
		txn.BookingID = &id
	}
	if relatedID.Valid {
		id := uint64(relatedID.Int64)
		txn.RelatedTxnID = &id
	}
	const balQ = `SELECT ` + balanceColumns + ` FROM credit_balances WHERE id = ? FOR UPDATE`
	bal, err := scanBalance(t.tx.QueryRowContext(ctx, balQ, txn.BalanceID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &txn, bal, nil
}

// SumTransactions returns the signed sum of all ledger entries for a
// balance.  Used by reconciliation.
func (t *txStore) SumTransactions(ctx context.Context, balanceID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM credit_transactions WHERE balance_id = ?`
	var sum decimal.Decimal
	if err := t.tx.QueryRowContext(ctx, q, balanceID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumRefunds returns the total amount already refunded against a usage
// entry.  The ledger uses it to cap further refunds.
func (t *txStore) SumRefunds(ctx context.Context, usageTxnID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM credit_transactions
	           WHERE related_transaction_id = ? AND type = 'refund'`
	var sum decimal.Decimal
	if err := t.tx.QueryRowContext(ctx, q, usageTxnID).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
