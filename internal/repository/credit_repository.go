package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// CreditRepo provides the read-side views over credit balances and
// the transaction log.  All mutations go through the ledger inside
// the transactional Store.
type CreditRepo struct {
	db *sql.DB
}

// NewCreditRepo returns a new CreditRepo bound to the given database.
func NewCreditRepo(db *sql.DB) *CreditRepo { return &CreditRepo{db: db} }

// BalanceView is a cycle balance shaped for display.
type BalanceView struct {
	CreditType string `json:"credit_type"`
	Allocated  string `json:"allocated"`
	Used       string `json:"used"`
	Remaining  string `json:"remaining"`
	CycleStart string `json:"cycle_start"`
	CycleEnd   string `json:"cycle_end"`
	Status     string `json:"status"`
}

// ActiveBalances returns the user's active cycle balances across all
// credit types.  When none exist an empty slice is returned.
func (r *CreditRepo) ActiveBalances(ctx context.Context, userID uint64) ([]BalanceView, error) {
	const q = `SELECT credit_type, allocated, used, remaining, cycle_start, cycle_end, status
	           FROM credit_balances
	           WHERE user_id = ? AND status = 'active'
	           ORDER BY credit_type`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]BalanceView, 0)
	for rows.Next() {
		var b model.CreditBalance
		if err := rows.Scan(&b.CreditType, &b.Allocated, &b.Used, &b.Remaining,
			&b.CycleStart, &b.CycleEnd, &b.Status); err != nil {
			return nil, err
		}
		views = append(views, BalanceView{
			CreditType: string(b.CreditType),
			Allocated:  b.Allocated.String(),
			Used:       b.Used.String(),
			Remaining:  b.Remaining.String(),
			CycleStart: b.CycleStart.UTC().Format("2006-01-02"),
			CycleEnd:   b.CycleEnd.UTC().Format("2006-01-02"),
			Status:     string(b.Status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// TransactionView is one ledger entry shaped for display.
type TransactionView struct {
	ID               uint64  `json:"id"`
	CreditType       string  `json:"credit_type"`
	Type             string  `json:"type"`
	Amount           string  `json:"amount"`
	ResultingBalance string  `json:"resulting_balance"`
	BookingID        *uint64 `json:"booking_id,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// ListTransactions returns the user's ledger history, newest first,
// capped at limit entries.
func (r *CreditRepo) ListTransactions(ctx context.Context, userID uint64, limit int) ([]TransactionView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, credit_type, type, amount, resulting_balance, booking_id, created_at
	           FROM credit_transactions
	           WHERE user_id = ?
	           ORDER BY id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]TransactionView, 0)
	for rows.Next() {
		var t model.CreditTransaction
		var bookingID sql.NullInt64
		if err := rows.Scan(&t.ID, &t.CreditType, &t.Type, &t.Amount,
			&t.ResultingBalance, &bookingID, &t.CreatedAt); err != nil {
			return nil, err
		}
		v := TransactionView{
			ID:               t.ID,
			CreditType:       string(t.CreditType),
			Type:             string(t.Type),
			Amount:           t.Amount.String(),
			ResultingBalance: t.ResultingBalance.String(),
			CreatedAt:        t.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}
		if bookingID.Valid {
			id := uint64(bookingID.Int64)
			v.BookingID = &id
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
