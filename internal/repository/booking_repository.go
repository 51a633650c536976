package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-booking/internal/model"
	"github.com/iliyamo/coworking-space-booking/internal/schedule"
)

// BookingRepo provides the read-side views over bookings used by the
// listing endpoints.  All lifecycle mutations go through the engine
// and its transactional Store; nothing here writes.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// BookingDetail is a booking joined with its workspace, shaped for
// display to members.  Times are rendered as "HH:MM" strings and
// monetary amounts as fixed two-decimal strings.
type BookingDetail struct {
	ID               uint64  `json:"id"`
	WorkspaceID      uint64  `json:"workspace_id"`
	WorkspaceName    string  `json:"workspace_name"`
	Category         string  `json:"category"`
	Date             string  `json:"date"`
	StartTime        string  `json:"start_time"`
	EndTime          string  `json:"end_time"`
	DurationHours    string  `json:"duration_hours"`
	Attendees        int     `json:"attendees"`
	Status           string  `json:"status"`
	PaymentStatus    string  `json:"payment_status"`
	ConfirmationCode string  `json:"confirmation_code"`
	Subtotal         string  `json:"subtotal"`
	DiscountAmount   string  `json:"discount_amount"`
	CreditsUsed      string  `json:"credits_used"`
	OverageHours     string  `json:"overage_hours"`
	ProcessingFee    string  `json:"processing_fee"`
	TotalPrice       string  `json:"total_price"`
	CancelReason     *string `json:"cancel_reason,omitempty"`
	CheckInAt        *string `json:"check_in_at,omitempty"`
	CheckOutAt       *string `json:"check_out_at,omitempty"`
	ActualHours      *string `json:"actual_duration_hours,omitempty"`
	FinalCharge      *string `json:"final_charge,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// detailFrom shapes a model row plus its workspace name into the
// display struct.
func detailFrom(b *model.Booking, workspaceName, category string) BookingDetail {
	d := BookingDetail{
		ID:               b.ID,
		WorkspaceID:      b.WorkspaceID,
		WorkspaceName:    workspaceName,
		Category:         category,
		Date:             b.Date,
		StartTime:        schedule.FormatMinute(b.StartMinute),
		EndTime:          schedule.FormatMinute(b.EndMinute),
		DurationHours:    b.DurationHours.String(),
		Attendees:        b.Attendees,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		ConfirmationCode: b.ConfirmationCode,
		Subtotal:         b.Subtotal.StringFixed(2),
		DiscountAmount:   b.DiscountAmount.StringFixed(2),
		CreditsUsed:      b.CreditsUsed.String(),
		OverageHours:     b.OverageHours.String(),
		ProcessingFee:    b.ProcessingFee.StringFixed(2),
		TotalPrice:       b.TotalPrice.StringFixed(2),
		CancelReason:     b.CancelReason,
		CreatedAt:        b.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if b.CheckInAt != nil {
		s := b.CheckInAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		d.CheckInAt = &s
	}
	if b.CheckOutAt != nil {
		s := b.CheckOutAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		d.CheckOutAt = &s
	}
	if b.ActualDurationHours != nil {
		s := b.ActualDurationHours.String()
		d.ActualHours = &s
	}
	if b.FinalCharge != nil {
		s := b.FinalCharge.StringFixed(2)
		d.FinalCharge = &s
	}
	return d
}

const bookingJoinColumns = `b.id, b.workspace_id, b.user_id, b.date, b.start_minute, b.end_minute,
	b.duration_hours, b.attendees, b.subtotal, b.discount_amount, b.nft_discount_applied,
	b.credits_used, b.overage_hours, b.processing_fee, b.total_price, b.status, b.payment_status,
	b.confirmation_code, b.credit_transaction_id, b.cancel_reason, b.check_in_at, b.check_out_at,
	b.actual_duration_hours, b.final_charge, b.created_at, b.updated_at, w.name, w.category`

// GetByIDForUser returns a single booking for the given user.  It
// returns ErrBookingNotFound when the booking does not exist and
// ErrForbidden when it belongs to another user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, bookingID, userID uint64) (*BookingDetail, error) {
	const q = `SELECT ` + bookingJoinColumns + `
	           FROM bookings b
	           JOIN workspaces w ON w.id = b.workspace_id
	           WHERE b.id = ?`
	b, name, category, err := r.scanJoined(r.db.QueryRowContext(ctx, q, bookingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}
	d := detailFrom(b, name, category)
	return &d, nil
}

// ListByUser returns all bookings for the given user, newest first.
// When no bookings exist, an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT ` + bookingJoinColumns + `
	           FROM bookings b
	           JOIN workspaces w ON w.id = b.workspace_id
	           WHERE b.user_id = ?
	           ORDER BY b.date DESC, b.start_minute DESC`
	return r.listJoined(ctx, q, userID)
}

// ListByWorkspaceAndDate returns the day's bookings for a workspace,
// any status, ordered by start time.  Used by the admin schedule view.
func (r *BookingRepo) ListByWorkspaceAndDate(ctx context.Context, workspaceID uint64, date string) ([]BookingDetail, error) {
	const q = `SELECT ` + bookingJoinColumns + `
	           FROM bookings b
	           JOIN workspaces w ON w.id = b.workspace_id
	           WHERE b.workspace_id = ? AND b.date = ?
	           ORDER BY b.start_minute`
	return r.listJoined(ctx, q, workspaceID, date)
}

func (r *BookingRepo) listJoined(ctx context.Context, q string, args ...interface{}) ([]BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]BookingDetail, 0)
	for rows.Next() {
		b, name, category, err := r.scanJoined(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detailFrom(b, name, category))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// scanJoined reads one bookings-join-workspaces row.  The column
// order matches bookingJoinColumns: the booking columns first, then
// the workspace name and category.
func (r *BookingRepo) scanJoined(row rowScanner) (*model.Booking, string, string, error) {
	var name, category string
	b, err := scanBookingWithExtra(row, &name, &category)
	if err != nil {
		return nil, "", "", err
	}
	return b, name, category, nil
}
