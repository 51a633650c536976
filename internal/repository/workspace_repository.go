package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// WorkspaceRepo provides CRUD operations for workspaces.  The
// availability and booking flows read workspaces through the
// transactional Store; this repository serves the admin endpoints and
// public listings, which need no transaction.
type WorkspaceRepo struct {
	db *sql.DB
}

// NewWorkspaceRepo constructs a WorkspaceRepo with the given DB handle.
func NewWorkspaceRepo(db *sql.DB) *WorkspaceRepo {
	return &WorkspaceRepo{db: db}
}

// Create inserts a workspace record. On success the workspace's ID is
// populated.
func (r *WorkspaceRepo) Create(ctx context.Context, w *model.Workspace) error {
	const q = `INSERT INTO workspaces (name, category, hourly_rate, min_duration_minutes,
	               max_duration_minutes, open_minute, close_minute, accepts_credits, is_active)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		w.Name, w.Category, w.HourlyRate, w.MinDurationMinutes,
		w.MaxDurationMinutes, w.OpenMinute, w.CloseMinute, w.AcceptsCredits, w.IsActive,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	return nil
}

// GetByID retrieves a workspace by its id.
func (r *WorkspaceRepo) GetByID(ctx context.Context, id uint64) (*model.Workspace, error) {
	const q = `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = ?`
	w, err := scanWorkspace(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	return w, err
}

// ListActive retrieves all active workspaces ordered by category then name.
func (r *WorkspaceRepo) ListActive(ctx context.Context) ([]model.Workspace, error) {
	const q = `SELECT ` + workspaceColumns + `
	           FROM workspaces
	           WHERE is_active = TRUE
	           ORDER BY category, name`
	return r.list(ctx, q)
}

// ListAll retrieves every workspace including inactive ones, for the
// admin listing.
func (r *WorkspaceRepo) ListAll(ctx context.Context) ([]model.Workspace, error) {
	const q = `SELECT ` + workspaceColumns + ` FROM workspaces ORDER BY category, name`
	return r.list(ctx, q)
}

func (r *WorkspaceRepo) list(ctx context.Context, q string) ([]model.Workspace, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update rewrites the editable fields of a workspace.  Returns
// ErrWorkspaceNotFound when no row matches.
func (r *WorkspaceRepo) Update(ctx context.Context, w *model.Workspace) error {
	const q = `UPDATE workspaces
	           SET name = ?, category = ?, hourly_rate = ?, min_duration_minutes = ?,
	               max_duration_minutes = ?, open_minute = ?, close_minute = ?,
	               accepts_credits = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		w.Name, w.Category, w.HourlyRate, w.MinDurationMinutes,
		w.MaxDurationMinutes, w.OpenMinute, w.CloseMinute,
		w.AcceptsCredits, w.IsActive, w.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}

// Deactivate soft-deletes a workspace.  It refuses with ErrConflict
// while active bookings still reference the workspace on today or any
// future date; existing history is never removed.
func (r *WorkspaceRepo) Deactivate(ctx context.Context, id uint64, today string) error {
	const checkQ = `SELECT COUNT(*)
	                FROM bookings
	                WHERE workspace_id = ? AND date >= ?
	                  AND status IN ('pending', 'confirmed', 'checked-in')`
	var active int
	if err := r.db.QueryRowContext(ctx, checkQ, id, today).Scan(&active); err != nil {
		return err
	}
	if active > 0 {
		return ErrConflict
	}
	const q = `UPDATE workspaces SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}
