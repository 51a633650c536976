package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkspaceCategory distinguishes the two bookable resource kinds.
type WorkspaceCategory string

const (
	CategoryDesk        WorkspaceCategory = "desk"
	CategoryMeetingRoom WorkspaceCategory = "meeting-room"
)

// Workspace represents a bookable resource in the `workspaces` table.
// Each workspace carries its own schedule parameters; the slot length
// used by the availability generator equals MinDurationMinutes.
//
// Fields:
//  ID                 – primary key identifier of the workspace.
//  Name               – human readable name ("Conference Room A").
//  Category           – desk or meeting-room.
//  HourlyRate         – price per hour in the space's currency.
//  MinDurationMinutes – minimum booking length; also the slot granularity.
//  MaxDurationMinutes – maximum booking length.
//  OpenMinute         – operating window start, minutes from midnight.
//  CloseMinute        – operating window end (exclusive), minutes from midnight.
//  AcceptsCredits     – whether member credits can pay for this workspace.
//  IsActive           – soft-delete flag; inactive workspaces are not bookable.
//  CreatedAt          – timestamp of creation.
//  UpdatedAt          – timestamp of last update.
type Workspace struct {
	ID                 uint64            // workspaces.id
	Name               string            // workspaces.name
	Category           WorkspaceCategory // workspaces.category
	HourlyRate         decimal.Decimal   // workspaces.hourly_rate
	MinDurationMinutes int               // workspaces.min_duration_minutes
	MaxDurationMinutes int               // workspaces.max_duration_minutes
	OpenMinute         int               // workspaces.open_minute
	CloseMinute        int               // workspaces.close_minute
	AcceptsCredits     bool              // workspaces.accepts_credits
	IsActive           bool              // workspaces.is_active
	CreatedAt          time.Time         // workspaces.created_at
	UpdatedAt          time.Time         // workspaces.updated_at
}
