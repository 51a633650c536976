package engine

import (
	"context"
	"strconv"
	"sync"

	"github.com/iliyamo/coworking-space-booking/internal/model"
)

// Coordinator serializes booking creation per workspace and date.
// Two requests racing for overlapping windows are forced through one
// at a time: the first validates against the free slots and commits,
// the second re-validates against the now-updated active set and gets
// ErrSlotUnavailable.  Requests for different workspaces or dates do
// not contend.
//
// The lock is in-process, which is sufficient for a single service
// instance; the database transaction's row locks remain the backstop
// underneath it.
type Coordinator struct {
	engine *Engine

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewCoordinator wraps an Engine with per-slot-key serialization.
func NewCoordinator(engine *Engine) *Coordinator {
	return &Coordinator{engine: engine, locks: make(map[string]*sync.Mutex)}
}

// AttemptBooking runs Engine.Create while holding the lock for the
// request's workspace/date key.
func (c *Coordinator) AttemptBooking(ctx context.Context, req CreateRequest) (*model.Booking, error) {
	lock := c.lockFor(slotKey(req.WorkspaceID, req.Date))
	lock.Lock()
	defer lock.Unlock()
	return c.engine.Create(ctx, req)
}

// lockFor returns the mutex for a slot key, creating it on first use.
// Keys are never evicted; the per-workspace/date cardinality is small
// enough that the map stays bounded in practice.
func (c *Coordinator) lockFor(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l, ok := c.locks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	c.locks[key] = l
	return l
}

func slotKey(workspaceID uint64, date string) string {
	return date + "#" + strconv.FormatUint(workspaceID, 10)
}
