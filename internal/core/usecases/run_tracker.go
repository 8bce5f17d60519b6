package usecases

import (
	"context"
	"sync"

	"github.com/samirrijal/saferoute/internal/core/ports"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

// RunTracker keeps one live navigation run per user. Starting a new run
// cancels the previous one in this process; an optional RunStore makes the
// generation visible across instances.
type RunTracker struct {
	store ports.RunStore

	mu     sync.Mutex
	seq    int64
	active map[string]*Run
}

// Run is a handle on one navigation run. Within a process a run is
// identified by its handle, never by ID: store and local IDs may collide.
type Run struct {
	ID     int64
	userID string
	shared bool // ID was allocated by the store
	cancel context.CancelFunc
}

// NewRunTracker creates a tracker. store may be nil.
func NewRunTracker(store ports.RunStore) *RunTracker {
	return &RunTracker{store: store, active: make(map[string]*Run)}
}

// Begin starts a run for userID and returns its context, handle and a
// finish func that must be called when the run ends. Anonymous runs are
// never superseded.
func (t *RunTracker) Begin(ctx context.Context, userID string) (context.Context, *Run, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{userID: userID, cancel: cancel}
	if userID == "" {
		return runCtx, r, cancel
	}

	if t.store != nil {
		id, err := t.store.Next(ctx, userID)
		if err != nil {
			logging.FromContext(ctx).Warn("run store unavailable, using local generation", "error", err)
		} else {
			r.ID, r.shared = id, true
		}
	}

	t.mu.Lock()
	if !r.shared {
		t.seq++
		r.ID = t.seq
	}
	if prev := t.active[userID]; prev != nil {
		prev.cancel()
	}
	t.active[userID] = r
	t.mu.Unlock()

	finish := func() {
		cancel()
		t.mu.Lock()
		if cur := t.active[userID]; cur == r {
			delete(t.active, userID)
		}
		t.mu.Unlock()
	}
	return runCtx, r, finish
}

// Current reports whether r is still the latest run for its user.
func (t *RunTracker) Current(ctx context.Context, r *Run) bool {
	if r == nil || r.userID == "" {
		return true
	}

	t.mu.Lock()
	cur := t.active[r.userID]
	t.mu.Unlock()
	if cur != r {
		return false
	}

	if r.shared && t.store != nil {
		latest, err := t.store.Current(ctx, r.userID)
		if err == nil && latest != r.ID {
			return false
		}
	}
	return true
}
