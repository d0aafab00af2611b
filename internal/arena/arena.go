package arena

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kubev2v/vcenter-collector/internal/model"
	srverrors "github.com/kubev2v/vcenter-collector/pkg/errors"
)

// compressPeriod is spec.md §4.1's COMPRESS_PERIOD: compaction is
// attempted at most once per 24h.
const compressPeriod = 24 * time.Hour

// estimatedBaseSnapshotSize is a rough per-snapshot byte charge used only for
// the declared size/used accounting Statistics() reports; Go's GC, not
// this package, owns real memory, so this is bookkeeping for API parity
// with spec.md's arena_total/arena_used, not an allocator.
const estimatedBaseSnapshotSize = 4096

// Arena is the process-wide cache described in doc.go.
type Arena struct {
	mu   sync.RWMutex
	pool *StringPool

	size uint64
	used uint64

	snapshots map[string]*model.Snapshot

	lastCompactedAt time.Time

	log *zap.SugaredLogger
}

func New(initialSize uint64) *Arena {
	return &Arena{
		pool:      NewStringPool(),
		size:      initialSize,
		snapshots: map[string]*model.Snapshot{},
		log:       zap.S().Named("arena"),
	}
}

// Reserve raises the declared size floor, growing if the request exceeds
// the current size (spec.md §4.1: "allocation is bump-pointer ... when an
// allocation would exceed current size, the arena is expanded").
func (a *Arena) Reserve(extra uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	want := a.used + extra
	if want > a.size {
		a.grow(want)
	}
	a.used = want
}

// grow must be called with mu held. It doubles size until it covers want;
// per spec.md §9 a real arena resize must re-walk the whole reachable
// graph under the lock to rewrite offsets. This package has no offsets to
// rewrite (see doc.go), so growth is pure accounting — but failure to
// grow (e.g. a caller-imposed hard ceiling in the future) is still the
// fatal Internal condition spec.md §4.1/§7 describes.
func (a *Arena) grow(want uint64) {
	newSize := a.size
	if newSize == 0 {
		newSize = estimatedBaseSnapshotSize
	}
	for newSize < want {
		newSize *= 2
	}
	a.log.Debugw("growing arena", "from", a.size, "to", newSize)
	a.size = newSize
}

// MustReserve calls Reserve and, should Reserve panic, logs the failure at
// fatal level, which exits the process; it does not re-panic. There is
// currently no ceiling, so this never fires in practice — it
// exists so a future hard cap (a deployment safety valve) has somewhere
// to plug in without touching every call site.
func (a *Arena) MustReserve(extra uint64) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Fatalw("arena allocation failed, process cannot continue", "error", r)
		}
	}()
	a.Reserve(extra)
}

// Fatal reports the spec.md §7 "Internal" condition: allocation failure
// after realloc. The caller (cmd/vcenter-collectord) recovers this once at
// the top level, flushes the logger, and exits the process — Go has no
// partial-process-state concept to preserve, so "fatal" means exit.
func (a *Arena) Fatal(reason string) {
	panic(srverrors.NewInternalError(reason))
}

// Pool exposes the string pool for components that intern outside a
// snapshot promotion (e.g. the counter registry keys).
func (a *Arena) Pool() *StringPool { return a.pool }

// PromoteSnapshot deep-copies private into the shared pool, swaps it in
// for serviceID, and releases the strings of whatever snapshot it
// replaces. This is the only write path into the shared cache.
func (a *Arena) PromoteSnapshot(serviceID string, private *model.Snapshot) *model.Snapshot {
	copied := private.DeepCopy(a.pool)

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := a.snapshots[serviceID]
	a.snapshots[serviceID] = copied
	a.used += estimatedBaseSnapshotSize
	if a.used > a.size {
		a.grow(a.used)
	}
	if prev != nil {
		prev.Release(a.pool)
		if a.used >= estimatedBaseSnapshotSize {
			a.used -= estimatedBaseSnapshotSize
		}
	}
	return copied
}

// Snapshot returns the currently-published snapshot for serviceID, or nil
// if none has been promoted yet.
func (a *Arena) Snapshot(serviceID string) *model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshots[serviceID]
}

// DropService releases a service's snapshot entirely (used by the
// scheduler's "remove" task when a Service's TTL expires).
func (a *Arena) DropService(serviceID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.snapshots[serviceID]; ok {
		prev.Release(a.pool)
		delete(a.snapshots, serviceID)
		if a.used >= estimatedBaseSnapshotSize {
			a.used -= estimatedBaseSnapshotSize
		}
	}
}

// Compact shrinks the declared size to the declared used size, at most
// once per compressPeriod (spec.md §4.1).
func (a *Arena) Compact(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if now.Sub(a.lastCompactedAt) < compressPeriod {
		return
	}
	if a.used < a.size {
		a.log.Debugw("compacting arena", "from", a.size, "to", a.used)
		a.size = a.used
	}
	a.lastCompactedAt = now
}

// Statistics returns (size, used) for the read API's arena_total/arena_used.
func (a *Arena) Statistics() (total, used uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size, a.used
}

// Lock/Unlock give readers that must walk a Snapshot directly (C11's
// scoped-acquisition contract) explicit access to the same lock
// PromoteSnapshot uses, so a snapshot swap can never race a traversal.
func (a *Arena) Lock()    { a.mu.Lock() }
func (a *Arena) Unlock()  { a.mu.Unlock() }
func (a *Arena) RLock()   { a.mu.RLock() }
func (a *Arena) RUnlock() { a.mu.RUnlock() }
