// Package readapi implements spec.md's Public Read API (C11): the only
// surface poller workers use to reach cached inventory and performance
// data, keeping the arena lock discipline (copy out, release promptly) on
// the caller's side rather than leaking the lock itself across a call
// boundary.
package readapi

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kubev2v/vcenter-collector/internal/arena"
	"github.com/kubev2v/vcenter-collector/internal/model"
)

// registrar is the subset of internal/scheduler.Scheduler the read API
// needs: handing a freshly-registered stub Service to the scheduler loop.
type registrar interface {
	Register(svc *model.Service)
}

// ReadAPI is the process-wide C11 instance, constructed once in main and
// shared by every poller-facing transport (gRPC, HTTP, whatever a given
// deployment fronts it with).
type ReadAPI struct {
	arena     *arena.Arena
	scheduler registrar

	mu       sync.Mutex
	byEndpoint map[string]*model.Service

	log *zap.SugaredLogger
}

func New(a *arena.Arena, sched registrar) *ReadAPI {
	return &ReadAPI{
		arena:      a,
		scheduler:  sched,
		byEndpoint: map[string]*model.Service{},
		log:        zap.S().Named("readapi"),
	}
}

// endpointKey identifies a Service by its full connection tuple — the
// same url can be polled under different credentials and spec.md treats
// that as a distinct Service.
func endpointKey(url, username, password string) string {
	return url + "\x00" + username + "\x00" + password
}

// GetService implements spec.md §4.11's get_service: look up an existing
// Service; if it is ready/failed (including a ready Service whose next
// cycle is in flight), touch last_access and hand it back. A miss, or a
// Service whose first cycle has not yet finished, registers a stub if
// needed and returns not-ready — the scheduler drives it to ready
// asynchronously and the caller is expected to retry.
func (r *ReadAPI) GetService(url, username, password string, skipOld bool, now int64) (*model.Service, bool) {
	key := endpointKey(url, username, password)

	r.mu.Lock()
	svc, ok := r.byEndpoint[key]
	if !ok {
		svc = model.NewService(key, url, username, password, skipOld)
		r.byEndpoint[key] = svc
		r.mu.Unlock()
		r.scheduler.Register(svc)
		r.log.Infow("registered new service stub", "url", url)
		return nil, false
	}
	r.mu.Unlock()

	if svc.HasState(model.StateReady) || svc.HasState(model.StateFailed) {
		svc.LastAccess.Store(now)
		return svc, true
	}
	return nil, false
}

// GetCounterID implements spec.md §4.11's get_counterid.
func (r *ReadAPI) GetCounterID(svc *model.Service, path string) (uint64, bool) {
	return svc.Counters.Get(path)
}

// AddPerfCounter implements spec.md §4.11's add_perf_counter: idempotently
// track counterID on the (kind, id) entity, creating it with
// refresh=unknown (and the given query-instance glob) if this is the
// first counter requested for it.
func (r *ReadAPI) AddPerfCounter(svc *model.Service, kind model.PerfEntityKind, id string, counterID uint64, queryInstance string) bool {
	entity := svc.Perf.Ensure(kind, id, queryInstance)
	return entity.EnsureCounter(counterID)
}

// GetPerfEntity implements spec.md §4.11's get_perf_entity.
func (r *ReadAPI) GetPerfEntity(svc *model.Service, kind model.PerfEntityKind, id string) (*model.PerfEntity, bool) {
	return svc.Perf.Get(kind, id)
}

// Services returns every registered Service, for status/diagnostic
// surfaces only — not part of spec.md §4.11's reader contract, which
// callers reach through GetService.
func (r *ReadAPI) Services() []*model.Service {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Service, 0, len(r.byEndpoint))
	for _, svc := range r.byEndpoint {
		out = append(out, svc)
	}
	return out
}

// Statistics implements spec.md §4.11's statistics().
func (r *ReadAPI) Statistics() (total, used uint64) {
	return r.arena.Statistics()
}

// Lock/Unlock are the explicit scoped acquisition spec.md §4.11 describes
// for readers that need to hold the arena lock across more than the
// single Snapshot call below — e.g. reading several Services' snapshots
// as one consistent view. Do not call Snapshot while holding Lock: it
// acquires the same lock itself and the two are not reentrant.
func (r *ReadAPI) Lock()   { r.arena.Lock() }
func (r *ReadAPI) Unlock() { r.arena.Unlock() }

// Snapshot returns the currently-published inventory tree for svc, or nil
// if none has promoted yet; it acquires the arena lock itself for the
// duration of the lookup. Callers must copy out whatever fields they need
// promptly, per spec.md §4.11's reader discipline — the tree is
// immutable by convention but may be released once a newer one replaces
// it.
func (r *ReadAPI) Snapshot(svc *model.Service) *model.Snapshot {
	return r.arena.Snapshot(svc.ID)
}
