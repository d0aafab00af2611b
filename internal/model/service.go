package model

import (
	"sync/atomic"
	"time"
)

// ServiceType is the vendor deployment flavour of one monitored endpoint.
// Per spec.md §3, once set to VCenter or VSphere it never changes.
type ServiceType int

const (
	ServiceTypeUnknown ServiceType = iota
	ServiceTypeVCenter
	ServiceTypeVSphere
)

func (t ServiceType) String() string {
	switch t {
	case ServiceTypeVCenter:
		return "vcenter"
	case ServiceTypeVSphere:
		return "vsphere"
	default:
		return "unknown"
	}
}

// ServiceState is a small state bitset describing what is currently
// in flight for a Service, checked under the arena lock (spec.md §5).
type ServiceState uint32

const (
	// StateNew: registered but never successfully updated.
	StateNew ServiceState = 1 << iota
	// StateReady: at least one inventory cycle has completed.
	StateReady
	// StateFailed: the most recent inventory cycle ended in error.
	StateFailed
	// StateUpdating: an inventory cycle is currently executing.
	StateUpdating
	// StateUpdatingPerf: a performance cycle is currently executing.
	StateUpdatingPerf
)

// EventCursor tracks the event-log tailing position across restarts.
type EventCursor struct {
	LastKey  int64
	SkipOld  bool
	Uninit   bool // true until the first event cycle has run
}

// Service is one monitored vCenter/ESXi endpoint. It has no lock of its
// own: the fields written only by this Service's scheduler task are plain
// fields, the shared counters and flags are atomics, and the published
// snapshot is swapped under the arena's own lock so readers never observe
// a half-built tree (spec.md §5).
type Service struct {
	ID       string
	URL      string
	Username string
	Password string

	typ     atomic.Int32 // ServiceType, CAS-guarded so it is set exactly once
	Version string
	FullName string

	state atomic.Uint32 // ServiceState bitset

	LastAccess    atomic.Int64 // unix seconds
	LastInventory atomic.Int64
	LastPerf      atomic.Int64

	Events EventCursor

	// Snapshot is replaced wholesale by arena.PromoteSnapshot; readers must
	// go through arena.Arena.Snapshot(serviceID) rather than this field
	// directly, since the pointer is only safe to read under the arena lock.
	Snapshot atomic.Pointer[Snapshot]

	Perf *PerfTable

	// Counters maps "group/name[rollup]" and "group/name[rollup,stats]" to
	// the vendor-assigned counter id, filled once on the first successful
	// cycle (spec.md §4.6 step 2).
	Counters CounterRegistry

	// ConsecutiveFailures backs the scheduler's per-service backoff.
	ConsecutiveFailures atomic.Int32
}

// NewService registers a brand-new stub Service in StateNew.
func NewService(id, url, username, password string, skipOld bool) *Service {
	s := &Service{
		ID:       id,
		URL:      url,
		Username: username,
		Password: password,
		Events:   EventCursor{SkipOld: skipOld, Uninit: true},
		Perf:     NewPerfTable(),
		Counters: NewCounterRegistry(),
	}
	s.state.Store(uint32(StateNew))
	return s
}

func (s *Service) Type() ServiceType { return ServiceType(s.typ.Load()) }

// SetTypeOnce pins Service.Type the first time a cycle succeeds. Returns
// false if the type was already set to something else — callers must never
// overwrite an established type (spec.md invariant).
func (s *Service) SetTypeOnce(t ServiceType) bool {
	return s.typ.CompareAndSwap(int32(ServiceTypeUnknown), int32(t))
}

func (s *Service) State() ServiceState { return ServiceState(s.state.Load()) }

func (s *Service) HasState(flag ServiceState) bool {
	return s.State()&flag != 0
}

func (s *Service) SetState(flag ServiceState) {
	for {
		old := s.state.Load()
		if s.state.CompareAndSwap(old, old|uint32(flag)) {
			return
		}
	}
}

func (s *Service) ClearState(flag ServiceState) {
	for {
		old := s.state.Load()
		if s.state.CompareAndSwap(old, old&^uint32(flag)) {
			return
		}
	}
}

func (s *Service) Touch(now time.Time) {
	s.LastAccess.Store(now.Unix())
}

func (s *Service) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(s.LastAccess.Load(), 0))
}
