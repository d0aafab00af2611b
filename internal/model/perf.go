package model

import (
	"math"
	"sync"
)

// RefreshUnknown/RefreshNone are the sentinel refresh-rate values from
// spec.md §3: "unknown" means pass 1 has not resolved it yet, "none"
// means the entity is historical-only (aggregate, no real-time counters).
const (
	RefreshUnknown int32 = -1
	RefreshNone    int32 = -2
)

// PerfEntityKind mirrors the vendor managed-object type this entity
// samples counters for.
type PerfEntityKind int

const (
	PerfEntityHostSystem PerfEntityKind = iota
	PerfEntityVirtualMachine
	PerfEntityDatastore
)

// PerfEntityID identifies one PerfEntity table row.
type PerfEntityID struct {
	Kind PerfEntityKind
	ID   string
}

// Sample is one (instance, value) pair collected in a single cycle. Value
// is SizeUnknown when the vendor returned "-1" or any non-numeric text —
// spec.md §9 preserves this historical conflation of "no data" and
// "malformed," logged distinctly at the point of parsing.
type Sample struct {
	Instance string
	Value    uint64
}

// Ring is a bounded, single-slot-per-cycle ring of samples for one
// counter. New cycles replace the previous contents wholesale (spec.md
// §4.8's "shared-vector clean").
type Ring struct {
	samples []Sample
}

func (r *Ring) Replace(samples []Sample) { r.samples = samples }
func (r *Ring) Samples() []Sample        { return r.samples }

type PerfCounterState int

const (
	PerfCounterNew PerfCounterState = iota
	PerfCounterReady
	PerfCounterUpdating
)

// PerfCounter is one (group/name[rollup]) counter tracked on a PerfEntity.
type PerfCounter struct {
	CounterID uint64
	State     PerfCounterState
	Ring      Ring
}

// PerfEntity is the pair (type, id) used as the unit of performance
// sampling, plus its refresh rate, query-instance glob, and counters.
type PerfEntity struct {
	Kind  PerfEntityKind
	ID    string
	Refresh        int32 // RefreshUnknown, RefreshNone, or seconds
	QueryInstance  string // "*" for HV/VM, "" for Datastore
	Counters       map[uint64]*PerfCounter
	counterOrder   []uint64 // preserves insertion order for batch iteration
	LastSeen       int64    // unix seconds of the cycle that last saw this entity
	Error          string

	// startCounterIndex remembers where a straddled batch left off
	// (spec.md §4.9, scenario 5).
	startCounterIndex int
}

func NewPerfEntity(kind PerfEntityKind, id, queryInstance string) *PerfEntity {
	return &PerfEntity{
		Kind:          kind,
		ID:            id,
		Refresh:       RefreshUnknown,
		QueryInstance: queryInstance,
		Counters:      map[uint64]*PerfCounter{},
	}
}

// EnsureCounter idempotently tracks counterID on this entity, creating it
// with PerfCounterNew state if absent. Returns true if it was newly added.
func (e *PerfEntity) EnsureCounter(counterID uint64) bool {
	if _, ok := e.Counters[counterID]; ok {
		return false
	}
	e.Counters[counterID] = &PerfCounter{CounterID: counterID, State: PerfCounterNew}
	e.counterOrder = append(e.counterOrder, counterID)
	return true
}

// CounterIDs returns the tracked counter ids in stable insertion order, the
// order batches in C9 walk them in.
func (e *PerfEntity) CounterIDs() []uint64 {
	return e.counterOrder
}

// StartIndex / SetStartIndex implement the "continue same entity in the
// next batch" continuation spec.md §4.9 describes.
func (e *PerfEntity) StartIndex() int        { return e.startCounterIndex }
func (e *PerfEntity) SetStartIndex(i int)    { e.startCounterIndex = i }

// PerfTable is the process-wide (per-Service) map of tracked PerfEntity
// rows, guarded by its own mutex since C9/C10 touch it independently of
// Snapshot promotion (spec.md §4.8).
type PerfTable struct {
	mu      sync.Mutex
	entries map[PerfEntityID]*PerfEntity
}

func NewPerfTable() *PerfTable {
	return &PerfTable{entries: map[PerfEntityID]*PerfEntity{}}
}

func (t *PerfTable) Get(kind PerfEntityKind, id string) (*PerfEntity, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[PerfEntityID{kind, id}]
	return e, ok
}

// Ensure returns the existing entity or creates one with the given
// query-instance glob.
func (t *PerfTable) Ensure(kind PerfEntityKind, id, queryInstance string) *PerfEntity {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := PerfEntityID{kind, id}
	if e, ok := t.entries[key]; ok {
		return e
	}
	e := NewPerfEntity(kind, id, queryInstance)
	t.entries[key] = e
	return e
}

// All returns a snapshot slice of every tracked entity.
func (t *PerfTable) All() []*PerfEntity {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*PerfEntity, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// EvictStale removes every entity whose LastSeen predates cutoff — the
// start-of-perf-cycle eviction spec.md §3/§8 and scenario 6 require.
func (t *PerfTable) EvictStale(cutoff int64) []PerfEntityID {
	t.mu.Lock()
	defer t.mu.Unlock()
	var evicted []PerfEntityID
	for key, e := range t.entries {
		if e.LastSeen < cutoff {
			delete(t.entries, key)
			evicted = append(evicted, key)
		}
	}
	return evicted
}

func (t *PerfTable) Touch(kind PerfEntityKind, id string, now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[PerfEntityID{kind, id}]; ok {
		e.LastSeen = now
	}
}

// CounterRegistry maps "group/name[rollup]" (and "...[rollup,stats]" when
// the vendor counter metadata advertises a stats level) to the
// vendor-assigned numeric counter id (spec.md §3/§4.6 step 2).
type CounterRegistry struct {
	mu   sync.RWMutex
	byPath map[string]uint64
}

func NewCounterRegistry() CounterRegistry {
	return CounterRegistry{byPath: map[string]uint64{}}
}

func (r *CounterRegistry) Set(path string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byPath[path] = id
}

func (r *CounterRegistry) Get(path string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPath[path]
	return id, ok
}

func (r *CounterRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPath)
}

// ParsePerfValue implements spec.md §4.9's sentinel rule: "-1" or any text
// that fails to parse as a uint64 becomes SizeUnknown, and both cases still
// propagate as a sample (the historical conflation spec.md §9 preserves).
func ParsePerfValue(raw string) (value uint64, wasUnavailableMarker bool) {
	if raw == "-1" {
		return SizeUnknown, true
	}
	v, err := parseUint64(raw)
	if err != nil {
		return SizeUnknown, false
	}
	return v, false
}

func parseUint64(s string) (uint64, error) {
	var v uint64
	if s == "" {
		return 0, errEmptyValue
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errNotNumeric
		}
		d := uint64(c - '0')
		if v > (math.MaxUint64-d)/10 {
			return 0, errOverflow
		}
		v = v*10 + d
	}
	return v, nil
}

type perfParseError string

func (e perfParseError) Error() string { return string(e) }

const (
	errEmptyValue perfParseError = "empty perf value"
	errNotNumeric perfParseError = "perf value is not numeric"
	errOverflow   perfParseError = "perf value overflows uint64"
)
