// Package arena implements the shared, mutex-guarded cache spec.md §4.1
// calls the Arena & String Pool.
//
// The original C core is a fixed-size shared-memory region addressed by
// byte offsets (so it may be relocated by realloc without invalidating
// references held elsewhere in the same process tree). A single Go
// process has no such constraint — there is one address space and the
// garbage collector already owns memory safety — so this package keeps
// the *contract* spec.md describes (bounded size accounting, reference-
// counted string interning, wholesale snapshot replacement, one lock
// guarding every mutation) and drops the byte-offset indirection that
// contract existed to serve.
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                            Arena                              │
//	│  mu sync.RWMutex                                              │
//	│  size / used   uint64   (declared budget, for Statistics())   │
//	│  pool          *StringPool                                    │
//	│  snapshots     map[serviceID]*model.Snapshot                  │
//	└──────────────────────────────────────────────────────────────┘
//
// PromoteSnapshot is the only write path: callers build a Snapshot in
// their own goroutine ("private memory"), then PromoteSnapshot deep-
// copies it through the StringPool and swaps it in under mu — this is
// the realloc/deep-copy callback spec.md §4.1 and §9 describe, collapsed
// into one function because Go's allocator never needs the caller to
// choose a destination region.
package arena
