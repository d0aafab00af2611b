package arena

import "sync"

// StringPool is a hash set keyed by string content, each entry carrying a
// refcount, matching spec.md §4.1's "string pool entries reclaim space on
// refcount zero" policy. It implements model.Interner and model.Releaser
// structurally, so model never has to import arena (arena imports model).
type StringPool struct {
	mu      sync.Mutex
	entries map[string]uint32
}

func NewStringPool() *StringPool {
	return &StringPool{entries: map[string]uint32{}}
}

// Intern increments the refcount of s (creating the entry on first sight)
// and returns it unchanged — the interned value content-addresses itself,
// so there is no separate offset to hand back.
func (p *StringPool) Intern(s string) string {
	if s == "" {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[s]++
	return s
}

// Release decrements s's refcount, removing the entry at zero.
func (p *StringPool) Release(s string) {
	if s == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.entries[s]
	if !ok {
		return
	}
	if n <= 1 {
		delete(p.entries, s)
		return
	}
	p.entries[s] = n - 1
}

// RefCount reports the current reference count of s (0 if unreachable).
// Exists for the testable property "reachable iff refcount >= 1."
func (p *StringPool) RefCount(s string) uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[s]
}

// Len is the number of distinct interned strings.
func (p *StringPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
