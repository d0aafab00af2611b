// Package collector implements the three SOAP-talking fetch cycles a
// scheduled Service goes through, on top of govmomi — the wire layer
// internal/vsoap and internal/propiter already adapt (see SPEC_FULL.md
// §0) — instead of a hand-rolled SOAP/XPath core.
//
// # Architecture Overview
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                      one scheduler wake                          │
//	│                                                                  │
//	│   Fetcher.RunInventory(ctx, svc, arena)                          │
//	│     dial + login (session.go) ──► auto-detect vCenter/vSphere    │
//	│     counter catalogue fill (first cycle only)                    │
//	│     traversal walk (traversal.go) ──► HV / VM / DS / Cluster     │
//	│     device + filesystem classification (devices.go)             │
//	│     populatePerfEntities ──► registers C8 PerfEntity rows        │
//	│     arena.PromoteSnapshot                                        │
//	│                                                                  │
//	│   EventFetcher.RunEvents(ctx, svc)        (independent session)  │
//	│     skip_old ──► latestEvent only                                │
//	│     else     ──► doubling-batch ReadPreviousEvents tail          │
//	│     arena.PromoteSnapshot (Events field only)                    │
//	│                                                                  │
//	│   PerfFetcher.RunPerf(ctx, svc, arena)    (independent session)  │
//	│     evict stale PerfEntity rows                                  │
//	│     pass 1: discoverRefreshRates                                 │
//	│     pass 2: queryAll (batched QueryPerf, continuation by entity) │
//	└──────────────────────────────────────────────────────────────────┘
//
// internal/scheduler dispatches two task kinds: the inventory task runs
// RunInventory and, when that succeeds, RunEvents; the performance task
// runs RunPerf. The scheduler runs one task at a time, so these never run
// concurrently for the same Service, but a Service's event and performance
// cycles each open their own vsoap session rather than sharing the
// inventory cycle's connection (see DESIGN.md's "independent session
// per cycle" note).
package collector
