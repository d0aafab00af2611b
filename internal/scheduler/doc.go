// Package scheduler drives every registered Service through its
// inventory, performance, and event-tailing cycles from one cooperative
// loop.
//
// # Architecture Overview
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                         Scheduler.Run                          │
//	│                                                                │
//	│   loop:                                                       │
//	│     lock                                                      │
//	│       for remove, update_perf, update (priority order):      │
//	│         pick the first Service whose state calls for it       │
//	│     unlock                                                    │
//	│                                                                │
//	│     if a task was picked:                                     │
//	│         run it outside the lock (SOAP I/O happens here)       │
//	│     sleep until the earliest next-wake, bounded by 1s          │
//	└────────────────────────────────────────────────────────────────┘
//
// Only one task runs per wake, and only one wake runs at a time — SOAP
// calls are synchronous and may block for the configured request
// timeout, so the loop never holds the services lock while a task runs.
// A Service's own StateUpdating/StateUpdatingPerf flags (checked and set
// under the lock) are what keeps its inventory and performance cycles
// from ever overlapping each other.
//
// A failed cycle schedules that Service's next attempt via
// github.com/cenkalti/backoff/v5's ExponentialBackOff instead of the
// fixed period, so a permanently broken credential does not retry every
// InventoryPeriod forever.
package scheduler
