// Package model defines the in-memory data types cached by the collector:
// Service, Snapshot (the per-service inventory tree), Hypervisor,
// VirtualMachine, Datastore, Cluster, Event, Device, FileSystem, and the
// performance-sampling types PerfEntity/PerfCounter/CounterRegistry.
//
// Every type that is reachable from a promoted Snapshot carries its own
// strings by value; Snapshot.DeepCopy re-interns each one through an
// Interner (implemented by internal/arena.StringPool) so the arena package
// never needs to import model, and model never needs to import arena —
// the dependency only runs one way, through the small Interner interface
// declared here.
package model
