// Package sync keeps the curated defer list in step with the pricing API.
//
// # Orchestrator
//
// Orchestrator is a two-state machine (StateIdle, StateFetching) guarded by an
// atomic compare-and-set, so at most one run is in flight per process. A
// request that arrives while a run is in flight is dropped, not queued.
//
// A run:
//
//   - resolves the effective settings; a missing league or value floor is a
//     config.ConfigError and aborts before any request is made
//   - fetches every tracked category concurrently through the price cache,
//     which serves the last good listing when a fetch fails
//   - classifies every item worth at least the floor into an api entry
//   - reconciles the api entries with the stored list (deferlist.Merge)
//   - writes the new list and the sync time in one store write
//
// Cancellation is cooperative and checked after fetching and again before the
// write. A cancelled or failed run never modifies the stored list.
//
// # Scheduling
//
// ShouldAutoRefresh and Orchestrator.RefreshIfDue decide whether the automatic
// interval has elapsed. The coordinator subpackage polls RefreshIfDue in the
// background.
package sync
