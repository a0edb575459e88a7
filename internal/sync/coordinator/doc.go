// Package coordinator runs automatic refreshes in the background.
//
// A Coordinator polls a Refresher on a jittered ticker. Each tick asks the
// orchestrator whether the sync interval has elapsed since the last recorded
// sync; the orchestrator itself decides, starts the run and drops duplicates.
//
//	orch := sync.New(cfg, settings, cache)
//	coord := coordinator.New(orch)
//
//	go coord.Start(ctx)
//	// ...
//	coord.Stop()
//
// Stop cancels a refresh that is still in flight and waits for it, so the
// process can exit without leaving a half-finished run behind. A cancelled
// run never writes the list.
package coordinator
