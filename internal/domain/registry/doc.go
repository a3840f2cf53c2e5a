// Package registry provides the tracked marker registry.
//
// The registry receives added/updated/removed events from sensor goroutines
// while HTTP handlers and the display layer read it concurrently. A single
// RWMutex guards the whole map; there is no per-marker locking.
//
// Semantics:
//   - UpsertAdded: inserts on first sight and returns Show=true. A repeated
//     add for a tracked id refreshes LastSeen and returns Show=false. Content
//     is never overwritten. Empty content returns ErrInvalidContent.
//   - Touch: refreshes LastSeen; unknown ids are ignored.
//   - Remove: deletes; unknown ids are ignored.
//   - Snapshot: copies in insertion order.
//
// LastSeen never moves backwards.
//
// Example Usage:
//
//	reg := registry.NewManager().WithMetrics(metrics)
//	decision, err := reg.UpsertAdded(id, "hello", time.Now())
//	if err == nil && decision.Show {
//	    popup.Show(decision.Content)
//	}
package registry
