// Package session provides the marker tracking session controller.
//
// The controller owns the sensor lifecycle and forwards sensor events:
//   - added: registry.UpsertAdded, then display.Show on first appearance
//   - updated: registry.Touch
//   - removed: registry.Remove (the popup stays on screen)
//
// State Machine:
//
//	Uninitialized -> Requesting -> Running -> Stopped
//	                           \-> Failed
//	                Requesting -> Stopped (Stop before access resolves)
//
// Transitions are one-way. Failed and Stopped are terminal; tracking again
// requires a new controller.
//
// Example Usage:
//
//	ctrl := session.NewController(watcher, reg, popup, logger.Component("session"))
//	if err := <-ctrl.Start(ctx); err != nil {
//	    // logged already; the process continues without tracking
//	}
//	defer ctrl.Stop()
package session
