// Package types provides shared data structures for the marker tracking backend.
//
// Core Types:
//   - TrackedMarker: A detected marker with immutable content and last-seen time
//   - DisplayDecision: Whether an added event should reach the display layer
//   - RegistryStats: Registry counters
//   - PopupCard: Content currently shown by the display layer
//
// Request Types:
//   - WSMessage: WebSocket communication
//
// Values of these types are always copies; nothing here aliases registry state.
package types
