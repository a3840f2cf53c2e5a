package types

import (
	"time"

	"github.com/google/uuid"
)

// TrackedMarker is a detected marker as held by the registry
type TrackedMarker struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// DisplayDecision is the registry's verdict for an added event.
// Show is true only on the first appearance of an id.
type DisplayDecision struct {
	Show    bool   `json:"show"`
	Content string `json:"content,omitempty"`
}

// RegistryStats holds registry counters
type RegistryStats struct {
	Tracked    int    `json:"tracked"`
	Added      uint64 `json:"added"`
	Duplicates uint64 `json:"duplicates"`
	Removed    uint64 `json:"removed"`
	Rejected   uint64 `json:"rejected"`
}
