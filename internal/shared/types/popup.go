package types

import (
	"time"

	"github.com/google/uuid"
)

// PopupCard is the content currently presented by the display layer
type PopupCard struct {
	ID       uuid.UUID  `json:"id"`
	Content  string     `json:"content"`
	ShownAt  time.Time  `json:"shown_at"`
	Replaced *uuid.UUID `json:"replaced,omitempty"` // Card this one replaced, if any
}
