package display

import (
	"sync"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Display is the collaborator notified on a marker's first appearance
type Display interface {
	Show(content string)
}

// Publisher receives every card the popup presents. Publish must not block.
type Publisher interface {
	Publish(card types.PopupCard)
}

// Popup keeps a single on-screen card. Showing new content replaces the
// current card; nothing dismisses it when the marker disappears.
type Popup struct {
	mu        sync.RWMutex
	current   *types.PopupCard // Protected by mu
	shown     uint64           // Protected by mu
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewPopup creates a popup that forwards cards to publisher (may be nil)
func NewPopup(publisher Publisher, logger *zap.Logger) *Popup {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Popup{
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Show replaces the current card with one carrying content
func (p *Popup) Show(content string) {
	p.mu.Lock()
	card := types.PopupCard{
		ID:      uuid.New(),
		Content: content,
		ShownAt: p.now(),
	}
	if p.current != nil {
		replaced := p.current.ID
		card.Replaced = &replaced
	}
	p.current = &card
	p.shown++

	// Published under the lock so subscribers see cards in replacement order
	if p.publisher != nil {
		p.publisher.Publish(card)
	}
	p.mu.Unlock()

	p.logger.Debug("popup shown",
		zap.Stringer("card_id", card.ID),
		zap.Int("content_len", len(content)),
		zap.Bool("replaced", card.Replaced != nil),
	)
}

// Current returns a copy of the card on screen
func (p *Popup) Current() (types.PopupCard, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return types.PopupCard{}, false
	}
	card := *p.current
	if card.Replaced != nil {
		replaced := *card.Replaced
		card.Replaced = &replaced
	}
	return card, true
}

// Shown returns how many cards have been presented
func (p *Popup) Shown() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.shown
}

// Func adapts a function to Display
type Func func(content string)

// Show calls f(content)
func (f Func) Show(content string) {
	f(content)
}

var (
	_ Display = (*Popup)(nil)
	_ Display = Func(nil)
)
