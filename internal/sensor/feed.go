package sensor

import (
	"sync"

	"github.com/google/uuid"
)

// Feed fans sensor events out to subscribed handlers. Sensor
// implementations embed it to satisfy the On* half of Sensor.
//
// Handlers are invoked outside the feed lock, so a handler may block on
// its own locks without stalling Unsubscribe.
type Feed struct {
	mu      sync.RWMutex
	nextID  uint64
	added   map[uint64]func(AddedEvent)
	updated map[uint64]func(uuid.UUID)
	removed map[uint64]func(uuid.UUID)
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// OnAdded subscribes to added events
func (f *Feed) OnAdded(handler func(AddedEvent)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.added == nil {
		f.added = make(map[uint64]func(AddedEvent))
	}
	id := f.allocate()
	f.added[id] = handler
	return &subscription{cancel: func() {
		f.mu.Lock()
		delete(f.added, id)
		f.mu.Unlock()
	}}
}

// OnUpdated subscribes to updated events
func (f *Feed) OnUpdated(handler func(uuid.UUID)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = make(map[uint64]func(uuid.UUID))
	}
	id := f.allocate()
	f.updated[id] = handler
	return &subscription{cancel: func() {
		f.mu.Lock()
		delete(f.updated, id)
		f.mu.Unlock()
	}}
}

// OnRemoved subscribes to removed events
func (f *Feed) OnRemoved(handler func(uuid.UUID)) Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removed == nil {
		f.removed = make(map[uint64]func(uuid.UUID))
	}
	id := f.allocate()
	f.removed[id] = handler
	return &subscription{cancel: func() {
		f.mu.Lock()
		delete(f.removed, id)
		f.mu.Unlock()
	}}
}

// EmitAdded delivers an added event to every subscriber
func (f *Feed) EmitAdded(ev AddedEvent) {
	f.mu.RLock()
	handlers := make([]func(AddedEvent), 0, len(f.added))
	for _, h := range f.added {
		handlers = append(handlers, h)
	}
	f.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// EmitUpdated delivers an updated event to every subscriber
func (f *Feed) EmitUpdated(id uuid.UUID) {
	for _, h := range f.idHandlers(func() map[uint64]func(uuid.UUID) { return f.updated }) {
		h(id)
	}
}

// EmitRemoved delivers a removed event to every subscriber
func (f *Feed) EmitRemoved(id uuid.UUID) {
	for _, h := range f.idHandlers(func() map[uint64]func(uuid.UUID) { return f.removed }) {
		h(id)
	}
}

// Subscribers returns the number of handlers per channel
func (f *Feed) Subscribers() (added, updated, removed int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.added), len(f.updated), len(f.removed)
}

// idHandlers copies the handler set returned by pick under the read lock
func (f *Feed) idHandlers(pick func() map[uint64]func(uuid.UUID)) []func(uuid.UUID) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	set := pick()
	handlers := make([]func(uuid.UUID), 0, len(set))
	for _, h := range set {
		handlers = append(handlers, h)
	}
	return handlers
}

// allocate returns the next handler id (must hold lock)
func (f *Feed) allocate() uint64 {
	f.nextID++
	return f.nextID
}
