package registry

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/types"
	"github.com/google/uuid"
)

// ErrInvalidContent is returned when an added event carries empty content
var ErrInvalidContent = errors.New("marker content is empty")

// entry is the registry-internal record. Never handed out; callers get copies.
type entry struct {
	seq       uint64
	content   string
	firstSeen time.Time
	lastSeen  time.Time
}

func (e *entry) marker(id uuid.UUID) types.TrackedMarker {
	return types.TrackedMarker{
		ID:        id,
		Content:   e.content,
		FirstSeen: e.firstSeen,
		LastSeen:  e.lastSeen,
	}
}

// refresh moves lastSeen forward, never back
func (e *entry) refresh(now time.Time) {
	if now.After(e.lastSeen) {
		e.lastSeen = now
	}
}

// Manager is the tracked marker registry
type Manager struct {
	mu      sync.RWMutex
	markers map[uuid.UUID]*entry // Protected by mu
	nextSeq uint64               // Protected by mu
	stats   types.RegistryStats  // Protected by mu
	metrics *monitoring.Metrics
}

// NewManager creates an empty registry
func NewManager() *Manager {
	return &Manager{
		markers: make(map[uuid.UUID]*entry),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// UpsertAdded records an added event. The first add for an id inserts the
// marker and asks for display; a repeated add only refreshes LastSeen and
// never overwrites content.
func (m *Manager) UpsertAdded(id uuid.UUID, content string, now time.Time) (types.DisplayDecision, error) {
	if content == "" {
		m.mu.Lock()
		m.stats.Rejected++
		m.mu.Unlock()
		return types.DisplayDecision{}, ErrInvalidContent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.markers[id]; ok {
		e.refresh(now)
		m.stats.Duplicates++
		return types.DisplayDecision{Show: false}, nil
	}

	m.nextSeq++
	m.markers[id] = &entry{
		seq:       m.nextSeq,
		content:   content,
		firstSeen: now,
		lastSeen:  now,
	}
	m.stats.Added++
	m.updateMetrics()

	return types.DisplayDecision{Show: true, Content: content}, nil
}

// Touch refreshes LastSeen for a tracked marker. Unknown ids are ignored
// since an update can race with a removal. Reports whether the id was tracked.
func (m *Manager) Touch(id uuid.UUID, now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.markers[id]
	if !ok {
		return false
	}
	e.refresh(now)
	return true
}

// Remove drops a marker. Unknown ids are a no-op. Reports whether anything was removed.
func (m *Manager) Remove(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.markers[id]; !ok {
		return false
	}
	delete(m.markers, id)
	m.stats.Removed++
	m.updateMetrics()
	return true
}

// Get retrieves a copy of a tracked marker
func (m *Manager) Get(id uuid.UUID) (types.TrackedMarker, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.markers[id]
	if !ok {
		return types.TrackedMarker{}, false
	}
	return e.marker(id), true
}

// Snapshot returns copies of all tracked markers in insertion order
func (m *Manager) Snapshot() []types.TrackedMarker {
	m.mu.RLock()
	type ordered struct {
		seq    uint64
		marker types.TrackedMarker
	}
	all := make([]ordered, 0, len(m.markers))
	for id, e := range m.markers {
		all = append(all, ordered{seq: e.seq, marker: e.marker(id)})
	}
	m.mu.RUnlock()

	// Sort outside the lock; the copies are already consistent
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	out := make([]types.TrackedMarker, len(all))
	for i := range all {
		out[i] = all[i].marker
	}
	return out
}

// Len returns the number of tracked markers
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers)
}

// Stats returns registry statistics
func (m *Manager) Stats() types.RegistryStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := m.stats
	stats.Tracked = len(m.markers)
	return stats
}

// updateMetrics publishes the tracked gauge (must hold lock)
func (m *Manager) updateMetrics() {
	if m.metrics != nil {
		m.metrics.SetMarkersTracked(len(m.markers))
	}
}
