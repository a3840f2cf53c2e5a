// Package sensortest provides a scriptable sensor for tests.
package sensortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor"
	"github.com/google/uuid"
)

// Fake is an in-memory sensor. Events are injected with Added, Updated and
// Removed and delivered synchronously on the caller's goroutine, whether or
// not the fake was started.
type Fake struct {
	sensor.Feed

	mu       sync.Mutex
	access   sensor.AccessResult
	gate     chan struct{}
	startErr error
	onStart  func()
	running  bool
	starts   int
	stops    int
	requests int
}

// New returns a fake that grants access immediately
func New() *Fake {
	return &Fake{access: sensor.AccessResult{Status: sensor.AccessGranted}}
}

// Deny makes subsequent access requests fail with err
func (f *Fake) Deny(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = sensor.ErrAccessDenied
	}
	f.access = sensor.AccessResult{Status: sensor.AccessDenied, Err: err}
	return f
}

// FailStart makes Start return err
func (f *Fake) FailStart(err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startErr = err
	return f
}

// OnStart runs fn inside every successful Start, after the fake is marked
// running and without its lock held. fn may emit events or block.
func (f *Fake) OnStart(fn func()) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onStart = fn
	return f
}

// Hold keeps access requests pending until Release is called
func (f *Fake) Hold() *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	return f
}

// Release resolves pending access requests
func (f *Fake) Release() {
	f.mu.Lock()
	gate := f.gate
	f.gate = nil
	f.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// RequestAccess implements sensor.Sensor
func (f *Fake) RequestAccess(ctx context.Context) <-chan sensor.AccessResult {
	f.mu.Lock()
	f.requests++
	gate := f.gate
	result := f.access
	f.mu.Unlock()

	if gate == nil {
		return sensor.Resolved(result)
	}

	ch := make(chan sensor.AccessResult, 1)
	go func() {
		defer close(ch)
		select {
		case <-gate:
			ch <- result
		case <-ctx.Done():
			ch <- sensor.AccessResult{Status: sensor.AccessDenied, Err: ctx.Err()}
		}
	}()
	return ch
}

// Start implements sensor.Sensor
func (f *Fake) Start() error {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return f.startErr
	}
	if f.running {
		f.mu.Unlock()
		return sensor.ErrAlreadyRunning
	}
	f.running = true
	f.starts++
	hook := f.onStart
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Stop implements sensor.Sensor
func (f *Fake) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return fmt.Errorf("fake sensor: %w", sensor.ErrNotRunning)
	}
	f.running = false
	f.stops++
	return nil
}

// Added injects an added event
func (f *Fake) Added(id uuid.UUID, content string) {
	f.EmitAdded(sensor.AddedEvent{ID: id, Content: content})
}

// Updated injects an updated event
func (f *Fake) Updated(id uuid.UUID) {
	f.EmitUpdated(id)
}

// Removed injects a removed event
func (f *Fake) Removed(id uuid.UUID) {
	f.EmitRemoved(id)
}

// Running reports whether the fake is started
func (f *Fake) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

// Counts returns how many times access was requested, and the fake started and stopped
func (f *Fake) Counts() (requests, starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests, f.starts, f.stops
}

var _ sensor.Sensor = (*Fake)(nil)
