package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/registry"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor/sensortest"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDisplay struct {
	mu    sync.Mutex
	shown []string
}

func (d *recordingDisplay) Show(content string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, content)
}

func (d *recordingDisplay) Shown() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.shown...)
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for start result")
		return nil
	}
}

func newRunning(t *testing.T) (*Controller, *sensortest.Fake, *recordingDisplay) {
	t.Helper()
	fake := sensortest.New()
	disp := &recordingDisplay{}
	c := NewController(fake, registry.NewManager(), disp, nil)
	require.NoError(t, wait(t, c.Start(context.Background())))
	require.Equal(t, StateRunning, c.State())
	return c, fake, disp
}

func TestStartGranted(t *testing.T) {
	c, fake, _ := newRunning(t)

	assert.True(t, fake.Running())
	added, updated, removed := fake.Subscribers()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, updated)
	assert.Equal(t, 1, removed)
	assert.NoError(t, c.Err())
}

func TestStartDenied(t *testing.T) {
	fake := sensortest.New().Deny(nil)
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	err := wait(t, c.Start(context.Background()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermissionDenied))
	assert.ErrorIs(t, err, sensor.ErrAccessDenied)
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, err, c.Err())

	// Sensor never started or subscribed
	assert.False(t, fake.Running())
	added, _, _ := fake.Subscribers()
	assert.Equal(t, 0, added)

	// No automatic retry; a second start is rejected
	assert.ErrorIs(t, wait(t, c.Start(context.Background())), ErrInvalidState)
	requests, starts, _ := fake.Counts()
	assert.Equal(t, 1, requests)
	assert.Equal(t, 0, starts)

	// Stop from Failed is a no-op
	assert.NoError(t, c.Stop())
	assert.Equal(t, StateFailed, c.State())
}

func TestStartSensorUnavailable(t *testing.T) {
	boom := errors.New("camera busy")
	fake := sensortest.New().FailStart(boom)
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	err := wait(t, c.Start(context.Background()))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, c.State())

	// Handlers were detached again
	added, updated, removed := fake.Subscribers()
	assert.Zero(t, added+updated+removed)
}

func TestStartIsAsynchronous(t *testing.T) {
	fake := sensortest.New().Hold()
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	result := c.Start(context.Background())
	assert.Equal(t, StateRequesting, c.State())

	select {
	case err := <-result:
		t.Fatalf("start resolved before access: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	fake.Release()
	require.NoError(t, wait(t, result))
	assert.Equal(t, StateRunning, c.State())
}

func TestStartCanceledContext(t *testing.T) {
	fake := sensortest.New().Hold()
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	result := c.Start(ctx)
	cancel()

	err := wait(t, result)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, StateFailed, c.State())
	assert.False(t, fake.Running())
}

func TestStopWhileRequesting(t *testing.T) {
	fake := sensortest.New().Hold()
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	result := c.Start(context.Background())
	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())

	fake.Release()
	assert.ErrorIs(t, wait(t, result), ErrStopped)
	assert.Equal(t, StateStopped, c.State())
	assert.False(t, fake.Running())
}

func TestStartWithEventsDuringSensorStart(t *testing.T) {
	fake := sensortest.New()
	cached := uuid.New()
	// Sensor replays a marker it already knows before Start returns
	fake.OnStart(func() { fake.Added(cached, "cached") })
	disp := &recordingDisplay{}
	reg := registry.NewManager()
	c := NewController(fake, reg, disp, nil)

	require.NoError(t, wait(t, c.Start(context.Background())))
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, []string{"cached"}, disp.Shown())
	_, ok := reg.Get(cached)
	assert.True(t, ok)

	done := make(chan error, 1)
	go func() { done <- c.Stop() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for stop")
	}
	assert.False(t, fake.Running())
}

func TestStopWhileSensorStarting(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	fake := sensortest.New()
	fake.OnStart(func() {
		close(entered)
		<-proceed
	})
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	result := c.Start(context.Background())
	select {
	case <-entered:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for sensor start")
	}

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
	close(proceed)

	assert.ErrorIs(t, wait(t, result), ErrStopped)
	assert.Equal(t, StateStopped, c.State())
	assert.False(t, fake.Running())
	_, starts, stops := fake.Counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops)
	added, _, _ := fake.Subscribers()
	assert.Zero(t, added)
}

func TestAddedShowsOnce(t *testing.T) {
	c, fake, disp := newRunning(t)
	a := uuid.New()

	fake.Added(a, "hello")
	fake.Added(a, "hello")
	assert.Equal(t, []string{"hello"}, disp.Shown())

	fake.Removed(a)
	assert.Empty(t, c.Registry().Snapshot())

	// Removal does not dismiss anything on screen
	assert.Equal(t, []string{"hello"}, disp.Shown())
}

func TestAddedInvalidContentIsDropped(t *testing.T) {
	c, fake, disp := newRunning(t)

	fake.Added(uuid.New(), "")
	assert.Empty(t, disp.Shown())
	assert.Empty(t, c.Registry().Snapshot())

	// Later events still flow
	b := uuid.New()
	fake.Added(b, "next")
	assert.Equal(t, []string{"next"}, disp.Shown())
	assert.Equal(t, StateRunning, c.State())
}

func TestUpdatedTouches(t *testing.T) {
	fake := sensortest.New()
	reg := registry.NewManager()
	c := NewController(fake, reg, &recordingDisplay{}, nil)

	clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	require.NoError(t, wait(t, c.Start(context.Background())))

	id := uuid.New()
	fake.Added(id, "hello")
	clock = clock.Add(time.Minute)
	fake.Updated(id)

	marker, ok := reg.Get(id)
	require.True(t, ok)
	assert.Equal(t, clock, marker.LastSeen)

	// Update racing a removal is tolerated
	fake.Removed(id)
	assert.NotPanics(t, func() { fake.Updated(id) })
	assert.Equal(t, 0, reg.Len())
}

func TestStop(t *testing.T) {
	c, fake, disp := newRunning(t)

	require.NoError(t, c.Stop())
	assert.Equal(t, StateStopped, c.State())
	assert.False(t, fake.Running())
	added, updated, removed := fake.Subscribers()
	assert.Zero(t, added+updated+removed)

	// Idempotent
	assert.NoError(t, c.Stop())
	_, _, stops := fake.Counts()
	assert.Equal(t, 1, stops)

	// Events after stop have no effect
	fake.Added(uuid.New(), "late")
	assert.Empty(t, disp.Shown())
	assert.Empty(t, c.Registry().Snapshot())

	// No resumption
	assert.ErrorIs(t, wait(t, c.Start(context.Background())), ErrInvalidState)
}

func TestStopUninitialized(t *testing.T) {
	fake := sensortest.New()
	c := NewController(fake, registry.NewManager(), &recordingDisplay{}, nil)

	assert.NoError(t, c.Stop())
	assert.Equal(t, StateUninitialized, c.State())
	_, _, stops := fake.Counts()
	assert.Equal(t, 0, stops)
}

func TestStopConcurrentWithEvents(t *testing.T) {
	c, fake, _ := newRunning(t)
	reg := c.Registry()

	var wg sync.WaitGroup
	stopEmitting := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stopEmitting:
					return
				default:
				}
				id := uuid.New()
				fake.Added(id, "x")
				fake.Updated(id)
				fake.Removed(id)
				fake.Added(uuid.New(), "y")
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Stop())

	// Once Stop returns the registry is frozen
	frozen := reg.Stats()
	time.Sleep(20 * time.Millisecond)
	close(stopEmitting)
	wg.Wait()

	assert.Equal(t, frozen, reg.Stats())
}

func TestControllerMetrics(t *testing.T) {
	metrics := monitoring.NewMetrics()
	fake := sensortest.New()
	reg := registry.NewManager().WithMetrics(metrics)
	c := NewController(fake, reg, &recordingDisplay{}, nil).WithMetrics(metrics)
	assert.Equal(t, float64(StateUninitialized), testutil.ToFloat64(metrics.SessionState))

	require.NoError(t, wait(t, c.Start(context.Background())))
	assert.Equal(t, float64(StateRunning), testutil.ToFloat64(metrics.SessionState))

	id := uuid.New()
	fake.Added(id, "a")
	fake.Added(id, "a")
	fake.Added(uuid.New(), "")
	fake.Updated(id)

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.MarkerEvents.WithLabelValues("added")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MarkerEvents.WithLabelValues("updated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MarkersDisplayed))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.InvalidContent))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.MarkersTracked))

	require.NoError(t, c.Stop())
	assert.Equal(t, float64(StateStopped), testutil.ToFloat64(metrics.SessionState))
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state    State
		want     string
		terminal bool
	}{
		{StateUninitialized, "uninitialized", false},
		{StateRequesting, "requesting", false},
		{StateRunning, "running", false},
		{StateFailed, "failed", true},
		{StateStopped, "stopped", true},
		{State(42), "unknown", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
		assert.Equal(t, tt.terminal, tt.state.Terminal())
	}
}

func TestControllerID(t *testing.T) {
	a := NewController(sensortest.New(), registry.NewManager(), &recordingDisplay{}, nil)
	b := NewController(sensortest.New(), registry.NewManager(), &recordingDisplay{}, nil)

	assert.True(t, strings.HasPrefix(a.ID().String(), "sess_"))
	assert.NotEqual(t, a.ID(), b.ID())
}
