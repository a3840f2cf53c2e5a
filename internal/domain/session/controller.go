package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/display"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/domain/registry"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor"
	"github.com/GriffinCanCode/MarkerTrack/backend/internal/shared/id"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrPermissionDenied is returned when the sensor refuses access
	ErrPermissionDenied = errors.New("sensor permission denied")
	// ErrInvalidState is returned when Start is called more than once
	ErrInvalidState = errors.New("invalid session state")
	// ErrStopped is returned when Stop wins the race against a pending access request
	ErrStopped = errors.New("session stopped before tracking started")
)

// Controller bridges sensor events to the registry and the display.
// A controller runs at most once; construct a new one to track again.
type Controller struct {
	id       id.SessionID
	sensor   sensor.Sensor
	registry *registry.Manager
	display  display.Display
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	now      func() time.Time

	// Handlers hold mu for reading; Stop takes it for writing, so once
	// Stop returns no handler is mid-mutation and later ones see Stopped.
	mu    sync.RWMutex
	state State                 // Protected by mu
	subs  []sensor.Subscription // Protected by mu
	err   error                 // Protected by mu
	// starting is set while sensor.Start runs outside mu
	starting bool // Protected by mu
}

// NewController creates a controller in the Uninitialized state
func NewController(s sensor.Sensor, reg *registry.Manager, d display.Display, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	sid := id.NewSessionID()
	return &Controller{
		id:       sid,
		sensor:   s,
		registry: reg,
		display:  d,
		logger:   logger.With(zap.Stringer("session_id", sid)),
		now:      time.Now,
		state:    StateUninitialized,
	}
}

// WithMetrics adds metrics tracking to the controller
func (c *Controller) WithMetrics(metrics *monitoring.Metrics) *Controller {
	c.metrics = metrics
	if metrics != nil {
		metrics.SetSessionState(int(StateUninitialized))
	}
	return c
}

// Start requests sensor access without blocking. The returned channel
// yields nil once tracking is running, or the failure, then closes.
func (c *Controller) Start(ctx context.Context) <-chan error {
	result := make(chan error, 1)

	c.mu.Lock()
	if c.state != StateUninitialized {
		state := c.state
		c.mu.Unlock()
		result <- fmt.Errorf("%w: cannot start from %s", ErrInvalidState, state)
		close(result)
		return result
	}
	c.setState(StateRequesting)
	c.mu.Unlock()

	access := c.sensor.RequestAccess(ctx)
	go func() {
		defer close(result)

		var res sensor.AccessResult
		select {
		case r, ok := <-access:
			if !ok {
				r = sensor.AccessResult{Status: sensor.AccessDenied, Err: errors.New("access request abandoned")}
			}
			res = r
		case <-ctx.Done():
			res = sensor.AccessResult{Status: sensor.AccessDenied, Err: ctx.Err()}
		}

		result <- c.complete(res)
	}()

	return result
}

// complete is the continuation of the access request. The sensor is started
// without mu held, since a sensor may deliver events from inside Start.
func (c *Controller) complete(res sensor.AccessResult) error {
	c.mu.Lock()
	if c.state != StateRequesting {
		// Stop arrived first; the grant is discarded
		state := c.state
		c.mu.Unlock()
		c.logger.Info("access result discarded", zap.Stringer("state", state), zap.Stringer("access", res.Status))
		return ErrStopped
	}

	if !res.Granted() {
		defer c.mu.Unlock()
		cause := res.Err
		if cause == nil {
			cause = sensor.ErrAccessDenied
		}
		return c.fail(fmt.Errorf("%w: %w", ErrPermissionDenied, cause))
	}

	c.subs = []sensor.Subscription{
		c.sensor.OnAdded(c.handleAdded),
		c.sensor.OnUpdated(c.handleUpdated),
		c.sensor.OnRemoved(c.handleRemoved),
	}
	c.setState(StateRunning)
	c.starting = true
	c.mu.Unlock()

	startErr := c.sensor.Start()

	c.mu.Lock()
	c.starting = false
	if c.state != StateRunning {
		// Stop ran while the sensor was starting and left stopping it to us
		c.mu.Unlock()
		if startErr == nil {
			if err := c.sensor.Stop(); err != nil {
				c.logger.Warn("sensor stop failed", zap.Error(err))
			}
		}
		return ErrStopped
	}
	if startErr != nil {
		defer c.mu.Unlock()
		c.unsubscribe()
		return c.fail(fmt.Errorf("failed to start sensor: %w", startErr))
	}
	c.mu.Unlock()

	c.logger.Info("marker tracking started")
	return nil
}

// fail records a terminal failure (must hold lock)
func (c *Controller) fail(err error) error {
	c.err = err
	c.setState(StateFailed)
	c.logger.Error("failed to initialize marker tracking", zap.Error(err))
	return err
}

// Stop detaches from the sensor and stops it. Safe to call from any state
// and concurrently with sensor callbacks.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.state {
	case StateRunning:
		c.unsubscribe()
		c.setState(StateStopped)
		if c.starting {
			c.mu.Unlock()
			c.logger.Info("marker tracking stopped while the sensor was starting")
			return nil
		}
	case StateRequesting:
		c.setState(StateStopped)
		c.mu.Unlock()
		c.logger.Info("marker tracking stopped before access was resolved")
		return nil
	default:
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	// Outside the lock: a sensor may wait on its delivery goroutine, which
	// may itself be waiting on mu inside a handler.
	if err := c.sensor.Stop(); err != nil {
		c.logger.Warn("sensor stop failed", zap.Error(err))
		return fmt.Errorf("failed to stop sensor: %w", err)
	}

	c.logger.Info("marker tracking stopped")
	return nil
}

// ID returns the identifier attached to this controller's log lines
func (c *Controller) ID() id.SessionID {
	return c.id
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Err returns the failure that moved the controller to Failed, if any
func (c *Controller) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Registry returns the registry the controller feeds
func (c *Controller) Registry() *registry.Manager {
	return c.registry
}

func (c *Controller) handleAdded(ev sensor.AddedEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateRunning {
		return
	}
	c.recordEvent("added")

	decision, err := c.registry.UpsertAdded(ev.ID, ev.Content, c.now())
	if err != nil {
		if c.metrics != nil {
			c.metrics.IncInvalidContent()
		}
		c.logger.Warn("dropping added event", zap.Stringer("marker_id", ev.ID), zap.Error(err))
		return
	}
	if !decision.Show {
		c.logger.Debug("marker re-added", zap.Stringer("marker_id", ev.ID))
		return
	}

	c.logger.Info("marker detected", zap.Stringer("marker_id", ev.ID))
	if c.metrics != nil {
		c.metrics.IncDisplayed()
	}
	c.display.Show(decision.Content)
}

func (c *Controller) handleUpdated(id uuid.UUID) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateRunning {
		return
	}
	c.recordEvent("updated")
	c.registry.Touch(id, c.now())
}

func (c *Controller) handleRemoved(id uuid.UUID) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StateRunning {
		return
	}
	c.recordEvent("removed")
	if c.registry.Remove(id) {
		c.logger.Debug("marker removed", zap.Stringer("marker_id", id))
	}
}

// unsubscribe detaches all handlers (must hold lock)
func (c *Controller) unsubscribe() {
	for _, sub := range c.subs {
		sub.Unsubscribe()
	}
	c.subs = nil
}

// setState transitions and publishes the state (must hold lock)
func (c *Controller) setState(state State) {
	c.state = state
	if c.metrics != nil {
		c.metrics.SetSessionState(int(state))
	}
}

func (c *Controller) recordEvent(kind string) {
	if c.metrics != nil {
		c.metrics.RecordMarkerEvent(kind)
	}
}
