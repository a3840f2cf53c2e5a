package sensor

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrAccessDenied is carried by a Denied access result when the sensor has no finer cause
	ErrAccessDenied = errors.New("sensor access denied")
	// ErrNotRunning is returned when stopping a sensor that was never started
	ErrNotRunning = errors.New("sensor is not running")
	// ErrAlreadyRunning is returned when starting a running sensor
	ErrAlreadyRunning = errors.New("sensor is already running")
)

// AccessStatus is the outcome of an access request
type AccessStatus int

const (
	AccessDenied AccessStatus = iota
	AccessGranted
)

// String returns the string representation of the status
func (s AccessStatus) String() string {
	switch s {
	case AccessGranted:
		return "granted"
	case AccessDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// AccessResult is delivered once on the channel returned by RequestAccess
type AccessResult struct {
	Status AccessStatus
	Err    error // Cause when Status is AccessDenied
}

// Granted reports whether access was granted
func (r AccessResult) Granted() bool {
	return r.Status == AccessGranted
}

// AddedEvent is emitted the first time the sensor detects a marker.
// Sensors may redeliver it for a marker they already reported.
type AddedEvent struct {
	ID      uuid.UUID
	Content string
}

// Sensor is the external marker detection subsystem
type Sensor interface {
	// RequestAccess asks for permission to track. The returned channel
	// receives exactly one result and is then closed.
	RequestAccess(ctx context.Context) <-chan AccessResult
	// Start may deliver events on the caller's goroutine before returning.
	Start() error
	Stop() error

	OnAdded(handler func(AddedEvent)) Subscription
	OnUpdated(handler func(id uuid.UUID)) Subscription
	OnRemoved(handler func(id uuid.UUID)) Subscription
}

// Subscription detaches a handler. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Resolved returns an already completed access result channel
func Resolved(result AccessResult) <-chan AccessResult {
	ch := make(chan AccessResult, 1)
	ch <- result
	close(ch)
	return ch
}
