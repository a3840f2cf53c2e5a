// Package sensor defines the boundary to the external marker detection
// subsystem.
//
// A Sensor must be granted access before it can start. Once started it
// emits three event kinds from its own goroutines:
//   - Added: a marker was detected (may be redelivered for a known id)
//   - Updated: a tracked marker was seen again
//   - Removed: a marker is no longer detected
//
// Feed is the handler fan-out shared by implementations. Subpackages:
//   - dirwatch: watches a drop directory for event files
//   - sensortest: scriptable sensor for tests
package sensor
