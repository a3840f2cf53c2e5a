// Package id generates the sortable identifiers used for tracing and
// session correlation in logs.
//
// Marker identities come from the sensor as UUIDs and are never generated
// here. This package only covers identifiers the service mints itself:
//   - TraceID: one per traced request or operation
//   - SpanID: one per span within a trace
//   - SessionID: one per controller run, attached to its log lines
//
// IDs are ULIDs with a type prefix, so they sort by creation time and are
// readable in logs (trace_01H..., span_01H..., sess_01H...).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// TraceID identifies a trace
type TraceID string

// SpanID identifies a span within a trace
type SpanID string

// SessionID identifies a controller run
type SessionID string

const (
	TracePrefix   = "trace"
	SpanPrefix    = "span"
	SessionPrefix = "sess"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Used by tests that need deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewTraceID generates a new trace ID
func NewTraceID() TraceID {
	return TraceID(Default().GenerateWithPrefix(TracePrefix))
}

// NewSpanID generates a new span ID
func NewSpanID() SpanID {
	return SpanID(Default().GenerateWithPrefix(SpanPrefix))
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

func (id TraceID) String() string   { return string(id) }
func (id SpanID) String() string    { return string(id) }
func (id SessionID) String() string { return string(id) }

// IsValid reports whether s is a ULID, with or without a type prefix
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse parses a ULID string, stripping any type prefix
func Parse(s string) (ulid.ULID, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	return ulid.Parse(s)
}

// IsValidWithPrefix reports whether s is a ULID carrying exactly the given type prefix
func IsValidWithPrefix(s, prefix string) bool {
	return strings.HasPrefix(s, prefix+"_") && strings.Count(s, "_") == 1 && IsValid(s)
}
