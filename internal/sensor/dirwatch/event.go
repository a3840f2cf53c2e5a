package dirwatch

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// Event kinds
const (
	KindAdded   = "added"
	KindUpdated = "updated"
	KindRemoved = "removed"
)

var (
	errUnknownKind    = errors.New("unknown event type")
	errUnsupportedExt = errors.New("unsupported event file extension")
	// errIncomplete marks a file that does not parse yet. It may still be
	// mid-write, so it is kept for the next write event.
	errIncomplete = errors.New("incomplete event file")
)

// Event is the payload of an event file
type Event struct {
	Type    string `json:"type" yaml:"type" toml:"type"`
	ID      string `json:"id" yaml:"id" toml:"id"`
	Content string `json:"content,omitempty" yaml:"content,omitempty" toml:"content,omitempty"`
}

// supported reports whether a file name is an event file
func supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml", ".toml":
		return true
	default:
		return false
	}
}

// decodeEvent parses an event file by extension and validates it
func decodeEvent(name string, data []byte) (Event, uuid.UUID, error) {
	var ev Event
	var err error

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = sonic.Unmarshal(data, &ev)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ev)
	case ".toml":
		err = toml.Unmarshal(data, &ev)
	default:
		return Event{}, uuid.Nil, fmt.Errorf("%w: %s", errUnsupportedExt, filepath.Base(name))
	}
	if err != nil {
		return Event{}, uuid.Nil, fmt.Errorf("%w: decode %s: %w", errIncomplete, filepath.Base(name), err)
	}

	switch ev.Type {
	case KindAdded, KindUpdated, KindRemoved:
	default:
		return Event{}, uuid.Nil, fmt.Errorf("%w: %q", errUnknownKind, ev.Type)
	}

	id, err := uuid.Parse(ev.ID)
	if err != nil {
		return Event{}, uuid.Nil, fmt.Errorf("invalid marker id %q: %w", ev.ID, err)
	}

	return ev, id, nil
}
