package dirwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// Writer drops event files into a watched directory. Files are written to a
// temporary name and renamed so the watcher never reads a partial file.
type Writer struct {
	dir string
	seq atomic.Uint64
}

// NewWriter creates a writer for dir
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Added writes an added event
func (w *Writer) Added(id uuid.UUID, content string) error {
	return w.write(Event{Type: KindAdded, ID: id.String(), Content: content})
}

// Updated writes an updated event
func (w *Writer) Updated(id uuid.UUID) error {
	return w.write(Event{Type: KindUpdated, ID: id.String()})
}

// Removed writes a removed event
func (w *Writer) Removed(id uuid.UUID) error {
	return w.write(Event{Type: KindRemoved, ID: id.String()})
}

func (w *Writer) write(ev Event) error {
	if err := os.MkdirAll(w.dir, 0o700); err != nil {
		return fmt.Errorf("dirwatch: mkdir %s: %w", w.dir, err)
	}

	data, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("dirwatch: encode event: %w", err)
	}

	// Zero-padded so lexical order matches write order during drain
	name := fmt.Sprintf("%020d-%06d-%s-%s", time.Now().UnixNano(), w.seq.Add(1)%1_000_000, ev.Type, ev.ID)
	tmp := filepath.Join(w.dir, name+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("dirwatch: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filepath.Join(w.dir, name+".json")); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("dirwatch: publish %s: %w", name, err)
	}
	return nil
}
