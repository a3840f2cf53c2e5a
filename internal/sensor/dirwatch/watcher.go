package dirwatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/GriffinCanCode/MarkerTrack/backend/internal/sensor"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrAccessNotGranted is returned by Start before a successful RequestAccess
var ErrAccessNotGranted = errors.New("dirwatch: access not granted")

// Watcher is a sensor fed by event files dropped into a directory
type Watcher struct {
	sensor.Feed

	dir     string
	pattern string
	consume bool
	logger  *zap.Logger

	mu      sync.Mutex
	granted bool
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// Option configures a Watcher
type Option func(*Watcher)

// WithLogger sets the watcher logger
func WithLogger(logger *zap.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithConsume controls whether event files are deleted once read
func WithConsume(consume bool) Option {
	return func(w *Watcher) {
		w.consume = consume
	}
}

// WithPattern restricts which file names are read, e.g. "scanner-*.json".
// Names must also carry a supported extension.
func WithPattern(pattern string) Option {
	return func(w *Watcher) {
		w.pattern = pattern
	}
}

// New creates a watcher for dir. Files are consumed by default.
func New(dir string, opts ...Option) *Watcher {
	w := &Watcher{
		dir:     dir,
		pattern: "*",
		consume: true,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// RequestAccess checks that the drop directory exists and is readable
func (w *Watcher) RequestAccess(ctx context.Context) <-chan sensor.AccessResult {
	ch := make(chan sensor.AccessResult, 1)
	go func() {
		defer close(ch)
		result := w.checkAccess(ctx)

		w.mu.Lock()
		w.granted = result.Granted()
		w.mu.Unlock()

		ch <- result
	}()
	return ch
}

func (w *Watcher) checkAccess(ctx context.Context) sensor.AccessResult {
	if err := ctx.Err(); err != nil {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: err}
	}
	if !doublestar.ValidatePattern(w.pattern) {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: fmt.Errorf("%w: invalid file pattern %q", sensor.ErrAccessDenied, w.pattern)}
	}

	info, err := os.Stat(w.dir)
	if err != nil {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: fmt.Errorf("%w: %v", sensor.ErrAccessDenied, err)}
	}
	if !info.IsDir() {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: fmt.Errorf("%w: %s is not a directory", sensor.ErrAccessDenied, w.dir)}
	}

	f, err := os.Open(w.dir)
	if err != nil {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: fmt.Errorf("%w: %v", sensor.ErrAccessDenied, err)}
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return sensor.AccessResult{Status: sensor.AccessDenied, Err: fmt.Errorf("%w: %v", sensor.ErrAccessDenied, err)}
	}

	return sensor.AccessResult{Status: sensor.AccessGranted}
}

// Start begins watching. Files already present are delivered first, in
// name order, from the watch goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.granted {
		return ErrAccessNotGranted
	}
	if w.watcher != nil {
		return sensor.ErrAlreadyRunning
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("dirwatch: create watcher: %w", err)
	}
	// Register before draining so nothing created in between is missed
	if err := fw.Add(w.dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("dirwatch: watch %s: %w", w.dir, err)
	}

	w.watcher = fw
	w.done = make(chan struct{})
	go w.loop(fw, w.done)

	w.logger.Info("watching directory for marker events", zap.String("dir", w.dir))
	return nil
}

// Stop closes the watcher and waits for the watch goroutine to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	fw, done := w.watcher, w.done
	w.watcher, w.done = nil, nil
	w.mu.Unlock()

	if fw == nil {
		return sensor.ErrNotRunning
	}

	err := fw.Close()
	<-done
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	w.drainExisting()

	for {
		select {
		case evt, ok := <-fw.Events:
			if !ok {
				return
			}
			if evt.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.accepts(evt.Name) {
				w.processFile(evt.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) drainExisting() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("failed to list event directory", zap.String("dir", w.dir), zap.Error(err))
		return
	}
	for _, entry := range entries {
		if !entry.IsDir() && w.accepts(entry.Name()) {
			w.processFile(filepath.Join(w.dir, entry.Name()))
		}
	}
}

// accepts reports whether path names an event file this watcher reads
func (w *Watcher) accepts(path string) bool {
	name := filepath.Base(path)
	if !supported(name) {
		return false
	}
	ok, err := doublestar.Match(w.pattern, name)
	return err == nil && ok
}

func (w *Watcher) processFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return // already consumed
	}
	if len(data) == 0 {
		return // created but not yet written; the write event follows
	}
	name := filepath.Base(path)
	ev, id, err := decodeEvent(path, data)
	if errors.Is(err, errIncomplete) {
		w.logger.Debug("event file not parseable yet", zap.String("file", name), zap.Error(err))
		return
	}
	if w.consume {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			w.logger.Warn("failed to remove event file", zap.String("file", name), zap.Error(rmErr))
		}
	}
	if err != nil {
		w.logger.Warn("invalid event file", zap.String("file", name), zap.Error(err))
		return
	}

	switch ev.Type {
	case KindAdded:
		w.EmitAdded(sensor.AddedEvent{ID: id, Content: ev.Content})
	case KindUpdated:
		w.EmitUpdated(id)
	case KindRemoved:
		w.EmitRemoved(id)
	}
}

var _ sensor.Sensor = (*Watcher)(nil)
