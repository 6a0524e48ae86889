package prefstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const filePerm = 0o600

// FileOption customizes the file driver.
type FileOption func(*File)

// WithFileLogger sets the logger used for watch-loop diagnostics.
func WithFileLogger(logger *zap.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// File implements Driver on a single JSON file. The file is read once at
// open into an in-memory snapshot and written through on every mutation via
// a temp file and rename. While listeners are registered, the file is also
// watched with fsnotify so edits made outside the process surface as change
// notifications; the driver's own writes match the snapshot and produce no
// echo.
type File struct {
	path   string
	logger *zap.Logger

	mu        sync.Mutex
	data      map[string][]byte
	listeners map[int]func(key string)
	next      int
	fsw       *fsnotify.Watcher
}

// NewFile creates a file-backed Driver at dir/<name>.json, loading any
// existing contents.
func NewFile(dir, name string, opts ...FileOption) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	f := &File{
		path:      filepath.Join(dir, name+".json"),
		logger:    zap.NewNop(),
		listeners: make(map[int]func(key string)),
	}
	for _, opt := range opts {
		opt(f)
	}

	data, err := readSnapshot(f.path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.path, err)
	}
	f.data = data
	return f, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (f *File) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	old, had := f.data[key]
	f.data[key] = clone(value)
	if err := f.persist(); err != nil {
		if had {
			f.data[key] = old
		} else {
			delete(f.data, key)
		}
		f.mu.Unlock()
		return err
	}
	fns := f.snapshotListeners()
	f.mu.Unlock()

	notify(fns, key)
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	old, had := f.data[key]
	if !had {
		f.mu.Unlock()
		return nil
	}
	delete(f.data, key)
	if err := f.persist(); err != nil {
		f.data[key] = old
		f.mu.Unlock()
		return err
	}
	fns := f.snapshotListeners()
	f.mu.Unlock()

	notify(fns, key)
	return nil
}

func (f *File) Contains(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.data[key]
	return ok, nil
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	keys := make([]string, 0, len(f.data))
	for key := range f.data {
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	old := f.data
	removed := make([]string, 0, len(old))
	for key := range old {
		removed = append(removed, key)
	}
	f.data = make(map[string][]byte)
	if err := f.persist(); err != nil {
		f.data = old
		f.mu.Unlock()
		return err
	}
	fns := f.snapshotListeners()
	f.mu.Unlock()

	for _, key := range removed {
		notify(fns, key)
	}
	return nil
}

func (f *File) Listen(fn func(key string)) (stop func(), err error) {
	f.mu.Lock()
	if len(f.listeners) == 0 {
		if err := f.startWatcher(); err != nil {
			f.mu.Unlock()
			return nil, err
		}
	}
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			var fsw *fsnotify.Watcher
			if len(f.listeners) == 0 {
				fsw = f.fsw
				f.fsw = nil
			}
			f.mu.Unlock()
			if fsw != nil {
				_ = fsw.Close()
			}
		})
	}, nil
}

// startWatcher must be called with f.mu held. The parent directory is
// watched rather than the file itself so atomic renames keep being seen.
func (f *File) startWatcher() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		_ = w.Close()
		return err
	}
	f.fsw = w
	go f.watch(w)
	return nil
}

func (f *File) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Name != f.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			f.resync()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Warn("file watch error", zap.String("path", f.path), zap.Error(err))
		}
	}
}

// resync re-reads the file and raises a notification for every key whose
// value differs from the snapshot. After the driver's own writes the
// snapshot already matches, so nothing fires.
func (f *File) resync() {
	f.mu.Lock()
	next, err := readSnapshot(f.path)
	if err != nil {
		f.mu.Unlock()
		f.logger.Warn("file resync failed", zap.String("path", f.path), zap.Error(err))
		return
	}
	changed := diffKeys(f.data, next)
	f.data = next
	fns := f.snapshotListeners()
	f.mu.Unlock()

	for _, key := range changed {
		notify(fns, key)
	}
}

// snapshotListeners must be called with f.mu held.
func (f *File) snapshotListeners() []func(string) {
	fns := make([]func(string), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	return fns
}

// persist must be called with f.mu held. Writes go to a temp file in the
// same directory, then replace the target atomically.
func (f *File) persist() error {
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(filePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

// readSnapshot reads the whole file into a map; a missing file is an empty
// store, not an error.
func readSnapshot(path string) (map[string][]byte, error) {
	data := make(map[string][]byte)

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// diffKeys returns the keys whose value is added, removed or changed
// between two snapshots.
func diffKeys(prev, next map[string][]byte) []string {
	var changed []string
	for key, v := range next {
		if old, ok := prev[key]; !ok || !bytes.Equal(old, v) {
			changed = append(changed, key)
		}
	}
	for key := range prev {
		if _, ok := next[key]; !ok {
			changed = append(changed, key)
		}
	}
	return changed
}

var _ Driver = (*File)(nil)
