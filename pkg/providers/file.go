package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/knadh/koanf/maps"
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"

	"github.com/flagkit/flagkit/pkg/codec"
)

// fileFormat is the on-disk document format, detected from the extension.
type fileFormat string

const (
	formatYAML fileFormat = "yaml"
	formatJSON fileFormat = "json"
)

// File is a writable provider backed by a local YAML or JSON document.
// The document's nesting mirrors the key hierarchy: the key
// "ui/show-social-login" addresses the "show-social-login" entry inside
// the "ui" mapping. A missing file behaves as an empty document and is
// created on the first write.
//
// File also implements the optional watch capability with an fsnotify
// subscription on the parent directory, debounced because editors tend to
// fire several events per save.
type File struct {
	path     string
	format   fileFormat
	name     string
	debounce time.Duration
	log      *slog.Logger

	mu sync.RWMutex
	k  *koanf.Koanf
}

// FileOption configures a File provider at construction.
type FileOption func(*File)

// WithFileName overrides the provider name.
func WithFileName(name string) FileOption {
	return func(f *File) {
		if name != "" {
			f.name = name
		}
	}
}

// WithFileLogger sets the logger for reload and watch diagnostics.
func WithFileLogger(log *slog.Logger) FileOption {
	return func(f *File) {
		if log != nil {
			f.log = log
		}
	}
}

// WithFileDebounce sets the watch debounce window. Changes within the
// window collapse into a single notification. Default is 100ms.
func WithFileDebounce(d time.Duration) FileOption {
	return func(f *File) {
		if d > 0 {
			f.debounce = d
		}
	}
}

// NewFile creates a file provider for the given path. The format is
// detected from the extension (.yaml, .yml, or .json).
func NewFile(path string, opts ...FileOption) (*File, error) {
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}
	f := &File{
		path:     path,
		format:   format,
		name:     "file",
		debounce: 100 * time.Millisecond,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

func detectFormat(path string) (fileFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (f *File) parser() koanf.Parser {
	if f.format == formatJSON {
		return kjson.Parser()
	}
	return kyaml.Parser()
}

// reload reads and parses the document, replacing the in-memory view. A
// missing file yields an empty view.
func (f *File) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrLoadFailed, err)
	}

	k := koanf.New("/")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), f.parser()); err != nil {
			return errors.Join(ErrLoadFailed, err)
		}
	}

	f.mu.Lock()
	f.k = k
	f.mu.Unlock()
	return nil
}

// Name identifies the provider.
func (f *File) Name() string { return f.name }

// Description is a short human-readable summary.
func (f *File) Description() string {
	return fmt.Sprintf("local %s document at %s", f.format, f.path)
}

// Writable reports true; writes are persisted back to the document.
func (f *File) Writable() bool { return true }

// Path returns the backing document path.
func (f *File) Path() string { return f.path }

// Lookup returns the value stored at the key's position in the document.
func (f *File) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.k.Exists(key) {
		return codec.Absent(), false
	}
	val := codec.FromAny(f.k.Get(key))
	if val.IsAbsent() {
		return codec.Absent(), false
	}
	return val, true
}

// Store updates the document entry for the key and persists the whole
// document back to disk; the absent variant removes the entry.
func (f *File) Store(ctx context.Context, key string, value codec.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	flat := f.k.All()
	deleteSubtree(flat, key)
	if !value.IsAbsent() {
		flat[key] = value.ToAny()
	}
	return f.persist(flat)
}

// Reset removes the document entry for the key. Resetting an unknown key
// is a no-op.
func (f *File) Reset(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	flat := f.k.All()
	if !deleteSubtree(flat, key) {
		return nil
	}
	return f.persist(flat)
}

// deleteSubtree removes the flat entry for key and every entry nested
// below it. Container values never appear under their own key in the flat
// view, only under their leaf paths, so the prefix sweep is what actually
// clears a stored map or array.
func deleteSubtree(flat map[string]any, key string) bool {
	removed := false
	if _, ok := flat[key]; ok {
		delete(flat, key)
		removed = true
	}
	prefix := key + "/"
	for existing := range flat {
		if strings.HasPrefix(existing, prefix) {
			delete(flat, existing)
			removed = true
		}
	}
	return removed
}

// persist marshals the unflattened document and rebuilds the in-memory
// view from the exact bytes written, so reads and the file can never
// drift. Callers hold the write lock.
func (f *File) persist(flat map[string]any) error {
	nested := maps.Unflatten(flat, "/")

	var data []byte
	var err error
	if f.format == formatJSON {
		data, err = json.MarshalIndent(nested, "", "  ")
	} else {
		data, err = yaml.Marshal(nested)
	}
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}

	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}

	k := koanf.New("/")
	if err := k.Load(rawbytes.Provider(data), f.parser()); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	f.k = k
	return nil
}

// snapshot captures the current flat view as codec values for change
// diffing.
func (f *File) snapshot() map[string]codec.Value {
	f.mu.RLock()
	defer f.mu.RUnlock()

	flat := f.k.All()
	out := make(map[string]codec.Value, len(flat))
	for k, v := range flat {
		out[k] = codec.FromAny(v)
	}
	return out
}

// Watch subscribes to document changes. The parent directory is watched
// rather than the file itself because editors often replace the file by
// rename, which would otherwise drop the watch. Events inside the
// debounce window collapse into one reload, and only keys whose values
// actually changed are reported.
func (f *File) Watch(ctx context.Context, keys []string) (<-chan []string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		closeErr := watcher.Close()
		return nil, errors.Join(err, closeErr)
	}

	var filter map[string]struct{}
	if keys != nil {
		filter = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			filter[k] = struct{}{}
		}
	}

	out := make(chan []string, 1)
	go f.watchLoop(ctx, watcher, out, filter)
	return out, nil
}

func (f *File) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- []string, filter map[string]struct{}) {
	defer close(out)
	defer watcher.Close() //nolint:errcheck

	filename := filepath.Base(f.path)
	last := f.snapshot()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(f.debounce)
				timerC = timer.C
			} else {
				timer.Reset(f.debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			if err := f.reload(); err != nil {
				f.log.WarnContext(ctx, "flag file reload failed", "path", f.path, "error", err)
				continue
			}
			current := f.snapshot()
			changed := diffSnapshots(last, current, filter)
			last = current
			if len(changed) == 0 {
				continue
			}
			select {
			case out <- changed:
			case <-ctx.Done():
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.log.WarnContext(ctx, "flag file watch error", "path", f.path, "error", err)
		}
	}
}

func diffSnapshots(before, after map[string]codec.Value, filter map[string]struct{}) []string {
	var changed []string
	seen := make(map[string]struct{}, len(before))
	for key, old := range before {
		seen[key] = struct{}{}
		if current, ok := after[key]; !ok || !old.Equal(current) {
			changed = append(changed, key)
		}
	}
	for key := range after {
		if _, ok := seen[key]; !ok {
			changed = append(changed, key)
		}
	}
	if filter == nil {
		return changed
	}
	filtered := changed[:0]
	for _, key := range changed {
		if _, ok := filter[key]; ok {
			filtered = append(filtered, key)
		}
	}
	return filtered
}
