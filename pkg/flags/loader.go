package flags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/flagkit/flagkit/pkg/keypath"
)

// Loader binds one root collection to an ordered provider chain and a
// root key configuration. Construction performs the wiring pass: a single
// top-down traversal that hands every node its loader reference and
// accumulated path segments, then validates that every flag composes a
// non-empty, unique key. The pass runs exactly once; key composition
// itself is recomputed from the cached segments on each access.
//
// The provider list is set at construction and treated as immutable
// afterwards.
type Loader struct {
	root      *Collection
	providers []Provider
	config    keypath.Config
	meta      Metadata
	log       *slog.Logger
}

// LoaderOption configures a Loader at construction.
type LoaderOption func(*Loader)

// WithProviders sets the ordered provider chain consulted on reads.
// Earlier providers win: resolution short-circuits on the first hit.
func WithProviders(providers ...Provider) LoaderOption {
	return func(l *Loader) {
		for _, p := range providers {
			if p != nil {
				l.providers = append(l.providers, p)
			}
		}
	}
}

// WithKeyConfig sets the root key configuration: global prefix, default
// name transform, and separator.
func WithKeyConfig(cfg keypath.Config) LoaderOption {
	return func(l *Loader) { l.config = cfg }
}

// WithLoaderMeta attaches descriptive metadata to the loader.
func WithLoaderMeta(m Metadata) LoaderOption {
	return func(l *Loader) { l.meta = m }
}

// WithLogger sets the logger used for wiring and provider failure logs.
func WithLogger(log *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader wires a collection tree to its providers. It fails when the
// tree is already wired, when a node has no name, when a flag's key
// composes to an empty string, or when two flags compose to the same key;
// all of these are configuration bugs that must surface at startup rather
// than corrupt stored data under an ambiguous key.
func NewLoader(root *Collection, opts ...LoaderOption) (*Loader, error) {
	if root == nil {
		return nil, ErrNilCollection
	}
	l := &Loader{
		root: root,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := root.wireAsRoot(l); err != nil {
		return nil, err
	}

	handles := root.Flags()
	seen := make(map[string]string, len(handles))
	for _, h := range handles {
		key := h.Key()
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %q declared by both %q and %q",
				ErrDuplicateKey, key, prev, h.Name())
		}
		seen[key] = h.Name()
	}

	l.log.Debug("flag group wired",
		"root", root.Name(), "flags", len(handles), "providers", len(l.providers))
	return l, nil
}

// MustNewLoader is like NewLoader but panics on error. Wiring failures are
// programmer errors discovered at startup, so fail-fast construction is
// usually what callers want.
func MustNewLoader(root *Collection, opts ...LoaderOption) *Loader {
	l, err := NewLoader(root, opts...)
	if err != nil {
		panic(err)
	}
	return l
}

// Root returns the loader's root collection.
func (l *Loader) Root() *Collection { return l.root }

// Meta returns the loader's descriptive metadata.
func (l *Loader) Meta() Metadata { return l.meta }

// Config returns the root key configuration.
func (l *Loader) Config() keypath.Config { return l.config }

// Providers returns the ordered provider chain.
func (l *Loader) Providers() []Provider {
	return slices.Clone(l.providers)
}

// Provider returns the chain provider with the given name.
func (l *Loader) Provider(name string) (Provider, bool) {
	for _, p := range l.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Flags returns every flag in the loader's tree in depth-first pre-order.
func (l *Loader) Flags() []Handle {
	return l.root.Flags()
}

// Watch fans every watch-capable provider's change stream into a single
// channel of changed key sets. The channel closes when the context is
// cancelled and every upstream subscription has drained. Providers whose
// subscription fails are skipped with a warning; if no subscription
// succeeds, the aggregated failures are returned alongside ErrNotWatchable.
func (l *Loader) Watch(ctx context.Context, keys []string) (<-chan []string, error) {
	var sources []<-chan []string
	var errs []error
	for _, p := range l.providers {
		w, ok := p.(Watcher)
		if !ok {
			continue
		}
		ch, err := w.Watch(ctx, keys)
		if err != nil {
			errs = append(errs, fmt.Errorf("provider %q: %w", p.Name(), err))
			l.log.WarnContext(ctx, "change subscription failed",
				"provider", p.Name(), "error", err)
			continue
		}
		sources = append(sources, ch)
	}
	if len(sources) == 0 {
		return nil, errors.Join(ErrNotWatchable, errors.Join(errs...))
	}

	out := make(chan []string)
	var wg sync.WaitGroup
	for _, ch := range sources {
		wg.Add(1)
		go func(ch <-chan []string) {
			defer wg.Done()
			for changed := range ch {
				select {
				case out <- changed:
				case <-ctx.Done():
					return
				}
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}
