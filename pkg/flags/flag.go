package flags

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/flagkit/flagkit/pkg/codec"
	"github.com/flagkit/flagkit/pkg/keypath"
)

// Metadata describes a flag or collection for tooling and UI consumers.
// It has no effect on resolution.
type Metadata struct {
	DisplayName string
	Description string
	Locked      bool
	Internal    bool
	Order       int
}

// Resolution is the outcome of resolving a flag: the effective value and
// the provider that produced it. Source is nil when the value came from
// the computed override or the in-memory default.
type Resolution[V any] struct {
	Value  V
	Source Provider
}

// Node is a member of a collection tree: either a Flag or a nested
// Collection. The interface is closed; both implementations live in this
// package.
type Node interface {
	// Name returns the node's declared, unqualified name.
	Name() string

	// Meta returns the node's descriptive metadata.
	Meta() Metadata

	wire(l *Loader, ancestors []keypath.Segment) error
	collectFlags(into *[]Handle)
}

// Handle is the type-erased view of a Flag used for enumeration across
// value types.
type Handle interface {
	Node

	// ID returns the flag's opaque identity.
	ID() uuid.UUID

	// Key returns the flag's fully-qualified storage key, or an empty
	// string before wiring.
	Key() string

	// Reset clears stored overrides on every writable provider.
	Reset(ctx context.Context) error
}

// Flag is a single declared feature value of type V. It carries a default,
// an optional computed override consulted before any provider, and an
// optional list of provider names excluded from reads. After wiring it
// holds a non-owning reference to its loader and the path segments
// accumulated from its ancestors.
//
// The default cell is the only mutable state; concurrent SetDefault calls
// race with last-write-wins semantics, everything else is fixed at
// construction or at wiring.
type Flag[V any] struct {
	id       uuid.UUID
	name     string
	meta     Metadata
	codec    codec.Codec[V]
	fixedKey string
	compute  func() (V, bool)
	exclude  map[string]struct{}

	mu  sync.RWMutex
	def V

	loader   *Loader
	segments []keypath.Segment
}

// FlagOption configures a Flag at construction.
type FlagOption[V any] func(*Flag[V])

// WithMeta attaches descriptive metadata to the flag.
func WithMeta[V any](m Metadata) FlagOption[V] {
	return func(f *Flag[V]) { f.meta = m }
}

// WithCodec overrides the codec inferred by codec.Auto. Required for named
// types whose underlying type is a builtin, since type inference cannot
// see through them.
func WithCodec[V any](c codec.Codec[V]) FlagOption[V] {
	return func(f *Flag[V]) {
		if c != nil {
			f.codec = c
		}
	}
}

// WithFixedKey pins the flag's own path segment to a literal wire key.
// The fixed key suppresses the inherited name transform for this segment
// only; ancestor segments and a configured global prefix still apply.
func WithFixedKey[V any](key string) FlagOption[V] {
	return func(f *Flag[V]) { f.fixedKey = key }
}

// WithComputed installs a computed override consulted before any provider.
// When the function reports ok, its value is returned immediately and no
// provider is queried; when it reports false, resolution proceeds down the
// provider chain.
func WithComputed[V any](fn func() (V, bool)) FlagOption[V] {
	return func(f *Flag[V]) { f.compute = fn }
}

// WithoutProviders excludes the named providers from this flag's reads.
// Exclusion gates reads only: writes and resets still reach every
// provider, and an explicit ResolveFrom request bypasses the list.
func WithoutProviders[V any](names ...string) FlagOption[V] {
	return func(f *Flag[V]) {
		if f.exclude == nil {
			f.exclude = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			f.exclude[n] = struct{}{}
		}
	}
}

// New declares a flag with the given unqualified name and default value.
// The codec is inferred from V; structured types fall back to the generic
// JSON codec.
func New[V any](name string, def V, opts ...FlagOption[V]) *Flag[V] {
	f := &Flag[V]{
		id:    uuid.New(),
		name:  name,
		codec: codec.Auto[V](),
		def:   def,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ID returns the flag's opaque identity.
func (f *Flag[V]) ID() uuid.UUID { return f.id }

// Name returns the flag's declared, unqualified name.
func (f *Flag[V]) Name() string { return f.name }

// Meta returns the flag's descriptive metadata.
func (f *Flag[V]) Meta() Metadata { return f.meta }

// Default returns the current in-memory fallback value.
func (f *Flag[V]) Default() V {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.def
}

// SetDefault replaces the in-memory fallback value. No provider is
// touched; the new default takes effect on every subsequent resolution.
func (f *Flag[V]) SetDefault(v V) {
	f.mu.Lock()
	f.def = v
	f.mu.Unlock()
}

// Key composes the flag's fully-qualified storage key from the segment
// list accumulated at wiring. It returns an empty string for an unwired
// flag. The composition is recomputed on each call; segments are stable
// after wiring, so the result is safe to cache.
func (f *Flag[V]) Key() string {
	if f.loader == nil {
		return ""
	}
	key, err := keypath.Build(f.loader.config, f.segments)
	if err != nil {
		// Validated during wiring; an empty key cannot reach here.
		panic(err)
	}
	return key
}

func (f *Flag[V]) wire(l *Loader, ancestors []keypath.Segment) error {
	if f.loader != nil {
		return fmt.Errorf("%w: flag %q", ErrAlreadyWired, f.name)
	}
	if f.name == "" {
		return ErrEmptyName
	}
	own := keypath.Segment{Name: f.name, Strategy: keypath.Inherit()}
	if f.fixedKey != "" {
		own.Strategy = keypath.Custom(f.fixedKey)
	}
	segments := append(slices.Clone(ancestors), own)
	if _, err := keypath.Build(l.config, segments); err != nil {
		return fmt.Errorf("%w: flag %q", err, f.name)
	}
	f.loader = l
	f.segments = segments
	return nil
}

func (f *Flag[V]) collectFlags(into *[]Handle) {
	*into = append(*into, f)
}

// Resolve returns the flag's effective value.
//
// The computed override is consulted first and short-circuits the chain
// when it yields a value. An unwired flag resolves to its default. Wired
// flags walk the loader's provider list, minus any excluded providers, in
// order; the first provider whose stored value decodes for this flag's
// type wins and later providers are never consulted. A stored value of
// the wrong shape behaves exactly like a miss. When no provider produces
// a value, the default is returned with a nil source.
func (f *Flag[V]) Resolve(ctx context.Context) Resolution[V] {
	return f.resolve(ctx, f.readCandidates())
}

// ResolveFrom resolves against a single named provider, bypassing the
// flag's exclusion list: an explicit request overrides exclusion policy.
// An unknown name yields the default, same as an empty chain.
func (f *Flag[V]) ResolveFrom(ctx context.Context, providerName string) Resolution[V] {
	var candidates []Provider
	if f.loader != nil {
		if p, ok := f.loader.Provider(providerName); ok {
			candidates = []Provider{p}
		}
	}
	return f.resolve(ctx, candidates)
}

// Value is shorthand for Resolve(ctx).Value.
func (f *Flag[V]) Value(ctx context.Context) V {
	return f.Resolve(ctx).Value
}

func (f *Flag[V]) resolve(ctx context.Context, candidates []Provider) Resolution[V] {
	if f.compute != nil {
		if v, ok := f.compute(); ok {
			return Resolution[V]{Value: v}
		}
	}
	if f.loader == nil {
		return Resolution[V]{Value: f.Default()}
	}
	key := f.Key()
	for _, p := range candidates {
		raw, ok := p.Lookup(ctx, key)
		if !ok {
			continue
		}
		v, ok := f.codec.Decode(raw)
		if !ok {
			continue
		}
		return Resolution[V]{Value: v, Source: p}
	}
	return Resolution[V]{Value: f.Default()}
}

// readCandidates is the loader's ordered provider list filtered by the
// flag's exclusion set.
func (f *Flag[V]) readCandidates() []Provider {
	if f.loader == nil {
		return nil
	}
	all := f.loader.Providers()
	if len(f.exclude) == 0 {
		return all
	}
	candidates := make([]Provider, 0, len(all))
	for _, p := range all {
		if _, excluded := f.exclude[p.Name()]; excluded {
			continue
		}
		candidates = append(candidates, p)
	}
	return candidates
}

// Set fans the value out to a provider subset and returns the providers
// that accepted the write. With no names the target set is every provider
// the flag is otherwise allowed to read from; explicit names target
// exactly those providers, ignoring the exclusion list entirely. A
// provider that fails is excluded from the accepted list but does not
// abort the fan-out; per-provider failures are aggregated into the
// returned error.
func (f *Flag[V]) Set(ctx context.Context, value V, providerNames ...string) ([]Provider, error) {
	if f.loader == nil {
		return nil, ErrNotWired
	}

	var targets []Provider
	var errs []error
	if len(providerNames) == 0 {
		targets = f.readCandidates()
	} else {
		for _, name := range providerNames {
			p, ok := f.loader.Provider(name)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownProvider, name))
				continue
			}
			targets = append(targets, p)
		}
	}

	key := f.Key()
	encoded := f.codec.Encode(value)
	accepted := make([]Provider, 0, len(targets))
	for _, p := range targets {
		if err := p.Store(ctx, key, encoded); err != nil {
			errs = append(errs, fmt.Errorf("provider %q: %w", p.Name(), err))
			f.loader.log.WarnContext(ctx, "flag write rejected",
				"flag", f.name, "key", key, "provider", p.Name(), "error", err)
			continue
		}
		accepted = append(accepted, p)
	}
	return accepted, errors.Join(errs...)
}

// Reset asks every writable provider in the flag's full chain, exclusion
// list notwithstanding, to clear this flag's key. A failing provider does
// not prevent the remaining providers from being attempted; failures are
// aggregated into the returned error.
func (f *Flag[V]) Reset(ctx context.Context) error {
	if f.loader == nil {
		return nil
	}
	key := f.Key()
	var errs []error
	for _, p := range f.loader.Providers() {
		if !p.Writable() {
			continue
		}
		if err := p.Reset(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("provider %q: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
