package providers

import (
	"context"

	"github.com/flagkit/flagkit/pkg/codec"
)

// Function types forwarded to by the Delegate provider. They allow an
// application to splice arbitrary lookup and persistence logic into a
// provider chain without implementing the full contract.
type (
	LookupFunc func(ctx context.Context, key string) (codec.Value, bool)
	StoreFunc  func(ctx context.Context, key string, value codec.Value) error
	ResetFunc  func(ctx context.Context, key string) error
)

// Delegate forwards every operation to caller-supplied functions. A nil
// lookup always misses, a nil store rejects with ErrReadOnly, and a nil
// reset is a no-op.
type Delegate struct {
	name   string
	desc   string
	lookup LookupFunc
	store  StoreFunc
	reset  ResetFunc
}

// DelegateOption configures a Delegate provider at construction.
type DelegateOption func(*Delegate)

// WithDelegateDescription sets the provider's short description.
func WithDelegateDescription(desc string) DelegateOption {
	return func(d *Delegate) { d.desc = desc }
}

// WithLookup sets the lookup callback.
func WithLookup(fn LookupFunc) DelegateOption {
	return func(d *Delegate) { d.lookup = fn }
}

// WithStore sets the store callback. Supplying one makes the provider
// writable.
func WithStore(fn StoreFunc) DelegateOption {
	return func(d *Delegate) { d.store = fn }
}

// WithReset sets the reset callback. Supplying one makes the provider
// writable.
func WithReset(fn ResetFunc) DelegateOption {
	return func(d *Delegate) { d.reset = fn }
}

// NewDelegate creates a callback-forwarding provider under the given
// name.
func NewDelegate(name string, opts ...DelegateOption) *Delegate {
	d := &Delegate{name: name}
	if d.name == "" {
		d.name = "delegate"
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name identifies the provider.
func (d *Delegate) Name() string { return d.name }

// Description is a short human-readable summary.
func (d *Delegate) Description() string { return d.desc }

// Writable reports whether any persistence callback was supplied.
func (d *Delegate) Writable() bool { return d.store != nil || d.reset != nil }

// Lookup forwards to the lookup callback.
func (d *Delegate) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	if d.lookup == nil {
		return codec.Absent(), false
	}
	return d.lookup(ctx, key)
}

// Store forwards to the store callback.
func (d *Delegate) Store(ctx context.Context, key string, value codec.Value) error {
	if d.store == nil {
		return ErrReadOnly
	}
	return d.store(ctx, key, value)
}

// Reset forwards to the reset callback.
func (d *Delegate) Reset(ctx context.Context, key string) error {
	if d.reset == nil {
		return nil
	}
	return d.reset(ctx, key)
}
