package flags

import (
	"context"

	"github.com/flagkit/flagkit/pkg/codec"
)

// Provider is the contract every storage backend implements. A provider is
// referenced, never owned, by the flags that read from it; one instance
// may be shared across many loaders and must outlive them.
//
// Providers deal exclusively in codec.Value: the flag layer encodes and
// decodes native types, the provider persists whatever representation it
// derives from the boxed value.
type Provider interface {
	// Name identifies the provider. Exclusion lists and explicit
	// provider requests select providers by this name, so it should be
	// unique within a loader's chain.
	Name() string

	// Description is a short human-readable summary, or empty.
	Description() string

	// Writable reports whether Store and Reset are expected to succeed.
	// Reset fan-out only targets writable providers.
	Writable() bool

	// Lookup returns the stored value for a fully-qualified key. A
	// missing key and an unreadable stored value are both reported as a
	// plain miss; callers cannot tell the two cases apart.
	Lookup(ctx context.Context, key string) (codec.Value, bool)

	// Store persists a value under the key. Storing the absent variant
	// removes any stored value. A non-nil error means the provider did
	// not accept the write.
	Store(ctx context.Context, key string, value codec.Value) error

	// Reset removes any stored override for the key, so subsequent
	// Lookup calls miss and resolution falls through the chain.
	Reset(ctx context.Context, key string) error
}

// Watcher is an optional provider capability: a stream of changed-key
// sets. The channel is closed when the context is cancelled or the
// underlying subscription ends; subscriptions are not restartable.
type Watcher interface {
	// Watch subscribes to change notifications. A nil keys slice means
	// "notify on any key"; otherwise only changes to the listed keys are
	// delivered.
	Watch(ctx context.Context, keys []string) (<-chan []string, error)
}
