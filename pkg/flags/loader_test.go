package flags_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/pkg/flags"
	"github.com/flagkit/flagkit/pkg/keypath"
)

func TestNewLoader(t *testing.T) {
	t.Parallel()

	t.Run("NilRoot", func(t *testing.T) {
		t.Parallel()
		_, err := flags.NewLoader(nil)
		require.ErrorIs(t, err, flags.ErrNilCollection)
	})

	t.Run("WiringIsOncePerTree", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(flags.New("a", 1))
		_, err := flags.NewLoader(root)
		require.NoError(t, err)

		_, err = flags.NewLoader(root)
		require.ErrorIs(t, err, flags.ErrAlreadyWired)
	})

	t.Run("EmptyFlagName", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(flags.New("", 1))
		_, err := flags.NewLoader(root)
		require.ErrorIs(t, err, flags.ErrEmptyName)
	})

	t.Run("EmptyCollectionName", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(
			flags.NewCollection("").Add(flags.New("a", 1)),
		)
		_, err := flags.NewLoader(root)
		require.ErrorIs(t, err, flags.ErrEmptyName)
	})

	t.Run("DuplicateComposedKeys", func(t *testing.T) {
		t.Parallel()
		// Two different declared names pinned to the same wire key.
		root := flags.NewCollection("root").Add(
			flags.New("first", 1, flags.WithFixedKey[int]("same_key")),
			flags.New("second", 2, flags.WithFixedKey[int]("same_key")),
		)
		_, err := flags.NewLoader(root)
		require.ErrorIs(t, err, flags.ErrDuplicateKey)
	})

	t.Run("ProvidersAndConfigExposed", func(t *testing.T) {
		t.Parallel()
		p := newStub("p")
		cfg := keypath.Config{Prefix: "app", Transform: keypath.TransformKebab}
		root := flags.NewCollection("root").Add(flags.New("a", 1))

		loader, err := flags.NewLoader(root,
			flags.WithProviders(p),
			flags.WithKeyConfig(cfg),
			flags.WithLoaderMeta(flags.Metadata{DisplayName: "App Flags"}),
		)
		require.NoError(t, err)

		assert.Equal(t, cfg, loader.Config())
		assert.Equal(t, "App Flags", loader.Meta().DisplayName)
		require.Len(t, loader.Providers(), 1)

		got, ok := loader.Provider("p")
		require.True(t, ok)
		assert.Same(t, p, got)

		_, ok = loader.Provider("ghost")
		assert.False(t, ok)

		assert.Len(t, loader.Flags(), 1)
	})

	t.Run("NilProvidersDropped", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(flags.New("a", 1))
		loader, err := flags.NewLoader(root, flags.WithProviders(nil, newStub("p")))
		require.NoError(t, err)
		assert.Len(t, loader.Providers(), 1)
	})
}

func TestMustNewLoader(t *testing.T) {
	t.Parallel()

	t.Run("ReturnsOnSuccess", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(flags.New("a", 1))
		assert.NotNil(t, flags.MustNewLoader(root))
	})

	t.Run("PanicsOnWiringBug", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			flags.MustNewLoader(nil)
		})
	})
}

// watchStub is a stubProvider that also exposes a change stream.
type watchStub struct {
	*stubProvider
	changes chan []string
}

func (w *watchStub) Watch(ctx context.Context, keys []string) (<-chan []string, error) {
	out := make(chan []string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case changed, ok := <-w.changes:
				if !ok {
					return
				}
				select {
				case out <- changed:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func TestLoaderWatch(t *testing.T) {
	t.Parallel()

	t.Run("NoWatchableProviders", func(t *testing.T) {
		t.Parallel()
		root := flags.NewCollection("root").Add(flags.New("a", 1))
		loader, err := flags.NewLoader(root, flags.WithProviders(newStub("p")))
		require.NoError(t, err)

		_, err = loader.Watch(context.Background(), nil)
		require.ErrorIs(t, err, flags.ErrNotWatchable)
	})

	t.Run("FansInChanges", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		w := &watchStub{stubProvider: newStub("w"), changes: make(chan []string, 1)}
		root := flags.NewCollection("root").Add(flags.New("a", 1))
		loader, err := flags.NewLoader(root, flags.WithProviders(w))
		require.NoError(t, err)

		ch, err := loader.Watch(ctx, nil)
		require.NoError(t, err)

		w.changes <- []string{"a"}
		select {
		case changed := <-ch:
			assert.Equal(t, []string{"a"}, changed)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for change notification")
		}
	})
}
