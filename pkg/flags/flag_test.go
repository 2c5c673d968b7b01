package flags_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/pkg/codec"
	"github.com/flagkit/flagkit/pkg/flags"
	"github.com/flagkit/flagkit/pkg/keypath"
)

// stubProvider is a minimal in-memory Provider for resolution tests. It
// can be made read-only, fail writes, or panic on lookup to prove a code
// path never queries it.
type stubProvider struct {
	name          string
	values        map[string]codec.Value
	readOnly      bool
	storeErr      error
	resetErr      error
	panicOnLookup bool
	lookups       int
}

func newStub(name string) *stubProvider {
	return &stubProvider{name: name, values: make(map[string]codec.Value)}
}

func (s *stubProvider) Name() string        { return s.name }
func (s *stubProvider) Description() string { return "test stub" }
func (s *stubProvider) Writable() bool      { return !s.readOnly }

func (s *stubProvider) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	if s.panicOnLookup {
		panic("provider queried when it must not be")
	}
	s.lookups++
	v, ok := s.values[key]
	if !ok {
		return codec.Absent(), false
	}
	return v, true
}

func (s *stubProvider) Store(ctx context.Context, key string, value codec.Value) error {
	if s.storeErr != nil {
		return s.storeErr
	}
	if value.IsAbsent() {
		delete(s.values, key)
		return nil
	}
	s.values[key] = value
	return nil
}

func (s *stubProvider) Reset(ctx context.Context, key string) error {
	if s.resetErr != nil {
		return s.resetErr
	}
	delete(s.values, key)
	return nil
}

func wireUp(t *testing.T, f flags.Node, opts ...flags.LoaderOption) *flags.Loader {
	t.Helper()
	root := flags.NewCollection("root").Add(f)
	loader, err := flags.NewLoader(root, opts...)
	require.NoError(t, err)
	return loader
}

func TestFlagResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("UnwiredReturnsDefault", func(t *testing.T) {
		t.Parallel()
		f := flags.New("showSocialLogin", true)

		res := f.Resolve(ctx)
		assert.True(t, res.Value)
		assert.Nil(t, res.Source)
		assert.Empty(t, f.Key())
	})

	t.Run("ComputedOverrideNeverQueriesProviders", func(t *testing.T) {
		t.Parallel()
		trap := newStub("trap")
		trap.panicOnLookup = true

		f := flags.New("limit", 10,
			flags.WithComputed[int](func() (int, bool) { return 99, true }),
		)
		wireUp(t, f, flags.WithProviders(trap))

		res := f.Resolve(ctx)
		assert.Equal(t, 99, res.Value)
		assert.Nil(t, res.Source)
	})

	t.Run("ComputedMissFallsThroughToProviders", func(t *testing.T) {
		t.Parallel()
		p := newStub("p")
		f := flags.New("limit", 10,
			flags.WithComputed[int](func() (int, bool) { return 0, false }),
		)
		wireUp(t, f, flags.WithProviders(p))
		p.values[f.Key()] = codec.IntValue(7)

		res := f.Resolve(ctx)
		assert.Equal(t, 7, res.Value)
		assert.Same(t, p, res.Source)
	})

	t.Run("FirstMatchWins", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p2 := newStub("p2")
		p3 := newStub("p3")

		f := flags.New("mode", "default")
		wireUp(t, f, flags.WithProviders(p1, p2, p3))
		p2.values[f.Key()] = codec.StringValue("from-p2")
		p3.values[f.Key()] = codec.StringValue("from-p3")

		res := f.Resolve(ctx)
		assert.Equal(t, "from-p2", res.Value)
		assert.Same(t, p2, res.Source)
		// Later providers are never consulted once one produces a value.
		assert.Zero(t, p3.lookups)
	})

	t.Run("DecodeMismatchBehavesLikeMiss", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p2 := newStub("p2")

		f := flags.New("enabled", false)
		wireUp(t, f, flags.WithProviders(p1, p2))
		p1.values[f.Key()] = codec.StringValue("not a bool")
		p2.values[f.Key()] = codec.BoolValue(true)

		res := f.Resolve(ctx)
		assert.True(t, res.Value)
		assert.Same(t, p2, res.Source)
	})

	t.Run("NoProviderValueReturnsDefault", func(t *testing.T) {
		t.Parallel()
		p := newStub("p")
		f := flags.New("ratio", 0.5)
		wireUp(t, f, flags.WithProviders(p))

		res := f.Resolve(ctx)
		assert.Equal(t, 0.5, res.Value)
		assert.Nil(t, res.Source)
	})

	t.Run("ExclusionSkipsProviderEvenWithValue", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p2 := newStub("p2")

		f := flags.New("mode", "default", flags.WithoutProviders[string]("p1"))
		wireUp(t, f, flags.WithProviders(p1, p2))
		p1.values[f.Key()] = codec.StringValue("excluded")
		p2.values[f.Key()] = codec.StringValue("allowed")

		res := f.Resolve(ctx)
		assert.Equal(t, "allowed", res.Value)
		assert.Same(t, p2, res.Source)
		assert.Zero(t, p1.lookups)
	})

	t.Run("ExclusionFallsToDefaultWhenNothingElseHits", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		f := flags.New("mode", "default", flags.WithoutProviders[string]("p1"))
		wireUp(t, f, flags.WithProviders(p1))
		p1.values[f.Key()] = codec.StringValue("excluded")

		res := f.Resolve(ctx)
		assert.Equal(t, "default", res.Value)
		assert.Nil(t, res.Source)
	})

	t.Run("ExplicitRequestBypassesExclusion", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		f := flags.New("mode", "default", flags.WithoutProviders[string]("p1"))
		wireUp(t, f, flags.WithProviders(p1))
		p1.values[f.Key()] = codec.StringValue("direct")

		res := f.ResolveFrom(ctx, "p1")
		assert.Equal(t, "direct", res.Value)
		assert.Same(t, p1, res.Source)
	})

	t.Run("ExplicitRequestForUnknownProviderYieldsDefault", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		f := flags.New("mode", "default")
		wireUp(t, f, flags.WithProviders(p1))
		p1.values[f.Key()] = codec.StringValue("present")

		res := f.ResolveFrom(ctx, "nope")
		assert.Equal(t, "default", res.Value)
		assert.Nil(t, res.Source)
	})
}

func TestFlagDefault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := flags.New("limit", 10)
	assert.Equal(t, 10, f.Default())

	f.SetDefault(25)
	assert.Equal(t, 25, f.Default())
	assert.Equal(t, 25, f.Resolve(ctx).Value)
}

func TestFlagSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("UnwiredFails", func(t *testing.T) {
		t.Parallel()
		f := flags.New("x", 1)
		_, err := f.Set(ctx, 2)
		require.ErrorIs(t, err, flags.ErrNotWired)
	})

	t.Run("DefaultTargetsSkipExcludedProviders", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p2 := newStub("p2")
		f := flags.New("mode", "d", flags.WithoutProviders[string]("p1"))
		wireUp(t, f, flags.WithProviders(p1, p2))

		accepted, err := f.Set(ctx, "v")
		require.NoError(t, err)
		require.Len(t, accepted, 1)
		assert.Same(t, p2, accepted[0])
		assert.Empty(t, p1.values)
	})

	t.Run("ExplicitNamesIgnoreExclusion", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		f := flags.New("mode", "d", flags.WithoutProviders[string]("p1"))
		wireUp(t, f, flags.WithProviders(p1))

		accepted, err := f.Set(ctx, "v", "p1")
		require.NoError(t, err)
		require.Len(t, accepted, 1)
		assert.Same(t, p1, accepted[0])
	})

	t.Run("FailingProviderDoesNotAbortFanOut", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p1.storeErr = errors.New("disk full")
		p2 := newStub("p2")
		f := flags.New("mode", "d")
		wireUp(t, f, flags.WithProviders(p1, p2))

		accepted, err := f.Set(ctx, "v")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		require.Len(t, accepted, 1)
		assert.Same(t, p2, accepted[0])
	})

	t.Run("UnknownExplicitNameIsReported", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		f := flags.New("mode", "d")
		wireUp(t, f, flags.WithProviders(p1))

		accepted, err := f.Set(ctx, "v", "ghost", "p1")
		require.ErrorIs(t, err, flags.ErrUnknownProvider)
		require.Len(t, accepted, 1)
		assert.Same(t, p1, accepted[0])
	})
}

func TestFlagReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("RoundTrip", func(t *testing.T) {
		t.Parallel()
		p := newStub("p")
		f := flags.New("showSocialLogin", true)
		wireUp(t, f, flags.WithProviders(p))

		// No providers set: the declared default wins.
		assert.True(t, f.Resolve(ctx).Value)

		_, err := f.Set(ctx, false)
		require.NoError(t, err)
		assert.False(t, f.Resolve(ctx).Value)

		require.NoError(t, f.Reset(ctx))
		res := f.Resolve(ctx)
		assert.True(t, res.Value)
		assert.Nil(t, res.Source)
	})

	t.Run("IgnoresExclusionAndSkipsReadOnly", func(t *testing.T) {
		t.Parallel()
		excluded := newStub("excluded")
		readOnly := newStub("ro")
		readOnly.readOnly = true
		readOnly.resetErr = errors.New("must never be called")

		f := flags.New("mode", "d", flags.WithoutProviders[string]("excluded"))
		wireUp(t, f, flags.WithProviders(excluded, readOnly))
		key := f.Key()
		excluded.values[key] = codec.StringValue("v")

		require.NoError(t, f.Reset(ctx))
		assert.Empty(t, excluded.values)
	})

	t.Run("AggregatesFailuresAndContinues", func(t *testing.T) {
		t.Parallel()
		p1 := newStub("p1")
		p1.resetErr = errors.New("p1 broke")
		p2 := newStub("p2")
		f := flags.New("mode", "d")
		wireUp(t, f, flags.WithProviders(p1, p2))
		p2.values[f.Key()] = codec.StringValue("v")

		err := f.Reset(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "p1 broke")
		// The failing provider did not stop the second one.
		assert.Empty(t, p2.values)
	})

	t.Run("UnwiredIsNoOp", func(t *testing.T) {
		t.Parallel()
		f := flags.New("x", 1)
		assert.NoError(t, f.Reset(ctx))
	})
}

func TestFlagKeyComposition(t *testing.T) {
	t.Parallel()

	t.Run("FixedKeyPinsOwnSegmentOnly", func(t *testing.T) {
		t.Parallel()
		f := flags.New("ratingMode", "at_launch",
			flags.WithFixedKey[string]("rating_mode"),
		)
		root := flags.NewCollection("root").Add(f)
		_, err := flags.NewLoader(root,
			flags.WithKeyConfig(keypath.Config{Transform: keypath.TransformKebab}),
		)
		require.NoError(t, err)
		assert.Equal(t, "rating_mode", f.Key())
	})

	t.Run("FixedKeyStillInheritsPrefix", func(t *testing.T) {
		t.Parallel()
		f := flags.New("ratingMode", "at_launch",
			flags.WithFixedKey[string]("rating_mode"),
		)
		root := flags.NewCollection("root").Add(f)
		_, err := flags.NewLoader(root,
			flags.WithKeyConfig(keypath.Config{
				Prefix:    "myApp",
				Transform: keypath.TransformKebab,
			}),
		)
		require.NoError(t, err)
		assert.Equal(t, "my-app/rating_mode", f.Key())
	})

	t.Run("StableAcrossCalls", func(t *testing.T) {
		t.Parallel()
		f := flags.New("someFlag", 1)
		wireUp(t, f, flags.WithKeyConfig(keypath.Config{Transform: keypath.TransformKebab}))
		assert.Equal(t, f.Key(), f.Key())
	})
}
