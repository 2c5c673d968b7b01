package providers_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flagkit/flagkit/pkg/codec"
	"github.com/flagkit/flagkit/pkg/providers"
)

func newRedisProvider(t *testing.T, opts ...providers.RedisOption) (*providers.Redis, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return providers.NewRedis(client, opts...), srv
}

func TestRedisProvider(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("Identity", func(t *testing.T) {
		t.Parallel()
		r, _ := newRedisProvider(t, providers.WithRedisName("remote"))
		assert.Equal(t, "remote", r.Name())
		assert.True(t, r.Writable())
		assert.NotEmpty(t, r.Description())
	})

	t.Run("StoreAndLookup", func(t *testing.T) {
		t.Parallel()
		r, srv := newRedisProvider(t)

		_, ok := r.Lookup(ctx, "ui/enabled")
		assert.False(t, ok)

		require.NoError(t, r.Store(ctx, "ui/enabled", codec.BoolValue(true)))

		// Stored under the default namespace prefix.
		assert.True(t, srv.Exists("flags:ui/enabled"))

		v, ok := r.Lookup(ctx, "ui/enabled")
		require.True(t, ok)
		b, _ := v.AsBool()
		assert.True(t, b)
	})

	t.Run("CustomPrefix", func(t *testing.T) {
		t.Parallel()
		r, srv := newRedisProvider(t, providers.WithRedisPrefix("myapp"))

		require.NoError(t, r.Store(ctx, "k", codec.IntValue(7)))
		assert.True(t, srv.Exists("myapp:k"))
		assert.False(t, srv.Exists("flags:k"))
	})

	t.Run("StoringAbsentDeletes", func(t *testing.T) {
		t.Parallel()
		r, srv := newRedisProvider(t)

		require.NoError(t, r.Store(ctx, "k", codec.StringValue("v")))
		require.NoError(t, r.Store(ctx, "k", codec.Absent()))
		assert.False(t, srv.Exists("flags:k"))
	})

	t.Run("ResetIsIdempotent", func(t *testing.T) {
		t.Parallel()
		r, _ := newRedisProvider(t)

		require.NoError(t, r.Store(ctx, "k", codec.IntValue(1)))
		require.NoError(t, r.Reset(ctx, "k"))
		require.NoError(t, r.Reset(ctx, "k"))

		_, ok := r.Lookup(ctx, "k")
		assert.False(t, ok)
	})

	t.Run("UnparsableStoredValueIsAMiss", func(t *testing.T) {
		t.Parallel()
		r, srv := newRedisProvider(t)
		srv.Set("flags:garbage", "{not json")

		_, ok := r.Lookup(ctx, "garbage")
		assert.False(t, ok)
	})

	t.Run("RoundTripsStructuredValues", func(t *testing.T) {
		t.Parallel()
		r, _ := newRedisProvider(t)

		stored := codec.MapValue(map[string]codec.Value{
			"limit": codec.IntValue(10),
			"name":  codec.StringValue("beta"),
		})
		require.NoError(t, r.Store(ctx, "rollout", stored))

		v, ok := r.Lookup(ctx, "rollout")
		require.True(t, ok)
		m, ok := v.AsMap()
		require.True(t, ok)
		limit, _ := m["limit"].AsInt()
		assert.Equal(t, int64(10), limit)
	})
}

func TestRedisWatch(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r, _ := newRedisProvider(t)

	ch, err := r.Watch(ctx, []string{"watched"})
	require.NoError(t, err)

	require.NoError(t, r.Store(ctx, "ignored", codec.IntValue(1)))
	require.NoError(t, r.Store(ctx, "watched", codec.IntValue(2)))

	select {
	case changed := <-ch:
		assert.Equal(t, []string{"watched"}, changed)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change notification")
	}
}
