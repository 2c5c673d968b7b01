package providers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/flagkit/flagkit/pkg/codec"
)

// RedisConfig configures the remote provider from the environment.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // format "redis://:password@localhost:6379/0"
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	KeyPrefix      string        `env:"FLAGS_REDIS_PREFIX" envDefault:"flags"`
	Channel        string        `env:"FLAGS_REDIS_CHANNEL" envDefault:"flags:changed"`
}

var redisEnvLoaded sync.Once

// Redis is a writable remote provider backed by a Redis server, the
// remote-configuration slot in a typical chain. Values are stored as the
// JSON serialization of their boxed representation under an optional
// namespace prefix, and every write or reset publishes the changed key on
// a pub/sub channel that Watch subscribes to.
type Redis struct {
	client  *redis.Client
	prefix  string
	channel string
	name    string
	log     *slog.Logger
}

// RedisOption configures a Redis provider at construction.
type RedisOption func(*Redis)

// WithRedisName overrides the provider name.
func WithRedisName(name string) RedisOption {
	return func(r *Redis) {
		if name != "" {
			r.name = name
		}
	}
}

// WithRedisPrefix namespaces every stored key as "<prefix>:<key>".
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisChannel sets the pub/sub channel for change notifications.
func WithRedisChannel(channel string) RedisOption {
	return func(r *Redis) {
		if channel != "" {
			r.channel = channel
		}
	}
}

// WithRedisLogger sets the logger for lookup and watch diagnostics.
func WithRedisLogger(log *slog.Logger) RedisOption {
	return func(r *Redis) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRedis wraps an existing client. The provider holds a non-owning
// reference; closing the client is the caller's responsibility.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		prefix:  "flags",
		channel: "flags:changed",
		name:    "redis",
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromEnv parses RedisConfig from the environment (loading a
// default .env file once, if present) and connects with retries before
// wrapping the client.
func NewRedisFromEnv(ctx context.Context, opts ...RedisOption) (*Redis, error) {
	redisEnvLoaded.Do(func() {
		// The .env file might not exist and that's ok.
		_ = godotenv.Load()
	})

	var cfg RedisConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	client, err := connectRedis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts = append([]RedisOption{
		WithRedisPrefix(cfg.KeyPrefix),
		WithRedisChannel(cfg.Channel),
	}, opts...)
	return NewRedis(client, opts...), nil
}

// connectRedis dials the configured server, retrying until the retry
// budget or the connect timeout runs out.
func connectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	for range cfg.RetryAttempts {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}
	return nil, ErrRedisNotReady
}

// Name identifies the provider.
func (r *Redis) Name() string { return r.name }

// Description is a short human-readable summary.
func (r *Redis) Description() string { return "redis remote configuration store" }

// Writable reports true; the redis provider accepts writes.
func (r *Redis) Writable() bool { return true }

func (r *Redis) storageKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Lookup fetches and parses the stored value. A missing key, an
// unparsable stored value, and a server error all fold into a miss so the
// chain continues; server errors are logged.
func (r *Redis) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	data, err := r.client.Get(ctx, r.storageKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.WarnContext(ctx, "redis lookup failed", "key", key, "error", err)
		}
		return codec.Absent(), false
	}
	val, err := codec.FromJSON(data)
	if err != nil || val.IsAbsent() {
		return codec.Absent(), false
	}
	return val, true
}

// Store persists the value's JSON serialization; the absent variant
// deletes the key. The changed key is published either way.
func (r *Redis) Store(ctx context.Context, key string, value codec.Value) error {
	if value.IsAbsent() {
		return r.Reset(ctx, key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if err := r.client.Set(ctx, r.storageKey(key), data, 0).Err(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	r.publish(ctx, key)
	return nil
}

// Reset deletes any stored value for the key and publishes the change.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.storageKey(key)).Err(); err != nil {
		return err
	}
	r.publish(ctx, key)
	return nil
}

func (r *Redis) publish(ctx context.Context, key string) {
	if err := r.client.Publish(ctx, r.channel, key).Err(); err != nil {
		r.log.WarnContext(ctx, "redis change publish failed", "key", key, "error", err)
	}
}

// Watch subscribes to the provider's change channel. Each message carries
// one changed key; the subscription ends with the context.
func (r *Redis) Watch(ctx context.Context, keys []string) (<-chan []string, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		closeErr := pubsub.Close()
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
	go func() {
		defer close(out)
		defer pubsub.Close() //nolint:errcheck

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if filter != nil {
					if _, watched := filter[msg.Payload]; !watched {
						continue
					}
				}
				select {
				case out <- []string{msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
