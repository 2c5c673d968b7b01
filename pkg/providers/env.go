package providers

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/flagkit/flagkit/pkg/codec"
)

// Env is a read-only provider backed by the process environment, the
// closest thing a process has to a default store it did not create
// itself. A composed key like "ui/show-social-login" maps to the variable
// UI_SHOW_SOCIAL_LOGIN; an optional prefix is prepended the same way.
//
// Raw values are parsed as JSON first, so "true", "42", or "[1,2]" come
// back as typed variants, and anything unparsable is handed over as a
// plain string.
type Env struct {
	name   string
	prefix string
}

// EnvOption configures an Env provider at construction.
type EnvOption func(*Env) error

// WithEnvPrefix prepends a prefix to every derived variable name.
func WithEnvPrefix(prefix string) EnvOption {
	return func(e *Env) error {
		e.prefix = prefix
		return nil
	}
}

// WithDotEnv loads the given dotenv files into the process environment
// before the provider serves lookups. Unlike the implicit .env loading
// some applications do, an explicitly requested file that fails to load is
// an error.
func WithDotEnv(paths ...string) EnvOption {
	return func(e *Env) error {
		if err := godotenv.Load(paths...); err != nil {
			return errors.Join(ErrEnvFileLoad, err)
		}
		return nil
	}
}

// NewEnv creates an environment-variable provider.
func NewEnv(opts ...EnvOption) (*Env, error) {
	e := &Env{name: "environment"}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Name identifies the provider.
func (e *Env) Name() string { return e.name }

// Description is a short human-readable summary.
func (e *Env) Description() string { return "process environment variables" }

// Writable reports false; the environment cannot be written through the
// flag layer.
func (e *Env) Writable() bool { return false }

// Lookup resolves the derived variable name and parses its value.
func (e *Env) Lookup(ctx context.Context, key string) (codec.Value, bool) {
	raw, ok := os.LookupEnv(e.VariableName(key))
	if !ok {
		return codec.Absent(), false
	}
	if val, err := codec.FromJSON([]byte(raw)); err == nil {
		if val.IsAbsent() {
			return codec.Absent(), false
		}
		return val, true
	}
	return codec.StringValue(raw), true
}

// Store always fails with ErrReadOnly.
func (e *Env) Store(ctx context.Context, key string, value codec.Value) error {
	return ErrReadOnly
}

// Reset always fails with ErrReadOnly.
func (e *Env) Reset(ctx context.Context, key string) error {
	return ErrReadOnly
}

// VariableName derives the environment variable consulted for a composed
// key: every run of non-alphanumeric characters becomes a single
// underscore and the whole name is uppercased.
func (e *Env) VariableName(key string) string {
	if e.prefix != "" {
		key = e.prefix + "_" + key
	}
	var b strings.Builder
	b.Grow(len(key))
	pendingSep := false
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			r -= 'a' - 'A'
			fallthrough
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
