package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// Option adjusts a single Load call.
type Option func(*options)

type options struct {
	files   []string
	environ map[string]string
	prefix  string
}

// WithDotenv loads the given files instead of ./.env.
func WithDotenv(files ...string) Option {
	return func(o *options) { o.files = files }
}

// WithEnvironment parses from m instead of the process environment and
// skips .env loading. Intended for tests.
func WithEnvironment(m map[string]string) Option {
	return func(o *options) { o.environ = m }
}

// WithPrefix only considers variables starting with prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// Load parses environment variables into v according to its field tags.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.environ == nil {
		dotenvOnce.Do(func() {
			// Missing .env files are fine: production sets real variables.
			_ = godotenv.Load(o.files...)
		})
	}

	envOpts := env.Options{Prefix: o.prefix}
	if o.environ != nil {
		envOpts.Environment = o.environ
	}
	if err := env.ParseWithOptions(v, envOpts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
