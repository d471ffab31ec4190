package ratelimiter

import (
	"fmt"
	"time"
)

// Config defines the token bucket.
type Config struct {
	Enabled        bool          `env:"AUTH_RATE_LIMIT_ENABLED" envDefault:"true"`
	Capacity       int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`    // burst size
	RefillRate     int           `env:"AUTH_RATE_LIMIT_REFILL" envDefault:"1"`    // tokens added per interval
	RefillInterval time.Duration `env:"AUTH_RATE_LIMIT_INTERVAL" envDefault:"6s"` // how often tokens are added
	RedisPrefix    string        `env:"AUTH_RATE_LIMIT_PREFIX" envDefault:"trialbill:ratelimit:"`
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// maxIntervals caps refill arithmetic; after this many intervals any bucket
// is full again.
func (c Config) maxIntervals() int64 {
	return int64(c.Capacity/c.RefillRate + 1)
}
