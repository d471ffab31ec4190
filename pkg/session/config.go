package session

import "time"

// Config holds session configuration.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// SecureCookies enables the Secure flag on session cookies.
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// RedisPrefix namespaces keys when the Redis store is used.
	RedisPrefix string `env:"SESSION_REDIS_PREFIX" envDefault:"trialbill:"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		CookieName:  "session",
		TTL:         30 * 24 * time.Hour,
		RedisPrefix: "trialbill:",
	}
}
