package cache

import (
	"context"
	"os"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

// ConfigSource resolves the minimum-lifetime policy knob. It is consulted on
// every operation that applies the policy, so implementations may return
// different values over the life of a process.
type ConfigSource interface {
	// MinimumLifetime returns the grace period during which expired
	// temporary entries are kept and physical deletes are batched.
	// Zero or negative disables the window (plain TTL expiry).
	MinimumLifetime(ctx context.Context) time.Duration
}

// StaticConfig is a fixed minimum lifetime.
type StaticConfig time.Duration

var _ ConfigSource = StaticConfig(0)

func (c StaticConfig) MinimumLifetime(context.Context) time.Duration {
	return time.Duration(c)
}

// EnvConfig reads the minimum lifetime from an environment variable on every
// call, so the window can be retuned without a restart. The value is a
// duration string such as "30s", "10m" or "1h30m". Unset, empty or
// unparseable values disable the window.
type EnvConfig struct {
	Key string
}

var _ ConfigSource = EnvConfig{}

func (c EnvConfig) MinimumLifetime(context.Context) time.Duration {
	v := os.Getenv(c.Key)
	if v == "" {
		return 0
	}
	d, err := str2duration.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
