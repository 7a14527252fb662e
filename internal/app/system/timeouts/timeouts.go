// Package timeouts provides the deadlines used around database work.
//
//   - Ping: health checks
//   - Read: availability reads and other lookups
//   - Write: single-entity writes (scheduling, limits, groups)
//   - Transition: a top-level transition with all of its cascades
//
// Values can be overridden once at startup with Configure.
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values.
const (
	DefaultPing       = 2 * time.Second
	DefaultRead       = 5 * time.Second
	DefaultWrite      = 10 * time.Second
	DefaultTransition = 30 * time.Second
)

// Config holds timeout values. Zero values are ignored.
type Config struct {
	Ping       time.Duration
	Read       time.Duration
	Write      time.Duration
	Transition time.Duration
}

func defaults() Config {
	return Config{
		Ping:       DefaultPing,
		Read:       DefaultRead,
		Write:      DefaultWrite,
		Transition: DefaultTransition,
	}
}

var (
	mu      sync.RWMutex
	current = defaults()
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(current)
}

func Ping() time.Duration       { return get(func(c Config) time.Duration { return c.Ping }) }
func Read() time.Duration       { return get(func(c Config) time.Duration { return c.Read }) }
func Write() time.Duration      { return get(func(c Config) time.Duration { return c.Write }) }
func Transition() time.Duration { return get(func(c Config) time.Duration { return c.Transition }) }

// Configure overrides the non-zero values in cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, p := range []struct {
		dst *time.Duration
		v   time.Duration
	}{
		{&current.Ping, cfg.Ping},
		{&current.Read, cfg.Read},
		{&current.Write, cfg.Write},
		{&current.Transition, cfg.Transition},
	} {
		if p.v > 0 {
			*p.dst = p.v
		}
	}
}

// Reset restores the defaults.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the context was canceled due to deadline exceeded.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Transition(), h.Log, "seance confirm")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
