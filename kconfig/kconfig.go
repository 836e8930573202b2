// Package kconfig resolves kernel boot configuration from functional
// options, mirroring eventloop's LoopOption/resolveLoopOptions pattern.
package kconfig

import (
	"time"

	"github.com/shyper-org/Unishyper-sub001/kerr"
)

// SchedulerKind selects between a per-core and a global scheduler
// instance, a decision made once at boot (see spec §4.3/§9).
type SchedulerKind int

const (
	// PerCore gives every core its own independent ready/blocked queue.
	PerCore SchedulerKind = iota
	// Global shares a single ready/blocked queue across all cores.
	Global
)

const (
	// DefaultStackSize is the fixed per-thread stack size: 8 pages.
	DefaultStackSize = 8 * PageSize
	// PageSize is the guard-page granularity used by kstack.
	PageSize = 4096
	// DefaultTickPeriod is the simulated timer-interrupt period.
	DefaultTickPeriod = 4 * time.Millisecond
	// DefaultCores is the core count used when WithCores is not given.
	DefaultCores = 1
)

// Config is the resolved, immutable boot configuration.
type Config struct {
	cores         int
	stackSize     int
	schedulerKind SchedulerKind
	tickPeriod    time.Duration
}

// Cores returns the number of simulated cores.
func (c *Config) Cores() int { return c.cores }

// StackSize returns the per-thread stack size in bytes.
func (c *Config) StackSize() int { return c.stackSize }

// SchedulerKind returns the selected scheduler deployment variant.
func (c *Config) SchedulerKind() SchedulerKind { return c.schedulerKind }

// TickPeriod returns the simulated timer-interrupt period.
func (c *Config) TickPeriod() time.Duration { return c.tickPeriod }

type config struct {
	cores         int
	stackSize     int
	schedulerKind SchedulerKind
	tickPeriod    time.Duration
}

// Option configures kernel boot parameters.
type Option func(*config) error

// WithCores sets the number of simulated cores. n must be >= 1.
func WithCores(n int) Option {
	return func(c *config) error {
		if n < 1 {
			return kerr.New(kerr.InvArg, "kconfig.WithCores", "cores must be >= 1")
		}
		c.cores = n
		return nil
	}
}

// WithStackSize sets the per-thread stack size in bytes. size must be a
// positive multiple of PageSize.
func WithStackSize(size int) Option {
	return func(c *config) error {
		if size <= 0 || size%PageSize != 0 {
			return kerr.New(kerr.InvArg, "kconfig.WithStackSize", "stack size must be a positive multiple of PageSize")
		}
		c.stackSize = size
		return nil
	}
}

// WithSchedulerKind selects the per-core or global scheduler deployment.
func WithSchedulerKind(kind SchedulerKind) Option {
	return func(c *config) error {
		c.schedulerKind = kind
		return nil
	}
}

// WithTickPeriod sets the simulated timer-interrupt period. d must be
// positive.
func WithTickPeriod(d time.Duration) Option {
	return func(c *config) error {
		if d <= 0 {
			return kerr.New(kerr.InvArg, "kconfig.WithTickPeriod", "tick period must be positive")
		}
		c.tickPeriod = d
		return nil
	}
}

// Resolve applies opts over the defaults and returns an immutable Config.
func Resolve(opts ...Option) (*Config, error) {
	c := &config{
		cores:         DefaultCores,
		stackSize:     DefaultStackSize,
		schedulerKind: PerCore,
		tickPeriod:    DefaultTickPeriod,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return &Config{
		cores:         c.cores,
		stackSize:     c.stackSize,
		schedulerKind: c.schedulerKind,
		tickPeriod:    c.tickPeriod,
	}, nil
}
