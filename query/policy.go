package query

import "time"

// Policy is the retry and staleness policy of the cache.
type Policy struct {
	// StaleTime is how long fetched data counts as fresh. Stale data is still
	// served, but triggers a background refresh.
	StaleTime time.Duration `env:"DCR_CACHE_STALE_TIME" envDefault:"5m" toml:"stale_time"`
	// Retries is the number of extra attempts for a failed query.
	Retries uint `env:"DCR_CACHE_RETRIES" envDefault:"2" toml:"retries"`
	// MutationRetries is the number of extra attempts for a failed mutation.
	MutationRetries uint          `env:"DCR_CACHE_MUTATION_RETRIES" envDefault:"1"   toml:"mutation_retries"`
	InitialBackoff  time.Duration `env:"DCR_CACHE_INITIAL_BACKOFF"  envDefault:"1s"  toml:"initial_backoff"`
	MaxBackoff      time.Duration `env:"DCR_CACHE_MAX_BACKOFF"      envDefault:"30s" toml:"max_backoff"`
}

func DefaultPolicy() Policy {
	return Policy{
		StaleTime:       5 * time.Minute,
		Retries:         2,
		MutationRetries: 1,
		InitialBackoff:  time.Second,
		MaxBackoff:      30 * time.Second,
	}
}

type Option func(*Cache)

func WithPolicy(p Policy) Option {
	return func(c *Cache) {
		if p.InitialBackoff <= 0 {
			p.InitialBackoff = DefaultPolicy().InitialBackoff
		}
		if p.MaxBackoff < p.InitialBackoff {
			p.MaxBackoff = p.InitialBackoff
		}
		c.policy = p
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

type callOptions struct {
	staleTime  time.Duration
	retries    uint
	invalidate []string
	force      bool
}

type CallOption func(*callOptions)

// WithStaleTime overrides the staleness window of a single query.
func WithStaleTime(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d >= 0 {
			o.staleTime = d
		}
	}
}

// WithRetries overrides the retry count of a single query or mutation.
func WithRetries(n uint) CallOption {
	return func(o *callOptions) {
		o.retries = n
	}
}

// WithInvalidate lists endpoint patterns a successful mutation invalidates.
func WithInvalidate(patterns ...string) CallOption {
	return func(o *callOptions) {
		o.invalidate = append(o.invalidate, patterns...)
	}
}

// WithForce makes Fetch wait for a new fetch even when cached data exists.
func WithForce() CallOption {
	return func(o *callOptions) {
		o.force = true
	}
}
