package query

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	pkgerrors "github.com/absmach/cleanroom/pkg/errors"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
)

// Fetcher performs the remote call backing a cache entry.
type Fetcher func(ctx context.Context) (any, error)

// Listener is notified after every fetch of the key it subscribed to.
type Listener func(Result)

// Result is the view of a cache entry handed to consumers.
type Result struct {
	Data      any
	Err       error
	IsLoading bool
	IsStale   bool
	FetchedAt time.Time
}

type Stats struct {
	Hits     int64
	Misses   int64
	Fetches  int64
	Failures int64
}

type entry struct {
	data        any
	hasData     bool
	err         error
	fetchedAt   time.Time
	invalidated bool
	inFlight    bool
	fetcher     Fetcher
	opts        callOptions
	listeners   map[uint64]Listener
}

// Cache wraps calls to the remote service with per key caching, request
// coalescing and retries.
//
// At most one fetch per key runs at any time: concurrent callers attach to
// the running fetch through a singleflight group.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	flight  singleflight.Group
	policy  Policy
	now     func() time.Time
	logger  *slog.Logger
	nextID  uint64

	hits     atomic.Int64
	misses   atomic.Int64
	fetches  atomic.Int64
	failures atomic.Int64
}

func New(logger *slog.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Cache{
		entries: make(map[Key]*entry),
		policy:  DefaultPolicy(),
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Cache) Policy() Policy {
	return c.policy
}

// Query returns the cached state of key without blocking. Fresh data is
// returned as is. Stale or missing data starts a fetch unless one is already
// running; stale data is still returned with IsStale set.
func (c *Cache) Query(ctx context.Context, key Key, fetch Fetcher, opts ...CallOption) Result {
	o := c.queryOptions(opts)

	c.mu.Lock()
	e := c.entry(key)
	e.fetcher = fetch
	e.opts = o
	if e.hasData && !c.stale(e) {
		res := c.result(e)
		c.mu.Unlock()
		c.hits.Add(1)

		return res
	}
	c.misses.Add(1)
	start := !e.inFlight
	e.inFlight = true
	res := c.result(e)
	c.mu.Unlock()

	if start {
		c.flight.DoChan(string(key), func() (any, error) {
			return c.run(context.WithoutCancel(ctx), key, fetch, o)
		})
	}

	return res
}

// Fetch returns the data of key, waiting for the remote service only when
// nothing is cached yet. Stale data is returned right away and a single
// background refresh is started, as in Query. WithForce makes the caller wait
// for a new fetch even when data is cached. Cancelling ctx abandons the wait
// but not the fetch, whose result is still cached.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch Fetcher, opts ...CallOption) (any, error) {
	o := c.queryOptions(opts)

	c.mu.Lock()
	e := c.entry(key)
	e.fetcher = fetch
	e.opts = o
	if e.hasData && !o.force {
		data := e.data
		if !c.stale(e) {
			c.mu.Unlock()
			c.hits.Add(1)

			return data, nil
		}
		c.misses.Add(1)
		start := !e.inFlight
		e.inFlight = true
		c.mu.Unlock()

		if start {
			c.flight.DoChan(string(key), func() (any, error) {
				return c.run(context.WithoutCancel(ctx), key, fetch, o)
			})
		}

		return data, nil
	}
	c.misses.Add(1)
	e.inFlight = true
	c.mu.Unlock()

	ch := c.flight.DoChan(string(key), func() (any, error) {
		return c.run(context.WithoutCancel(ctx), key, fetch, o)
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// FetchAs is Fetch with a typed fetcher.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error), opts ...CallOption) (T, error) {
	data, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	}, opts...)
	if err != nil {
		var zero T

		return zero, err
	}

	v, ok := data.(T)
	if !ok {
		var zero T

		return zero, pkgerrors.ErrInvalidData
	}

	return v, nil
}

// Peek returns the cached state of key without triggering a fetch.
func (c *Cache) Peek(key Key) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}
	}

	return c.result(e)
}

// Refetch re-runs the last fetcher used for key, ignoring staleness. It
// reports false when key was never queried.
func (c *Cache) Refetch(ctx context.Context, key Key) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.fetcher == nil {
		c.mu.Unlock()

		return false
	}
	start := !e.inFlight
	e.inFlight = true
	fetch, o := e.fetcher, e.opts
	c.mu.Unlock()

	if start {
		c.flight.DoChan(string(key), func() (any, error) {
			return c.run(context.WithoutCancel(ctx), key, fetch, o)
		})
	}

	return true
}

// Subscribe registers l for results of key and returns a function removing it.
func (c *Cache) Subscribe(key Key, l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	id := c.nextID
	c.nextID++
	e.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(e.listeners, id)
	}
}

// Invalidate marks every entry whose endpoint is pattern, or lies below it,
// as stale. Entries with active subscribers are refreshed right away. It
// returns the number of invalidated entries.
func (c *Cache) Invalidate(ctx context.Context, pattern string) int {
	var refresh []Key

	c.mu.Lock()
	n := 0
	for key, e := range c.entries {
		if !key.Matches(pattern) {
			continue
		}
		n++
		e.invalidated = true
		if len(e.listeners) > 0 && e.fetcher != nil {
			refresh = append(refresh, key)
		}
	}
	c.mu.Unlock()

	for _, key := range refresh {
		c.Refetch(ctx, key)
	}

	return n
}

// Mutate runs fn without reading or writing the cache. Network failures are
// retried up to the mutation retry bound. On success the patterns passed with
// WithInvalidate are invalidated.
func (c *Cache) Mutate(ctx context.Context, fn Fetcher, opts ...CallOption) (any, error) {
	o := callOptions{retries: c.policy.MutationRetries}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := c.retry(ctx, fn, o.retries)
	if err != nil {
		return nil, err
	}

	for _, pattern := range o.invalidate {
		c.Invalidate(ctx, pattern)
	}

	return data, nil
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Fetches:  c.fetches.Load(),
		Failures: c.failures.Load(),
	}
}

func (c *Cache) run(ctx context.Context, key Key, fetch Fetcher, o callOptions) (any, error) {
	c.mu.Lock()
	c.entry(key).inFlight = true
	c.mu.Unlock()

	c.fetches.Add(1)
	data, err := c.retry(ctx, fetch, o.retries)

	c.mu.Lock()
	// Later callers must start a new fetch rather than join this finished one.
	c.flight.Forget(string(key))
	e := c.entry(key)
	e.inFlight = false
	if err != nil {
		// previous data stays available next to the error
		e.err = err
		c.failures.Add(1)
		c.logger.Warn("query failed", slog.String("key", string(key)), slog.Any("error", err))
	} else {
		e.data = data
		e.hasData = true
		e.err = nil
		e.fetchedAt = c.now()
		e.invalidated = false
	}
	res := c.result(e)
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(res)
	}

	return data, err
}

func (c *Cache) retry(ctx context.Context, fn Fetcher, retries uint) (any, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.policy.InitialBackoff
	b.MaxInterval = c.policy.MaxBackoff
	b.Multiplier = 2
	b.RandomizationFactor = 0

	op := func() (any, error) {
		data, err := fn(ctx)
		if err != nil && !pkgerrors.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}

		return data, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(retries+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("retrying remote call", slog.Any("error", err), slog.Duration("backoff", next))
		}),
	)
}

// caller holds c.mu
func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{
			listeners: make(map[uint64]Listener),
			opts:      callOptions{staleTime: c.policy.StaleTime, retries: c.policy.Retries},
		}
		c.entries[key] = e
	}

	return e
}

// caller holds c.mu
func (c *Cache) stale(e *entry) bool {
	return e.invalidated || c.now().Sub(e.fetchedAt) >= e.opts.staleTime
}

// caller holds c.mu
func (c *Cache) result(e *entry) Result {
	return Result{
		Data:      e.data,
		Err:       e.err,
		IsLoading: e.inFlight && !e.hasData,
		IsStale:   e.hasData && c.stale(e),
		FetchedAt: e.fetchedAt,
	}
}

func (c *Cache) queryOptions(opts []CallOption) callOptions {
	o := callOptions{
		staleTime: c.policy.StaleTime,
		retries:   c.policy.Retries,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}
