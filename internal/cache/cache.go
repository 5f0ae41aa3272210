// Package cache memoizes extraction results per source URL, strategy, and
// normalization floor.
//
// Get is total: fetch, decode, and extraction failures all resolve to
// extract.Fallback, and the fallback is cached like any other result.
// Entries never expire; they leave the cache only through capacity eviction,
// Evict, or Clear.
//
// Concurrent Get calls for the same key share a single computation. Calls for
// different keys compute in parallel.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/golang/groupcache/singleflight"

	"github.com/ironsheep/colorfetch/internal/extract"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

// DefaultCapacity is the default maximum number of cached results.
const DefaultCapacity = 50000

// Key identifies one extraction.
type Key struct {
	SourceURL string
	Strategy  extract.Strategy

	// NormalizeFloor is the optional minimum brightness applied to both
	// colors. nil means no normalization and is distinct from 0. Get reads
	// the value once on entry; later writes through the pointer do not
	// reach a computation already started.
	NormalizeFloor *float64
}

// detach returns a copy of k that shares no memory with the caller.
func (k Key) detach() Key {
	if k.NormalizeFloor != nil {
		f := *k.NormalizeFloor
		k.NormalizeFloor = &f
	}
	return k
}

// String returns the canonical identity of the key. Two keys are equal
// exactly when their strings are equal.
func (k Key) String() string {
	floor := "-"
	if k.NormalizeFloor != nil {
		floor = strconv.FormatFloat(*k.NormalizeFloor, 'g', -1, 64)
	}
	return strconv.Itoa(int(k.Strategy)) + "|" + floor + "|" + k.SourceURL
}

// Source fetches and decodes images. *imaging.HTTPSource satisfies it.
type Source interface {
	Fetch(ctx context.Context, url string) (imaging.PixelGrid, error)
}

// Stats holds cache counters since construction.
type Stats struct {
	Entries   int   `json:"entries"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Loads     int64 `json:"loads"`
	Fallbacks int64 `json:"fallbacks"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithCapacity bounds the number of cached results. Values below 1 leave the
// default in place.
func WithCapacity(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger sets the logger used for load and fallback events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Cache is the extraction result cache. It is safe for concurrent use.
type Cache struct {
	source     Source
	extractors map[extract.Strategy]extract.Extractor
	capacity   int
	logger     *slog.Logger

	mu      sync.Mutex
	entries *lru.Cache

	loads singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	loadCount atomic.Int64
	fallbacks atomic.Int64
}

// New creates a cache that fetches from source and extracts with the
// extractor registered for each key's strategy.
func New(source Source, extractors map[extract.Strategy]extract.Extractor, opts ...Option) *Cache {
	c := &Cache{
		source:     source,
		extractors: make(map[extract.Strategy]extract.Extractor, len(extractors)),
		capacity:   DefaultCapacity,
		logger:     slog.Default(),
	}
	for s, e := range extractors {
		c.extractors[s] = e
	}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = lru.New(c.capacity)
	return c
}

// Get returns the result for key, computing it on a miss.
//
// ctx carries request values into a computation this call starts, but its
// cancellation does not: a shared computation keeps running when one caller
// gives up. The image source's own timeout bounds it.
func (c *Cache) Get(ctx context.Context, key Key) extract.Result {
	key = key.detach()
	id := key.String()
	if r, ok := c.lookup(id); ok {
		c.hits.Add(1)
		return r
	}
	c.misses.Add(1)

	v, _ := c.loads.Do(id, func() (interface{}, error) {
		if r, ok := c.lookup(id); ok {
			return r, nil
		}
		r := c.compute(ctx, key)
		c.mu.Lock()
		c.entries.Add(id, r)
		c.mu.Unlock()
		return r, nil
	})
	return v.(extract.Result)
}

// Evict removes key so the next Get recomputes it. It reports whether the
// key was cached.
func (c *Cache) Evict(key Key) bool {
	id := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries.Get(id); !ok {
		return false
	}
	c.entries.Remove(id)
	return true
}

// Clear removes every cached result.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries.Clear()
	c.mu.Unlock()
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:   c.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Loads:     c.loadCount.Load(),
		Fallbacks: c.fallbacks.Load(),
	}
}

func (c *Cache) lookup(id string) (extract.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries.Get(id)
	if !ok {
		return extract.Result{}, false
	}
	return v.(extract.Result), true
}

// compute runs one extraction and never fails; every error is logged and
// turned into the fallback result.
func (c *Cache) compute(ctx context.Context, key Key) (result extract.Result) {
	c.loadCount.Add(1)
	start := time.Now()
	log := c.logger.With("url", key.SourceURL, "strategy", key.Strategy.String())

	defer func() {
		if p := recover(); p != nil {
			log.Error("extraction panicked", "panic", fmt.Sprint(p))
			c.fallbacks.Add(1)
			result = extract.Fallback
		}
	}()

	extractor, ok := c.extractors[key.Strategy]
	if !ok {
		log.Error("no extractor registered, using fallback")
		c.fallbacks.Add(1)
		return extract.Fallback
	}

	result, err := c.load(context.WithoutCancel(ctx), key, extractor)
	if err != nil {
		log.Warn("extraction failed, using fallback", "error", err, "duration", time.Since(start))
		c.fallbacks.Add(1)
		return extract.Fallback
	}

	log.Debug("extraction complete", "duration", time.Since(start), "primary", result.Primary.Hex(), "secondary", result.Secondary.Hex())
	return result
}

func (c *Cache) load(ctx context.Context, key Key, extractor extract.Extractor) (extract.Result, error) {
	grid, err := c.source.Fetch(ctx, key.SourceURL)
	if err != nil {
		return extract.Result{}, err
	}

	result, err := extractor.Extract(grid)
	if err != nil {
		return extract.Result{}, err
	}

	if key.NormalizeFloor != nil {
		result = result.Normalize(*key.NormalizeFloor)
	}
	return result, nil
}
