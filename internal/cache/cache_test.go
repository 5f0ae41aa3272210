package cache

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ironsheep/colorfetch/internal/colormath"
	"github.com/ironsheep/colorfetch/internal/extract"
	"github.com/ironsheep/colorfetch/internal/imaging"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createTwoRegionGrid() imaging.PixelGrid {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if x < 100 {
				img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 20, B: 20, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{R: 20, G: 20, B: 100, A: 255})
			}
		}
	}
	return imaging.NewGrid(img)
}

// countingSource returns the same grid for every URL after an optional delay.
type countingSource struct {
	grid  imaging.PixelGrid
	err   error
	delay time.Duration
	calls atomic.Int32

	// onFetch runs at the start of every fetch when set.
	onFetch func()
}

func (s *countingSource) Fetch(ctx context.Context, url string) (imaging.PixelGrid, error) {
	s.calls.Add(1)
	if s.onFetch != nil {
		s.onFetch()
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.grid, nil
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(imaging.PixelGrid) (extract.Result, error) {
	panic("unexpected")
}

func newTestCache(src Source, opts ...Option) *Cache {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(src, map[extract.Strategy]extract.Extractor{
		extract.MedianCut:    extract.NewMedianCutExtractor(),
		extract.NamedPalette: extract.NewNamedPaletteExtractor(nil),
	}, opts...)
}

func floor(v float64) *float64 { return &v }

func TestKeyString(t *testing.T) {
	base := Key{SourceURL: "http://x/a.png", Strategy: extract.MedianCut}
	zero := Key{SourceURL: "http://x/a.png", Strategy: extract.MedianCut, NormalizeFloor: floor(0)}
	other := Key{SourceURL: "http://x/a.png", Strategy: extract.NamedPalette}

	if base.String() == zero.String() {
		t.Error("absent floor and floor 0 must be distinct keys")
	}
	if base.String() == other.String() {
		t.Error("keys differing in strategy must be distinct")
	}
	if zero.String() != (Key{SourceURL: "http://x/a.png", Strategy: extract.MedianCut, NormalizeFloor: floor(0)}).String() {
		t.Error("equal keys with distinct floor pointers must match")
	}
}

func TestGet_SingleFlight(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid(), delay: 50 * time.Millisecond}
	c := newTestCache(src)
	key := Key{SourceURL: "http://example.com/img.png", Strategy: extract.MedianCut}

	const n = 100
	results := make([]extract.Result, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = c.Get(context.Background(), key)
		}(i)
	}
	close(start)
	wg.Wait()

	if calls := src.calls.Load(); calls != 1 {
		t.Errorf("source fetched %d times, want 1", calls)
	}
	for i, r := range results {
		if r != results[0] {
			t.Fatalf("result %d = %+v differs from %+v", i, r, results[0])
		}
	}
	if results[0] == extract.Fallback {
		t.Error("expected a computed result, got fallback")
	}

	stats := c.Stats()
	if stats.Loads != 1 || stats.Hits+stats.Misses != n {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestGet_DistinctKeysInParallel(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid(), delay: 100 * time.Millisecond}
	c := newTestCache(src)

	begin := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Get(context.Background(), Key{SourceURL: fmt.Sprintf("http://example.com/%d.png", i)})
		}(i)
	}
	wg.Wait()

	if calls := src.calls.Load(); calls != 5 {
		t.Errorf("source fetched %d times, want 5", calls)
	}
	if elapsed := time.Since(begin); elapsed > 400*time.Millisecond {
		t.Errorf("distinct keys took %v, expected them to load in parallel", elapsed)
	}
}

func TestGet_NormalizeFloor(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid()}
	c := newTestCache(src)

	plain := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png"})
	floored := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png", NormalizeFloor: floor(0.9)})

	if plain == floored {
		t.Fatal("normalized and plain results are identical")
	}
	for _, col := range []colormath.RGB{floored.Primary, floored.Secondary} {
		if v := colormath.Brightness(col.R, col.G, col.B); v < 0.9 {
			t.Errorf("normalized color %v has brightness %f, want >= 0.9", col, v)
		}
	}
	if v := colormath.Brightness(plain.Primary.R, plain.Primary.G, plain.Primary.B); v >= 0.9 {
		t.Errorf("plain primary %v already bright (%f); fixture too bright", plain.Primary, v)
	}
	if src.calls.Load() != 2 {
		t.Errorf("source fetched %d times, want 2 (one per key)", src.calls.Load())
	}
}

func TestGet_FloorChangedDuringLoad(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid()}
	c := newTestCache(src)

	level := 0.9
	src.onFetch = func() { level = 0 }
	first := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png", NormalizeFloor: &level})

	for _, col := range []colormath.RGB{first.Primary, first.Secondary} {
		if v := colormath.Brightness(col.R, col.G, col.B); v < 0.9 {
			t.Errorf("color %v has brightness %f, want the floor read at entry (0.9)", col, v)
		}
	}

	src.onFetch = nil
	again := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png", NormalizeFloor: floor(0.9)})
	if again != first {
		t.Errorf("Get with floor 0.9 = %+v, want cached %+v", again, first)
	}
	unfloored := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png", NormalizeFloor: floor(0)})
	if unfloored == first {
		t.Error("floor 0 served the result computed for floor 0.9")
	}
	if src.calls.Load() != 2 {
		t.Errorf("source fetched %d times, want 2", src.calls.Load())
	}
}

func TestGet_FailureIsCachedAsFallback(t *testing.T) {
	src := &countingSource{err: fmt.Errorf("%w: status 404", imaging.ErrUnreachableSource)}
	c := newTestCache(src)
	key := Key{SourceURL: "http://example.com/missing.png"}

	if r := c.Get(context.Background(), key); r != extract.Fallback {
		t.Errorf("first Get = %+v, want fallback", r)
	}
	if r := c.Get(context.Background(), key); r != extract.Fallback {
		t.Errorf("second Get = %+v, want fallback", r)
	}
	if src.calls.Load() != 1 {
		t.Errorf("source fetched %d times, want 1", src.calls.Load())
	}
	if c.Stats().Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", c.Stats().Fallbacks)
	}
}

func TestGet_UnknownStrategy(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid()}
	c := newTestCache(src)

	r := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png", Strategy: extract.Strategy(99)})
	if r != extract.Fallback {
		t.Errorf("Get = %+v, want fallback", r)
	}
	if src.calls.Load() != 0 {
		t.Error("source fetched for an unknown strategy")
	}
}

func TestGet_PanicBecomesFallback(t *testing.T) {
	src := &countingSource{grid: createTwoRegionGrid()}
	c := New(src, map[extract.Strategy]extract.Extractor{
		extract.MedianCut: panickingExtractor{},
	}, WithLogger(quietLogger()))

	if r := c.Get(context.Background(), Key{SourceURL: "http://example.com/a.png"}); r != extract.Fallback {
		t.Errorf("Get = %+v, want fallback", r)
	}
	// The cache must still work for other keys afterwards.
	if r := c.Get(context.Background(), Key{SourceURL: "http://example.com/b.png"}); r != extract.Fallback {
		t.Errorf("Get = %+v, want fallback", r)
	}
}

func TestEvict(t *testing.T) {
	src := &countingSource{err: errors.New("transient")}
	c := newTestCache(src)
	key := Key{SourceURL: "http://example.com/a.png"}

	c.Get(context.Background(), key)
	if !c.Evict(key) {
		t.Fatal("Evict reported the key absent")
	}
	if c.Evict(key) {
		t.Error("second Evict reported the key present")
	}

	src.err = nil
	src.grid = createTwoRegionGrid()
	if r := c.Get(context.Background(), key); r == extract.Fallback {
		t.Error("expected a fresh computation after eviction")
	}
	if src.calls.Load() != 2 {
		t.Errorf("source fetched %d times, want 2", src.calls.Load())
	}
}

func TestCapacity(t *testing.T) {
	src := &countingSource{err: errors.New("nope")}
	c := newTestCache(src, WithCapacity(3))

	for i := 0; i < 5; i++ {
		c.Get(context.Background(), Key{SourceURL: fmt.Sprintf("http://example.com/%d.png", i)})
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}

	// The oldest key was evicted and is recomputed.
	c.Get(context.Background(), Key{SourceURL: "http://example.com/0.png"})
	if src.calls.Load() != 6 {
		t.Errorf("source fetched %d times, want 6", src.calls.Load())
	}

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len after Clear = %d", c.Len())
	}
}
