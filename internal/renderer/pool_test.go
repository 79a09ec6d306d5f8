package renderer

import (
	"context"
	"errors"
	"testing"
	"time"

	crawlerrors "github.com/corpuscrawl/corpuscrawl/internal/errors"
	"github.com/corpuscrawl/corpuscrawl/internal/logger"
)

// A bogus binary path keeps the launcher from finding or downloading a real
// browser, so construction exercises the degraded path deterministically.
func newEmptyPool(t *testing.T) *Pool {
	t.Helper()
	cfg := DefaultConfig()
	cfg.BrowserBin = "/nonexistent/browser-binary"
	cfg.PoolSize = 2
	return NewPool(cfg, logger.Nop())
}

func TestNewPoolLaunchFailureYieldsEmptyPool(t *testing.T) {
	p := newEmptyPool(t)
	defer p.Close()

	if got := p.Live(); got != 0 {
		t.Fatalf("Live() = %d, want 0", got)
	}
}

func TestFetchFailsFastOnEmptyPool(t *testing.T) {
	p := newEmptyPool(t)
	defer p.Close()

	start := time.Now()
	_, err := p.Fetch(context.Background(), "https://example.com/")
	if !errors.Is(err, crawlerrors.ErrNoRenderer) {
		t.Fatalf("Fetch error = %v, want ErrNoRenderer", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Fetch blocked for %v, want immediate failure", elapsed)
	}

	var ce *crawlerrors.CrawlError
	if !errors.As(err, &ce) {
		t.Fatalf("Fetch error is not a CrawlError: %v", err)
	}
	if ce.Type != crawlerrors.RendererUnavailable {
		t.Fatalf("error type = %v, want %v", ce.Type, crawlerrors.RendererUnavailable)
	}
	if ce.URL != "https://example.com/" {
		t.Fatalf("error URL = %q", ce.URL)
	}
}

// A slot that claims to be live but has no session forces checkout down the
// relaunch path, and the bogus binary makes the relaunch fail, retiring the
// slot. Callers parked waiting for a free slot must then fail promptly
// instead of hanging until their context expires.
func TestFetchUnblocksWhenLastSessionRetires(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BrowserBin = "/nonexistent/browser-binary"
	p := &Pool{
		cfg:       cfg,
		log:       logger.Nop().WithComponent("renderer"),
		free:      make(chan int, 1),
		exhausted: make(chan struct{}),
	}
	p.slots = append(p.slots, &slot{id: 0, state: slotLive, userAgent: DefaultUserAgents[0]})
	p.live = 1
	p.free <- 0
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := p.Fetch(ctx, "https://example.com/")
			errs <- err
		}()
	}

	// One caller retires the slot; the other is blocked on the free channel
	// and must be woken by the retirement, not the context deadline.
	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, crawlerrors.ErrNoRenderer) {
				t.Fatalf("Fetch error = %v, want ErrNoRenderer", err)
			}
		case <-time.After(3 * time.Second):
			t.Fatal("Fetch still blocked after the last session was retired")
		}
	}
}

func TestFetchAfterClose(t *testing.T) {
	p := newEmptyPool(t)
	p.Close()
	p.Close() // idempotent

	if _, err := p.Fetch(context.Background(), "https://example.com/"); !errors.Is(err, crawlerrors.ErrNoRenderer) {
		t.Fatalf("Fetch after Close error = %v, want ErrNoRenderer", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Headless {
		t.Error("DefaultConfig should be headless")
	}
	if cfg.PoolSize != 1 {
		t.Errorf("PoolSize = %d, want 1", cfg.PoolSize)
	}
	if cfg.RenderSettle != 3*time.Second {
		t.Errorf("RenderSettle = %v, want 3s", cfg.RenderSettle)
	}
	if len(DefaultUserAgents) != 3 {
		t.Errorf("DefaultUserAgents length = %d, want 3", len(DefaultUserAgents))
	}
}
