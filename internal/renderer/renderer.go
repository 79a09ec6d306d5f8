// Package renderer provides JavaScript-capable page rendering through a pool
// of headless Chrome sessions driven over CDP via Rod.
package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// DefaultUserAgents is the rotation list assigned to pool slots, cyclically.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/92.0.4515.107 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 11_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.1 Safari/605.1.15",
}

// Config defines renderer pool configuration.
type Config struct {
	// PoolSize is the number of browser sessions to launch.
	PoolSize int
	// Headless controls headless mode. On by default in DefaultConfig.
	Headless bool
	// BrowserBin overrides browser binary discovery. Empty uses the first
	// installed browser found on the system; if none is found the pool
	// initializes empty.
	BrowserBin string
	// RenderSettle is how long to wait after navigation for asynchronous
	// script execution.
	RenderSettle time.Duration
	// ScrollSettle is the short wait after the lazy-load scroll.
	ScrollSettle time.Duration
	// NavigateTimeout bounds a single navigation.
	NavigateTimeout time.Duration
	// UserAgents rotate across slots. Empty uses DefaultUserAgents.
	UserAgents []string
	// ExtraHeaders are added to every request of every session.
	ExtraHeaders map[string]string
	// ViewportWidth and ViewportHeight set the emulated viewport.
	ViewportWidth  int
	ViewportHeight int
}

// DefaultConfig returns default renderer configuration.
func DefaultConfig() Config {
	return Config{
		PoolSize:        1,
		Headless:        true,
		RenderSettle:    3 * time.Second,
		ScrollSettle:    1 * time.Second,
		NavigateTimeout: 30 * time.Second,
		ViewportWidth:   1920,
		ViewportHeight:  1080,
	}
}

// Session wraps one Rod browser connection with its assigned user agent.
type Session struct {
	id        int
	browser   *rod.Browser
	userAgent string
	headers   map[string]string
	viewportW int
	viewportH int
}

// newSession launches a browser and verifies it responds before handing it
// out, mirroring a warmup visit to about:blank.
func newSession(id int, cfg Config, userAgent string) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("disable-extensions").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.ViewportWidth, cfg.ViewportHeight))

	bin := cfg.BrowserBin
	if bin == "" {
		found, has := launcher.LookPath()
		if !has {
			return nil, fmt.Errorf("no browser binary found on this system")
		}
		bin = found
	}
	l = l.Bin(bin)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	browser = browser.Timeout(cfg.NavigateTimeout)

	s := &Session{
		id:        id,
		browser:   browser,
		userAgent: userAgent,
		headers:   cfg.ExtraHeaders,
		viewportW: cfg.ViewportWidth,
		viewportH: cfg.ViewportHeight,
	}

	// Warmup probe: a session that cannot open a blank page is not worth
	// keeping in the pool.
	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("browser warmup failed: %w", err)
	}
	page.Close()

	return s, nil
}

// Alive is the liveness probe: a cheap CDP round trip.
func (s *Session) Alive() bool {
	_, err := s.browser.Version()
	return err == nil
}

// render navigates to a URL, waits for scripts to settle, triggers
// lazy-loaded content with a best-effort scroll, and captures the rendered
// document source.
func (s *Session) render(ctx context.Context, url string, settle, scrollSettle time.Duration) (string, error) {
	page, err := s.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)

	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  s.viewportW,
		Height: s.viewportH,
	})
	if s.userAgent != "" {
		_ = proto.NetworkSetUserAgentOverride{UserAgent: s.userAgent}.Call(page)
	}
	if len(s.headers) > 0 {
		networkHeaders := make(proto.NetworkHeaders, len(s.headers))
		for k, v := range s.headers {
			networkHeaders[k] = gson.New(v)
		}
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: networkHeaders}.Call(page)
	}

	if err := page.Navigate(url); err != nil {
		return "", err
	}
	if err := page.WaitLoad(); err != nil {
		return "", err
	}
	if err := sleep(ctx, settle); err != nil {
		return "", err
	}

	// Scroll failures are swallowed: lazy-load triggering is opportunistic.
	if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err == nil {
		if err := sleep(ctx, scrollSettle); err != nil {
			return "", err
		}
	}

	return page.HTML()
}

// Close terminates the browser.
func (s *Session) Close() error {
	return s.browser.Close()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
