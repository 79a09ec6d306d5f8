package politeness

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/corpuscrawl/corpuscrawl/internal/logger"
)

// robotsTransport serves canned robots.txt responses without a network.
type robotsTransport struct {
	status int
	body   string
	err    error
	calls  int
}

func (rt *robotsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.calls++
	if rt.err != nil {
		return nil, rt.err
	}
	return &http.Response{
		StatusCode: rt.status,
		Body:       io.NopCloser(strings.NewReader(rt.body)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestController(cfg Config, rt *robotsTransport) *Controller {
	cfg.HTTPClient = &http.Client{Transport: rt}
	return NewController(cfg, logger.Nop())
}

func TestIsAllowedDisallowedPath(t *testing.T) {
	rt := &robotsTransport{
		status: http.StatusOK,
		body:   "User-agent: *\nDisallow: /private/\n",
	}
	c := newTestController(Config{RespectRobots: true}, rt)

	if c.IsAllowed("https://example.com/private/page") {
		t.Error("disallowed path should be blocked")
	}
	if !c.IsAllowed("https://example.com/public") {
		t.Error("allowed path should pass")
	}
}

func TestIsAllowedEnforcementDisabled(t *testing.T) {
	rt := &robotsTransport{
		status: http.StatusOK,
		body:   "User-agent: *\nDisallow: /\n",
	}
	c := newTestController(Config{RespectRobots: false}, rt)

	if !c.IsAllowed("https://example.com/anything") {
		t.Error("enforcement off should allow everything")
	}
	if rt.calls != 0 {
		t.Errorf("robots fetched %d times with enforcement off, want 0", rt.calls)
	}
}

func TestRobotsFetchFailureDegradesPermissive(t *testing.T) {
	rt := &robotsTransport{err: errors.New("connection refused")}
	c := newTestController(Config{RespectRobots: true}, rt)

	if !c.IsAllowed("https://example.com/page") {
		t.Error("fetch failure should degrade to permissive")
	}
}

func TestRobotsFetchedOncePerHost(t *testing.T) {
	rt := &robotsTransport{err: errors.New("connection refused")}
	c := newTestController(Config{RespectRobots: true}, rt)

	for i := 0; i < 5; i++ {
		c.IsAllowed("https://example.com/page")
	}
	if rt.calls != 1 {
		t.Errorf("robots fetched %d times, want 1 (failures cached)", rt.calls)
	}
}

func TestRobotsServerErrorDegradesPermissive(t *testing.T) {
	rt := &robotsTransport{status: http.StatusInternalServerError, body: ""}
	c := newTestController(Config{RespectRobots: true}, rt)

	if !c.IsAllowed("https://example.com/page") {
		t.Error("5xx robots should degrade to permissive")
	}
}

func TestWaitEnforcesConfiguredDelay(t *testing.T) {
	rt := &robotsTransport{status: http.StatusNotFound}
	c := newTestController(Config{Delay: 60 * time.Millisecond}, rt)

	ctx := context.Background()
	url := "https://example.com/a"

	if err := c.Wait(ctx, url); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	start := time.Now()
	if err := c.Wait(ctx, url); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if gap := time.Since(start); gap < 55*time.Millisecond {
		t.Errorf("second request after %v, want >= 60ms spacing", gap)
	}
}

func TestWaitUsesRobotsCrawlDelayWhenLarger(t *testing.T) {
	rt := &robotsTransport{
		status: http.StatusOK,
		body:   "User-agent: *\nCrawl-delay: 0.1\n",
	}
	c := newTestController(Config{Delay: 10 * time.Millisecond, RespectRobots: true}, rt)

	ctx := context.Background()
	url := "https://example.com/a"

	if err := c.Wait(ctx, url); err != nil {
		t.Fatalf("first Wait: %v", err)
	}
	start := time.Now()
	if err := c.Wait(ctx, url); err != nil {
		t.Fatalf("second Wait: %v", err)
	}
	if gap := time.Since(start); gap < 90*time.Millisecond {
		t.Errorf("second request after %v, want >= 100ms robots crawl-delay", gap)
	}
}

func TestWaitDifferentHostsIndependent(t *testing.T) {
	rt := &robotsTransport{status: http.StatusNotFound}
	c := newTestController(Config{Delay: 200 * time.Millisecond}, rt)

	ctx := context.Background()
	if err := c.Wait(ctx, "https://one.example.com/"); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := c.Wait(ctx, "https://two.example.com/"); err != nil {
		t.Fatal(err)
	}
	if gap := time.Since(start); gap > 100*time.Millisecond {
		t.Errorf("different host waited %v, hosts should be independent", gap)
	}

	if c.HostCount() != 2 {
		t.Errorf("HostCount = %d, want 2", c.HostCount())
	}
}

func TestWaitCancelled(t *testing.T) {
	rt := &robotsTransport{status: http.StatusNotFound}
	c := newTestController(Config{Delay: 5 * time.Second}, rt)

	url := "https://example.com/a"
	if err := c.Wait(context.Background(), url); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Wait(ctx, url); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait under cancelled context = %v, want deadline exceeded", err)
	}
}
