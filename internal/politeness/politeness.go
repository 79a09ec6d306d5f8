// Package politeness enforces per-host request spacing and robots.txt
// policy for the crawler.
package politeness

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/corpuscrawl/corpuscrawl/internal/logger"
	"github.com/corpuscrawl/corpuscrawl/internal/urlnorm"
)

// Config holds politeness configuration.
type Config struct {
	// Delay is the minimum spacing between requests to the same host.
	Delay time.Duration
	// RespectRobots enables robots.txt enforcement. When false, IsAllowed
	// always returns true and Wait uses only Delay.
	RespectRobots bool
	// RequestsPerSecond caps the global request rate across all hosts.
	// Zero disables the cap.
	RequestsPerSecond float64
	// UserAgent is sent on robots.txt fetches.
	UserAgent string
	// HTTPClient overrides the robots.txt fetch client. Nil uses a default
	// with a 10s timeout.
	HTTPClient *http.Client
}

// hostState tracks one host for the process lifetime. Its mutex is held
// across the spacing sleep so concurrent workers targeting the same host are
// serialized, not merely individually delayed.
type hostState struct {
	mu         sync.Mutex
	lastAccess time.Time
	policy     policyEntry
}

// Controller gates requests per host: robots policy lookups are cached with
// at most one fetch attempt per host per run, and inter-request spacing is
// max(configured delay, robots crawl-delay).
type Controller struct {
	cfg    Config
	robots *robotsCache
	global *rate.Limiter
	log    *logger.Logger

	mu    sync.Mutex
	hosts map[string]*hostState
}

// NewController creates a politeness controller.
func NewController(cfg Config, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithComponent("politeness")

	c := &Controller{
		cfg:    cfg,
		robots: newRobotsCache(cfg.HTTPClient, cfg.UserAgent, log),
		log:    log,
		hosts:  make(map[string]*hostState),
	}
	if cfg.RequestsPerSecond > 0 {
		c.global = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c
}

// host returns the state record for a host, creating it lazily.
func (c *Controller) host(name string) *hostState {
	c.mu.Lock()
	defer c.mu.Unlock()

	hs, ok := c.hosts[name]
	if !ok {
		hs = &hostState{}
		c.hosts[name] = hs
	}
	return hs
}

// policy returns the cached robots policy for a host, fetching on first use.
func (c *Controller) policy(hs *hostState, hostname string) *policyEntry {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.policy.attempted {
		hs.policy.attempted = true
		hs.policy.data = c.robots.fetch(hostname)
	}
	return &hs.policy
}

// IsAllowed reports whether the URL's path is permitted for a wildcard
// agent. It always returns true when robots enforcement is disabled or the
// host's policy could not be fetched.
func (c *Controller) IsAllowed(rawURL string) bool {
	if !c.cfg.RespectRobots {
		return true
	}

	hostname := urlnorm.Host(rawURL)
	if hostname == "" {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}

	entry := c.policy(c.host(hostname), hostname)
	if !entry.allowed(path) {
		c.log.WithURL(rawURL).Debug("blocked by robots.txt")
		return false
	}
	return true
}

// Wait blocks until a request to the URL's host is permitted. It always
// stamps the host's last-access time before returning, whether or not it
// slept. Returns the context error on cancellation.
func (c *Controller) Wait(ctx context.Context, rawURL string) error {
	if c.global != nil {
		if err := c.global.Wait(ctx); err != nil {
			return err
		}
	}

	hostname := urlnorm.Host(rawURL)
	if hostname == "" {
		return nil
	}
	hs := c.host(hostname)

	delay := c.cfg.Delay
	if c.cfg.RespectRobots {
		if robotsDelay := c.policy(hs, hostname).crawlDelay(); robotsDelay > delay {
			delay = robotsDelay
		}
	}

	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.lastAccess.IsZero() {
		elapsed := time.Since(hs.lastAccess)
		if elapsed < delay {
			select {
			case <-time.After(delay - elapsed):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	hs.lastAccess = time.Now()
	return nil
}

// HostCount returns the number of hosts seen so far.
func (c *Controller) HostCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hosts)
}
