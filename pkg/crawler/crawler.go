// Package crawler orchestrates bounded, polite crawls of JavaScript-rendered
// sites, producing a JSON corpus of extracted page records.
package crawler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corpuscrawl/corpuscrawl/internal/archive"
	crawlerrors "github.com/corpuscrawl/corpuscrawl/internal/errors"
	"github.com/corpuscrawl/corpuscrawl/internal/extract"
	"github.com/corpuscrawl/corpuscrawl/internal/frontier"
	"github.com/corpuscrawl/corpuscrawl/internal/logger"
	"github.com/corpuscrawl/corpuscrawl/internal/politeness"
	"github.com/corpuscrawl/corpuscrawl/internal/renderer"
	"github.com/corpuscrawl/corpuscrawl/internal/report"
	"github.com/corpuscrawl/corpuscrawl/internal/urlnorm"
)

// frontierCapacity sizes the visited-set bloom filter.
const frontierCapacity = 100000

// Crawler is the crawl orchestrator.
type Crawler struct {
	config  *Config
	log     *logger.Logger
	fetcher Fetcher

	pool       *renderer.Pool
	front      *frontier.Frontier
	politeness *politeness.Controller
	allowed    *extract.AllowedHost
	content    *extract.ContentExtractor
	writer     *report.Writer
	archive    *archive.Store

	seed   string
	domain string

	mu       sync.Mutex
	pages    []report.PageRecord
	failed   atomic.Int64
	inflight atomic.Int64

	running atomic.Bool
	state   atomic.Int32
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a crawler with the given options.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.log == nil {
		logLevel := logger.InfoLevel
		if c.config.Debug {
			logLevel = logger.DebugLevel
		} else if !c.config.Verbose {
			logLevel = logger.WarnLevel
		}
		c.log = logger.New(logger.Config{
			Level:     logLevel,
			Pretty:    true,
			Component: "crawler",
		})
	}

	return c, nil
}

// initialize sets up all crawl components. Failures here are startup
// failures and abort the run.
func (c *Crawler) initialize() error {
	seedURL := c.config.Seed
	if !strings.Contains(seedURL, "://") {
		seedURL = "https://" + seedURL
	}
	seed, ok := urlnorm.Normalize(seedURL, nil)
	if !ok {
		return fmt.Errorf("invalid seed URL: %s", c.config.Seed)
	}
	c.seed = seed
	c.domain = urlnorm.Host(seed)

	c.allowed = extract.NewAllowedHost(append([]string{c.domain}, c.config.AllowedDomains...))
	for host, prefix := range c.config.PathPrefixes {
		c.allowed.RestrictPath(host, prefix)
	}

	c.front = frontier.New(frontierCapacity)

	c.politeness = politeness.NewController(politeness.Config{
		Delay:             c.config.Delay,
		RespectRobots:     c.config.RespectRobots,
		RequestsPerSecond: c.config.RequestsPerSecond,
		UserAgent:         firstUserAgent(c.config.UserAgents),
	}, c.log)

	mode := extract.Text
	if c.config.Markdown {
		mode = extract.Markdown
	}
	noise := extract.DefaultNoiseTags
	if c.config.StripChrome {
		noise = extract.ChromeNoiseTags
	}
	c.content = extract.NewContentExtractor(extract.ContentConfig{
		Mode:        mode,
		NoiseTags:   noise,
		IncludeHTML: c.config.IncludeHTML,
	})

	writer, err := report.NewWriter(c.config.OutputDir)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	c.writer = writer

	if c.config.ArchivePath != "" {
		store, err := archive.Open(c.config.ArchivePath)
		if err != nil {
			return fmt.Errorf("failed to open page archive: %w", err)
		}
		c.archive = store
	}

	if c.fetcher == nil {
		c.pool = renderer.NewPool(renderer.Config{
			PoolSize:        c.config.Renderers,
			Headless:        c.config.Headless,
			BrowserBin:      c.config.BrowserBin,
			RenderSettle:    c.config.RenderSettle,
			ScrollSettle:    c.config.ScrollSettle,
			NavigateTimeout: c.config.NavigateTimeout,
			UserAgents:      c.config.UserAgents,
			ExtraHeaders:    c.config.ExtraHeaders,
			ViewportWidth:   1920,
			ViewportHeight:  1080,
		}, c.log)
		c.fetcher = c.pool
	}

	return nil
}

// Run executes the crawl until the frontier drains, the page budget is
// reached, or the context is cancelled. The final report is written on every
// exit path; per-URL failures are logged and never abort the run.
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("crawler is already running")
	}
	defer c.running.Store(false)

	c.state.Store(int32(StateRunning))
	started := time.Now()

	if err := c.initialize(); err != nil {
		c.state.Store(int32(StateFinalized))
		return nil, err
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	defer c.cancel()

	c.front.Push(c.seed, 0)
	c.log.Infof("Starting crawl of %s (max %d pages, depth %d)", c.domain, c.config.MaxPages, c.config.MaxDepth)

	workers := c.config.Workers
	if workers > c.config.Renderers {
		workers = c.config.Renderers
	}
	for i := 0; i < workers; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
	c.wg.Wait()

	c.state.Store(int32(StateDraining))
	result, err := c.finalize(started)
	c.state.Store(int32(StateFinalized))
	return result, err
}

// finalize writes the final report and releases resources. It runs on every
// exit path, including cancellation and empty crawls.
func (c *Crawler) finalize(started time.Time) (*Result, error) {
	if c.pool != nil {
		c.pool.Close()
	}
	if c.archive != nil {
		if err := c.archive.Close(); err != nil {
			c.log.WithError(err).Warn("Failed to close page archive")
		}
	}

	c.mu.Lock()
	pages := make([]report.PageRecord, len(c.pages))
	copy(pages, c.pages)
	c.mu.Unlock()

	result := &Result{
		Domain:      c.domain,
		Pages:       pages,
		FailedURLs:  int(c.failed.Load()),
		URLsSeen:    c.front.VisitedCount(),
		StartedAt:   started,
		CompletedAt: time.Now(),
	}

	path, err := c.writer.WriteFinal(report.NewCrawlReport(c.domain, pages))
	if err != nil {
		c.log.WithError(err).Error("Failed to write final report")
		return result, fmt.Errorf("failed to write final report: %w", err)
	}
	result.ReportPath = path

	c.log.Infof("Crawl finished: %d pages, %d failed URLs, report at %s",
		len(pages), result.FailedURLs, path)
	return result, nil
}

// worker pulls tasks from the frontier until the crawl drains or stops.
func (c *Crawler) worker(id int) {
	defer c.wg.Done()

	log := c.log.WithSlot(id)
	emptyCount := 0
	maxEmptyChecks := 15

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		task, ok := c.front.Pop()
		if !ok {
			// Another worker's render may still yield new links, so an
			// empty frontier alone is not a drained crawl.
			if c.inflight.Load() > 0 {
				emptyCount = 0
				time.Sleep(20 * time.Millisecond)
				continue
			}
			emptyCount++
			if emptyCount >= maxEmptyChecks {
				// Frontier has stayed empty with nothing in flight.
				return
			}
			// Progressive backoff
			time.Sleep(time.Duration(20+emptyCount*10) * time.Millisecond)
			continue
		}
		emptyCount = 0

		c.inflight.Add(1)
		keepGoing := c.handleTask(log, task)
		c.inflight.Add(-1)
		if !keepGoing {
			return
		}
	}
}

// handleTask claims, vets, and processes one popped task. It returns false
// only when the crawl is stopping and the worker should exit.
func (c *Crawler) handleTask(log *logger.Logger, task frontier.Task) bool {
	// Claim the URL. A false return means another worker got it first.
	if !c.front.MarkVisited(task.URL) {
		return true
	}

	if !c.politeness.IsAllowed(task.URL) {
		log.WithURL(task.URL).Debug("Skipping disallowed URL")
		return true
	}

	if err := c.politeness.Wait(c.ctx, task.URL); err != nil {
		return false
	}

	c.processTask(log, task)
	return true
}

// processTask renders one URL, extracts its content and links, and records
// the page. All failures are contained at the URL level.
func (c *Crawler) processTask(log *logger.Logger, task frontier.Task) {
	start := time.Now()
	html, err := c.fetcher.Fetch(c.ctx, task.URL)
	if err != nil {
		cerr := crawlerrors.Categorize(err, task.URL)
		if cerr.Type == crawlerrors.Cancelled {
			return
		}
		c.failed.Add(1)
		log.WithURL(task.URL).WithError(cerr).Warn("Failed to fetch page")
		return
	}

	rec := c.content.Extract(html, task.URL)

	c.mu.Lock()
	if len(c.pages) >= c.config.MaxPages {
		c.mu.Unlock()
		c.cancel()
		return
	}
	c.pages = append(c.pages, rec)
	count := len(c.pages)
	var checkpoint []report.PageRecord
	if count%c.config.CheckpointEvery == 0 {
		checkpoint = make([]report.PageRecord, count)
		copy(checkpoint, c.pages)
	}
	c.mu.Unlock()

	c.log.PageEvent(task.URL, task.Depth, count, c.config.MaxPages, time.Since(start))

	if c.archive != nil {
		if err := c.archive.Put(rec); err != nil {
			log.WithURL(task.URL).WithError(err).Warn("Failed to archive page")
		}
	}

	if checkpoint != nil {
		if path, err := c.writer.WriteCheckpoint(checkpoint); err != nil {
			log.WithError(err).Warn("Failed to write checkpoint")
		} else {
			log.Debugf("Checkpoint written to %s", path)
		}
	}

	if count >= c.config.MaxPages {
		log.Info("Page budget reached, draining")
		c.cancel()
		return
	}

	if task.Depth < c.config.MaxDepth {
		links := extract.Links(html, task.URL, c.admit)
		for _, link := range links {
			c.front.Push(link, task.Depth+1)
		}
		if len(links) > 0 {
			log.WithURL(task.URL).Debugf("Queued %d links at depth %d", len(links), task.Depth+1)
		}
	}
}

// admit decides whether a discovered, already-normalized link enters the
// frontier.
func (c *Crawler) admit(normalized string) bool {
	if extract.ExcludedURL(normalized) {
		return false
	}
	if !c.allowed.Admits(normalized) {
		return false
	}
	return !c.front.Seen(normalized)
}

// Stop initiates draining. The in-flight pages finish and the final report
// is still written.
func (c *Crawler) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// State returns the current lifecycle state.
func (c *Crawler) State() State {
	return State(c.state.Load())
}

// IsRunning reports whether a run is in progress.
func (c *Crawler) IsRunning() bool {
	return c.running.Load()
}

func firstUserAgent(agents []string) string {
	if len(agents) > 0 {
		return agents[0]
	}
	return renderer.DefaultUserAgents[0]
}
