package crawler

import (
	"time"

	"github.com/corpuscrawl/corpuscrawl/internal/logger"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		c.config = config
		return nil
	}
}

// WithSeed sets the seed URL or domain.
func WithSeed(seed string) Option {
	return func(c *Crawler) error {
		c.config.Seed = seed
		return nil
	}
}

// WithAllowedDomains adds domains whose links may be followed.
func WithAllowedDomains(domains ...string) Option {
	return func(c *Crawler) error {
		c.config.AllowedDomains = append(c.config.AllowedDomains, domains...)
		return nil
	}
}

// WithPathPrefix restricts a domain to URLs under the given path prefix.
func WithPathPrefix(host, prefix string) Option {
	return func(c *Crawler) error {
		if c.config.PathPrefixes == nil {
			c.config.PathPrefixes = make(map[string]string)
		}
		c.config.PathPrefixes[host] = prefix
		return nil
	}
}

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Workers = n
		return nil
	}
}

// WithMaxPages sets the page budget.
func WithMaxPages(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.MaxPages = n
		return nil
	}
}

// WithMaxDepth sets the maximum link depth.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) error {
		if depth < 0 {
			depth = 0
		}
		c.config.MaxDepth = depth
		return nil
	}
}

// WithDelay sets the per-host request spacing.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) error {
		c.config.Delay = d
		return nil
	}
}

// WithRespectRobots enables/disables robots.txt enforcement.
func WithRespectRobots(respect bool) Option {
	return func(c *Crawler) error {
		c.config.RespectRobots = respect
		return nil
	}
}

// WithRequestsPerSecond sets the global request rate cap.
func WithRequestsPerSecond(rps float64) Option {
	return func(c *Crawler) error {
		c.config.RequestsPerSecond = rps
		return nil
	}
}

// WithRenderSettle sets the post-navigation settle wait.
func WithRenderSettle(d time.Duration) Option {
	return func(c *Crawler) error {
		c.config.RenderSettle = d
		return nil
	}
}

// WithRenderers sets the renderer pool size.
func WithRenderers(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Renderers = n
		return nil
	}
}

// WithHeadless enables/disables headless browser mode.
func WithHeadless(headless bool) Option {
	return func(c *Crawler) error {
		c.config.Headless = headless
		return nil
	}
}

// WithUserAgents sets the user-agent rotation list.
func WithUserAgents(agents ...string) Option {
	return func(c *Crawler) error {
		c.config.UserAgents = agents
		return nil
	}
}

// WithExtraHeaders sets headers sent on every request.
func WithExtraHeaders(headers map[string]string) Option {
	return func(c *Crawler) error {
		if c.config.ExtraHeaders == nil {
			c.config.ExtraHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.config.ExtraHeaders[k] = v
		}
		return nil
	}
}

// WithMarkdown enables markdown content output.
func WithMarkdown(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.Markdown = enabled
		return nil
	}
}

// WithStripChrome enables stripping of page chrome before extraction.
func WithStripChrome(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.StripChrome = enabled
		return nil
	}
}

// WithIncludeHTML embeds raw HTML in page records.
func WithIncludeHTML(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.IncludeHTML = enabled
		return nil
	}
}

// WithOutputDir sets the report output directory.
func WithOutputDir(dir string) Option {
	return func(c *Crawler) error {
		c.config.OutputDir = dir
		return nil
	}
}

// WithArchive enables the page archive at the given path.
func WithArchive(path string) Option {
	return func(c *Crawler) error {
		c.config.ArchivePath = path
		return nil
	}
}

// WithFetcher substitutes the page fetcher. When set, no browser pool is
// launched.
func WithFetcher(f Fetcher) Option {
	return func(c *Crawler) error {
		c.fetcher = f
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		c.log = l
		return nil
	}
}

// WithVerbose enables/disables verbose logging.
func WithVerbose(verbose bool) Option {
	return func(c *Crawler) error {
		c.config.Verbose = verbose
		return nil
	}
}

// WithDebug enables/disables debug mode.
func WithDebug(debug bool) Option {
	return func(c *Crawler) error {
		c.config.Debug = debug
		return nil
	}
}
