package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all crawler configuration.
type Config struct {
	// Seed URL or bare domain to start from
	Seed string `json:"seed" yaml:"seed"`

	// Additional domains whose links may be followed
	AllowedDomains []string `json:"allowed_domains" yaml:"allowed_domains"`

	// Per-domain path prefix restriction (host -> required prefix)
	PathPrefixes map[string]string `json:"path_prefixes" yaml:"path_prefixes"`

	// Number of concurrent workers (capped at the renderer pool size)
	Workers int `json:"workers" yaml:"workers"`

	// Page budget for the whole run
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Maximum link depth from the seed (seed is depth 0)
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Minimum spacing between requests to the same host
	Delay time.Duration `json:"delay" yaml:"delay"`

	// Enforce robots.txt disallow rules and crawl-delay
	RespectRobots bool `json:"respect_robots" yaml:"respect_robots"`

	// Global request rate cap across all hosts (0 = off)
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// Wait after navigation for scripts to settle
	RenderSettle time.Duration `json:"render_settle" yaml:"render_settle"`

	// Wait after the lazy-load scroll
	ScrollSettle time.Duration `json:"scroll_settle" yaml:"scroll_settle"`

	// Navigation timeout per page
	NavigateTimeout time.Duration `json:"navigate_timeout" yaml:"navigate_timeout"`

	// Number of browser sessions in the renderer pool
	Renderers int `json:"renderers" yaml:"renderers"`

	// Headless browser mode
	Headless bool `json:"headless" yaml:"headless"`

	// Browser binary override (empty = auto-detect)
	BrowserBin string `json:"browser_bin" yaml:"browser_bin"`

	// User agents rotated across renderer slots (empty = built-in list)
	UserAgents []string `json:"user_agents" yaml:"user_agents"`

	// Extra headers sent on every request
	ExtraHeaders map[string]string `json:"extra_headers" yaml:"extra_headers"`

	// Emit markdown instead of plain text
	Markdown bool `json:"markdown" yaml:"markdown"`

	// Strip page chrome (header, footer, nav, images) before extraction
	StripChrome bool `json:"strip_chrome" yaml:"strip_chrome"`

	// Embed raw HTML in each page record
	IncludeHTML bool `json:"include_html" yaml:"include_html"`

	// Directory for checkpoint and final report files
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Optional bbolt archive of page records (empty = off)
	ArchivePath string `json:"archive_path" yaml:"archive_path"`

	// Checkpoint after every N pages
	CheckpointEvery int `json:"checkpoint_every" yaml:"checkpoint_every"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Debug mode
	Debug bool `json:"debug" yaml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:         1,
		MaxPages:        50,
		MaxDepth:        2,
		Delay:           1 * time.Second,
		RespectRobots:   true,
		RenderSettle:    3 * time.Second,
		ScrollSettle:    1 * time.Second,
		NavigateTimeout: 30 * time.Second,
		Renderers:       1,
		Headless:        true,
		OutputDir:       "crawled_data",
		CheckpointEvery: 10,
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Seed == "" {
		return fmt.Errorf("seed URL is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1")
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative")
	}
	if c.Renderers < 1 {
		return fmt.Errorf("renderers must be at least 1")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if c.CheckpointEvery < 1 {
		return fmt.Errorf("checkpoint interval must be at least 1")
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
