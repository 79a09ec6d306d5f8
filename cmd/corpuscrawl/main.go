package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/corpuscrawl/corpuscrawl/internal/shutdown"
	"github.com/corpuscrawl/corpuscrawl/pkg/crawler"
)

var (
	version = "1.0.0"

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	// Crawl flags
	workers       int
	maxPages      int
	maxDepth      int
	delay         time.Duration
	renderSettle  time.Duration
	respectRobots bool
	rateLimit     float64
	renderers     int
	headless      bool
	outputDir     string
	archivePath   string
	allowDomains  []string
	markdown      bool
	stripChrome   bool
	includeHTML   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corpuscrawl",
		Short: "corpuscrawl - JavaScript-aware corpus crawler",
		Long: `corpuscrawl crawls JavaScript-rendered sites within a bounded scope and
produces a JSON corpus of extracted page text, suitable for indexing or
dataset construction.`,
		Version: version,
	}

	crawlCmd := &cobra.Command{
		Use:   "crawl [domain-or-url]",
		Short: "Crawl a domain",
		Long:  "Crawl a domain or seed URL, rendering JavaScript, and write the extracted corpus as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE:  runCrawl,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Debug mode")

	// Crawl flags
	crawlCmd.Flags().IntVarP(&workers, "workers", "w", 1, "Number of concurrent workers")
	crawlCmd.Flags().IntVarP(&maxPages, "max-pages", "n", 50, "Maximum number of pages to crawl")
	crawlCmd.Flags().IntVarP(&maxDepth, "max-depth", "d", 2, "Maximum link depth from the seed")
	crawlCmd.Flags().DurationVar(&delay, "delay", time.Second, "Minimum delay between requests to the same host")
	crawlCmd.Flags().DurationVar(&renderSettle, "render-settle", 3*time.Second, "Wait after navigation for scripts to settle")
	crawlCmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "Respect robots.txt disallow rules and crawl-delay")
	crawlCmd.Flags().Float64VarP(&rateLimit, "rate-limit", "r", 0, "Global requests per second cap (0 = off)")
	crawlCmd.Flags().IntVar(&renderers, "renderers", 1, "Number of browser sessions in the renderer pool")
	crawlCmd.Flags().BoolVar(&headless, "headless", true, "Run the browser headless")
	crawlCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "crawled_data", "Directory for report files")
	crawlCmd.Flags().StringVar(&archivePath, "archive", "", "Path to a bbolt page archive (empty = off)")
	crawlCmd.Flags().StringArrayVar(&allowDomains, "allow-domain", nil, "Additional domains whose links may be followed")
	crawlCmd.Flags().BoolVar(&markdown, "markdown", false, "Emit markdown instead of plain text")
	crawlCmd.Flags().BoolVar(&stripChrome, "strip-chrome", false, "Strip header, footer, nav, and images before extraction")
	crawlCmd.Flags().BoolVar(&includeHTML, "include-html", false, "Embed raw HTML in page records")

	rootCmd.AddCommand(crawlCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seed := args[0]

	config := crawler.DefaultConfig()
	if configFile != "" {
		fileConfig, err := crawler.LoadFromFile(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
		config = fileConfig
	}
	config.Seed = seed

	// Flags override the config file when set.
	if cmd.Flags().Changed("workers") || configFile == "" {
		config.Workers = workers
	}
	if cmd.Flags().Changed("max-pages") || configFile == "" {
		config.MaxPages = maxPages
	}
	if cmd.Flags().Changed("max-depth") || configFile == "" {
		config.MaxDepth = maxDepth
	}
	if cmd.Flags().Changed("delay") || configFile == "" {
		config.Delay = delay
	}
	if cmd.Flags().Changed("render-settle") || configFile == "" {
		config.RenderSettle = renderSettle
	}
	if cmd.Flags().Changed("rate-limit") || configFile == "" {
		config.RequestsPerSecond = rateLimit
	}
	if cmd.Flags().Changed("renderers") || configFile == "" {
		config.Renderers = renderers
	}
	if cmd.Flags().Changed("headless") || configFile == "" {
		config.Headless = headless
	}
	if cmd.Flags().Changed("output-dir") || configFile == "" {
		config.OutputDir = outputDir
	}
	if cmd.Flags().Changed("archive") {
		config.ArchivePath = archivePath
	}
	// The flag default is deliberately permissive for single-operator use;
	// the config file default is not. The flag always wins.
	config.RespectRobots = respectRobots
	config.AllowedDomains = append(config.AllowedDomains, allowDomains...)
	config.Markdown = markdown || config.Markdown
	config.StripChrome = stripChrome || config.StripChrome
	config.IncludeHTML = includeHTML || config.IncludeHTML
	config.Verbose = verbose
	config.Debug = debug

	c, err := crawler.New(crawler.WithConfig(config))
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	handler := shutdown.New(shutdown.Config{
		OnShutdownStart: func() {
			fmt.Fprintln(os.Stderr, "\nInterrupt received, draining...")
		},
	})
	handler.RegisterFunc("crawler", c.Stop)

	fmt.Printf("corpuscrawl v%s\n", version)
	fmt.Printf("Seed: %s\n\n", seed)

	result, err := c.Run(handler.Context())
	if err != nil {
		return fmt.Errorf("crawl failed: %w", err)
	}

	printSummary(result)
	return nil
}

func printSummary(r *crawler.Result) {
	fmt.Println()
	fmt.Printf("Domain:        %s\n", r.Domain)
	fmt.Printf("Pages crawled: %d\n", len(r.Pages))
	fmt.Printf("Failed URLs:   %d\n", r.FailedURLs)
	fmt.Printf("Duration:      %s\n", r.Duration().Round(time.Millisecond))
	fmt.Printf("Report:        %s\n", r.ReportPath)
}
