// Package report defines the crawl output records and the JSON persistence
// sink that writes checkpoints and the final report.
package report

import (
	"time"
)

// PageRecord is the structured output for one successfully processed page.
// Immutable once created.
type PageRecord struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	HTML      string    `json:"html,omitempty"`
}

// CrawlReport aggregates a finished run.
type CrawlReport struct {
	Domain     string       `json:"domain"`
	CrawlDate  time.Time    `json:"crawl_date"`
	TotalPages int          `json:"total_pages"`
	Pages      []PageRecord `json:"pages"`
}

// NewCrawlReport builds a report for the given domain from the accumulated
// pages.
func NewCrawlReport(domain string, pages []PageRecord) *CrawlReport {
	if pages == nil {
		pages = []PageRecord{}
	}
	return &CrawlReport{
		Domain:     domain,
		CrawlDate:  time.Now(),
		TotalPages: len(pages),
		Pages:      pages,
	}
}
