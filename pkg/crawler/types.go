package crawler

import (
	"context"
	"time"

	"github.com/corpuscrawl/corpuscrawl/internal/report"
)

// State describes the crawler lifecycle.
type State int32

const (
	// StateIdle means Run has not been called.
	StateIdle State = iota
	// StateRunning means workers are processing the frontier.
	StateRunning
	// StateDraining means workers are stopping and the final report is
	// being written.
	StateDraining
	// StateFinalized means the run completed and resources are released.
	StateFinalized
)

// String returns the string representation of State.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateFinalized:
		return "finalized"
	default:
		return "idle"
	}
}

// Fetcher renders one URL and returns the document source. The renderer pool
// implements it; tests substitute their own.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Result is the outcome of one crawl run.
type Result struct {
	// Domain is the seed's host.
	Domain string `json:"domain"`

	// Pages are the extracted page records, in completion order.
	Pages []report.PageRecord `json:"pages"`

	// ReportPath is where the final report was written.
	ReportPath string `json:"report_path"`

	// FailedURLs counts per-URL failures that were logged and skipped.
	FailedURLs int `json:"failed_urls"`

	// URLsSeen counts distinct URLs that entered the frontier.
	URLsSeen int `json:"urls_seen"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}
