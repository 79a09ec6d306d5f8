package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fileTimestamp is the layout used in output filenames.
const fileTimestamp = "20060102_150405"

// Writer persists crawl results as JSON files under one output directory.
// Checkpoints carry only the pages array; the final report carries the full
// CrawlReport wrapper.
type Writer struct {
	dir string
}

// NewWriter creates the output directory if needed and returns a writer
// bound to it. Directory creation is the one failure that may abort a run.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		dir = "crawled_data"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// WriteCheckpoint writes the accumulated pages to a timestamped intermediate
// file and returns its path.
func (w *Writer) WriteCheckpoint(pages []PageRecord) (string, error) {
	if pages == nil {
		pages = []PageRecord{}
	}
	name := fmt.Sprintf("crawl_intermediate_%s.json", time.Now().Format(fileTimestamp))
	path := filepath.Join(w.dir, name)
	if err := writeJSON(path, pages); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFinal writes the final report to crawl_<domain>_<timestamp>.json and
// returns its path.
func (w *Writer) WriteFinal(rep *CrawlReport) (string, error) {
	domain := sanitizeDomain(rep.Domain)
	name := fmt.Sprintf("crawl_%s_%s.json", domain, time.Now().Format(fileTimestamp))
	path := filepath.Join(w.dir, name)
	if err := writeJSON(path, rep); err != nil {
		return "", err
	}
	return path, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// sanitizeDomain makes a domain safe for use in a filename.
func sanitizeDomain(domain string) string {
	if domain == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '?', '*':
			return '_'
		}
		return r
	}, domain)
}
