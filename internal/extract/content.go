package extract

import (
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/corpuscrawl/corpuscrawl/internal/report"
)

// Mode selects the content output format.
type Mode int

const (
	// Text emits whitespace-normalized plain text.
	Text Mode = iota
	// Markdown emits lightweight markup: #-prefixed headings, **bold**,
	// - / N. list items, `code`, [text](href) anchors.
	Markdown
)

// DefaultNoiseTags are removed from every document before extraction.
var DefaultNoiseTags = []string{"script", "style", "meta", "link"}

// ChromeNoiseTags additionally strip page chrome and non-text media.
var ChromeNoiseTags = []string{"script", "style", "meta", "link", "img", "svg", "header", "footer", "nav"}

// ContentConfig configures a ContentExtractor. The noise-tag list is fixed
// at construction and never mutated afterwards.
type ContentConfig struct {
	Mode        Mode
	NoiseTags   []string
	IncludeHTML bool // embed the raw rendered HTML in each record
}

// ContentExtractor produces a PageRecord from rendered HTML. Extraction is
// best-effort: malformed markup degrades to partial or empty content, never
// to an error.
type ContentExtractor struct {
	mode        Mode
	noise       string
	includeHTML bool
	converter   *md.Converter
}

// NewContentExtractor creates an extractor with the given configuration.
func NewContentExtractor(cfg ContentConfig) *ContentExtractor {
	tags := cfg.NoiseTags
	if len(tags) == 0 {
		tags = DefaultNoiseTags
	}

	e := &ContentExtractor{
		mode:        cfg.Mode,
		noise:       strings.Join(tags, ", "),
		includeHTML: cfg.IncludeHTML,
	}
	if cfg.Mode == Markdown {
		e.converter = md.NewConverter("", true, nil)
	}
	return e
}

// Extract builds the page record for one rendered page, stamping the capture
// time.
func (e *ContentExtractor) Extract(rawHTML, pageURL string) report.PageRecord {
	rec := report.PageRecord{
		URL:       pageURL,
		Timestamp: time.Now(),
	}
	if e.includeHTML {
		rec.HTML = rawHTML
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return rec
	}

	doc.Find(e.noise).Remove()
	rec.Title = strings.TrimSpace(doc.Find("title").First().Text())

	switch e.mode {
	case Markdown:
		rec.Content = e.markdownContent(doc)
	default:
		rec.Content = textContent(doc)
	}
	return rec
}

// markdownContent converts the cleaned document to markdown, falling back to
// plain text when conversion fails.
func (e *ContentExtractor) markdownContent(doc *goquery.Document) string {
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	inner, err := root.Html()
	if err != nil {
		return textContent(doc)
	}
	out, err := e.converter.ConvertString(inner)
	if err != nil {
		return textContent(doc)
	}
	return strings.TrimSpace(out)
}

// textContent walks the parse tree collecting text nodes, then normalizes
// whitespace: space runs collapse to one space, blank-line runs to one
// newline, and the result is trimmed.
func textContent(doc *goquery.Document) string {
	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		walkText(node, &b)
	}
	return normalizeWhitespace(b.String())
}

func walkText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte('\n')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, b)
	}
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		out = append(out, strings.Join(fields, " "))
	}
	return strings.Join(out, "\n")
}
