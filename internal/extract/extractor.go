// Package extract converts raw archived HTML into a searchable title and
// plain-text body. Extraction is a pure function over the raw bytes: it
// never touches the store, and malformed input degrades to best-effort
// fields instead of failing the run.
package extract

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jaytaylor/html2text"

	"github.com/pjamar/htmls-to-datasette/internal/errors"
)

// Document is the normalized extraction result.
type Document struct {
	// Title comes from <title>, else the first <h1>, else the filename
	// without extension.
	Title string
	// Text is the lossy plain-text rendering of the body, suitable for
	// full-text search and display.
	Text string
}

// Extractor converts HTML bytes to normalized text.
type Extractor struct {
	textOpts html2text.Options
}

// New creates an Extractor.
func New() *Extractor {
	return &Extractor{
		textOpts: html2text.Options{
			// Tables rendered as readable rows, links kept as plain text.
			PrettyTables: false,
			OmitLinks:    true,
		},
	}
}

var multiBlank = regexp.MustCompile(`\n{3,}`)

// Extract parses raw HTML and returns {title, text}.
// On malformed input it returns a degraded Document (filename title,
// empty text) together with a warning-severity error the caller is
// expected to log and count, not abort on.
func (e *Extractor) Extract(raw []byte, sourcePath string) (*Document, error) {
	doc := &Document{Title: TitleFromFilename(sourcePath)}

	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return doc, errors.ExtractError("parsing html", err).WithPath(sourcePath)
	}

	if title := extractTitle(parsed); title != "" {
		doc.Title = title
	}

	text, err := html2text.FromString(string(raw), e.textOpts)
	if err != nil {
		return doc, errors.ExtractError("converting html to text", err).WithPath(sourcePath)
	}
	doc.Text = normalizeText(text)

	return doc, nil
}

// extractTitle pulls the first non-empty <title>, falling back to the
// first non-empty <h1>.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return collapseSpace(title)
	}

	var h1 string
	doc.Find("h1").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := strings.TrimSpace(s.Text()); text != "" {
			h1 = collapseSpace(text)
			return false
		}
		return true
	})
	return h1
}

// TitleFromFilename derives the fallback title: the base name without
// its extension.
func TitleFromFilename(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// normalizeText trims trailing space per line and collapses runs of
// blank lines, keeping paragraph breaks readable.
func normalizeText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	out = multiBlank.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// collapseSpace folds internal whitespace runs into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
