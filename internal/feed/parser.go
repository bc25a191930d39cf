package feed

import (
	"bytes"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)

// Entry is a single incident record extracted from a provider's feed.
type Entry struct {
	// ID is the entry's unique id within the feed.
	ID string

	// Title is the entry title, typically the incident status line.
	Title string

	// Updated is the raw updated timestamp string, exactly as serialized
	// in the feed. Change detection compares it byte-for-byte.
	Updated string

	// Summary is the entry body with HTML tags removed and entities decoded.
	Summary string

	// Products lists the product labels attached to the entry via feed
	// categories, or ["Unknown"] when the feed carries none.
	Products []string
}

// Parser converts raw Atom/RSS feed text into [Entry] values.
//
// Parser is stateless apart from its logger and safe for concurrent use.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a [Parser]. A nil logger defaults to [slog.Default].
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// Parse extracts entries from content in feed order.
//
// Malformed or non-feed input yields an empty slice, never an error: a
// garbled response is indistinguishable from a feed with nothing to report.
// Entries lacking an id are silently omitted. provider is used for log
// context only.
func (p *Parser) Parse(content []byte, provider string) []Entry {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(content))
	if err != nil {
		p.logger.Warn("feed could not be parsed", "provider", provider, "error", err)
		return nil
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		id := item.GUID
		if id == "" {
			p.logger.Debug("skipping entry without id", "provider", provider)
			continue
		}

		updated := item.Updated
		if updated == "" {
			updated = item.Published
		}

		raw := item.Description
		if raw == "" {
			raw = item.Content
		}

		entries = append(entries, Entry{
			ID:       id,
			Title:    item.Title,
			Updated:  updated,
			Summary:  stripHTML(raw),
			Products: products(item.Categories),
		})
	}

	p.logger.Debug("parsed feed", "provider", provider, "entries", len(entries))
	return entries
}

// stripHTML removes tags and decodes entities from raw.
func stripHTML(raw string) string {
	text := htmlTagPattern.ReplaceAllString(raw, "")
	return strings.TrimSpace(html.UnescapeString(text))
}

func products(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []string{"Unknown"}
	}
	return out
}
