package scraper

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/buchloe-events/internal/event"
	"github.com/pfrederiksen/buchloe-events/internal/logger"
)

// FetchDescription retrieves the full description from an event detail
// page. Every failure wraps event.ErrDetailFetchFailed.
func (s *Scraper) FetchDescription(ctx context.Context, detailURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.DetailTimeout)
	defer cancel()

	content, err := s.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", event.ErrDetailFetchFailed, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: parsing %s: %w", event.ErrDetailFetchFailed, detailURL, err)
	}

	description := parseContentTable(doc)
	if description == "" {
		return "", fmt.Errorf("%w: no contenttable on %s", event.ErrDetailFetchFailed, detailURL)
	}

	s.log.Debug("Extracted full description", logger.Fields{"url": detailURL, "length": len(description)})
	return description, nil
}

// parseContentTable joins the span texts of the detail page content table
// with blank lines. Without spans the whole table text is used.
func parseContentTable(doc *goquery.Document) string {
	table := doc.Find("table.contenttable").First()
	if table.Length() == 0 {
		return ""
	}

	spans := table.Find("span")
	if spans.Length() == 0 {
		return strings.TrimSpace(table.Text())
	}

	parts := make([]string, 0, spans.Length())
	spans.Each(func(_ int, span *goquery.Selection) {
		if text := strings.TrimSpace(span.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}
