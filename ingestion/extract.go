package ingestion

import (
	"strings"
)

// ExtractPages splits raw plain-text document content into pages. Pages are
// delimited by form-feed characters; content without any form feed is a
// single page. PDF/DOCX extraction happens upstream of this boundary — the
// ingestion pipeline only ever sees (page text, page number) pairs.
func ExtractPages(content string) []Page {
	raw := strings.Split(content, "\f")
	pages := make([]Page, 0, len(raw))
	for i, text := range raw {
		pages = append(pages, Page{Text: text, Number: i + 1})
	}
	return pages
}
