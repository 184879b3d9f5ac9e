package ingestion

import (
	"fmt"
	"regexp"
	"strings"

	"compliance-backend/models"
)

// Page is one page of extracted document text
type Page struct {
	Text   string
	Number int // 1-based page number
}

// ClauseDraft is a segmented clause before it is assigned a store id
type ClauseDraft struct {
	ClauseID   string
	Text       string
	PageNumber int
	Severity   models.Severity
}

// clauseHeaderPattern matches clause headers anchored at line start:
// numeric dotted prefixes ("4.2.1"), uppercase-letter dotted prefixes
// ("A.5.1"), or "Article N:" markers.
var clauseHeaderPattern = regexp.MustCompile(`(?m)^(\d+\.[\d.]+|[A-Z]\.[\d.]+|Article\s+\d+:?)\s+`)

// minParagraphLen is the trimmed-length floor for fallback paragraphs.
// Shorter spans are noise (page numbers, stray headings) and are dropped.
const minParagraphLen = 20

// Segment turns extracted pages into an ordered clause sequence. Pages with
// header matches are partitioned at each match start; pages without any
// header fall back to blank-line paragraph splitting with synthetic ids.
func Segment(pages []Page) []ClauseDraft {
	var clauses []ClauseDraft
	for i, page := range pages {
		pageIndex := i
		if page.Number > 0 {
			pageIndex = page.Number - 1
		}
		clauses = append(clauses, segmentPage(page.Text, pageIndex)...)
	}
	return clauses
}

func segmentPage(text string, pageIndex int) []ClauseDraft {
	matches := clauseHeaderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return fallbackParagraphs(text, pageIndex)
	}

	clauses := make([]ClauseDraft, 0, len(matches))
	for i, m := range matches {
		start := m[0]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[start:end])
		clauses = append(clauses, ClauseDraft{
			ClauseID:   strings.TrimSpace(text[m[2]:m[3]]),
			Text:       body,
			PageNumber: pageIndex + 1,
			Severity:   classifySeverity(body),
		})
	}
	return clauses
}

// fallbackParagraphs splits a headerless page on blank lines and keeps
// paragraphs whose trimmed length exceeds minParagraphLen. Severity is
// UNKNOWN on this path since no header gives a normative signal.
func fallbackParagraphs(text string, pageIndex int) []ClauseDraft {
	var clauses []ClauseDraft
	for i, para := range strings.Split(text, "\n\n") {
		trimmed := strings.TrimSpace(para)
		if len(trimmed) <= minParagraphLen {
			continue
		}
		clauses = append(clauses, ClauseDraft{
			ClauseID:   fmt.Sprintf("P-%d-%d", pageIndex, i),
			Text:       trimmed,
			PageNumber: pageIndex + 1,
			Severity:   models.SeverityUnknown,
		})
	}
	return clauses
}

// classifySeverity tags a header-delimited clause MUST when its body uses
// mandatory language, SHOULD otherwise
func classifySeverity(text string) models.Severity {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "shall") || strings.Contains(lower, "must") {
		return models.SeverityMust
	}
	return models.SeverityShould
}
