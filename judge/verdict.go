package judge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"compliance-backend/models"
)

// Verdict is the normalized output of a compliance judgment
type Verdict struct {
	Status       models.ComplianceStatus `json:"status"`
	Risk         models.RiskLevel        `json:"risk"`
	Reasoning    string                  `json:"reasoning"`
	EvidenceText string                  `json:"evidence_text"`
	Confidence   float64                 `json:"confidence"`
}

// fieldAliases maps each verdict field to the key spellings accepted from
// the oracle, in resolution order
var fieldAliases = map[string][]string{
	"status":        {"status", "compliance_status"},
	"risk":          {"risk", "risk_level"},
	"reasoning":     {"reasoning", "description"},
	"evidence_text": {"evidence_text", "literal_evidence", "evidence"},
	"confidence":    {"confidence", "confidence_score"},
}

// ParseVerdict normalizes a raw oracle response into a typed verdict.
// The response may wrap its JSON in prose: the substring between the
// first '{' and the last '}' is extracted before parsing. Keys are
// lower-cased and space-to-underscore normalized, then resolved through
// the alias table. Returns an error only when no JSON object can be
// recovered at all; missing fields fall back to safe defaults.
func ParseVerdict(raw string) (Verdict, error) {
	content := strings.TrimSpace(raw)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return Verdict{}, fmt.Errorf("no JSON object in judgment response")
	}
	content = content[start : end+1]

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return Verdict{}, fmt.Errorf("failed to parse judgment JSON: %w", err)
	}

	normalized := make(map[string]interface{}, len(data))
	for k, v := range data {
		key := strings.ReplaceAll(strings.ToLower(k), " ", "_")
		normalized[key] = v
	}

	return Verdict{
		Status:       parseStatus(resolveString(normalized, "status", string(models.StatusUnknown))),
		Risk:         parseRisk(resolveString(normalized, "risk", string(models.RiskHigh))),
		Reasoning:    resolveString(normalized, "reasoning", "No reasoning provided"),
		EvidenceText: resolveString(normalized, "evidence_text", "N/A"),
		Confidence:   resolveConfidence(normalized),
	}, nil
}

// resolve walks a field's alias list and returns the first present value
func resolve(normalized map[string]interface{}, field string) (interface{}, bool) {
	for _, alias := range fieldAliases[field] {
		if v, ok := normalized[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

func resolveString(normalized map[string]interface{}, field, fallback string) string {
	v, ok := resolve(normalized, field)
	if !ok {
		return fallback
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fallback
	}
}

func resolveConfidence(normalized map[string]interface{}) float64 {
	v, ok := resolve(normalized, "confidence")
	if !ok {
		return 0.0
	}

	var c float64
	switch n := v.(type) {
	case float64:
		c = n
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0.0
		}
		c = parsed
	default:
		return 0.0
	}

	if c < 0 {
		return 0.0
	}
	if c > 1 {
		return 1.0
	}
	return c
}

// parseStatus canonicalizes an oracle status value ("Compliant",
// "Non-Compliant") to the typed enum, defaulting UNKNOWN
func parseStatus(raw string) models.ComplianceStatus {
	switch canonical(raw) {
	case string(models.StatusCompliant):
		return models.StatusCompliant
	case string(models.StatusPartial):
		return models.StatusPartial
	case string(models.StatusNonCompliant):
		return models.StatusNonCompliant
	default:
		return models.StatusUnknown
	}
}

// parseRisk canonicalizes an oracle risk value, defaulting HIGH so an
// unreadable risk is never understated
func parseRisk(raw string) models.RiskLevel {
	switch canonical(raw) {
	case string(models.RiskLow):
		return models.RiskLow
	case string(models.RiskMedium):
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func canonical(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
