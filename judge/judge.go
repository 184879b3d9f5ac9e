package judge

import (
	"context"
	"fmt"

	"compliance-backend/models"

	"github.com/rs/zerolog/log"
)

// Oracle is the external judgment capability: given a prompt it returns
// raw text that should, but is not guaranteed to, contain a JSON verdict.
type Oracle interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// Judge compares customer clauses against regulation context through an
// oracle and always returns a well-formed verdict — oracle failures and
// unparseable responses degrade to a safe default instead of erroring.
type Judge struct {
	oracle Oracle
}

// NewJudge creates a judge backed by the given oracle
func NewJudge(oracle Oracle) *Judge {
	return &Judge{oracle: oracle}
}

const judgmentPrompt = `You are a compliance expert. Compare the provided customer clause against the regulation context.
Identify if it is COMPLIANT, PARTIAL, or NON_COMPLIANT.
Provide:
1. Status
2. Risk Level (HIGH, MEDIUM, LOW)
3. Reasoning
4. Literal Evidence (quote from the regulation)
5. Confidence score (0.0 to 1.0)

Format response as JSON with those keys.

Customer Clause: %s

Regulation Context: %s`

// Evaluate judges one (customer clause, regulation context) pair. Every
// call path returns a verdict; the error cases carry status UNKNOWN,
// risk HIGH and zero confidence with the failure class in the reasoning.
func (j *Judge) Evaluate(ctx context.Context, customerClause, regulationContext string) Verdict {
	prompt := fmt.Sprintf(judgmentPrompt, customerClause, regulationContext)

	raw, err := j.oracle.Judge(ctx, prompt)
	if err != nil {
		log.Warn().Err(err).Msg("judgment oracle call failed")
		return failureVerdict(fmt.Sprintf("AI analysis failed: %v", err))
	}

	verdict, err := ParseVerdict(raw)
	if err != nil {
		log.Warn().Err(err).Str("raw", raw).Msg("failed to interpret judgment response")
		return failureVerdict(fmt.Sprintf("Failed to interpret AI response: %v", err))
	}
	return verdict
}

func failureVerdict(reasoning string) Verdict {
	return Verdict{
		Status:       models.StatusUnknown,
		Risk:         models.RiskHigh,
		Reasoning:    reasoning,
		EvidenceText: "N/A",
		Confidence:   0.0,
	}
}
