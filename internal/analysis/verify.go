package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

// superlatives are unfalsifiable or rarely true absolutes
var superlatives = []string{
	"the only", "first ever", "no competitors", "no competition", "#1", "number one",
	"world's first", "best in the world", "guaranteed", "100% accurate", "market leader", "the leading",
}

const ruleVerifierName = "rule-engine"

// RuleVerifier issues verdicts from internal consistency rules
type RuleVerifier struct{}

// NewRuleVerifier creates a new rule verifier
func NewRuleVerifier() *RuleVerifier {
	return &RuleVerifier{}
}

// VerifyClaims returns one verdict per claim. Rules, first match wins:
// contradicted by another claim -> disputed; absolute superlative -> disputed;
// restated consistently elsewhere -> confirmed; benchmark -> unconfirmed;
// anything else -> unconfirmed.
func (v *RuleVerifier) VerifyClaims(ctx context.Context, claims []model.Claim) ([]model.Verification, error) {
	byID := make(map[string]model.Claim, len(claims))
	for _, c := range claims {
		byID[c.ID] = c
	}

	out := make([]model.Verification, 0, len(claims))
	for _, c := range claims {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, v.verify(c, byID))
	}
	return out, nil
}

func (v *RuleVerifier) verify(c model.Claim, byID map[string]model.Claim) model.Verification {
	ver := model.Verification{
		ClaimID:    c.ID,
		SourceType: "ai_analysis",
		SourceName: ruleVerifierName,
	}
	lower := strings.ToLower(c.Text)

	switch {
	case len(c.Contradicts) > 0:
		ver.Verdict = model.VerdictDisputed
		ver.Confidence = 0.7
		ver.Evidence = "Inconsistent with: " + relatedText(c.Contradicts, byID)
	case hasSuperlative(lower):
		ver.Verdict = model.VerdictDisputed
		ver.Confidence = 0.6
		ver.Evidence = "Absolute claim that is rarely substantiated"
	case len(c.Corroborates) > 0:
		ver.Verdict = model.VerdictConfirmed
		ver.Confidence = 0.65
		ver.Evidence = "Consistent with: " + relatedText(c.Corroborates, byID)
	case c.Benchmark:
		ver.Verdict = model.VerdictUnconfirmed
		ver.Confidence = 0.5
		ver.Evidence = "Benchmark comparison needs external data"
	default:
		ver.Verdict = model.VerdictUnconfirmed
		ver.Confidence = 0.5
		ver.Evidence = "No independent source in the application"
	}
	return ver
}

func hasSuperlative(lower string) bool {
	_, ok := containsAny(lower, superlatives)
	return ok
}

func relatedText(ids []string, byID map[string]model.Claim) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			parts = append(parts, fmt.Sprintf("%q", truncate(c.Text, 80)))
		}
	}
	return strings.Join(parts, "; ")
}
