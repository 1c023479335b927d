package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/ppiankov/diligence/internal/model"
)

func TestRuleVerifier(t *testing.T) {
	claims := []model.Claim{
		{ID: "a", Text: "MRR: $50k", Corroborates: []string{"b"}},
		{ID: "b", Text: "We reached $50k MRR in March.", Corroborates: []string{"a"}},
		{ID: "c", Text: "Customers: 1,000", Contradicts: []string{"d"}},
		{ID: "d", Text: "We have 1,200 paying customers.", Contradicts: []string{"c"}},
		{ID: "e", Text: "We are the only platform for this."},
		{ID: "f", Text: "Our engine is 10x faster than legacy tools.", Benchmark: true},
		{ID: "g", Text: "Revenue grew 3x year over year."},
		{ID: "h", Text: "We are the leading provider.", Corroborates: []string{"a"}},
	}
	want := map[string]model.Verdict{
		"a": model.VerdictConfirmed,
		"b": model.VerdictConfirmed,
		"c": model.VerdictDisputed,
		"d": model.VerdictDisputed,
		"e": model.VerdictDisputed,
		"f": model.VerdictUnconfirmed,
		"g": model.VerdictUnconfirmed,
		"h": model.VerdictDisputed, // superlative wins over corroboration
	}

	vs, err := NewRuleVerifier().VerifyClaims(context.Background(), claims)
	if err != nil {
		t.Fatalf("VerifyClaims: %v", err)
	}
	if len(vs) != len(claims) {
		t.Fatalf("got %d verifications, want %d", len(vs), len(claims))
	}
	for _, v := range vs {
		if v.Verdict != want[v.ClaimID] {
			t.Errorf("claim %s: verdict %s, want %s", v.ClaimID, v.Verdict, want[v.ClaimID])
		}
		if v.SourceType != "ai_analysis" || v.SourceName != ruleVerifierName {
			t.Errorf("claim %s: source %s/%s", v.ClaimID, v.SourceType, v.SourceName)
		}
		if v.Confidence <= 0 || v.Confidence > 1 {
			t.Errorf("claim %s: confidence %v", v.ClaimID, v.Confidence)
		}
	}
	if !strings.Contains(vs[2].Evidence, "1,200 paying customers") {
		t.Errorf("contradiction evidence should quote the other claim: %q", vs[2].Evidence)
	}
}
