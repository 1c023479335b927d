package analysis

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/diligence/internal/model"
)

func TestHeuristicExtractor_Claims(t *testing.T) {
	ext, err := NewHeuristicExtractor().ExtractClaims(context.Background(), sampleApp())
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}

	mrr := findClaim(ext.Claims, "MRR: $50k")
	if mrr == nil {
		t.Fatalf("metric claim missing; claims: %+v", ext.Claims)
	}
	if mrr.Category != model.CategoryFinancial || mrr.SourceType != "metrics" || mrr.SourceReference != "metrics.mrr" {
		t.Errorf("unexpected metric claim: %+v", mrr)
	}
	if mrr.Priority != model.PriorityHigh || mrr.ExtractionConfidence != 0.95 {
		t.Errorf("unexpected metric priority/confidence: %s %v", mrr.Priority, mrr.ExtractionConfidence)
	}

	traction := findClaim(ext.Claims, "We reached $50k MRR in March.")
	if traction == nil {
		t.Fatal("traction sentence claim missing")
	}
	if traction.SourceReference != "traction" || traction.SourceType != "application_field" {
		t.Errorf("unexpected source: %s/%s", traction.SourceType, traction.SourceReference)
	}

	founder := findClaim(ext.Claims, "Raj Patel (CTO): Former staff engineer at Stripe.")
	if founder == nil || founder.Category != model.CategoryTeam || founder.SourceReference != "founders[1]" {
		t.Errorf("unexpected founder claim: %+v", founder)
	}

	if findClaim(ext.Claims, "A forecasting API that plugs into existing point-of-sale systems.") != nil {
		t.Error("sentence without numbers or assertions should not be a claim")
	}

	oneLiner := findClaim(ext.Claims, "Acme is the only platform that automates revenue forecasting for SMB retailers.")
	if oneLiner == nil || oneLiner.Priority != model.PriorityLow {
		t.Errorf("assertion-only sentence should be a low priority claim: %+v", oneLiner)
	}

	ids := make(map[string]bool)
	for _, c := range ext.Claims {
		if c.Status != model.ClaimPending || c.ApplicationID != "app-1" {
			t.Errorf("claim %s: status %s app %s", c.ID, c.Status, c.ApplicationID)
		}
		if ids[c.ID] {
			t.Errorf("duplicate claim key %s", c.ID)
		}
		ids[c.ID] = true
	}
}

func TestHeuristicExtractor_Links(t *testing.T) {
	ext, err := NewHeuristicExtractor().ExtractClaims(context.Background(), sampleApp())
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}

	mrr := findClaim(ext.Claims, "MRR: $50k")
	traction := findClaim(ext.Claims, "We reached $50k MRR in March.")
	if diff := cmp.Diff([]string{traction.ID}, mrr.Corroborates); diff != "" {
		t.Errorf("metric corroborates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{mrr.ID}, traction.Corroborates); diff != "" {
		t.Errorf("traction corroborates mismatch (-want +got):\n%s", diff)
	}

	customers := findClaim(ext.Claims, "Customers: 1,000")
	paying := findClaim(ext.Claims, "We have 1,200 paying customers.")
	if customers == nil || paying == nil {
		t.Fatal("customer claims missing")
	}
	if diff := cmp.Diff([]string{paying.ID}, customers.Contradicts); diff != "" {
		t.Errorf("contradicts mismatch (-want +got):\n%s", diff)
	}
	if len(paying.Corroborates) != 0 {
		t.Errorf("contradicting claim should not corroborate: %v", paying.Corroborates)
	}
}

func TestHeuristicExtractor_DedupeAndBenchmark(t *testing.T) {
	app := model.Application{
		ID:       "app-2",
		Traction: "We have 500 customers. We have 500 customers.",
		Solution: "Our engine is 10x faster than legacy tools.",
	}
	ext, err := NewHeuristicExtractor().ExtractClaims(context.Background(), app)
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}

	count := 0
	for _, c := range ext.Claims {
		if c.Text == "We have 500 customers." {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate sentence extracted %d times", count)
	}

	bench := findClaim(ext.Claims, "Our engine is 10x faster than legacy tools.")
	if bench == nil || !bench.Benchmark {
		t.Errorf("expected benchmark claim, got %+v", bench)
	}
}

func TestHeuristicExtractor_Omissions(t *testing.T) {
	ext, err := NewHeuristicExtractor().ExtractClaims(context.Background(), model.Application{ID: "bare"})
	if err != nil {
		t.Fatalf("ExtractClaims: %v", err)
	}
	if len(ext.Claims) != 0 {
		t.Errorf("expected no claims, got %d", len(ext.Claims))
	}

	want := []model.Omission{
		{ApplicationID: "bare", Category: model.CategoryTeam, Severity: model.SeverityCritical, Description: "No founders listed"},
		{ApplicationID: "bare", Category: model.CategoryTraction, Severity: model.SeverityWarning, Description: "No traction or metrics provided"},
		{ApplicationID: "bare", Category: model.CategoryMarket, Severity: model.SeverityWarning, Description: "No market description"},
		{ApplicationID: "bare", Category: model.CategoryProduct, Severity: model.SeverityWarning, Description: "Problem statement is missing"},
		{ApplicationID: "bare", Category: model.CategoryFinancial, Severity: model.SeverityInfo, Description: "No financial metrics (revenue, burn, runway) disclosed"},
	}
	if diff := cmp.Diff(want, ext.Omissions); diff != "" {
		t.Errorf("omissions mismatch (-want +got):\n%s", diff)
	}

	full, _ := NewHeuristicExtractor().ExtractClaims(context.Background(), sampleApp())
	if len(full.Omissions) != 0 {
		t.Errorf("complete application should have no omissions, got %+v", full.Omissions)
	}
}

func TestHeuristicExtractor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHeuristicExtractor().ExtractClaims(ctx, sampleApp()); err == nil {
		t.Fatal("expected context error")
	}
}
