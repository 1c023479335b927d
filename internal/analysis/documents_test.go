package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/model"
)

func TestHeuristicDocumentVerifier_Inline(t *testing.T) {
	claims := []model.Claim{
		{ID: "mrr", Text: "We reached $50k MRR in March."},
		{ID: "customers", Text: "We have 1,200 paying customers."},
		{ID: "cto", Text: "Former staff engineer at Stripe."},
	}
	docs := []model.Document{{
		ID:      "d1",
		Name:    "Financials",
		Content: "Acme reported monthly recurring revenue of $50,000 in March 2024.\nThe company serves 400 customers.",
	}}

	vs, err := NewHeuristicDocumentVerifier(fetch.NewLoader(nil, nil), 2).VerifyDocuments(context.Background(), claims, docs)
	if err != nil {
		t.Fatalf("VerifyDocuments: %v", err)
	}

	got := make(map[string]model.Verification)
	for _, v := range vs {
		got[v.ClaimID] = v
	}
	if len(got) != 2 {
		t.Fatalf("expected verdicts for 2 claims, got %+v", vs)
	}
	if got["mrr"].Verdict != model.VerdictConfirmed {
		t.Errorf("mrr verdict = %s, want confirmed", got["mrr"].Verdict)
	}
	if got["mrr"].Confidence != 0.64 {
		t.Errorf("mrr confidence = %v, want 0.64", got["mrr"].Confidence)
	}
	if got["customers"].Verdict != model.VerdictRefuted {
		t.Errorf("customers verdict = %s, want refuted", got["customers"].Verdict)
	}
	v := got["mrr"]
	if v.SourceType != "document" || v.SourceName != "Financials" || v.SourceCredentials != string(fetch.TierInline) {
		t.Errorf("unexpected source fields: %+v", v)
	}
	if v.CredibilityScore == nil || *v.CredibilityScore != fetch.TierInline.Credibility() {
		t.Errorf("credibility = %v", v.CredibilityScore)
	}
	if len(v.EvidenceURLs) != 0 {
		t.Errorf("inline documents have no evidence URL: %v", v.EvidenceURLs)
	}
}

func TestHeuristicDocumentVerifier_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Acme serves 400 customers across Europe.</p></body></html>`))
	}))
	defer server.Close()

	loader := fetch.NewLoader(fetch.NewFetcher(model.HTTPConfig{Timeout: 5 * time.Second}), nil)
	docs := []model.Document{{ID: "d1", Name: "Website", URL: server.URL + "/about"}}
	claims := []model.Claim{{ID: "customers", Text: "We have 1,200 paying customers."}}

	vs, err := NewHeuristicDocumentVerifier(loader, 2).VerifyDocuments(context.Background(), claims, docs)
	if err != nil {
		t.Fatalf("VerifyDocuments: %v", err)
	}
	if len(vs) != 1 {
		t.Fatalf("got %d verdicts, want 1", len(vs))
	}
	if vs[0].Verdict != model.VerdictRefuted {
		t.Errorf("verdict = %s, want refuted", vs[0].Verdict)
	}
	if len(vs[0].EvidenceURLs) != 1 || vs[0].EvidenceURLs[0] != server.URL+"/about" {
		t.Errorf("evidence URLs = %v", vs[0].EvidenceURLs)
	}
}

func TestHeuristicDocumentVerifier_AllDocumentsFail(t *testing.T) {
	docs := []model.Document{{ID: "d1", Name: "Empty"}}
	claims := []model.Claim{{ID: "c", Text: "We have 5 customers."}}
	if _, err := NewHeuristicDocumentVerifier(fetch.NewLoader(nil, nil), 1).VerifyDocuments(context.Background(), claims, docs); err == nil {
		t.Fatal("expected error when no document loads")
	}
}

func TestHeuristicDocumentVerifier_PartialFailure(t *testing.T) {
	docs := []model.Document{
		{ID: "d1", Name: "Broken"},
		{ID: "d2", Name: "Deck", Content: "We have 5 customers today."},
	}
	claims := []model.Claim{{ID: "c", Text: "We have 5 customers."}}
	vs, err := NewHeuristicDocumentVerifier(fetch.NewLoader(nil, nil), 2).VerifyDocuments(context.Background(), claims, docs)
	if err != nil {
		t.Fatalf("VerifyDocuments: %v", err)
	}
	if len(vs) != 1 || vs[0].Verdict != model.VerdictConfirmed {
		t.Errorf("unexpected verdicts: %+v", vs)
	}
}

func TestHeuristicDocumentVerifier_NoDocuments(t *testing.T) {
	vs, err := NewHeuristicDocumentVerifier(fetch.NewLoader(nil, nil), 1).VerifyDocuments(context.Background(), []model.Claim{{ID: "c"}}, nil)
	if err != nil || vs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", vs, err)
	}
}
