package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/llm"
	"github.com/ppiankov/diligence/internal/logging"
	"github.com/ppiankov/diligence/internal/model"
)

const systemPrompt = `You are a due diligence analyst at an early-stage investment program.
Be factual and skeptical. Never invent facts, numbers or sources.
Answer with a single JSON object matching the requested schema and nothing else.`

// maxPageChars bounds how much of one document is sent to the model
const maxPageChars = 12000

// applicationSnapshot is the part of an application shown to the model
type applicationSnapshot struct {
	Company  string            `json:"company"`
	OneLiner string            `json:"one_liner,omitempty"`
	Problem  string            `json:"problem,omitempty"`
	Solution string            `json:"solution,omitempty"`
	Market   string            `json:"market,omitempty"`
	Traction string            `json:"traction,omitempty"`
	Founders []model.Founder   `json:"founders,omitempty"`
	Metrics  map[string]string `json:"metrics,omitempty"`
}

func snapshot(app model.Application) string {
	return llm.PromptJSON(applicationSnapshot{
		Company:  app.CompanyName,
		OneLiner: app.OneLiner,
		Problem:  app.Problem,
		Solution: app.Solution,
		Market:   app.Market,
		Traction: app.Traction,
		Founders: app.Founders,
		Metrics:  app.Metrics,
	})
}

// complete sends prompt and decodes the reply into T
func complete[T any](ctx context.Context, client *llm.Client, prompt string) (T, error) {
	resp, err := client.Complete(ctx, llm.Request{System: systemPrompt, Prompt: prompt, JSON: true})
	if err != nil {
		var zero T
		return zero, err
	}
	return llm.Parse[T](resp.Text).Unwrap()
}

// LLMExtractor extracts claims with a language model
type LLMExtractor struct {
	client *llm.Client
}

// NewLLMExtractor creates a model-backed claim extractor
func NewLLMExtractor(client *llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client}
}

const extractPrompt = `Extract every verifiable factual claim and every notable omission from this startup application.

Application:
%s

Schema:
{"claims": [{"key": "c1", "category": "team|traction|market|product|financial|other", "text": "...",
  "source_text": "verbatim sentence", "source_reference": "field name, e.g. traction or metrics.mrr",
  "priority": "high|medium|low", "confidence": 0.0-1.0, "benchmark": false,
  "contradicts": ["keys"], "corroborates": ["keys"]}],
 "omissions": [{"category": "...", "description": "...", "severity": "info|warning|critical"}]}`

// ExtractClaims asks the model for claims and omissions
func (e *LLMExtractor) ExtractClaims(ctx context.Context, app model.Application) (*Extraction, error) {
	payload, err := complete[extractionPayload](ctx, e.client, fmt.Sprintf(extractPrompt, snapshot(app)))
	if err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}

	out := &Extraction{}
	for _, c := range payload.Claims {
		out.Claims = append(out.Claims, model.Claim{
			ID:                   c.Key,
			ApplicationID:        app.ID,
			Category:             model.ClaimCategory(c.Category),
			Text:                 strings.TrimSpace(c.Text),
			SourceText:           c.SourceText,
			SourceType:           sourceTypeFor(c.SourceReference),
			SourceReference:      c.SourceReference,
			Status:               model.ClaimPending,
			Priority:             model.Priority(c.Priority),
			ExtractionConfidence: c.Confidence,
			Contradicts:          c.Contradicts,
			Corroborates:         c.Corroborates,
			Benchmark:            c.Benchmark,
		})
	}
	for _, o := range payload.Omissions {
		out.Omissions = append(out.Omissions, model.Omission{
			ApplicationID: app.ID,
			Category:      model.ClaimCategory(o.Category),
			Description:   o.Description,
			Severity:      model.SignalSeverity(o.Severity),
		})
	}
	return out, nil
}

func sourceTypeFor(ref string) string {
	switch {
	case strings.HasPrefix(ref, "metrics"):
		return "metrics"
	case strings.HasPrefix(ref, "founders"):
		return "founder"
	default:
		return "application_field"
	}
}

// LLMTeamAssessor assesses the team with a language model
type LLMTeamAssessor struct {
	client *llm.Client
}

// NewLLMTeamAssessor creates a model-backed team assessor
func NewLLMTeamAssessor(client *llm.Client) *LLMTeamAssessor {
	return &LLMTeamAssessor{client: client}
}

const teamPrompt = `Assess the founding team of this startup: relevant experience, role coverage, track record and gaps.

Application:
%s

Schema: {"score": 0-100, "summary": "...", "strengths": ["..."], "concerns": ["..."]}`

// AssessTeam asks the model for a team assessment
func (a *LLMTeamAssessor) AssessTeam(ctx context.Context, app model.Application) (*model.TeamAssessment, error) {
	if len(app.Founders) == 0 {
		return nil, errors.New("no founders listed")
	}
	p, err := complete[assessmentPayload](ctx, a.client, fmt.Sprintf(teamPrompt, snapshot(app)))
	if err != nil {
		return nil, fmt.Errorf("assess team: %w", err)
	}
	return &model.TeamAssessment{
		ApplicationID: app.ID,
		Score:         p.Score,
		Grade:         model.GradeForScore(p.Score),
		Summary:       p.Summary,
		Strengths:     p.Strengths,
		Concerns:      p.Concerns,
		Details:       map[string]interface{}{"provider": a.client.ProviderName()},
	}, nil
}

// LLMMarketAssessor assesses the market with a language model
type LLMMarketAssessor struct {
	client *llm.Client
}

// NewLLMMarketAssessor creates a model-backed market assessor
func NewLLMMarketAssessor(client *llm.Client) *LLMMarketAssessor {
	return &LLMMarketAssessor{client: client}
}

const marketPrompt = `Assess the market opportunity of this startup: size, growth, competition and customer focus.

Application:
%s

Schema: {"score": 0-100, "summary": "...", "strengths": ["..."], "concerns": ["..."]}`

// AssessMarket asks the model for a market assessment
func (a *LLMMarketAssessor) AssessMarket(ctx context.Context, app model.Application) (*model.MarketAssessment, error) {
	p, err := complete[assessmentPayload](ctx, a.client, fmt.Sprintf(marketPrompt, snapshot(app)))
	if err != nil {
		return nil, fmt.Errorf("assess market: %w", err)
	}
	return &model.MarketAssessment{
		ApplicationID: app.ID,
		Score:         p.Score,
		Grade:         model.GradeForScore(p.Score),
		Summary:       p.Summary,
		Strengths:     p.Strengths,
		Concerns:      p.Concerns,
		Details:       map[string]interface{}{"provider": a.client.ProviderName()},
	}, nil
}

type claimRef struct {
	ID       string `json:"claim_id"`
	Category string `json:"category"`
	Text     string `json:"text"`
}

func claimRefs(claims []model.Claim) string {
	refs := make([]claimRef, len(claims))
	for i, c := range claims {
		refs[i] = claimRef{ID: c.ID, Category: string(c.Category), Text: c.Text}
	}
	return llm.PromptJSON(refs)
}

// LLMVerifier assesses claim plausibility with a language model
type LLMVerifier struct {
	client *llm.Client
}

// NewLLMVerifier creates a model-backed claim verifier
func NewLLMVerifier(client *llm.Client) *LLMVerifier {
	return &LLMVerifier{client: client}
}

const verifyPrompt = `For each claim, judge from general knowledge whether it is plausible and consistent.
Use "unconfirmed" when you cannot tell. Do not cite URLs.

Claims:
%s

Schema: {"verifications": [{"claim_id": "...", "verdict": "confirmed|disputed|refuted|unconfirmed",
  "confidence": 0.0-1.0, "evidence": "one sentence", "evidence_urls": []}]}`

// VerifyClaims asks the model for one verdict per claim
func (v *LLMVerifier) VerifyClaims(ctx context.Context, claims []model.Claim) ([]model.Verification, error) {
	if len(claims) == 0 {
		return nil, nil
	}
	p, err := complete[verificationsPayload](ctx, v.client, fmt.Sprintf(verifyPrompt, claimRefs(claims)))
	if err != nil {
		return nil, fmt.Errorf("verify claims: %w", err)
	}
	out := make([]model.Verification, 0, len(p.Verifications))
	for _, pv := range p.Verifications {
		out = append(out, model.Verification{
			ClaimID:    pv.ClaimID,
			SourceType: "ai_analysis",
			SourceName: v.client.ProviderName(),
			Verdict:    model.Verdict(pv.Verdict),
			Confidence: pv.Confidence,
			Evidence:   pv.Evidence,
		})
	}
	return out, nil
}

// LLMDocumentVerifier checks claims against documents with a language model.
// Cited URLs must come from the document itself when strict evidence is on.
type LLMDocumentVerifier struct {
	client  *llm.Client
	loader  *fetch.Loader
	workers int
	logger  *slog.Logger
}

// NewLLMDocumentVerifier creates a model-backed document verifier
func NewLLMDocumentVerifier(client *llm.Client, loader *fetch.Loader, workers int) *LLMDocumentVerifier {
	if workers <= 0 {
		workers = 4
	}
	return &LLMDocumentVerifier{
		client:  client,
		loader:  loader,
		workers: workers,
		logger:  logging.New("analysis.documents"),
	}
}

const documentPrompt = `Compare the claims with the document below. Only report claims the document addresses.
Cite only URLs that appear in the document.

Document %q (%s):
%s

Claims:
%s

Schema: {"verifications": [{"claim_id": "...", "verdict": "confirmed|disputed|refuted|unconfirmed",
  "confidence": 0.0-1.0, "evidence": "quote from the document", "evidence_urls": ["..."]}]}`

// VerifyDocuments asks the model about each document in turn
func (v *LLMDocumentVerifier) VerifyDocuments(ctx context.Context, claims []model.Claim, docs []model.Document) ([]model.Verification, error) {
	if len(docs) == 0 || len(claims) == 0 {
		return nil, nil
	}
	pages, err := loadPages(ctx, v.loader, v.workers, docs, v.logger)
	if err != nil {
		return nil, err
	}

	refs := claimRefs(claims)
	var out []model.Verification
	var errs []error
	for _, page := range pages {
		vs, err := v.verifyPage(ctx, page, refs)
		if err != nil {
			v.logger.Warn("document verification failed", "document", page.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		out = append(out, vs...)
	}
	if len(errs) == len(pages) {
		return nil, fmt.Errorf("verify documents: %w", errors.Join(errs...))
	}
	return out, nil
}

func (v *LLMDocumentVerifier) verifyPage(ctx context.Context, page *fetch.Page, refs string) ([]model.Verification, error) {
	allowed := make([]string, 0, len(page.Links)+1)
	if page.URL != "" {
		allowed = append(allowed, page.URL)
	}
	for _, l := range page.Links {
		allowed = append(allowed, l.URL)
	}

	prompt := fmt.Sprintf(documentPrompt, page.Name, page.Tier, truncate(pageBody(page), maxPageChars), refs)
	resp, err := v.client.CompleteWithEvidence(ctx, llm.Request{System: systemPrompt, Prompt: prompt, JSON: true}, allowed)
	if err != nil {
		return nil, err
	}
	p, err := llm.Parse[verificationsPayload](resp.Text).Unwrap()
	if err != nil {
		return nil, err
	}

	credibility := page.Tier.Credibility()
	out := make([]model.Verification, 0, len(p.Verifications))
	for _, pv := range p.Verifications {
		urls := pv.EvidenceURLs
		if len(urls) == 0 && page.URL != "" {
			urls = []string{page.URL}
		}
		out = append(out, model.Verification{
			ClaimID:           pv.ClaimID,
			SourceType:        "document",
			SourceName:        page.Name,
			SourceCredentials: string(page.Tier),
			Verdict:           model.Verdict(pv.Verdict),
			Confidence:        pv.Confidence,
			Evidence:          pv.Evidence,
			EvidenceURLs:      urls,
			CredibilityScore:  &credibility,
		})
	}
	return out, nil
}

// LLMSynthesizer scores with the deterministic synthesizer and lets the model
// write the summary, strengths and red flags
type LLMSynthesizer struct {
	client *llm.Client
	base   *Synthesizer
	logger *slog.Logger
}

// NewLLMSynthesizer wraps base
func NewLLMSynthesizer(client *llm.Client, base *Synthesizer) *LLMSynthesizer {
	return &LLMSynthesizer{client: client, base: base, logger: logging.New("analysis.synthesis")}
}

const reportPrompt = `Write the investment committee summary for this due diligence report. Do not change the score or verdict.

Report:
%s

Claims:
%s

Schema: {"summary": "3-5 sentences", "strengths": ["..."], "red_flags": ["..."]}`

type claimStatusRef struct {
	Text   string            `json:"text"`
	Status model.ClaimStatus `json:"status"`
}

// Synthesize builds the deterministic report and replaces its prose when the
// model answers; the deterministic prose is kept otherwise
func (s *LLMSynthesizer) Synthesize(ctx context.Context, in SynthesisInput) (*model.Report, error) {
	report, err := s.base.Synthesize(ctx, in)
	if err != nil {
		return nil, err
	}

	statuses := make([]claimStatusRef, len(in.Claims))
	for i, c := range in.Claims {
		statuses[i] = claimStatusRef{Text: c.Text, Status: c.Status}
	}
	brief := llm.PromptJSON(map[string]interface{}{
		"company":        companyName(in.Application),
		"score":          report.OverallScore,
		"grade":          report.Grade,
		"verdict":        report.Verdict,
		"team_score":     report.TeamScore,
		"market_score":   report.MarketScore,
		"omissions":      in.Omissions,
		"signals":        report.Signals,
		"coverage":       report.VerificationCoverage,
		"refuted_claims": report.RefutedClaims,
	})

	p, err := complete[reportTextPayload](ctx, s.client, fmt.Sprintf(reportPrompt, brief, llm.PromptJSON(statuses)))
	if err != nil {
		s.logger.Warn("report narrative unavailable, keeping deterministic text", "error", err)
		return report, nil
	}
	report.Summary = p.Summary
	if len(p.Strengths) > 0 {
		report.Strengths = p.Strengths
	}
	if len(p.RedFlags) > 0 {
		report.RedFlags = p.RedFlags
	}
	return report, nil
}

// LLMNarrator writes accuracy insights with a language model
type LLMNarrator struct {
	client *llm.Client
}

// NewLLMNarrator creates a model-backed narrator
func NewLLMNarrator(client *llm.Client) *LLMNarrator {
	return &LLMNarrator{client: client}
}

const narratePrompt = `These are accuracy metrics for an automated due diligence system compared with partner decisions and startup outcomes.
Write 2-5 short, specific insights an investment partner should act on.

Metrics:
%s

Schema: {"insights": ["..."]}`

// Narrate asks the model for insights
func (n *LLMNarrator) Narrate(ctx context.Context, m accuracy.Metrics) ([]string, error) {
	p, err := complete[insightsPayload](ctx, n.client, fmt.Sprintf(narratePrompt, llm.PromptJSON(m)))
	if err != nil {
		return nil, fmt.Errorf("narrate insights: %w", err)
	}
	return p.Insights, nil
}

func pageBody(page *fetch.Page) string {
	if page.Markdown != "" {
		return page.Markdown
	}
	return page.Text
}
