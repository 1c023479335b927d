// Package analysis provides the services the due diligence pipeline calls:
// claim extraction, team and market assessment, claim and document
// verification, and report synthesis. Each has a deterministic heuristic
// implementation and a language model implementation.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/diligence/internal/accuracy"
	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/llm"
	"github.com/ppiankov/diligence/internal/model"
)

// Analysis modes
const (
	ModeHeuristic = "heuristic"
	ModeLLM       = "llm"
)

// Extraction is the output of claim extraction. Claim IDs are local keys
// that Contradicts and Corroborates refer to; the caller assigns real IDs.
type Extraction struct {
	Claims    []model.Claim
	Omissions []model.Omission
}

// SynthesisInput is everything a report is built from
type SynthesisInput struct {
	Application   model.Application
	Claims        []model.Claim
	Verifications []model.Verification
	Omissions     []model.Omission
	Team          *model.TeamAssessment
	Market        *model.MarketAssessment
}

// ClaimExtractor finds verifiable claims and omissions in an application
type ClaimExtractor interface {
	ExtractClaims(ctx context.Context, app model.Application) (*Extraction, error)
}

// TeamAssessor scores the founding team
type TeamAssessor interface {
	AssessTeam(ctx context.Context, app model.Application) (*model.TeamAssessment, error)
}

// MarketAssessor scores the target market
type MarketAssessor interface {
	AssessMarket(ctx context.Context, app model.Application) (*model.MarketAssessment, error)
}

// ClaimVerifier produces verdicts for persisted claims
type ClaimVerifier interface {
	VerifyClaims(ctx context.Context, claims []model.Claim) ([]model.Verification, error)
}

// DocumentVerifier checks claims against the application's documents
type DocumentVerifier interface {
	VerifyDocuments(ctx context.Context, claims []model.Claim, docs []model.Document) ([]model.Verification, error)
}

// ReportSynthesizer turns resolved claims and side-channel outputs into a report
type ReportSynthesizer interface {
	Synthesize(ctx context.Context, in SynthesisInput) (*model.Report, error)
}

// Narrator writes free-text insights about accuracy metrics
type Narrator interface {
	Narrate(ctx context.Context, m accuracy.Metrics) ([]string, error)
}

// Suite is one implementation of every analysis service
type Suite struct {
	Mode        string
	Extractor   ClaimExtractor
	Team        TeamAssessor
	Market      MarketAssessor
	Verifier    ClaimVerifier
	Documents   DocumentVerifier
	Synthesizer ReportSynthesizer
	Narrator    Narrator // nil unless narrative insights are enabled
}

// Deps are the collaborators analysis services may need
type Deps struct {
	LLM     *llm.Client   // Required in llm mode and for narrative insights
	Loader  *fetch.Loader // Documents; nil restricts to inline content
	Workers int           // Concurrent document loads
}

// NewSuite builds the suite selected by cfg.Mode
func NewSuite(cfg model.AnalysisConfig, deps Deps) (*Suite, error) {
	if deps.Loader == nil {
		deps.Loader = fetch.NewLoader(nil, nil)
	}
	docs := NewHeuristicDocumentVerifier(deps.Loader, deps.Workers)
	synth := NewSynthesizer()

	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	var s *Suite
	switch mode {
	case "", ModeHeuristic:
		s = &Suite{
			Mode:        ModeHeuristic,
			Extractor:   NewHeuristicExtractor(),
			Team:        NewHeuristicTeamAssessor(),
			Market:      NewHeuristicMarketAssessor(),
			Verifier:    NewRuleVerifier(),
			Documents:   docs,
			Synthesizer: synth,
		}
	case ModeLLM:
		if !deps.LLM.Enabled() {
			return nil, fmt.Errorf("analysis mode %q requires an LLM provider (set llm.provider)", ModeLLM)
		}
		s = &Suite{
			Mode:        ModeLLM,
			Extractor:   NewLLMExtractor(deps.LLM),
			Team:        NewLLMTeamAssessor(deps.LLM),
			Market:      NewLLMMarketAssessor(deps.LLM),
			Verifier:    NewLLMVerifier(deps.LLM),
			Documents:   NewLLMDocumentVerifier(deps.LLM, deps.Loader, deps.Workers),
			Synthesizer: NewLLMSynthesizer(deps.LLM, synth),
		}
	default:
		return nil, fmt.Errorf("unknown analysis mode: %s (supported: heuristic, llm)", cfg.Mode)
	}

	if cfg.Narrative {
		if !deps.LLM.Enabled() {
			return nil, fmt.Errorf("narrative insights require an LLM provider (set llm.provider)")
		}
		s.Narrator = NewLLMNarrator(deps.LLM)
	}
	return s, nil
}
