package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/logging"
	"github.com/ppiankov/diligence/internal/model"
	"github.com/ppiankov/diligence/internal/worker"
)

// Thresholds for matching a claim to a document sentence
const (
	minSentenceOverlap  = 0.5
	minQualitativeMatch = 0.7
	numberTolerance     = 0.1 // Relative difference still counted as the same figure
	disputeTolerance    = 0.5 // Beyond this the document refutes the figure
)

// HeuristicDocumentVerifier checks claims against fetched or inline documents
type HeuristicDocumentVerifier struct {
	loader  *fetch.Loader
	workers int
	logger  *slog.Logger
}

// NewHeuristicDocumentVerifier creates a document verifier
func NewHeuristicDocumentVerifier(loader *fetch.Loader, workers int) *HeuristicDocumentVerifier {
	if workers <= 0 {
		workers = 4
	}
	return &HeuristicDocumentVerifier{
		loader:  loader,
		workers: workers,
		logger:  logging.New("analysis.documents"),
	}
}

type loadResult struct {
	name string
	page *fetch.Page
	err  error
}

// loadPages loads documents concurrently. It fails only when no document loads.
func loadPages(ctx context.Context, loader *fetch.Loader, workers int, docs []model.Document, logger *slog.Logger) ([]*fetch.Page, error) {
	results := worker.Map(ctx, workers, docs, func(ctx context.Context, doc model.Document) loadResult {
		page, err := loader.Load(ctx, doc)
		return loadResult{name: doc.Name, page: page, err: err}
	})

	var pages []*fetch.Page
	var errs []error
	for _, r := range results {
		if r.err != nil {
			logger.Warn("document load failed", "document", r.name, "error", r.err)
			errs = append(errs, r.err)
			continue
		}
		if r.page != nil {
			pages = append(pages, r.page)
		}
	}
	if len(pages) == 0 && len(docs) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("no documents could be loaded: %w", errors.Join(errs...))
	}
	return pages, nil
}

// VerifyDocuments emits at most one verdict per claim and document: the best
// matching sentence decides whether the document confirms, disputes or refutes it
func (v *HeuristicDocumentVerifier) VerifyDocuments(ctx context.Context, claims []model.Claim, docs []model.Document) ([]model.Verification, error) {
	if len(docs) == 0 || len(claims) == 0 {
		return nil, nil
	}
	pages, err := loadPages(ctx, v.loader, v.workers, docs, v.logger)
	if err != nil {
		return nil, err
	}

	var out []model.Verification
	for _, c := range claims {
		claimWords := significantWords(c.Text)
		claimAmounts := extractAmounts(c.Text)
		for _, page := range pages {
			if ver, ok := matchPage(c, claimWords, claimAmounts, page); ok {
				out = append(out, ver)
			}
		}
	}
	v.logger.Debug("document verification", "documents", len(pages), "claims", len(claims), "verdicts", len(out))
	return out, nil
}

func matchPage(c model.Claim, claimWords map[string]bool, claimAmounts []amount, page *fetch.Page) (model.Verification, bool) {
	best, bestScore := "", 0.0
	for _, s := range page.Sentences {
		if score := overlap(claimWords, significantWords(s)); score > bestScore {
			best, bestScore = s, score
		}
	}
	if bestScore < minSentenceOverlap {
		return model.Verification{}, false
	}

	credibility := page.Tier.Credibility()
	ver := model.Verification{
		ClaimID:           c.ID,
		SourceType:        "document",
		SourceName:        page.Name,
		SourceCredentials: string(page.Tier),
		Evidence:          truncate(best, 300),
		CredibilityScore:  &credibility,
	}
	if page.URL != "" {
		ver.EvidenceURLs = []string{page.URL}
	}

	if len(claimAmounts) > 0 {
		diff, comparable := closestAmount(claimAmounts, extractAmounts(best))
		if !comparable {
			return model.Verification{}, false
		}
		switch {
		case diff <= numberTolerance:
			ver.Verdict = model.VerdictConfirmed
		case diff <= disputeTolerance:
			ver.Verdict = model.VerdictDisputed
		default:
			ver.Verdict = model.VerdictRefuted
		}
		ver.Confidence = roundConfidence(0.4 + 0.3*bestScore + 0.3*credibility)
		return ver, true
	}

	if bestScore < minQualitativeMatch {
		return model.Verification{}, false
	}
	ver.Verdict = model.VerdictConfirmed
	ver.Confidence = roundConfidence(0.3 + 0.3*bestScore + 0.3*credibility)
	return ver, true
}

func roundConfidence(v float64) float64 {
	if v > 1 {
		v = 1
	}
	return float64(int(v*100+0.5)) / 100
}
