package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

type claimPayload struct {
	Key             string   `json:"key"`
	Category        string   `json:"category"`
	Text            string   `json:"text"`
	SourceText      string   `json:"source_text"`
	SourceReference string   `json:"source_reference"`
	Priority        string   `json:"priority"`
	Confidence      float64  `json:"confidence"`
	Benchmark       bool     `json:"benchmark"`
	Contradicts     []string `json:"contradicts"`
	Corroborates    []string `json:"corroborates"`
}

type omissionPayload struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type extractionPayload struct {
	Claims    []claimPayload    `json:"claims"`
	Omissions []omissionPayload `json:"omissions"`
}

var validCategories = map[string]bool{
	string(model.CategoryTeam): true, string(model.CategoryTraction): true, string(model.CategoryMarket): true,
	string(model.CategoryProduct): true, string(model.CategoryFinancial): true, string(model.CategoryOther): true,
}

var validPriorities = map[string]bool{
	string(model.PriorityHigh): true, string(model.PriorityMedium): true, string(model.PriorityLow): true,
}

var validSeverities = map[string]bool{
	string(model.SeverityInfo): true, string(model.SeverityWarning): true, string(model.SeverityCritical): true,
}

func (p *extractionPayload) Validate() error {
	keys := make(map[string]bool, len(p.Claims))
	for i, c := range p.Claims {
		if strings.TrimSpace(c.Key) == "" || strings.TrimSpace(c.Text) == "" {
			return fmt.Errorf("claims[%d]: key and text are required", i)
		}
		if keys[c.Key] {
			return fmt.Errorf("claims[%d]: duplicate key %q", i, c.Key)
		}
		keys[c.Key] = true
		if !validCategories[c.Category] {
			return fmt.Errorf("claims[%d]: invalid category %q", i, c.Category)
		}
		if !validPriorities[c.Priority] {
			return fmt.Errorf("claims[%d]: invalid priority %q", i, c.Priority)
		}
		if c.Confidence < 0 || c.Confidence > 1 {
			return fmt.Errorf("claims[%d]: confidence %v outside [0,1]", i, c.Confidence)
		}
	}
	for i, c := range p.Claims {
		for _, ref := range append(append([]string{}, c.Contradicts...), c.Corroborates...) {
			if !keys[ref] {
				return fmt.Errorf("claims[%d]: unknown related claim %q", i, ref)
			}
		}
	}
	for i, o := range p.Omissions {
		if strings.TrimSpace(o.Description) == "" {
			return fmt.Errorf("omissions[%d]: description is required", i)
		}
		if !validCategories[o.Category] {
			return fmt.Errorf("omissions[%d]: invalid category %q", i, o.Category)
		}
		if !validSeverities[o.Severity] {
			return fmt.Errorf("omissions[%d]: invalid severity %q", i, o.Severity)
		}
	}
	return nil
}

type assessmentPayload struct {
	Score     int      `json:"score"`
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	Concerns  []string `json:"concerns"`
}

func (p *assessmentPayload) Validate() error {
	if p.Score < 0 || p.Score > 100 {
		return fmt.Errorf("score %d outside [0,100]", p.Score)
	}
	return nil
}

type verificationPayload struct {
	ClaimID      string   `json:"claim_id"`
	Verdict      string   `json:"verdict"`
	Confidence   float64  `json:"confidence"`
	Evidence     string   `json:"evidence"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type verificationsPayload struct {
	Verifications []verificationPayload `json:"verifications"`
}

func (p *verificationsPayload) Validate() error {
	for i, v := range p.Verifications {
		if v.ClaimID == "" {
			return fmt.Errorf("verifications[%d]: claim_id is required", i)
		}
		if !model.Verdict(v.Verdict).Valid() {
			return fmt.Errorf("verifications[%d]: invalid verdict %q", i, v.Verdict)
		}
		if v.Confidence < 0 || v.Confidence > 1 {
			return fmt.Errorf("verifications[%d]: confidence %v outside [0,1]", i, v.Confidence)
		}
	}
	return nil
}

type reportTextPayload struct {
	Summary   string   `json:"summary"`
	Strengths []string `json:"strengths"`
	RedFlags  []string `json:"red_flags"`
}

func (p *reportTextPayload) Validate() error {
	if strings.TrimSpace(p.Summary) == "" {
		return errors.New("summary is required")
	}
	return nil
}

type insightsPayload struct {
	Insights []string `json:"insights"`
}

func (p *insightsPayload) Validate() error {
	for i, s := range p.Insights {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("insights[%d]: empty", i)
		}
	}
	return nil
}
