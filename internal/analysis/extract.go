package analysis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/diligence/internal/fetch"
	"github.com/ppiankov/diligence/internal/model"
)

// categoryKeywords decides the category of a sentence; first match wins
var categoryKeywords = []struct {
	category model.ClaimCategory
	words    []string
}{
	{model.CategoryFinancial, []string{"revenue", "mrr", "arr", "profit", "margin", "burn", "runway", "raised", "valuation", "funding", "ebitda", "gmv"}},
	{model.CategoryTraction, []string{"users", "customers", "clients", "growth", "grew", "retention", "churn", "downloads", "signups", "pilots", "waitlist", "month-over-month", "mom", "paying"}},
	{model.CategoryMarket, []string{"market", "tam", "sam", "industry", "competitors", "competition", "segment", "cagr"}},
	{model.CategoryTeam, []string{"founder", "co-founder", "ceo", "cto", "team", "engineers", "hired", "previously", "former", "ex-"}},
	{model.CategoryProduct, []string{"platform", "product", "launched", "patent", "technology", "feature", "app", "api", "integrat"}},
}

// assertionKeywords mark a sentence as a factual assertion even without numbers
var assertionKeywords = []string{
	"first", "only", "leading", "largest", "patent", "partnered", "partnership",
	"signed", "launched", "acquired", "award", "certified", "exclusive", "backed by",
}

// benchmarkKeywords mark comparisons to known companies or baselines
var benchmarkKeywords = []string{
	"faster than", "cheaper than", "better than", "compared to", "versus", " vs ", "uber for", "like airbnb", "industry average", "benchmark",
}

var financialMetricKeys = []string{"revenue", "mrr", "arr", "burn", "runway", "raised", "valuation", "profit", "margin", "gmv"}

// HeuristicExtractor finds claims with keyword and number heuristics
type HeuristicExtractor struct{}

// NewHeuristicExtractor creates a new heuristic extractor
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

type textField struct {
	ref      string
	text     string
	fallback model.ClaimCategory
}

// ExtractClaims extracts claims from application fields, metrics and founders
func (e *HeuristicExtractor) ExtractClaims(ctx context.Context, app model.Application) (*Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var claims []model.Claim
	next := 0
	add := func(c model.Claim) {
		next++
		c.ID = fmt.Sprintf("c%d", next)
		c.ApplicationID = app.ID
		c.Status = model.ClaimPending
		claims = append(claims, c)
	}

	// 1. Metrics are explicit, structured claims
	for _, key := range sortedKeys(app.Metrics) {
		value := strings.TrimSpace(app.Metrics[key])
		if value == "" {
			continue
		}
		category := model.CategoryTraction
		if _, ok := containsAny(strings.ToLower(key), financialMetricKeys); ok {
			category = model.CategoryFinancial
		}
		add(model.Claim{
			Category:             category,
			Text:                 fmt.Sprintf("%s: %s", humanizeKey(key), value),
			SourceText:           fmt.Sprintf("%s=%s", key, value),
			SourceType:           "metrics",
			SourceReference:      "metrics." + key,
			Priority:             model.PriorityHigh,
			ExtractionConfidence: 0.95,
		})
	}

	// 2. Founder backgrounds
	for i, f := range app.Founders {
		if strings.TrimSpace(f.Background) == "" {
			continue
		}
		who := f.Name
		if f.Role != "" {
			who = fmt.Sprintf("%s (%s)", f.Name, f.Role)
		}
		for _, sentence := range fetch.Sentences(f.Background) {
			add(model.Claim{
				Category:             model.CategoryTeam,
				Text:                 fmt.Sprintf("%s: %s", who, sentence),
				SourceText:           sentence,
				SourceType:           "founder",
				SourceReference:      fmt.Sprintf("founders[%d]", i),
				Priority:             model.PriorityMedium,
				ExtractionConfidence: 0.8,
			})
		}
	}

	// 3. Free-text fields, sentence by sentence
	fields := []textField{
		{"traction", app.Traction, model.CategoryTraction},
		{"market", app.Market, model.CategoryMarket},
		{"problem", app.Problem, model.CategoryProduct},
		{"solution", app.Solution, model.CategoryProduct},
		{"one_liner", app.OneLiner, model.CategoryProduct},
	}
	for _, field := range fields {
		for _, sentence := range fetch.Sentences(field.text) {
			claim, ok := classifySentence(sentence, field.fallback)
			if !ok {
				continue
			}
			claim.SourceText = sentence
			claim.SourceType = "application_field"
			claim.SourceReference = field.ref
			add(claim)
		}
	}

	claims = dedupeClaims(claims)
	linkClaims(claims)

	return &Extraction{
		Claims:    claims,
		Omissions: detectOmissions(app),
	}, nil
}

// classifySentence decides whether a sentence is a claim and how to file it
func classifySentence(sentence string, fallback model.ClaimCategory) (model.Claim, bool) {
	lower := strings.ToLower(sentence)
	hasNumber := len(extractAmounts(sentence)) > 0
	_, asserts := containsAny(lower, assertionKeywords)
	_, benchmark := containsAny(" "+lower+" ", benchmarkKeywords)
	if !hasNumber && !asserts && !benchmark {
		return model.Claim{}, false
	}

	category := fallback
	for _, ck := range categoryKeywords {
		if _, ok := containsAny(lower, ck.words); ok {
			category = ck.category
			break
		}
	}

	claim := model.Claim{
		Category:             category,
		Text:                 strings.TrimSpace(sentence),
		Benchmark:            benchmark,
		Priority:             model.PriorityLow,
		ExtractionConfidence: 0.6,
	}
	if hasNumber {
		claim.ExtractionConfidence = 0.75
		claim.Priority = model.PriorityMedium
		if category == model.CategoryTraction || category == model.CategoryFinancial {
			claim.Priority = model.PriorityHigh
		}
	}
	return claim, true
}

// dedupeClaims removes duplicate claims
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	var unique []model.Claim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}

// linkClaims connects free-text claims to the metric claims they restate.
// A matching number corroborates; a differing number on the same metric contradicts.
func linkClaims(claims []model.Claim) {
	for i := range claims {
		if claims[i].SourceType != "metrics" {
			continue
		}
		key := strings.TrimPrefix(claims[i].SourceReference, "metrics.")
		keyWords := metricWords(key)
		metricAmounts := extractAmounts(claims[i].Text)
		if len(keyWords) == 0 || len(metricAmounts) == 0 {
			continue
		}
		for j := range claims {
			if claims[j].SourceType == "metrics" {
				continue
			}
			if _, ok := containsAny(strings.ToLower(claims[j].Text), keyWords); !ok {
				continue
			}
			diff, comparable := closestAmount(metricAmounts, extractAmounts(claims[j].Text))
			if !comparable {
				continue
			}
			if diff <= 0.1 {
				claims[i].Corroborates = append(claims[i].Corroborates, claims[j].ID)
				claims[j].Corroborates = append(claims[j].Corroborates, claims[i].ID)
			} else {
				claims[i].Contradicts = append(claims[i].Contradicts, claims[j].ID)
				claims[j].Contradicts = append(claims[j].Contradicts, claims[i].ID)
			}
		}
	}
}

// metricWords turns a metric key like "monthly_active_users" into match words
func metricWords(key string) []string {
	key = strings.ToLower(key)
	switch key {
	case "mrr", "arr", "gmv", "nps", "ltv", "cac":
		return []string{key}
	}
	var words []string
	for _, w := range strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' || r == ' ' }) {
		if len(w) >= 4 {
			words = append(words, w)
		}
	}
	return words
}

func humanizeKey(key string) string {
	k := strings.NewReplacer("_", " ", "-", " ").Replace(key)
	switch strings.ToLower(k) {
	case "mrr", "arr", "gmv", "nps", "ltv", "cac":
		return strings.ToUpper(k)
	}
	if k == "" {
		return k
	}
	return strings.ToUpper(k[:1]) + k[1:]
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// detectOmissions lists information a complete application would contain
func detectOmissions(app model.Application) []model.Omission {
	var out []model.Omission
	add := func(category model.ClaimCategory, severity model.SignalSeverity, desc string) {
		out = append(out, model.Omission{
			ApplicationID: app.ID,
			Category:      category,
			Description:   desc,
			Severity:      severity,
		})
	}

	if len(app.Founders) == 0 {
		add(model.CategoryTeam, model.SeverityCritical, "No founders listed")
	} else {
		missing := 0
		for _, f := range app.Founders {
			if strings.TrimSpace(f.Background) == "" {
				missing++
			}
		}
		if missing > 0 {
			add(model.CategoryTeam, model.SeverityWarning, fmt.Sprintf("%d of %d founders have no background", missing, len(app.Founders)))
		}
	}

	if strings.TrimSpace(app.Traction) == "" && len(app.Metrics) == 0 {
		add(model.CategoryTraction, model.SeverityWarning, "No traction or metrics provided")
	}
	if strings.TrimSpace(app.Market) == "" {
		add(model.CategoryMarket, model.SeverityWarning, "No market description")
	}
	if strings.TrimSpace(app.Problem) == "" {
		add(model.CategoryProduct, model.SeverityWarning, "Problem statement is missing")
	}

	hasFinancial := false
	for key := range app.Metrics {
		if _, ok := containsAny(strings.ToLower(key), financialMetricKeys); ok {
			hasFinancial = true
			break
		}
	}
	if !hasFinancial {
		add(model.CategoryFinancial, model.SeverityInfo, "No financial metrics (revenue, burn, runway) disclosed")
	}
	return out
}
