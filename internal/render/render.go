// Package render writes DD reports as JSON, Markdown and terminal summaries.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

// Renderer formats report views
type Renderer struct {
	// MaxEvidence limits the evidence snippet length in Markdown; 0 means no limit
	MaxEvidence int
}

// NewRenderer creates a renderer with default settings
func NewRenderer() *Renderer {
	return &Renderer{MaxEvidence: 240}
}

// WriteJSON writes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderJSON writes the view as JSON to path, creating parent directories
func (r *Renderer) RenderJSON(view *model.ReportView, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, view) })
}

// RenderMarkdown writes the view as Markdown to path
func (r *Renderer) RenderMarkdown(view *model.ReportView, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, view) })
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteMarkdown writes a human-readable DD report
func (r *Renderer) WriteMarkdown(w io.Writer, view *model.ReportView) error {
	var b strings.Builder
	app := view.Application

	fmt.Fprintf(&b, "# Due Diligence: %s\n\n", app.CompanyName)
	if app.OneLiner != "" {
		fmt.Fprintf(&b, "_%s_\n\n", app.OneLiner)
	}
	fmt.Fprintf(&b, "- **Application:** `%s`\n", app.ID)
	fmt.Fprintf(&b, "- **DD status:** %s\n", app.DDStatus)

	rep := view.Report
	if rep == nil {
		b.WriteString("\nNo report has been generated yet.\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	fmt.Fprintf(&b, "- **Score:** %d/100 (grade %s)\n", rep.OverallScore, rep.Grade)
	fmt.Fprintf(&b, "- **Recommendation:** %s\n", verdictLabel(rep.Verdict))
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if rep.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", rep.Summary)
	}
	writeList(&b, "Strengths", rep.Strengths)
	writeList(&b, "Red Flags", rep.RedFlags)

	b.WriteString("## Verification\n\n")
	fmt.Fprintf(&b, "| Claims | Verified | Disputed | Refuted | Coverage |\n")
	fmt.Fprintf(&b, "|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %.1f%% |\n\n",
		rep.TotalClaims, rep.VerifiedClaims, rep.DisputedClaims, rep.RefutedClaims, rep.VerificationCoverage)

	if view.Team != nil || view.Market != nil {
		b.WriteString("## Assessments\n\n")
		if t := view.Team; t != nil {
			writeAssessment(&b, "Team", t.Score, t.Grade, t.Summary, t.Strengths, t.Concerns)
		}
		if m := view.Market; m != nil {
			writeAssessment(&b, "Market", m.Score, m.Grade, m.Summary, m.Strengths, m.Concerns)
		}
	}

	if len(view.Claims) > 0 {
		b.WriteString("## Claims\n\n")
		for _, c := range sortedClaims(view.Claims) {
			fmt.Fprintf(&b, "### [%s] %s\n\n", strings.ToUpper(string(c.Status)), c.Text)
			fmt.Fprintf(&b, "- Category: %s, priority: %s\n", c.Category, c.Priority)
			if c.VerificationConfidence != nil {
				fmt.Fprintf(&b, "- Confidence: %.2f\n", *c.VerificationConfidence)
			}
			if c.SourceReference != "" {
				fmt.Fprintf(&b, "- Source: `%s`\n", c.SourceReference)
			}
			for _, v := range view.VerificationsFor(c.ID) {
				fmt.Fprintf(&b, "- %s (%s, %.2f)", v.SourceName, v.Verdict, v.Confidence)
				if v.Evidence != "" {
					fmt.Fprintf(&b, ": %s", r.clip(v.Evidence))
				}
				b.WriteString("\n")
				for _, u := range v.EvidenceURLs {
					fmt.Fprintf(&b, "  - <%s>\n", u)
				}
			}
			b.WriteString("\n")
		}
	}

	if len(view.Omissions) > 0 {
		b.WriteString("## Omissions\n\n")
		for _, o := range view.Omissions {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", o.Category, o.Severity, o.Description)
		}
		b.WriteString("\n")
	}

	if len(rep.Signals) > 0 {
		b.WriteString("## Scoring Signals\n\n")
		for _, s := range rep.Signals {
			fmt.Fprintf(&b, "- `%s` [%s] %s\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints a short run summary
func (r *Renderer) RenderSummary(w io.Writer, res *model.RunResult) {
	if res.Skipped {
		fmt.Fprintf(w, "%s: already completed (use --force to re-run)\n", res.ApplicationID)
	} else {
		fmt.Fprintf(w, "%s: %s\n", res.ApplicationID, res.Status)
	}
	if res.Report == nil {
		return
	}
	md := res.Metadata
	fmt.Fprintf(w, "  Score:          %d/100 (%s)\n", md.Score, md.Grade)
	fmt.Fprintf(w, "  Recommendation: %s\n", verdictLabel(md.RecommendationVerdict))
	fmt.Fprintf(w, "  Claims:         %d (%d verified, %d refuted)\n",
		res.Report.TotalClaims, res.Report.VerifiedClaims, res.Report.RefutedClaims)
	if !res.Skipped {
		fmt.Fprintf(w, "  Verifications:  %d\n", md.TotalVerifications)
	}
	fmt.Fprintf(w, "  Omissions:      %d\n", md.TotalOmissions)
	if md.TeamScore != nil {
		fmt.Fprintf(w, "  Team:           %d (%s)\n", *md.TeamScore, md.TeamGrade)
	}
	if md.MarketScore != nil {
		fmt.Fprintf(w, "  Market:         %d (%s)\n", *md.MarketScore, md.MarketGrade)
	}
}

func (r *Renderer) clip(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r.MaxEvidence <= 0 || len(s) <= r.MaxEvidence {
		return s
	}
	return strings.TrimSpace(s[:r.MaxEvidence]) + "..."
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- %s\n", it)
	}
	b.WriteString("\n")
}

func writeAssessment(b *strings.Builder, name string, score int, grade, summary string, strengths, concerns []string) {
	fmt.Fprintf(b, "### %s: %d/100 (%s)\n\n", name, score, grade)
	if summary != "" {
		fmt.Fprintf(b, "%s\n\n", summary)
	}
	for _, s := range strengths {
		fmt.Fprintf(b, "- + %s\n", s)
	}
	for _, c := range concerns {
		fmt.Fprintf(b, "- - %s\n", c)
	}
	if len(strengths)+len(concerns) > 0 {
		b.WriteString("\n")
	}
}

var statusOrder = map[model.ClaimStatus]int{
	model.ClaimRefuted:    0,
	model.ClaimDisputed:   1,
	model.ClaimUnverified: 2,
	model.ClaimPending:    3,
	model.ClaimAIVerified: 4,
	model.ClaimConfirmed:  5,
}

// sortedClaims puts the most problematic claims first
func sortedClaims(claims []model.Claim) []model.Claim {
	out := append([]model.Claim(nil), claims...)
	sort.SliceStable(out, func(i, j int) bool {
		return statusOrder[out[i].Status] < statusOrder[out[j].Status]
	})
	return out
}

func verdictLabel(v model.RecommendationVerdict) string {
	switch v {
	case model.VerdictInvest:
		return "Invest"
	case model.VerdictConditionalInvest:
		return "Conditional invest"
	case model.VerdictPass:
		return "Pass"
	}
	return string(v)
}
