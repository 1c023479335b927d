package model

import "time"

// DDStatus is the due diligence state of an application
type DDStatus string

const (
	DDNotStarted      DDStatus = "not_started"
	DDClaimsExtracted DDStatus = "claims_extracted"
	DDAIVerification  DDStatus = "ai_verification"
	DDCompleted       DDStatus = "completed"
	DDFailed          DDStatus = "failed"
)

// IsTerminal reports whether no further pipeline transitions happen from s
func (s DDStatus) IsTerminal() bool {
	return s == DDCompleted || s == DDFailed
}

// CanTransition reports whether the state machine allows s -> next.
// A terminal state may only be left by starting a new run (next == DDClaimsExtracted).
func (s DDStatus) CanTransition(next DDStatus) bool {
	if next == DDClaimsExtracted {
		return true
	}
	if next == DDFailed {
		return !s.IsTerminal()
	}
	switch s {
	case DDClaimsExtracted:
		return next == DDAIVerification
	case DDAIVerification:
		return next == DDCompleted
	}
	return false
}

// Application is a startup application submitted to the program
type Application struct {
	ID          string            `json:"id" yaml:"id"`
	CompanyName string            `json:"company_name" yaml:"company_name"`
	OneLiner    string            `json:"one_liner,omitempty" yaml:"one_liner,omitempty"`
	Problem     string            `json:"problem,omitempty" yaml:"problem,omitempty"`
	Solution    string            `json:"solution,omitempty" yaml:"solution,omitempty"`
	Market      string            `json:"market,omitempty" yaml:"market,omitempty"`
	Traction    string            `json:"traction,omitempty" yaml:"traction,omitempty"`
	Founders    []Founder         `json:"founders,omitempty" yaml:"founders,omitempty"`
	Metrics     map[string]string `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Documents   []Document        `json:"documents,omitempty" yaml:"documents,omitempty"`

	DDStatus        DDStatus   `json:"dd_status" yaml:"dd_status,omitempty"`
	DDStartedAt     *time.Time `json:"dd_started_at,omitempty" yaml:"-"`
	DDCompletedAt   *time.Time `json:"dd_completed_at,omitempty" yaml:"-"`
	CurrentReportID string     `json:"current_report_id,omitempty" yaml:"-"`

	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// Founder is one member of the founding team
type Founder struct {
	Name       string `json:"name" yaml:"name"`
	Role       string `json:"role,omitempty" yaml:"role,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
	LinkedIn   string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
}

// Document is supporting material attached to an application.
// Either Content (inline text/HTML) or URL is set.
type Document struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind,omitempty" yaml:"kind,omitempty"` // pitch_deck, financials, website, ...
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// HasDocuments reports whether document verification applies
func (a *Application) HasDocuments() bool {
	return len(a.Documents) > 0
}
