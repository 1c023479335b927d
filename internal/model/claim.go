package model

import "time"

// ClaimStatus is the resolved verification state of a claim
type ClaimStatus string

const (
	ClaimPending    ClaimStatus = "pending"
	ClaimAIVerified ClaimStatus = "ai_verified"
	ClaimConfirmed  ClaimStatus = "confirmed"
	ClaimDisputed   ClaimStatus = "disputed"
	ClaimRefuted    ClaimStatus = "refuted"
	ClaimUnverified ClaimStatus = "unverified"
)

// ClaimCategory groups claims by what they assert
type ClaimCategory string

const (
	CategoryTeam      ClaimCategory = "team"
	CategoryTraction  ClaimCategory = "traction"
	CategoryMarket    ClaimCategory = "market"
	CategoryProduct   ClaimCategory = "product"
	CategoryFinancial ClaimCategory = "financial"
	CategoryOther     ClaimCategory = "other"
)

// Priority of a claim for verification
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Claim is a factual assertion extracted from an application
type Claim struct {
	ID              string        `json:"id"`
	ApplicationID   string        `json:"application_id"`
	Category        ClaimCategory `json:"category"`
	Text            string        `json:"text"`
	SourceText      string        `json:"source_text,omitempty"`      // Sentence or field the claim came from
	SourceType      string        `json:"source_type,omitempty"`      // application_field, metrics, founder, document
	SourceReference string        `json:"source_reference,omitempty"` // e.g. "traction", "metrics.mrr"
	Status          ClaimStatus   `json:"status"`
	Priority        Priority      `json:"priority"`

	ExtractionConfidence   float64  `json:"extraction_confidence"`
	VerificationConfidence *float64 `json:"verification_confidence,omitempty"`

	Contradicts  []string `json:"contradicts,omitempty"`  // Claim IDs
	Corroborates []string `json:"corroborates,omitempty"` // Claim IDs
	Benchmark    bool     `json:"benchmark,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Verdict is one source's outcome for a claim
type Verdict string

const (
	VerdictConfirmed   Verdict = "confirmed"
	VerdictDisputed    Verdict = "disputed"
	VerdictRefuted     Verdict = "refuted"
	VerdictUnconfirmed Verdict = "unconfirmed"
)

// Valid reports whether v is one of the known verdicts
func (v Verdict) Valid() bool {
	switch v {
	case VerdictConfirmed, VerdictDisputed, VerdictRefuted, VerdictUnconfirmed:
		return true
	}
	return false
}

// Verification is a single verdict on a claim. Immutable once written.
type Verification struct {
	ID                string    `json:"id"`
	ClaimID           string    `json:"claim_id"`
	SourceType        string    `json:"source_type"` // ai_analysis, document, public_record
	SourceName        string    `json:"source_name"`
	SourceCredentials string    `json:"source_credentials,omitempty"`
	Verdict           Verdict   `json:"verdict"`
	Confidence        float64   `json:"confidence"`
	Evidence          string    `json:"evidence,omitempty"`
	EvidenceURLs      []string  `json:"evidence_urls,omitempty"`
	CredibilityScore  *float64  `json:"credibility_score,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
