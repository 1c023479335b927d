package model

// ReportView is everything stored for one application's latest DD run
type ReportView struct {
	Application   *Application      `json:"application"`
	Report        *Report           `json:"report,omitempty"`
	Claims        []Claim           `json:"claims"`
	Verifications []Verification    `json:"verifications"`
	Omissions     []Omission        `json:"omissions"`
	Team          *TeamAssessment   `json:"team_assessment,omitempty"`
	Market        *MarketAssessment `json:"market_assessment,omitempty"`
}

// VerificationsFor returns the verifications attached to claimID
func (v *ReportView) VerificationsFor(claimID string) []Verification {
	var out []Verification
	for _, ver := range v.Verifications {
		if ver.ClaimID == claimID {
			out = append(out, ver)
		}
	}
	return out
}
