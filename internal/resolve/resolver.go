// Package resolve merges the verdicts recorded for a claim into one status.
package resolve

import (
	"github.com/ppiankov/diligence/internal/model"
)

// Resolution is the merged status and confidence for one claim
type Resolution struct {
	Status     model.ClaimStatus
	Confidence float64
}

// Resolve merges a claim's verifications. First match wins:
//
//  1. any refuted                          -> refuted
//  2. any disputed                         -> disputed
//  3. all confirmed                        -> confirmed
//  4. any unconfirmed and none confirmed   -> unverified
//  5. otherwise (mixed corroboration)      -> ai_verified
//
// Confidence is the arithmetic mean of the verification confidences.
// ok is false for an empty set; callers must leave such claims untouched.
func Resolve(verifications []model.Verification) (res Resolution, ok bool) {
	if len(verifications) == 0 {
		return Resolution{}, false
	}

	counts := make(map[model.Verdict]int, 4)
	sum := 0.0
	for _, v := range verifications {
		counts[v.Verdict]++
		sum += v.Confidence
	}

	return Resolution{
		Status:     statusFor(counts, len(verifications)),
		Confidence: sum / float64(len(verifications)),
	}, true
}

func statusFor(counts map[model.Verdict]int, total int) model.ClaimStatus {
	switch {
	case counts[model.VerdictRefuted] > 0:
		return model.ClaimRefuted
	case counts[model.VerdictDisputed] > 0:
		return model.ClaimDisputed
	case counts[model.VerdictConfirmed] == total:
		return model.ClaimConfirmed
	case counts[model.VerdictUnconfirmed] > 0 && counts[model.VerdictConfirmed] == 0:
		return model.ClaimUnverified
	default:
		return model.ClaimAIVerified
	}
}

// GroupByClaim indexes verifications by claim ID, preserving input order
func GroupByClaim(verifications []model.Verification) map[string][]model.Verification {
	grouped := make(map[string][]model.Verification)
	for _, v := range verifications {
		grouped[v.ClaimID] = append(grouped[v.ClaimID], v)
	}
	return grouped
}
