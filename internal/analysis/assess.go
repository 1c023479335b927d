package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/diligence/internal/model"
)

// experienceKeywords in a founder background indicate relevant track record
var experienceKeywords = []string{
	"founded", "co-founded", "exit", "acquired", "previously", "former", "ex-",
	"years", "led", "head of", "vp", "director", "phd", "built", "scaled",
}

var technicalRoles = []string{"cto", "engineer", "technical", "developer", "architect", "scientist"}
var businessRoles = []string{"ceo", "coo", "cmo", "sales", "business", "operations", "growth"}

// HeuristicTeamAssessor scores the founding team from founder records
type HeuristicTeamAssessor struct{}

// NewHeuristicTeamAssessor creates a new team assessor
func NewHeuristicTeamAssessor() *HeuristicTeamAssessor {
	return &HeuristicTeamAssessor{}
}

// AssessTeam scores team size, role balance and founder track record
func (a *HeuristicTeamAssessor) AssessTeam(ctx context.Context, app model.Application) (*model.TeamAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(app.Founders) == 0 {
		return nil, errors.New("no founders listed")
	}

	var strengths, concerns []string
	score := 0

	// 1. Team size (0-25 points)
	switch n := len(app.Founders); {
	case n == 1:
		score += 10
		concerns = append(concerns, "Solo founder")
	case n <= 3:
		score += 25
		strengths = append(strengths, fmt.Sprintf("Founding team of %d", n))
	default:
		score += 18
		concerns = append(concerns, fmt.Sprintf("Large founding team (%d) may complicate decisions", n))
	}

	// 2. Role balance (0-20 points)
	technical, business := false, false
	for _, f := range app.Founders {
		role := strings.ToLower(f.Role)
		if _, ok := containsAny(role, technicalRoles); ok {
			technical = true
		}
		if _, ok := containsAny(role, businessRoles); ok {
			business = true
		}
	}
	if technical {
		score += 10
	} else {
		concerns = append(concerns, "No technical founder")
	}
	if business {
		score += 10
	} else {
		concerns = append(concerns, "No business-side founder")
	}
	if technical && business {
		strengths = append(strengths, "Balanced technical and business roles")
	}

	// 3. Track record (0-45 points)
	experience := 0
	matched := make(map[string][]string, len(app.Founders))
	for _, f := range app.Founders {
		lower := strings.ToLower(f.Background)
		var hits []string
		for _, kw := range experienceKeywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			matched[f.Name] = hits
		}
		experience += min(len(hits)*5, 15)
		if strings.Contains(lower, "exit") || strings.Contains(lower, "acquired") {
			strengths = append(strengths, fmt.Sprintf("%s has a prior exit", f.Name))
		}
	}
	score += min(experience, 45)
	if experience == 0 {
		concerns = append(concerns, "No relevant track record described")
	}

	// 4. Verifiability (0-10 points)
	profiles := 0
	for _, f := range app.Founders {
		if f.LinkedIn != "" {
			profiles++
		}
	}
	score += profiles * 10 / len(app.Founders)
	if profiles == 0 {
		concerns = append(concerns, "No founder profiles to verify")
	}

	score = clamp(score, 0, 100)
	return &model.TeamAssessment{
		ApplicationID: app.ID,
		Score:         score,
		Grade:         model.GradeForScore(score),
		Summary:       fmt.Sprintf("%d founder(s), team score %d/100", len(app.Founders), score),
		Strengths:     strengths,
		Concerns:      concerns,
		Details: map[string]interface{}{
			"founders":            len(app.Founders),
			"technical_founder":   technical,
			"business_founder":    business,
			"experience_points":   min(experience, 45),
			"experience_keywords": matched,
			"profiles":            profiles,
			"formula":             "size(25) + roles(20) + min(sum(min(keywords*5,15)),45) + profiles/founders*10",
		},
	}, nil
}

var growthKeywords = []string{"growth", "growing", "cagr", "expanding", "doubling", "yoy"}
var competitionKeywords = []string{"competitor", "competition", "incumbent", "alternative", "compete"}
var segmentKeywords = []string{"b2b", "b2c", "smb", "enterprise", "consumer", "mid-market", "retail", "hospitals", "developers", "freelancers"}

// HeuristicMarketAssessor scores the market description
type HeuristicMarketAssessor struct{}

// NewHeuristicMarketAssessor creates a new market assessor
func NewHeuristicMarketAssessor() *HeuristicMarketAssessor {
	return &HeuristicMarketAssessor{}
}

// AssessMarket scores sizing, growth, competition awareness and segment focus
func (a *HeuristicMarketAssessor) AssessMarket(ctx context.Context, app model.Application) (*model.MarketAssessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text := strings.TrimSpace(app.Market)
	if text == "" && strings.TrimSpace(app.Problem) == "" {
		return nil, errors.New("no market or problem description")
	}
	lower := strings.ToLower(text)

	var strengths, concerns []string
	score := 0

	// 1. Market sizing (0-30 points)
	var size float64
	for _, amt := range extractAmounts(text) {
		if !amt.Percent && amt.Value > size {
			size = amt.Value
		}
	}
	switch {
	case size >= 1e9:
		score += 30
		strengths = append(strengths, fmt.Sprintf("Large addressable market (~$%.1fB)", size/1e9))
	case size >= 1e8:
		score += 20
		strengths = append(strengths, fmt.Sprintf("Meaningful addressable market (~$%.0fM)", size/1e6))
	case size > 0:
		score += 10
		concerns = append(concerns, "Small or unclear market size")
	default:
		concerns = append(concerns, "Market size not quantified")
	}

	// 2. Growth (0-20 points)
	if kw, ok := containsAny(lower, growthKeywords); ok {
		score += 20
		strengths = append(strengths, "Market growth described ("+kw+")")
	} else {
		concerns = append(concerns, "No market growth data")
	}

	// 3. Competition awareness (0-15 points)
	if _, ok := containsAny(lower, competitionKeywords); ok {
		score += 15
	} else {
		concerns = append(concerns, "Competition not addressed")
	}

	// 4. Segment focus (0-15 points)
	if kw, ok := containsAny(lower, segmentKeywords); ok {
		score += 15
		strengths = append(strengths, "Clear customer segment ("+kw+")")
	}

	// 5. Problem clarity (0-20 points)
	problem := strings.TrimSpace(app.Problem)
	switch {
	case len(problem) >= 120:
		score += 20
	case problem != "":
		score += 10
	default:
		concerns = append(concerns, "Problem statement is missing")
	}

	score = clamp(score, 0, 100)
	return &model.MarketAssessment{
		ApplicationID: app.ID,
		Score:         score,
		Grade:         model.GradeForScore(score),
		Summary:       fmt.Sprintf("Market score %d/100", score),
		Strengths:     strengths,
		Concerns:      concerns,
		Details: map[string]interface{}{
			"market_size_usd": size,
			"formula":         "sizing(30) + growth(20) + competition(15) + segment(15) + problem(20)",
		},
	}, nil
}
