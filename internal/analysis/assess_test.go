package analysis

import (
	"context"
	"testing"

	"github.com/ppiankov/diligence/internal/model"
)

func TestHeuristicTeamAssessor(t *testing.T) {
	team, err := NewHeuristicTeamAssessor().AssessTeam(context.Background(), sampleApp())
	if err != nil {
		t.Fatalf("AssessTeam: %v", err)
	}

	// size 25 + roles 20 + experience (15 + 5) + profiles 5
	if team.Score != 70 || team.Grade != "B" {
		t.Errorf("score/grade = %d/%s, want 70/B", team.Score, team.Grade)
	}
	if len(team.Concerns) != 0 {
		t.Errorf("unexpected concerns: %v", team.Concerns)
	}
	found := false
	for _, s := range team.Strengths {
		if s == "Jane Doe has a prior exit" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected prior exit strength, got %v", team.Strengths)
	}
	if team.Details["formula"] == nil {
		t.Error("details should carry the scoring formula")
	}
}

func TestHeuristicTeamAssessor_SoloNonTechnical(t *testing.T) {
	app := model.Application{
		ID:       "solo",
		Founders: []model.Founder{{Name: "Sam", Role: "CEO"}},
	}
	team, err := NewHeuristicTeamAssessor().AssessTeam(context.Background(), app)
	if err != nil {
		t.Fatalf("AssessTeam: %v", err)
	}
	if team.Score != 20 {
		t.Errorf("score = %d, want 20", team.Score)
	}
	want := map[string]bool{
		"Solo founder":                       true,
		"No technical founder":               true,
		"No relevant track record described": true,
		"No founder profiles to verify":      true,
	}
	for _, c := range team.Concerns {
		delete(want, c)
	}
	if len(want) != 0 {
		t.Errorf("missing concerns: %v (got %v)", want, team.Concerns)
	}
}

func TestHeuristicTeamAssessor_NoFounders(t *testing.T) {
	if _, err := NewHeuristicTeamAssessor().AssessTeam(context.Background(), model.Application{ID: "x"}); err == nil {
		t.Fatal("expected error without founders")
	}
}

func TestHeuristicMarketAssessor(t *testing.T) {
	market, err := NewHeuristicMarketAssessor().AssessMarket(context.Background(), sampleApp())
	if err != nil {
		t.Fatalf("AssessMarket: %v", err)
	}
	// sizing 30 + growth 20 + competition 15 + segment 15 + short problem 10
	if market.Score != 90 || market.Grade != "A" {
		t.Errorf("score/grade = %d/%s, want 90/A", market.Score, market.Grade)
	}
	if size, _ := market.Details["market_size_usd"].(float64); size != 12e9 {
		t.Errorf("market size = %v, want 12e9", market.Details["market_size_usd"])
	}
}

func TestHeuristicMarketAssessor_Unquantified(t *testing.T) {
	app := model.Application{ID: "m", Market: "Restaurants need better tools."}
	market, err := NewHeuristicMarketAssessor().AssessMarket(context.Background(), app)
	if err != nil {
		t.Fatalf("AssessMarket: %v", err)
	}
	if market.Score != 0 {
		t.Errorf("score = %d, want 0", market.Score)
	}
	if len(market.Concerns) != 4 {
		t.Errorf("concerns = %v, want 4 entries", market.Concerns)
	}
}

func TestHeuristicMarketAssessor_NoDescription(t *testing.T) {
	if _, err := NewHeuristicMarketAssessor().AssessMarket(context.Background(), model.Application{ID: "x"}); err == nil {
		t.Fatal("expected error without market or problem")
	}
}
