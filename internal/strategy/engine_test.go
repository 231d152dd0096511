package strategy

import (
	"testing"
)

func TestEvaluate_ClearOverlay(t *testing.T) {
	sig := Evaluate(RunnerInput{Horse: "GOLDEN SIXTY", Odds: 4, Score: 0.35})
	if len(sig.Factors) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(sig.Factors))
	}
	if sig.Edge < 0.099 || sig.Edge > 0.101 {
		t.Errorf("expected edge 0.10, got %.4f", sig.Edge)
	}
	if !sig.Tier.Bets() {
		t.Errorf("expected a betting tier, got %q", sig.Tier.Label)
	}
	if sig.Tier.Label != "Strong" {
		t.Errorf("expected Strong tier, got %q (total=%.3f)", sig.Tier.Label, sig.TotalScore)
	}
}

func TestEvaluate_NoEdgeNeverBets(t *testing.T) {
	sig := Evaluate(RunnerInput{Horse: "A", Odds: 4, Score: 0.25})
	if sig.Tier.Bets() {
		t.Errorf("fair price must not bet, got %q", sig.Tier.Label)
	}

	sig = Evaluate(RunnerInput{Horse: "B", Odds: 3, Score: 0.10})
	if sig.Tier.Label != DefaultTier.Label {
		t.Errorf("negative edge must pass, got %q", sig.Tier.Label)
	}
	if sig.TotalScore >= 0 {
		t.Errorf("expected negative total for negative edge, got %.3f", sig.TotalScore)
	}
}

func TestEvaluate_UnpricedRunner(t *testing.T) {
	sig := Evaluate(RunnerInput{Horse: "SCRATCHED", Odds: 0, Score: 0.9})
	if sig.Tier.Bets() {
		t.Error("unpriced runner must not bet")
	}
	if sig.Factors != nil {
		t.Error("unpriced runner should not be scored")
	}
}

func TestMapTier_AllBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{2.0, "Max"},
		{1.5, "Max"},
		{1.2, "Strong"},
		{1.0, "Strong"},
		{0.8, "Standard"},
		{0.6, "Standard"},
		{0.4, "Small"},
		{0.3, "Small"},
		{0.1, "Pass"},
		{-1.0, "Pass"},
	}
	for _, tt := range tests {
		tier := mapTier(tt.score)
		if tier.Label != tt.label {
			t.Errorf("score %.1f: expected %q, got %q", tt.score, tt.label, tier.Label)
		}
	}
}

func TestPriceBand(t *testing.T) {
	if f := scorePriceBand(1.5); f.RawScore != -1.0 {
		t.Errorf("odds-on should score -1, got %.1f", f.RawScore)
	}
	if f := scorePriceBand(6); f.RawScore != 1.0 {
		t.Errorf("mid price should score 1, got %.1f", f.RawScore)
	}
	if f := scorePriceBand(35); f.RawScore != -1.0 {
		t.Errorf("long shot should score -1, got %.1f", f.RawScore)
	}
}
