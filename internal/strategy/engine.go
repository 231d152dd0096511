package strategy

import (
	"RaceBrain/internal/calculator"
	"RaceBrain/internal/model"
)

// Tiers defines the staking ladder, highest score first.
var Tiers = []struct {
	MinScore float64
	Tier     model.StakeTier
}{
	{1.5, model.StakeTier{Label: "Max", KellyFraction: 0.50}},
	{1.0, model.StakeTier{Label: "Strong", KellyFraction: 0.35}},
	{0.6, model.StakeTier{Label: "Standard", KellyFraction: 0.25}},
	{0.3, model.StakeTier{Label: "Small", KellyFraction: 0.10}},
}

// DefaultTier is used for scores below every threshold and for runners without an edge.
var DefaultTier = model.StakeTier{Label: "Pass", KellyFraction: 0}

// RunnerInput is what the strategy needs to know about one runner.
type RunnerInput struct {
	Horse string
	Odds  float64
	Score float64
}

// mapTier maps a total score to a StakeTier.
func mapTier(totalScore float64) model.StakeTier {
	for _, t := range Tiers {
		if totalScore >= t.MinScore {
			return t.Tier
		}
	}
	return DefaultTier
}

// Evaluate computes the staking signal for one runner.
func Evaluate(in RunnerInput) model.RunnerSignal {
	signal := model.RunnerSignal{
		Horse: in.Horse,
		Odds:  in.Odds,
		Score: in.Score,
		Tier:  DefaultTier,
	}

	implied, err := calculator.ImpliedProbability(in.Odds)
	if err != nil {
		return signal
	}
	edge := in.Score - implied
	ev, _ := calculator.ExpectedValue(in.Score, in.Odds)
	kelly, _ := calculator.Kelly(in.Score, in.Odds)

	f1 := scoreEdge(edge)
	f2 := scoreExpectedValue(ev)
	f3 := scorePriceBand(in.Odds)

	signal.Implied = implied
	signal.Edge = edge
	signal.Kelly = kelly
	signal.Factors = []model.FactorScore{f1, f2, f3}
	signal.TotalScore = f1.Weighted + f2.Weighted + f3.Weighted

	// no edge, no bet, however the other factors score
	if edge <= 0 || kelly <= 0 {
		return signal
	}
	signal.Tier = mapTier(signal.TotalScore)
	return signal
}
