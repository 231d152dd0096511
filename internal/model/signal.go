package model

// FactorScore represents a single factor's scoring result.
type FactorScore struct {
	Name       string
	RawScore   float64
	Weight     float64
	Weighted   float64
	Commentary string
}

// StakeTier maps a total score range to a staking action.
type StakeTier struct {
	Label         string
	KellyFraction float64 // share of the full Kelly stake, 0 means no bet
}

// Bets reports whether the tier places a bet at all.
func (t StakeTier) Bets() bool { return t.KellyFraction > 0 }

// RunnerSignal is the strategy verdict on one runner.
type RunnerSignal struct {
	Horse      string
	Odds       float64
	Score      float64
	Implied    float64
	Edge       float64
	Kelly      float64
	Factors    []FactorScore
	TotalScore float64
	Tier       StakeTier
}
