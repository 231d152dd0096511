package calculator

import (
	"errors"
	"math"
)

// ErrInvalidOdds is returned for decimal odds that cannot be priced (≤ 1 or non-finite).
var ErrInvalidOdds = errors.New("decimal odds must be greater than 1")

func validOdds(odds float64) bool {
	return odds > 1 && !math.IsInf(odds, 0) && !math.IsNaN(odds)
}

// ImpliedProbability converts decimal odds into the market's win probability.
func ImpliedProbability(odds float64) (float64, error) {
	if !validOdds(odds) {
		return 0, ErrInvalidOdds
	}
	return 1 / odds, nil
}

// Edge is the model probability minus the market's implied probability.
func Edge(score, odds float64) (float64, error) {
	implied, err := ImpliedProbability(odds)
	if err != nil {
		return 0, err
	}
	return score - implied, nil
}

// ExpectedValue is the expected return per unit staked.
func ExpectedValue(score, odds float64) (float64, error) {
	if !validOdds(odds) {
		return 0, ErrInvalidOdds
	}
	return score*odds - 1, nil
}

// Kelly returns the full-Kelly fraction of bankroll for a win bet. Negative-value bets return 0.
func Kelly(score, odds float64) (float64, error) {
	if !validOdds(odds) {
		return 0, ErrInvalidOdds
	}
	switch {
	case score >= 1:
		return 1, nil
	case score <= 0:
		return 0, nil
	}
	f := (score*odds - 1) / (odds - 1)
	if f < 0 {
		return 0, nil
	}
	return f, nil
}

// Overround sums the implied probabilities of a field. Values above 1 are the pool's take.
// Unpriced runners are ignored.
func Overround(odds []float64) float64 {
	var total float64
	for _, o := range odds {
		if validOdds(o) {
			total += 1 / o
		}
	}
	return total
}
