package strategy

import (
	"fmt"

	"RaceBrain/internal/model"
)

// scoreEdge scores the gap between model probability and market implied probability.
// Weight: 0.60
func scoreEdge(edge float64) model.FactorScore {
	var score float64
	switch {
	case edge >= 0.15:
		score = 2.0
	case edge >= 0.10:
		score = 1.5
	case edge >= 0.05:
		score = 1.0
	case edge >= 0.02:
		score = 0.5
	case edge >= 0:
		score = 0
	case edge >= -0.05:
		score = -1.0
	default:
		score = -2.0
	}

	return model.FactorScore{
		Name:       "Edge",
		RawScore:   score,
		Weight:     0.60,
		Weighted:   score * 0.60,
		Commentary: fmt.Sprintf("%+.1f%%", edge*100),
	}
}

// scoreExpectedValue scores the expected return per dollar staked.
// Weight: 0.25
func scoreExpectedValue(ev float64) model.FactorScore {
	var score float64
	switch {
	case ev >= 0.50:
		score = 2.0
	case ev >= 0.25:
		score = 1.5
	case ev >= 0.10:
		score = 1.0
	case ev >= 0:
		score = 0
	case ev >= -0.20:
		score = -1.0
	default:
		score = -2.0
	}

	return model.FactorScore{
		Name:       "EV",
		RawScore:   score,
		Weight:     0.25,
		Weighted:   score * 0.25,
		Commentary: fmt.Sprintf("%+.2f per $1", ev),
	}
}

// scorePriceBand prefers prices between 2.0 and 10.
// Weight: 0.15
func scorePriceBand(odds float64) model.FactorScore {
	var score float64
	var commentary string
	switch {
	case odds < 2.0:
		score = -1.0
		commentary = "odds-on"
	case odds <= 10:
		score = 1.0
		commentary = "value zone"
	case odds <= 20:
		score = 0
		commentary = "outsider"
	default:
		score = -1.0
		commentary = "long shot"
	}

	return model.FactorScore{
		Name:       "Price",
		RawScore:   score,
		Weight:     0.15,
		Weighted:   score * 0.15,
		Commentary: commentary,
	}
}
