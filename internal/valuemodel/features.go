package valuemodel

import "RaceBrain/internal/model"

// FeatureNames is the fixed input order of the estimator.
var FeatureNames = []string{
	"barrier",
	"last_start_pos",
	"jockey_win_rate",
	"trainer_win_rate",
	"rating",
	"weight",
	"odds",
}

// FeaturesFrom extracts the feature vector of a result record. Missing columns are already
// zero after decoding, so sparse history produces a usable vector.
func FeaturesFrom(r model.ResultRecord) []float64 {
	return []float64{
		r.Barrier,
		r.LastStartPosition,
		r.JockeyWinRate,
		r.TrainerWinRate,
		r.Rating,
		r.Weight,
		r.OddsAtClose,
	}
}

// Label is 1 for a winner and 0 otherwise.
func Label(r model.ResultRecord) float64 {
	if r.Won() {
		return 1
	}
	return 0
}
