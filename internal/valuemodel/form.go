package valuemodel

import (
	"strings"

	"RaceBrain/internal/model"
)

// FormBook derives decision-time features for a runner from the results history: its latest
// start supplies barrier, rating, weight and last finishing position; jockey and trainer win
// rates are computed across the whole log. Unknown runners get zeros except for the live odds.
type FormBook struct {
	latest  map[string]model.ResultRecord
	jockey  map[string]rate
	trainer map[string]rate
}

type rate struct{ wins, rides int }

func (r rate) value() float64 {
	if r.rides == 0 {
		return 0
	}
	return float64(r.wins) / float64(r.rides)
}

// NewFormBook indexes records. Later records (by date, then log order) win for the same horse.
func NewFormBook(records []model.ResultRecord) *FormBook {
	fb := &FormBook{
		latest:  make(map[string]model.ResultRecord),
		jockey:  make(map[string]rate),
		trainer: make(map[string]rate),
	}
	for _, r := range records {
		key := normalise(r.HorseName)
		if prev, ok := fb.latest[key]; !ok || r.Date >= prev.Date {
			fb.latest[key] = r
		}
		if j := normalise(r.Jockey); j != "" {
			jr := fb.jockey[j]
			jr.rides++
			if r.Won() {
				jr.wins++
			}
			fb.jockey[j] = jr
		}
		if t := normalise(r.Trainer); t != "" {
			tr := fb.trainer[t]
			tr.rides++
			if r.Won() {
				tr.wins++
			}
			fb.trainer[t] = tr
		}
	}
	return fb
}

// Features returns the vector for horse at the given live odds, in FeatureNames order.
func (fb *FormBook) Features(horse string, odds float64) []float64 {
	x := make([]float64, len(FeatureNames))
	x[6] = odds

	last, ok := fb.latest[normalise(horse)]
	if !ok {
		return x
	}
	x[0] = last.Barrier
	x[1] = float64(last.FinishingPosition)
	x[2] = fb.jockey[normalise(last.Jockey)].value()
	x[3] = fb.trainer[normalise(last.Trainer)].value()
	x[4] = last.Rating
	x[5] = last.Weight
	return x
}

// Known reports whether horse has any history.
func (fb *FormBook) Known(horse string) bool {
	_, ok := fb.latest[normalise(horse)]
	return ok
}

func normalise(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
