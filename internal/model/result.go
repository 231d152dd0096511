package model

import (
	"errors"
	"strings"
)

// ResultRecord is one settled runner outcome. Keys follow past_results.jsonl.
// Numeric fields that are absent from a line decode as zero.
type ResultRecord struct {
	Date              string  `json:"date"`
	RaceNumber        int     `json:"race"`
	HorseName         string  `json:"horse"`
	Jockey            string  `json:"jockey,omitempty"`
	Trainer           string  `json:"trainer,omitempty"`
	Barrier           float64 `json:"barrier,omitempty"`
	LastStartPosition float64 `json:"last_start_pos,omitempty"`
	JockeyWinRate     float64 `json:"jockey_win_rate,omitempty"`
	TrainerWinRate    float64 `json:"trainer_win_rate,omitempty"`
	Rating            float64 `json:"rating,omitempty"`
	Weight            float64 `json:"weight,omitempty"`
	OddsAtClose       float64 `json:"odds,omitempty"`
	FinishingPosition int     `json:"position"`
	RealizedProfit    float64 `json:"profit"`
}

// Validate checks that the fields needed to identify the runner are present.
func (r ResultRecord) Validate() error {
	var errs []error
	if strings.TrimSpace(r.Date) == "" {
		errs = append(errs, errors.New("date is required"))
	}
	if r.RaceNumber < 1 {
		errs = append(errs, errors.New("race must be >= 1"))
	}
	if strings.TrimSpace(r.HorseName) == "" {
		errs = append(errs, errors.New("horse is required"))
	}
	return errors.Join(errs...)
}

// Won reports whether the runner finished first.
func (r ResultRecord) Won() bool {
	return r.FinishingPosition == 1
}
