// Package engine holds the three scheduled jobs and the read-only command surface. Each store
// has exactly one writing job: DecisionRun writes the bankroll, Retrain writes the results log
// and the model, RefreshOdds writes the odds snapshot.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"RaceBrain/internal/bankroll"
	"RaceBrain/internal/collector"
	"RaceBrain/internal/metrics"
	"RaceBrain/internal/odds"
	"RaceBrain/internal/pipeline"
	"RaceBrain/internal/recorder"
	"RaceBrain/internal/results"
	"RaceBrain/internal/valuemodel"
)

// Job names as registered with the scheduler.
const (
	JobOdds     = "odds_refresh"
	JobDecision = "decision_run"
	JobRetrain  = "retrain"
)

// Notifier delivers a message and reports which channel took it.
type Notifier interface {
	Send(ctx context.Context, text string) (string, error)
}

// Options wires the engine to its stores and collaborators.
type Options struct {
	Ledger   *bankroll.Ledger
	Results  *results.Log
	Model    *valuemodel.Model
	Odds     *odds.Cache
	Fetcher  collector.Fetcher
	Feed     results.Feed
	Pipeline pipeline.Pipeline
	Tips     pipeline.TipsSource
	Notifier Notifier
	Recorder recorder.Recorder
	Metrics  *metrics.EngineMetrics

	OddsURL         string
	Venue           string
	DecisionWeekday time.Weekday
	Location        *time.Location
}

// Engine runs the jobs.
type Engine struct {
	opts   Options
	now    func() time.Time
	logger zerolog.Logger
}

// New validates opts and fills defaults for the optional collaborators.
func New(opts Options, logger zerolog.Logger) (*Engine, error) {
	switch {
	case opts.Ledger == nil:
		return nil, errors.New("engine: ledger is required")
	case opts.Results == nil:
		return nil, errors.New("engine: results log is required")
	case opts.Model == nil:
		return nil, errors.New("engine: value model is required")
	case opts.Odds == nil:
		return nil, errors.New("engine: odds cache is required")
	case opts.Pipeline == nil:
		return nil, errors.New("engine: pipeline is required")
	}
	if opts.Tips == nil {
		opts.Tips = pipeline.StaticTips("")
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New("", logger)
	}
	if opts.Venue == "" {
		opts.Venue = "HV"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	return &Engine{
		opts:   opts,
		now:    time.Now,
		logger: logger.With().Str("component", "engine").Logger(),
	}, nil
}

// Location is the zone the engine reasons about calendar days in.
func (e *Engine) Location() *time.Location { return e.opts.Location }

// DecisionWeekday is the only weekday DecisionRun produces a card on.
func (e *Engine) DecisionWeekday() time.Weekday { return e.opts.DecisionWeekday }

// Recorder exposes the run history store.
func (e *Engine) Recorder() recorder.Recorder { return e.opts.Recorder }
