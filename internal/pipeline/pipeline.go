package pipeline

import (
	"context"
	"time"

	"RaceBrain/internal/model"
)

// RunnerPrediction is the value model's verdict on one priced runner.
type RunnerPrediction struct {
	Horse        string
	Odds         float64
	Score        float64
	Insufficient bool
}

// Context is everything a decision pipeline may read. It is a snapshot; pipelines never see
// the stores themselves.
type Context struct {
	Now         time.Time
	Bankroll    model.BankrollState
	Odds        model.OddsSnapshot
	Predictions []RunnerPrediction
	Tips        string
	ModelInfo   string
}

// Pipeline turns a decision context into a betting card. Failures are PipelineErrors.
type Pipeline interface {
	Run(ctx context.Context, in Context) (model.Card, error)
}

// Func adapts a plain function to Pipeline.
type Func func(ctx context.Context, in Context) (model.Card, error)

func (f Func) Run(ctx context.Context, in Context) (model.Card, error) { return f(ctx, in) }
