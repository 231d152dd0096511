package pipeline

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"RaceBrain/internal/model"
	"RaceBrain/internal/strategy"
)

var (
	// DefaultBudget is the total stake allowed on one card.
	DefaultBudget = decimal.NewFromInt(2000)
	// StakeUnit is the smallest bet increment accepted by the pool.
	StakeUnit = decimal.NewFromInt(10)
)

const DefaultMaxBets = 4

// ValueConfig configures the built-in pipeline.
type ValueConfig struct {
	Budget  decimal.Decimal
	MaxBets int
	Venue   string
}

// ValuePipeline ranks runners by model edge over the market, stakes the best of them by a
// fractional Kelly ladder and writes the card.
type ValuePipeline struct {
	cfg    ValueConfig
	logger zerolog.Logger
}

// NewValuePipeline creates the built-in pipeline.
func NewValuePipeline(cfg ValueConfig, logger zerolog.Logger) *ValuePipeline {
	if cfg.Budget.LessThanOrEqual(decimal.Zero) {
		cfg.Budget = DefaultBudget
	}
	if cfg.MaxBets <= 0 {
		cfg.MaxBets = DefaultMaxBets
	}
	if cfg.Venue == "" {
		cfg.Venue = "HV"
	}
	return &ValuePipeline{
		cfg:    cfg,
		logger: logger.With().Str("component", "value_pipeline").Logger(),
	}
}

// Run builds a card. Every bet carries zero profit; settlement happens once results are in.
func (p *ValuePipeline) Run(ctx context.Context, in Context) (model.Card, error) {
	if err := ctx.Err(); err != nil {
		return model.Card{}, &model.PipelineError{Op: "value pipeline", Err: err}
	}
	if in.Bankroll.Balance.IsNegative() {
		return model.Card{}, &model.PipelineError{Op: "value pipeline", Err: errors.New("bankroll balance is negative")}
	}

	var signals []model.RunnerSignal
	scored := 0
	for _, pred := range in.Predictions {
		if pred.Insufficient {
			continue
		}
		scored++
		sig := strategy.Evaluate(strategy.RunnerInput{Horse: pred.Horse, Odds: pred.Odds, Score: pred.Score})
		if sig.Tier.Bets() {
			signals = append(signals, sig)
		}
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Edge != signals[j].Edge {
			return signals[i].Edge > signals[j].Edge
		}
		return signals[i].Horse < signals[j].Horse
	})
	if len(signals) > p.cfg.MaxBets {
		signals = signals[:p.cfg.MaxBets]
	}

	bets := p.stake(signals, in.Bankroll.Balance)
	card := model.Card{Bets: bets}
	card.Text = FormatCard(CardView{
		Venue:     p.cfg.Venue,
		Runners:   len(in.Odds),
		Scored:    scored,
		Signals:   signals,
		Bets:      bets,
		Budget:    p.cfg.Budget,
		Tips:      in.Tips,
		ModelInfo: in.ModelInfo,
	})

	p.logger.Info().
		Int("runners", len(in.Odds)).
		Int("scored", scored).
		Int("bets", len(bets)).
		Str("total_stake", card.TotalStake().String()).
		Msg("card built")
	return card, nil
}

// stake sizes each signal at balance × kelly × tier fraction, scales the whole card down to
// fit min(budget, balance) and rounds every stake down to the pool unit.
func (p *ValuePipeline) stake(signals []model.RunnerSignal, balance decimal.Decimal) []model.Bet {
	if len(signals) == 0 || !balance.IsPositive() {
		return nil
	}
	limit := decimal.Min(p.cfg.Budget, balance)

	raw := make([]decimal.Decimal, len(signals))
	total := decimal.Zero
	for i, s := range signals {
		raw[i] = balance.Mul(decimal.NewFromFloat(s.Kelly * s.Tier.KellyFraction))
		total = total.Add(raw[i])
	}
	if total.IsZero() {
		return nil
	}
	scale := decimal.NewFromInt(1)
	if total.GreaterThan(limit) {
		scale = limit.Div(total)
	}

	var bets []model.Bet
	for i, s := range signals {
		amount := raw[i].Mul(scale).Div(StakeUnit).Floor().Mul(StakeUnit)
		if amount.LessThan(StakeUnit) {
			continue
		}
		bets = append(bets, model.Bet{
			Horse:  s.Horse,
			Odds:   s.Odds,
			Score:  s.Score,
			Edge:   s.Edge,
			Tier:   s.Tier.Label,
			Stake:  amount,
			Profit: decimal.Zero,
		})
	}
	return bets
}

var _ Pipeline = (*ValuePipeline)(nil)
