package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RaceBrain/internal/collector"
	"RaceBrain/internal/metrics"
	"RaceBrain/internal/model"
	"RaceBrain/internal/notifier"
	"RaceBrain/internal/pipeline"
	"RaceBrain/internal/recorder"
	"RaceBrain/internal/valuemodel"
)

// RefreshOdds fetches the odds board for the day of now and replaces the snapshot. Fetch and
// parse failures are logged and counted but never returned; the previous snapshot stays.
func (e *Engine) RefreshOdds(ctx context.Context, now time.Time) error {
	if e.opts.Fetcher == nil || e.opts.OddsURL == "" {
		e.logger.Debug().Msg("odds source not configured, skipping refresh")
		return nil
	}
	url := collector.ExpandURL(e.opts.OddsURL, now.In(e.opts.Location))

	snap, err := e.opts.Odds.Refresh(ctx, e.opts.Fetcher, url)
	if err != nil {
		var fe *model.FetchError
		if errors.As(err, &fe) {
			e.opts.Metrics.FetchFailures.Inc()
			e.logger.Warn().Err(err).Str("url", url).Msg("odds refresh failed, keeping previous snapshot")
			return nil
		}
		return err
	}

	e.opts.Metrics.OddsRunners.Set(float64(len(snap)))
	e.opts.Metrics.OddsLastUpdate.Set(float64(now.Unix()))
	return nil
}

// DecisionRun produces, books and sends the betting card. It does nothing off the decision
// weekday or when a card was already produced today. A pipeline failure is logged and recorded
// with no ledger change and no message; a persistence failure aborts and is returned.
func (e *Engine) DecisionRun(ctx context.Context, now time.Time) error {
	now = now.In(e.opts.Location)
	log := e.logger.With().Str("job", JobDecision).Str("day", model.Day(now)).Logger()

	if now.Weekday() != e.opts.DecisionWeekday {
		log.Debug().Stringer("weekday", now.Weekday()).Msg("not a decision day")
		return nil
	}

	state, err := e.opts.Ledger.Load()
	if err != nil {
		e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPersistErr, Note: err.Error()})
		return err
	}
	if state.LastDecisionOn == model.Day(now) {
		log.Info().Msg("card already produced today")
		return nil
	}
	previousDay := state.UpdatedOn
	if state, err = e.opts.Ledger.ApplyDailyReset(state, now); err != nil {
		e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPersistErr, Note: err.Error()})
		return err
	}
	if state.UpdatedOn != previousDay {
		e.recordBankrollEvent(&recorder.BankrollEvent{At: now, EventType: recorder.EventReset, BalanceAfter: state.Balance})
	}

	records, err := e.opts.Results.ReadAll()
	if err != nil {
		e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPersistErr, Note: err.Error()})
		return err
	}
	snapshot := e.opts.Odds.Current()
	info := e.opts.Model.Info()

	in := pipeline.Context{
		Now:         now,
		Bankroll:    state,
		Odds:        snapshot,
		Predictions: e.predict(snapshot, valuemodel.NewFormBook(records)),
		Tips:        e.tips(ctx),
		ModelInfo:   notifier.FormatModel(info.Trained, info.TrainedAt, info.Samples),
	}

	card, err := e.opts.Pipeline.Run(ctx, in)
	if err != nil {
		var pe *model.PipelineError
		if !errors.As(err, &pe) {
			err = &model.PipelineError{Op: "run", Err: err}
		}
		log.Error().Err(err).Msg("pipeline failed, no bets booked")
		e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPipelineErr, BalanceAfter: state.Balance, Note: err.Error()})
		return nil
	}

	for _, bet := range card.Bets {
		if state, err = e.opts.Ledger.RecordOutcome(state, bet.Stake, bet.Profit); err != nil {
			e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPersistErr, Bets: card.Bets, BalanceAfter: state.Balance, Note: err.Error()})
			return fmt.Errorf("book bet on %s: %w", bet.Horse, err)
		}
		e.recordBankrollEvent(&recorder.BankrollEvent{
			At:           now,
			EventType:    recorder.EventBet,
			Horse:        bet.Horse,
			Stake:        bet.Stake,
			Profit:       bet.Profit,
			BalanceAfter: state.Balance,
		})
	}
	if state, err = e.opts.Ledger.MarkDecision(state, now); err != nil {
		e.recordDecision(&recorder.DecisionRun{At: now, Status: recorder.StatusPersistErr, Bets: card.Bets, BalanceAfter: state.Balance, Note: err.Error()})
		return err
	}

	run := &recorder.DecisionRun{At: now, Status: recorder.StatusOK, Bets: card.Bets, BalanceAfter: state.Balance}
	if len(card.Bets) == 0 {
		run.Status = recorder.StatusNoBets
	}
	run.Channel, run.Note = e.notify(ctx, notifier.FormatReport(e.opts.Venue, now, card, state))
	if run.Note != "" {
		run.Status = recorder.StatusNotifyErr
	}
	e.recordDecision(run)

	e.opts.Metrics.UpdateBankroll(state.Balance, state.PnLToday, state.BetsPlacedToday)
	e.opts.Metrics.CardStake.Set(metrics.DecimalToFloat64(card.TotalStake()))
	log.Info().
		Int("bets", len(card.Bets)).
		Str("total_stake", card.TotalStake().String()).
		Str("balance", state.Balance.String()).
		Str("channel", run.Channel).
		Msg("decision run complete")
	return nil
}

// Retrain ingests newly settled results and refits the model on the whole log. A feed that
// cannot be read is logged and training proceeds on what is already in the log.
func (e *Engine) Retrain(ctx context.Context, now time.Time) error {
	log := e.logger.With().Str("job", JobRetrain).Logger()
	run := &recorder.RetrainRun{At: now}

	report, err := e.opts.Results.Ingest(ctx, e.opts.Feed)
	if err != nil {
		var perr *model.PersistenceError
		if errors.As(err, &perr) {
			run.Note = err.Error()
			e.recordRetrain(run)
			return err
		}
		log.Warn().Err(err).Msg("results feed unavailable, training on existing log")
	}
	run.Ingested = report.Appended
	e.opts.Metrics.ResultsAdded.Add(float64(report.Appended))
	if report.Received > 0 {
		log.Info().
			Int("received", report.Received).
			Int("appended", report.Appended).
			Int("duplicates", report.Duplicates).
			Int("invalid", report.Invalid).
			Msg("settled results ingested")
	}

	records, err := e.opts.Results.ReadAll()
	if err != nil {
		run.Note = err.Error()
		e.recordRetrain(run)
		return err
	}

	res, err := e.opts.Model.Train(records)
	run.Samples = res.Samples
	if err != nil {
		run.Note = err.Error()
		e.recordRetrain(run)
		return err
	}
	run.Trained = res.Trained
	run.LogLoss = res.LogLoss
	if !res.Trained {
		run.Note = fmt.Sprintf("need %d results, have %d", res.Required, res.Samples)
	}
	e.recordRetrain(run)

	if res.Trained {
		e.opts.Metrics.ModelSamples.Set(float64(res.Samples))
		e.opts.Metrics.ModelLogLoss.Set(res.LogLoss)
	}
	return nil
}

// predict scores every priced runner in the snapshot. Runners with a blank or scratched price
// are left out; a runner whose features are rejected is logged and skipped.
func (e *Engine) predict(snapshot model.OddsSnapshot, book *valuemodel.FormBook) []pipeline.RunnerPrediction {
	var out []pipeline.RunnerPrediction
	for _, horse := range snapshot.Horses() {
		price, ok := snapshot[horse].Decimal()
		if !ok {
			continue
		}
		if !book.Known(horse) {
			e.logger.Debug().Str("horse", horse).Msg("no form history, scoring on odds alone")
		}
		p, err := e.opts.Model.Predict(book.Features(horse, price))
		if err != nil {
			e.logger.Warn().Err(err).Str("horse", horse).Msg("runner not scored")
			continue
		}
		out = append(out, pipeline.RunnerPrediction{
			Horse:        horse,
			Odds:         price,
			Score:        p.Score,
			Insufficient: p.Insufficient,
		})
	}
	return out
}

func (e *Engine) tips(ctx context.Context) string {
	text, err := e.opts.Tips.Tips(ctx)
	if err != nil || text == "" {
		return pipeline.DefaultTips
	}
	return text
}

// notify returns the delivering channel, or a non-empty note when nothing went out.
func (e *Engine) notify(ctx context.Context, text string) (channel, note string) {
	if e.opts.Notifier == nil {
		e.logger.Warn().Msg("no notifier configured, card not sent")
		return "", "no notifier configured"
	}
	channel, err := e.opts.Notifier.Send(ctx, text)
	if err != nil {
		e.logger.Error().Err(err).Msg("card delivery failed on every channel")
		return "", err.Error()
	}
	return channel, ""
}

func (e *Engine) recordDecision(run *recorder.DecisionRun) {
	if err := e.opts.Recorder.RecordDecision(run); err != nil {
		e.logger.Error().Err(err).Msg("record decision run")
	}
}

func (e *Engine) recordRetrain(run *recorder.RetrainRun) {
	if err := e.opts.Recorder.RecordRetrain(run); err != nil {
		e.logger.Error().Err(err).Msg("record retrain run")
	}
}

func (e *Engine) recordBankrollEvent(evt *recorder.BankrollEvent) {
	if err := e.opts.Recorder.RecordBankrollEvent(evt); err != nil {
		e.logger.Error().Err(err).Msg("record bankroll event")
	}
}
