package engine

import (
	"strings"
	"time"

	"RaceBrain/internal/bankroll"
	"RaceBrain/internal/model"
	"RaceBrain/internal/notifier"
	"RaceBrain/internal/recorder"
	"RaceBrain/internal/valuemodel"
)

const helpText = "Available commands:\n" +
	"• /bankroll - balance and today's bets\n" +
	"• /odds - latest odds board\n" +
	"• /model - value model state"

// Status is a read-only view of all engine state.
type Status struct {
	Bankroll      model.BankrollState
	BankrollFound bool
	Model         valuemodel.Info
	Odds          model.OddsSnapshot
	Recent        []recorder.DecisionRun
}

// Status reads every store without writing to any of them.
func (e *Engine) Status(recent int) (Status, error) {
	state, found, err := bankroll.LoadState(e.opts.Ledger.Path())
	if err != nil {
		return Status{}, &model.PersistenceError{Op: "read bankroll", Err: err}
	}
	runs, err := e.opts.Recorder.RecentDecisions(recent)
	if err != nil {
		e.logger.Warn().Err(err).Msg("read recent decisions")
	}
	return Status{
		Bankroll:      state,
		BankrollFound: found,
		Model:         e.opts.Model.Info(),
		Odds:          e.opts.Odds.Current(),
		Recent:        runs,
	}, nil
}

// HandleCommand answers a chat command. Commands never write state.
func (e *Engine) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// "/odds@SomeBot" in group chats
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")

	switch name {
	case "/bankroll", "/balance":
		st, err := e.Status(0)
		if err != nil {
			e.logger.Error().Err(err).Msg("bankroll command")
			return "Bankroll unavailable right now."
		}
		if !st.BankrollFound {
			return "No bankroll yet. It is created on the first decision run."
		}
		return notifier.FormatBankroll(st.Bankroll)
	case "/odds":
		return notifier.FormatOdds(e.opts.Odds.Current(), e.now())
	case "/model":
		info := e.opts.Model.Info()
		return notifier.FormatModel(info.Trained, info.TrainedAt, info.Samples)
	default:
		return helpText
	}
}

// Bootstrap loads the ledger once at startup, creating it if absent, and seeds the balance
// history with its first point.
func (e *Engine) Bootstrap() error {
	state, err := e.opts.Ledger.Load()
	if err != nil {
		return err
	}
	history, err := e.opts.Recorder.BankrollHistory()
	if err != nil {
		e.logger.Warn().Err(err).Msg("read bankroll history")
		return nil
	}
	if len(history) == 0 {
		e.recordBankrollEvent(&recorder.BankrollEvent{
			At:           e.now(),
			EventType:    recorder.EventInit,
			BalanceAfter: state.Balance,
		})
	}
	e.opts.Metrics.UpdateBankroll(state.Balance, state.PnLToday, state.BetsPlacedToday)
	return nil
}

// DueOnStart reports whether a process started at now has missed this week's decision
// trigger: it is the decision weekday and the trigger time has passed.
func (e *Engine) DueOnStart(now time.Time, hour, minute int) bool {
	now = now.In(e.opts.Location)
	if now.Weekday() != e.opts.DecisionWeekday {
		return false
	}
	trigger := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, e.opts.Location)
	return !now.Before(trigger)
}
