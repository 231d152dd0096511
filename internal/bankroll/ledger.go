package bankroll

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"RaceBrain/internal/model"
)

// DefaultStartingBalance is used when the config leaves the starting balance unset.
var DefaultStartingBalance = decimal.NewFromInt(50000)

// Ledger loads, mutates and persists the bankroll file. The decision-run job is its only writer.
type Ledger struct {
	mu       sync.Mutex
	filePath string
	starting decimal.Decimal
	loc      *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewLedger creates a Ledger over filePath.
func NewLedger(filePath string, starting decimal.Decimal, loc *time.Location, logger zerolog.Logger) *Ledger {
	if starting.LessThanOrEqual(decimal.Zero) {
		starting = DefaultStartingBalance
	}
	if loc == nil {
		loc = time.Local
	}
	return &Ledger{
		filePath: filePath,
		starting: starting,
		loc:      loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "ledger").Logger(),
	}
}

// Path returns the bankroll file location.
func (l *Ledger) Path() string { return l.filePath }

// SetClock replaces the clock used to date new and recorded state.
func (l *Ledger) SetClock(now func() time.Time) { l.now = now }

// Load returns the persisted state. On first run it creates the file with the starting
// balance before returning. An unreadable or corrupt file is a PersistenceError.
func (l *Ledger) Load() (model.BankrollState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, found, err := LoadState(l.filePath)
	if err != nil {
		return model.BankrollState{}, &model.PersistenceError{Op: "load bankroll", Err: err}
	}
	if found {
		return state, nil
	}

	state = model.NewBankrollState(l.starting, l.now().In(l.loc))
	if err := SaveState(l.filePath, state); err != nil {
		return state, &model.PersistenceError{Op: "initialise bankroll", Err: err}
	}
	l.logger.Info().Str("balance", state.Balance.String()).Str("path", l.filePath).Msg("bankroll initialised")
	return state, nil
}

// ApplyDailyReset zeroes the daily counters when state was last written on a different day
// than today, and persists the reset. Balance is never touched.
func (l *Ledger) ApplyDailyReset(state model.BankrollState, today time.Time) (model.BankrollState, error) {
	next, changed := resetIfNewDay(state, model.Day(today.In(l.loc)))
	if !changed {
		return state, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := SaveState(l.filePath, next); err != nil {
		return state, &model.PersistenceError{Op: "save daily reset", Err: err}
	}
	l.logger.Info().Str("previous_day", state.UpdatedOn).Str("day", next.UpdatedOn).Msg("daily counters reset")
	return next, nil
}

// RecordOutcome books one bet: bets +1, profit added to pnl and balance, stake added to
// staked_today. The bet only counts as recorded if the returned error is nil.
func (l *Ledger) RecordOutcome(state model.BankrollState, stake, profit decimal.Decimal) (model.BankrollState, error) {
	if stake.IsNegative() {
		return state, errors.New("stake cannot be negative")
	}

	next, _ := resetIfNewDay(state, model.Day(l.now().In(l.loc)))
	next.BetsPlacedToday++
	next.PnLToday = next.PnLToday.Add(profit)
	next.Balance = next.Balance.Add(profit)
	next.StakedToday = next.StakedToday.Add(stake)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := SaveState(l.filePath, next); err != nil {
		return state, &model.PersistenceError{Op: "record outcome", Err: err}
	}
	l.logger.Debug().
		Str("stake", stake.String()).
		Str("profit", profit.String()).
		Int("bets_today", next.BetsPlacedToday).
		Msg("outcome recorded")
	return next, nil
}

// MarkDecision stamps the day of the last completed decision run.
func (l *Ledger) MarkDecision(state model.BankrollState, day time.Time) (model.BankrollState, error) {
	next := state
	next.LastDecisionOn = model.Day(day.In(l.loc))

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := SaveState(l.filePath, next); err != nil {
		return state, &model.PersistenceError{Op: "mark decision", Err: err}
	}
	return next, nil
}

func resetIfNewDay(state model.BankrollState, today string) (model.BankrollState, bool) {
	if state.UpdatedOn == today {
		return state, false
	}
	state.BetsPlacedToday = 0
	state.PnLToday = decimal.Zero
	state.StakedToday = decimal.Zero
	state.UpdatedOn = today
	return state, true
}
