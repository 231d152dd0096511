package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the calendar-day format used in persisted state.
const DayLayout = "2006-01-02"

// BankrollState is the durable account state kept in bankroll.json.
type BankrollState struct {
	Balance         decimal.Decimal `json:"balance"`
	StartingBalance decimal.Decimal `json:"starting_balance"`
	BetsPlacedToday int             `json:"bets_placed_today"`
	PnLToday        decimal.Decimal `json:"pnl_today"`
	StakedToday     decimal.Decimal `json:"staked_today"`
	UpdatedOn       string          `json:"updated_on,omitempty"`
	LastDecisionOn  string          `json:"last_decision_on,omitempty"`
}

// UnmarshalJSON also accepts the older bankroll.json layout (balance_hkd, starting,
// bets_today) written before the current keys. Current keys win when both are present.
func (s *BankrollState) UnmarshalJSON(data []byte) error {
	type plain BankrollState
	var aux struct {
		plain
		LegacyBalance  *decimal.Decimal `json:"balance_hkd"`
		LegacyStarting *decimal.Decimal `json:"starting"`
		LegacyBets     *int             `json:"bets_today"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}

	*s = BankrollState(aux.plain)
	if _, ok := keys["balance"]; !ok && aux.LegacyBalance != nil {
		s.Balance = *aux.LegacyBalance
	}
	if _, ok := keys["starting_balance"]; !ok && aux.LegacyStarting != nil {
		s.StartingBalance = *aux.LegacyStarting
	}
	if _, ok := keys["bets_placed_today"]; !ok && aux.LegacyBets != nil {
		s.BetsPlacedToday = *aux.LegacyBets
	}
	return nil
}

// NewBankrollState returns a fresh state holding only the starting balance.
func NewBankrollState(starting decimal.Decimal, today time.Time) BankrollState {
	return BankrollState{
		Balance:         starting,
		StartingBalance: starting,
		PnLToday:        decimal.Zero,
		StakedToday:     decimal.Zero,
		UpdatedOn:       Day(today),
	}
}

// CumulativePnL is the profit realised since the ledger was created.
func (s BankrollState) CumulativePnL() decimal.Decimal {
	return s.Balance.Sub(s.StartingBalance)
}

// Day formats t as a calendar day in its own location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}
