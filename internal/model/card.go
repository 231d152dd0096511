package model

import "github.com/shopspring/decimal"

// Bet is one line of a betting card.
type Bet struct {
	Horse  string
	Odds   float64
	Score  float64 // model win-likelihood
	Edge   float64 // score minus implied probability
	Tier   string
	Stake  decimal.Decimal
	Profit decimal.Decimal // zero until the race is settled
}

// Card is the output of a decision run.
type Card struct {
	Text string
	Bets []Bet
}

// TotalStake sums the stake across all bets.
func (c Card) TotalStake() decimal.Decimal {
	total := decimal.Zero
	for _, b := range c.Bets {
		total = total.Add(b.Stake)
	}
	return total
}
