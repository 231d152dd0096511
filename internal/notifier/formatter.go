package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"RaceBrain/internal/model"
)

// FormatReport wraps a card with the dated header and the bankroll line.
func FormatReport(venue string, now time.Time, card model.Card, state model.BankrollState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s AI Picks - %s\n\n", venue, now.Format("02 Jan 2006")))
	b.WriteString(card.Text)
	b.WriteString(fmt.Sprintf("\n\nBankroll: HK$%s", FormatHKD(state.Balance)))
	return b.String()
}

// FormatBankroll formats the current bankroll state for display.
func FormatBankroll(state model.BankrollState) string {
	var b strings.Builder
	b.WriteString("*Bankroll*\n\n")
	b.WriteString(fmt.Sprintf("Balance: HK$%s\n", FormatHKD(state.Balance)))
	b.WriteString(fmt.Sprintf("Starting: HK$%s\n", FormatHKD(state.StartingBalance)))
	b.WriteString(fmt.Sprintf("Cumulative P&L: HK$%s\n", FormatHKD(state.CumulativePnL())))
	b.WriteString(fmt.Sprintf("Bets today: %d (staked HK$%s)\n", state.BetsPlacedToday, FormatHKD(state.StakedToday)))
	b.WriteString(fmt.Sprintf("P&L today: HK$%s\n", FormatHKD(state.PnLToday)))
	if state.LastDecisionOn != "" {
		b.WriteString(fmt.Sprintf("Last card: %s\n", state.LastDecisionOn))
	}
	b.WriteString(fmt.Sprintf("Updated: %s", state.UpdatedOn))
	return b.String()
}

// FormatOdds lists the live odds board.
func FormatOdds(snapshot model.OddsSnapshot, now time.Time) string {
	if len(snapshot) == 0 {
		return "No live odds yet."
	}
	var b strings.Builder
	age := now.Sub(snapshot.ObservedAt()).Truncate(time.Second)
	b.WriteString(fmt.Sprintf("*Live odds* (%d runners, %s old)\n\n", len(snapshot), age))
	for _, horse := range snapshot.Horses() {
		b.WriteString(fmt.Sprintf("%s: %s\n", horse, snapshot[horse].Win))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatModel describes the value model state.
func FormatModel(trained bool, trainedAt time.Time, samples int) string {
	if !trained {
		return "Model not trained yet. Learning from more races..."
	}
	return fmt.Sprintf("Model trained %s on %d results", trainedAt.Format("2006-01-02 15:04"), samples)
}

// FormatHKD renders an amount with thousands separators, keeping cents only when present.
func FormatHKD(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Equal(d.Truncate(0)) {
		s = d.StringFixed(0)
	}
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
