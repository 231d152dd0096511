package pipeline

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"RaceBrain/internal/model"
)

// CardView is the data rendered onto a card.
type CardView struct {
	Venue     string
	Runners   int
	Scored    int
	Signals   []model.RunnerSignal
	Bets      []model.Bet
	Budget    decimal.Decimal
	Tips      string
	ModelInfo string
}

// FormatCard renders the betting card body.
func FormatCard(v CardView) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("*%s Win card* (budget HK$%s)\n", v.Venue, v.Budget.StringFixed(0)))

	switch {
	case v.Runners == 0:
		b.WriteString("\nNo live odds yet. No bets.\n")
	case v.Scored == 0:
		b.WriteString("\nLearning from more races... No bets.\n")
	case len(v.Bets) == 0:
		b.WriteString(fmt.Sprintf("\n%d runners scored, no value found. No bets.\n", v.Scored))
	default:
		b.WriteString("\n")
		signals := make(map[string]model.RunnerSignal, len(v.Signals))
		for _, s := range v.Signals {
			signals[s.Horse] = s
		}
		total := decimal.Zero
		for i, bet := range v.Bets {
			b.WriteString(fmt.Sprintf("%d. %s @ %.1f  WIN HK$%s  [%s]\n",
				i+1, bet.Horse, bet.Odds, bet.Stake.StringFixed(0), bet.Tier))
			if s, ok := signals[bet.Horse]; ok {
				b.WriteString(fmt.Sprintf("   model %.0f%% vs market %.0f%% (edge %+.1f%%)\n",
					s.Score*100, s.Implied*100, s.Edge*100))
			}
			total = total.Add(bet.Stake)
		}
		b.WriteString(fmt.Sprintf("\nTotal stake: HK$%s\n", total.StringFixed(0)))
	}

	if v.ModelInfo != "" {
		b.WriteString(fmt.Sprintf("Model: %s\n", v.ModelInfo))
	}
	if tips := strings.TrimSpace(v.Tips); tips != "" {
		b.WriteString("\n")
		b.WriteString(tips)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
