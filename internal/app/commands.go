package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"RaceBrain/internal/notifier"
	"RaceBrain/internal/results"
)

// Status prints the bankroll, model, odds board and recent decision runs.
func (a *App) Status(_ context.Context, w io.Writer) error {
	rt, closer, err := a.build()
	if err != nil {
		return err
	}
	defer closer()

	st, err := rt.engine.Status(5)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "Bankroll")
	if !st.BankrollFound {
		fmt.Fprintln(w, "  not created yet")
	} else {
		b := st.Bankroll
		table := tablewriter.NewWriter(w)
		table.Header("Balance", "Starting", "P&L", "Bets today", "Staked today", "P&L today", "Last card")
		table.Append(
			"HK$"+notifier.FormatHKD(b.Balance),
			"HK$"+notifier.FormatHKD(b.StartingBalance),
			"HK$"+notifier.FormatHKD(b.CumulativePnL()),
			fmt.Sprintf("%d", b.BetsPlacedToday),
			"HK$"+notifier.FormatHKD(b.StakedToday),
			"HK$"+notifier.FormatHKD(b.PnLToday),
			b.LastDecisionOn,
		)
		table.Render()
	}

	fmt.Fprintf(w, "\nModel: %s\n", notifier.FormatModel(st.Model.Trained, st.Model.TrainedAt, st.Model.Samples))

	now := time.Now().In(rt.loc)
	fmt.Fprintln(w, "\nOdds")
	if len(st.Odds) == 0 {
		fmt.Fprintln(w, "  no snapshot")
	} else {
		table := tablewriter.NewWriter(w)
		table.Header("Horse", "Win", "Observed")
		for _, horse := range st.Odds.Horses() {
			q := st.Odds[horse]
			table.Append(horse, q.Win, now.Sub(q.ObservedAt).Truncate(time.Second).String()+" ago")
		}
		table.Render()
	}

	if len(st.Recent) > 0 {
		fmt.Fprintln(w, "\nRecent decision runs")
		table := tablewriter.NewWriter(w)
		table.Header("When", "Status", "Balance", "Channel", "Note")
		for _, run := range st.Recent {
			table.Append(
				run.At.In(rt.loc).Format("2006-01-02 15:04"),
				run.Status,
				"HK$"+notifier.FormatHKD(run.BalanceAfter),
				run.Channel,
				truncate(run.Note, 60),
			)
		}
		table.Render()
	}
	return nil
}

// Retrain runs one retrain pass immediately.
func (a *App) Retrain(ctx context.Context) error {
	rt, closer, err := a.build()
	if err != nil {
		return err
	}
	defer closer()
	return rt.engine.Retrain(ctx, time.Now().In(rt.loc))
}

// RefreshOdds runs one odds refresh immediately.
func (a *App) RefreshOdds(ctx context.Context) error {
	rt, closer, err := a.build()
	if err != nil {
		return err
	}
	defer closer()
	return rt.engine.RefreshOdds(ctx, time.Now().In(rt.loc))
}

// Ingest appends the settled results in an NDJSON file to the results log.
func (a *App) Ingest(ctx context.Context, path string, w io.Writer) error {
	rt, closer, err := a.build()
	if err != nil {
		return err
	}
	defer closer()

	report, err := rt.results.Ingest(ctx, results.FileFeed{Path: path, Logger: a.Logger})
	if err != nil {
		return err
	}
	rt.metrics.ResultsAdded.Add(float64(report.Appended))
	rt.metrics.Flush()
	fmt.Fprintf(w, "received %d, appended %d, duplicates %d, invalid %d\n",
		report.Received, report.Appended, report.Duplicates, report.Invalid)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
