package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"RaceBrain/internal/fsutil"
	"RaceBrain/internal/recorder"
)

// ExportOptions hold parameters for exporting the bankroll history.
type ExportOptions struct {
	From    *time.Time
	To      *time.Time
	PNGPath string
	CSVPath string
}

// Export renders the recorded bankroll history as CSV and/or PNG.
func (a *App) Export(_ context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	rec := a.openRecorder()
	defer rec.Close()

	points, err := rec.BankrollHistory()
	if err != nil {
		return err
	}
	points = filterPoints(points, opts.From, opts.To)
	if len(points) == 0 {
		a.Logger.Info().Msg("no bankroll history in export window")
		return nil
	}
	a.Logger.Info().Int("points", len(points)).Msg("exporting bankroll history")

	if opts.CSVPath != "" {
		if err := writeHistoryCSV(opts.CSVPath, points); err != nil {
			return err
		}
	}
	if opts.PNGPath != "" {
		if err := writeHistoryPNG(opts.PNGPath, points); err != nil {
			return err
		}
	}
	return nil
}

func filterPoints(points []recorder.BankrollPoint, from, to *time.Time) []recorder.BankrollPoint {
	var out []recorder.BankrollPoint
	for _, p := range points {
		if from != nil && p.At.Before(*from) {
			continue
		}
		if to != nil && !p.At.Before(*to) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func writeHistoryCSV(path string, points []recorder.BankrollPoint) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"timestamp", "balance_hkd"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := writer.Write([]string{p.At.UTC().Format(time.RFC3339), p.Balance.StringFixed(2)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeHistoryPNG(path string, points []recorder.BankrollPoint) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return err
	}

	// a time series needs two points to draw a line
	if len(points) == 1 {
		points = append(points, recorder.BankrollPoint{At: points[0].At.Add(time.Hour), Balance: points[0].Balance})
	}

	x := make([]time.Time, len(points))
	y := make([]float64, len(points))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range points {
		x[i] = p.At
		y[i] = p.Balance.InexactFloat64()
		lo, hi = math.Min(lo, y[i]), math.Max(hi, y[i])
	}
	// go-chart refuses a zero-height range
	pad := math.Max((hi-lo)*0.1, 100)

	balanceFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.0f")
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Balance (HK$)",
			Range:          &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: balanceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Bankroll",
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return graph.Render(chart.PNG, file)
}
