package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bankroll, model, odds and recent decision runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Status(cmd.Context(), cmd.OutOrStdout())
	},
}

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Ingest settled results and retrain the value model now",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Retrain(cmd.Context())
	},
}

var refreshOddsCmd = &cobra.Command{
	Use:   "refresh-odds",
	Short: "Fetch the odds board once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().RefreshOdds(cmd.Context())
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <results.jsonl>",
	Short: "Append settled results from an NDJSON file to the results log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Ingest(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}
