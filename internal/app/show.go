package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kr4t0z/chrono-server/internal/summary"
)

var (
	summaryFlagDevice string
	summaryFlagDate   string
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a stored day summary",
	Long: `Show the sessions and patterns stored by "chrono aggregate" for one
device and day. With --json the summary is printed exactly as stored.

Examples:
  chrono summary --device mbp
  chrono summary --device mbp --date 2026-10-16 --json`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVar(&summaryFlagDevice, "device", "", "Device ID (required)")
	summaryCmd.Flags().StringVar(&summaryFlagDate, "date", "", "Day as YYYY-MM-DD (default: today)")
	_ = summaryCmd.MarkFlagRequired("device")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	date := summaryFlagDate
	if date == "" {
		date = time.Now().In(e.loc).Format(summary.DateLayout)
	}

	s, err := e.db.GetSummary(context.Background(), summaryFlagDevice, date)
	if err != nil {
		return fmt.Errorf("loading summary: %w", err)
	}
	if s == nil {
		return fmt.Errorf("no summary for %s on %s; run \"chrono aggregate --date %s --device %s\" first",
			summaryFlagDevice, date, date, summaryFlagDevice)
	}

	if flagJSON {
		return printJSON(s)
	}
	renderSummary(s, e.loc)
	return nil
}
