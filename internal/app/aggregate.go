package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kr4t0z/chrono-server/internal/classifier"
	"github.com/kr4t0z/chrono-server/internal/config"
	"github.com/kr4t0z/chrono-server/internal/output"
	"github.com/kr4t0z/chrono-server/internal/summary"
)

var (
	aggregateFlagDate    string
	aggregateFlagDevices []string
	aggregateFlagAll     bool
	aggregateFlagNoAI    bool
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Segment a day of events into sessions",
	Long: `Segment one day of stored events into sessions for one or more devices,
derive daily patterns and store the result, replacing any previous summary
for the same device and day.

When an Anthropic API key is configured, ambiguous boundaries between
uncategorized apps are resolved by Claude and its category guesses are
queued for review (see "chrono suggestions").

Examples:
  chrono aggregate                               # today, every device
  chrono aggregate --date 2026-10-16 --device mbp
  chrono aggregate --all --no-ai`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateFlagDate, "date", "", "Day to aggregate as YYYY-MM-DD (default: today)")
	aggregateCmd.Flags().StringSliceVar(&aggregateFlagDevices, "device", nil, "Device IDs to aggregate (repeatable)")
	aggregateCmd.Flags().BoolVar(&aggregateFlagAll, "all", false, "Aggregate every device with events that day")
	aggregateCmd.Flags().BoolVar(&aggregateFlagNoAI, "no-ai", false, "Skip the AI boundary classifier")
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	if aggregateFlagAll && len(aggregateFlagDevices) > 0 {
		return fmt.Errorf("--all and --device are mutually exclusive")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	date := aggregateFlagDate
	if date == "" {
		date = time.Now().In(e.loc).Format(summary.DateLayout)
	}

	opts := []summary.Option{
		summary.WithSink(e.db),
		summary.WithSuggestionSink(e.db),
		summary.WithLogger(e.logger),
		summary.WithLocation(e.loc),
		summary.WithWorkers(e.cfg.Aggregate.Workers),
	}
	if !aggregateFlagNoAI {
		client, err := newClassifier(e.cfg.AI)
		if err != nil {
			e.logger.WithError(err).Warn("AI classifier disabled")
		} else if client != nil {
			opts = append(opts, summary.WithClassifier(client))
		}
	}

	svc := summary.New(e.db, opts...)
	summaries, err := svc.RunDay(context.Background(), e.db, date, aggregateFlagDevices)
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintf(os.Stderr, "No events stored for %s.\n", date)
		return nil
	}
	for _, s := range summaries {
		renderSummary(s, e.loc)
	}
	fmt.Println()
	fmt.Println(output.StyleMuted.Render(fmt.Sprintf(" Stored %d summaries for %s.", len(summaries), date)))
	return nil
}

// newClassifier builds the Claude boundary classifier from config. It
// returns nil without error when AI is disabled or no key is configured.
func newClassifier(ai config.AI) (*classifier.Client, error) {
	if !ai.Enabled || ai.APIKey == "" {
		return nil, nil
	}
	return classifier.New(classifier.Options{
		APIKey:            ai.APIKey,
		Model:             ai.Model,
		Timeout:           ai.Timeout,
		RequestsPerSecond: ai.RequestsPerSecond,
		Burst:             ai.Burst,
	})
}
