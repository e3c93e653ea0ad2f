package app

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kr4t0z/chrono-server/internal/activity"
	"github.com/kr4t0z/chrono-server/internal/output"
	"github.com/kr4t0z/chrono-server/internal/store"
)

var suggestionsFlagAccepted bool

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Review AI category suggestions",
	Long: `List category guesses queued by the AI boundary classifier for apps and
domains that have no mapping yet. Accept one by setting the mapping:

  chrono categories set domain linear.app development`,
	Args: cobra.NoArgs,
	RunE: runSuggestions,
}

func init() {
	suggestionsCmd.Flags().BoolVar(&suggestionsFlagAccepted, "accepted", false, "List accepted suggestions instead of pending ones")
	rootCmd.AddCommand(suggestionsCmd)
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	status := store.SuggestionPending
	if suggestionsFlagAccepted {
		status = store.SuggestionAccepted
	}
	list, err := e.db.ListSuggestions(context.Background(), status)
	if err != nil {
		return err
	}

	if flagJSON {
		if list == nil {
			list = []store.CategorySuggestion{}
		}
		return printJSON(list)
	}

	if len(list) == 0 {
		fmt.Printf("No %s suggestions.\n", status)
		return nil
	}

	fmt.Println(output.Section(fmt.Sprintf("Suggestions (%s)", status)))
	fmt.Println()
	tbl := output.NewTable("Kind", "Value", "Category", "Conf", "Seen", "Last seen").AlignRight(3, 4)
	for _, s := range list {
		tbl.AddRow(
			s.Kind,
			s.Value,
			output.Category(activity.Category(s.Category)),
			output.Confidence(s.Confidence),
			fmt.Sprintf("%d×", s.Occurrences),
			s.LastSeen.In(e.loc).Format(time.DateTime),
		)
	}
	tbl.Print()
	return nil
}
