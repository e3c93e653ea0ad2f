package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kr4t0z/chrono-server/internal/activity"
)

var importDevice string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Store activity events from a JSON or JSON Lines file",
	Long: `Read activity events from a JSON array or a JSON Lines file and store
them for later aggregation. Use "-" to read from stdin. Events without a
duration get the default of 5 seconds; events already stored are skipped.

Examples:
  chrono import events.json --device mbp
  collector --dump | chrono import - --device desk`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importDevice, "device", "", "Device ID for events that do not carry one")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	var r io.Reader = os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	events, err := readEvents(r)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if importDevice == "" {
		for i, e := range events {
			if e.DeviceID == "" {
				return fmt.Errorf("event %d has no device_id; pass --device", i)
			}
		}
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()

	inserted, err := e.db.InsertEvents(context.Background(), importDevice, events)
	if err != nil {
		return fmt.Errorf("storing events: %w", err)
	}

	e.logger.WithField("file", args[0]).WithField("inserted", inserted).Debug("import complete")
	fmt.Printf("Imported %d events (%d new)\n", len(events), inserted)
	return nil
}

// readEvents decodes a JSON array of events or a stream of JSON objects, one
// per line. Events without a timestamp are rejected.
func readEvents(r io.Reader) ([]activity.Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var events []activity.Event
	if data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, err
		}
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		for {
			var ev activity.Event
			err := dec.Decode(&ev)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("event %d: %w", len(events), err)
			}
			events = append(events, ev)
		}
	}

	for i, ev := range events {
		if ev.Timestamp.IsZero() {
			return nil, fmt.Errorf("event %d: %w", i, activity.ErrMissingTimestamp)
		}
	}
	return events, nil
}
