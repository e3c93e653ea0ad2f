// Package app contains the Cobra command tree for chrono.
package app

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kr4t0z/chrono-server/internal/config"
	"github.com/kr4t0z/chrono-server/internal/logging"
	"github.com/kr4t0z/chrono-server/internal/output"
	"github.com/kr4t0z/chrono-server/internal/store"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "chrono",
	Short: "Segment device activity into work sessions",
	Long: `chrono turns raw per-device activity events (application, window title,
URL, idle flag, duration) into labeled work sessions and daily patterns:
longest focus block, idle gaps, distraction triggers, context-switch rate
and peak productive hour.

Typical flow:
  chrono import events.jsonl --device mbp
  chrono aggregate --date 2026-10-16
  chrono summary --device mbp --date 2026-10-16`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("chrono", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  import       Store activity events from a JSON or JSON Lines file")
		fmt.Println("  aggregate    Segment a day of events into sessions")
		fmt.Println("  summary      Show a stored day summary")
		fmt.Println("  categories   Manage app and domain categories")
		fmt.Println("  suggestions  Review AI category suggestions")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/chrono/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

// env is the per-command runtime: configuration, logger and open database.
type env struct {
	cfg    *config.Config
	logger *logrus.Logger
	db     *store.DB
	loc    *time.Location
}

// setup loads config, configures output and logging, and opens the database.
// Callers must call close.
func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	output.ConfigureColor(cfg.Output.Color && !flagNoColor, os.Stdout)

	level := cfg.Log.Level
	if flagVerbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &env{cfg: cfg, logger: logger, db: db, loc: loc}, nil
}

func (e *env) close() {
	_ = e.db.Close()
}
