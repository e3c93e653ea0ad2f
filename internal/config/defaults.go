// Package config provides configuration loading and defaults for chrono.
package config

import "time"

// DefaultConfigDir is the default location for chrono configuration.
const DefaultConfigDir = "~/.config/chrono"

// DefaultDBName is the filename for the SQLite database.
const DefaultDBName = "chrono.db"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix prefixes environment overrides, e.g. CHRONO_LOG_LEVEL.
const EnvPrefix = "CHRONO"

// DefaultLog holds the default logging settings.
var DefaultLog = Log{
	Level:  "info",
	Format: "text",
}

// DefaultAI holds the default classifier settings. The classifier is only
// used when an API key is available.
var DefaultAI = AI{
	Enabled:           true,
	Model:             "claude-3-5-haiku-latest",
	Timeout:           15 * time.Second,
	RequestsPerSecond: 2,
	Burst:             1,
}

// DefaultAggregate holds the default aggregation settings.
var DefaultAggregate = Aggregate{
	Workers: 4,
}

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color: true,
}
