package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != DBPath() {
		t.Errorf("db_path = %q, want %q", cfg.DBPath, DBPath())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v, want info/text", cfg.Log)
	}
	if !cfg.AI.Enabled || cfg.AI.Timeout != 15*time.Second || cfg.AI.RequestsPerSecond != 2 {
		t.Errorf("ai defaults = %+v", cfg.AI)
	}
	if cfg.Aggregate.Workers != DefaultAggregate.Workers {
		t.Errorf("workers = %d, want %d", cfg.Aggregate.Workers, DefaultAggregate.Workers)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `db_path: /tmp/chrono-test.db
timezone: Europe/Berlin
log:
  level: debug
  format: json
ai:
  timeout: 3s
  model: claude-test
aggregate:
  workers: 0
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ANTHROPIC_API_KEY", "from-anthropic-env")
	t.Setenv("CHRONO_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DBPath != "/tmp/chrono-test.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want env override %q", cfg.Log.Level, "warn")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log.format = %q, want json", cfg.Log.Format)
	}
	if cfg.AI.Timeout != 3*time.Second || cfg.AI.Model != "claude-test" {
		t.Errorf("ai = %+v", cfg.AI)
	}
	if cfg.AI.APIKey != "from-anthropic-env" {
		t.Errorf("api key = %q, want ANTHROPIC_API_KEY fallback", cfg.AI.APIKey)
	}
	if cfg.Aggregate.Workers != 1 {
		t.Errorf("workers = %d, want clamp to 1", cfg.Aggregate.Workers)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{}
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("empty timezone = %v, %v; want time.Local", loc, err)
	}

	cfg.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("UTC timezone = %v, %v", loc, err)
	}

	cfg.Timezone = "Mars/Olympus_Mons"
	if _, err := cfg.Location(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}
