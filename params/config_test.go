package params

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.API.Addr != ":8080" {
		t.Errorf("api addr: got %s, want :8080", cfg.API.Addr)
	}
	if len(cfg.Generator.Symbols) != 3 {
		t.Errorf("symbols: got %v, want 3 defaults", cfg.Generator.Symbols)
	}
	if cfg.Generator.Interval != 100*time.Millisecond {
		t.Errorf("interval: got %v, want 100ms", cfg.Generator.Interval)
	}
	if cfg.Generator.Window != 5*time.Minute {
		t.Errorf("window: got %v, want 5m", cfg.Generator.Window)
	}
	if cfg.Venue.QueueSize <= 0 {
		t.Error("venue queue size must be positive")
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
api:
  addr: ":9999"
generator:
  max_orders: 25
  symbols: ["TSLA"]
venue:
  reject_ratio: 0.5
`
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Addr != ":9999" {
		t.Errorf("api addr: got %s, want :9999", cfg.API.Addr)
	}
	if cfg.Generator.MaxOrders != 25 {
		t.Errorf("max orders: got %d, want 25", cfg.Generator.MaxOrders)
	}
	if len(cfg.Generator.Symbols) != 1 || cfg.Generator.Symbols[0] != "TSLA" {
		t.Errorf("symbols: got %v, want [TSLA]", cfg.Generator.Symbols)
	}
	if cfg.Venue.RejectRatio != 0.5 {
		t.Errorf("reject ratio: got %v, want 0.5", cfg.Venue.RejectRatio)
	}
	// Untouched keys keep their defaults.
	if cfg.Storage.StatsFile != Default().Storage.StatsFile {
		t.Errorf("stats file changed: %s", cfg.Storage.StatsFile)
	}
}

func TestEnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api:\n  addr: \":9999\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("API_ADDR", ":7777")
	t.Setenv("GEN_MAX_ORDERS", "42")
	t.Setenv("GEN_INTERVAL_MS", "250")

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Addr != ":7777" {
		t.Errorf("api addr: got %s, want env :7777", cfg.API.Addr)
	}
	if cfg.Generator.MaxOrders != 42 {
		t.Errorf("max orders: got %d, want 42", cfg.Generator.MaxOrders)
	}
	if cfg.Generator.Interval != 250*time.Millisecond {
		t.Errorf("interval: got %v, want 250ms", cfg.Generator.Interval)
	}
}

func TestLoadMissingYAMLFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), ""); err == nil {
		t.Error("expected error for missing config file")
	}
}
