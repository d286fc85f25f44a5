package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if len(cfg.Venues) == 0 {
		t.Fatal("expected at least one default venue")
	}
	if cfg.Venues[0].Name != "SIM" {
		t.Fatalf("expected default venue SIM, got %q", cfg.Venues[0].Name)
	}
	if cfg.Risk.State != "ACTIVE" {
		t.Fatalf("expected default risk state ACTIVE, got %q", cfg.Risk.State)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/path.yaml"); err == nil {
		t.Fatal("expected an error loading a missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("BACKTEST_LOG_LEVEL", "debug")
	t.Setenv("BACKTEST_RISK_STATE", "HALTED")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level overridden to debug, got %q", cfg.LogLevel)
	}
	if cfg.Risk.State != "HALTED" {
		t.Fatalf("expected risk state overridden to HALTED, got %q", cfg.Risk.State)
	}
}
