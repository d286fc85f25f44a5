package config

import "testing"

func TestValidateRejectsNoVenues(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for a config with no venues")
	}
}

func TestValidateRejectsUnknownOMS(t *testing.T) {
	cfg := Default()
	cfg.Venues[0].OMS = "BOGUS"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized oms value")
	}
}

func TestValidateRejectsInstrumentOnUnknownVenue(t *testing.T) {
	cfg := Default()
	cfg.Instruments = append(cfg.Instruments, InstrumentConfig{Symbol: "AAPL", Venue: "GHOST"})
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for an instrument referencing an unknown venue")
	}
}

func TestValidateRejectsDuplicateStrategyId(t *testing.T) {
	cfg := Default()
	cfg.Strategies = []StrategyConfig{
		{Id: "s1", Kind: "maker"},
		{Id: "s1", Kind: "taker"},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected an error for duplicate strategy ids")
	}
}
