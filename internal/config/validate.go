package config

import (
	"fmt"
	"strings"
)

// Validate checks high-impact configuration constraints before the driver
// wires a backtest from this config. It does not attempt to validate
// cross-references between strategies and instruments — that is a
// configuration error surfaced at driver setup time instead.
func (c Config) Validate() error {
	if len(c.Venues) == 0 {
		return fmt.Errorf("config: at least one venue is required")
	}
	seenVenues := make(map[string]bool, len(c.Venues))
	for _, v := range c.Venues {
		if strings.TrimSpace(v.Name) == "" {
			return fmt.Errorf("config: venue name must not be empty")
		}
		if seenVenues[v.Name] {
			return fmt.Errorf("config: duplicate venue %q", v.Name)
		}
		seenVenues[v.Name] = true

		oms := strings.ToUpper(strings.TrimSpace(v.OMS))
		if oms != "NETTING" && oms != "HEDGING" {
			return fmt.Errorf("config: venue %q: oms must be NETTING or HEDGING, got %q", v.Name, v.OMS)
		}
		acct := strings.ToUpper(strings.TrimSpace(v.Account))
		if acct != "CASH" && acct != "MARGIN" {
			return fmt.Errorf("config: venue %q: account must be CASH or MARGIN, got %q", v.Name, v.Account)
		}
		if acct == "MARGIN" && v.Leverage <= 0 {
			return fmt.Errorf("config: venue %q: margin account requires leverage > 0", v.Name)
		}
		if strings.TrimSpace(v.BaseCurrency) == "" {
			return fmt.Errorf("config: venue %q: base_currency must not be empty", v.Name)
		}
		if len(v.StartingBalance) == 0 {
			return fmt.Errorf("config: venue %q: at least one starting balance is required", v.Name)
		}
	}

	seenInstruments := make(map[string]bool, len(c.Instruments))
	for _, instr := range c.Instruments {
		if strings.TrimSpace(instr.Symbol) == "" || strings.TrimSpace(instr.Venue) == "" {
			return fmt.Errorf("config: instrument symbol and venue must not be empty")
		}
		key := instr.Symbol + "." + instr.Venue
		if seenInstruments[key] {
			return fmt.Errorf("config: duplicate instrument %q", key)
		}
		seenInstruments[key] = true
		if !seenVenues[instr.Venue] {
			return fmt.Errorf("config: instrument %q references unknown venue %q", key, instr.Venue)
		}
		if instr.TakerFee < 0 || instr.MakerFee < 0 {
			return fmt.Errorf("config: instrument %q: fees must be >= 0", key)
		}
	}

	seenStrategies := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if strings.TrimSpace(s.Id) == "" {
			return fmt.Errorf("config: strategy id must not be empty")
		}
		if seenStrategies[s.Id] {
			return fmt.Errorf("config: duplicate strategy id %q", s.Id)
		}
		seenStrategies[s.Id] = true
		if strings.TrimSpace(s.Kind) == "" {
			return fmt.Errorf("config: strategy %q: kind must not be empty", s.Id)
		}
	}

	state := strings.ToUpper(strings.TrimSpace(c.Risk.State))
	if state != "" && state != "ACTIVE" && state != "REDUCING" && state != "HALTED" {
		return fmt.Errorf("config: risk.state must be ACTIVE, REDUCING, or HALTED, got %q", c.Risk.State)
	}
	if c.Risk.MaxDailyLoss < 0 {
		return fmt.Errorf("config: risk.max_daily_loss must be >= 0")
	}
	if c.Risk.MaxConsecutiveLosses < 0 {
		return fmt.Errorf("config: risk.max_consecutive_losses must be >= 0")
	}
	return nil
}
