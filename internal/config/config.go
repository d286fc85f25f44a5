// Package config defines the YAML-driven configuration the backtest
// driver is wired from: venues, instruments, strategies, and risk limits.
// Default supplies baseline values, LoadFile overlays a user file, and
// ApplyEnv overlays process environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level document loaded from a backtest's YAML file.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Venues      []VenueConfig      `yaml:"venues"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	Strategies  []StrategyConfig   `yaml:"strategies"`
	Risk        RiskConfig         `yaml:"risk"`
}

// VenueConfig describes one simulated venue: its order-management
// discipline, account kind, base currency, and starting balances.
type VenueConfig struct {
	Name            string           `yaml:"name"`
	OMS             string           `yaml:"oms"`     // "NETTING" or "HEDGING"
	Account         string           `yaml:"account"` // "CASH" or "MARGIN"
	BaseCurrency    string           `yaml:"base_currency"`
	Leverage        float64          `yaml:"leverage"`
	StartingBalance []BalanceConfig  `yaml:"starting_balances"`
}

// BalanceConfig is one (currency, amount) seed deposit for a venue's account.
type BalanceConfig struct {
	Currency string  `yaml:"currency"`
	Amount   float64 `yaml:"amount"`
}

// InstrumentConfig describes one tradable instrument and which venue lists it.
type InstrumentConfig struct {
	Symbol         string  `yaml:"symbol"`
	Venue          string  `yaml:"venue"`
	Kind           string  `yaml:"kind"` // CURRENCY_PAIR or CRYPTO_PERPETUAL; any other value (EQUITY, FUTURES, OPTIONS included) builds an Equity
	QuoteCurrency  string  `yaml:"quote_currency"`
	PricePrecision uint8   `yaml:"price_precision"`
	SizePrecision  uint8   `yaml:"size_precision"`
	PriceIncrement float64 `yaml:"price_increment"`
	SizeIncrement  float64 `yaml:"size_increment"`
	Multiplier     float64 `yaml:"multiplier"`
	LotSize        float64 `yaml:"lot_size"`
	MakerFee       float64 `yaml:"maker_fee"`
	TakerFee       float64 `yaml:"taker_fee"`
	MinQuantity    float64 `yaml:"min_quantity"`
	MaxQuantity    float64 `yaml:"max_quantity"`
	MinPrice       float64 `yaml:"min_price"`
	MaxPrice       float64 `yaml:"max_price"`
}

// StrategyConfig names a registered strategy and its free-form parameters.
// The driver's cmd-line wiring looks Kind up in a small registry; params
// are passed through for the strategy constructor to interpret.
type StrategyConfig struct {
	Id     string         `yaml:"id"`
	Kind   string         `yaml:"kind"` // "maker", "taker", "flow", "crossover"
	Params map[string]any `yaml:"params"`
}

// RiskConfig configures the risk engine's mandatory state plus the
// optional daily-loss/cooldown/drawdown layer.
type RiskConfig struct {
	State                     string  `yaml:"state"` // ACTIVE, REDUCING, HALTED
	MaxDailyLoss              float64 `yaml:"max_daily_loss"`
	MaxConsecutiveLosses      int     `yaml:"max_consecutive_losses"`
	ConsecutiveLossCooldownMs int64   `yaml:"consecutive_loss_cooldown_ms"`
	MaxDrawdownPct            float64 `yaml:"max_drawdown_pct"`
}

// Default returns a minimal, single-venue baseline configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Venues: []VenueConfig{
			{
				Name:            "SIM",
				OMS:             "NETTING",
				Account:         "CASH",
				BaseCurrency:    "USD",
				StartingBalance: []BalanceConfig{{Currency: "USD", Amount: 100000}},
			},
		},
		Risk: RiskConfig{State: "ACTIVE"},
	}
}

// LoadFile reads path as YAML and overlays it onto Default().
func LoadFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays a small set of process environment variables onto cfg
// — operational knobs that should not require editing the checked-in YAML.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("BACKTEST_LOG_LEVEL")); v != "" {
		c.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("BACKTEST_RISK_STATE")); v != "" {
		c.Risk.State = v
	}
	if v := strings.TrimSpace(os.Getenv("BACKTEST_MAX_DAILY_LOSS")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Risk.MaxDailyLoss = f
		}
	}
}
