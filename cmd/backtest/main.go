// Command backtest is the CLI entry point: load a YAML config, build the
// kernel it describes, run it over a CSV bar file, and print the result.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/backtest"
	"github.com/GoPolymarket/backtest-core/internal/config"
	"github.com/GoPolymarket/backtest-core/internal/execution"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/report"
	"github.com/GoPolymarket/backtest-core/internal/risk"
	"github.com/GoPolymarket/backtest-core/internal/strategy"
	"github.com/shopspring/decimal"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	dataPath := flag.String("data", "", "path to a CSV bar file (ts_event,symbol,venue,open,high,low,close,volume)")
	flag.Parse()

	cfg, err := config.LoadFile(*cfgPath)
	if err != nil {
		log.Printf("warning: config file: %v, using defaults", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	log.Printf("backtest-core starting (log_level=%s)", cfg.LogLevel)

	driver, err := buildDriver(cfg)
	if err != nil {
		log.Fatalf("build driver: %v", err)
	}

	if *dataPath != "" {
		records, err := loadBarsCSV(*dataPath, defaultPricePrecision(cfg), defaultSizePrecision(cfg))
		if err != nil {
			log.Fatalf("load data: %v", err)
		}
		driver.AddData(records)
		log.Printf("loaded %d record(s) from %s", len(records), *dataPath)
	}

	if err := driver.Run(nil, nil); err != nil {
		log.Fatalf("run: %v", err)
	}

	result := driver.GetResult()
	log.Print(report.FormatResult(result))
}

// buildDriver wires a backtest.Driver from cfg: one OMS/risk engine
// shared by every venue (a run trades under a single OMS discipline, so
// the first configured venue's oms field decides it), every configured
// venue and instrument, and every configured strategy.
func buildDriver(cfg config.Config) (*backtest.Driver, error) {
	oms := execution.Netting
	if len(cfg.Venues) > 0 && cfg.Venues[0].OMS == "HEDGING" {
		oms = execution.Hedging
	}

	riskCfg := risk.Config{
		State:                     parseTradingState(cfg.Risk.State),
		MaxDailyLoss:              decimal.NewFromFloat(cfg.Risk.MaxDailyLoss),
		MaxConsecutiveLosses:      cfg.Risk.MaxConsecutiveLosses,
		ConsecutiveLossCooldownNs: cfg.Risk.ConsecutiveLossCooldownMs * 1_000_000,
		MaxDrawdownPct:            decimal.NewFromFloat(cfg.Risk.MaxDrawdownPct),
	}

	driver := backtest.New(oms, riskCfg)
	venues := make(map[string]ids.Venue, len(cfg.Venues))

	for _, vc := range cfg.Venues {
		acctKind := account.Cash
		if vc.Account == "MARGIN" {
			acctKind = account.Margin
		}
		baseCurrency := resolveCurrency(vc.BaseCurrency)
		balances := make([]money.Money, 0, len(vc.StartingBalance))
		for _, bc := range vc.StartingBalance {
			balances = append(balances, money.NewMoneyFromFloat(bc.Amount, resolveCurrency(bc.Currency)))
		}
		venue, err := driver.AddVenue(vc.Name, acctKind, baseCurrency, balances, decimal.NewFromFloat(vc.Leverage))
		if err != nil {
			return nil, err
		}
		venues[vc.Name] = venue
	}

	for _, ic := range cfg.Instruments {
		venue, ok := venues[ic.Venue]
		if !ok {
			return nil, fmt.Errorf("backtest: instrument %s.%s references unknown venue", ic.Symbol, ic.Venue)
		}
		instr := buildInstrument(ic, venue)
		if err := driver.AddInstrument(instr, venue); err != nil {
			return nil, err
		}
	}

	for _, sc := range cfg.Strategies {
		s, err := buildStrategy(sc)
		if err != nil {
			return nil, err
		}
		driver.AddStrategy(s)
	}

	return driver, nil
}

func parseTradingState(s string) risk.TradingState {
	switch s {
	case "REDUCING":
		return risk.Reducing
	case "HALTED":
		return risk.Halted
	default:
		return risk.Active
	}
}

// resolveCurrency maps a config currency code to a money.Currency, reusing
// the well-known constants the money package exports and falling back to a
// 2-decimal fiat currency for anything else — config files are expected to
// name real currencies, and a typo here surfaces as a balance/precision
// mismatch downstream rather than a silent substitution.
func resolveCurrency(code string) money.Currency {
	switch code {
	case "USD":
		return money.USD
	case "USDC":
		return money.USDC
	case "BTC":
		return money.BTC
	case "ETH":
		return money.ETH
	default:
		return money.NewCurrency(code, 2, money.Fiat)
	}
}

func buildInstrument(ic config.InstrumentConfig, venue ids.Venue) instrument.Instrument {
	instrumentId := ids.NewInstrumentId(ids.NewSymbol(ic.Symbol), venue)
	common := instrument.Common{
		Id:             instrumentId,
		QuoteCurrency:  resolveCurrency(ic.QuoteCurrency),
		PricePrecision: ic.PricePrecision,
		SizePrecision:  ic.SizePrecision,
		PriceIncrement: decimal.NewFromFloat(ic.PriceIncrement),
		SizeIncrement:  decimal.NewFromFloat(ic.SizeIncrement),
		Multiplier:     decimal.NewFromFloat(ic.Multiplier),
		LotSize:        decimal.NewFromFloat(ic.LotSize),
		MakerFee:       decimal.NewFromFloat(ic.MakerFee),
		TakerFee:       decimal.NewFromFloat(ic.TakerFee),
		MinQuantity:    money.NewQuantityFromFloat(ic.MinQuantity, ic.SizePrecision),
		MaxQuantity:    money.NewQuantityFromFloat(ic.MaxQuantity, ic.SizePrecision),
	}
	if ic.MinPrice > 0 {
		p := money.NewPriceFromFloat(ic.MinPrice, ic.PricePrecision)
		common.MinPrice = &p
	}
	if ic.MaxPrice > 0 {
		p := money.NewPriceFromFloat(ic.MaxPrice, ic.PricePrecision)
		common.MaxPrice = &p
	}

	switch ic.Kind {
	case "CURRENCY_PAIR":
		return instrument.NewCurrencyPair(common, resolveCurrency(ic.QuoteCurrency))
	case "CRYPTO_PERPETUAL":
		return instrument.NewCryptoPerpetual(common, resolveCurrency(ic.QuoteCurrency))
	default:
		return instrument.NewEquity(common)
	}
}

// buildStrategy looks Kind up in a small registry and interprets Params
// for the matching reference strategy's config.
func buildStrategy(sc config.StrategyConfig) (strategy.Strategy, error) {
	strategyId := ids.NewStrategyId(sc.Id)
	instrumentId, err := ids.ParseInstrumentId(paramString(sc.Params, "instrument_id"))
	if err != nil {
		return nil, err
	}

	switch sc.Kind {
	case "maker":
		return strategy.NewMaker(strategyId, strategy.MakerConfig{
			InstrumentId:  instrumentId,
			MinSpread:     paramDecimal(sc.Params, "min_spread"),
			InventorySkew: paramDecimal(sc.Params, "inventory_skew"),
			MaxInventory:  money.NewQuantityFromFloat(paramFloat(sc.Params, "max_inventory"), 0),
			OrderSize:     money.NewQuantityFromFloat(paramFloat(sc.Params, "order_size"), 0),
		}), nil
	case "taker":
		return strategy.NewTaker(strategyId, strategy.TakerConfig{
			InstrumentId: instrumentId,
			MinRangePct:  paramDecimal(sc.Params, "min_range_pct"),
			OrderSize:    money.NewQuantityFromFloat(paramFloat(sc.Params, "order_size"), 0),
		}), nil
	case "flow":
		return strategy.NewFlowTracker(strategyId, strategy.FlowTrackerConfig{
			InstrumentId: instrumentId,
			Window:       int(paramFloat(sc.Params, "window")),
			Threshold:    paramDecimal(sc.Params, "threshold"),
			OrderSize:    money.NewQuantityFromFloat(paramFloat(sc.Params, "order_size"), 0),
		}), nil
	case "crossover":
		return strategy.NewCrossoverStrategy(strategyId, strategy.CrossoverConfig{
			InstrumentId: instrumentId,
			FastPeriod:   int(paramFloat(sc.Params, "fast_period")),
			SlowPeriod:   int(paramFloat(sc.Params, "slow_period")),
			OrderSize:    money.NewQuantityFromFloat(paramFloat(sc.Params, "order_size"), 0),
		}), nil
	default:
		return nil, fmt.Errorf("backtest: strategy %s: unknown kind %q", sc.Id, sc.Kind)
	}
}

func paramString(params map[string]any, key string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func paramFloat(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func paramDecimal(params map[string]any, key string) decimal.Decimal {
	return decimal.NewFromFloat(paramFloat(params, key))
}

func defaultPricePrecision(cfg config.Config) uint8 {
	if len(cfg.Instruments) > 0 {
		return cfg.Instruments[0].PricePrecision
	}
	return 2
}

func defaultSizePrecision(cfg config.Config) uint8 {
	if len(cfg.Instruments) > 0 {
		return cfg.Instruments[0].SizePrecision
	}
	return 0
}
