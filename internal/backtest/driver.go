// Package backtest implements the backtest driver: the top-level object
// owning the kernel (clock, bus, cache, data/execution/risk engines,
// portfolio), one simulated exchange per configured venue, the registered
// strategies, and the merged data stream. Every collaborator is built
// once, the driver runs to completion over the sorted stream, and the
// same configuration can be reset and run again.
package backtest

import (
	"fmt"
	"sort"

	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/bus"
	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/clock"
	"github.com/GoPolymarket/backtest-core/internal/commissions"
	"github.com/GoPolymarket/backtest-core/internal/data"
	"github.com/GoPolymarket/backtest-core/internal/dataengine"
	"github.com/GoPolymarket/backtest-core/internal/exchange"
	"github.com/GoPolymarket/backtest-core/internal/execution"
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/instrument"
	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/order"
	"github.com/GoPolymarket/backtest-core/internal/portfolio"
	"github.com/GoPolymarket/backtest-core/internal/risk"
	"github.com/GoPolymarket/backtest-core/internal/strategy"
	"github.com/shopspring/decimal"
)

// venueConfig is what AddVenue remembers so Reset can replay it against a
// freshly built kernel.
type venueConfig struct {
	name             string
	acctKind         account.Kind
	baseCurrency     money.Currency
	startingBalances []money.Money
	leverage         decimal.Decimal
}

// instrumentConfig is what AddInstrument remembers so Reset can replay it.
type instrumentConfig struct {
	instr instrument.Instrument
	venue string
}

// venueState bundles one configured venue's live account and exchange.
type venueState struct {
	venue   ids.Venue
	account *account.Account
	exch    *exchange.Exchange
}

// Driver owns every kernel collaborator explicitly and passes them to
// constructors rather than reaching for package-level state. One Driver
// serves one backtest run at a time; Reset rewinds it to run the same
// configuration again.
//
// The execution engine and risk engine are shared by every venue (the
// message bus's "ExecutionEngine" endpoint is singular), so OMS and the
// risk configuration are fixed once at New and not re-specified per
// venue: a single run trades under one OMS discipline and one risk policy
// across all of its venues.
type Driver struct {
	oms     execution.OMS
	riskCfg risk.Config

	clock       *clock.TestClock
	bus         *bus.MessageBus
	cache       *cache.Cache
	dataEngine  *dataengine.DataEngine
	execEngine  *execution.Engine
	riskEngine  *risk.Engine
	portfolio   *portfolio.Tracker
	commissions *commissions.Ledger
	factory     *strategy.OrderFactory

	venueCfgs []venueConfig
	venues    map[string]*venueState
	venueKeys []string

	instrumentCfgs  []instrumentConfig
	instrumentVenue map[string]string // instrument id -> venue name

	lastPx map[string]money.Price // instrument id -> latest mark price

	strategies []strategy.Strategy
	records    []data.Record

	reportCurrency money.Currency
	reportCurrSet  bool

	result *Result
}

// New constructs a Driver with a fresh kernel. oms selects NETTING or
// HEDGING position aggregation for every venue added to this run; riskCfg
// configures the shared pre-trade risk gate.
func New(oms execution.OMS, riskCfg risk.Config) *Driver {
	d := &Driver{oms: oms, riskCfg: riskCfg}
	d.rebuildKernel()
	return d
}

// rebuildKernel discards every live kernel collaborator and replays the
// accumulated venue/instrument configuration against fresh ones. Strategy
// and data registration are NOT replayed here — callers (New, Reset)
// handle those themselves, since Reset additionally needs to call
// OnReset and New has nothing yet to replay.
func (d *Driver) rebuildKernel() {
	d.clock = clock.NewTestClock(0)
	d.bus = bus.New()
	d.cache = cache.New()
	d.dataEngine = dataengine.New(d.cache, d.bus)
	d.riskEngine = risk.New(d.riskCfg)
	d.execEngine = execution.New(d.oms, d.cache, d.bus, d.riskEngine, d.clock)
	d.commissions = commissions.New()
	d.factory = strategy.NewOrderFactory()

	d.venues = make(map[string]*venueState)
	d.venueKeys = nil
	d.instrumentVenue = make(map[string]string)
	d.lastPx = make(map[string]money.Price)
	d.reportCurrSet = false
	d.result = nil

	for _, cfg := range d.venueCfgs {
		d.applyVenue(cfg)
	}
	for _, cfg := range d.instrumentCfgs {
		if err := d.applyInstrument(cfg); err != nil {
			panic(fmt.Sprintf("backtest: replaying instrument registration on reset: %v", err))
		}
	}
	d.portfolio = portfolio.New(d.cache, d.accountsInOrder())
}

// configuredStartingBalance sums every configured venue's seed deposits in
// the report currency. Balances in other currencies are skipped —
// cross-currency conversion is not modeled.
func (d *Driver) configuredStartingBalance() money.Money {
	total := money.ZeroMoney(d.reportCurrency)
	for _, cfg := range d.venueCfgs {
		for _, bal := range cfg.startingBalances {
			if bal.Currency.Code != d.reportCurrency.Code {
				continue
			}
			summed, err := total.Add(bal)
			if err != nil {
				continue
			}
			total = summed
		}
	}
	return total
}

func (d *Driver) accountsInOrder() []*account.Account {
	out := make([]*account.Account, 0, len(d.venueKeys))
	for _, k := range d.venueKeys {
		out = append(out, d.venues[k].account)
	}
	return out
}

func (d *Driver) applyVenue(cfg venueConfig) ids.Venue {
	venue := ids.NewVenue(cfg.name)
	var acct *account.Account
	if cfg.acctKind == account.Margin {
		acct = account.NewMarginAccount(ids.NewAccountId(cfg.name+"-ACCOUNT"), cfg.baseCurrency, cfg.leverage)
	} else {
		acct = account.NewCashAccount(ids.NewAccountId(cfg.name+"-ACCOUNT"), cfg.baseCurrency)
	}
	for _, bal := range cfg.startingBalances {
		if err := acct.Deposit(bal); err != nil {
			panic(fmt.Sprintf("backtest: replaying venue %s starting balances on reset: %v", cfg.name, err))
		}
	}
	exch := exchange.New(venue, acct, d.bus)
	d.venues[venue.String()] = &venueState{venue: venue, account: acct, exch: exch}
	d.venueKeys = append(d.venueKeys, venue.String())
	d.cache.AddAccount(acct)

	if !d.reportCurrSet {
		d.reportCurrency = cfg.baseCurrency
		d.reportCurrSet = true
	}
	return venue
}

func (d *Driver) applyInstrument(cfg instrumentConfig) error {
	vs, ok := d.venues[cfg.venue]
	if !ok {
		return fmt.Errorf("backtest: unknown venue %s", cfg.venue)
	}
	if !d.cache.AddInstrument(cfg.instr) {
		return fmt.Errorf("backtest: instrument %s already registered", cfg.instr.Common.Id)
	}
	if err := vs.exch.AddInstrument(cfg.instr); err != nil {
		return err
	}
	d.instrumentVenue[cfg.instr.Common.Id.String()] = cfg.venue
	return nil
}

// AddVenue registers a new simulated venue: its account kind, base
// currency, starting balances, and (for MARGIN accounts) leverage. Returns
// a ConfigurationError if the venue name is already registered.
func (d *Driver) AddVenue(name string, acctKind account.Kind, baseCurrency money.Currency, startingBalances []money.Money, leverage decimal.Decimal) (ids.Venue, error) {
	if _, exists := d.venues[ids.NewVenue(name).String()]; exists {
		return ids.Venue{}, fmt.Errorf("backtest: venue %s already registered", name)
	}
	cfg := venueConfig{name: name, acctKind: acctKind, baseCurrency: baseCurrency, startingBalances: startingBalances, leverage: leverage}
	venue := d.applyVenue(cfg)
	d.venueCfgs = append(d.venueCfgs, cfg)
	d.portfolio = portfolio.New(d.cache, d.accountsInOrder())
	return venue, nil
}

// AddInstrument routes instr to the cache and to venue's simulated
// exchange.
func (d *Driver) AddInstrument(instr instrument.Instrument, venue ids.Venue) error {
	cfg := instrumentConfig{instr: instr, venue: venue.String()}
	if err := d.applyInstrument(cfg); err != nil {
		return err
	}
	d.instrumentCfgs = append(d.instrumentCfgs, cfg)
	return nil
}

// AddData appends records to the driver's merged data stream. Order across
// calls is preserved as the stable-sort tiebreak.
func (d *Driver) AddData(records []data.Record) {
	d.records = append(d.records, records...)
}

// AddStrategy registers s: injects its kernel dependencies, wires its
// order/position event subscriptions to strategy.Dispatch, and remembers it
// for OnStart/OnStop/Reset.
func (d *Driver) AddStrategy(s strategy.Strategy) {
	d.wireStrategy(s)
	d.strategies = append(d.strategies, s)
}

// wireStrategy attaches deps and bus subscriptions for s against the
// driver's current kernel. Called once from AddStrategy and again, per
// strategy, from Reset after the kernel has been rebuilt.
func (d *Driver) wireStrategy(s strategy.Strategy) {
	venue := ids.Venue{}
	if len(d.venueKeys) > 0 {
		venue = d.venues[d.venueKeys[0]].venue
	}
	strategy.Attach(s, strategy.Deps{
		Clock:      d.clock,
		Cache:      d.cache,
		Portfolio:  d.portfolio,
		Bus:        d.bus,
		DataEngine: d.dataEngine,
		Execution:  d.execEngine,
		Venue:      venue,
		Factory:    d.factory,
	})
	d.bus.Subscribe(orderTopic(s.Id()), func(msg any) {
		d.trackFill(msg)
		strategy.Dispatch(s, msg)
	})
	d.bus.Subscribe(positionTopic(s.Id()), func(msg any) { strategy.Dispatch(s, msg) })
}

func orderTopic(id ids.StrategyId) string { return fmt.Sprintf("events.order.%s", id) }
func positionTopic(id ids.StrategyId) string { return fmt.Sprintf("events.position.%s", id) }

// trackFill feeds the commission ledger whenever an OrderFilled event
// passes through, keyed by the venue the filled order traded on.
func (d *Driver) trackFill(msg any) {
	ev, ok := msg.(order.Event)
	if !ok || ev.Kind != order.EventFilled {
		return
	}
	o, ok := d.cache.Order(ev.ClientOrderId)
	if !ok {
		return
	}
	venueKey, ok := d.instrumentVenue[o.InstrumentId.String()]
	if !ok {
		return
	}
	notional := ev.LastQty.Decimal().Mul(ev.LastPx.Decimal())
	d.commissions.Record(d.venues[venueKey].venue, ev.Commission.Currency.Code, ev.Commission.Amount, notional)
}

const nsPerDay = int64(24*60*60) * 1_000_000_000

// checkDrawdown marks the run HALTED once total realized plus
// mark-to-market unrealized PnL breaches the configured drawdown fraction
// of starting capital. Open positions with no mark price seen yet
// contribute realized PnL only. No-op unless a limit is configured.
func (d *Driver) checkDrawdown() {
	if !d.riskCfg.MaxDrawdownPct.IsPositive() || d.riskEngine.State() == risk.Halted {
		return
	}
	realized := decimal.Zero
	unrealized := decimal.Zero
	for _, p := range d.cache.Positions() {
		realized = realized.Add(p.TotalRealizedPnL())
		if p.IsClosed() {
			continue
		}
		px, ok := d.lastPx[p.InstrumentId.String()]
		if !ok {
			continue
		}
		unrealized = unrealized.Add(p.UnrealizedPnL(px))
	}
	if d.riskEngine.EvaluateDrawdown(realized, unrealized, d.configuredStartingBalance().Amount) {
		d.riskEngine.SetState(risk.Halted)
	}
}

// sortedRecords returns d.records stable-sorted by EventTimeNs; ties keep
// insertion order, which sort.SliceStable guarantees without any decorated
// key.
func (d *Driver) sortedRecords() []data.Record {
	out := make([]data.Record, len(d.records))
	copy(out, d.records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTimeNs() < out[j].EventTimeNs()
	})
	return out
}

// Run iterates every registered record whose ts_event falls in
// [start, end] (nil bounds are unbounded) — advancing the clock, matching
// bars before delivering them, sampling the balance curve — then builds
// the Result. It returns the first ConfigurationError it observes and
// never recovers from a panic raised by strategy code or a kernel
// invariant violation: a deterministic run must fail loudly, not continue
// silently.
func (d *Driver) Run(startNs, endNs *int64) error {
	records := d.sortedRecords()

	for _, s := range d.strategies {
		s.OnStart()
	}

	var firstTs, lastTs, lastDay int64
	seenAny := false

	for _, rec := range records {
		ts := rec.EventTimeNs()
		if startNs != nil && ts < *startNs {
			continue
		}
		if endNs != nil && ts > *endNs {
			continue
		}
		if day := ts / nsPerDay; seenAny && day != lastDay {
			d.riskEngine.ResetDaily()
			lastDay = day
		} else if !seenAny {
			lastDay = day
		}
		if !seenAny {
			firstTs = ts
			seenAny = true
		}
		lastTs = ts

		for _, fired := range d.clock.AdvanceTo(ts) {
			fired.Callback(fired)
		}

		switch v := rec.(type) {
		case data.Bar:
			if venueKey, ok := d.instrumentVenue[v.BarType.InstrumentId.String()]; ok {
				d.venues[venueKey].exch.ProcessBar(v)
			}
			d.dataEngine.ProcessBar(v)
			d.lastPx[v.BarType.InstrumentId.String()] = v.Close
		case data.QuoteTick:
			d.dataEngine.ProcessQuote(v)
			mid := v.BidPrice.Decimal().Add(v.AskPrice.Decimal()).Div(decimal.NewFromInt(2))
			d.lastPx[v.InstrumentId.String()] = money.NewPrice(mid, v.BidPrice.Precision())
		case data.TradeTick:
			d.dataEngine.ProcessTrade(v)
			d.lastPx[v.InstrumentId.String()] = v.Price
		default:
			return fmt.Errorf("backtest: unrecognized record type %T", rec)
		}

		d.portfolio.Sample(ts, d.reportCurrency.Code)
		d.checkDrawdown()
	}

	for _, s := range d.strategies {
		s.OnStop()
	}

	d.result = d.buildResult(firstTs, lastTs)
	return nil
}

// GetResult returns the result of the most recent Run. Calling it before
// Run returns a zero Result.
func (d *Driver) GetResult() Result {
	if d.result == nil {
		return Result{}
	}
	return *d.result
}

// Reset rebuilds the entire kernel (clock, bus, cache, engines, accounts,
// portfolio) from the venues/instruments already configured, re-attaches
// every registered strategy to the fresh kernel, and calls each strategy's
// OnReset — so the same Driver can Run the identical configuration again
// from a clean slate. Registered data and strategy objects themselves are
// kept; a strategy's own accumulated state (e.g. indicator windows) is its
// own responsibility to clear in OnReset.
func (d *Driver) Reset() {
	d.rebuildKernel()
	for _, s := range d.strategies {
		d.wireStrategy(s)
		s.OnReset()
	}
}
