// Package portfolio implements the portfolio aggregation queries the
// backtest driver and strategies read from: total account value across
// venues and the balance curve sampled after each record. There is
// nothing to poll — the driver calls Sample synchronously after every
// record is dispatched, and queries read straight through to the cache's
// accounts and positions.
package portfolio

import (
	"github.com/GoPolymarket/backtest-core/internal/account"
	"github.com/GoPolymarket/backtest-core/internal/cache"
	"github.com/GoPolymarket/backtest-core/internal/money"
)

// BalancePoint is one (timestamp, total account value) sample on the
// balance curve.
type BalancePoint struct {
	TsNs    int64
	Balance money.Money
}

// Tracker answers portfolio-level queries against the cache and accumulates
// the balance curve the results builder later summarizes. It holds no
// lock: the kernel is single-threaded.
type Tracker struct {
	cache        *cache.Cache
	accounts     []*account.Account
	curve        []BalancePoint
}

// New returns a Tracker reading through c. accounts is the full set of
// venue accounts to aggregate — typically one per configured venue.
func New(c *cache.Cache, accounts []*account.Account) *Tracker {
	return &Tracker{cache: c, accounts: accounts}
}

// TotalValue sums every tracked account's Total in currencyCode.
// Cross-currency conversion is not modeled: an account holding only
// balances in other currencies contributes nothing to this figure.
func (t *Tracker) TotalValue(currencyCode string) money.Money {
	var total money.Money
	haveTotal := false
	for _, a := range t.accounts {
		bal, ok := a.Balance(moneyCurrencyByCode(a, currencyCode))
		if !ok {
			continue
		}
		if !haveTotal {
			total = bal.Total
			haveTotal = true
			continue
		}
		if summed, err := total.Add(bal.Total); err == nil {
			total = summed
		}
	}
	return total
}

func moneyCurrencyByCode(a *account.Account, code string) money.Currency {
	for c := range a.Balances {
		if c == code {
			return a.Balances[c].Total.Currency
		}
	}
	return money.Currency{Code: code}
}

// OpenPositionCount returns how many positions are currently open.
func (t *Tracker) OpenPositionCount() int {
	n := 0
	for _, p := range t.cache.Positions() {
		if !p.IsClosed() {
			n++
		}
	}
	return n
}

// ClosedPositionCount returns how many positions have closed so far.
func (t *Tracker) ClosedPositionCount() int {
	n := 0
	for _, p := range t.cache.Positions() {
		if p.IsClosed() {
			n++
		}
	}
	return n
}

// Sample appends (tsNs, TotalValue(currencyCode)) to the balance curve.
// Called by the backtest driver once per processed record, after data
// engine dispatch returns.
func (t *Tracker) Sample(tsNs int64, currencyCode string) {
	t.curve = append(t.curve, BalancePoint{TsNs: tsNs, Balance: t.TotalValue(currencyCode)})
}

// Curve returns the accumulated balance curve in sample order.
func (t *Tracker) Curve() []BalancePoint {
	out := make([]BalancePoint, len(t.curve))
	copy(out, t.curve)
	return out
}

// Reset clears the accumulated balance curve. Driver.Reset does not call
// it; it builds a fresh Tracker instead.
func (t *Tracker) Reset() {
	t.curve = nil
}
