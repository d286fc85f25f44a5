// Package commissions implements a cumulative per-venue commission and
// traded-volume ledger: a synchronous, in-process accumulator fed
// directly on every fill. There is no network I/O and no sync interval —
// the backtest kernel is fully synchronous, so accumulation collapses
// into a plain running total.
package commissions

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/shopspring/decimal"
)

// venueLedger accumulates one venue's commission paid and notional traded,
// per currency.
type venueLedger struct {
	commission   map[string]decimal.Decimal
	volume       map[string]decimal.Decimal
	fillCount    int
	currencyKeys []string
}

func newVenueLedger() *venueLedger {
	return &venueLedger{
		commission: make(map[string]decimal.Decimal),
		volume:     make(map[string]decimal.Decimal),
	}
}

func (v *venueLedger) record(currencyCode string, commission, notional decimal.Decimal) {
	if _, ok := v.commission[currencyCode]; !ok {
		v.currencyKeys = append(v.currencyKeys, currencyCode)
	}
	v.commission[currencyCode] = v.commission[currencyCode].Add(commission)
	v.volume[currencyCode] = v.volume[currencyCode].Add(notional)
	v.fillCount++
}

// Ledger tracks cumulative commission and volume across every venue in a
// backtest run, keyed and iterated in first-seen order for determinism.
type Ledger struct {
	byVenue   map[string]*venueLedger
	venueKeys []string
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{byVenue: make(map[string]*venueLedger)}
}

// Record folds one fill's commission and notional into venue's running
// totals.
func (l *Ledger) Record(venue ids.Venue, currencyCode string, commission, notional decimal.Decimal) {
	key := venue.String()
	vl, ok := l.byVenue[key]
	if !ok {
		vl = newVenueLedger()
		l.byVenue[key] = vl
		l.venueKeys = append(l.venueKeys, key)
	}
	vl.record(currencyCode, commission, notional)
}

// TotalCommission returns the cumulative commission paid on venue in
// currencyCode.
func (l *Ledger) TotalCommission(venue ids.Venue, currencyCode string) decimal.Decimal {
	vl, ok := l.byVenue[venue.String()]
	if !ok {
		return decimal.Zero
	}
	return vl.commission[currencyCode]
}

// TotalVolume returns the cumulative traded notional on venue in
// currencyCode.
func (l *Ledger) TotalVolume(venue ids.Venue, currencyCode string) decimal.Decimal {
	vl, ok := l.byVenue[venue.String()]
	if !ok {
		return decimal.Zero
	}
	return vl.volume[currencyCode]
}

// FillCount returns how many fills have been recorded against venue.
func (l *Ledger) FillCount(venue ids.Venue) int {
	vl, ok := l.byVenue[venue.String()]
	if !ok {
		return 0
	}
	return vl.fillCount
}

// TotalCommissionAllVenues sums commission paid across every venue and
// currency — used by the results builder, which reports one aggregate
// figure regardless of how many venues and currencies contributed to it.
func (l *Ledger) TotalCommissionAllVenues() decimal.Decimal {
	total := decimal.Zero
	for _, key := range l.venueKeys {
		vl := l.byVenue[key]
		for _, code := range vl.currencyKeys {
			total = total.Add(vl.commission[code])
		}
	}
	return total
}

// Venues returns every venue that has recorded at least one fill, in
// first-seen order.
func (l *Ledger) Venues() []string {
	out := make([]string, len(l.venueKeys))
	copy(out, l.venueKeys)
	return out
}

// String renders a one-line summary, handy for CLI/report output.
func (l *Ledger) String() string {
	return fmt.Sprintf("commissions: %d venue(s), %s total paid", len(l.venueKeys), l.TotalCommissionAllVenues().StringFixed(2))
}
