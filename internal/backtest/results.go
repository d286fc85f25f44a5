package backtest

import (
	"math"

	"github.com/GoPolymarket/backtest-core/internal/money"
	"github.com/GoPolymarket/backtest-core/internal/portfolio"
	"github.com/shopspring/decimal"
)

// Result summarizes one completed run. Sharpe ratio and drawdown are
// derived analytics computed in float64 — acceptable since these figures
// never feed back into the simulation; anything monetary stays decimal.
type Result struct {
	StartNs int64
	EndNs   int64

	TotalOrders    int
	TotalPositions int
	TotalFills     int

	StartingBalance money.Money
	EndingBalance   money.Money
	TotalReturn     decimal.Decimal

	TotalCommissions decimal.Decimal

	MaxDrawdown  float64
	SharpeRatio  float64
	WinRate      float64
	ProfitFactor float64
	AvgWin       decimal.Decimal
	AvgLoss      decimal.Decimal

	BalanceCurve []portfolio.BalancePoint
}

// buildResult summarizes the state accumulated during the run just
// completed.
func (d *Driver) buildResult(startNs, endNs int64) *Result {
	curve := d.portfolio.Curve()

	r := &Result{
		StartNs:        startNs,
		EndNs:          endNs,
		TotalOrders:    len(d.cache.Orders()),
		TotalPositions: len(d.cache.Positions()),
		BalanceCurve:   curve,
	}

	// The starting balance is the configured pre-run seed, not curve[0]:
	// the curve is sampled after each record's dispatch, so its first
	// point already reflects any fills the first record produced.
	r.StartingBalance = d.configuredStartingBalance()
	r.EndingBalance = r.StartingBalance
	if len(curve) > 0 {
		r.EndingBalance = curve[len(curve)-1].Balance
	}
	r.TotalReturn = r.EndingBalance.Amount.Sub(r.StartingBalance.Amount)

	r.TotalCommissions = d.commissions.TotalCommissionAllVenues()
	r.MaxDrawdown = maxDrawdown(curve)
	r.SharpeRatio = sharpeRatio(curve)

	fills, closedCount, wins, losses := d.positionStats()
	r.TotalFills = fills
	r.WinRate = winRate(wins, closedCount)
	r.ProfitFactor = profitFactor(wins, losses)
	r.AvgWin = average(wins)
	r.AvgLoss = average(losses)

	return r
}

// positionStats walks every closed position's realized PnL (summed across
// whatever currencies it booked in — in practice one, the venue's quote
// currency) and sorts it into the winners/losers win_rate and
// profit_factor are computed from. closedCount covers every closed
// position including breakeven ones, which belong to neither slice but
// still dilute the win rate. It also counts total fills as the sum of
// each position's applied Fill events — the matching engine only ever
// produces full fills, so one Fill is one matched order.
func (d *Driver) positionStats() (fills, closedCount int, wins, losses []decimal.Decimal) {
	for _, p := range d.cache.Positions() {
		fills += len(p.Events)
		if !p.IsClosed() {
			continue
		}
		closedCount++
		total := decimal.Zero
		for _, amt := range p.RealizedPnL {
			total = total.Add(amt)
		}
		if total.IsPositive() {
			wins = append(wins, total)
		} else if total.IsNegative() {
			losses = append(losses, total)
		}
	}
	return fills, closedCount, wins, losses
}

// maxDrawdown is max_over_curve((peak - current) / peak), the largest
// fractional retreat from any running peak balance seen so far.
func maxDrawdown(curve []portfolio.BalancePoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak, _ := curve[0].Balance.Amount.Float64()
	worst := 0.0
	for _, pt := range curve {
		v, _ := pt.Balance.Amount.Float64()
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		dd := (peak - v) / peak
		if dd > worst {
			worst = dd
		}
	}
	return worst
}

// sharpeRatio is mean(r)/stddev(r) * sqrt(252) where r[i] is the simple
// return between consecutive balance-curve samples.
func sharpeRatio(curve []portfolio.BalancePoint) float64 {
	if len(curve) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev, _ := curve[i-1].Balance.Amount.Float64()
		cur, _ := curve[i].Balance.Amount.Float64()
		if prev == 0 {
			continue
		}
		returns = append(returns, (cur-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	return (mean / stddev) * math.Sqrt(252)
}

// winRate is |wins|/|closed_positions|. The denominator is every closed
// position — breakeven closes count against the rate even though they are
// neither wins nor losses.
func winRate(wins []decimal.Decimal, closedCount int) float64 {
	if closedCount == 0 {
		return 0
	}
	return float64(len(wins)) / float64(closedCount)
}

// profitFactor is Σwins / |Σlosses|: +Inf if there are wins and no losses,
// 0 if there are no wins at all.
func profitFactor(wins, losses []decimal.Decimal) float64 {
	sumWins := sumOf(wins)
	sumLosses := sumOf(losses)
	if len(wins) == 0 {
		return 0
	}
	if len(losses) == 0 || sumLosses.IsZero() {
		return math.Inf(1)
	}
	w, _ := sumWins.Float64()
	l, _ := sumLosses.Abs().Float64()
	return w / l
}

func sumOf(xs []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return total
}

func average(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	return sumOf(xs).Div(decimal.NewFromInt(int64(len(xs))))
}
