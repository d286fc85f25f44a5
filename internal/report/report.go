// Package report formats a backtest result for human consumption: terse,
// informational, and printed with the standard library's log package
// rather than any formatter or template engine.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/GoPolymarket/backtest-core/internal/backtest"
)

// FormatResult renders r as a multi-line plain-text summary covering
// every Result field.
func FormatResult(r backtest.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "backtest complete: %d -> %d\n", r.StartNs, r.EndNs)
	fmt.Fprintf(&b, "  orders=%d positions=%d fills=%d\n", r.TotalOrders, r.TotalPositions, r.TotalFills)
	fmt.Fprintf(&b, "  starting_balance=%s ending_balance=%s total_return=%s\n",
		r.StartingBalance, r.EndingBalance, r.TotalReturn.StringFixed(2))
	fmt.Fprintf(&b, "  total_commissions=%s\n", r.TotalCommissions.StringFixed(2))
	fmt.Fprintf(&b, "  max_drawdown=%.4f sharpe_ratio=%.4f\n", r.MaxDrawdown, r.SharpeRatio)
	fmt.Fprintf(&b, "  win_rate=%.4f profit_factor=%s\n", r.WinRate, formatProfitFactor(r.ProfitFactor))
	fmt.Fprintf(&b, "  avg_win=%s avg_loss=%s\n", r.AvgWin.StringFixed(2), r.AvgLoss.StringFixed(2))
	fmt.Fprintf(&b, "  balance_curve: %d sample(s)\n", len(r.BalanceCurve))
	return b.String()
}

func formatProfitFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.4f", pf)
}
