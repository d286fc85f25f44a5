package strategy

import "github.com/GoPolymarket/backtest-core/internal/data"

// Indicator is the minimal contract an indicator satisfies: a stateful
// object fed one bar at a time, exposing whether it has seen enough bars
// to produce a meaningful value and, once it has, that value. float64 is
// acceptable here because an indicator's output never feeds back into
// monetary state directly; a strategy that wants to act on it must
// convert through money.Price/money.Quantity at the point it builds an
// order.
type Indicator interface {
	HandleBar(bar data.Bar)
	Initialized() bool
	Value() float64
}

// SMA is a simple moving average over the last Period bars' close price,
// the minimal reference implementation used by CrossoverStrategy and its
// tests to exercise the indicator contract end-to-end.
type SMA struct {
	Period int

	window      []float64
	sum         float64
	initialized bool
	value       float64
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		period = 1
	}
	return &SMA{Period: period}
}

func (s *SMA) HandleBar(bar data.Bar) {
	closePx, _ := bar.Close.Decimal().Float64()
	s.window = append(s.window, closePx)
	s.sum += closePx
	if len(s.window) > s.Period {
		s.sum -= s.window[0]
		s.window = s.window[1:]
	}
	if len(s.window) == s.Period {
		s.initialized = true
		s.value = s.sum / float64(s.Period)
	}
}

func (s *SMA) Initialized() bool { return s.initialized }
func (s *SMA) Value() float64 { return s.value }
