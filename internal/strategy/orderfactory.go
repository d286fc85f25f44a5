package strategy

import (
	"fmt"

	"github.com/GoPolymarket/backtest-core/internal/ids"
)

// OrderFactory issues monotonically increasing ClientOrderIds of the form
// "O-{strategy_id}-{n}", one counter per strategy so ids from different
// strategies never collide on sequence number alone.
type OrderFactory struct {
	seq map[string]uint64
}

func NewOrderFactory() *OrderFactory {
	return &OrderFactory{seq: make(map[string]uint64)}
}

// Next returns the next ClientOrderId for strategyId.
func (f *OrderFactory) Next(strategyId ids.StrategyId) ids.ClientOrderId {
	key := strategyId.String()
	f.seq[key]++
	return ids.NewClientOrderId(fmt.Sprintf("O-%s-%d", key, f.seq[key]))
}
