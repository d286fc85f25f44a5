package order

import (
	"github.com/GoPolymarket/backtest-core/internal/ids"
	"github.com/GoPolymarket/backtest-core/internal/money"
)

// EventKind discriminates the closed set of order events. Every mutation of
// an Order happens by applying one of these through Order.Apply.
type EventKind uint8

const (
	EventInitialized EventKind = iota
	EventDenied
	EventSubmitted
	EventAccepted
	EventRejected
	EventCanceled
	EventExpired
	EventTriggered
	EventPendingUpdate
	EventPendingCancel
	EventUpdated
	EventFilled // resolves to status PARTIALLY_FILLED or FILLED depending on remaining quantity
)

// Event is a discriminated union of every order-lifecycle event. Only the
// fields relevant to Kind are populated.
type Event struct {
	Kind          EventKind
	ClientOrderId ids.ClientOrderId
	TsEvent       int64

	// EventDenied / EventRejected
	Reason string

	// EventAccepted / EventSubmitted
	VenueOrderId ids.VenueOrderId

	// EventUpdated
	NewQuantity *money.Quantity
	NewPrice    *money.Price
	NewTrigger  *money.Price

	// EventFilled
	TradeId     ids.TradeId
	LastQty     money.Quantity
	LastPx      money.Price
	Commission  money.Money
	PositionId  *ids.PositionId
}

// IsFill reports whether the event is an OrderFilled event. Full and
// partial fills share the event kind; the resulting status distinguishes
// them.
func (e Event) IsFill() bool { return e.Kind == EventFilled }
