package order

// Status is the closed set of order lifecycle states.
type Status uint8

const (
	Initialized Status = iota
	Denied
	Submitted
	Accepted
	Rejected
	Canceled
	Expired
	Triggered
	PartiallyFilled
	Filled
	PendingUpdate
	PendingCancel
)

func (s Status) String() string {
	switch s {
	case Initialized:
		return "INITIALIZED"
	case Denied:
		return "DENIED"
	case Submitted:
		return "SUBMITTED"
	case Accepted:
		return "ACCEPTED"
	case Rejected:
		return "REJECTED"
	case Canceled:
		return "CANCELED"
	case Expired:
		return "EXPIRED"
	case Triggered:
		return "TRIGGERED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case PendingUpdate:
		return "PENDING_UPDATE"
	case PendingCancel:
		return "PENDING_CANCEL"
	default:
		return "UNKNOWN"
	}
}

// transitions is the allowed-successor table. Terminal states map to an
// empty (nil) successor set.
var transitions = map[Status]map[Status]bool{
	Initialized: set(Denied, Submitted),
	Submitted:   set(Accepted, Rejected, Canceled),
	Accepted: set(Canceled, Expired, Triggered, PendingUpdate, PendingCancel,
		PartiallyFilled, Filled),
	Triggered:       set(Canceled, Expired, PartiallyFilled, Filled),
	PartiallyFilled: set(Canceled, PartiallyFilled, Filled),
	PendingUpdate:   set(Accepted, Canceled),
	PendingCancel:   set(Accepted, Canceled),
	Denied:          nil,
	Rejected:        nil,
	Canceled:        nil,
	Expired:         nil,
	Filled:          nil,
}

func set(states ...Status) map[Status]bool {
	m := make(map[Status]bool, len(states))
	for _, s := range states {
		m[s] = true
	}
	return m
}

// CanTransition reports whether `to` is an allowed successor of `from`.
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// IsTerminal reports whether a status has no allowed successors.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// eventTargetStatus maps every event kind, except OrderFilled, to a single
// target status.
var eventTargetStatus = map[EventKind]Status{
	EventDenied:        Denied,
	EventSubmitted:     Submitted,
	EventAccepted:      Accepted,
	EventRejected:      Rejected,
	EventCanceled:      Canceled,
	EventExpired:       Expired,
	EventTriggered:     Triggered,
	EventPendingUpdate: PendingUpdate,
	EventPendingCancel: PendingCancel,
	// EventUpdated and EventFilled are resolved specially in Order.Apply:
	// EventUpdated never changes status, EventFilled resolves to
	// PartiallyFilled or Filled depending on the remaining quantity.
}
