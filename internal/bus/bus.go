// Package bus implements the synchronous, single-producer/many-consumer
// message bus: subscribe/unsubscribe/publish on a flat topic hierarchy,
// plus 1-to-1 registered endpoints. There is no internal buffering, no
// asynchrony, and no thread safety — callbacks run on the caller's stack,
// matching the kernel's single-threaded execution model.
package bus

// Handler receives a published message. msg is typically one of the
// concrete event/data types from the data/order/position packages, passed
// as `any` so the bus stays decoupled from their definitions.
type Handler func(msg any)

// Subscription is an opaque handle identifying one registration, returned
// by Subscribe and consumed by Unsubscribe. Go cannot compare function
// values for equality, so unsubscribing by handler reference is not
// possible — every Subscribe call returns the handle needed to undo it.
type Subscription struct {
	topic string
	id    uint64
}

type registration struct {
	id      uint64
	handler Handler
}

// MessageBus is intentionally not safe for concurrent use — the kernel is
// single-threaded and fully synchronous.
type MessageBus struct {
	topics    map[string][]registration
	topicKeys []string // insertion order, for deterministic enumeration
	nextID    uint64

	endpoints map[string]Handler
}

func New() *MessageBus {
	return &MessageBus{
		topics:    make(map[string][]registration),
		endpoints: make(map[string]Handler),
	}
}

// Subscribe appends handler to topic's subscriber list, in call order, and
// returns a Subscription that can later be passed to Unsubscribe.
func (b *MessageBus) Subscribe(topic string, handler Handler) *Subscription {
	if _, ok := b.topics[topic]; !ok {
		b.topicKeys = append(b.topicKeys, topic)
	}
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], registration{id: id, handler: handler})
	return &Subscription{topic: topic, id: id}
}

// Unsubscribe removes the registration identified by sub, if still present.
// Safe to call during Publish: the dispatch loop iterates over a snapshot
// taken before any handler runs.
func (b *MessageBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	regs := b.topics[sub.topic]
	for i, r := range regs {
		if r.id == sub.id {
			b.topics[sub.topic] = append(append([]registration{}, regs[:i]...), regs[i+1:]...)
			return
		}
	}
}

// Topics returns every topic that currently has at least one subscriber,
// in the order they were first subscribed to.
func (b *MessageBus) Topics() []string {
	out := make([]string, 0, len(b.topicKeys))
	for _, t := range b.topicKeys {
		if len(b.topics[t]) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Publish delivers msg to every current subscriber of topic, in
// subscription order, before returning. The subscriber slice is snapshotted
// before dispatch so a handler that subscribes/unsubscribes during Publish
// does not affect the iteration in progress.
func (b *MessageBus) Publish(topic string, msg any) {
	regs := b.topics[topic]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	for _, r := range snapshot {
		r.handler(msg)
	}
}

// Register binds handler to endpoint. At most one handler may be registered
// per endpoint; a second Register call replaces the first.
func (b *MessageBus) Register(endpoint string, handler Handler) {
	b.endpoints[endpoint] = handler
}

// Send delivers msg to endpoint's registered handler. Sending to an
// unregistered endpoint is a no-op.
func (b *MessageBus) Send(endpoint string, msg any) {
	if h, ok := b.endpoints[endpoint]; ok {
		h(msg)
	}
}
