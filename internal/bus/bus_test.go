package bus

import "testing"

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe("topic.a", func(any) { order = append(order, "first") })
	b.Subscribe("topic.a", func(any) { order = append(order, "second") })

	b.Publish("topic.a", "msg")

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected delivery in subscription order, got %v", order)
	}
}

func TestReentrantSubscribeDuringPublishDoesNotAffectCurrentDispatch(t *testing.T) {
	b := New()
	var fired []string
	b.Subscribe("topic.a", func(any) {
		fired = append(fired, "original")
		b.Subscribe("topic.a", func(any) { fired = append(fired, "late") })
	})

	b.Publish("topic.a", "msg")
	if len(fired) != 1 || fired[0] != "original" {
		t.Fatalf("expected only the original handler to fire on this publish, got %v", fired)
	}

	b.Publish("topic.a", "msg")
	if len(fired) != 3 {
		t.Fatalf("expected the late subscriber to fire on the next publish, got %v", fired)
	}
}

func TestUnsubscribeRemovesOnlyThatRegistration(t *testing.T) {
	b := New()
	var fired []string
	sub1 := b.Subscribe("topic.a", func(any) { fired = append(fired, "one") })
	b.Subscribe("topic.a", func(any) { fired = append(fired, "two") })

	b.Unsubscribe(sub1)
	b.Publish("topic.a", "msg")

	if len(fired) != 1 || fired[0] != "two" {
		t.Fatalf("expected only the remaining subscriber to fire, got %v", fired)
	}
}

func TestSendToUnregisteredEndpointIsNoOp(t *testing.T) {
	b := New()
	b.Send("nowhere", "msg") // must not panic
}

func TestSendDeliversToRegisteredEndpoint(t *testing.T) {
	b := New()
	var got any
	b.Register("Exchange.SIM", func(msg any) { got = msg })
	b.Send("Exchange.SIM", "order")
	if got != "order" {
		t.Fatalf("expected endpoint handler to receive the message, got %v", got)
	}
}
