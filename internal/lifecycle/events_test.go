package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	sender := &struct{ name string }{name: "initializer"}

	bus.Subscribe(func(e Event) {
		order = append(order, "first")
		assert.Equal(t, RuntimeInitializing, e.Kind)
		assert.Same(t, sender, e.Sender)
	})
	bus.Subscribe(func(Event) { order = append(order, "second") })
	bus.Subscribe(func(Event) { order = append(order, "third") })

	bus.Publish(sender, RuntimeInitializing)

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := map[string]int{}

	a := bus.Subscribe(func(Event) { calls["a"]++ })
	bus.Subscribe(func(Event) { calls["b"]++ })

	bus.Unsubscribe(a)
	bus.Unsubscribe(a)
	bus.Publish(nil, RuntimeInitializing)

	assert.Equal(t, 0, calls["a"])
	assert.Equal(t, 1, calls["b"])
}

func TestBus_SubscribeDuringPublishAppliesNextTime(t *testing.T) {
	bus := NewBus()
	late := 0

	bus.Subscribe(func(Event) {
		bus.Subscribe(func(Event) { late++ })
	})

	bus.Publish(nil, RuntimeInitializing)
	assert.Equal(t, 0, late)

	bus.Publish(nil, RuntimeInitializing)
	assert.Equal(t, 1, late)
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "runtime-initializing", RuntimeInitializing.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
