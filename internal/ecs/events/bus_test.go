package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Bus_PublishDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	var got Event
	b.Subscribe(EntityCreated, func(e Event) { got = e })

	b.Publish(Event{Type: EntityCreated, Entity: 7})

	assert.Equal(t, uint64(7), got.Entity)
}

func Test_Bus_PublishOnlyReachesMatchingType(t *testing.T) {
	b := NewBus()
	calls := 0
	b.Subscribe(ComponentAdded, func(e Event) { calls++ })

	b.Publish(Event{Type: EntityCreated, Entity: 1})

	assert.Equal(t, 0, calls)
}

func Test_Bus_SubscribersFireInFIFOOrder(t *testing.T) {
	b := NewBus()
	var order []int
	b.Subscribe(EntityCreated, func(e Event) { order = append(order, 1) })
	b.Subscribe(EntityCreated, func(e Event) { order = append(order, 2) })
	b.Subscribe(EntityCreated, func(e Event) { order = append(order, 3) })

	b.Publish(Event{Type: EntityCreated})

	assert.Equal(t, []int{1, 2, 3}, order)
}

func Test_Bus_SubscribeAllReceivesEveryType(t *testing.T) {
	b := NewBus()
	var seen []TypeID
	b.SubscribeAll(func(e Event) { seen = append(seen, e.Type) })

	b.Publish(Event{Type: EntityCreated})
	b.Publish(Event{Type: ComponentRemoved})

	assert.Equal(t, []TypeID{EntityCreated, ComponentRemoved}, seen)
}

func Test_Bus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	calls := 0
	id := b.Subscribe(EntityCreated, func(e Event) { calls++ })

	b.Unsubscribe(id)
	b.Publish(Event{Type: EntityCreated})

	assert.Equal(t, 0, calls)
}

func Test_Bus_TimestampDefaultsWhenZero(t *testing.T) {
	b := NewBus()
	var got Event
	b.Subscribe(EntityCreated, func(e Event) { got = e })

	b.Publish(Event{Type: EntityCreated})

	assert.False(t, got.Timestamp.IsZero())
}
