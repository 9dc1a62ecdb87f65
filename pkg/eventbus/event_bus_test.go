package eventbus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type createdEvent struct {
	ID uint
}

type updatedEvent struct {
	ID uint
}

func TestPublish_DeliversToMatchingSubscribersOnly(t *testing.T) {
	bus := NewEventPublisher(logrus.New())

	var created []createdEvent
	var updated []updatedEvent
	bus.Subscribe(func(e createdEvent) { created = append(created, e) })
	bus.Subscribe(func(e updatedEvent) { updated = append(updated, e) })
	require.Equal(t, 2, bus.SubscribersCount())

	bus.Publish(createdEvent{ID: 1})
	bus.Publish(createdEvent{ID: 2})
	bus.Publish(updatedEvent{ID: 3})

	require.Len(t, created, 2)
	require.Equal(t, uint(2), created[1].ID)
	require.Len(t, updated, 1)
	require.Equal(t, uint(3), updated[0].ID)
}

func TestPublish_InterfaceParamsMatchImplementations(t *testing.T) {
	bus := NewEventPublisher(logrus.New())

	var seen []error
	bus.Subscribe(func(err error) { seen = append(seen, err) })

	bus.Publish(errTest("boom"))
	require.Len(t, seen, 1)
	require.EqualError(t, seen[0], "boom")
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestPublish_PanickingHandlerDoesNotStopDispatch(t *testing.T) {
	bus := NewEventPublisher(logrus.New())

	var delivered int
	bus.Subscribe(func(createdEvent) { panic("handler bug") })
	bus.Subscribe(func(createdEvent) { delivered++ })

	require.NotPanics(t, func() { bus.Publish(createdEvent{ID: 1}) })
	require.Equal(t, 1, delivered)
}

func TestSubscribe_RejectsNonFunctions(t *testing.T) {
	bus := NewEventPublisher(logrus.New())
	require.Panics(t, func() { bus.Subscribe("not a handler") })
}

func TestClear(t *testing.T) {
	bus := NewEventPublisher(logrus.New())
	var delivered int
	bus.Subscribe(func(createdEvent) { delivered++ })

	bus.Clear()
	require.Zero(t, bus.SubscribersCount())

	bus.Publish(createdEvent{ID: 1})
	require.Zero(t, delivered)
}
