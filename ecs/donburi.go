package ecs

import (
	"github.com/phanxgames/cadence"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// LifecycleEventType is the Donburi event type for trigger lifecycle events.
var LifecycleEventType = events.NewEventType[cadence.Event]()

// InteractionEventType is the Donburi event type for pointer events.
var InteractionEventType = events.NewEventType[cadence.Event]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// published to LifecycleEventType or InteractionEventType by kind and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) cadence.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event cadence.Event) {
	if IsLifecycle(event.Type) {
		LifecycleEventType.Publish(s.world, event)
		return
	}
	InteractionEventType.Publish(s.world, event)
}

// IsLifecycle reports whether t is a trigger lifecycle event.
func IsLifecycle(t cadence.EventType) bool {
	switch t {
	case cadence.EventEnter, cadence.EventUpdate, cadence.EventLeave,
		cadence.EventEnterBack, cadence.EventLeaveBack:
		return true
	}
	return false
}
