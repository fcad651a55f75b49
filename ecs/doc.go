// Package ecs provides ECS adapters for cadence's event system.
//
// The primary adapter is [NewDonburiSink], which bridges cadence trigger
// lifecycle events (enter, update, leave, enterBack, leaveBack) and pointer
// events (enter, leave, click) into a [Donburi] world as typed events.
// Subscribe to [LifecycleEventType] or [InteractionEventType] in your ECS
// systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	stage.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
