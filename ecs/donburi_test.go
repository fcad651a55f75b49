package ecs

import (
	"testing"

	"github.com/phanxgames/cadence"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var lifecycle, interaction []cadence.Event
	LifecycleEventType.Subscribe(world, func(w donburi.World, e cadence.Event) {
		lifecycle = append(lifecycle, e)
	})
	InteractionEventType.Subscribe(world, func(w donburi.World, e cadence.Event) {
		interaction = append(interaction, e)
	})

	sink.EmitEvent(cadence.Event{
		Type:      cadence.EventUpdate,
		TriggerID: "hero",
		Progress:  0.25,
		Direction: cadence.DirectionForward,
	})
	sink.EmitEvent(cadence.Event{
		Type:      cadence.EventClick,
		ElementID: 42,
		X:         100,
		Y:         200,
		Button:    cadence.MouseButtonLeft,
	})

	// Events are queued; process them.
	events.ProcessAllEvents(world)

	if len(lifecycle) != 1 || len(interaction) != 1 {
		t.Fatalf("got %d lifecycle, %d interaction events; want 1, 1", len(lifecycle), len(interaction))
	}
	if e := lifecycle[0]; e.TriggerID != "hero" || e.Progress != 0.25 || e.Direction != cadence.DirectionForward {
		t.Errorf("lifecycle event: %+v", e)
	}
	if e := interaction[0]; e.ElementID != 42 || e.X != 100 || e.Y != 200 {
		t.Errorf("interaction event: %+v", e)
	}
}

func TestDonburiSink_ImplementsEventSink(t *testing.T) {
	world := donburi.NewWorld()
	var sink cadence.EventSink = NewDonburiSink(world)
	_ = sink // compile-time interface check
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	LifecycleEventType.Subscribe(world, func(w donburi.World, e cadence.Event) {
		count1++
	})
	LifecycleEventType.Subscribe(world, func(w donburi.World, e cadence.Event) {
		count2++
	})

	sink.EmitEvent(cadence.Event{Type: cadence.EventEnter})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}

func TestIsLifecycle(t *testing.T) {
	tests := []struct {
		typ  cadence.EventType
		want bool
	}{
		{cadence.EventEnter, true},
		{cadence.EventUpdate, true},
		{cadence.EventLeave, true},
		{cadence.EventEnterBack, true},
		{cadence.EventLeaveBack, true},
		{cadence.EventPointerEnter, false},
		{cadence.EventPointerLeave, false},
		{cadence.EventClick, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := IsLifecycle(tt.typ); got != tt.want {
				t.Errorf("IsLifecycle(%v) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestDonburiSink_StageBridge(t *testing.T) {
	world := donburi.NewWorld()

	cfg := cadence.DefaultStageConfig()
	cfg.Smoothing.Mode = cadence.SmoothNone
	stage := cadence.NewStage(cfg)
	stage.SetEventSink(NewDonburiSink(world))

	if _, err := stage.Triggers().Register(cadence.TriggerConfig{ID: "hero", Start: 0, End: 1000}, cadence.TriggerCallbacks{}); err != nil {
		t.Fatal(err)
	}

	var got []cadence.EventType
	LifecycleEventType.Subscribe(world, func(w donburi.World, e cadence.Event) {
		if e.TriggerID == "hero" {
			got = append(got, e.Type)
		}
	})

	stage.InjectWheel(500)
	stage.Advance(1.0 / 60)
	events.ProcessAllEvents(world)

	if len(got) != 2 || got[0] != cadence.EventEnter || got[1] != cadence.EventUpdate {
		t.Errorf("events = %v, want [enter update]", got)
	}
}
