package cadence

import (
	"errors"
	"testing"
)

type fakeLane struct {
	name   string
	paused bool
}

func (f *fakeLane) Pause()       { f.paused = true }
func (f *fakeLane) Resume()      { f.paused = false }
func (f *fakeLane) Paused() bool { return f.paused }

func TestInteractionHover(t *testing.T) {
	c := NewInteractionController(nil)
	a := &fakeLane{name: "a"}
	c.PointerEnter(a)
	if !a.paused {
		t.Error("enter did not pause")
	}
	c.PointerLeave(a)
	if a.paused {
		t.Error("leave did not resume")
	}
}

func TestInteractionClickExclusive(t *testing.T) {
	c := NewInteractionController(nil)
	a, b := &fakeLane{name: "a"}, &fakeLane{name: "b"}

	c.ClickToggle(a)
	if !a.paused || c.Exclusive() != a {
		t.Fatalf("a paused = %v, exclusive = %v", a.paused, c.Exclusive())
	}
	c.ClickToggle(b)
	if a.paused || !b.paused || c.Exclusive() != b {
		t.Errorf("after clicking b: a paused = %v, b paused = %v", a.paused, b.paused)
	}
	c.ClickToggle(b)
	if b.paused || c.Exclusive() != nil {
		t.Errorf("second click on b: paused = %v, exclusive = %v", b.paused, c.Exclusive())
	}
}

func TestInteractionHoverLeavesExclusiveAlone(t *testing.T) {
	c := NewInteractionController(nil)
	a := &fakeLane{name: "a"}
	c.ClickToggle(a)
	c.PointerLeave(a)
	if !a.paused {
		t.Error("leave resumed the exclusively paused target")
	}
	c.PointerEnter(nil)
	c.ClickToggle(nil)
}

func TestInteractionRelease(t *testing.T) {
	c := NewInteractionController(nil)
	a := &fakeLane{name: "a"}
	c.ClickToggle(a)
	c.Release(a)
	if c.Exclusive() != nil {
		t.Error("Release kept the exclusive pause")
	}
	if !a.paused {
		t.Error("Release resumed the target")
	}
}

func TestInteractionBind(t *testing.T) {
	c := NewInteractionController(nil)
	el := NewBox("lane", 0, 0, 100, 100)
	prevClicks := 0
	el.OnClick = func(ClickContext) { prevClicks++ }
	a := &fakeLane{name: "a"}

	b := c.Bind(el, a, InteractClick)
	if !b.Active() || !el.Interactable {
		t.Fatal("binding not active")
	}
	el.OnClick(ClickContext{})
	if !a.paused || prevClicks != 0 {
		t.Errorf("click: paused = %v, previous handler calls = %d", a.paused, prevClicks)
	}

	b.Remove()
	b.Remove()
	if b.Active() || el.Interactable {
		t.Error("Remove left the binding wired")
	}
	if c.Exclusive() != nil {
		t.Error("Remove kept the exclusive pause")
	}
	el.OnClick(ClickContext{})
	if prevClicks != 1 {
		t.Errorf("previous OnClick not restored")
	}
}

func TestInteractionBindHover(t *testing.T) {
	c := NewInteractionController(nil)
	el := NewBox("lane", 0, 0, 100, 100)
	a := &fakeLane{name: "a"}
	c.Bind(el, a, InteractHover)
	el.OnPointerEnter(PointerContext{})
	if !a.paused {
		t.Error("hover enter did not pause")
	}
	el.OnPointerLeave(PointerContext{})
	if a.paused {
		t.Error("hover leave did not resume")
	}
	if el.OnClick != nil {
		t.Error("hover binding set OnClick")
	}
}

func TestInteractionBindNone(t *testing.T) {
	c := NewInteractionController(nil)
	el := NewBox("lane", 0, 0, 100, 100)
	b := c.Bind(el, &fakeLane{}, InteractNone)
	if b.Active() || el.Interactable {
		t.Error("InteractNone wired the element")
	}
	var nilBinding *Binding
	nilBinding.Remove()
}

func TestInteractionOnStage(t *testing.T) {
	s := newTestStage()
	sched := s.Scheduler()
	items := laneItems(100, 100, 100)
	col := NewBox("column", 0, 0, 200, 300)
	for _, it := range items {
		col.AddChild(it.Element)
	}
	s.Root().AddChild(col)
	lane, err := NewLoopLane(sched, LaneConfig{SpeedPxPerSecond: 50}, items)
	if err != nil {
		t.Fatal(err)
	}
	s.Interaction().Bind(col, lane, InteractClick)
	s.Advance(frameDt) // commit transforms before hit testing

	s.InjectClick(50, 50)
	s.Advance(frameDt) // press
	s.Advance(frameDt) // release fires the click
	if !lane.Paused() {
		t.Fatal("click on the column did not pause the lane")
	}
	at := lane.Playhead()
	s.Advance(frameDt)
	if lane.Playhead() != at {
		t.Error("paused lane advanced")
	}
}

func TestParseInteractionMode(t *testing.T) {
	tests := []struct {
		in   string
		want InteractionMode
		err  bool
	}{
		{"none", InteractNone, false},
		{"hover", InteractHover, false},
		{"click", InteractClick, false},
		{"", InteractNone, false},
		{"drag", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseInteractionMode(tt.in)
		if (err != nil) != tt.err {
			t.Errorf("ParseInteractionMode(%q) err = %v", tt.in, err)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("ParseInteractionMode(%q) err = %v, want ErrInvalidConfig", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseInteractionMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if InteractClick.String() != "click" {
		t.Errorf("String = %q", InteractClick.String())
	}
}
