package cadence

import (
	"errors"
	"math"
	"slices"
	"testing"
)

// newTestRegistry returns a registry over an unsmoothed scroll so the
// smoothed position equals the raw one every frame.
func newTestRegistry() (*Scheduler, *Smoother, *TriggerRegistry) {
	sched := NewScheduler()
	cfg := DefaultSmoothingConfig()
	cfg.Mode = SmoothNone
	sm := NewSmoother(sched, cfg)
	reg := NewTriggerRegistry(sched, sm, nil)
	reg.SetViewport(800, 600)
	return sched, sm, reg
}

// scrollTo jumps to pos and runs one frame.
func scrollTo(sched *Scheduler, sm *Smoother, pos float64) {
	sm.Jump(pos)
	sched.Tick(frameDt)
}

type eventLog struct {
	events []string
}

func (l *eventLog) callbacks() TriggerCallbacks {
	return TriggerCallbacks{
		OnEnter:     func(*Trigger) { l.events = append(l.events, "enter") },
		OnLeave:     func(*Trigger) { l.events = append(l.events, "leave") },
		OnEnterBack: func(*Trigger) { l.events = append(l.events, "enterBack") },
		OnLeaveBack: func(*Trigger) { l.events = append(l.events, "leaveBack") },
		OnUpdate:    func(*Trigger, float64, Direction) { l.events = append(l.events, "update") },
	}
}

func (l *eventLog) take() []string {
	out := l.events
	l.events = nil
	return out
}

func TestTriggerScenario(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	el := NewBox("section", 0, 0, 800, 600)
	var log eventLog
	tr, err := reg.Register(TriggerConfig{ID: "hero", Start: 0, End: 1000, Element: el, Pin: true}, log.callbacks())
	if err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		pos      float64
		progress float64
		events   []string
	}{
		{0, 0, nil},
		{250, 0.25, []string{"enter", "update"}},
		{500, 0.5, []string{"update"}},
		{1000, 1, []string{"update", "leave"}},
		{1200, 1, nil},
		{1500, 1, nil},
	}
	for _, st := range steps {
		scrollTo(sched, sm, st.pos)
		if tr.Progress() != st.progress {
			t.Errorf("pos %v: progress = %v, want %v", st.pos, tr.Progress(), st.progress)
		}
		if got := log.take(); !slices.Equal(got, st.events) {
			t.Errorf("pos %v: events = %v, want %v", st.pos, got, st.events)
		}
	}

	// Reversing direction resumes updates.
	scrollTo(sched, sm, 900)
	if got := log.take(); !slices.Equal(got, []string{"enterBack", "update"}) {
		t.Errorf("reverse: events = %v", got)
	}
	if tr.Direction() != DirectionBackward {
		t.Errorf("Direction = %v, want backward", tr.Direction())
	}
	scrollTo(sched, sm, 0)
	if got := log.take(); !slices.Equal(got, []string{"update", "leaveBack"}) {
		t.Errorf("back to start: events = %v", got)
	}
}

func TestTriggerProgressMonotonicAndClamped(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	tr, err := reg.Register(TriggerConfig{Start: 100, End: 300}, TriggerCallbacks{})
	if err != nil {
		t.Fatal(err)
	}
	prev := -1.0
	for pos := -50.0; pos <= 500; pos += 7 {
		scrollTo(sched, sm, pos)
		p := tr.Progress()
		if p < 0 || p > 1 {
			t.Fatalf("pos %v: progress %v outside [0, 1]", pos, p)
		}
		if p < prev {
			t.Fatalf("pos %v: progress decreased %v -> %v", pos, prev, p)
		}
		prev = p
	}
}

func TestTriggerEnterSkippingRange(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	var log eventLog
	if _, err := reg.Register(TriggerConfig{Start: 100, End: 200}, log.callbacks()); err != nil {
		t.Fatal(err)
	}
	// A single frame jumping over the whole range still fires enter and
	// leave.
	scrollTo(sched, sm, 1000)
	if got := log.take(); !slices.Equal(got, []string{"enter", "update", "leave"}) {
		t.Errorf("events = %v", got)
	}
	scrollTo(sched, sm, 0)
	if got := log.take(); !slices.Equal(got, []string{"enterBack", "update", "leaveBack"}) {
		t.Errorf("events = %v", got)
	}
}

func TestTriggerDispatchOrder(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	var order []string
	sink := sinkFunc(func(e Event) {
		if e.Type == EventEnter {
			order = append(order, "sink")
		}
	})
	reg.SetEventSink(sink)
	tr, _ := reg.Register(TriggerConfig{Start: 0, End: 100}, TriggerCallbacks{
		OnEnter: func(*Trigger) { order = append(order, "callback") },
	})
	tr.On(EventEnter, func(Event) { order = append(order, "observer") })
	reg.OnEnter(func(e Event) {
		if e.TriggerID != tr.ID() {
			t.Errorf("TriggerID = %q", e.TriggerID)
		}
		order = append(order, "registry")
	})
	scrollTo(sched, sm, 50)
	want := []string{"callback", "observer", "registry", "sink"}
	if !slices.Equal(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

type sinkFunc func(Event)

func (f sinkFunc) EmitEvent(e Event) { f(e) }

func TestTriggerInvalidBoundary(t *testing.T) {
	_, _, reg := newTestRegistry()
	tests := []struct {
		name string
		cfg  TriggerConfig
		want error
	}{
		{"equal", TriggerConfig{Start: 100, End: 100}, ErrInvalidTriggerBoundary},
		{"reversed", TriggerConfig{Start: 200, End: 100}, ErrInvalidTriggerBoundary},
		{"negative scrub", TriggerConfig{Start: 0, End: 100, Scrub: -1}, ErrInvalidConfig},
		{"pin without element", TriggerConfig{Start: 0, End: 100, Pin: true}, ErrInvalidConfig},
		{"snap out of range", TriggerConfig{Start: 0, End: 100, Snap: SnapConfig{Mode: SnapPoints, Points: []float64{1.5}}}, ErrInvalidConfig},
		{"snap without points", TriggerConfig{Start: 0, End: 100, Snap: SnapConfig{Mode: SnapPoints}}, ErrInvalidConfig},
		{"position without element", TriggerConfig{StartPos: "top top", End: 100}, ErrInvalidTriggerBoundary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := reg.Register(tt.cfg, TriggerCallbacks{})
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if tr != nil {
				t.Error("invalid trigger returned")
			}
		})
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d, want 0", reg.Len())
	}
}

func TestTriggerAutoIDAndLookup(t *testing.T) {
	_, _, reg := newTestRegistry()
	a, _ := reg.Register(TriggerConfig{Start: 0, End: 1}, TriggerCallbacks{})
	b, _ := reg.Register(TriggerConfig{ID: "named", Start: 0, End: 1}, TriggerCallbacks{})
	if a.ID() != "trigger-1" {
		t.Errorf("auto ID = %q", a.ID())
	}
	if got, ok := reg.Lookup("named"); !ok || got != b {
		t.Error("Lookup(named) failed")
	}
	if _, ok := reg.Lookup("missing"); ok {
		t.Error("Lookup(missing) succeeded")
	}
}

func TestTriggerPinOffset(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	el := NewBox("pinned", 0, 1000, 800, 600)
	tr, err := reg.Register(TriggerConfig{Start: 1000, End: 1800, Element: el, Pin: true}, TriggerCallbacks{})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		pos, pin float64
		locked   bool
	}{
		{500, 0, false},
		{1000, 0, false},
		{1300, 300, true},
		{1800, 800, false},
		{2500, 800, false},
	}
	for _, tt := range tests {
		scrollTo(sched, sm, tt.pos)
		if _, y := el.PinOffset(); y != tt.pin {
			t.Errorf("pos %v: pin = %v, want %v", tt.pos, y, tt.pin)
		}
		if sm.NativeScrollDisabled() != tt.locked {
			t.Errorf("pos %v: locked = %v, want %v", tt.pos, sm.NativeScrollDisabled(), tt.locked)
		}
	}
	if !tr.Pinned() {
		t.Error("Pinned() = false")
	}
}

func TestTriggerDisposePinnedMidScrub(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	el := NewBox("pinned", 0, 0, 800, 600)
	calls := 0
	tr, err := reg.Register(TriggerConfig{Start: 0, End: 1000, Element: el, Pin: true, Scrub: 1}, TriggerCallbacks{
		OnUpdate: func(*Trigger, float64, Direction) { calls++ },
	})
	if err != nil {
		t.Fatal(err)
	}
	before := sched.Count(PhaseTrigger) + sched.Count(PhaseTimeline)
	scrollTo(sched, sm, 500)
	if tr.Progress() != 0.5 {
		t.Fatalf("progress = %v, want 0.5", tr.Progress())
	}

	tr.Dispose()
	tr.Dispose()
	sched.Tick(frameDt)

	after := sched.Count(PhaseTrigger) + sched.Count(PhaseTimeline)
	if before-after != 2 {
		t.Errorf("per-frame entries removed = %d, want 2", before-after)
	}
	if sm.NativeScrollDisabled() {
		t.Error("scroll lock leaked")
	}
	if x, y := el.PinOffset(); x != 0 || y != 0 {
		t.Errorf("pin offset leaked: (%v, %v)", x, y)
	}
	n := calls
	scrollTo(sched, sm, 700)
	if calls != n {
		t.Error("disposed trigger still receives updates")
	}
	if reg.Len() != 0 || !tr.Disposed() {
		t.Errorf("Len = %d, Disposed = %v", reg.Len(), tr.Disposed())
	}
}

func TestTriggerDisposeFromCallback(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	var log eventLog
	cb := log.callbacks()
	cb.OnEnter = func(tr *Trigger) {
		log.events = append(log.events, "enter")
		tr.Dispose()
	}
	if _, err := reg.Register(TriggerConfig{Start: 0, End: 100}, cb); err != nil {
		t.Fatal(err)
	}
	scrollTo(sched, sm, 50)
	if got := log.take(); !slices.Equal(got, []string{"enter"}) {
		t.Errorf("events = %v, want dispatch to stop after dispose", got)
	}
	if sm.NativeScrollDisabled() {
		t.Error("scroll lock leaked")
	}
}

func TestTriggerScrubLag(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	tr, _ := reg.Register(TriggerConfig{Start: 0, End: 1000, Scrub: 0.5}, TriggerCallbacks{})
	scrollTo(sched, sm, 1000)
	if tr.Progress() != 1 {
		t.Fatalf("progress = %v, want 1", tr.Progress())
	}
	first := tr.ScrubProgress()
	if first <= 0 || first >= 1 {
		t.Errorf("scrub progress after one frame = %v, want lagging", first)
	}
	// exp(-dt/scrub) after one frame
	want := 1 - math.Exp(-frameDt/0.5)
	if math.Abs(first-want) > 1e-9 {
		t.Errorf("scrub progress = %v, want %v", first, want)
	}
	tickN(sched, 600)
	if tr.ScrubProgress() != 1 {
		t.Errorf("scrub progress = %v, want snapped to 1", tr.ScrubProgress())
	}
}

func TestTriggerPositions(t *testing.T) {
	_, _, reg := newTestRegistry()
	el := NewBox("section", 0, 2000, 800, 400)
	tests := []struct {
		start, end string
		wantStart  float64
		wantEnd    float64
	}{
		{"top top", "bottom top", 2000, 2400},
		{"top bottom", "bottom top", 1400, 2400},
		{"top 80%", "+=500", 1520, 2020},
		{"center center", "+=100", 1900, 2000},
		{"top", "bottom", 2000, 2400},
	}
	for _, tt := range tests {
		t.Run(tt.start+"/"+tt.end, func(t *testing.T) {
			tr, err := reg.Register(TriggerConfig{Element: el, StartPos: tt.start, EndPos: tt.end}, TriggerCallbacks{})
			if err != nil {
				t.Fatal(err)
			}
			defer tr.Dispose()
			if tr.Start() != tt.wantStart || tr.End() != tt.wantEnd {
				t.Errorf("boundaries = %v..%v, want %v..%v", tr.Start(), tr.End(), tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTriggerRecompute(t *testing.T) {
	_, _, reg := newTestRegistry()
	el := NewBox("section", 0, 2000, 800, 400)
	tr, err := reg.Register(TriggerConfig{Element: el, StartPos: "top bottom", EndPos: "bottom top"}, TriggerCallbacks{})
	if err != nil {
		t.Fatal(err)
	}
	abs, _ := reg.Register(TriggerConfig{Start: 10, End: 20}, TriggerCallbacks{})

	reg.Recompute(Metrics{Width: 1024, Height: 1000})
	if tr.Start() != 1000 || tr.End() != 2400 {
		t.Errorf("boundaries = %v..%v, want 1000..2400", tr.Start(), tr.End())
	}
	if abs.Start() != 10 || abs.End() != 20 {
		t.Error("absolute trigger changed on recompute")
	}

	// An element collapsed to zero height makes start == end; the old
	// boundaries are kept.
	el.Height = 0
	reg.Recompute(Metrics{Width: 1024, Height: 0})
	if tr.Start() != 1000 || tr.End() != 2400 {
		t.Errorf("invalid recompute replaced boundaries: %v..%v", tr.Start(), tr.End())
	}
}

func TestTriggerSnapPoints(t *testing.T) {
	sched := NewScheduler()
	cfg := DefaultSmoothingConfig()
	cfg.Mode = SmoothNone
	sm := NewSmoother(sched, cfg)
	reg := NewTriggerRegistry(sched, sm, nil)
	tr, err := reg.Register(TriggerConfig{
		Start: 0, End: 1000,
		Snap: SnapConfig{Mode: SnapPoints, Points: []float64{1, 0, 0.5}, Duration: 0.2},
	}, TriggerCallbacks{})
	if err != nil {
		t.Fatal(err)
	}
	scrollTo(sched, sm, 420)
	tickN(sched, 60)
	if tr.Progress() != 0.5 {
		t.Errorf("progress = %v, want snapped to 0.5", tr.Progress())
	}
}

func TestTriggerDisposeAll(t *testing.T) {
	sched, _, reg := newTestRegistry()
	for range 5 {
		reg.Register(TriggerConfig{Start: 0, End: 1}, TriggerCallbacks{})
	}
	reg.DisposeAll()
	if reg.Len() != 0 || sched.Count(PhaseTrigger) != 0 {
		t.Errorf("Len = %d, Count = %d", reg.Len(), sched.Count(PhaseTrigger))
	}
}

func TestTriggerObserverRemove(t *testing.T) {
	sched, sm, reg := newTestRegistry()
	tr, _ := reg.Register(TriggerConfig{Start: 0, End: 100}, TriggerCallbacks{})
	calls := 0
	h := tr.On(EventUpdate, func(Event) { calls++ })
	scrollTo(sched, sm, 10)
	h.Remove()
	h.Remove()
	scrollTo(sched, sm, 20)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
