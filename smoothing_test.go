package cadence

import (
	"errors"
	"math"
	"testing"
)

const frameDt = 1.0 / 60

func tickN(s *Scheduler, n int) {
	for range n {
		s.Tick(frameDt)
	}
}

func TestSmootherConvergesAllModes(t *testing.T) {
	tests := []struct {
		name string
		mode SmoothMode
	}{
		{"spring", SmoothSpring},
		{"lerp", SmoothLerp},
		{"none", SmoothNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := NewScheduler()
			cfg := DefaultSmoothingConfig()
			cfg.Mode = tt.mode
			sm := NewSmoother(sched, cfg)
			sm.AddDelta(500, InputWheel)

			tickN(sched, 300)
			st := sm.State()
			if st.Smoothed != 500 || st.Raw != 500 {
				t.Errorf("state = %+v, want settled at 500", st)
			}
			if st.Velocity != 0 {
				t.Errorf("Velocity = %v, want 0 after settling", st.Velocity)
			}
			if st.Direction != DirectionForward {
				t.Errorf("Direction = %v, want forward", st.Direction)
			}
			if sm.Scrolling() {
				t.Error("Scrolling() = true after settling")
			}
		})
	}
}

func TestSmootherSpringMonotonic(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	sm.AddDelta(1000, InputWheel)
	prev := 0.0
	for range 120 {
		sched.Tick(frameDt)
		v := sm.State().Smoothed
		if v < prev-1e-9 {
			t.Fatalf("critically damped spring moved backward: %v -> %v", prev, v)
		}
		if v > 1000+1e-9 {
			t.Fatalf("critically damped spring overshot: %v", v)
		}
		prev = v
	}
}

func TestSmootherOneUpdatePerFrame(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	calls := 0
	sm.OnScroll = func(ScrollState) { calls++ }
	sm.AddDelta(10, InputWheel)
	sm.AddDelta(10, InputWheel)
	sm.AddDelta(10, InputWheel)
	if calls != 0 {
		t.Fatalf("OnScroll ran before the frame: %d", calls)
	}
	sched.Tick(frameDt)
	if calls != 1 {
		t.Errorf("OnScroll calls = %d, want 1", calls)
	}
	if sm.State().Raw != 30 {
		t.Errorf("Raw = %v, want 30", sm.State().Raw)
	}
}

func TestSmootherFallbackWithoutScheduler(t *testing.T) {
	sm := NewSmoother(nil, DefaultSmoothingConfig())
	if !sm.Immediate() {
		t.Fatal("Immediate() = false with nil scheduler")
	}
	var got []ScrollState
	sm.OnScroll = func(st ScrollState) { got = append(got, st) }

	sm.AddDelta(120, InputWheel)
	st := sm.State()
	if st.Smoothed != 120 || st.Raw != 120 {
		t.Errorf("state = %+v, want raw = smoothed = 120", st)
	}
	if st.Velocity != 120 {
		t.Errorf("Velocity = %v, want last delta 120", st.Velocity)
	}
	sm.ScrollTo(40, 1, "power2.out")
	if sm.State().Smoothed != 40 {
		t.Errorf("ScrollTo in fallback should jump, got %v", sm.State().Smoothed)
	}
	if len(got) != 2 {
		t.Errorf("OnScroll calls = %d, want 2", len(got))
	}
}

func TestSmootherMultipliers(t *testing.T) {
	cfg := DefaultSmoothingConfig()
	cfg.WheelMultiplier = 2
	cfg.TouchMultiplier = 3
	cfg.TrackpadMultiplier = 0.5
	sm := NewSmoother(nil, cfg)
	sm.AddDelta(10, InputWheel)
	sm.AddDelta(10, InputTouch)
	sm.AddDelta(10, InputTrackpad)
	if got := sm.State().Raw; got != 55 {
		t.Errorf("Raw = %v, want 55", got)
	}
}

func TestSmootherLimit(t *testing.T) {
	sm := NewSmoother(nil, DefaultSmoothingConfig())
	sm.SetLimit(100)
	sm.AddDelta(500, InputWheel)
	if sm.State().Raw != 100 {
		t.Errorf("Raw = %v, want clamped to 100", sm.State().Raw)
	}
	sm.AddDelta(-500, InputWheel)
	if sm.State().Raw != 0 {
		t.Errorf("Raw = %v, want clamped to 0", sm.State().Raw)
	}
	sm.SetLimit(0)
	sm.AddDelta(500, InputWheel)
	if sm.State().Raw != 500 {
		t.Errorf("Raw = %v after removing the limit, want 500", sm.State().Raw)
	}
}

func TestSmootherStopStart(t *testing.T) {
	sm := NewSmoother(nil, DefaultSmoothingConfig())
	sm.Stop()
	sm.AddDelta(50, InputWheel)
	if sm.State().Raw != 0 || !sm.Stopped() {
		t.Errorf("stopped smoother accepted input: %+v", sm.State())
	}
	sm.Start()
	sm.AddDelta(50, InputWheel)
	if sm.State().Raw != 50 {
		t.Errorf("Raw = %v, want 50", sm.State().Raw)
	}
}

func TestSmootherScrollToTween(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	sm.ScrollTo(600, 0.5, "power2.inOut")
	if !sm.Scrolling() {
		t.Fatal("Scrolling() = false with a running tween")
	}
	tickN(sched, 15)
	mid := sm.State().Smoothed
	if mid <= 0 || mid >= 600 {
		t.Errorf("mid-tween position %v not strictly between 0 and 600", mid)
	}
	tickN(sched, 30)
	if sm.State().Smoothed != 600 {
		t.Errorf("Smoothed = %v, want 600 after the tween", sm.State().Smoothed)
	}
}

func TestSmootherAddDeltaCancelsTween(t *testing.T) {
	sched := NewScheduler()
	cfg := DefaultSmoothingConfig()
	cfg.Mode = SmoothNone
	sm := NewSmoother(sched, cfg)
	sm.ScrollTo(1000, 1, "")
	tickN(sched, 6)
	at := sm.State().Smoothed
	sm.AddDelta(10, InputWheel)
	tickN(sched, 60)
	if got := sm.State().Smoothed; math.Abs(got-(at+10)) > 1e-6 {
		t.Errorf("Smoothed = %v, want %v (tween cancelled)", got, at+10)
	}
}

func TestSmootherJump(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	sm.AddDelta(300, InputWheel)
	sched.Tick(frameDt)
	sm.Jump(0)
	st := sm.State()
	if st.Raw != 0 || st.Smoothed != 0 || st.Velocity != 0 {
		t.Errorf("state after Jump(0) = %+v", st)
	}
	if st.Direction != DirectionBackward {
		t.Errorf("Direction = %v, want backward", st.Direction)
	}
}

func TestSmootherLocks(t *testing.T) {
	sm := NewSmoother(nil, DefaultSmoothingConfig())
	sm.Lock()
	sm.Lock()
	sm.Unlock()
	if !sm.NativeScrollDisabled() {
		t.Error("one lock still held")
	}
	sm.Unlock()
	sm.Unlock()
	if sm.NativeScrollDisabled() {
		t.Error("locks released but native scroll still disabled")
	}
}

func TestSmootherDispose(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	sm.Dispose()
	sm.Dispose()
	if sched.Count(PhaseScroll) != 0 {
		t.Errorf("Count = %d after Dispose", sched.Count(PhaseScroll))
	}
}

func TestSmoothingConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*SmoothingConfig)
		ok   bool
	}{
		{"default", func(*SmoothingConfig) {}, true},
		{"lerp zero", func(c *SmoothingConfig) { c.Mode = SmoothLerp; c.Lerp = 0 }, false},
		{"lerp one", func(c *SmoothingConfig) { c.Mode = SmoothLerp; c.Lerp = 1 }, true},
		{"spring no frequency", func(c *SmoothingConfig) { c.Frequency = 0 }, false},
		{"none ignores spring", func(c *SmoothingConfig) { c.Mode = SmoothNone; c.Frequency = 0 }, true},
		{"unknown mode", func(c *SmoothingConfig) { c.Mode = 9 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSmoothingConfig()
			tt.mod(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestParseSmoothMode(t *testing.T) {
	for _, name := range []string{"spring", "lerp", "none"} {
		m, err := ParseSmoothMode(name)
		if err != nil || m.String() != name {
			t.Errorf("ParseSmoothMode(%q) = %v, %v", name, m, err)
		}
	}
	if _, err := ParseSmoothMode("bouncy"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("err = %v, want ErrInvalidConfig", err)
	}
}

func TestSmootherUpdateAllocs(t *testing.T) {
	sched := NewScheduler()
	sm := NewSmoother(sched, DefaultSmoothingConfig())
	allocs := testing.AllocsPerRun(100, func() {
		sm.AddDelta(1, InputWheel)
		sched.Tick(frameDt)
	})
	if allocs != 0 {
		t.Errorf("frame allocated %v times", allocs)
	}
}
