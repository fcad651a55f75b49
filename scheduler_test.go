package cadence

import (
	"slices"
	"testing"
)

func TestSchedulerPhaseOrder(t *testing.T) {
	s := NewScheduler()
	var got []string
	// Registered out of order on purpose.
	s.Add(PhaseCommit, func(float64) { got = append(got, "commit") })
	s.Add(PhaseLoop, func(float64) { got = append(got, "loop") })
	s.Add(PhaseScroll, func(float64) { got = append(got, "scroll") })
	s.Add(PhaseTimeline, func(float64) { got = append(got, "timeline") })
	s.Add(PhaseTrigger, func(float64) { got = append(got, "trigger") })
	s.Defer(func() { got = append(got, "boundary") })

	s.Tick(1.0 / 60)

	want := []string{"boundary", "scroll", "trigger", "timeline", "loop", "commit"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestSchedulerRegistrationOrderWithinPhase(t *testing.T) {
	s := NewScheduler()
	var got []int
	for i := range 4 {
		s.Add(PhaseTimeline, func(float64) { got = append(got, i) })
	}
	s.Tick(0)
	if !slices.Equal(got, []int{0, 1, 2, 3}) {
		t.Errorf("got %v", got)
	}
}

func TestSchedulerRemoveDuringFrame(t *testing.T) {
	s := NewScheduler()
	calls := 0
	var victim FrameHandle
	s.Add(PhaseTrigger, func(float64) { victim.Remove() })
	victim = s.Add(PhaseTimeline, func(float64) { calls++ })

	s.Tick(0.016)
	if calls != 0 {
		t.Errorf("removed entry ran %d times in the removing frame", calls)
	}
	if victim.Active() {
		t.Error("handle still active after Remove")
	}
	if s.Count(PhaseTimeline) != 0 {
		t.Errorf("Count = %d, want 0", s.Count(PhaseTimeline))
	}
	s.Tick(0.016)
	if calls != 0 {
		t.Errorf("removed entry ran in a later frame")
	}
}

func TestSchedulerRemoveIdempotent(t *testing.T) {
	s := NewScheduler()
	h := s.Add(PhaseLoop, func(float64) {})
	keep := s.Add(PhaseLoop, func(float64) {})
	h.Remove()
	h.Remove()
	FrameHandle{}.Remove()
	if s.Count(PhaseLoop) != 1 || !keep.Active() {
		t.Errorf("Count = %d, keep active = %v", s.Count(PhaseLoop), keep.Active())
	}
}

func TestSchedulerAddDuringFrameStartsNextFrame(t *testing.T) {
	s := NewScheduler()
	calls := 0
	added := false
	s.Add(PhaseScroll, func(float64) {
		if !added {
			added = true
			s.Add(PhaseScroll, func(float64) { calls++ })
		}
	})
	s.Tick(0)
	if calls != 0 {
		t.Errorf("entry added mid-phase ran in the same frame")
	}
	s.Tick(0)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSchedulerDeferDuringFrameRunsNextTick(t *testing.T) {
	s := NewScheduler()
	ran := 0
	s.Add(PhaseLoop, func(float64) {
		if s.Frame() == 0 {
			s.Defer(func() { ran++ })
		}
	})
	s.Tick(0)
	if ran != 0 {
		t.Fatal("deferred op ran inside the frame that queued it")
	}
	s.Tick(0)
	if ran != 1 {
		t.Errorf("ran = %d, want 1", ran)
	}
	s.Tick(0)
	if ran != 1 {
		t.Errorf("deferred op ran again")
	}
}

func TestSchedulerBoundaryOpNotInFrame(t *testing.T) {
	s := NewScheduler()
	var inFrame bool
	s.Defer(func() { inFrame = s.InFrame() })
	s.Tick(0)
	if inFrame {
		t.Error("boundary op observed InFrame() == true")
	}
}

func TestSchedulerClock(t *testing.T) {
	s := NewScheduler()
	s.Tick(0.5)
	s.Tick(0.25)
	s.Tick(-1)
	if s.Now() != 0.75 {
		t.Errorf("Now = %v, want 0.75", s.Now())
	}
	if s.Frame() != 3 {
		t.Errorf("Frame = %d, want 3", s.Frame())
	}
}

func TestSchedulerGeneration(t *testing.T) {
	s := NewScheduler()
	g := s.Generation()
	s.Invalidate()
	if s.Generation() != g+1 {
		t.Errorf("Generation = %d, want %d", s.Generation(), g+1)
	}
}

func TestSchedulerReentrantTickPanics(t *testing.T) {
	s := NewScheduler()
	s.Add(PhaseCommit, func(float64) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on re-entrant Tick")
			}
		}()
		s.Tick(0)
	})
	s.Tick(0)
}

func TestPhaseString(t *testing.T) {
	if PhaseTimeline.String() != "timeline" {
		t.Errorf("got %q", PhaseTimeline.String())
	}
	if Phase(99).String() != "unknown" {
		t.Errorf("got %q", Phase(99).String())
	}
}

func TestSchedulerTickAllocs(t *testing.T) {
	s := NewScheduler()
	for p := range numPhases {
		s.Add(p, func(float64) {})
	}
	allocs := testing.AllocsPerRun(100, func() { s.Tick(1.0 / 60) })
	if allocs != 0 {
		t.Errorf("Tick allocated %v times per run", allocs)
	}
}
