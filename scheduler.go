package cadence

// Phase orders the per-frame callback chain. Every frame runs the phases in
// declaration order, after any pending boundary operations.
type Phase uint8

const (
	PhaseScroll   Phase = iota // ScrollState update
	PhaseTrigger               // trigger progress recompute
	PhaseTimeline              // timeline evaluation and pin compensation
	PhaseLoop                  // loop lane playhead advance
	PhaseCommit                // values committed to the render layer

	numPhases
)

var phaseNames = [numPhases]string{"scroll", "trigger", "timeline", "loop", "commit"}

func (p Phase) String() string {
	if p < numPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// FrameFunc is a per-frame callback. dt is the frame delta in seconds.
type FrameFunc func(dt float64)

type frameEntry struct {
	id uint32
	fn FrameFunc
}

// Scheduler is the single per-frame callback chain shared by every engine
// component of a Stage. It is constructed once per view and passed by
// reference; there is no package-level ticker.
//
// Scheduler is not safe for concurrent use. The engine is single-threaded.
type Scheduler struct {
	phases   [numPhases][]frameEntry
	boundary []func()
	running  []func() // reused buffer while boundary ops execute

	nextID     uint32
	inFrame    bool
	removed    bool
	frame      uint64
	now        float64
	generation uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// FrameHandle allows removing a registered per-frame callback.
type FrameHandle struct {
	id    uint32
	phase Phase
	s     *Scheduler
}

// Remove unregisters the callback. It takes effect immediately, also when
// called from inside a running frame. Calling it twice is a no-op.
func (h FrameHandle) Remove() {
	if h.s == nil || h.id == 0 {
		return
	}
	h.s.remove(h.phase, h.id)
}

// Active reports whether the callback is still registered.
func (h FrameHandle) Active() bool {
	if h.s == nil || h.id == 0 {
		return false
	}
	for _, e := range h.s.phases[h.phase] {
		if e.id == h.id && e.fn != nil {
			return true
		}
	}
	return false
}

// Add registers fn to run every frame in the given phase. Callbacks within a
// phase run in registration order.
func (s *Scheduler) Add(phase Phase, fn FrameFunc) FrameHandle {
	if phase >= numPhases {
		panic("cadence: unknown scheduler phase")
	}
	if fn == nil {
		panic("cadence: nil frame callback")
	}
	s.nextID++
	s.phases[phase] = append(s.phases[phase], frameEntry{id: s.nextID, fn: fn})
	return FrameHandle{id: s.nextID, phase: phase, s: s}
}

func (s *Scheduler) remove(phase Phase, id uint32) {
	entries := s.phases[phase]
	for i := range entries {
		if entries[i].id != id {
			continue
		}
		if s.inFrame {
			// Compacted at the end of the frame so the running loop keeps
			// valid indices.
			entries[i].fn = nil
			s.removed = true
			return
		}
		copy(entries[i:], entries[i+1:])
		entries[len(entries)-1] = frameEntry{}
		s.phases[phase] = entries[:len(entries)-1]
		return
	}
}

// Defer queues a boundary operation. Boundary operations run whole at the
// start of the next Tick, before the scroll phase, so a frame never observes
// partially updated geometry.
func (s *Scheduler) Defer(fn func()) {
	if fn == nil {
		return
	}
	s.boundary = append(s.boundary, fn)
}

// Invalidate bumps the geometry generation. Called by boundary operations
// that rebuild geometry.
func (s *Scheduler) Invalidate() {
	s.generation++
}

// Generation returns the current geometry generation.
func (s *Scheduler) Generation() uint64 {
	return s.generation
}

// InFrame reports whether a frame chain is currently executing.
func (s *Scheduler) InFrame() bool {
	return s.inFrame
}

// Frame returns the number of completed ticks.
func (s *Scheduler) Frame() uint64 {
	return s.frame
}

// Now returns the accumulated virtual time in seconds.
func (s *Scheduler) Now() float64 {
	return s.now
}

// Count returns the number of live callbacks in a phase.
func (s *Scheduler) Count(phase Phase) int {
	n := 0
	for _, e := range s.phases[phase] {
		if e.fn != nil {
			n++
		}
	}
	return n
}

// Tick runs one frame: pending boundary operations, then every phase in
// order. Boundary operations queued during the frame wait for the next Tick.
func (s *Scheduler) Tick(dt float64) {
	if s.inFrame {
		panic("cadence: re-entrant Scheduler.Tick")
	}
	if dt < 0 {
		dt = 0
	}

	if len(s.boundary) > 0 {
		s.running = append(s.running[:0], s.boundary...)
		clear(s.boundary)
		s.boundary = s.boundary[:0]
		for i, fn := range s.running {
			fn()
			s.running[i] = nil
		}
		s.running = s.running[:0]
	}

	s.inFrame = true
	s.now += dt
	for p := range s.phases {
		// Entries added while the phase runs start on the next frame.
		n := len(s.phases[p])
		for i := 0; i < n; i++ {
			if fn := s.phases[p][i].fn; fn != nil {
				fn(dt)
			}
		}
	}
	s.inFrame = false
	s.frame++

	if s.removed {
		s.compact()
	}
}

func (s *Scheduler) compact() {
	for p := range s.phases {
		entries := s.phases[p]
		j := 0
		for _, e := range entries {
			if e.fn != nil {
				entries[j] = e
				j++
			}
		}
		clear(entries[j:])
		s.phases[p] = entries[:j]
	}
	s.removed = false
}
