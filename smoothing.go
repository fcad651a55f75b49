package cadence

import (
	"fmt"
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/tanema/gween"
)

// SmoothMode selects how the smoothed scroll position follows the raw one.
type SmoothMode uint8

const (
	SmoothSpring SmoothMode = iota // critically damped spring
	SmoothLerp                     // exponential approach, frame-rate corrected
	SmoothNone                     // smoothed equals raw
)

var smoothModeNames = [...]string{"spring", "lerp", "none"}

func (m SmoothMode) String() string {
	if int(m) < len(smoothModeNames) {
		return smoothModeNames[m]
	}
	return "unknown"
}

// ParseSmoothMode maps "spring", "lerp" or "none" to a SmoothMode.
func ParseSmoothMode(s string) (SmoothMode, error) {
	for i, n := range smoothModeNames {
		if n == s {
			return SmoothMode(i), nil
		}
	}
	return 0, fmt.Errorf("smoothing mode %q: %w", s, ErrInvalidConfig)
}

// settleThreshold is the distance in pixels under which the smoothed
// position snaps to the raw position.
const settleThreshold = 0.01

// SmoothingConfig tunes a Smoother.
type SmoothingConfig struct {
	Mode SmoothMode

	// Lerp is the fraction of the remaining distance covered per 60 Hz
	// frame in SmoothLerp mode.
	Lerp float64

	// Frequency and Damping parameterise the spring in SmoothSpring mode.
	Frequency float64
	Damping   float64

	WheelMultiplier    float64
	TouchMultiplier    float64
	TrackpadMultiplier float64
}

// DefaultSmoothingConfig returns a spring that settles in roughly a third of
// a second with no overshoot.
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		Mode:               SmoothSpring,
		Lerp:               0.1,
		Frequency:          12,
		Damping:            1,
		WheelMultiplier:    1,
		TouchMultiplier:    1,
		TrackpadMultiplier: 1,
	}
}

// Validate reports whether the configuration is usable.
func (c SmoothingConfig) Validate() error {
	switch c.Mode {
	case SmoothLerp:
		if c.Lerp <= 0 || c.Lerp > 1 {
			return fmt.Errorf("smoothing lerp %v outside (0, 1]: %w", c.Lerp, ErrInvalidConfig)
		}
	case SmoothSpring:
		if c.Frequency <= 0 || c.Damping <= 0 {
			return fmt.Errorf("smoothing spring frequency %v damping %v: %w", c.Frequency, c.Damping, ErrInvalidConfig)
		}
	case SmoothNone:
	default:
		return fmt.Errorf("smoothing mode %d: %w", c.Mode, ErrInvalidConfig)
	}
	return nil
}

// ScrollState is the per-frame scroll snapshot. Raw is the input-accumulated
// target, Smoothed the position everything else reads. Velocity is in
// pixels per second.
type ScrollState struct {
	Raw       float64
	Smoothed  float64
	Velocity  float64
	Direction Direction
	Limit     float64
}

// Smoother is the single writer of ScrollState. With a scheduler it updates
// once per frame in PhaseScroll; without one it falls back to native
// positions, where every input lands immediately.
type Smoother struct {
	cfg   SmoothingConfig
	sched *Scheduler
	entry FrameHandle

	raw       float64
	smoothed  float64
	velocity  float64
	springVel float64
	direction Direction
	limit     float64

	spring   harmonica.Spring
	springDt float64

	tween       *gween.Tween
	tweenTarget float64

	stopped bool
	locks   int

	// OnScroll is called once per frame (or once per input in fallback
	// mode) with the new state.
	OnScroll func(ScrollState)
}

// NewSmoother creates a smoother. A nil scheduler selects the immediate
// fallback. An invalid cfg falls back to DefaultSmoothingConfig.
func NewSmoother(sched *Scheduler, cfg SmoothingConfig) *Smoother {
	if err := cfg.Validate(); err != nil {
		debugLogger.Warn("smoothing config rejected, using defaults", "err", err)
		cfg = DefaultSmoothingConfig()
	}
	s := &Smoother{
		cfg:   cfg,
		sched: sched,
		limit: math.Inf(1),
	}
	if sched != nil {
		s.entry = sched.Add(PhaseScroll, s.update)
	}
	return s
}

// Immediate reports whether the smoother runs in native fallback mode.
func (s *Smoother) Immediate() bool {
	return s.sched == nil
}

// State returns a copy of the current scroll state.
func (s *Smoother) State() ScrollState {
	return ScrollState{
		Raw:       s.raw,
		Smoothed:  s.smoothed,
		Velocity:  s.velocity,
		Direction: s.direction,
		Limit:     s.limit,
	}
}

// AddDelta feeds a raw input delta. Wheel, touch and trackpad deltas are
// scaled by their multipliers. Any running ScrollTo is cancelled.
func (s *Smoother) AddDelta(delta float64, source InputSource) {
	if s.stopped || delta == 0 {
		return
	}
	switch source {
	case InputTouch:
		delta *= s.cfg.TouchMultiplier
	case InputTrackpad:
		delta *= s.cfg.TrackpadMultiplier
	default:
		delta *= s.cfg.WheelMultiplier
	}
	s.tween = nil
	s.raw = clamp(s.raw+delta, 0, s.limit)
	if s.sched == nil {
		s.settleImmediate()
	}
}

// ScrollTo animates the position to target over duration seconds using a
// named curve. A non-positive duration (or fallback mode) jumps.
func (s *Smoother) ScrollTo(target, duration float64, easeName string) {
	target = clamp(target, 0, s.limit)
	if duration <= 0 || s.sched == nil {
		s.Jump(target)
		return
	}
	s.tween = gween.New(float32(s.smoothed), float32(target), float32(duration), gweenEase(easeName))
	s.tweenTarget = target
}

// Jump moves raw and smoothed positions to target at once, with zero
// velocity.
func (s *Smoother) Jump(target float64) {
	target = clamp(target, 0, s.limit)
	s.tween = nil
	prev := s.smoothed
	s.raw = target
	s.smoothed = target
	s.springVel = 0
	s.velocity = 0
	if d := directionOf(target - prev); d != DirectionNone {
		s.direction = d
	}
	if s.sched == nil && s.OnScroll != nil {
		s.OnScroll(s.State())
	}
}

// Scrolling reports whether a ScrollTo tween is running or the smoothed
// position has not yet reached raw.
func (s *Smoother) Scrolling() bool {
	return s.tween != nil || s.raw != s.smoothed
}

// Stop makes the smoother ignore input until Start.
func (s *Smoother) Stop() { s.stopped = true }

// Start resumes accepting input.
func (s *Smoother) Start() { s.stopped = false }

// Stopped reports whether input is ignored.
func (s *Smoother) Stopped() bool { return s.stopped }

// SetLimit clamps the raw position to [0, max]. A non-positive or infinite
// max removes the limit.
func (s *Smoother) SetLimit(max float64) {
	if max <= 0 || math.IsInf(max, 1) || math.IsNaN(max) {
		s.limit = math.Inf(1)
		return
	}
	s.limit = max
	s.raw = clamp(s.raw, 0, max)
	if s.sched == nil {
		s.smoothed = clamp(s.smoothed, 0, max)
	}
}

// Lock records that a pinned section is active. Locks are reference
// counted.
func (s *Smoother) Lock() { s.locks++ }

// Unlock releases one Lock.
func (s *Smoother) Unlock() {
	if s.locks > 0 {
		s.locks--
	}
}

// NativeScrollDisabled reports whether any pinned section holds a Lock.
func (s *Smoother) NativeScrollDisabled() bool { return s.locks > 0 }

// Dispose deregisters the per-frame entry. Idempotent.
func (s *Smoother) Dispose() {
	s.entry.Remove()
	s.entry = FrameHandle{}
}

func (s *Smoother) settleImmediate() {
	prev := s.smoothed
	s.smoothed = s.raw
	s.velocity = s.smoothed - prev
	if d := directionOf(s.velocity); d != DirectionNone {
		s.direction = d
	}
	if s.OnScroll != nil {
		s.OnScroll(s.State())
	}
}

func (s *Smoother) update(dt float64) {
	prev := s.smoothed

	switch {
	case s.tween != nil:
		v, done := s.tween.Update(float32(dt))
		if done {
			s.tween = nil
			s.raw = s.tweenTarget
			s.smoothed = s.tweenTarget
		} else {
			s.raw = clamp(float64(v), 0, s.limit)
			s.smoothed = s.raw
		}
		s.springVel = 0
	case dt <= 0:
	case s.cfg.Mode == SmoothNone:
		s.smoothed = s.raw
	case s.cfg.Mode == SmoothLerp:
		f := 1 - math.Pow(1-s.cfg.Lerp, dt*60)
		s.smoothed += (s.raw - s.smoothed) * f
	default:
		if dt != s.springDt {
			s.spring = harmonica.NewSpring(dt, s.cfg.Frequency, s.cfg.Damping)
			s.springDt = dt
		}
		s.smoothed, s.springVel = s.spring.Update(s.smoothed, s.springVel, s.raw)
	}

	if math.Abs(s.raw-s.smoothed) < settleThreshold && math.Abs(s.springVel) < settleThreshold*60 {
		s.smoothed = s.raw
		s.springVel = 0
	}

	delta := s.smoothed - prev
	if dt > 0 {
		s.velocity = delta / dt
	} else {
		s.velocity = 0
	}
	if d := directionOf(delta); d != DirectionNone {
		s.direction = d
	}
	if s.OnScroll != nil {
		s.OnScroll(s.State())
	}
}
