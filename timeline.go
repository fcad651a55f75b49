package cadence

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Driver selects what moves a timeline's playhead.
type Driver uint8

const (
	DriverTime     Driver = iota // playhead advances with frame time while playing
	DriverProgress               // playhead follows a trigger's progress
)

// ParseDriver maps "time" or "progress" to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch s {
	case "", "time":
		return DriverTime, nil
	case "progress", "scrub":
		return DriverProgress, nil
	}
	return 0, fmt.Errorf("driver %q: %w", s, ErrInvalidConfig)
}

// TimelineConfig configures a timeline.
type TimelineConfig struct {
	// Delay in seconds before the first forward play.
	Delay  float64
	Driver Driver
	// Repeat is the number of extra iterations; -1 repeats forever.
	Repeat int
	// Paused builds the timeline without starting playback.
	Paused bool
}

// StaggerFrom selects the element a stagger counts from.
type StaggerFrom uint8

const (
	StaggerStart StaggerFrom = iota // first target starts first
	StaggerEnd                      // last target starts first
)

// Stagger spreads the start of a tween across its targets.
type Stagger struct {
	Each float64
	From StaggerFrom
}

// delay returns the stagger offset of target i out of n.
func (s Stagger) delay(i, n int) float64 {
	if s.From == StaggerEnd {
		return float64(n-1-i) * s.Each
	}
	return float64(i) * s.Each
}

// TweenOptions configures one builder step.
type TweenOptions struct {
	Duration float64
	Ease     string
	Stagger  Stagger
	// Position places the step: "" or ">" after the previous step, "<" at
	// the previous step's start, "<0.2" relative to that start, "+=0.2" or
	// "-=0.2" relative to the end of the timeline, or an absolute time.
	Position string
}

// Props maps properties to target values.
type Props map[Property]float64

// sortedKeys returns the properties in a stable order.
func (p Props) sortedKeys() []Property {
	keys := make([]Property, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// track animates one property of one element over [start, start+dur].
type track struct {
	el      *Element
	prop    Property
	from    float64
	to      float64
	hasFrom bool
	ease    Ease
	start   float64
	dur     float64
	seq     int
}

func (tr *track) value(playhead float64) float64 {
	if tr.dur <= 0 {
		return tr.to
	}
	local := clamp01((playhead - tr.start) / tr.dur)
	return tr.from + (tr.to-tr.from)*tr.ease(local)
}

type channelKey struct {
	el   *Element
	prop Property
}

// channel is every track writing the same (element, property), ordered by
// start time then insertion.
type channel struct {
	el     *Element
	prop   Property
	tracks []*track
}

// valueAt evaluates the channel: the latest track that has started wins,
// otherwise the earliest track's from value holds.
func (c *channel) valueAt(playhead float64) float64 {
	for i := len(c.tracks) - 1; i >= 0; i-- {
		if tr := c.tracks[i]; tr.start <= playhead {
			return tr.value(playhead)
		}
	}
	return c.tracks[0].from
}

// TimelineBuilder assembles a Timeline. Builder methods record the first
// error and make Build return it.
type TimelineBuilder struct {
	cfg       TimelineConfig
	tracks    []*track
	cursor    float64
	lastStart float64
	end       float64
	atSet     bool
	atTime    float64
	err       error
}

// NewTimeline starts building a timeline.
func NewTimeline(cfg TimelineConfig) *TimelineBuilder {
	b := &TimelineBuilder{cfg: cfg}
	if cfg.Delay < 0 || math.IsNaN(cfg.Delay) {
		b.err = fmt.Errorf("timeline delay %v: %w", cfg.Delay, ErrInvalidDuration)
	}
	if cfg.Repeat < -1 {
		b.err = fmt.Errorf("timeline repeat %d: %w", cfg.Repeat, ErrInvalidConfig)
	}
	return b
}

// At places the next step at an absolute time, overriding its Position.
func (b *TimelineBuilder) At(t float64) *TimelineBuilder {
	if t < 0 || math.IsNaN(t) {
		b.fail(fmt.Errorf("timeline position %v: %w", t, ErrInvalidDuration))
		return b
	}
	b.atSet = true
	b.atTime = t
	return b
}

// To animates targets from their current values to props.
func (b *TimelineBuilder) To(targets []*Element, props Props, opts TweenOptions) *TimelineBuilder {
	return b.add(targets, nil, props, opts)
}

// FromTo animates targets from one set of values to another.
func (b *TimelineBuilder) FromTo(targets []*Element, from, to Props, opts TweenOptions) *TimelineBuilder {
	if from == nil {
		from = Props{}
	}
	return b.add(targets, from, to, opts)
}

// Set places an instantaneous change at time at.
func (b *TimelineBuilder) Set(targets []*Element, props Props, at float64) *TimelineBuilder {
	b.At(at)
	return b.add(targets, nil, props, TweenOptions{})
}

func (b *TimelineBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

func (b *TimelineBuilder) add(targets []*Element, from, to Props, opts TweenOptions) *TimelineBuilder {
	if b.err != nil {
		return b
	}
	if opts.Duration < 0 || math.IsNaN(opts.Duration) {
		b.fail(fmt.Errorf("tween duration %v: %w", opts.Duration, ErrInvalidDuration))
		return b
	}
	if opts.Stagger.Each < 0 || math.IsNaN(opts.Stagger.Each) {
		b.fail(fmt.Errorf("stagger each %v: %w", opts.Stagger.Each, ErrInvalidDuration))
		return b
	}
	fn, err := LookupEase(opts.Ease)
	if err != nil {
		b.fail(err)
		return b
	}

	var start float64
	if b.atSet {
		start = b.atTime
		b.atSet = false
	} else if start, err = b.place(opts.Position); err != nil {
		b.fail(err)
		return b
	}

	keys := to.sortedKeys()
	for i, el := range targets {
		if el == nil {
			continue
		}
		s := start + opts.Stagger.delay(i, len(targets))
		for _, p := range keys {
			tr := &track{
				el:    el,
				prop:  p,
				to:    to[p],
				ease:  fn,
				start: s,
				dur:   opts.Duration,
				seq:   len(b.tracks),
			}
			if v, ok := from[p]; ok {
				tr.from = v
				tr.hasFrom = true
			}
			b.tracks = append(b.tracks, tr)
		}
		if e := s + opts.Duration; e > b.end {
			b.end = e
		}
	}
	b.lastStart = start
	b.cursor = b.end
	return b
}

// place resolves a position string to a start time.
func (b *TimelineBuilder) place(pos string) (float64, error) {
	pos = strings.TrimSpace(pos)
	var t float64
	switch {
	case pos == "" || pos == ">":
		return b.cursor, nil
	case strings.HasPrefix(pos, "<"):
		t = b.lastStart
		if rest := pos[1:]; rest != "" {
			v, err := strconv.ParseFloat(rest, 64)
			if err != nil {
				return 0, fmt.Errorf("timeline position %q: %w", pos, ErrInvalidConfig)
			}
			t += v
		}
	case strings.HasPrefix(pos, "+=") || strings.HasPrefix(pos, "-="):
		v, err := strconv.ParseFloat(pos[2:], 64)
		if err != nil {
			return 0, fmt.Errorf("timeline position %q: %w", pos, ErrInvalidConfig)
		}
		if pos[0] == '-' {
			v = -v
		}
		t = b.end + v
	default:
		v, err := strconv.ParseFloat(pos, 64)
		if err != nil {
			return 0, fmt.Errorf("timeline position %q: %w", pos, ErrInvalidConfig)
		}
		t = v
	}
	if t < 0 {
		t = 0
	}
	return t, nil
}

// Build finishes the timeline, applies its state at playhead 0 to every
// target and registers it with sched. The builder must not be reused.
func (b *TimelineBuilder) Build(sched *Scheduler) (*Timeline, error) {
	return b.build(sched, PhaseTimeline)
}

func (b *TimelineBuilder) build(sched *Scheduler, phase Phase) (*Timeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	if sched == nil {
		return nil, fmt.Errorf("build timeline: nil scheduler: %w", ErrInvalidConfig)
	}

	// Group tracks into channels ordered by start time, insertion breaking
	// ties, then chain implicit from values along each channel.
	byKey := make(map[channelKey]*channel)
	var channels []*channel
	for _, tr := range b.tracks {
		k := channelKey{tr.el, tr.prop}
		c, ok := byKey[k]
		if !ok {
			c = &channel{el: tr.el, prop: tr.prop}
			byKey[k] = c
			channels = append(channels, c)
		}
		c.tracks = append(c.tracks, tr)
	}
	for _, c := range channels {
		slices.SortStableFunc(c.tracks, func(x, y *track) int {
			switch {
			case x.start < y.start:
				return -1
			case x.start > y.start:
				return 1
			}
			return x.seq - y.seq
		})
		prev := c.el.Get(c.prop)
		for _, tr := range c.tracks {
			if !tr.hasFrom {
				tr.from = prev
			}
			prev = tr.to
		}
	}

	tl := &Timeline{
		cfg:       b.cfg,
		sched:     sched,
		channels:  channels,
		duration:  b.end,
		delayLeft: b.cfg.Delay,
		playing:   !b.cfg.Paused && b.cfg.Driver == DriverTime,
		phase:     phase,
	}
	tl.evaluate()
	tl.entry = sched.Add(phase, tl.update)
	return tl, nil
}

// Timeline is a built, registered segment. Evaluation is a pure function of
// the playhead, so reversing retraces the forward curve exactly.
type Timeline struct {
	cfg      TimelineConfig
	sched    *Scheduler
	channels []*channel
	duration float64
	phase    Phase

	// time is the elapsed time over all iterations. With infinite repeat it
	// is kept in [0, duration).
	time      float64
	delayLeft float64
	playing   bool
	reversed  bool
	dirty     bool

	scrub    *Trigger
	toggles  []CallbackHandle
	entry    FrameHandle
	disposed bool

	OnUpdate          func(tl *Timeline)
	OnComplete        func(tl *Timeline)
	OnReverseComplete func(tl *Timeline)
}

// Duration returns the length of one iteration in seconds.
func (tl *Timeline) Duration() float64 { return tl.duration }

// TotalDuration returns the length of all iterations, or +Inf when repeating
// forever.
func (tl *Timeline) TotalDuration() float64 {
	if tl.cfg.Repeat < 0 {
		return math.Inf(1)
	}
	return tl.duration * float64(tl.cfg.Repeat+1)
}

// Time returns the elapsed time over all iterations.
func (tl *Timeline) Time() float64 { return tl.time }

// Playhead returns the position within the current iteration.
func (tl *Timeline) Playhead() float64 {
	if tl.duration <= 0 {
		return 0
	}
	if tl.cfg.Repeat < 0 {
		return tl.time
	}
	if tl.time >= tl.TotalDuration() {
		return tl.duration
	}
	return math.Mod(tl.time, tl.duration)
}

// Progress returns the playhead as a fraction of one iteration.
func (tl *Timeline) Progress() float64 {
	if tl.duration <= 0 {
		return 1
	}
	return tl.Playhead() / tl.duration
}

// Playing reports whether the playhead is moving.
func (tl *Timeline) Playing() bool { return tl.playing }

// Paused reports whether the playhead is stopped.
func (tl *Timeline) Paused() bool { return !tl.playing }

// Reversed reports whether the timeline plays backward.
func (tl *Timeline) Reversed() bool { return tl.reversed }

// Disposed reports whether the timeline has been disposed.
func (tl *Timeline) Disposed() bool { return tl.disposed }

// Play plays forward from the current playhead.
func (tl *Timeline) Play() {
	tl.reversed = false
	tl.playing = true
}

// Reverse plays backward from the current playhead. Calling it repeatedly
// does not restart or jump.
func (tl *Timeline) Reverse() {
	tl.reversed = true
	tl.playing = true
	tl.delayLeft = 0
}

// Pause stops the playhead.
func (tl *Timeline) Pause() { tl.playing = false }

// Resume continues in the current direction.
func (tl *Timeline) Resume() { tl.playing = true }

// Toggle pauses a playing timeline and resumes a paused one.
func (tl *Timeline) Toggle() {
	if tl.playing {
		tl.Pause()
	} else {
		tl.Resume()
	}
}

// Restart jumps to the start and plays forward. The initial delay is not
// repeated.
func (tl *Timeline) Restart() {
	tl.time = 0
	tl.delayLeft = 0
	tl.reversed = false
	tl.playing = true
	tl.evaluate()
}

// Seek moves the playhead to t seconds and applies the state immediately.
func (tl *Timeline) Seek(t float64) {
	tl.time = tl.wrap(t)
	tl.evaluate()
}

// Reset pauses at the start.
func (tl *Timeline) Reset() {
	tl.playing = false
	tl.reversed = false
	tl.Seek(0)
}

// Complete pauses at the end.
func (tl *Timeline) Complete() {
	tl.playing = false
	if tl.cfg.Repeat < 0 {
		tl.Seek(0)
		return
	}
	tl.Seek(tl.TotalDuration())
}

// Scrub drives the playhead from t's progress. The timeline switches to
// DriverProgress.
func (tl *Timeline) Scrub(t *Trigger) {
	tl.cfg.Driver = DriverProgress
	tl.scrub = t
	tl.playing = false
	tl.dirty = true
}

// BindToggle runs actions on t's lifecycle events.
func (tl *Timeline) BindToggle(t *Trigger, actions ToggleActions) {
	bind := func(ev EventType, a ToggleAction) {
		if a == ToggleNone {
			return
		}
		tl.toggles = append(tl.toggles, t.On(ev, func(Event) { tl.apply(a) }))
	}
	bind(EventEnter, actions.OnEnter)
	bind(EventLeave, actions.OnLeave)
	bind(EventEnterBack, actions.OnEnterBack)
	bind(EventLeaveBack, actions.OnLeaveBack)
}

func (tl *Timeline) apply(a ToggleAction) {
	if tl.disposed {
		return
	}
	switch a {
	case TogglePlay:
		tl.Play()
	case TogglePause:
		tl.Pause()
	case ToggleResume:
		tl.Resume()
	case ToggleReverse:
		tl.Reverse()
	case ToggleRestart:
		tl.Restart()
	case ToggleReset:
		tl.Reset()
	case ToggleComplete:
		tl.Complete()
	}
}

// Dispose deregisters the timeline and its toggle bindings. Idempotent.
func (tl *Timeline) Dispose() {
	if tl.disposed {
		return
	}
	tl.disposed = true
	tl.playing = false
	tl.entry.Remove()
	for _, h := range tl.toggles {
		h.Remove()
	}
	tl.toggles = nil
	tl.scrub = nil
}

// wrap maps a time to the valid range: modulo the duration when repeating
// forever, clamped otherwise.
func (tl *Timeline) wrap(t float64) float64 {
	if tl.cfg.Repeat < 0 {
		if tl.duration <= 0 {
			return 0
		}
		t = math.Mod(t, tl.duration)
		if t < 0 {
			t += tl.duration
		}
		// A tiny negative remainder can round up to the duration itself.
		if t >= tl.duration {
			t = 0
		}
		return t
	}
	return clamp(t, 0, tl.TotalDuration())
}

// advance moves the playhead by dt in the current direction.
func (tl *Timeline) advance(dt float64) {
	if !tl.playing || dt <= 0 {
		return
	}
	if !tl.reversed && tl.delayLeft > 0 {
		if dt <= tl.delayLeft {
			tl.delayLeft -= dt
			return
		}
		dt -= tl.delayLeft
		tl.delayLeft = 0
	}

	step := dt
	if tl.reversed {
		step = -dt
	}
	prev := tl.time
	tl.time = tl.wrap(tl.time + step)
	tl.dirty = tl.dirty || tl.time != prev

	if tl.cfg.Repeat < 0 {
		return
	}
	total := tl.TotalDuration()
	switch {
	case !tl.reversed && tl.time >= total:
		tl.playing = false
		if prev < total {
			tl.evaluate()
			if tl.OnComplete != nil {
				tl.OnComplete(tl)
			}
		}
	case tl.reversed && tl.time <= 0:
		tl.playing = false
		if prev > 0 {
			tl.evaluate()
			if tl.OnReverseComplete != nil {
				tl.OnReverseComplete(tl)
			}
		}
	}
}

func (tl *Timeline) update(dt float64) {
	if tl.disposed {
		return
	}
	switch tl.cfg.Driver {
	case DriverProgress:
		if tl.scrub != nil && !tl.scrub.disposed {
			t := tl.scrub.ScrubProgress() * tl.duration
			if t != tl.time {
				tl.time = t
				tl.dirty = true
			}
		}
	default:
		tl.advance(dt)
	}
	if tl.dirty {
		tl.evaluate()
	}
}

// evaluate writes every channel's value at the current playhead. Disposed
// targets are skipped; once every target is gone the timeline disposes
// itself.
func (tl *Timeline) evaluate() {
	tl.dirty = false
	ph := tl.Playhead()
	live := 0
	for _, c := range tl.channels {
		if c.el.disposed {
			continue
		}
		live++
		c.el.Set(c.prop, c.valueAt(ph))
	}
	if live == 0 && len(tl.channels) > 0 {
		debugLogger.Debug("timeline targets disposed", "err", ErrDisposedTarget)
		tl.Dispose()
		return
	}
	if tl.OnUpdate != nil {
		tl.OnUpdate(tl)
	}
}

// ValueAt returns the value el.p would have at playhead t without writing
// it. The second result is false when the timeline does not animate el.p.
func (tl *Timeline) ValueAt(el *Element, p Property, t float64) (float64, bool) {
	for _, c := range tl.channels {
		if c.el == el && c.prop == p {
			return c.valueAt(t), true
		}
	}
	return 0, false
}

// TrackStart returns the earliest start time of any track animating el.p.
func (tl *Timeline) TrackStart(el *Element, p Property) (float64, bool) {
	for _, c := range tl.channels {
		if c.el == el && c.prop == p {
			return c.tracks[0].start, true
		}
	}
	return 0, false
}

// --- Toggle actions ---

// ToggleAction is what a trigger lifecycle event does to a bound timeline.
type ToggleAction uint8

const (
	ToggleNone ToggleAction = iota
	TogglePlay
	TogglePause
	ToggleResume
	ToggleReverse
	ToggleRestart
	ToggleReset
	ToggleComplete
)

var toggleNames = [...]string{"none", "play", "pause", "resume", "reverse", "restart", "reset", "complete"}

func (a ToggleAction) String() string {
	if int(a) < len(toggleNames) {
		return toggleNames[a]
	}
	return "unknown"
}

// ToggleActions holds one action per lifecycle event.
type ToggleActions struct {
	OnEnter     ToggleAction
	OnLeave     ToggleAction
	OnEnterBack ToggleAction
	OnLeaveBack ToggleAction
}

// DefaultToggleActions plays on enter and reverses when scrolling back past
// the start.
func DefaultToggleActions() ToggleActions {
	return ToggleActions{OnEnter: TogglePlay, OnLeaveBack: ToggleReverse}
}

// ParseToggleActions parses four space-separated actions in the order
// enter, leave, enterBack, leaveBack, e.g. "play none none reverse".
func ParseToggleActions(s string) (ToggleActions, error) {
	words := strings.Fields(s)
	if len(words) != 4 {
		return ToggleActions{}, fmt.Errorf("toggle actions %q: want 4 words: %w", s, ErrInvalidConfig)
	}
	var acts [4]ToggleAction
	for i, w := range words {
		idx := slices.Index(toggleNames[:], w)
		if idx < 0 {
			return ToggleActions{}, fmt.Errorf("toggle action %q: %w", w, ErrInvalidConfig)
		}
		acts[i] = ToggleAction(idx)
	}
	return ToggleActions{OnEnter: acts[0], OnLeave: acts[1], OnEnterBack: acts[2], OnLeaveBack: acts[3]}, nil
}

// --- Reveal ---

// RevealOptions configures RevealTimeline. A zero Duration or empty Ease
// falls back to 1.5 s of "expo.out".
type RevealOptions struct {
	FromY     float64
	FromAlpha float64
	FromBlur  float64
	Duration  float64
	Ease      string
	Stagger   Stagger
	Delay     float64
}

// DefaultRevealOptions rises 24 px while fading and sharpening in over 1.5 s.
func DefaultRevealOptions() RevealOptions {
	return RevealOptions{
		FromY:    24,
		FromBlur: 8,
		Duration: 1.5,
		Ease:     "expo.out",
		Stagger:  Stagger{Each: 0.05},
	}
}

// RevealTimeline builds a paused timeline that moves targets from a hidden
// state (offset, transparent, blurred) to rest. Bind it to a trigger with
// BindToggle to play it on scroll.
func RevealTimeline(sched *Scheduler, targets []*Element, opts RevealOptions) (*Timeline, error) {
	if opts.Duration == 0 {
		opts.Duration = 1.5
	}
	if opts.Ease == "" {
		opts.Ease = "expo.out"
	}
	b := NewTimeline(TimelineConfig{Delay: opts.Delay, Paused: true})
	b.FromTo(targets,
		Props{PropY: opts.FromY, PropAlpha: opts.FromAlpha, PropBlur: opts.FromBlur},
		Props{PropY: 0, PropAlpha: 1, PropBlur: 0},
		TweenOptions{Duration: opts.Duration, Ease: opts.Ease, Stagger: opts.Stagger},
	)
	return b.Build(sched)
}
