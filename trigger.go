package cadence

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
)

// SnapMode selects how a trigger settles after scrolling stops.
type SnapMode uint8

const (
	SnapNone   SnapMode = iota // linear scrub, no settling
	SnapPoints                 // settle on the nearest of a set of progress points
)

// SnapConfig configures snapping. Points are progress values in [0, 1].
type SnapConfig struct {
	Mode     SnapMode
	Points   []float64
	Duration float64 // seconds; defaults to 0.5
	Ease     string  // defaults to "power2.inOut"
}

// TriggerConfig configures a trigger.
//
// Boundaries are either absolute scroll offsets (Start, End) or positions
// resolved against Element's layout box (StartPos, EndPos). A position takes
// precedence over the absolute value. EndPos may be relative to the start
// ("+=500").
type TriggerConfig struct {
	ID string

	Start, End       float64
	StartPos, EndPos string

	// Element is the trigger element. It anchors StartPos/EndPos and is the
	// element held in place when Pin is set.
	Element *Element
	Axis    Axis
	Pin     bool

	// Scrub > 0 makes ScrubProgress follow Progress with a lag of roughly
	// Scrub seconds. Scrub == 0 links them directly.
	Scrub float64

	Snap SnapConfig
}

// TriggerCallbacks are per-trigger lifecycle callbacks. Any may be nil.
type TriggerCallbacks struct {
	OnEnter     func(t *Trigger)
	OnLeave     func(t *Trigger)
	OnEnterBack func(t *Trigger)
	OnLeaveBack func(t *Trigger)
	OnUpdate    func(t *Trigger, progress float64, dir Direction)
}

// Trigger maps a scroll range to progress in [0, 1].
type Trigger struct {
	id  string
	cfg TriggerConfig
	cb  TriggerCallbacks
	reg *TriggerRegistry

	start, end float64

	progress     float64
	lastProgress float64
	scrubbed     float64
	direction    Direction

	locked   bool
	disposed bool

	entry    FrameHandle
	pinEntry FrameHandle

	observers handlerRegistry
}

// ID returns the trigger's identifier.
func (t *Trigger) ID() string { return t.id }

// Start returns the resolved start boundary.
func (t *Trigger) Start() float64 { return t.start }

// End returns the resolved end boundary.
func (t *Trigger) End() float64 { return t.end }

// Progress returns the current progress in [0, 1].
func (t *Trigger) Progress() float64 { return t.progress }

// LastProgress returns the progress of the previous frame.
func (t *Trigger) LastProgress() float64 { return t.lastProgress }

// ScrubProgress returns the lagged progress used by scrubbed timelines. It
// equals Progress when Scrub is zero.
func (t *Trigger) ScrubProgress() float64 { return t.scrubbed }

// Direction returns the direction of the last progress change.
func (t *Trigger) Direction() Direction { return t.direction }

// Active reports whether progress is strictly between 0 and 1.
func (t *Trigger) Active() bool { return t.progress > 0 && t.progress < 1 }

// Pinned reports whether the trigger pins its element.
func (t *Trigger) Pinned() bool { return t.cfg.Pin }

// Disposed reports whether the trigger has been disposed.
func (t *Trigger) Disposed() bool { return t.disposed }

// On subscribes to one of this trigger's lifecycle events. Observers run
// after the TriggerCallbacks and before registry-level subscribers.
func (t *Trigger) On(event EventType, fn func(Event)) CallbackHandle {
	return t.observers.add(event, fn)
}

// Dispose deregisters the trigger. See TriggerRegistry.Dispose.
func (t *Trigger) Dispose() {
	if t.reg != nil {
		t.reg.Dispose(t)
	}
}

// TriggerRegistry owns every trigger of a stage. It is the only writer of
// trigger progress.
type TriggerRegistry struct {
	sched    *Scheduler
	smoother *Smoother
	logger   *slog.Logger

	triggers []*Trigger
	handlers handlerRegistry
	sink     EventSink

	viewportW, viewportH float64
	autoID               int
}

// NewTriggerRegistry creates a registry reading scroll state from smoother.
func NewTriggerRegistry(sched *Scheduler, smoother *Smoother, logger *slog.Logger) *TriggerRegistry {
	if sched == nil || smoother == nil {
		panic("cadence: trigger registry needs a scheduler and a smoother")
	}
	return &TriggerRegistry{
		sched:    sched,
		smoother: smoother,
		logger:   componentLogger(logger, "trigger"),
	}
}

// SetEventSink sets an optional external consumer for lifecycle events.
func (r *TriggerRegistry) SetEventSink(sink EventSink) { r.sink = sink }

// SetViewport sets the viewport size used to resolve positions. It does not
// re-resolve existing triggers; Recompute does.
func (r *TriggerRegistry) SetViewport(w, h float64) {
	r.viewportW, r.viewportH = w, h
}

// Triggers returns the live triggers in registration order. The returned
// slice MUST NOT be mutated.
func (r *TriggerRegistry) Triggers() []*Trigger { return r.triggers }

// Len returns the number of live triggers.
func (r *TriggerRegistry) Len() int { return len(r.triggers) }

// Lookup returns the live trigger with the given id.
func (r *TriggerRegistry) Lookup(id string) (*Trigger, bool) {
	for _, t := range r.triggers {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Register validates cfg and adds a trigger. An invalid configuration is
// logged and returned as an error; nothing is registered.
func (r *TriggerRegistry) Register(cfg TriggerConfig, cb TriggerCallbacks) (*Trigger, error) {
	if cfg.ID == "" {
		r.autoID++
		cfg.ID = fmt.Sprintf("trigger-%d", r.autoID)
	}
	if err := validateTrigger(cfg); err != nil {
		r.logger.Warn("trigger rejected", "id", cfg.ID, "err", err)
		return nil, fmt.Errorf("register trigger %q: %w", cfg.ID, err)
	}
	start, end, err := r.resolve(cfg)
	if err != nil {
		r.logger.Warn("trigger rejected", "id", cfg.ID, "err", err)
		return nil, fmt.Errorf("register trigger %q: %w", cfg.ID, err)
	}
	if cfg.Snap.Mode == SnapPoints {
		cfg.Snap.Points = slices.Clone(cfg.Snap.Points)
		slices.Sort(cfg.Snap.Points)
	}

	t := &Trigger{id: cfg.ID, cfg: cfg, cb: cb, reg: r, start: start, end: end}
	t.entry = r.sched.Add(PhaseTrigger, func(dt float64) { r.updateTrigger(t, dt) })
	if cfg.Pin && cfg.Element != nil {
		t.pinEntry = r.sched.Add(PhaseTimeline, func(float64) { r.applyPin(t) })
	}
	r.triggers = append(r.triggers, t)
	r.logger.Debug("trigger registered", "id", t.id, "start", start, "end", end, "pin", cfg.Pin)
	return t, nil
}

func validateTrigger(cfg TriggerConfig) error {
	if cfg.Scrub < 0 || math.IsNaN(cfg.Scrub) {
		return fmt.Errorf("scrub %v: %w", cfg.Scrub, ErrInvalidConfig)
	}
	if cfg.Pin && cfg.Element == nil {
		return fmt.Errorf("pin without element: %w", ErrInvalidConfig)
	}
	if cfg.Snap.Mode == SnapPoints {
		if len(cfg.Snap.Points) == 0 {
			return fmt.Errorf("snap without points: %w", ErrInvalidConfig)
		}
		for _, p := range cfg.Snap.Points {
			if p < 0 || p > 1 || math.IsNaN(p) {
				return fmt.Errorf("snap point %v outside [0, 1]: %w", p, ErrInvalidConfig)
			}
		}
	}
	return nil
}

func (r *TriggerRegistry) viewportAlong(axis Axis) float64 {
	if axis == AxisHorizontal {
		return r.viewportW
	}
	return r.viewportH
}

// resolve computes the scroll boundaries of cfg. Start must be strictly
// less than End.
func (r *TriggerRegistry) resolve(cfg TriggerConfig) (start, end float64, err error) {
	vp := r.viewportAlong(cfg.Axis)
	start, end = cfg.Start, cfg.End
	if cfg.StartPos != "" {
		if start, err = ResolvePosition(cfg.StartPos, cfg.Element, cfg.Axis, vp, 0); err != nil {
			return 0, 0, err
		}
	}
	if cfg.EndPos != "" {
		if end, err = ResolvePosition(cfg.EndPos, cfg.Element, cfg.Axis, vp, start); err != nil {
			return 0, 0, err
		}
	}
	if math.IsNaN(start) || math.IsNaN(end) || start >= end {
		return 0, 0, fmt.Errorf("start %v >= end %v: %w", start, end, ErrInvalidTriggerBoundary)
	}
	return start, end, nil
}

// Recompute re-resolves every position-based trigger against the new
// viewport. A trigger whose new boundaries are invalid keeps its previous
// ones. Runs as a boundary operation of Responsive.
func (r *TriggerRegistry) Recompute(m Metrics) {
	r.SetViewport(m.Width, m.Height)
	for _, t := range r.triggers {
		if t.cfg.StartPos == "" && t.cfg.EndPos == "" {
			continue
		}
		start, end, err := r.resolve(t.cfg)
		if err != nil {
			r.logger.Warn("trigger boundaries kept", "id", t.id, "err", err)
			continue
		}
		t.start, t.end = start, end
	}
}

// Dispose removes t and every per-frame entry it owns, releases its pin and
// scroll lock and drops its observers. Safe to call more than once, and from
// inside any callback.
func (r *TriggerRegistry) Dispose(t *Trigger) {
	if t == nil || t.disposed {
		return
	}
	t.disposed = true
	t.entry.Remove()
	t.pinEntry.Remove()
	if t.locked {
		r.smoother.Unlock()
		t.locked = false
	}
	if t.cfg.Pin && t.cfg.Element != nil {
		t.cfg.Element.setPin(t.cfg.Axis, 0)
	}
	t.observers = handlerRegistry{}
	if i := slices.Index(r.triggers, t); i >= 0 {
		r.triggers = slices.Delete(r.triggers, i, i+1)
	}
	r.logger.Debug("trigger disposed", "id", t.id)
}

// DisposeAll disposes every live trigger.
func (r *TriggerRegistry) DisposeAll() {
	for len(r.triggers) > 0 {
		r.Dispose(r.triggers[len(r.triggers)-1])
	}
}

// --- Registry-level subscribers ---

// OnEnter registers a callback fired when any trigger enters.
func (r *TriggerRegistry) OnEnter(fn func(Event)) CallbackHandle {
	return r.handlers.add(EventEnter, fn)
}

// OnUpdate registers a callback fired when any trigger's progress changes.
func (r *TriggerRegistry) OnUpdate(fn func(Event)) CallbackHandle {
	return r.handlers.add(EventUpdate, fn)
}

// OnLeave registers a callback fired when any trigger leaves forward.
func (r *TriggerRegistry) OnLeave(fn func(Event)) CallbackHandle {
	return r.handlers.add(EventLeave, fn)
}

// OnEnterBack registers a callback fired when any trigger re-enters backward.
func (r *TriggerRegistry) OnEnterBack(fn func(Event)) CallbackHandle {
	return r.handlers.add(EventEnterBack, fn)
}

// OnLeaveBack registers a callback fired when any trigger returns to 0.
func (r *TriggerRegistry) OnLeaveBack(fn func(Event)) CallbackHandle {
	return r.handlers.add(EventLeaveBack, fn)
}

// --- Per-frame ---

// scrubSnap is the distance under which lagged progress snaps to target.
const scrubSnap = 1e-4

func (r *TriggerRegistry) updateTrigger(t *Trigger, dt float64) {
	st := r.smoother.State()
	target := clamp01((st.Smoothed - t.start) / (t.end - t.start))

	if t.cfg.Scrub > 0 {
		if dt > 0 {
			t.scrubbed += (target - t.scrubbed) * (1 - math.Exp(-dt/t.cfg.Scrub))
		}
		if math.Abs(target-t.scrubbed) < scrubSnap {
			t.scrubbed = target
		}
	} else {
		t.scrubbed = target
	}

	r.setProgress(t, target)
	if t.disposed {
		return
	}

	if t.cfg.Snap.Mode == SnapPoints && t.Active() && !r.smoother.Scrolling() {
		r.snap(t, st.Smoothed)
	}
}

func (r *TriggerRegistry) setProgress(t *Trigger, p float64) {
	t.lastProgress = t.progress
	old := t.progress
	if p == old {
		return
	}
	dir := directionOf(p - old)
	t.progress = p
	t.direction = dir

	active := p > 0 && p < 1
	if active != t.locked {
		if active {
			r.smoother.Lock()
		} else {
			r.smoother.Unlock()
		}
		t.locked = active
	}

	if dir == DirectionForward && old <= 0 {
		r.fire(t, EventEnter)
	}
	if dir == DirectionBackward && old >= 1 {
		r.fire(t, EventEnterBack)
	}
	r.fire(t, EventUpdate)
	if dir == DirectionForward && p >= 1 {
		r.fire(t, EventLeave)
	}
	if dir == DirectionBackward && p <= 0 {
		r.fire(t, EventLeaveBack)
	}
}

// fire dispatches one lifecycle event: per-trigger callbacks, then trigger
// observers, then registry subscribers, then the sink. A callback that
// disposes the trigger stops further dispatch.
func (r *TriggerRegistry) fire(t *Trigger, typ EventType) {
	if t.disposed {
		return
	}
	switch typ {
	case EventEnter:
		if t.cb.OnEnter != nil {
			t.cb.OnEnter(t)
		}
	case EventLeave:
		if t.cb.OnLeave != nil {
			t.cb.OnLeave(t)
		}
	case EventEnterBack:
		if t.cb.OnEnterBack != nil {
			t.cb.OnEnterBack(t)
		}
	case EventLeaveBack:
		if t.cb.OnLeaveBack != nil {
			t.cb.OnLeaveBack(t)
		}
	case EventUpdate:
		if t.cb.OnUpdate != nil {
			t.cb.OnUpdate(t, t.progress, t.direction)
		}
	}
	if t.disposed {
		return
	}
	ev := Event{Type: typ, TriggerID: t.id, Progress: t.progress, Direction: t.direction}
	t.observers.emit(ev)
	r.handlers.emit(ev)
	if r.sink != nil {
		r.sink.EmitEvent(ev)
	}
}

func (r *TriggerRegistry) applyPin(t *Trigger) {
	el := t.cfg.Element
	if el.disposed {
		return
	}
	st := r.smoother.State()
	el.setPin(t.cfg.Axis, clamp(st.Smoothed-t.start, 0, t.end-t.start))
}

func (r *TriggerRegistry) snap(t *Trigger, smoothed float64) {
	pts := t.cfg.Snap.Points
	best := pts[0]
	for _, p := range pts[1:] {
		if math.Abs(p-t.progress) < math.Abs(best-t.progress) {
			best = p
		}
	}
	dest := t.start + best*(t.end-t.start)
	if math.Abs(dest-smoothed) < 0.5 {
		return
	}
	dur := t.cfg.Snap.Duration
	if dur <= 0 {
		dur = 0.5
	}
	name := t.cfg.Snap.Ease
	if name == "" {
		name = "power2.inOut"
	}
	r.smoother.ScrollTo(dest, dur, name)
}
