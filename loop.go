package cadence

import (
	"fmt"
	"log/slog"
	"math"
)

// minLaneItems is the smallest lane that animates. Shorter lanes render at
// rest.
const minLaneItems = 3

// LaneDirection is the direction content travels in a lane.
type LaneDirection uint8

const (
	LaneForward  LaneDirection = iota // content moves toward the axis origin
	LaneReversed                      // same motion played backward
)

// LaneConfig configures a LoopLane. Exactly one of SpeedPxPerSecond and
// FixedDuration must be positive; FixedDuration wins when both are.
type LaneConfig struct {
	SpeedPxPerSecond float64
	FixedDuration    float64
	Direction        LaneDirection
	Interaction      InteractionMode
	Axis             Axis
	Gap              float64
	PaddingEnd       float64
}

// Validate reports whether the configuration can produce a period.
func (c LaneConfig) Validate() error {
	if c.FixedDuration <= 0 && c.SpeedPxPerSecond <= 0 {
		return fmt.Errorf("lane speed %v and duration %v: %w", c.SpeedPxPerSecond, c.FixedDuration, ErrInvalidDuration)
	}
	if math.IsNaN(c.SpeedPxPerSecond) || math.IsNaN(c.FixedDuration) || math.IsInf(c.SpeedPxPerSecond, 0) || math.IsInf(c.FixedDuration, 0) {
		return fmt.Errorf("lane speed %v and duration %v: %w", c.SpeedPxPerSecond, c.FixedDuration, ErrInvalidDuration)
	}
	if c.Gap < 0 || c.PaddingEnd < 0 {
		return fmt.Errorf("lane gap %v padding %v: %w", c.Gap, c.PaddingEnd, ErrInvalidConfig)
	}
	return nil
}

// LaneItem is one element in a lane with its measured size along the lane
// axis.
type LaneItem struct {
	Element *Element
	Size    float64
}

// ItemGeometry is the derived layout of one lane item.
type ItemGeometry struct {
	Index            int
	Size             float64
	CumulativeOffset float64
	// DistanceToLoop is how far the item travels before it has fully left
	// the start of the lane.
	DistanceToLoop float64
	// WrapOffsetPercent is where the item re-enters, as a percentage of its
	// own size measured from the lane origin.
	WrapOffsetPercent float64
}

// laneGeometry is built whole and swapped in one assignment.
type laneGeometry struct {
	items  []ItemGeometry
	extent float64
	period float64
}

// buildGeometry lays items end to end with gap between them and padding
// after the last.
func buildGeometry(items []LaneItem, cfg LaneConfig) (laneGeometry, error) {
	if len(items) < minLaneItems {
		return laneGeometry{}, fmt.Errorf("lane has %d items, need %d: %w", len(items), minLaneItems, ErrMissingGeometry)
	}
	g := laneGeometry{items: make([]ItemGeometry, len(items))}
	offset := 0.0
	for i, it := range items {
		if !(it.Size > 0) || math.IsInf(it.Size, 0) {
			return laneGeometry{}, fmt.Errorf("lane item %d size %v: %w", i, it.Size, ErrMissingGeometry)
		}
		g.items[i] = ItemGeometry{
			Index:            i,
			Size:             it.Size,
			CumulativeOffset: offset,
			DistanceToLoop:   offset + it.Size,
		}
		offset += it.Size + cfg.Gap
	}
	last := g.items[len(items)-1]
	g.extent = last.CumulativeOffset + last.Size + cfg.PaddingEnd
	for i := range g.items {
		gi := &g.items[i]
		gi.WrapOffsetPercent = (g.extent - gi.DistanceToLoop) / gi.Size * 100
	}
	if cfg.FixedDuration > 0 {
		g.period = cfg.FixedDuration
	} else {
		g.period = g.extent / cfg.SpeedPxPerSecond
	}
	return g, nil
}

// LoopLane moves a list of items endlessly along an axis. Every item has two
// linear tracks on one shared repeating timeline: it travels off the start of
// the lane, then re-enters from the end and returns to rest. Item positions
// are therefore periodic in the playhead and never overlap or leave a seam.
type LoopLane struct {
	cfg    LaneConfig
	sched  *Scheduler
	logger *slog.Logger

	items []LaneItem
	geom  laneGeometry
	tl    *Timeline

	static   bool
	err      error
	paused   bool
	disposed bool
}

// NewLoopLane lays out items and starts the lane. The lane is always
// returned; when the items cannot loop (too few, unmeasured) or cfg is
// invalid it stays static, items rest at their layout positions, and the
// error says why.
func NewLoopLane(sched *Scheduler, cfg LaneConfig, items []LaneItem) (*LoopLane, error) {
	if sched == nil {
		panic("cadence: loop lane needs a scheduler")
	}
	l := &LoopLane{
		cfg:    cfg,
		sched:  sched,
		logger: componentLogger(debugLogger, "lane"),
	}
	l.rebuild(items, 0)
	return l, l.err
}

// SetLogger replaces the lane's logger.
func (l *LoopLane) SetLogger(logger *slog.Logger) {
	l.logger = componentLogger(logger, "lane")
}

// Static reports whether the lane renders at rest instead of looping.
func (l *LoopLane) Static() bool { return l.static }

// Err returns why the lane is static, or nil.
func (l *LoopLane) Err() error { return l.err }

// Config returns the lane configuration.
func (l *LoopLane) Config() LaneConfig { return l.cfg }

// Items returns the lane items. The returned slice MUST NOT be mutated.
func (l *LoopLane) Items() []LaneItem { return l.items }

// Geometry returns a copy of the current item geometry.
func (l *LoopLane) Geometry() []ItemGeometry {
	return append([]ItemGeometry(nil), l.geom.items...)
}

// Extent returns the total lane length H.
func (l *LoopLane) Extent() float64 { return l.geom.extent }

// Period returns the loop period T in seconds, 0 for a static lane.
func (l *LoopLane) Period() float64 {
	if l.static {
		return 0
	}
	return l.geom.period
}

// Reversed reports whether the lane plays backward.
func (l *LoopLane) Reversed() bool { return l.cfg.Direction == LaneReversed }

// Playhead returns the position in [0, Period).
func (l *LoopLane) Playhead() float64 {
	if l.tl == nil {
		return 0
	}
	return l.tl.Playhead()
}

// Pause stops the lane.
func (l *LoopLane) Pause() {
	l.paused = true
	if l.tl != nil {
		l.tl.Pause()
	}
}

// Resume restarts the lane in its configured direction.
func (l *LoopLane) Resume() {
	l.paused = false
	if l.tl != nil {
		l.play()
	}
}

// Paused reports whether the lane has been paused.
func (l *LoopLane) Paused() bool { return l.paused }

// Toggle pauses a running lane and resumes a paused one.
func (l *LoopLane) Toggle() {
	if l.paused {
		l.Resume()
	} else {
		l.Pause()
	}
}

// Seek moves the playhead to t seconds (taken modulo the period).
func (l *LoopLane) Seek(t float64) {
	if l.tl != nil {
		l.tl.Seek(t)
	}
}

func (l *LoopLane) play() {
	if l.cfg.Direction == LaneReversed {
		l.tl.Reverse()
	} else {
		l.tl.Play()
	}
}

// OffsetsAt returns each item's translation along the axis at virtual time t
// without touching any element.
func (l *LoopLane) OffsetsAt(t float64) []float64 {
	out := make([]float64, len(l.geom.items))
	if l.static || l.geom.period <= 0 {
		return out
	}
	T := l.geom.period
	H := l.geom.extent
	t = math.Mod(t, T)
	if t < 0 {
		t += T
	}
	for i, gi := range l.geom.items {
		out[i] = loopOffset(gi.DistanceToLoop, H, T, t)
	}
	return out
}

// loopOffset is the closed form of an item's two tracks.
func loopOffset(dl, H, T, t float64) float64 {
	split := dl / H * T
	if t < split {
		return -dl * (t / split)
	}
	rest := T - split
	if rest <= 0 {
		return 0
	}
	return (H - dl) * (1 - (t-split)/rest)
}

// Span is the interval an item covers along the lane axis.
type Span struct {
	Index      int
	Start, End float64
}

// Spans returns where every item sits along the lane at virtual time t,
// reduced into [0, Extent).
func (l *LoopLane) Spans(t float64) []Span {
	offs := l.OffsetsAt(t)
	out := make([]Span, len(l.geom.items))
	H := l.geom.extent
	for i, gi := range l.geom.items {
		s := gi.CumulativeOffset + offs[i]
		if H > 0 {
			s = math.Mod(s, H)
			if s < 0 {
				s += H
			}
		}
		out[i] = Span{Index: i, Start: s, End: s + gi.Size}
	}
	return out
}

// Invalidate rebuilds the lane from a new item list, keeping the playhead at
// the same fraction of the period. Inside a frame the rebuild is deferred to
// the next boundary.
func (l *LoopLane) Invalidate(items []LaneItem) error {
	if l.disposed {
		return ErrDisposedTarget
	}
	if l.sched.InFrame() {
		l.sched.Defer(func() {
			if !l.disposed {
				l.Invalidate(items)
			}
		})
		return nil
	}
	phase := 0.0
	if !l.static && l.geom.period > 0 {
		phase = l.Playhead() / l.geom.period
	}
	l.rebuild(items, phase)
	l.sched.Invalidate()
	return l.err
}

// Recompute remeasures every item from its element's size along the lane
// axis and invalidates the lane. Register a lane with a Responsive so it
// follows layout changes; LaneGrid columns are remeasured by their grid.
func (l *LoopLane) Recompute(Metrics) {
	if l.disposed {
		return
	}
	items := make([]LaneItem, len(l.items))
	for i, it := range l.items {
		items[i] = it
		if it.Element == nil || it.Element.disposed {
			continue
		}
		if l.cfg.Axis == AxisHorizontal {
			items[i].Size = it.Element.Width
		} else {
			items[i].Size = it.Element.Height
		}
	}
	if err := l.Invalidate(items); err != nil {
		l.logger.Debug("lane remeasured static", "err", err)
	}
}

// rebuild computes geometry and the timeline off to the side, then swaps
// both in. On failure the lane goes static.
func (l *LoopLane) rebuild(items []LaneItem, phase float64) {
	items = append([]LaneItem(nil), items...)

	err := l.cfg.Validate()
	var g laneGeometry
	if err == nil {
		g, err = buildGeometry(items, l.cfg)
	}

	var tl *Timeline
	if err == nil {
		tl, err = l.buildTimeline(items, g)
	}

	if l.tl != nil {
		l.tl.Dispose()
	}
	l.items = items
	l.err = err

	if err != nil {
		l.static = true
		l.tl = nil
		l.geom = restGeometry(items, l.cfg)
		l.layout()
		for _, it := range items {
			if it.Element != nil {
				it.Element.Set(translateProperty(l.cfg.Axis), 0)
			}
		}
		l.logger.Warn("lane static", "items", len(items), "err", err)
		return
	}

	l.static = false
	l.geom = g
	l.tl = tl
	l.layout()
	l.tl.Seek(phase * g.period)
	if !l.paused {
		l.play()
	}
	l.logger.Debug("lane built", "items", len(items), "extent", g.extent, "period", g.period)
}

// restGeometry lays out items without requiring them to loop.
func restGeometry(items []LaneItem, cfg LaneConfig) laneGeometry {
	g := laneGeometry{items: make([]ItemGeometry, len(items))}
	offset := 0.0
	for i, it := range items {
		size := math.Max(it.Size, 0)
		if math.IsNaN(size) || math.IsInf(size, 0) {
			size = 0
		}
		g.items[i] = ItemGeometry{Index: i, Size: size, CumulativeOffset: offset, DistanceToLoop: offset + size}
		offset += size + cfg.Gap
	}
	g.extent = offset
	return g
}

// layout positions items at their cumulative offsets along the axis.
func (l *LoopLane) layout() {
	for i, it := range l.items {
		el := it.Element
		if el == nil || el.disposed {
			continue
		}
		off := l.geom.items[i].CumulativeOffset
		if l.cfg.Axis == AxisHorizontal {
			el.SetPosition(off, el.Y)
			el.SetSize(l.geom.items[i].Size, el.Height)
		} else {
			el.SetPosition(el.X, off)
			el.SetSize(el.Width, l.geom.items[i].Size)
		}
	}
}

func (l *LoopLane) buildTimeline(items []LaneItem, g laneGeometry) (*Timeline, error) {
	prop := translateProperty(l.cfg.Axis)
	T, H := g.period, g.extent
	b := NewTimeline(TimelineConfig{Repeat: -1, Paused: true})
	for i, it := range items {
		if it.Element == nil {
			continue
		}
		target := []*Element{it.Element}
		dl := g.items[i].DistanceToLoop
		split := dl / H * T
		b.At(0).FromTo(target, Props{prop: 0}, Props{prop: -dl}, TweenOptions{Duration: split, Ease: "none"})
		b.At(split).FromTo(target, Props{prop: H - dl}, Props{prop: 0}, TweenOptions{Duration: T - split, Ease: "none"})
	}
	tl, err := b.build(l.sched, PhaseLoop)
	if err != nil {
		return nil, err
	}
	// The longest track ends at T only up to rounding; pin the period.
	tl.duration = T
	return tl, nil
}

// Dispose stops the lane and deregisters it. Items keep their last
// committed positions. Idempotent.
func (l *LoopLane) Dispose() {
	if l.disposed {
		return
	}
	l.disposed = true
	if l.tl != nil {
		l.tl.Dispose()
		l.tl = nil
	}
}

// Disposed reports whether the lane has been disposed.
func (l *LoopLane) Disposed() bool { return l.disposed }

// RepeatItems returns items repeated times times, in order.
func RepeatItems[T any](items []T, times int) []T {
	if times < 1 {
		times = 1
	}
	out := make([]T, 0, len(items)*times)
	for range times {
		out = append(out, items...)
	}
	return out
}

// CopiesToCover returns how many back-to-back copies of a run of length
// extent are needed to cover band, never fewer than min.
func CopiesToCover(extent, band float64, min int) int {
	if min < 1 {
		min = 1
	}
	if extent <= 0 || band <= 0 {
		return min
	}
	n := int(math.Ceil(band / extent))
	if n < min {
		n = min
	}
	return n
}
