package cadence

import (
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// Breakpoints are the minimum viewport widths of the md, lg and xl tiers.
// Anything narrower than MD is the sm tier.
type Breakpoints struct {
	MD float64 `yaml:"md"`
	LG float64 `yaml:"lg"`
	XL float64 `yaml:"xl"`
}

// DefaultBreakpoints returns 768 / 1024 / 1280.
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{MD: 768, LG: 1024, XL: 1280}
}

// Validate reports whether the tiers are positive and ascending.
func (b Breakpoints) Validate() error {
	if b.MD <= 0 || b.MD >= b.LG || b.LG >= b.XL {
		return fmt.Errorf("breakpoints %v/%v/%v: %w", b.MD, b.LG, b.XL, ErrInvalidConfig)
	}
	return nil
}

// ColumnCounts is the number of lane columns per tier.
type ColumnCounts struct {
	SM int `yaml:"sm"`
	MD int `yaml:"md"`
	LG int `yaml:"lg"`
	XL int `yaml:"xl"`
}

// DefaultColumnCounts returns 3 / 3 / 4 / 5.
func DefaultColumnCounts() ColumnCounts {
	return ColumnCounts{SM: 3, MD: 3, LG: 4, XL: 5}
}

// Validate reports whether every tier has at least one column.
func (c ColumnCounts) Validate() error {
	if c.SM < 1 || c.MD < 1 || c.LG < 1 || c.XL < 1 {
		return fmt.Errorf("column counts %d/%d/%d/%d: %w", c.SM, c.MD, c.LG, c.XL, ErrInvalidConfig)
	}
	return nil
}

// Columns returns the column count for a viewport width.
func (b Breakpoints) Columns(width float64, c ColumnCounts) int {
	switch {
	case width >= b.XL:
		return c.XL
	case width >= b.LG:
		return c.LG
	case width >= b.MD:
		return c.MD
	default:
		return c.SM
	}
}

// Metrics is the viewport measurement handed to Recomputable components.
type Metrics struct {
	Width, Height float64
	Columns       int
}

// Recomputable is rebuilt from fresh viewport metrics. Recompute always runs
// as a scheduler boundary operation, never in the middle of a frame.
type Recomputable interface {
	Recompute(m Metrics)
}

// ResponsiveConfig configures Responsive.
type ResponsiveConfig struct {
	Breakpoints Breakpoints
	Columns     ColumnCounts
	// Debounce is how long the viewport must stay unchanged before a
	// recompute runs. Measured on the scheduler clock.
	Debounce time.Duration
}

// DefaultResponsiveConfig returns the default tiers and a 100 ms debounce.
func DefaultResponsiveConfig() ResponsiveConfig {
	return ResponsiveConfig{
		Breakpoints: DefaultBreakpoints(),
		Columns:     DefaultColumnCounts(),
		Debounce:    100 * time.Millisecond,
	}
}

// Validate reports whether the configuration is usable.
func (c ResponsiveConfig) Validate() error {
	if err := c.Breakpoints.Validate(); err != nil {
		return err
	}
	if err := c.Columns.Validate(); err != nil {
		return err
	}
	if c.Debounce < 0 {
		return fmt.Errorf("debounce %v: %w", c.Debounce, ErrInvalidDuration)
	}
	return nil
}

// Responsive debounces viewport changes and rebuilds registered components
// in one boundary operation: column counts first, then every Recomputable in
// registration order, then the final target (trigger boundaries, which may
// depend on the rebuilt layout), then the geometry generation is bumped.
// Frames never observe a half-rebuilt state.
type Responsive struct {
	cfg    ResponsiveConfig
	sched  *Scheduler
	logger *slog.Logger

	targets []Recomputable
	final   Recomputable
	current Metrics
	hasSize bool

	pending    bool
	pendingW   float64
	pendingH   float64
	changedAt  float64
	queued     bool
	recomputes int
	entry      FrameHandle
}

// NewResponsive creates a responsive controller. An invalid cfg falls back
// to DefaultResponsiveConfig.
func NewResponsive(sched *Scheduler, cfg ResponsiveConfig, logger *slog.Logger) *Responsive {
	if sched == nil {
		panic("cadence: responsive needs a scheduler")
	}
	r := &Responsive{sched: sched, logger: componentLogger(logger, "responsive")}
	if err := cfg.Validate(); err != nil {
		r.logger.Warn("responsive config rejected, using defaults", "err", err)
		cfg = DefaultResponsiveConfig()
	}
	r.cfg = cfg
	r.entry = sched.Add(PhaseCommit, r.poll)
	return r
}

// Metrics returns the metrics of the last applied recompute.
func (r *Responsive) Metrics() Metrics { return r.current }

// Recomputes returns how many recomputes have run.
func (r *Responsive) Recomputes() int { return r.recomputes }

// Pending reports whether a resize is waiting for its debounce.
func (r *Responsive) Pending() bool { return r.pending || r.queued }

// Register adds a component. If metrics are known it is recomputed at the
// next boundary.
func (r *Responsive) Register(c Recomputable) {
	if c == nil {
		return
	}
	r.targets = append(r.targets, c)
	if r.hasSize {
		r.sched.Defer(func() {
			if slices.Contains(r.targets, c) {
				c.Recompute(r.current)
				if r.final != nil {
					r.final.Recompute(r.current)
				}
				r.sched.Invalidate()
			}
		})
	}
}

// SetFinal sets the component recomputed after every registered one, on
// each resize and after each late registration. Nil clears it.
func (r *Responsive) SetFinal(c Recomputable) {
	r.final = c
}

// Unregister removes a component.
func (r *Responsive) Unregister(c Recomputable) {
	if i := slices.Index(r.targets, c); i >= 0 {
		r.targets = slices.Delete(r.targets, i, i+1)
	}
}

// Resize reports a new viewport size. The first size applies at the next
// boundary; later sizes wait for the debounce.
func (r *Responsive) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	if r.hasSize && !r.pending && w == r.current.Width && h == r.current.Height {
		return
	}
	r.pendingW, r.pendingH = w, h
	if !r.hasSize {
		r.queue()
		return
	}
	r.pending = true
	r.changedAt = r.sched.Now()
}

// Flush applies a pending resize at the next boundary without waiting for
// the debounce.
func (r *Responsive) Flush() {
	if r.pending {
		r.queue()
	}
}

func (r *Responsive) poll(float64) {
	if !r.pending || r.queued {
		return
	}
	if r.sched.Now()-r.changedAt >= r.cfg.Debounce.Seconds() {
		r.queue()
	}
}

func (r *Responsive) queue() {
	r.pending = false
	if r.queued {
		return
	}
	r.queued = true
	r.sched.Defer(r.apply)
}

func (r *Responsive) apply() {
	r.queued = false
	m := Metrics{
		Width:   r.pendingW,
		Height:  r.pendingH,
		Columns: r.cfg.Breakpoints.Columns(r.pendingW, r.cfg.Columns),
	}
	prev := r.current
	r.current = m
	r.hasSize = true
	for _, c := range r.targets {
		c.Recompute(m)
	}
	if r.final != nil {
		r.final.Recompute(m)
	}
	r.recomputes++
	r.sched.Invalidate()
	r.logger.Debug("recompute",
		"width", m.Width, "height", m.Height,
		"columns", m.Columns, "prevColumns", prev.Columns,
		"targets", len(r.targets))
}

// Dispose deregisters the per-frame poll. Idempotent.
func (r *Responsive) Dispose() {
	r.entry.Remove()
	r.targets = nil
	r.final = nil
}
