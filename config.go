package cadence

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is a choreography document: stage tuning plus the triggers, lanes
// and timeline segments to register. Elements are referenced by name and
// resolved against the stage tree when the document is applied.
//
//	smoothing: {mode: spring, frequency: 12, damping: 1}
//	breakpoints: {md: 768, lg: 1024, xl: 1280}
//	columns: {sm: 3, md: 3, lg: 4, xl: 5}
//	debounce: 100ms
//	triggers:
//	  - {id: hero, element: hero, start: top top, end: "+=800", pin: true, scrub: 1}
//	segments:
//	  - trigger: hero
//	    driver: progress
//	    tweens:
//	      - {targets: [title], to: {scale: 0.8, opacity: 0}, duration: 1}
type Config struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Axis        string  `yaml:"axis"`
	ScrollLimit float64 `yaml:"scrollLimit"`

	Smoothing   SmoothingDoc  `yaml:"smoothing"`
	Breakpoints Breakpoints   `yaml:"breakpoints"`
	Columns     ColumnCounts  `yaml:"columns"`
	Debounce    time.Duration `yaml:"debounce"`

	Triggers []TriggerDoc `yaml:"triggers"`
	Lanes    []LaneDoc    `yaml:"lanes"`
	Segments []SegmentDoc `yaml:"segments"`
}

// SmoothingDoc is the document form of SmoothingConfig.
type SmoothingDoc struct {
	Mode               string  `yaml:"mode"`
	Lerp               float64 `yaml:"lerp"`
	Frequency          float64 `yaml:"frequency"`
	Damping            float64 `yaml:"damping"`
	WheelMultiplier    float64 `yaml:"wheelMultiplier"`
	TouchMultiplier    float64 `yaml:"touchMultiplier"`
	TrackpadMultiplier float64 `yaml:"trackpadMultiplier"`
}

// TriggerDoc is the document form of TriggerConfig. Start and End are
// either numbers (absolute scroll offsets) or position strings such as
// "top 80%" or "+=500".
type TriggerDoc struct {
	ID           string    `yaml:"id"`
	Element      string    `yaml:"element"`
	Start        string    `yaml:"start"`
	End          string    `yaml:"end"`
	Axis         string    `yaml:"axis"`
	Pin          bool      `yaml:"pin"`
	Scrub        float64   `yaml:"scrub"`
	Snap         []float64 `yaml:"snap"`
	SnapDuration float64   `yaml:"snapDuration"`
	SnapEase     string    `yaml:"snapEase"`
}

// LaneDoc describes a loop lane. With Items it is a single lane over the
// named elements; without, it is a template for a LaneGrid whose items the
// caller supplies (see GridConfig).
type LaneDoc struct {
	Name         string           `yaml:"name"`
	Items        []string         `yaml:"items"`
	Speed        float64          `yaml:"speed"`
	Duration     float64          `yaml:"duration"`
	Direction    string           `yaml:"direction"`
	Interaction  string           `yaml:"interaction"`
	Axis         string           `yaml:"axis"`
	Gap          float64          `yaml:"gap"`
	PaddingEnd   float64          `yaml:"paddingEnd"`
	ColumnGap    float64          `yaml:"columnGap"`
	Copies       int              `yaml:"copies"`
	BaseDuration float64          `yaml:"baseDuration"`
	Columns      []ColumnSettings `yaml:"columns"`
}

// SegmentDoc describes a timeline, optionally bound to a trigger. A
// progress-driven segment scrubs with the trigger; a time-driven one runs
// the trigger's toggle actions ("play none none reverse" by default).
type SegmentDoc struct {
	Name          string     `yaml:"name"`
	Trigger       string     `yaml:"trigger"`
	Driver        string     `yaml:"driver"`
	Delay         float64    `yaml:"delay"`
	Repeat        int        `yaml:"repeat"`
	Paused        bool       `yaml:"paused"`
	ToggleActions string     `yaml:"toggleActions"`
	Tweens        []TweenDoc `yaml:"tweens"`
}

// TweenDoc is one builder step. Property names are those accepted by
// ParseProperty. With Set the step is an instantaneous change at At.
type TweenDoc struct {
	Targets     []string           `yaml:"targets"`
	From        map[string]float64 `yaml:"from"`
	To          map[string]float64 `yaml:"to"`
	Duration    float64            `yaml:"duration"`
	Ease        string             `yaml:"ease"`
	Stagger     float64            `yaml:"stagger"`
	StaggerFrom string             `yaml:"staggerFrom"`
	Position    string             `yaml:"position"`
	Set         bool               `yaml:"set"`
	At          float64            `yaml:"at"`
}

// defaultConfig returns a document holding every default, so fields absent
// from the YAML keep them.
func defaultConfig() *Config {
	sm := DefaultSmoothingConfig()
	rc := DefaultResponsiveConfig()
	return &Config{
		Axis: "vertical",
		Smoothing: SmoothingDoc{
			Mode:               sm.Mode.String(),
			Lerp:               sm.Lerp,
			Frequency:          sm.Frequency,
			Damping:            sm.Damping,
			WheelMultiplier:    sm.WheelMultiplier,
			TouchMultiplier:    sm.TouchMultiplier,
			TrackpadMultiplier: sm.TrackpadMultiplier,
		},
		Breakpoints: rc.Breakpoints,
		Columns:     rc.Columns,
		Debounce:    rc.Debounce,
	}
}

// LoadConfig parses and validates a choreography document.
func LoadConfig(data []byte) (*Config, error) {
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadConfigFile reads and parses a choreography document from disk.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadConfig(data)
}

// Validate applies the checks registration would apply, without an element
// tree. Element names are checked by Apply.
func (c *Config) Validate() error {
	if _, err := parseAxis(c.Axis); err != nil {
		return err
	}
	if c.ScrollLimit < 0 {
		return fmt.Errorf("scroll limit %v: %w", c.ScrollLimit, ErrInvalidConfig)
	}
	sm, err := c.Smoothing.SmoothingConfig()
	if err != nil {
		return err
	}
	if err := sm.Validate(); err != nil {
		return err
	}
	if err := c.ResponsiveConfig().Validate(); err != nil {
		return err
	}

	ids := make(map[string]bool, len(c.Triggers))
	for i, t := range c.Triggers {
		tc, err := t.TriggerConfig(nil)
		if err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		if t.Pin && t.Element == "" {
			return fmt.Errorf("trigger %d: pin without element: %w", i, ErrInvalidConfig)
		}
		// The element is resolved by Apply.
		tc.Pin = false
		if err := validateTrigger(tc); err != nil {
			return fmt.Errorf("trigger %d: %w", i, err)
		}
		if tc.StartPos == "" && tc.EndPos == "" && tc.Start >= tc.End {
			return fmt.Errorf("trigger %d: start %v >= end %v: %w", i, tc.Start, tc.End, ErrInvalidTriggerBoundary)
		}
		if t.ID != "" {
			if ids[t.ID] {
				return fmt.Errorf("trigger %q: duplicate id: %w", t.ID, ErrInvalidConfig)
			}
			ids[t.ID] = true
		}
	}
	for i, l := range c.Lanes {
		lc, err := l.LaneConfig()
		if err != nil {
			return fmt.Errorf("lane %d: %w", i, err)
		}
		if err := lc.Validate(); err != nil {
			return fmt.Errorf("lane %d: %w", i, err)
		}
	}
	for i, s := range c.Segments {
		if s.Trigger != "" && !ids[s.Trigger] {
			return fmt.Errorf("segment %d: unknown trigger %q: %w", i, s.Trigger, ErrInvalidConfig)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
	}
	return nil
}

// StageConfig converts the stage-level settings. Invalid values have been
// rejected by Validate and fall back to defaults here.
func (c *Config) StageConfig() StageConfig {
	sc := DefaultStageConfig()
	if c.Width > 0 && c.Height > 0 {
		sc.Width, sc.Height = c.Width, c.Height
	}
	if axis, err := parseAxis(c.Axis); err == nil {
		sc.Axis = axis
	}
	if sm, err := c.Smoothing.SmoothingConfig(); err == nil {
		sc.Smoothing = sm
	}
	sc.Responsive = c.ResponsiveConfig()
	sc.ScrollLimit = c.ScrollLimit
	return sc
}

// ResponsiveConfig converts the breakpoint, column and debounce settings.
func (c *Config) ResponsiveConfig() ResponsiveConfig {
	return ResponsiveConfig{Breakpoints: c.Breakpoints, Columns: c.Columns, Debounce: c.Debounce}
}

// SmoothingConfig converts the document form.
func (d SmoothingDoc) SmoothingConfig() (SmoothingConfig, error) {
	mode, err := ParseSmoothMode(d.Mode)
	if err != nil {
		return SmoothingConfig{}, err
	}
	return SmoothingConfig{
		Mode:               mode,
		Lerp:               d.Lerp,
		Frequency:          d.Frequency,
		Damping:            d.Damping,
		WheelMultiplier:    d.WheelMultiplier,
		TouchMultiplier:    d.TouchMultiplier,
		TrackpadMultiplier: d.TrackpadMultiplier,
	}, nil
}

// TriggerConfig converts the document form, resolving Element under root.
// A nil root skips element resolution.
func (d TriggerDoc) TriggerConfig(root *Element) (TriggerConfig, error) {
	axis, err := parseAxis(d.Axis)
	if err != nil {
		return TriggerConfig{}, err
	}
	tc := TriggerConfig{ID: d.ID, Axis: axis, Pin: d.Pin, Scrub: d.Scrub}
	if v, err := strconv.ParseFloat(d.Start, 64); err == nil {
		tc.Start = v
	} else {
		tc.StartPos = d.Start
	}
	if v, err := strconv.ParseFloat(d.End, 64); err == nil {
		tc.End = v
	} else {
		tc.EndPos = d.End
	}
	if tc.StartPos != "" || tc.EndPos != "" {
		if d.Element == "" {
			return TriggerConfig{}, fmt.Errorf("trigger %q: positions need an element: %w", d.ID, ErrInvalidConfig)
		}
		for _, p := range []string{tc.StartPos, tc.EndPos} {
			if p == "" {
				continue
			}
			if _, err := ParsePosition(p); err != nil {
				return TriggerConfig{}, err
			}
		}
	}
	if len(d.Snap) > 0 {
		tc.Snap = SnapConfig{Mode: SnapPoints, Points: d.Snap, Duration: d.SnapDuration, Ease: d.SnapEase}
	}
	if d.Element != "" && root != nil {
		tc.Element = root.FindByName(d.Element)
		if tc.Element == nil {
			return TriggerConfig{}, fmt.Errorf("trigger %q: no element %q: %w", d.ID, d.Element, ErrInvalidConfig)
		}
	}
	return tc, nil
}

// LaneConfig converts the document form for a single lane.
func (d LaneDoc) LaneConfig() (LaneConfig, error) {
	axis, err := parseAxis(d.Axis)
	if err != nil {
		return LaneConfig{}, err
	}
	dir, err := parseLaneDirection(d.Direction)
	if err != nil {
		return LaneConfig{}, err
	}
	mode, err := ParseInteractionMode(d.Interaction)
	if err != nil {
		return LaneConfig{}, err
	}
	lc := LaneConfig{
		SpeedPxPerSecond: d.Speed,
		FixedDuration:    d.Duration,
		Direction:        dir,
		Interaction:      mode,
		Axis:             axis,
		Gap:              d.Gap,
		PaddingEnd:       d.PaddingEnd,
	}
	// A grid template only needs a base duration.
	if len(d.Items) == 0 && lc.SpeedPxPerSecond == 0 && lc.FixedDuration == 0 {
		lc.FixedDuration = d.BaseDuration
		if lc.FixedDuration == 0 {
			lc.FixedDuration = DefaultLaneGridConfig().BaseDuration
		}
	}
	return lc, nil
}

// GridConfig converts a lane template into a LaneGridConfig over items.
func (d LaneDoc) GridConfig(items []Item) (LaneGridConfig, error) {
	lc, err := d.LaneConfig()
	if err != nil {
		return LaneGridConfig{}, err
	}
	gc := DefaultLaneGridConfig()
	gc.Name = d.Name
	gc.Items = items
	gc.Axis = lc.Axis
	gc.Interaction = lc.Interaction
	gc.Gap = d.Gap
	if d.PaddingEnd > 0 {
		gc.PaddingEnd = d.PaddingEnd
	}
	if d.ColumnGap > 0 {
		gc.ColumnGap = d.ColumnGap
	}
	if d.Copies > 0 {
		gc.Copies = d.Copies
	}
	if d.BaseDuration > 0 {
		gc.BaseDuration = d.BaseDuration
	}
	if len(d.Columns) > 0 {
		gc.Settings = d.Columns
	}
	for i, s := range gc.Settings {
		if s.Speed <= 0 {
			return LaneGridConfig{}, fmt.Errorf("lane %q column %d speed %v: %w", d.Name, i, s.Speed, ErrInvalidDuration)
		}
	}
	return gc, nil
}

func (d SegmentDoc) timelineConfig() (TimelineConfig, error) {
	drv, err := ParseDriver(d.Driver)
	if err != nil {
		return TimelineConfig{}, err
	}
	paused := d.Paused || (d.Trigger != "" && drv == DriverTime)
	return TimelineConfig{Delay: d.Delay, Driver: drv, Repeat: d.Repeat, Paused: paused}, nil
}

func (d SegmentDoc) toggleActions() (ToggleActions, error) {
	if d.ToggleActions == "" {
		return DefaultToggleActions(), nil
	}
	return ParseToggleActions(d.ToggleActions)
}

func (d SegmentDoc) validate() error {
	if _, err := d.timelineConfig(); err != nil {
		return err
	}
	if _, err := d.toggleActions(); err != nil {
		return err
	}
	if len(d.Tweens) == 0 {
		return fmt.Errorf("segment %q: no tweens: %w", d.Name, ErrInvalidConfig)
	}
	for _, tw := range d.Tweens {
		if _, _, err := tw.props(); err != nil {
			return err
		}
		if _, err := tw.options(); err != nil {
			return err
		}
		if len(tw.Targets) == 0 {
			return fmt.Errorf("segment %q: tween without targets: %w", d.Name, ErrInvalidConfig)
		}
	}
	return nil
}

// Builder resolves the segment's targets under root and returns a builder
// holding every step.
func (d SegmentDoc) Builder(root *Element) (*TimelineBuilder, error) {
	tc, err := d.timelineConfig()
	if err != nil {
		return nil, err
	}
	b := NewTimeline(tc)
	for _, tw := range d.Tweens {
		targets := make([]*Element, 0, len(tw.Targets))
		for _, name := range tw.Targets {
			el := root.FindByName(name)
			if el == nil {
				return nil, fmt.Errorf("segment %q: no element %q: %w", d.Name, name, ErrInvalidConfig)
			}
			targets = append(targets, el)
		}
		from, to, err := tw.props()
		if err != nil {
			return nil, err
		}
		opts, err := tw.options()
		if err != nil {
			return nil, err
		}
		switch {
		case tw.Set:
			b.Set(targets, to, tw.At)
		case from != nil:
			b.FromTo(targets, from, to, opts)
		default:
			b.To(targets, to, opts)
		}
	}
	return b, nil
}

func (tw TweenDoc) props() (from, to Props, err error) {
	if len(tw.To) == 0 {
		return nil, nil, fmt.Errorf("tween: empty to: %w", ErrInvalidConfig)
	}
	if to, err = parseProps(tw.To); err != nil {
		return nil, nil, err
	}
	if len(tw.From) > 0 {
		if from, err = parseProps(tw.From); err != nil {
			return nil, nil, err
		}
	}
	return from, to, nil
}

func (tw TweenDoc) options() (TweenOptions, error) {
	if _, err := LookupEase(tw.Ease); err != nil {
		return TweenOptions{}, err
	}
	st := Stagger{Each: tw.Stagger}
	switch tw.StaggerFrom {
	case "", "start":
	case "end":
		st.From = StaggerEnd
	default:
		return TweenOptions{}, fmt.Errorf("stagger from %q: %w", tw.StaggerFrom, ErrInvalidConfig)
	}
	return TweenOptions{Duration: tw.Duration, Ease: tw.Ease, Stagger: st, Position: tw.Position}, nil
}

func parseProps(m map[string]float64) (Props, error) {
	p := make(Props, len(m))
	for name, v := range m {
		prop, ok := ParseProperty(name)
		if !ok {
			return nil, fmt.Errorf("property %q: %w", name, ErrInvalidConfig)
		}
		p[prop] = v
	}
	return p, nil
}

func parseAxis(s string) (Axis, error) {
	switch s {
	case "", "vertical", "y":
		return AxisVertical, nil
	case "horizontal", "x":
		return AxisHorizontal, nil
	}
	return 0, fmt.Errorf("axis %q: %w", s, ErrInvalidConfig)
}

func parseLaneDirection(s string) (LaneDirection, error) {
	switch s {
	case "", "forward":
		return LaneForward, nil
	case "reversed", "reverse":
		return LaneReversed, nil
	}
	return 0, fmt.Errorf("lane direction %q: %w", s, ErrInvalidConfig)
}

// --- Apply ---

// Choreography holds everything Apply registered on a stage.
type Choreography struct {
	Triggers  map[string]*Trigger
	Timelines []*Timeline
	Lanes     []*LoopLane

	bindings   []*Binding
	responsive *Responsive
}

// Apply registers the document's triggers, single lanes and segments on s,
// resolving element names against the stage tree. Lane templates without
// items are skipped; build them with Stage.NewLaneGrid and GridConfig. On
// error everything registered so far is disposed.
func (c *Config) Apply(s *Stage) (*Choreography, error) {
	ch := &Choreography{
		Triggers:   make(map[string]*Trigger, len(c.Triggers)),
		responsive: s.responsive,
	}
	fail := func(err error) (*Choreography, error) {
		ch.Dispose()
		return nil, err
	}

	for _, d := range c.Triggers {
		tc, err := d.TriggerConfig(s.root)
		if err != nil {
			return fail(err)
		}
		t, err := s.triggers.Register(tc, TriggerCallbacks{})
		if err != nil {
			return fail(err)
		}
		ch.Triggers[t.ID()] = t
	}

	for _, d := range c.Lanes {
		if len(d.Items) == 0 {
			continue
		}
		lc, err := d.LaneConfig()
		if err != nil {
			return fail(err)
		}
		items := make([]LaneItem, 0, len(d.Items))
		for _, name := range d.Items {
			el := s.root.FindByName(name)
			if el == nil {
				return fail(fmt.Errorf("lane %q: no element %q: %w", d.Name, name, ErrInvalidConfig))
			}
			size := el.Height
			if lc.Axis == AxisHorizontal {
				size = el.Width
			}
			items = append(items, LaneItem{Element: el, Size: size})
		}
		lane, err := NewLoopLane(s.sched, lc, items)
		lane.SetLogger(componentLogger(s.logger, "lane"))
		if err != nil {
			s.logger.Warn("lane static", "lane", d.Name, "err", err)
		}
		ch.Lanes = append(ch.Lanes, lane)
		s.responsive.Register(lane)
		for _, it := range items {
			ch.bindings = append(ch.bindings, s.interaction.Bind(it.Element, lane, lc.Interaction))
		}
	}

	for _, d := range c.Segments {
		b, err := d.Builder(s.root)
		if err != nil {
			return fail(err)
		}
		tl, err := b.Build(s.sched)
		if err != nil {
			return fail(err)
		}
		ch.Timelines = append(ch.Timelines, tl)
		if d.Trigger == "" {
			continue
		}
		t := ch.Triggers[d.Trigger]
		if t == nil {
			return fail(fmt.Errorf("segment %q: unknown trigger %q: %w", d.Name, d.Trigger, ErrInvalidConfig))
		}
		if tl.cfg.Driver == DriverProgress {
			tl.Scrub(t)
			continue
		}
		acts, err := d.toggleActions()
		if err != nil {
			return fail(err)
		}
		tl.BindToggle(t, acts)
	}
	return ch, nil
}

// Dispose removes everything the choreography registered. Idempotent.
func (ch *Choreography) Dispose() {
	for _, b := range ch.bindings {
		b.Remove()
	}
	ch.bindings = nil
	for _, tl := range ch.Timelines {
		tl.Dispose()
	}
	for _, l := range ch.Lanes {
		if ch.responsive != nil {
			ch.responsive.Unregister(l)
		}
		l.Dispose()
	}
	for _, t := range ch.Triggers {
		t.Dispose()
	}
}
