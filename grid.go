package cadence

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
)

// Item is an input to a LaneGrid: a piece of content with either an
// explicit size along the lane axis or an aspect ratio (length over width)
// measured against the column width.
type Item struct {
	ID     string
	Size   float64
	Aspect float64
	Image  *ebiten.Image
	Color  Color
}

// Measure returns the item's length along the lane axis in a column of the
// given width. Zero means unmeasured.
func (it Item) Measure(columnWidth float64) float64 {
	if it.Size > 0 {
		return it.Size
	}
	if it.Aspect > 0 && columnWidth > 0 {
		return it.Aspect * columnWidth
	}
	if it.Image != nil {
		b := it.Image.Bounds()
		if b.Dx() > 0 && columnWidth > 0 {
			return float64(b.Dy()) / float64(b.Dx()) * columnWidth
		}
	}
	return 0
}

// ColumnSettings tunes one column. Settings apply to columns cyclically.
type ColumnSettings struct {
	Speed    float64 `yaml:"speed"`
	Reversed bool    `yaml:"reversed"`
}

// LaneGridConfig configures a LaneGrid.
type LaneGridConfig struct {
	Name     string
	Items    []Item
	Settings []ColumnSettings

	Interaction InteractionMode
	Axis        Axis

	Gap        float64
	PaddingEnd float64
	ColumnGap  float64

	// Copies is the minimum number of times each column's items repeat so
	// the loop always covers the band.
	Copies int
	// BaseDuration divided by a column's speed gives its period.
	BaseDuration float64
}

// DefaultLaneGridConfig returns a vertical grid with the poster wall
// defaults: 20 px end padding, 4 copies and a 20 s base duration.
func DefaultLaneGridConfig() LaneGridConfig {
	return LaneGridConfig{
		Settings:     []ColumnSettings{{Speed: 1}},
		Interaction:  InteractClick,
		Axis:         AxisVertical,
		Gap:          0,
		PaddingEnd:   20,
		ColumnGap:    16,
		Copies:       4,
		BaseDuration: 20,
	}
}

// LaneGrid distributes items round-robin into responsive columns, each of
// which is an independent LoopLane. A change in column count rebuilds the
// grid; any other resize remeasures the existing lanes.
type LaneGrid struct {
	cfg    LaneGridConfig
	sched  *Scheduler
	ic     *InteractionController
	logger *slog.Logger

	root     *Element
	columns  []*Element
	lanes    []*LoopLane
	bindings []*Binding
	metrics  Metrics
	disposed bool
}

// NewLaneGrid creates an empty grid. Columns are built by the first
// Recompute; register the grid with a Responsive to get one.
func NewLaneGrid(sched *Scheduler, ic *InteractionController, cfg LaneGridConfig, logger *slog.Logger) *LaneGrid {
	if sched == nil {
		panic("cadence: lane grid needs a scheduler")
	}
	if cfg.Copies < 1 {
		cfg.Copies = 1
	}
	if cfg.BaseDuration <= 0 {
		cfg.BaseDuration = 20
	}
	if len(cfg.Settings) == 0 {
		cfg.Settings = []ColumnSettings{{Speed: 1}}
	}
	name := cfg.Name
	if name == "" {
		name = "lanegrid"
	}
	return &LaneGrid{
		cfg:    cfg,
		sched:  sched,
		ic:     ic,
		logger: componentLogger(logger, "lanegrid"),
		root:   NewElement(name),
	}
}

// Root returns the container element holding every column.
func (g *LaneGrid) Root() *Element { return g.root }

// Lanes returns the current lanes, one per column. The returned slice MUST
// NOT be mutated.
func (g *LaneGrid) Lanes() []*LoopLane { return g.lanes }

// Columns returns the current column elements.
func (g *LaneGrid) Columns() []*Element { return g.columns }

// Metrics returns the metrics of the last recompute.
func (g *LaneGrid) Metrics() Metrics { return g.metrics }

// ItemCount returns the number of distinct input items placed in columns,
// not counting repeats.
func (g *LaneGrid) ItemCount() int {
	n := 0
	for c := range g.columns {
		n += len(distribute(len(g.cfg.Items), len(g.columns), c))
	}
	return n
}

// Recompute applies new metrics. When the column count changes the grid is
// rebuilt: new columns and lanes are built before the old ones are torn
// down, then swapped in. Otherwise every column is remeasured in place and
// its lane invalidated, keeping playhead phase, paused state and any
// exclusive click pause.
func (g *LaneGrid) Recompute(m Metrics) {
	if g.disposed {
		return
	}
	cols := m.Columns
	if cols < 1 {
		cols = 1
	}
	colWidth := (m.Width - float64(cols-1)*g.cfg.ColumnGap) / float64(cols)
	if !(colWidth > 0) {
		g.logger.Warn("grid too narrow", "width", m.Width, "columns", cols)
		colWidth = 0
	}
	if len(g.columns) == cols {
		g.resize(m, colWidth)
		return
	}

	columns := make([]*Element, cols)
	lanes := make([]*LoopLane, cols)
	bindings := make([]*Binding, cols)
	for c := range cols {
		col := NewElement(fmt.Sprintf("%s/col%d", g.root.Name, c))
		g.placeColumn(col, c, colWidth, m)

		idx := g.columnIndices(distribute(len(g.cfg.Items), cols, c), colWidth, g.band(m))
		items := make([]LaneItem, len(idx))
		for k, i := range idx {
			items[k] = g.newItem(col, i, k, colWidth)
		}

		lane, err := NewLoopLane(g.sched, g.laneConfig(c), items)
		if err != nil {
			g.logger.Debug("column static", "column", c, "err", err)
		}
		lane.SetLogger(g.logger)

		columns[c] = col
		lanes[c] = lane
		if g.ic != nil {
			bindings[c] = g.ic.Bind(col, lane, g.cfg.Interaction)
		}
	}

	g.teardown()
	for _, col := range columns {
		g.root.AddChild(col)
	}
	g.columns = columns
	g.lanes = lanes
	g.bindings = bindings
	g.metrics = m
	g.logger.Debug("grid rebuilt", "columns", cols, "columnWidth", colWidth, "items", len(g.cfg.Items))
}

// resize remeasures every column for new metrics without replacing its lane.
// Item elements are reused when the repeat count is unchanged.
func (g *LaneGrid) resize(m Metrics, colWidth float64) {
	cols := len(g.columns)
	for c, col := range g.columns {
		g.placeColumn(col, c, colWidth, m)

		idx := g.columnIndices(distribute(len(g.cfg.Items), cols, c), colWidth, g.band(m))
		lane := g.lanes[c]
		old := lane.Items()
		items := make([]LaneItem, len(idx))
		if len(old) == len(idx) {
			for k, i := range idx {
				el := old[k].Element
				size := g.cfg.Items[i].Measure(colWidth)
				if g.cfg.Axis == AxisHorizontal {
					el.SetSize(size, colWidth)
				} else {
					el.SetSize(colWidth, size)
				}
				items[k] = LaneItem{Element: el, Size: size}
			}
		} else {
			for _, it := range old {
				if it.Element != nil {
					it.Element.Dispose()
				}
			}
			for k, i := range idx {
				items[k] = g.newItem(col, i, k, colWidth)
			}
		}
		if err := lane.Invalidate(items); err != nil {
			g.logger.Debug("column static", "column", c, "err", err)
		}
	}
	g.metrics = m
	g.logger.Debug("grid resized", "columns", cols, "columnWidth", colWidth)
}

func (g *LaneGrid) placeColumn(col *Element, c int, colWidth float64, m Metrics) {
	cross := float64(c) * (colWidth + g.cfg.ColumnGap)
	if g.cfg.Axis == AxisHorizontal {
		col.SetPosition(0, cross)
		col.SetSize(m.Width, colWidth)
	} else {
		col.SetPosition(cross, 0)
		col.SetSize(colWidth, m.Height)
	}
}

func (g *LaneGrid) band(m Metrics) float64 {
	if g.cfg.Axis == AxisHorizontal {
		return m.Width
	}
	return m.Height
}

func (g *LaneGrid) laneConfig(c int) LaneConfig {
	set := g.cfg.Settings[c%len(g.cfg.Settings)]
	lc := LaneConfig{
		Interaction: g.cfg.Interaction,
		Axis:        g.cfg.Axis,
		Gap:         g.cfg.Gap,
		PaddingEnd:  g.cfg.PaddingEnd,
	}
	if set.Speed > 0 {
		lc.FixedDuration = g.cfg.BaseDuration / set.Speed
	}
	if set.Reversed {
		lc.Direction = LaneReversed
	}
	return lc
}

// columnIndices repeats a column's item indices so the loop covers band.
func (g *LaneGrid) columnIndices(idx []int, colWidth, band float64) []int {
	if len(idx) == 0 {
		return nil
	}
	run := 0.0
	for _, i := range idx {
		run += g.cfg.Items[i].Measure(colWidth) + g.cfg.Gap
	}
	// Columns too short to loop stay static; repeating them would hide that.
	if len(idx) >= minLaneItems {
		idx = RepeatItems(idx, CopiesToCover(run, band, g.cfg.Copies))
	}
	return idx
}

// newItem creates the element for copy k of item i in col.
func (g *LaneGrid) newItem(col *Element, i, k int, colWidth float64) LaneItem {
	src := g.cfg.Items[i]
	size := src.Measure(colWidth)
	el := NewElement(fmt.Sprintf("%s/%s#%d", col.Name, src.ID, k))
	el.Image = src.Image
	el.Fill = src.Image == nil
	el.Color = src.Color
	if el.Color == (Color{}) {
		el.Color = ColorWhite
	}
	if g.cfg.Axis == AxisHorizontal {
		el.SetSize(size, colWidth)
	} else {
		el.SetSize(colWidth, size)
	}
	el.UserData = src.ID
	col.AddChild(el)
	return LaneItem{Element: el, Size: size}
}

// distribute returns the indices of n items that land in column c of cols
// when dealt round-robin.
func distribute(n, cols, c int) []int {
	if cols < 1 || c < 0 || c >= cols {
		return nil
	}
	out := make([]int, 0, int(math.Ceil(float64(n)/float64(cols))))
	for i := c; i < n; i += cols {
		out = append(out, i)
	}
	return out
}

func (g *LaneGrid) teardown() {
	for _, b := range g.bindings {
		b.Remove()
	}
	for _, l := range g.lanes {
		l.Dispose()
	}
	for _, col := range g.columns {
		col.Dispose()
	}
	g.bindings = nil
	g.lanes = nil
	g.columns = nil
}

// Dispose tears the grid down. Idempotent.
func (g *LaneGrid) Dispose() {
	if g.disposed {
		return
	}
	g.teardown()
	g.disposed = true
	g.root.Dispose()
}
