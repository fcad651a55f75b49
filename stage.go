package cadence

import (
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// StageConfig configures a Stage.
type StageConfig struct {
	Width, Height int
	Axis          Axis

	Smoothing  SmoothingConfig
	Responsive ResponsiveConfig

	// ScrollLimit is the largest scroll offset. Zero means unlimited.
	ScrollLimit float64

	// ClearColor fills the screen before drawing when its alpha is non-zero.
	ClearColor Color

	Logger *slog.Logger
	Debug  bool
}

// DefaultStageConfig returns an 800x600 vertical stage with default
// smoothing and responsive tiers.
func DefaultStageConfig() StageConfig {
	return StageConfig{
		Width:      800,
		Height:     600,
		Axis:       AxisVertical,
		Smoothing:  DefaultSmoothingConfig(),
		Responsive: DefaultResponsiveConfig(),
	}
}

const defaultCommandCap = 256

// Stage is the top-level object that owns the element tree, the frame
// scheduler and every engine component driven by it. One Stage is one view:
// one scroll position, one per-frame callback chain.
type Stage struct {
	cfg    StageConfig
	root   *Element
	logger *slog.Logger
	debug  bool
	sink   EventSink

	sched       *Scheduler
	smoother    *Smoother
	triggers    *TriggerRegistry
	interaction *InteractionController
	responsive  *Responsive
	viewport    *Viewport

	// ResizeRace guard: commits only land under the generation their frame
	// started with.
	frameGen    uint64
	commitSkips int

	width, height int
	updateFunc    func() error

	// Render state
	commands []drawCommand

	// Input state
	handlers     handlerRegistry
	pointers     [maxPointers]pointerState
	hitBuf       []*Element
	touchMap     [maxPointers]ebiten.TouchID
	touchUsed    [maxPointers]bool
	prevTouchIDs []ebiten.TouchID
	touchScroll  touchScrollState
	injectQueue  []syntheticEvent
	runner       *ScriptRunner

	stats debugStats
}

// NewStage creates a stage and wires its components.
func NewStage(cfg StageConfig) *Stage {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 800, 600
	}
	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	root := NewElement("root")
	root.Interactable = true

	s := &Stage{
		cfg:      cfg,
		root:     root,
		logger:   logger,
		sched:    NewScheduler(),
		width:    cfg.Width,
		height:   cfg.Height,
		commands: make([]drawCommand, 0, defaultCommandCap),
	}

	// Registration order inside a phase is execution order: the generation
	// snapshot precedes the smoother, the viewport sync follows it.
	s.sched.Add(PhaseScroll, s.beginFrame)
	s.smoother = NewSmoother(s.sched, cfg.Smoothing)
	s.smoother.SetLimit(cfg.ScrollLimit)
	s.sched.Add(PhaseScroll, s.syncViewport)

	s.triggers = NewTriggerRegistry(s.sched, s.smoother, logger)
	s.triggers.SetViewport(float64(cfg.Width), float64(cfg.Height))
	s.interaction = NewInteractionController(logger)
	s.responsive = NewResponsive(s.sched, cfg.Responsive, logger)
	s.responsive.SetFinal(s.triggers)
	s.viewport = NewViewport(Rect{Width: float64(cfg.Width), Height: float64(cfg.Height)}, cfg.Axis)

	s.sched.Add(PhaseCommit, s.commit)
	s.responsive.Resize(float64(cfg.Width), float64(cfg.Height))

	if cfg.Debug {
		s.SetDebugMode(true)
	}
	return s
}

// Root returns the stage's root element.
func (s *Stage) Root() *Element { return s.root }

// Scheduler returns the stage's frame scheduler.
func (s *Stage) Scheduler() *Scheduler { return s.sched }

// Smoother returns the scroll smoother.
func (s *Stage) Smoother() *Smoother { return s.smoother }

// Triggers returns the trigger registry.
func (s *Stage) Triggers() *TriggerRegistry { return s.triggers }

// Interaction returns the interaction controller.
func (s *Stage) Interaction() *InteractionController { return s.interaction }

// Responsive returns the responsive recompute controller.
func (s *Stage) Responsive() *Responsive { return s.responsive }

// Viewport returns the viewport.
func (s *Stage) Viewport() *Viewport { return s.viewport }

// Logger returns the stage logger.
func (s *Stage) Logger() *slog.Logger { return s.logger }

// SetLogger replaces the stage logger. Components created afterwards pick up
// the new logger.
func (s *Stage) SetLogger(l *slog.Logger) {
	if l == nil {
		l = defaultLogger()
	}
	s.logger = l
	s.triggers.logger = componentLogger(l, "trigger")
	s.interaction.logger = componentLogger(l, "interaction")
	s.responsive.logger = componentLogger(l, "responsive")
}

// SetEventSink sets the optional external event consumer (see cadence/ecs).
// Lifecycle and pointer events are both forwarded.
func (s *Stage) SetEventSink(sink EventSink) {
	s.sink = sink
	s.triggers.SetEventSink(sink)
}

// SetUpdateFunc sets a callback run once per Update before the frame chain.
// A non-nil error stops the game loop.
func (s *Stage) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-element
// tree operations panic, deep trees are reported and per-frame timing is
// logged at debug level.
func (s *Stage) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
	if enabled {
		debugLogger = s.logger
	}
}

// SetScrollLimit sets the largest scroll offset. Zero means unlimited.
func (s *Stage) SetScrollLimit(max float64) {
	s.smoother.SetLimit(max)
}

// CommitSkips returns how many frame commits were discarded because the
// geometry changed under them.
func (s *Stage) CommitSkips() int { return s.commitSkips }

// NewLaneGrid creates a lane grid under the root element and registers it
// for responsive rebuilds.
func (s *Stage) NewLaneGrid(cfg LaneGridConfig) *LaneGrid {
	g := NewLaneGrid(s.sched, s.interaction, cfg, s.logger)
	s.root.AddChild(g.Root())
	s.responsive.Register(g)
	return g
}

// RemoveLaneGrid disposes a grid created by NewLaneGrid.
func (s *Stage) RemoveLaneGrid(g *LaneGrid) {
	s.responsive.Unregister(g)
	g.Dispose()
}

// Update implements ebiten.Game. It reads real input and advances one frame
// of 1/TPS seconds.
func (s *Stage) Update() error {
	if s.updateFunc != nil {
		if err := s.updateFunc(); err != nil {
			return err
		}
	}
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	if len(s.injectQueue) == 0 {
		s.processInput()
	}
	if s.debug {
		s.stats.inputTime = time.Since(t0)
	}
	s.Advance(1.0 / float64(ebiten.TPS()))
	return nil
}

// Advance runs one deterministic frame of dt seconds: script step, one
// injected input event, then the scheduler chain. Tests and headless
// rendering drive the stage through Advance.
func (s *Stage) Advance(dt float64) {
	if s.runner != nil {
		s.runner.step(s)
	}
	s.processInjectedInput()

	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	s.sched.Tick(dt)
	if s.debug {
		s.stats.frameTime = time.Since(t0)
		s.stats.triggers = s.triggers.Len()
		s.stats.timelines = s.sched.Count(PhaseTimeline)
		s.stats.lanes = s.sched.Count(PhaseLoop)
		s.stats.generation = s.sched.Generation()
		s.stats.commitSkips = s.commitSkips
		s.debugLog(s.stats)
	}
}

// Layout implements ebiten.Game. A new outside size is reported to the
// responsive controller, which rebuilds after its debounce.
func (s *Stage) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != s.width || outsideHeight != s.height {
		s.Resize(outsideWidth, outsideHeight)
	}
	return s.width, s.height
}

// Resize changes the logical screen size.
func (s *Stage) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	s.width, s.height = w, h
	s.viewport.SetRect(Rect{Width: float64(w), Height: float64(h)})
	s.responsive.Resize(float64(w), float64(h))
}

// Size returns the logical screen size.
func (s *Stage) Size() (int, int) { return s.width, s.height }

func (s *Stage) beginFrame(float64) {
	s.frameGen = s.sched.Generation()
}

func (s *Stage) syncViewport(float64) {
	s.viewport.SetScroll(s.smoother.State().Smoothed)
}

// commit refreshes world transforms and snapshots the values the render
// layer reads. A frame that started under an older geometry generation is
// discarded; the next frame commits.
func (s *Stage) commit(float64) {
	if gen := s.sched.Generation(); gen != s.frameGen {
		s.commitSkips++
		s.logger.Debug("commit discarded", "err", ErrResizeRace, "frameGen", s.frameGen, "gen", gen)
		return
	}
	updateWorldTransform(s.root, identityTransform, 1.0, false)
	commitTree(s.root)
}

func commitTree(e *Element) {
	e.committed = RenderValues{
		Transform: e.worldTransform,
		Alpha:     e.worldAlpha,
		Blur:      e.Blur,
		Visible:   e.Visible,
	}
	for _, c := range e.children {
		commitTree(c)
	}
}
