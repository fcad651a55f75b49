package cadence

import (
	"fmt"
	"log/slog"
	"os"
	"time"
)

// defaultLogger writes warnings and above to stderr. Stages replace it with
// SetLogger; components receive a child logger tagged with their name.
func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// componentLogger returns l tagged with a component name, falling back to
// the default logger when l is nil.
func componentLogger(l *slog.Logger, component string) *slog.Logger {
	if l == nil {
		l = defaultLogger()
	}
	return l.With("component", component)
}

// debugStats holds per-frame timing. Only populated when Stage.debug is true.
type debugStats struct {
	inputTime   time.Duration
	frameTime   time.Duration
	drawTime    time.Duration
	triggers    int
	timelines   int
	lanes       int
	generation  uint64
	commitSkips int
}

// debugLog prints timing stats at debug level.
func (s *Stage) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	s.logger.Debug("frame",
		"frame", s.sched.Frame(),
		"input", stats.inputTime,
		"chain", stats.frameTime,
		"draw", stats.drawTime,
		"triggers", stats.triggers,
		"timelines", stats.timelines,
		"lanes", stats.lanes,
		"generation", stats.generation,
		"discarded", stats.commitSkips,
	)
}

// debugCheckDisposed panics with a descriptive message when a disposed
// element is used in a tree operation. Only called in debug mode.
func debugCheckDisposed(e *Element, op string) {
	if e.disposed {
		panic(fmt.Sprintf("cadence debug: %s on disposed element %q", op, e.Name))
	}
}

const debugMaxTreeDepth = 32

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
func debugCheckTreeDepth(e *Element) {
	depth := 0
	for p := e; p != nil; p = p.Parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		debugLogger.Warn("tree depth exceeds threshold",
			"depth", depth, "threshold", debugMaxTreeDepth, "element", e.Name)
	}
}

// globalDebug mirrors the most recently set Stage debug flag so that element
// operations (which lack a Stage pointer) can check it cheaply. Only valid
// with a single Stage.
var (
	globalDebug bool
	debugLogger = defaultLogger()
)
