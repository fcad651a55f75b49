package cadence

import "errors"

// Error taxonomy. Constructors and registration calls return these wrapped
// with context; per-frame evaluation never returns them and instead degrades
// to the last valid static state.
var (
	// ErrMissingGeometry marks an item with a zero or unmeasured size. The
	// owning lane is rendered statically.
	ErrMissingGeometry = errors.New("cadence: missing geometry")

	// ErrInvalidTriggerBoundary rejects a trigger whose start is not before
	// its end.
	ErrInvalidTriggerBoundary = errors.New("cadence: invalid trigger boundary")

	// ErrDisposedTarget reports that an element was disposed while an
	// animation still referenced it. Updates to it are skipped. An element
	// merely removed from its parent is still animated and may be re-added.
	ErrDisposedTarget = errors.New("cadence: disposed target")

	// ErrResizeRace reports that geometry changed while a frame was being
	// evaluated. The frame's values are discarded.
	ErrResizeRace = errors.New("cadence: geometry changed mid-frame")

	// ErrInvalidDuration rejects non-positive durations, speeds and periods.
	ErrInvalidDuration = errors.New("cadence: invalid duration")

	// ErrInvalidConfig wraps any other validation failure.
	ErrInvalidConfig = errors.New("cadence: invalid config")
)
