package cadence

// syntheticKind identifies an injected input event.
type syntheticKind uint8

const (
	syntheticPointer syntheticKind = iota
	syntheticWheel
	syntheticResize
)

// syntheticEvent is a single injected input event. Pointer coordinates are
// screen coordinates, hit tested exactly like real mouse input.
type syntheticEvent struct {
	kind             syntheticKind
	screenX, screenY float64
	pressed          bool
	button           MouseButton
	delta            float64
	source           InputSource
	width, height    int
}

// InjectWheel queues a scroll delta in pixels (positive scrolls forward).
// Consumed on the next frame.
func (s *Stage) InjectWheel(delta float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: syntheticWheel, delta: delta, source: InputWheel})
}

// InjectTouchScroll queues a touch drag delta in pixels.
func (s *Stage) InjectTouchScroll(delta float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: syntheticWheel, delta: delta, source: InputTouch})
}

// InjectMove queues a pointer move without a button held. Use it to hover.
func (s *Stage) InjectMove(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		kind: syntheticPointer, screenX: x, screenY: y,
	})
}

// InjectPress queues a left-button press at the given screen coordinates.
func (s *Stage) InjectPress(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		kind: syntheticPointer, screenX: x, screenY: y,
		pressed: true, button: MouseButtonLeft,
	})
}

// InjectRelease queues a left-button release at the given screen coordinates.
func (s *Stage) InjectRelease(x, y float64) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{
		kind: syntheticPointer, screenX: x, screenY: y,
		pressed: false, button: MouseButtonLeft,
	})
}

// InjectClick is a convenience that queues a press followed by a release
// at the same screen coordinates. Consumes two frames.
func (s *Stage) InjectClick(x, y float64) {
	s.InjectPress(x, y)
	s.InjectRelease(x, y)
}

// InjectResize queues a change of the logical screen size.
func (s *Stage) InjectResize(w, h int) {
	s.injectQueue = append(s.injectQueue, syntheticEvent{kind: syntheticResize, width: w, height: h})
}

// PendingInput returns the number of queued synthetic events.
func (s *Stage) PendingInput() int { return len(s.injectQueue) }

// processInjectedInput pops one event from the inject queue and applies it.
// Returns true if an event was consumed.
func (s *Stage) processInjectedInput() bool {
	if len(s.injectQueue) == 0 {
		return false
	}
	evt := s.injectQueue[0]
	copy(s.injectQueue, s.injectQueue[1:])
	s.injectQueue[len(s.injectQueue)-1] = syntheticEvent{}
	s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]

	switch evt.kind {
	case syntheticWheel:
		s.smoother.AddDelta(evt.delta, evt.source)
	case syntheticResize:
		s.Resize(evt.width, evt.height)
	default:
		s.processPointer(0, evt.screenX, evt.screenY, evt.pressed, evt.button)
	}
	return true
}
