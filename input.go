package cadence

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// --- Constants ---

const (
	maxPointers = 10 // pointer 0 = mouse, 1-9 = touch

	// wheelLinePixels converts one wheel notch to scroll pixels.
	wheelLinePixels = 60.0
)

// --- Built-in HitShape types ---

// HitRect is an axis-aligned rectangular hit area in local coordinates.
type HitRect struct {
	X, Y, Width, Height float64
}

// Contains reports whether (x, y) lies inside the rectangle.
func (r HitRect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// HitCircle is a circular hit area in local coordinates.
type HitCircle struct {
	CenterX, CenterY, Radius float64
}

// Contains reports whether (x, y) lies inside or on the circle.
func (c HitCircle) Contains(x, y float64) bool {
	dx := x - c.CenterX
	dy := y - c.CenterY
	return dx*dx+dy*dy <= c.Radius*c.Radius
}

// --- Per-pointer state ---

type pointerState struct {
	down    bool
	hitEl   *Element
	hoverEl *Element // last element the pointer was over (for enter/leave)
	button  MouseButton
	lastX   float64
	lastY   float64
}

// touchScrollState turns a single-finger drag into scroll deltas.
type touchScrollState struct {
	active bool
	id     ebiten.TouchID
	last   float64
}

// --- Stage-level event registration ---

// OnPointerEnter registers a stage-level callback for pointer enter events.
func (s *Stage) OnPointerEnter(fn func(Event)) CallbackHandle {
	return s.handlers.add(EventPointerEnter, fn)
}

// OnPointerLeave registers a stage-level callback for pointer leave events.
func (s *Stage) OnPointerLeave(fn func(Event)) CallbackHandle {
	return s.handlers.add(EventPointerLeave, fn)
}

// OnClick registers a stage-level callback for click events.
func (s *Stage) OnClick(fn func(Event)) CallbackHandle {
	return s.handlers.add(EventClick, fn)
}

// --- Hit testing ---

// screenTransform returns the element's committed transform composed with
// the view (or, for Fixed subtrees, the screen) matrix.
func (s *Stage) screenTransform(e *Element) [6]float64 {
	if isFixed(e) {
		return multiplyAffine(s.viewport.screenMatrix(), e.committed.Transform)
	}
	return multiplyAffine(s.viewport.computeViewMatrix(), e.committed.Transform)
}

// isFixed reports whether e or any ancestor is Fixed.
func isFixed(e *Element) bool {
	for p := e; p != nil; p = p.Parent {
		if p.Fixed {
			return true
		}
	}
	return false
}

// elementContainsLocal tests whether (lx, ly) falls inside an element's hit
// region. Uses HitShape if set; otherwise the measured box.
func elementContainsLocal(e *Element, lx, ly float64) bool {
	if e.HitShape != nil {
		return e.HitShape.Contains(lx, ly)
	}
	if e.Width <= 0 || e.Height <= 0 {
		return false
	}
	return lx >= 0 && lx <= e.Width && ly >= 0 && ly <= e.Height
}

// collectInteractable walks the tree in paint order, appending interactable
// elements to buf. Invisible subtrees are skipped.
func collectInteractable(e *Element, buf []*Element) []*Element {
	if !e.Visible || e.disposed {
		return buf
	}
	if e.Interactable && e.Parent != nil {
		buf = append(buf, e)
	}
	for _, child := range e.orderedChildren() {
		buf = collectInteractable(child, buf)
	}
	return buf
}

// hitTest finds the topmost interactable element at screen point (sx, sy).
func (s *Stage) hitTest(sx, sy float64) *Element {
	s.hitBuf = collectInteractable(s.root, s.hitBuf[:0])
	for i := len(s.hitBuf) - 1; i >= 0; i-- {
		e := s.hitBuf[i]
		inv := invertAffine(s.screenTransform(e))
		lx, ly := transformPoint(inv, sx, sy)
		if elementContainsLocal(e, lx, ly) {
			return e
		}
	}
	return nil
}

// HitTest returns the topmost interactable element at a screen point, or nil.
func (s *Stage) HitTest(x, y float64) *Element {
	return s.hitTest(x, y)
}

// --- Input processing ---

// processInput reads real mouse, wheel and touch input. Called from Update.
func (s *Stage) processInput() {
	wx, wy := ebiten.Wheel()
	delta := -wy
	if s.cfg.Axis == AxisHorizontal {
		delta = -wx
		if delta == 0 {
			delta = -wy
		}
	}
	if delta != 0 {
		s.smoother.AddDelta(delta*wheelLinePixels, InputWheel)
	}

	mx, my := ebiten.CursorPosition()
	var pressed bool
	var button MouseButton
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		pressed, button = true, MouseButtonLeft
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight):
		pressed, button = true, MouseButtonRight
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle):
		pressed, button = true, MouseButtonMiddle
	}
	s.processPointer(0, float64(mx), float64(my), pressed, button)

	s.processTouch()
}

// processTouch feeds touches through the pointer state machine and turns the
// first finger's drag into scroll input.
func (s *Stage) processTouch() {
	touchIDs := ebiten.AppendTouchIDs(s.prevTouchIDs[:0])
	s.prevTouchIDs = touchIDs

	var activeSlots [maxPointers]bool
	for _, tid := range touchIDs {
		slot := s.touchSlot(tid)
		if slot < 0 {
			continue
		}
		activeSlots[slot] = true
		tx, ty := ebiten.TouchPosition(tid)
		s.processPointer(slot, float64(tx), float64(ty), true, MouseButtonLeft)
	}

	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && !activeSlots[i] {
			ps := &s.pointers[i]
			if ps.down {
				s.processPointer(i, ps.lastX, ps.lastY, false, MouseButtonLeft)
			}
			s.touchUsed[i] = false
			s.touchMap[i] = 0
		}
	}

	ts := &s.touchScroll
	if len(touchIDs) == 0 {
		ts.active = false
		return
	}
	if !ts.active || !containsTouch(touchIDs, ts.id) {
		ts.active = true
		ts.id = touchIDs[0]
		ts.last = s.touchCoord(ts.id)
		return
	}
	cur := s.touchCoord(ts.id)
	if d := ts.last - cur; d != 0 {
		s.smoother.AddDelta(d, InputTouch)
	}
	ts.last = cur
}

func (s *Stage) touchCoord(id ebiten.TouchID) float64 {
	x, y := ebiten.TouchPosition(id)
	if s.cfg.Axis == AxisHorizontal {
		return float64(x)
	}
	return float64(y)
}

func containsTouch(ids []ebiten.TouchID, id ebiten.TouchID) bool {
	for _, t := range ids {
		if t == id {
			return true
		}
	}
	return false
}

// touchSlot maps an ebiten.TouchID to a pointer slot (1-9).
// Returns the existing slot or allocates a new one. Returns -1 if full.
func (s *Stage) touchSlot(tid ebiten.TouchID) int {
	for i := 1; i < maxPointers; i++ {
		if s.touchUsed[i] && s.touchMap[i] == tid {
			return i
		}
	}
	for i := 1; i < maxPointers; i++ {
		if !s.touchUsed[i] {
			s.touchUsed[i] = true
			s.touchMap[i] = tid
			return i
		}
	}
	return -1
}

// processPointer runs the pointer state machine for a single pointer at
// screen coordinates (sx, sy).
func (s *Stage) processPointer(pointerID int, sx, sy float64, pressed bool, button MouseButton) {
	ps := &s.pointers[pointerID]
	target := s.hitTest(sx, sy)

	if ps.hoverEl != nil && ps.hoverEl.disposed {
		ps.hoverEl = nil
	}
	if target != ps.hoverEl {
		if ps.hoverEl != nil {
			s.firePointer(EventPointerLeave, ps.hoverEl, pointerID, sx, sy, button)
		}
		if target != nil {
			s.firePointer(EventPointerEnter, target, pointerID, sx, sy, button)
		}
		ps.hoverEl = target
	}

	switch {
	case pressed && !ps.down:
		ps.down = true
		ps.button = button
		ps.hitEl = target
	case !pressed && ps.down:
		if ps.hitEl != nil && ps.hitEl == target {
			s.fireClick(target, pointerID, sx, sy, ps.button)
		}
		ps.down = false
		ps.hitEl = nil
	}
	ps.lastX, ps.lastY = sx, sy
}

func (s *Stage) pointerContext(e *Element, pointerID int, sx, sy float64, button MouseButton) PointerContext {
	lx, ly := transformPoint(invertAffine(s.screenTransform(e)), sx, sy)
	gx, gy := s.viewport.ScreenToWorld(sx, sy)
	return PointerContext{
		Element: e, UserData: e.UserData,
		GlobalX: gx, GlobalY: gy, LocalX: lx, LocalY: ly,
		Button: button, PointerID: pointerID,
	}
}

func (s *Stage) firePointer(typ EventType, e *Element, pointerID int, sx, sy float64, button MouseButton) {
	ctx := s.pointerContext(e, pointerID, sx, sy, button)
	ev := Event{Type: typ, ElementID: e.ID, X: ctx.GlobalX, Y: ctx.GlobalY, Button: button}
	// Stage-level handlers first.
	s.handlers.emit(ev)
	// Per-element callback.
	switch typ {
	case EventPointerEnter:
		if e.OnPointerEnter != nil {
			e.OnPointerEnter(ctx)
		}
	case EventPointerLeave:
		if e.OnPointerLeave != nil {
			e.OnPointerLeave(ctx)
		}
	}
	// ECS bridge.
	if s.sink != nil {
		s.sink.EmitEvent(ev)
	}
}

func (s *Stage) fireClick(e *Element, pointerID int, sx, sy float64, button MouseButton) {
	pc := s.pointerContext(e, pointerID, sx, sy, button)
	ctx := ClickContext(pc)
	ev := Event{Type: EventClick, ElementID: e.ID, X: ctx.GlobalX, Y: ctx.GlobalY, Button: button}
	s.handlers.emit(ev)
	if e.OnClick != nil {
		e.OnClick(ctx)
	}
	if s.sink != nil {
		s.sink.EmitEvent(ev)
	}
}
