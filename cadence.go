package cadence

import "image/color"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at render submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// Vec2 is a 2D vector used for positions, offsets and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Axis selects the direction a scroll or a loop lane moves along.
type Axis uint8

const (
	AxisVertical   Axis = iota // scroll / lane along Y
	AxisHorizontal             // scroll / lane along X
)

// Direction reports which way a value last moved.
type Direction int8

const (
	DirectionNone     Direction = 0
	DirectionForward  Direction = 1  // increasing scroll position / progress
	DirectionBackward Direction = -1 // decreasing scroll position / progress
)

func (d Direction) String() string {
	switch d {
	case DirectionForward:
		return "forward"
	case DirectionBackward:
		return "backward"
	default:
		return "none"
	}
}

// directionOf returns the direction of a signed delta.
func directionOf(delta float64) Direction {
	switch {
	case delta > 0:
		return DirectionForward
	case delta < 0:
		return DirectionBackward
	default:
		return DirectionNone
	}
}

// EventType identifies a lifecycle or interaction event.
type EventType uint8

const (
	EventEnter        EventType = iota // trigger progress left 0 moving forward
	EventUpdate                        // trigger progress changed while active
	EventLeave                         // trigger progress reached 1 moving forward
	EventEnterBack                     // trigger progress left 1 moving backward
	EventLeaveBack                     // trigger progress returned to 0 moving backward
	EventPointerEnter                  // pointer entered an element's bounds
	EventPointerLeave                  // pointer left an element's bounds
	EventClick                         // press then release over the same element

	numEventTypes
)

var eventNames = [numEventTypes]string{
	"enter", "update", "leave", "enterBack", "leaveBack",
	"pointerEnter", "pointerLeave", "click",
}

func (e EventType) String() string {
	if e < numEventTypes {
		return eventNames[e]
	}
	return "unknown"
}

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button
)

// InputSource tags a raw scroll delta with the device that produced it.
type InputSource uint8

const (
	InputWheel    InputSource = iota // mouse wheel, line or pixel deltas
	InputTouch                       // touch drag
	InputTrackpad                    // precise trackpad deltas
)

// Event is the flattened form of every lifecycle and interaction event the
// engine emits. It is what an EventSink receives.
type Event struct {
	Type      EventType
	TriggerID string
	Progress  float64
	Direction Direction
	ElementID uint32
	X, Y      float64
	Button    MouseButton
}

// EventSink is the interface for optional external event consumers (the ECS
// bridge in cadence/ecs implements it). Events are delivered after
// per-object and stage-level callbacks.
type EventSink interface {
	EmitEvent(event Event)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
