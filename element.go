package cadence

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// HitShape is used for custom hit testing regions.
type HitShape interface {
	Contains(x, y float64) bool
}

// PointerContext carries pointer event data.
type PointerContext struct {
	Element   *Element
	UserData  any
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	PointerID int
}

// ClickContext carries click event data.
type ClickContext struct {
	Element   *Element
	UserData  any
	GlobalX   float64
	GlobalY   float64
	LocalX    float64
	LocalY    float64
	Button    MouseButton
	PointerID int
}

// elementIDCounter is a plain counter; cadence is single-threaded.
var elementIDCounter uint32

func nextElementID() uint32 {
	elementIDCounter++
	return elementIDCounter
}

// RenderValues is the snapshot committed to the render layer at the end of a
// frame. Draw reads only committed values.
type RenderValues struct {
	Transform [6]float64
	Alpha     float64
	Blur      float64
	Visible   bool
}

// Element is a handle the engine animates. Layout position (X, Y) and
// measured size (Width, Height) belong to the collaborator that lays the
// element out; the transform fields are what timelines, lanes and pins
// drive. A single flat struct avoids interface dispatch on the hot path.
type Element struct {
	// Identity
	ID   uint32
	Name string

	// Hierarchy
	Parent   *Element
	children []*Element

	// Layout (owned by the host or by Responsive Recompute)
	X, Y          float64
	Width, Height float64

	// Transform (driven by the engine)
	TranslateX, TranslateY float64
	ScaleX, ScaleY         float64
	Rotation               float64
	PivotX, PivotY         float64
	Alpha                  float64
	Blur                   float64

	// pin compensation written by the trigger registry
	pinX, pinY float64

	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool

	// Visibility & interaction
	Visible      bool
	Interactable bool
	// Fixed elements are positioned in screen space and ignore scroll.
	Fixed bool

	ZIndex int

	// Rendering. Image is drawn stretched to Width x Height when both are
	// set; otherwise at its native size. Fill paints a solid rectangle of
	// Color when there is no Image.
	Image *ebiten.Image
	Color Color
	Fill  bool

	// Hit testing
	HitShape HitShape

	// Metadata
	UserData any

	// Per-element callbacks (nil by default)
	OnPointerEnter func(PointerContext)
	OnPointerLeave func(PointerContext)
	OnClick        func(ClickContext)

	committed      RenderValues
	disposed       bool
	childrenSorted bool
	sortedChildren []*Element
}

// NewElement creates an element with identity transform and full opacity.
func NewElement(name string) *Element {
	e := &Element{
		ID:             nextElementID(),
		Name:           name,
		ScaleX:         1,
		ScaleY:         1,
		Alpha:          1,
		Color:          ColorWhite,
		Visible:        true,
		transformDirty: true,
		childrenSorted: true,
	}
	e.worldTransform = identityTransform
	e.worldAlpha = 1
	return e
}

// NewBox creates an element with a measured size at the given layout
// position.
func NewBox(name string, x, y, w, h float64) *Element {
	e := NewElement(name)
	e.X, e.Y = x, y
	e.Width, e.Height = w, h
	return e
}

// --- Tree manipulation ---

// AddChild appends child to this element's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this element (cycle).
func (e *Element) AddChild(child *Element) {
	if child == nil {
		panic("cadence: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(e, "AddChild (parent)")
		debugCheckDisposed(child, "AddChild (child)")
	}
	if isAncestor(child, e) {
		panic("cadence: adding child would create a cycle")
	}
	if child.Parent != nil {
		child.Parent.removeChildByPtr(child)
	}
	child.Parent = e
	e.children = append(e.children, child)
	e.childrenSorted = false
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// RemoveChild detaches child from this element.
// Panics if child.Parent != e.
func (e *Element) RemoveChild(child *Element) {
	if child.Parent != e {
		panic("cadence: child's parent is not this element")
	}
	e.removeChildByPtr(child)
	child.Parent = nil
	e.childrenSorted = false
	markSubtreeDirty(child)
}

// RemoveFromParent detaches this element from its parent.
// No-op if this element has no parent.
func (e *Element) RemoveFromParent() {
	if e.Parent == nil {
		return
	}
	e.Parent.RemoveChild(e)
}

// RemoveChildren detaches all children. Children are NOT disposed.
func (e *Element) RemoveChildren() {
	for _, child := range e.children {
		child.Parent = nil
		markSubtreeDirty(child)
	}
	clear(e.children)
	e.children = e.children[:0]
	e.childrenSorted = false
}

// Children returns the child list. The returned slice MUST NOT be mutated.
func (e *Element) Children() []*Element {
	return e.children
}

// NumChildren returns the number of children.
func (e *Element) NumChildren() int {
	return len(e.children)
}

// FindByName returns the first element named name in e's subtree (e
// included), searching depth-first. Returns nil if none matches.
func (e *Element) FindByName(name string) *Element {
	if e.Name == name {
		return e
	}
	for _, c := range e.children {
		if found := c.FindByName(name); found != nil {
			return found
		}
	}
	return nil
}

// SetZIndex sets the paint order among siblings.
func (e *Element) SetZIndex(z int) {
	if e.ZIndex == z {
		return
	}
	e.ZIndex = z
	if e.Parent != nil {
		e.Parent.childrenSorted = false
	}
}

// orderedChildren returns children sorted by ZIndex, stable on insertion
// order.
func (e *Element) orderedChildren() []*Element {
	if e.childrenSorted {
		if e.sortedChildren == nil {
			return e.children
		}
		return e.sortedChildren
	}
	e.sortedChildren = append(e.sortedChildren[:0], e.children...)
	sort.SliceStable(e.sortedChildren, func(i, j int) bool {
		return e.sortedChildren[i].ZIndex < e.sortedChildren[j].ZIndex
	})
	e.childrenSorted = true
	return e.sortedChildren
}

// --- Disposal ---

// Dispose removes this element from its parent, marks it as disposed and
// recursively disposes all descendants. Animations that still reference a
// disposed element skip it silently.
func (e *Element) Dispose() {
	if e.disposed {
		return
	}
	e.RemoveFromParent()
	e.dispose()
}

func (e *Element) dispose() {
	e.disposed = true
	for _, child := range e.children {
		child.Parent = nil
		child.dispose()
	}
	e.children = nil
	e.sortedChildren = nil
	e.Parent = nil
	e.Image = nil
	e.HitShape = nil
	e.UserData = nil
	e.OnPointerEnter = nil
	e.OnPointerLeave = nil
	e.OnClick = nil
}

// IsDisposed returns true if this element has been disposed.
func (e *Element) IsDisposed() bool {
	return e.disposed
}

// Committed returns the values last committed to the render layer.
func (e *Element) Committed() RenderValues {
	return e.committed
}

// PinOffset returns the compensating translation currently applied by a
// pinned trigger.
func (e *Element) PinOffset() (x, y float64) {
	return e.pinX, e.pinY
}

func (e *Element) setPin(axis Axis, v float64) {
	if axis == AxisHorizontal {
		if e.pinX != v {
			e.pinX = v
			e.transformDirty = true
		}
		return
	}
	if e.pinY != v {
		e.pinY = v
		e.transformDirty = true
	}
}

// --- Properties ---

// Property names an animatable element field.
type Property uint8

const (
	PropX        Property = iota // TranslateX
	PropY                        // TranslateY
	PropScaleX                   // ScaleX
	PropScaleY                   // ScaleY
	PropScale                    // ScaleX and ScaleY together
	PropRotation                 // Rotation in radians
	PropAlpha                    // Alpha
	PropBlur                     // Blur radius in pixels

	numProperties
)

var propertyNames = [numProperties]string{"x", "y", "scaleX", "scaleY", "scale", "rotation", "opacity", "blur"}

func (p Property) String() string {
	if p < numProperties {
		return propertyNames[p]
	}
	return "unknown"
}

// ParseProperty maps a property name (as used in configuration files) to a
// Property. "alpha" is accepted as an alias of "opacity".
func ParseProperty(name string) (Property, bool) {
	if name == "alpha" {
		return PropAlpha, true
	}
	for i, n := range propertyNames {
		if n == name {
			return Property(i), true
		}
	}
	return 0, false
}

// translateProperty returns the translation property for an axis.
func translateProperty(axis Axis) Property {
	if axis == AxisHorizontal {
		return PropX
	}
	return PropY
}

// Get returns the current value of p.
func (e *Element) Get(p Property) float64 {
	switch p {
	case PropX:
		return e.TranslateX
	case PropY:
		return e.TranslateY
	case PropScaleX, PropScale:
		return e.ScaleX
	case PropScaleY:
		return e.ScaleY
	case PropRotation:
		return e.Rotation
	case PropAlpha:
		return e.Alpha
	case PropBlur:
		return e.Blur
	}
	return 0
}

// Set writes p and marks the element dirty. Writes to disposed elements are
// dropped.
func (e *Element) Set(p Property, v float64) {
	if e.disposed {
		return
	}
	switch p {
	case PropX:
		e.TranslateX = v
	case PropY:
		e.TranslateY = v
	case PropScaleX:
		e.ScaleX = v
	case PropScaleY:
		e.ScaleY = v
	case PropScale:
		e.ScaleX = v
		e.ScaleY = v
	case PropRotation:
		e.Rotation = v
	case PropAlpha:
		e.Alpha = v
	case PropBlur:
		if v < 0 {
			v = 0
		}
		e.Blur = v
	}
	e.transformDirty = true
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of el.
func isAncestor(candidate, el *Element) bool {
	for p := el; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from e.children without clearing
// child.Parent.
func (e *Element) removeChildByPtr(child *Element) {
	for i, c := range e.children {
		if c == child {
			copy(e.children[i:], e.children[i+1:])
			e.children[len(e.children)-1] = nil
			e.children = e.children[:len(e.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on el and all its descendants.
func markSubtreeDirty(el *Element) {
	el.transformDirty = true
	for _, child := range el.children {
		markSubtreeDirty(child)
	}
}
