package cadence

import "math"

// Viewport maps content coordinates to the screen. It follows the smoothed
// scroll position along its axis and never moves on its own.
type Viewport struct {
	// ScrollX and ScrollY are the content offsets at the top-left corner.
	ScrollX, ScrollY float64
	// Zoom is the scale factor (1.0 = no zoom).
	Zoom float64
	// Rect is the screen-space rectangle the viewport renders into.
	Rect Rect
	// Axis is the axis the scroll position drives.
	Axis Axis

	// CullEnabled skips elements whose screen AABB misses Rect.
	CullEnabled bool

	viewMatrix    [6]float64
	invViewMatrix [6]float64
	dirty         bool
}

// NewViewport creates a viewport over rect.
func NewViewport(rect Rect, axis Axis) *Viewport {
	return &Viewport{
		Zoom:        1.0,
		Rect:        rect,
		Axis:        axis,
		CullEnabled: true,
		dirty:       true,
	}
}

// SetScroll sets the scroll offset along the viewport axis.
func (v *Viewport) SetScroll(pos float64) {
	if v.Axis == AxisHorizontal {
		if v.ScrollX != pos {
			v.ScrollX = pos
			v.dirty = true
		}
		return
	}
	if v.ScrollY != pos {
		v.ScrollY = pos
		v.dirty = true
	}
}

// Scroll returns the scroll offset along the viewport axis.
func (v *Viewport) Scroll() float64 {
	if v.Axis == AxisHorizontal {
		return v.ScrollX
	}
	return v.ScrollY
}

// Size returns the viewport extent along its axis, in content units.
func (v *Viewport) Size() float64 {
	if v.Axis == AxisHorizontal {
		return v.Rect.Width / v.Zoom
	}
	return v.Rect.Height / v.Zoom
}

// SetRect replaces the screen rectangle.
func (v *Viewport) SetRect(r Rect) {
	if v.Rect != r {
		v.Rect = r
		v.dirty = true
	}
}

// computeViewMatrix recomputes the cached view matrix if dirty.
//
// viewMatrix = Translate(rect.X, rect.Y) * Scale(zoom) * Translate(-ScrollX, -ScrollY)
func (v *Viewport) computeViewMatrix() [6]float64 {
	if !v.dirty {
		return v.viewMatrix
	}
	v.dirty = false

	z := v.Zoom
	v.viewMatrix = [6]float64{
		z, 0, 0, z,
		v.Rect.X - z*v.ScrollX,
		v.Rect.Y - z*v.ScrollY,
	}
	v.invViewMatrix = invertAffine(v.viewMatrix)
	return v.viewMatrix
}

// screenMatrix returns the matrix used for Fixed elements: the viewport
// offset and zoom without scrolling.
func (v *Viewport) screenMatrix() [6]float64 {
	return [6]float64{v.Zoom, 0, 0, v.Zoom, v.Rect.X, v.Rect.Y}
}

// WorldToScreen converts content coordinates to screen coordinates.
func (v *Viewport) WorldToScreen(wx, wy float64) (sx, sy float64) {
	v.computeViewMatrix()
	sx, sy = transformPoint(v.viewMatrix, wx, wy)
	return
}

// ScreenToWorld converts screen coordinates to content coordinates.
func (v *Viewport) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	v.computeViewMatrix()
	wx, wy = transformPoint(v.invViewMatrix, sx, sy)
	return
}

// VisibleBounds returns the visible area in content coordinates.
func (v *Viewport) VisibleBounds() Rect {
	v.computeViewMatrix()
	x0, y0 := transformPoint(v.invViewMatrix, v.Rect.X, v.Rect.Y)
	x1, y1 := transformPoint(v.invViewMatrix, v.Rect.X+v.Rect.Width, v.Rect.Y+v.Rect.Height)
	return Rect{
		X:      math.Min(x0, x1),
		Y:      math.Min(y0, y1),
		Width:  math.Abs(x1 - x0),
		Height: math.Abs(y1 - y0),
	}
}

// MarkDirty forces a recomputation of the view matrix.
func (v *Viewport) MarkDirty() {
	v.dirty = true
}

// shouldCull reports whether a box of size (w, h) under screen matrix m lies
// entirely outside the viewport rectangle.
func (v *Viewport) shouldCull(m [6]float64, w, h float64) bool {
	if !v.CullEnabled || w <= 0 || h <= 0 {
		return false
	}
	return !worldAABB(m, w, h).Intersects(v.Rect)
}
