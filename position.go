package cadence

import (
	"fmt"
	"strconv"
	"strings"
)

// edge is a point along an element or the viewport, expressed as a fraction
// of its size plus a pixel offset.
type edge struct {
	frac float64
	px   float64
}

func (e edge) at(size float64) float64 {
	return e.frac*size + e.px
}

// Position is a parsed trigger boundary such as "top 80%" or "+=500".
//
// The first word is the point on the trigger element, the second the point
// on the viewport. The boundary is reached when the two coincide. A relative
// position ("+=N", "-=N") is an offset from another resolved boundary.
type Position struct {
	Relative bool
	Amount   float64

	element  edge
	viewport edge
}

// ParsePosition parses a boundary string. Accepted words are "top",
// "center", "bottom", "left", "right", percentages ("80%") and pixel values
// ("120px" or "120"). A single word pins the viewport side to its start edge.
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Position{}, fmt.Errorf("empty position: %w", ErrInvalidTriggerBoundary)
	}
	if strings.HasPrefix(s, "+=") || strings.HasPrefix(s, "-=") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s[2:]), 64)
		if err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, ErrInvalidTriggerBoundary)
		}
		if s[0] == '-' {
			v = -v
		}
		return Position{Relative: true, Amount: v}, nil
	}

	words := strings.Fields(s)
	if len(words) > 2 {
		return Position{}, fmt.Errorf("position %q has %d words: %w", s, len(words), ErrInvalidTriggerBoundary)
	}
	el, err := parseEdge(words[0])
	if err != nil {
		return Position{}, fmt.Errorf("position %q: %w", s, err)
	}
	p := Position{element: el}
	if len(words) == 2 {
		vp, err := parseEdge(words[1])
		if err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, err)
		}
		p.viewport = vp
	}
	return p, nil
}

func parseEdge(w string) (edge, error) {
	switch w {
	case "top", "left", "start":
		return edge{frac: 0}, nil
	case "center":
		return edge{frac: 0.5}, nil
	case "bottom", "right", "end":
		return edge{frac: 1}, nil
	}
	if strings.HasSuffix(w, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(w, "%"), 64)
		if err != nil {
			return edge{}, ErrInvalidTriggerBoundary
		}
		return edge{frac: v / 100}, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(w, "px"), 64)
	if err != nil {
		return edge{}, ErrInvalidTriggerBoundary
	}
	return edge{px: v}, nil
}

// Resolve converts the position to a scroll offset. elemStart and elemSize
// describe the trigger element's layout box along the scroll axis, viewport
// is the viewport size along that axis, and base is the boundary a relative
// position is measured from.
func (p Position) Resolve(elemStart, elemSize, viewport, base float64) float64 {
	if p.Relative {
		return base + p.Amount
	}
	return elemStart + p.element.at(elemSize) - p.viewport.at(viewport)
}

// ResolvePosition parses s and resolves it against el's layout box.
func ResolvePosition(s string, el *Element, axis Axis, viewport, base float64) (float64, error) {
	p, err := ParsePosition(s)
	if err != nil {
		return 0, err
	}
	if p.Relative {
		return p.Resolve(0, 0, viewport, base), nil
	}
	if el == nil {
		return 0, fmt.Errorf("position %q without element: %w", s, ErrInvalidTriggerBoundary)
	}
	start, size := layoutSpan(el, axis)
	return p.Resolve(start, size, viewport, base), nil
}

// layoutSpan returns an element's layout start (summed over ancestors,
// ignoring engine-driven translation) and its measured size along axis.
func layoutSpan(el *Element, axis Axis) (start, size float64) {
	for p := el; p != nil; p = p.Parent {
		if axis == AxisHorizontal {
			start += p.X
		} else {
			start += p.Y
		}
	}
	if axis == AxisHorizontal {
		return start, el.Width
	}
	return start, el.Height
}
