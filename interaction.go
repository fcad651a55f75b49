package cadence

import (
	"fmt"
	"log/slog"
)

// Pausable is anything an interaction can halt: loop lanes and timelines.
type Pausable interface {
	Pause()
	Resume()
	Paused() bool
}

// InteractionMode selects how pointer input affects a lane.
type InteractionMode uint8

const (
	InteractNone  InteractionMode = iota // pointer input is ignored
	InteractHover                        // pause while the pointer is over the lane
	InteractClick                        // click toggles an exclusive pause
)

var interactionNames = [...]string{"none", "hover", "click"}

func (m InteractionMode) String() string {
	if int(m) < len(interactionNames) {
		return interactionNames[m]
	}
	return "unknown"
}

// ParseInteractionMode maps "none", "hover" or "click" to a mode.
func ParseInteractionMode(s string) (InteractionMode, error) {
	if s == "" {
		return InteractNone, nil
	}
	for i, n := range interactionNames {
		if n == s {
			return InteractionMode(i), nil
		}
	}
	return 0, fmt.Errorf("interaction mode %q: %w", s, ErrInvalidConfig)
}

// InteractionController pauses and resumes targets in response to pointer
// input. In click mode at most one target holds the exclusive pause:
// clicking another target resumes the previous one.
type InteractionController struct {
	logger    *slog.Logger
	exclusive Pausable
}

// NewInteractionController creates a controller.
func NewInteractionController(logger *slog.Logger) *InteractionController {
	return &InteractionController{logger: componentLogger(logger, "interaction")}
}

// Exclusive returns the target holding the click pause, or nil.
func (c *InteractionController) Exclusive() Pausable { return c.exclusive }

// PointerEnter pauses p. The exclusively paused target is left alone.
func (c *InteractionController) PointerEnter(p Pausable) {
	if p == nil || p == c.exclusive {
		return
	}
	p.Pause()
}

// PointerLeave resumes p unless it holds the exclusive pause.
func (c *InteractionController) PointerLeave(p Pausable) {
	if p == nil || p == c.exclusive {
		return
	}
	p.Resume()
}

// ClickToggle toggles the exclusive pause on p. Pausing p resumes whichever
// target held the pause before.
func (c *InteractionController) ClickToggle(p Pausable) {
	if p == nil {
		return
	}
	if c.exclusive == p {
		c.exclusive = nil
		p.Resume()
		c.logger.Debug("exclusive pause released")
		return
	}
	if prev := c.exclusive; prev != nil {
		prev.Resume()
	}
	p.Pause()
	c.exclusive = p
	c.logger.Debug("exclusive pause taken")
}

// Release drops p's exclusive pause without resuming it. Used when p is
// being torn down.
func (c *InteractionController) Release(p Pausable) {
	if c.exclusive == p {
		c.exclusive = nil
	}
}

// Binding ties an element's pointer callbacks to a Pausable.
type Binding struct {
	c  *InteractionController
	el *Element
	p  Pausable

	prevEnter        func(PointerContext)
	prevLeave        func(PointerContext)
	prevClick        func(ClickContext)
	prevInteractable bool
	active           bool
}

// Bind wires el's pointer callbacks to p according to mode. The element
// becomes interactable. InteractNone returns an inactive binding.
func (c *InteractionController) Bind(el *Element, p Pausable, mode InteractionMode) *Binding {
	b := &Binding{c: c, el: el, p: p}
	if el == nil || p == nil || mode == InteractNone {
		return b
	}
	b.prevEnter = el.OnPointerEnter
	b.prevLeave = el.OnPointerLeave
	b.prevClick = el.OnClick
	b.prevInteractable = el.Interactable
	b.active = true

	el.Interactable = true
	switch mode {
	case InteractHover:
		el.OnPointerEnter = func(PointerContext) { c.PointerEnter(p) }
		el.OnPointerLeave = func(PointerContext) { c.PointerLeave(p) }
	case InteractClick:
		el.OnClick = func(ClickContext) { c.ClickToggle(p) }
	}
	return b
}

// Active reports whether the binding is wired.
func (b *Binding) Active() bool { return b != nil && b.active }

// Remove restores the element's previous callbacks and drops any exclusive
// pause the target held. Idempotent.
func (b *Binding) Remove() {
	if b == nil || !b.active {
		return
	}
	b.active = false
	b.c.Release(b.p)
	if !b.el.disposed {
		b.el.OnPointerEnter = b.prevEnter
		b.el.OnPointerLeave = b.prevLeave
		b.el.OnClick = b.prevClick
		b.el.Interactable = b.prevInteractable
	}
}
