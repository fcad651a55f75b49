package cadence

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// blurTaps are the offsets (in units of the blur radius) of the extra draws
// that approximate a blur, with the share of alpha each receives.
var blurTaps = [...]struct{ dx, dy, share float64 }{
	{0, 0, 0.4},
	{-0.5, 0, 0.15},
	{0.5, 0, 0.15},
	{0, -0.5, 0.15},
	{0, 0.5, 0.15},
}

// minBlur is the radius below which blur is ignored.
const minBlur = 0.5

// drawCommand is a single draw instruction emitted during traversal.
type drawCommand struct {
	transform [6]float64 // screen-space, already scaled to the target size
	image     *ebiten.Image
	color     Color
	alpha     float64
	blur      float64
}

var whitePixel *ebiten.Image

// ensureWhitePixel returns a lazily-initialized 1x1 white image used for
// Fill elements.
func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toRGBA())
	}
	return whitePixel
}

// Draw renders the committed state of the element tree. It reads only
// committed values, never the live fields the frame chain writes.
func (s *Stage) Draw(screen *ebiten.Image) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	if s.cfg.ClearColor.A > 0 {
		screen.Fill(s.cfg.ClearColor.toRGBA())
	}

	s.commands = s.commands[:0]
	view := s.viewport.computeViewMatrix()
	s.emit(s.root, view, s.viewport.screenMatrix(), false)
	submitCommands(screen, s.commands)

	if s.debug {
		s.stats.drawTime = time.Since(t0)
	}
}

// emit walks the tree in paint order appending commands for drawable
// elements. Culling only suppresses this element; children are always
// visited because they may sit outside the parent's box.
func (s *Stage) emit(e *Element, view, screenM [6]float64, fixed bool) {
	rv := e.committed
	if !rv.Visible || e.disposed {
		return
	}
	fixed = fixed || e.Fixed

	base := view
	if fixed {
		base = screenM
	}
	m := multiplyAffine(base, rv.Transform)

	if cmd, ok := elementCommand(e, m, rv); ok && !s.viewport.shouldCull(m, e.Width, e.Height) {
		s.commands = append(s.commands, cmd)
	}
	for _, c := range e.orderedChildren() {
		s.emit(c, view, screenM, fixed)
	}
}

// elementCommand builds the draw command for e under screen matrix m. It
// reports false for elements that paint nothing.
func elementCommand(e *Element, m [6]float64, rv RenderValues) (drawCommand, bool) {
	if rv.Alpha <= 0 {
		return drawCommand{}, false
	}
	img := e.Image
	if img == nil {
		if !e.Fill || e.Width <= 0 || e.Height <= 0 {
			return drawCommand{}, false
		}
		img = ensureWhitePixel()
	}
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return drawCommand{}, false
	}
	sx, sy := 1.0, 1.0
	if e.Width > 0 && e.Height > 0 {
		sx, sy = e.Width/iw, e.Height/ih
	}
	t := multiplyAffine(m, [6]float64{sx, 0, 0, sy, 0, 0})
	return drawCommand{transform: t, image: img, color: e.Color, alpha: rv.Alpha, blur: rv.Blur}, true
}

// submitCommands draws every command onto target.
func submitCommands(target *ebiten.Image, cmds []drawCommand) {
	var op ebiten.DrawImageOptions
	for i := range cmds {
		cmd := &cmds[i]
		if cmd.blur < minBlur {
			drawOne(target, cmd, 0, 0, 1, &op)
			continue
		}
		for _, tap := range blurTaps {
			drawOne(target, cmd, tap.dx*cmd.blur, tap.dy*cmd.blur, tap.share, &op)
		}
	}
}

func drawOne(target *ebiten.Image, cmd *drawCommand, dx, dy, share float64, op *ebiten.DrawImageOptions) {
	op.GeoM = commandGeoM(cmd.transform)
	op.GeoM.Translate(dx, dy)
	op.ColorScale.Reset()
	a := float32(cmd.alpha * share * cmd.color.A)
	op.ColorScale.Scale(float32(cmd.color.R)*a, float32(cmd.color.G)*a, float32(cmd.color.B)*a, a)
	target.DrawImage(cmd.image, op)
}

// commandGeoM converts a [6]float64 transform into an ebiten.GeoM.
func commandGeoM(t [6]float64) ebiten.GeoM {
	var m ebiten.GeoM
	m.SetElement(0, 0, t[0])
	m.SetElement(1, 0, t[1])
	m.SetElement(0, 1, t[2])
	m.SetElement(1, 1, t[3])
	m.SetElement(0, 2, t[4])
	m.SetElement(1, 2, t[5])
	return m
}
