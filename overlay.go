package cadence

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	overlayWidth    = 220
	overlayHeight   = 140
	overlayInterval = 0.5
	overlayMaxRows  = 6
)

// NewDebugOverlay creates a fixed element that shows FPS/TPS, the scroll
// state and live trigger progress. The text refreshes every half second on
// the stage's scheduler clock.
func NewDebugOverlay(s *Stage) *Element {
	img := ebiten.NewImage(overlayWidth, overlayHeight)

	el := NewElement("debug_overlay")
	el.Image = img
	el.Fixed = true
	el.SetZIndex(1 << 20)

	elapsed := overlayInterval
	var h FrameHandle
	h = s.sched.Add(PhaseCommit, func(dt float64) {
		if el.disposed {
			h.Remove()
			return
		}
		elapsed += dt
		if elapsed < overlayInterval {
			return
		}
		elapsed = 0

		img.Clear()
		// Semi-transparent background for readability
		img.Fill(color.RGBA{0, 0, 0, 160})
		ebitenutil.DebugPrint(img, overlayText(s))
	})
	return el
}

// overlayText formats the overlay contents.
func overlayText(s *Stage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FPS: %.1f TPS: %.1f\n", ebiten.ActualFPS(), ebiten.ActualTPS())
	st := s.smoother.State()
	fmt.Fprintf(&b, "scroll %.1f -> %.1f\n", st.Smoothed, st.Raw)
	fmt.Fprintf(&b, "vel %.1f %s\n", st.Velocity, st.Direction)
	if s.smoother.NativeScrollDisabled() {
		b.WriteString("pinned\n")
	}
	for i, t := range s.triggers.Triggers() {
		if i == overlayMaxRows {
			fmt.Fprintf(&b, "+%d more\n", s.triggers.Len()-i)
			break
		}
		fmt.Fprintf(&b, "%s %.2f\n", t.ID(), t.Progress())
	}
	return b.String()
}
