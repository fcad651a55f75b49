package cadence

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunConfig configures the window opened by Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
	// Resizable lets the user resize the window; the stage rebuilds its
	// responsive components after the debounce.
	Resizable bool
	// ShowOverlay attaches the debug overlay.
	ShowOverlay bool
	// Script, when non-nil, is played back frame by frame.
	Script *ScriptRunner
}

// Run opens a window and drives the stage with ebiten's game loop until the
// window closes or the update function returns an error.
func Run(stage *Stage, cfg RunConfig) error {
	if stage == nil {
		return fmt.Errorf("run: nil stage")
	}
	w, h := cfg.Width, cfg.Height
	if w <= 0 || h <= 0 {
		w, h = stage.Size()
	}
	title := cfg.Title
	if title == "" {
		title = "cadence"
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(w, h)
	if cfg.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	if cfg.ShowOverlay {
		stage.Root().AddChild(NewDebugOverlay(stage))
	}
	if cfg.Script != nil {
		stage.SetScriptRunner(cfg.Script)
	}
	stage.Resize(w, h)
	return ebiten.RunGame(stage)
}
