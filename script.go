package cadence

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// scriptStep represents a single action in a playback script.
type scriptStep struct {
	Action   string  `yaml:"action"`
	X        float64 `yaml:"x,omitempty"`
	Y        float64 `yaml:"y,omitempty"`
	Delta    float64 `yaml:"delta,omitempty"`
	Source   string  `yaml:"source,omitempty"`
	Target   float64 `yaml:"target,omitempty"`
	Duration float64 `yaml:"duration,omitempty"`
	Ease     string  `yaml:"ease,omitempty"`
	Width    int     `yaml:"width,omitempty"`
	Height   int     `yaml:"height,omitempty"`
	Frames   int     `yaml:"frames,omitempty"`
}

// script is the top-level structure of a playback script.
type script struct {
	Steps []scriptStep `yaml:"steps"`
}

var scriptActions = map[string]bool{
	"scroll": true, "scrollTo": true, "jump": true, "wait": true,
	"resize": true, "click": true, "hover": true,
}

// ScriptRunner sequences injected input across frames for deterministic
// playback: scroll deltas, programmatic scrolls, pointer actions, resizes
// and waits. Attach to a Stage via SetScriptRunner.
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a YAML (or JSON) script and returns a ScriptRunner ready
// to be attached to a Stage via SetScriptRunner.
//
//	steps:
//	  - {action: scroll, delta: 120, frames: 10}
//	  - {action: wait, frames: 30}
//	  - {action: click, x: 200, y: 300}
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps: %w", ErrInvalidConfig)
	}
	for i, st := range sc.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: action %q: %w", i, st.Action, ErrInvalidConfig)
		}
		if st.Action == "resize" && (st.Width <= 0 || st.Height <= 0) {
			return nil, fmt.Errorf("parse script: step %d: resize %dx%d: %w", i, st.Width, st.Height, ErrInvalidConfig)
		}
		if st.Source != "" && st.Source != "wheel" && st.Source != "touch" {
			return nil, fmt.Errorf("parse script: step %d: source %q: %w", i, st.Source, ErrInvalidConfig)
		}
		if st.Ease != "" {
			if _, err := LookupEase(st.Ease); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		}
	}
	return &ScriptRunner{steps: sc.Steps}, nil
}

// SetScriptRunner attaches a ScriptRunner to the stage. The runner's step
// method is called at the start of every Advance.
func (s *Stage) SetScriptRunner(runner *ScriptRunner) {
	s.runner = runner
}

// Done reports whether all steps in the script have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame. Called from Stage.Advance.
func (r *ScriptRunner) step(s *Stage) {
	if r.done {
		return
	}
	// Wait for pending injections to drain before advancing.
	if len(s.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "scroll":
		// A scroll spread over several frames arrives as equal deltas, one
		// per frame, like a wheel flick.
		frames := max(st.Frames, 1)
		for range frames {
			if st.Source == "touch" {
				s.InjectTouchScroll(st.Delta / float64(frames))
			} else {
				s.InjectWheel(st.Delta / float64(frames))
			}
		}
	case "scrollTo":
		s.smoother.ScrollTo(st.Target, st.Duration, st.Ease)
	case "jump":
		s.smoother.Jump(st.Target)
	case "resize":
		s.InjectResize(st.Width, st.Height)
	case "click":
		s.InjectClick(st.X, st.Y)
	case "hover":
		s.InjectMove(st.X, st.Y)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 && len(s.injectQueue) == 0 {
		r.done = true
	}
}
