package cadence

import (
	"errors"
	"testing"
)

func TestScriptRunnerPlayback(t *testing.T) {
	runner, err := LoadScript([]byte(`
steps:
  - {action: scroll, delta: 300, frames: 3}
  - {action: wait, frames: 2}
  - {action: jump, target: 1000}
  - {action: resize, width: 1024, height: 768}
`))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStage()
	s.SetScriptRunner(runner)

	want := []float64{100, 200, 300, 300, 300, 1000}
	for i, w := range want {
		s.Advance(frameDt)
		if got := s.Smoother().State().Smoothed; got != w {
			t.Fatalf("frame %d: smoothed = %v, want %v", i+1, got, w)
		}
	}
	if runner.Done() {
		t.Fatal("runner done before the resize step")
	}
	s.Advance(frameDt)
	if w, h := s.Size(); w != 1024 || h != 768 {
		t.Errorf("Size = %dx%d after resize step", w, h)
	}
	s.Advance(frameDt)
	if !runner.Done() {
		t.Error("runner not done after the last step")
	}
	s.Advance(frameDt)
}

func TestScriptRunnerTouchScroll(t *testing.T) {
	runner, err := LoadScript([]byte(`steps: [{action: scroll, delta: -50, source: touch}]`))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStage()
	s.Smoother().Jump(200)
	s.SetScriptRunner(runner)
	s.Advance(frameDt)
	if got := s.Smoother().State().Smoothed; got != 150 {
		t.Errorf("smoothed = %v, want 150", got)
	}
}

func TestScriptRunnerScrollTo(t *testing.T) {
	runner, err := LoadScript([]byte(`steps: [{action: scrollTo, target: 600, duration: 0.5, ease: power2.inOut}]`))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStage()
	s.SetScriptRunner(runner)
	s.Advance(frameDt)
	mid := s.Smoother().State().Smoothed
	if mid <= 0 || mid >= 600 {
		t.Errorf("after one frame smoothed = %v, want strictly between 0 and 600", mid)
	}
	for range 60 {
		s.Advance(frameDt)
	}
	if got := s.Smoother().State().Smoothed; got != 600 {
		t.Errorf("smoothed = %v, want 600", got)
	}
}

func TestScriptRunnerPointer(t *testing.T) {
	runner, err := LoadScript([]byte(`
steps:
  - {action: hover, x: 50, y: 50}
  - {action: click, x: 50, y: 50}
`))
	if err != nil {
		t.Fatal(err)
	}
	s := newTestStage()
	box := NewBox("box", 0, 0, 100, 100)
	box.Interactable = true
	s.Root().AddChild(box)
	s.Advance(frameDt)

	var got []string
	box.OnPointerEnter = func(PointerContext) { got = append(got, "enter") }
	box.OnClick = func(ClickContext) { got = append(got, "click") }
	s.SetScriptRunner(runner)
	for range 5 {
		s.Advance(frameDt)
	}
	if len(got) != 2 || got[0] != "enter" || got[1] != "click" {
		t.Errorf("events = %v, want [enter click]", got)
	}
	if !runner.Done() {
		t.Error("runner not done")
	}
}

func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no steps", `steps: []`},
		{"unknown action", `steps: [{action: teleport}]`},
		{"bad resize", `steps: [{action: resize, width: 0, height: 600}]`},
		{"bad source", `steps: [{action: scroll, delta: 10, source: joystick}]`},
		{"bad ease", `steps: [{action: scrollTo, target: 10, duration: 1, ease: wobble}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScript([]byte(tt.doc)); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
	if _, err := LoadScript([]byte("steps: [")); err == nil {
		t.Error("malformed YAML accepted")
	}
}
