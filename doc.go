// Package cadence is a scroll-driven animation choreography engine for
// [Ebitengine].
//
// Cadence maps a continuous scroll position to element transforms: triggers
// turn scroll ranges into progress, timelines turn progress (or time) into
// property values, pinned sections hold still while a sub-animation scrubs,
// and loop lanes scroll content forever with exact wraparound.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	stage := cadence.NewStage(cadence.DefaultStageConfig())
//	// ... add elements, triggers, timelines ...
//	cadence.Run(stage, cadence.RunConfig{Title: "My Page", Width: 1280, Height: 800})
//
// [Stage] implements [ebiten.Game]. Tests and headless tools drive it with
// [Stage.Advance], which runs one deterministic frame.
//
// # Frame chain
//
// Each Stage owns one [Scheduler]. Every frame runs the phases in order:
//
//	boundary ops -> scroll -> trigger -> timeline -> loop -> commit
//
// Boundary operations ([Scheduler.Defer]) are the only place geometry is
// rebuilt, so a frame never sees half-built layout. Removing an entry takes
// effect immediately, even mid-frame.
//
// # Triggers and timelines
//
//	hero := cadence.NewBox("hero", 0, 800, 1280, 800)
//	stage.Root().AddChild(hero)
//
//	t, err := stage.Triggers().Register(cadence.TriggerConfig{
//		Element: hero, StartPos: "top top", EndPos: "+=1000", Pin: true, Scrub: 1,
//	}, cadence.TriggerCallbacks{})
//
//	tl, err := cadence.NewTimeline(cadence.TimelineConfig{}).
//		To([]*cadence.Element{title}, cadence.Props{cadence.PropScale: 0.8}, cadence.TweenOptions{Duration: 1}).
//		Build(stage.Scheduler())
//	tl.Scrub(t)
//
// Progress-driven timelines are a pure function of trigger progress, so
// scrolling back retraces exactly the same values.
//
// # Loop lanes
//
// A [LoopLane] moves at least three measured items along an axis and wraps
// them seamlessly. A [LaneGrid] distributes items into responsive columns of
// lanes and rebuilds them when the viewport crosses a breakpoint.
//
// # Configuration
//
// Whole choreographies can be described in YAML and loaded with
// [LoadConfig]; [Config.Apply] registers them on a stage. Playback scripts
// ([LoadScript]) inject scroll and pointer input frame by frame.
//
// ECS integration (via [Donburi]) lives in cadence/ecs.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package cadence
