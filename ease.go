package cadence

import (
	"fmt"
	"strings"

	"github.com/tanema/gween/ease"
)

// Ease maps normalized time in [0, 1] to normalized output. Implementations
// must be pure: the same input always yields the same output, which is what
// makes reverse playback retrace the forward curve exactly.
type Ease func(t float64) float64

// EaseNone is the identity curve. It is exact in float64, unlike the
// float32 curves from gween, which keeps linear loop motion seam-free.
func EaseNone(t float64) float64 { return t }

// fromGween adapts a gween easing function. Endpoints are pinned so 0 and 1
// map exactly to 0 and 1 regardless of float32 rounding inside the curve.
func fromGween(fn ease.TweenFunc) Ease {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return float64(fn(float32(t), 0, 1, 1))
	}
}

// easeRegistry holds named curves. Names follow the "family.variant"
// convention used by most web animation tooling; a bare family name means
// the ".out" variant.
var easeRegistry = map[string]Ease{
	"none":   EaseNone,
	"linear": EaseNone,

	"power1.in":    fromGween(ease.InQuad),
	"power1.out":   fromGween(ease.OutQuad),
	"power1.inOut": fromGween(ease.InOutQuad),
	"power2.in":    fromGween(ease.InCubic),
	"power2.out":   fromGween(ease.OutCubic),
	"power2.inOut": fromGween(ease.InOutCubic),
	"power3.in":    fromGween(ease.InQuart),
	"power3.out":   fromGween(ease.OutQuart),
	"power3.inOut": fromGween(ease.InOutQuart),
	"power4.in":    fromGween(ease.InQuint),
	"power4.out":   fromGween(ease.OutQuint),
	"power4.inOut": fromGween(ease.InOutQuint),

	"sine.in":       fromGween(ease.InSine),
	"sine.out":      fromGween(ease.OutSine),
	"sine.inOut":    fromGween(ease.InOutSine),
	"expo.in":       fromGween(ease.InExpo),
	"expo.out":      fromGween(ease.OutExpo),
	"expo.inOut":    fromGween(ease.InOutExpo),
	"circ.in":       fromGween(ease.InCirc),
	"circ.out":      fromGween(ease.OutCirc),
	"circ.inOut":    fromGween(ease.InOutCirc),
	"back.in":       fromGween(ease.InBack),
	"back.out":      fromGween(ease.OutBack),
	"back.inOut":    fromGween(ease.InOutBack),
	"elastic.in":    fromGween(ease.InElastic),
	"elastic.out":   fromGween(ease.OutElastic),
	"elastic.inOut": fromGween(ease.InOutElastic),
	"bounce.in":     fromGween(ease.InBounce),
	"bounce.out":    fromGween(ease.OutBounce),
	"bounce.inOut":  fromGween(ease.InOutBounce),
}

// RegisterEase adds or replaces a named curve. Not safe for concurrent use;
// register curves during initialization.
func RegisterEase(name string, fn Ease) {
	if fn == nil {
		panic("cadence: nil ease " + name)
	}
	easeRegistry[name] = fn
}

// LookupEase resolves a curve by name. An empty name resolves to EaseNone.
func LookupEase(name string) (Ease, error) {
	if name == "" {
		return EaseNone, nil
	}
	if fn, ok := easeRegistry[name]; ok {
		return fn, nil
	}
	if !strings.Contains(name, ".") {
		if fn, ok := easeRegistry[name+".out"]; ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("unknown ease %q: %w", name, ErrInvalidConfig)
}

// gweenEase returns the gween form of a named curve for components that drive
// gween tweens directly. Unknown names fall back to linear.
func gweenEase(name string) ease.TweenFunc {
	switch name {
	case "power1.out":
		return ease.OutQuad
	case "power2.out":
		return ease.OutCubic
	case "power3.out":
		return ease.OutQuart
	case "power4.out":
		return ease.OutQuint
	case "expo.out", "expo":
		return ease.OutExpo
	case "expo.inOut":
		return ease.InOutExpo
	case "sine.inOut":
		return ease.InOutSine
	case "power2.inOut":
		return ease.InOutCubic
	default:
		return ease.Linear
	}
}
