// Package tween provides easing curves and time-driven interpolators.
// Tweens hold no clock of their own: callers advance them with the frame delta.
package tween

import "github.com/go-gl/mathgl/mgl32"

// EaseFunc maps normalized time in [0,1] to progress in [0,1].
type EaseFunc func(t float32) float32

// Clamp01 clamps x to [0,1].
func Clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Linear is the identity curve.
func Linear(t float32) float32 {
	return t
}

// EaseOutCubic decelerates towards the end.
func EaseOutCubic(t float32) float32 {
	u := 1 - t
	return 1 - u*u*u
}

// EaseInOutCubic accelerates then decelerates.
func EaseInOutCubic(t float32) float32 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := -2*t + 2
	return 1 - u*u*u/2
}

// Smoothstep is the classic 3t^2 - 2t^3 curve.
func Smoothstep(t float32) float32 {
	return t * t * (3 - 2*t)
}

// ByName returns a curve by its config name. Unknown names fall back to Linear.
func ByName(name string) EaseFunc {
	if f, ok := Lookup(name); ok {
		return f
	}
	return Linear
}

// Lookup returns the named curve and whether the name is known.
func Lookup(name string) (EaseFunc, bool) {
	switch name {
	case "linear":
		return Linear, true
	case "out-cubic", "ease-out":
		return EaseOutCubic, true
	case "in-out-cubic", "ease-in-out":
		return EaseInOutCubic, true
	case "smooth":
		return Smoothstep, true
	}
	return nil, false
}

// Lerp interpolates between a and b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// LerpVec3 interpolates between two vectors component-wise.
func LerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// Clock tracks progress through a fixed duration.
type Clock struct {
	Elapsed  float32
	Duration float32
}

// Advance moves the clock forward and reports whether it has finished.
func (c *Clock) Advance(dt float32) bool {
	if dt > 0 {
		c.Elapsed += dt
	}
	return c.Done()
}

// Done reports whether the duration has been reached.
// A zero or negative duration is done immediately.
func (c *Clock) Done() bool {
	return c.Elapsed >= c.Duration
}

// Progress returns the normalized time in [0,1].
func (c *Clock) Progress() float32 {
	if c.Duration <= 0 {
		return 1
	}
	return Clamp01(c.Elapsed / c.Duration)
}

// Float animates a scalar from one value to another.
type Float struct {
	from, to float32
	value    float32
	clock    Clock
	ease     EaseFunc
	active   bool
}

// Set snaps the value and stops any running animation.
func (f *Float) Set(v float32) {
	f.from, f.to, f.value = v, v, v
	f.active = false
}

// Start animates from the current value to target over duration seconds.
func (f *Float) Start(target, duration float32, ease EaseFunc) {
	if ease == nil {
		ease = Linear
	}
	f.from = f.value
	f.to = target
	f.clock = Clock{Duration: duration}
	f.ease = ease
	f.active = true
}

// Advance moves the animation forward and returns the current value.
func (f *Float) Advance(dt float32) float32 {
	if !f.active {
		return f.value
	}
	if f.clock.Advance(dt) {
		f.value = f.to
		f.active = false
		return f.value
	}
	f.value = Lerp(f.from, f.to, f.ease(f.clock.Progress()))
	return f.value
}

// Value returns the current value.
func (f *Float) Value() float32 {
	return f.value
}

// Target returns the value the animation is heading to.
func (f *Float) Target() float32 {
	return f.to
}

// Active reports whether an animation is in flight.
func (f *Float) Active() bool {
	return f.active
}
