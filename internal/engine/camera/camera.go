// Package camera provides the viewer camera, free-orbit controls and the
// controller that animates between named poses.
package camera

import (
	gomath "math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/carviewer/internal/engine/scene"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Camera is a perspective camera backed by a scene node, so lights and other
// helpers can be attached to it and follow the view.
type Camera struct {
	Node   *scene.Node
	Target mgl32.Vec3

	FOV    float32 // vertical, degrees
	Aspect float32
	Near   float32
	Far    float32
}

// New creates a camera at the origin looking down -Z.
func New(fov, aspect float32) *Camera {
	return &Camera{
		Node:   scene.NewNode("camera", scene.KindCamera),
		Target: mgl32.Vec3{0, 0, -1},
		FOV:    fov,
		Aspect: aspect,
		Near:   0.01,
		Far:    1000,
	}
}

// Position returns the camera position.
func (c *Camera) Position() mgl32.Vec3 {
	return c.Node.Position
}

// SetPosition moves the camera without changing its target.
func (c *Camera) SetPosition(p mgl32.Vec3) {
	c.Node.Position = p
	c.orient()
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target mgl32.Vec3) {
	c.Target = target
	c.orient()
}

// Place sets position and target together.
func (c *Camera) Place(position, target mgl32.Vec3) {
	c.Node.Position = position
	c.Target = target
	c.orient()
}

// SetClip updates the near and far planes.
func (c *Camera) SetClip(near, far float32) {
	c.Near = near
	c.Far = far
}

// SetViewport updates the aspect ratio from a viewport size.
func (c *Camera) SetViewport(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.Aspect = float32(width) / float32(height)
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Node.Position, c.Target, c.up())
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FOV), c.Aspect, c.Near, c.Far)
}

// up avoids a degenerate basis when looking straight up or down.
func (c *Camera) up() mgl32.Vec3 {
	forward := c.Target.Sub(c.Node.Position)
	if forward.Cross(worldUp).Len() < 1e-6*forward.Len() {
		return mgl32.Vec3{0, 0, -1}
	}
	return worldUp
}

// orient updates the node rotation to face the target.
func (c *Camera) orient() {
	if c.Target.Sub(c.Node.Position).Len() < 1e-9 {
		return
	}
	view := c.ViewMatrix()
	c.Node.Rotation = mgl32.Mat4ToQuat(view.Inv()).Normalize()
}

// OrbitConfig holds the tunable free-orbit parameters.
type OrbitConfig struct {
	RotateSpeed      float32 `yaml:"rotate_speed"` // radians per drag unit
	ZoomSpeed        float32 `yaml:"zoom_speed"`
	Damping          bool    `yaml:"damping"`
	DampingFrequency float64 `yaml:"damping_frequency"`
	AutoRotate       bool    `yaml:"auto_rotate"`
	AutoRotateSpeed  float32 `yaml:"auto_rotate_speed"` // radians per second
}

// DefaultOrbitConfig returns the stock orbit feel.
func DefaultOrbitConfig() OrbitConfig {
	return OrbitConfig{
		RotateSpeed:      0.005,
		ZoomSpeed:        0.1,
		Damping:          true,
		DampingFrequency: 6.0,
		AutoRotateSpeed:  -1.0,
	}
}

type orbitState struct {
	target              mgl32.Vec3
	distance, yaw, pitch float32
}

// OrbitControls orbits the camera around a target using spherical
// coordinates. Drag and zoom input become velocities that decay through a
// critically damped spring each update.
type OrbitControls struct {
	Enabled bool

	Target   mgl32.Vec3
	Distance float32
	Yaw      float32 // around +Y, radians
	Pitch    float32 // elevation above the horizon, radians

	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	cfg OrbitConfig
	cam *Camera

	yawVel, pitchVel, zoomVel       float64
	yawAccel, pitchAccel, zoomAccel float64
	spring                          harmonica.Spring
	springDT                        float32

	saved orbitState
}

// NewOrbitControls creates controls driving cam.
func NewOrbitControls(cam *Camera, cfg OrbitConfig) *OrbitControls {
	o := &OrbitControls{
		Enabled:     true,
		cam:         cam,
		cfg:         cfg,
		Distance:    1,
		MinDistance: 0,
		MaxDistance: float32(gomath.Inf(1)),
		MinPitch:    -gomath.Pi/2 + 0.01,
		MaxPitch:    gomath.Pi/2 - 0.01,
	}
	o.SyncFromCamera()
	o.SaveState()
	return o
}

// Config returns the active orbit configuration.
func (o *OrbitControls) Config() OrbitConfig {
	return o.cfg
}

// SetConfig replaces the orbit configuration.
func (o *OrbitControls) SetConfig(cfg OrbitConfig) {
	o.cfg = cfg
	o.springDT = 0
}

// SetLimits sets the distance range and the maximum polar angle (from +Y).
func (o *OrbitControls) SetLimits(minDistance, maxDistance, maxPolar float32) {
	o.MinDistance = minDistance
	o.MaxDistance = maxDistance
	o.MinPitch = gomath.Pi/2 - maxPolar
	o.MaxPitch = gomath.Pi/2 - 0.01
}

// SyncFromCamera recomputes the spherical coordinates from the camera's
// current position and target.
func (o *OrbitControls) SyncFromCamera() {
	o.Target = o.cam.Target
	offset := o.cam.Position().Sub(o.Target)
	d := offset.Len()
	if d < 1e-9 {
		return
	}
	o.Distance = d
	o.Pitch = float32(gomath.Asin(float64(offset.Y() / d)))
	o.Yaw = float32(gomath.Atan2(float64(offset.X()), float64(offset.Z())))
}

// Position returns the camera position implied by the spherical coordinates.
func (o *OrbitControls) Position() mgl32.Vec3 {
	cp := gomath.Cos(float64(o.Pitch))
	x := o.Distance * float32(cp*gomath.Sin(float64(o.Yaw)))
	y := o.Distance * float32(gomath.Sin(float64(o.Pitch)))
	z := o.Distance * float32(cp*gomath.Cos(float64(o.Yaw)))
	return o.Target.Add(mgl32.Vec3{x, y, z})
}

// HandleDrag queues rotation from a pointer drag delta.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	if !o.Enabled {
		return
	}
	o.yawVel -= float64(deltaX * o.cfg.RotateSpeed)
	o.pitchVel += float64(deltaY * o.cfg.RotateSpeed)
}

// HandleZoom queues a dolly from a scroll delta; positive moves closer.
func (o *OrbitControls) HandleZoom(delta float32) {
	if !o.Enabled {
		return
	}
	o.zoomVel += float64(delta * o.cfg.ZoomSpeed)
}

// Stop discards pending motion.
func (o *OrbitControls) Stop() {
	o.yawVel, o.pitchVel, o.zoomVel = 0, 0, 0
	o.yawAccel, o.pitchAccel, o.zoomAccel = 0, 0, 0
}

// Moving reports whether queued motion remains.
func (o *OrbitControls) Moving() bool {
	const eps = 1e-6
	return gomath.Abs(o.yawVel) > eps || gomath.Abs(o.pitchVel) > eps || gomath.Abs(o.zoomVel) > eps
}

// Update applies queued motion and damping. The camera is only written when
// something moved, so a pose the controls cannot reach (closer than
// MinDistance, say) is left alone until the user interacts.
func (o *OrbitControls) Update(dt float32) bool {
	if !o.Enabled {
		return false
	}
	auto := o.cfg.AutoRotate && o.cfg.AutoRotateSpeed != 0
	if !o.Moving() && !auto {
		return false
	}

	o.Yaw += float32(o.yawVel)
	o.Pitch += float32(o.pitchVel)
	o.Distance -= o.Distance * float32(o.zoomVel)
	if auto {
		o.Yaw += o.cfg.AutoRotateSpeed * dt
	}
	o.clamp()

	if o.cfg.Damping && dt > 0 {
		if dt != o.springDT {
			o.spring = harmonica.NewSpring(float64(dt), o.cfg.DampingFrequency, 1.0)
			o.springDT = dt
		}
		o.yawVel, o.yawAccel = o.spring.Update(o.yawVel, o.yawAccel, 0)
		o.pitchVel, o.pitchAccel = o.spring.Update(o.pitchVel, o.pitchAccel, 0)
		o.zoomVel, o.zoomAccel = o.spring.Update(o.zoomVel, o.zoomAccel, 0)
	} else {
		o.Stop()
	}

	o.cam.Place(o.Position(), o.Target)
	return true
}

func (o *OrbitControls) clamp() {
	if o.Pitch < o.MinPitch {
		o.Pitch = o.MinPitch
	}
	if o.Pitch > o.MaxPitch {
		o.Pitch = o.MaxPitch
	}
	if o.Distance < o.MinDistance {
		o.Distance = o.MinDistance
	}
	if o.Distance > o.MaxDistance {
		o.Distance = o.MaxDistance
	}
}

// SaveState records the current orbit so Reset can return to it.
func (o *OrbitControls) SaveState() {
	o.saved = orbitState{target: o.Target, distance: o.Distance, yaw: o.Yaw, pitch: o.Pitch}
}

// Reset restores the saved orbit and moves the camera there.
func (o *OrbitControls) Reset() {
	o.Stop()
	o.Target = o.saved.target
	o.Distance = o.saved.distance
	o.Yaw = o.saved.yaw
	o.Pitch = o.saved.pitch
	o.cam.Place(o.Position(), o.Target)
}
