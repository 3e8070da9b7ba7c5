// Package vehicle animates the wheels of a loaded model: a constant idle
// roll and eased steering yaw.
package vehicle

import (
	"errors"
	"fmt"
	gomath "math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/engine/tween"
	"github.com/Faultbox/carviewer/internal/logger"
)

// Wheel node names expected in the model.
const (
	WheelFL = "WheelFL"
	WheelFR = "WheelFR"
	WheelBL = "WheelBL"
	WheelBR = "WheelBR"
)

// Roles lists the wheel roles in index order.
var Roles = []string{WheelFL, WheelFR, WheelBL, WheelBR}

// SteerState is the discrete steering direction.
type SteerState int

const (
	Center SteerState = iota
	Left
	Right
)

func (s SteerState) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "center"
	}
}

// ParseSteer converts a direction name to a SteerState.
func ParseSteer(s string) (SteerState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "center", "centre", "c", "":
		return Center, nil
	}
	return Center, fmt.Errorf("unknown steer direction %q", s)
}

// sign is the yaw sign for a direction; Left turns positive about +Y.
func (s SteerState) sign() float32 {
	switch s {
	case Left:
		return 1
	case Right:
		return -1
	}
	return 0
}

// Config tunes the wheel animation.
type Config struct {
	Speed        float32 `yaml:"speed"`         // roll radians per frame
	FrontYaw     float32 `yaml:"front_yaw"`     // radians
	RearYaw      float32 `yaml:"rear_yaw"`      // radians
	SteerSeconds float32 `yaml:"steer_seconds"` // yaw tween duration
}

// DefaultConfig returns the stock wheel settings.
func DefaultConfig() Config {
	return Config{
		Speed:        0.1,
		FrontYaw:     0.45,
		RearYaw:      0.12,
		SteerSeconds: 0.35,
	}
}

type wheel struct {
	node  *scene.Node
	base  mgl32.Quat // authored rotation
	front bool
	roll  float32
	yaw   tween.Float
}

func (w *wheel) apply() {
	yaw := mgl32.QuatRotate(w.yaw.Value(), mgl32.Vec3{0, 1, 0})
	roll := mgl32.QuatRotate(w.roll, mgl32.Vec3{1, 0, 0})
	w.node.Rotation = w.base.Mul(yaw).Mul(roll)
}

// Animator owns the wheel index built once per load.
type Animator struct {
	cfg    Config
	wheels map[string]*wheel
	state  SteerState
	log    *zap.Logger
}

// NewAnimator creates an animator with no wheels bound.
func NewAnimator(cfg Config) *Animator {
	return &Animator{
		cfg:    cfg,
		wheels: make(map[string]*wheel, len(Roles)),
		log:    logger.Named("vehicle"),
	}
}

// Config returns the active configuration.
func (a *Animator) Config() Config {
	return a.cfg
}

// SetConfig replaces the configuration. In-flight yaw tweens keep their
// original duration.
func (a *Animator) SetConfig(cfg Config) {
	a.cfg = cfg
}

// Bind indexes the wheel nodes under root and resets steering. Missing wheels
// are reported as a MissingSceneNode; whatever was found stays bound and the
// features needing the absent wheels turn themselves off.
func (a *Animator) Bind(root *scene.Node) error {
	a.Unbind()
	if root == nil {
		return fmt.Errorf("bind wheels: %w", scene.ErrMissingNode)
	}

	index, err := scene.Index(root, Roles...)
	for role, node := range index {
		w := &wheel{
			node:  node,
			base:  node.Rotation,
			front: role == WheelFL || role == WheelFR,
		}
		w.yaw.Set(0)
		a.wheels[role] = w
	}

	if err != nil {
		var missing *scene.MissingSceneNode
		if errors.As(err, &missing) {
			a.log.Debug("wheel animation degraded", zap.Strings("missing", missing.Roles))
		}
		return err
	}
	a.log.Debug("wheels bound")
	return nil
}

// Unbind forgets all wheels and returns steering to Center.
func (a *Animator) Unbind() {
	a.wheels = make(map[string]*wheel, len(Roles))
	a.state = Center
}

// CanRoll reports whether all four wheels are bound.
func (a *Animator) CanRoll() bool {
	return len(a.wheels) == len(Roles)
}

// CanSteer reports whether both the front and the rear pair are bound.
func (a *Animator) CanSteer() bool {
	return a.has(WheelFL, WheelFR) && a.has(WheelBL, WheelBR)
}

// Bound reports whether role was found by the last Bind.
func (a *Animator) Bound(role string) bool {
	return a.has(role)
}

func (a *Animator) has(roles ...string) bool {
	for _, r := range roles {
		if a.wheels[r] == nil {
			return false
		}
	}
	return true
}

// State returns the current steering direction.
func (a *Animator) State() SteerState {
	return a.state
}

// Yaw returns the current yaw of a wheel role, 0 when unbound.
func (a *Animator) Yaw(role string) float32 {
	if w := a.wheels[role]; w != nil {
		return w.yaw.Value()
	}
	return 0
}

// Roll returns the accumulated roll of a wheel role, 0 when unbound.
func (a *Animator) Roll(role string) float32 {
	if w := a.wheels[role]; w != nil {
		return w.roll
	}
	return 0
}

// Steering reports whether a yaw tween is in flight.
func (a *Animator) Steering() bool {
	for _, w := range a.wheels {
		if w.yaw.Active() {
			return true
		}
	}
	return false
}

// SetSteer requests a steering direction and returns the resulting state.
// Requesting the current direction toggles back to Center. Without both
// wheel pairs the call changes nothing.
func (a *Animator) SetSteer(dir SteerState) SteerState {
	if !a.CanSteer() {
		a.log.Debug("steer ignored, wheels missing", zap.Stringer("direction", dir))
		return a.state
	}

	next := dir
	if dir == a.state {
		next = Center
	}

	for _, w := range a.wheels {
		target := a.cfg.RearYaw
		if w.front {
			target = a.cfg.FrontYaw
		}
		w.yaw.Start(target*next.sign(), a.cfg.SteerSeconds, tween.EaseInOutCubic)
	}

	a.log.Debug("steer", zap.Stringer("from", a.state), zap.Stringer("to", next))
	a.state = next
	return next
}

// Update advances yaw tweens and, when loaded with a full set of wheels, adds
// one frame of roll.
func (a *Animator) Update(dt float32, loaded bool) {
	if !loaded || len(a.wheels) == 0 {
		return
	}
	roll := a.CanRoll()
	for _, w := range a.wheels {
		w.yaw.Advance(dt)
		if roll {
			w.roll = float32(gomath.Mod(float64(w.roll+a.cfg.Speed), 2*gomath.Pi))
		}
		w.apply()
	}
}
