package camera

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/tween"
	"github.com/Faultbox/carviewer/internal/logger"
)

// ErrInvalidPose is wrapped by every InvalidPoseRequest.
var ErrInvalidPose = errors.New("invalid pose request")

// InvalidPoseRequest reports a request for a pose the registry does not hold.
type InvalidPoseRequest struct {
	Name  string
	Known []string
}

func (e *InvalidPoseRequest) Error() string {
	return fmt.Sprintf("unknown camera pose %q (known: %v)", e.Name, e.Known)
}

func (e *InvalidPoseRequest) Unwrap() error {
	return ErrInvalidPose
}

// Phase is the controller state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTransitioning
)

func (p Phase) String() string {
	if p == PhaseTransitioning {
		return "transitioning"
	}
	return "idle"
}

// arriveEpsilon is how close the camera must be to count as at a pose.
const arriveEpsilon = 1e-4

// PoseController animates the camera between registry poses and owns the
// enabled flag of the orbit controls: free orbit is off for the whole of a
// transition and comes back only when the camera settles on an interactive
// pose.
type PoseController struct {
	cam      *Camera
	controls *OrbitControls
	registry *Registry
	ease     tween.EaseFunc

	phase  Phase
	active Pose // Idle: current pose. Transitioning: destination.
	from   Pose // live snapshot the transition started from

	clock tween.Clock

	log *zap.Logger
}

// NewPoseController creates a controller with no registry; every request
// fails until Reset installs one.
func NewPoseController(cam *Camera, controls *OrbitControls) *PoseController {
	return &PoseController{
		cam:      cam,
		controls: controls,
		ease:     tween.EaseOutCubic,
		log:      logger.Named("camera"),
	}
}

// SetEase overrides the transition curve.
func (p *PoseController) SetEase(ease tween.EaseFunc) {
	if ease != nil {
		p.ease = ease
	}
}

// Reset installs a registry and snaps to pose, entering Idle(pose).
func (p *PoseController) Reset(registry *Registry, pose Pose) {
	p.registry = registry
	p.phase = PhaseIdle
	p.active = pose
	p.from = pose
	p.clock = tween.Clock{}

	p.cam.Place(pose.Position, pose.Target)
	p.controls.Stop()
	p.controls.SyncFromCamera()
	p.controls.SaveState()
	p.controls.Enabled = !pose.NonInteractive
}

// SetRegistry swaps the pose table without moving the camera. A transition in
// flight still finishes at its destination.
func (p *PoseController) SetRegistry(registry *Registry) {
	p.registry = registry
}

// Registry returns the installed registry, which may be nil before load.
func (p *PoseController) Registry() *Registry {
	return p.registry
}

// Phase returns the current state.
func (p *PoseController) Phase() Phase {
	return p.phase
}

// Transitioning reports whether a transition is in flight.
func (p *PoseController) Transitioning() bool {
	return p.phase == PhaseTransitioning
}

// Active returns the current pose, or the destination while transitioning.
func (p *PoseController) Active() Pose {
	return p.active
}

// From returns the snapshot the current transition started from.
func (p *PoseController) From() Pose {
	return p.from
}

// Progress returns the normalized transition time, 1 when idle.
func (p *PoseController) Progress() float32 {
	if p.phase == PhaseIdle {
		return 1
	}
	return p.clock.Progress()
}

// RequestPose starts a transition to the named pose. Unknown names return an
// InvalidPoseRequest and change nothing. Requesting the pose the camera is
// idling at is a no-op. A request during a transition restarts from the
// camera's live position rather than the original origin.
func (p *PoseController) RequestPose(name string) error {
	pose, ok := p.registry.Lookup(name)
	if !ok {
		err := &InvalidPoseRequest{Name: name, Known: p.registry.Names()}
		p.log.Warn("rejected pose request", zap.String("pose", name))
		return err
	}

	if p.phase == PhaseIdle && p.active.Name == name && p.at(pose) {
		return nil
	}

	if p.phase == PhaseTransitioning {
		p.log.Debug("transition cancelled",
			zap.String("from", p.active.Name),
			zap.String("to", name),
			zap.Float32("progress", p.clock.Progress()),
		)
	}

	p.from = Pose{
		Name:     p.active.Name,
		Position: p.cam.Position(),
		Target:   p.cam.Target,
	}
	p.active = pose
	p.phase = PhaseTransitioning
	p.clock = tween.Clock{Duration: pose.Duration}

	p.controls.Stop()
	p.controls.Enabled = false

	p.log.Debug("transition started",
		zap.String("pose", name),
		zap.Float32("duration", pose.Duration),
	)
	return nil
}

// Update advances an in-flight transition and reports whether it settled
// during this call.
func (p *PoseController) Update(dt float32) bool {
	if p.phase != PhaseTransitioning {
		return false
	}

	if p.clock.Advance(dt) {
		p.cam.Place(p.active.Position, p.active.Target)
		p.phase = PhaseIdle
		p.controls.SyncFromCamera()
		p.controls.Enabled = !p.active.NonInteractive
		p.log.Info("pose settled", zap.String("pose", p.active.Name))
		return true
	}

	t := p.ease(p.clock.Progress())
	p.cam.Place(
		tween.LerpVec3(p.from.Position, p.active.Position, t),
		tween.LerpVec3(p.from.Target, p.active.Target, t),
	)
	return false
}

func (p *PoseController) at(pose Pose) bool {
	return p.cam.Position().ApproxEqualThreshold(pose.Position, arriveEpsilon) &&
		p.cam.Target.ApproxEqualThreshold(pose.Target, arriveEpsilon)
}
