// Package viewer ties the scene, camera, lighting, material and wheel
// components together and drives them from a single frame tick.
//
// Every method except Post and Snapshot must be called from the goroutine
// that calls Tick. Background producers hand work over with Post.
package viewer

import (
	"context"
	"errors"
	gomath "math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/assets"
	"github.com/Faultbox/carviewer/internal/engine/camera"
	"github.com/Faultbox/carviewer/internal/engine/framing"
	"github.com/Faultbox/carviewer/internal/engine/lighting"
	"github.com/Faultbox/carviewer/internal/engine/material"
	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/engine/tween"
	"github.com/Faultbox/carviewer/internal/engine/vehicle"
	"github.com/Faultbox/carviewer/internal/logger"
)

// MaxFrameDelta caps the time one tick may advance animations by.
const MaxFrameDelta = 0.25

// DefaultPoseSeconds is the transition time back to the default pose.
const DefaultPoseSeconds = 1.0

// Renderer draws the scene. Implementations live outside the core.
type Renderer interface {
	Render(root *scene.Node, cam *camera.Camera)
	SetSize(width, height int)
	SetExposure(value float32)
	// SetBackground sets the sky cube drawn behind the scene; nil clears it.
	SetBackground(tex *scene.Texture)
}

// AssetLoader decodes a model in the background and reports through cb.
type AssetLoader interface {
	Load(ctx context.Context, path string, cb assets.Callbacks)
}

// ViewState is the user-visible view status.
type ViewState struct {
	ActivePose         string `json:"activePose"`
	AssetLoaded        bool   `json:"assetLoaded"`
	UserControlEnabled bool   `json:"userControlEnabled"`
}

// Options configure a Viewer.
type Options struct {
	Renderer    Renderer
	Loader      AssetLoader
	Settings    Settings
	FOV         float32 // vertical, degrees
	Width       int
	Height      int
	InitialPose string // requested once the first asset is framed
}

// Viewer is the scene state orchestrator.
type Viewer struct {
	renderer Renderer
	loader   AssetLoader
	queue    Queue

	settings Settings
	dirty    bool

	world    *scene.Node
	cam      *camera.Camera
	controls *camera.OrbitControls
	poses    *camera.PoseController
	lights   *lighting.Manager
	wheels   *vehicle.Animator
	envMap   *scene.Texture

	asset   *scene.Asset
	framing framing.Result

	loading      bool
	loadPath     string
	loadProgress float32
	loadErr      error
	generation   uint64
	cancelLoad   context.CancelFunc
	initialPose  string

	frames uint64

	snapMu sync.RWMutex
	snap   State

	log *zap.Logger
}

// New creates a viewer with nothing loaded.
func New(opts Options) *Viewer {
	fov := opts.FOV
	if fov <= 0 {
		fov = 60
	}
	aspect := float32(16.0 / 9.0)
	if opts.Width > 0 && opts.Height > 0 {
		aspect = float32(opts.Width) / float32(opts.Height)
	}

	cam := camera.New(fov, aspect)
	controls := camera.NewOrbitControls(cam, opts.Settings.Orbit)
	controls.Enabled = false

	v := &Viewer{
		renderer:    opts.Renderer,
		loader:      opts.Loader,
		settings:    opts.Settings,
		world:       scene.NewGroup("world"),
		cam:         cam,
		controls:    controls,
		poses:       camera.NewPoseController(cam, controls),
		wheels:      vehicle.NewAnimator(opts.Settings.Wheels),
		initialPose: opts.InitialPose,
		log:         logger.Named("viewer"),
	}
	v.world.Add(cam.Node)
	v.lights = lighting.NewManager(cam.Node, opts.Renderer)
	v.poses.SetEase(tween.ByName(opts.Settings.Ease))
	v.envMap = envTexture(opts.Settings.EnvironmentMap)

	if opts.Renderer != nil && opts.Width > 0 && opts.Height > 0 {
		opts.Renderer.SetSize(opts.Width, opts.Height)
	}
	v.setBackground(opts.Settings.Background)
	v.lights.SetExposure(opts.Settings.Lighting.Exposure)
	v.publish()
	return v
}

func envTexture(name string) *scene.Texture {
	if name == "" {
		return nil
	}
	return &scene.Texture{Name: name, Encoding: scene.SRGBEncoding}
}

func (v *Viewer) setBackground(name string) {
	if v.renderer != nil {
		v.renderer.SetBackground(envTexture(name))
	}
}

// Post schedules fn to run on the frame goroutine at the next Tick.
// Safe for concurrent use.
func (v *Viewer) Post(fn func()) {
	v.queue.Post(fn)
}

// Camera returns the viewer camera.
func (v *Viewer) Camera() *camera.Camera {
	return v.cam
}

// Controls returns the free-orbit controls.
func (v *Viewer) Controls() *camera.OrbitControls {
	return v.controls
}

// Poses returns the pose controller.
func (v *Viewer) Poses() *camera.PoseController {
	return v.poses
}

// Lights returns the lighting manager.
func (v *Viewer) Lights() *lighting.Manager {
	return v.lights
}

// Wheels returns the wheel animator.
func (v *Viewer) Wheels() *vehicle.Animator {
	return v.wheels
}

// World returns the scene root holding the camera and the asset.
func (v *Viewer) World() *scene.Node {
	return v.world
}

// Asset returns the loaded asset, or nil.
func (v *Viewer) Asset() *scene.Asset {
	return v.asset
}

// Framing returns the framing of the loaded asset.
func (v *Viewer) Framing() framing.Result {
	return v.framing
}

// LoadError returns the error of the most recent failed load, if the most
// recent load failed.
func (v *Viewer) LoadError() error {
	return v.loadErr
}

// Loading reports whether a load is in flight and its last progress.
func (v *Viewer) Loading() (bool, float32) {
	return v.loading, v.loadProgress
}

// Load starts loading path. A load already in flight is cancelled and its
// late results are ignored. The outcome is applied during a later Tick.
func (v *Viewer) Load(ctx context.Context, path string) {
	if v.cancelLoad != nil {
		v.cancelLoad()
	}
	v.generation++
	gen := v.generation
	ctx, cancel := context.WithCancel(ctx)
	v.cancelLoad = cancel

	v.loading = true
	v.loadPath = path
	v.loadProgress = 0
	v.log.Info("loading asset", zap.String("path", path))

	if v.loader == nil {
		v.failLoad(path, errors.New("no asset loader configured"))
		return
	}

	v.loader.Load(ctx, path, assets.Callbacks{
		OnProgress: func(f float32) {
			v.Post(func() {
				if gen == v.generation && v.loading {
					v.loadProgress = f
				}
			})
		},
		OnSuccess: func(asset *scene.Asset) {
			v.Post(func() {
				if gen != v.generation {
					v.log.Debug("stale load ignored", zap.String("path", path))
					return
				}
				v.setContent(asset)
			})
		},
		OnError: func(err error) {
			v.Post(func() {
				if gen != v.generation {
					return
				}
				v.failLoad(path, err)
			})
		},
	})
}

func (v *Viewer) failLoad(path string, err error) {
	v.loading = false
	v.loadErr = &AssetLoadError{Path: path, Err: err}
	v.log.Error("asset load failed", zap.String("path", path), zap.Error(err))
}

// SetContent installs an already loaded asset, replacing the current one.
func (v *Viewer) SetContent(asset *scene.Asset) {
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
	v.generation++
	v.setContent(asset)
}

// setContent frames the asset, rebuilds lights and materials, indexes the
// wheels and settles the camera on the default pose.
func (v *Viewer) setContent(asset *scene.Asset) {
	if asset == nil || asset.Root == nil {
		v.failLoad(v.loadPath, errors.New("empty asset"))
		return
	}
	if v.asset != nil {
		v.asset.Root.Detach()
	}
	v.wheels.Unbind()

	v.asset = asset
	v.loading = false
	v.loadProgress = 1
	v.loadErr = nil

	v.framing = framing.Compute(asset.Bounds)
	fr := v.framing
	v.cam.SetClip(fr.Near, fr.Far)
	v.controls.SetLimits(fr.MinDistance, fr.MaxDistance, fr.MaxPolar)

	v.world.Add(asset.Root)

	if err := v.lights.SyncLights(asset.Root, v.settings.Lighting); err != nil {
		v.log.Warn("light sync failed", zap.Error(err))
	}
	st := material.ApplyEnvironment(asset.Root, v.envMap, v.settings.Policy)
	v.log.Debug("environment applied",
		zap.Int("meshes", st.Meshes),
		zap.Int("materials", st.Materials),
		zap.Int("matched", st.Matched),
		zap.Int("encoded", st.Encoded),
	)

	if err := v.wheels.Bind(asset.Root); err != nil {
		v.log.Info("wheel animation limited", zap.Error(err))
	}

	first := v.defaultPose()
	v.poses.Reset(v.buildRegistry(first), first)

	v.log.Info("asset framed",
		zap.String("path", asset.Path),
		zap.Float32("radius", fr.Radius),
		zap.Float32("near", fr.Near),
		zap.Float32("far", fr.Far),
		zap.Bool("authored_lights", v.lights.Authored()),
	)

	if name := v.initialPose; name != "" && name != camera.DefaultPoseName {
		if err := v.poses.RequestPose(name); err != nil {
			v.log.Warn("initial pose unavailable", zap.Error(err))
		}
	}
}

func (v *Viewer) defaultPose() camera.Pose {
	return camera.Pose{
		Name:     camera.DefaultPoseName,
		Position: v.framing.Position,
		Target:   v.framing.Target,
		Duration: DefaultPoseSeconds,
	}
}

func (v *Viewer) buildRegistry(first camera.Pose) *camera.Registry {
	reg, err := camera.BuildRegistry(first, v.settings.Poses, v.framing.Center, v.framing.Radius)
	if err != nil {
		v.log.Warn("pose table rejected, keeping default pose only", zap.Error(err))
		reg, _ = camera.NewRegistry(first)
	}
	for _, p := range v.authoredPoses() {
		if err := reg.Add(p); err != nil {
			v.log.Warn("authored camera skipped", zap.Error(err))
		}
	}
	return reg
}

// authoredPoses turns the model's own cameras into fixed poses. Each looks
// along its node's -Z axis; orbiting stays off while one is active.
func (v *Viewer) authoredPoses() []camera.Pose {
	if v.asset == nil {
		return nil
	}
	var out []camera.Pose
	for _, n := range v.asset.Cameras() {
		pos := n.WorldPosition()
		fwd := n.WorldForward()
		if fwd.Len() == 0 {
			fwd = v.framing.Center.Sub(pos)
			if fwd.Len() == 0 {
				fwd = mgl32.Vec3{0, 0, -1}
			} else {
				fwd = fwd.Normalize()
			}
		}
		out = append(out, camera.Pose{
			Name:           n.Name,
			Position:       pos,
			Target:         pos.Add(fwd.Mul(v.framing.Radius)),
			Duration:       DefaultPoseSeconds,
			NonInteractive: true,
		})
	}
	return out
}

// Settings returns the live settings for in-place edits.
func (v *Viewer) Settings() *Settings {
	return &v.settings
}

// SetSettings replaces the settings and schedules a re-sync.
func (v *Viewer) SetSettings(s Settings) {
	v.settings = s
	v.NotifyChanged()
}

// NotifyChanged marks the settings dirty; the next Tick re-applies them.
func (v *Viewer) NotifyChanged() {
	v.dirty = true
}

func (v *Viewer) applySettings() {
	v.dirty = false
	s := v.settings

	v.controls.SetConfig(s.Orbit)
	v.wheels.SetConfig(s.Wheels)
	v.poses.SetEase(tween.ByName(s.Ease))
	v.envMap = envTexture(s.EnvironmentMap)
	v.setBackground(s.Background)

	if v.asset == nil {
		v.lights.SetExposure(s.Lighting.Exposure)
		return
	}
	if err := v.lights.SyncLights(v.asset.Root, s.Lighting); err != nil {
		v.log.Warn("light sync failed", zap.Error(err))
	}
	material.ApplyEnvironment(v.asset.Root, v.envMap, s.Policy)
	v.poses.SetRegistry(v.buildRegistry(v.defaultPose()))
	v.log.Debug("settings applied", zap.String("preset", s.Lighting.Preset))
}

// SetExposure changes the tone-mapping exposure without rebuilding lights.
func (v *Viewer) SetExposure(value float32) {
	v.settings.Lighting.Exposure = value
	v.lights.SetExposure(value)
}

// RequestPose starts a transition to a named pose.
func (v *Viewer) RequestPose(name string) error {
	return v.poses.RequestPose(name)
}

// SetSteer requests a steering direction and returns the resulting state.
func (v *Viewer) SetSteer(dir vehicle.SteerState) vehicle.SteerState {
	return v.wheels.SetSteer(dir)
}

// Orbit feeds a pointer drag into the free-orbit controls. Input is dropped
// while a transition is in flight.
func (v *Viewer) Orbit(deltaX, deltaY float32) {
	if v.poses.Transitioning() {
		return
	}
	v.controls.HandleDrag(deltaX, deltaY)
}

// Zoom feeds a scroll delta into the free-orbit controls.
func (v *Viewer) Zoom(delta float32) {
	if v.poses.Transitioning() {
		return
	}
	v.controls.HandleZoom(delta)
}

// Resize updates the renderer size and camera aspect.
func (v *Viewer) Resize(width, height int) {
	v.cam.SetViewport(width, height)
	if v.renderer != nil {
		v.renderer.SetSize(width, height)
	}
}

// ViewState returns the current view status.
func (v *Viewer) ViewState() ViewState {
	return ViewState{
		ActivePose:         v.poses.Active().Name,
		AssetLoaded:        v.asset != nil,
		UserControlEnabled: v.controls.Enabled && !v.poses.Transitioning(),
	}
}

// Frames returns the number of completed ticks.
func (v *Viewer) Frames() uint64 {
	return v.frames
}

// Tick advances the viewer by dt seconds and renders one frame.
func (v *Viewer) Tick(dt float32) {
	if !(dt > 0) {
		dt = 0
	}
	if dt > MaxFrameDelta || gomath.IsInf(float64(dt), 1) {
		dt = MaxFrameDelta
	}

	for _, fn := range v.queue.Drain() {
		fn()
	}
	if v.dirty {
		v.applySettings()
	}

	v.poses.Update(dt)
	if !v.poses.Transitioning() {
		v.controls.Update(dt)
	}
	v.lights.Update(dt)
	v.wheels.Update(dt, v.asset != nil)

	if v.renderer != nil {
		v.renderer.Render(v.world, v.cam)
	}
	v.frames++
	v.publish()
}

// Close cancels any load in flight.
func (v *Viewer) Close() {
	if v.cancelLoad != nil {
		v.cancelLoad()
		v.cancelLoad = nil
	}
}
