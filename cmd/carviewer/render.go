package main

import (
	"go.uber.org/zap"

	"github.com/Faultbox/carviewer/internal/engine/camera"
	"github.com/Faultbox/carviewer/internal/engine/scene"
	"github.com/Faultbox/carviewer/internal/logger"
)

// statsRenderer stands in for a GPU renderer. It walks the scene each frame
// and keeps counts, logging a summary every logEvery frames.
type statsRenderer struct {
	frames     uint64
	exposure   float32
	width      int
	height     int
	background string

	meshes int
	lights int

	logEvery uint64
	log      *zap.Logger
}

func newStatsRenderer(fps int) *statsRenderer {
	every := uint64(fps) * 5
	if every == 0 {
		every = 300
	}
	return &statsRenderer{
		exposure: 1,
		logEvery: every,
		log:      logger.Named("render"),
	}
}

func (r *statsRenderer) Render(root *scene.Node, cam *camera.Camera) {
	r.frames++
	r.meshes, r.lights = 0, 0
	root.Traverse(func(n *scene.Node) {
		switch n.Kind {
		case scene.KindMesh:
			r.meshes++
		case scene.KindLight:
			r.lights++
		}
	})

	if r.logEvery > 0 && r.frames%r.logEvery == 0 {
		pos := cam.Position()
		r.log.Debug("frame",
			zap.Uint64("frames", r.frames),
			zap.Int("meshes", r.meshes),
			zap.Int("lights", r.lights),
			zap.Float32("exposure", r.exposure),
			zap.Float32s("camera", pos[:]),
		)
	}
}

func (r *statsRenderer) SetSize(width, height int) {
	r.width, r.height = width, height
}

func (r *statsRenderer) SetExposure(value float32) {
	r.exposure = value
}

func (r *statsRenderer) SetBackground(tex *scene.Texture) {
	r.background = ""
	if tex != nil {
		r.background = tex.Name
	}
	r.log.Debug("background", zap.String("texture", r.background))
}
