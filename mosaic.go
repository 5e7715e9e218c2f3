// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mosaic renders 2D scenes built from instances of a shared model.
// A model is uploaded once; every frame, the scene's instances are expanded
// on the GPU into per-instance geometry and rasterized in a single command
// submission.
package mosaic

import (
	"github.com/charmbracelet/log"
	"honnef.co/go/color"
	"honnef.co/go/curve"
	"honnef.co/go/mosaic/engine/wgpu_engine"
	"honnef.co/go/mosaic/gfx"
	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/mmath"
	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
	"honnef.co/go/wgpu"
)

type RenderParams struct {
	// BaseColor fills pixels no shard covers.
	BaseColor *color.Color
	Width     uint32
	Height    uint32
	Camera    renderer.Camera
}

// Scene is the per-frame list of model instances. It is rebuilt every frame;
// between frames, Reset keeps the backing storage.
type Scene struct {
	instances []renderer.Instance
}

// Reset empties the scene, retaining allocated capacity.
func (s *Scene) Reset() {
	s.instances = s.instances[:0]
}

// Add places one instance of the model's frame under the given transform.
func (s *Scene) Add(frame int32, tf curve.Affine) {
	s.AddMat4(frame, mmath.FromAffine(tf))
}

func (s *Scene) AddMat4(frame int32, tf mmath.Mat4) {
	s.instances = append(s.instances, renderer.Instance{
		WorldTF: tf,
		Frame:   frame,
	})
}

// Len returns the number of instances in the scene.
func (s *Scene) Len() int {
	return len(s.instances)
}

type RendererOptions struct {
	// TargetFormat is the format of the textures passed to RenderToTexture.
	TargetFormat wgpu.TextureFormat
	Logger       *log.Logger
}

// Renderer ties a model, the capacity state of the expansion buffers, and
// the device-side engine together. Methods on a Renderer must not be called
// concurrently.
type Renderer struct {
	engine *wgpu_engine.Engine
	logger *log.Logger
	infos  []model.FrameInfo
	caps   renderer.Capacities
}

func NewRenderer(dev *wgpu.Device, options RendererOptions) *Renderer {
	return &Renderer{
		engine: wgpu_engine.New(dev, &wgpu_engine.RendererOptions{
			TargetFormat: options.TargetFormat,
			Logger:       options.Logger,
		}),
		logger: options.Logger,
		caps:   renderer.NewCapacities(),
	}
}

// SetModel validates m and uploads its geometry to the device. It must be
// called before the first frame. Scenes rendered afterwards reference the
// frames of m.
func (r *Renderer) SetModel(queue *wgpu.Queue, m *model.Model) error {
	if err := model.Validate(m); err != nil {
		return err
	}
	r.infos = model.DeriveFrameInfos(m)
	r.engine.UploadModel(queue, m)
	return nil
}

// RenderToTexture renders scene into texture. All GPU work of the frame,
// including buffer growth and the expansion dispatch, lands in one atomic
// submission.
//
// A returned ResourceWriteError means the frame was skipped; the renderer
// stays usable and the next frame may proceed.
func (r *Renderer) RenderToTexture(
	arena *mem.Arena,
	queue *wgpu.Queue,
	scene *Scene,
	texture *wgpu.TextureView,
	params *RenderParams,
) error {
	vp := renderer.Viewport{Width: params.Width, Height: params.Height}
	uniforms := renderer.NewUniforms(vp, params.Camera.WorldClip(vp))
	recording := renderer.RenderFrame(arena, scene.instances, r.infos, uniforms, &r.caps)

	base := gfx.Premul32(params.BaseColor)
	err := r.engine.RunRecording(arena, queue, recording, wgpu_engine.RenderTarget{
		View:   texture,
		Width:  params.Width,
		Height: params.Height,
		Base: [4]float64{
			float64(base[0]),
			float64(base[1]),
			float64(base[2]),
			float64(base[3]),
		},
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("skipped frame", "err", err)
		}
		return err
	}
	return nil
}
