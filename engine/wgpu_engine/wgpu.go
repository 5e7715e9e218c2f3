// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
	"honnef.co/go/safeish"
	"honnef.co/go/wgpu"
)

// Engine owns the device-side state of the renderer: one buffer per slot,
// the bind groups over them, and the expand and raster pipelines. Dynamic
// buffers are recreated on growth events, which invalidates the bind groups
// that reference them; bind groups are rebuilt lazily on the next use.
type Engine struct {
	Device *wgpu.Device
	logger *log.Logger

	layouts [renderer.NumBindGroups]*wgpu.BindGroupLayout
	expand  *wgpu.ComputePipeline
	raster  *wgpu.RenderPipeline

	buffers [renderer.NumSlots]*wgpu.Buffer
	groups  [renderer.NumBindGroups]*wgpu.BindGroup
	dirty   [renderer.NumBindGroups]bool

	depth *targetDepth
}

func New(dev *wgpu.Device, options *RendererOptions) *Engine {
	eng := &Engine{
		Device: dev,
		logger: options.Logger,
	}
	for id := renderer.BindGroupID(0); id < renderer.NumBindGroups; id++ {
		eng.layouts[id] = createBindGroupLayout(dev, id)
		eng.dirty[id] = true
	}
	eng.expand = createExpandPipeline(dev, &eng.layouts)
	eng.raster = createRasterPipeline(dev, &eng.layouts, options.TargetFormat)

	// Dynamic buffers start at capacity one, matching a fresh
	// renderer.Capacities. The uniform buffer never changes size.
	eng.createBuffer(renderer.SlotUniform, 1)
	for id := renderer.SlotID(0); id < renderer.NumSlots; id++ {
		if renderer.Lookup(id).Dynamic {
			eng.createBuffer(id, 1)
		}
	}
	return eng
}

func (eng *Engine) createBuffer(id renderer.SlotID, count uint64) {
	desc := renderer.Lookup(id).Descriptor(count)
	eng.buffers[id] = eng.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Name,
		Size:  desc.Size,
		Usage: bufferUsageToWGPU(desc.Usage),
	})
}

// UploadModel uploads m's geometry into the static model buffers, sized
// exactly to the model. It must be called before the first frame and may be
// called again to switch models; instances rendered afterwards reference the
// new model's frames.
func (eng *Engine) UploadModel(queue *wgpu.Queue, m *model.Model) {
	upload := func(id renderer.SlotID, count int, data []byte) {
		if eng.buffers[id] != nil {
			eng.buffers[id].Release()
		}
		eng.createBuffer(id, uint64(count))
		queue.WriteBuffer(eng.buffers[id], 0, data)
	}
	upload(renderer.SlotVertices, len(m.Vertices), safeish.SliceCast[[]byte](m.Vertices))
	upload(renderer.SlotSegments, len(m.Segments), safeish.SliceCast[[]byte](m.Segments))
	upload(renderer.SlotShards, len(m.Shards), safeish.SliceCast[[]byte](m.Shards))
	upload(renderer.SlotFrames, len(m.Frames), safeish.SliceCast[[]byte](m.Frames))
	eng.dirty[renderer.ModelGroup] = true
}

// grow recreates id's buffer with the given element capacity and marks the
// bind groups referencing it stale.
func (eng *Engine) grow(id renderer.SlotID, capacity uint64) {
	slot := renderer.Lookup(id)
	if !slot.Dynamic {
		panic(fmt.Sprintf("cannot grow static slot %q", slot.Name))
	}
	old := eng.buffers[id]
	eng.createBuffer(id, capacity)
	old.Release()
	for _, group := range renderer.DependentGroups(id) {
		eng.dirty[group] = true
	}
	if eng.logger != nil {
		eng.logger.Debug("grew buffer",
			"slot", slot.Name,
			"capacity", capacity,
			"bytes", slot.ElemSize*capacity)
	}
}

// bindGroup returns id's bind group, rebuilding it if a referenced buffer
// has been recreated since the last build.
func (eng *Engine) bindGroup(id renderer.BindGroupID) *wgpu.BindGroup {
	if !eng.dirty[id] {
		return eng.groups[id]
	}
	ids := renderer.GroupSlots(id)
	entries := make([]wgpu.BindGroupEntry, len(ids))
	for i, sid := range ids {
		buf := eng.buffers[sid]
		if buf == nil {
			panic(fmt.Sprintf("slot %q has no buffer; model not uploaded", renderer.Lookup(sid).Name))
		}
		entries[i] = wgpu.BindGroupEntry{
			Binding: renderer.Lookup(sid).Binding,
			Buffer:  buf,
			Size:    ^uint64(0),
		}
	}
	if eng.groups[id] != nil {
		eng.groups[id].Release()
	}
	eng.groups[id] = eng.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout:  eng.layouts[id],
		Entries: entries,
	})
	eng.dirty[id] = false
	return eng.groups[id]
}

// write uploads data to the start of id's buffer, checking that it fits.
func (eng *Engine) write(queue *wgpu.Queue, id renderer.SlotID, data []byte) error {
	buf := eng.buffers[id]
	if uint64(len(data)) > buf.Size() {
		return &ResourceWriteError{
			Slot: renderer.Lookup(id).Name,
			Size: uint64(len(data)),
			Cap:  buf.Size(),
		}
	}
	queue.WriteBuffer(buf, 0, data)
	return nil
}

// RenderTarget describes the color attachment of one frame.
type RenderTarget struct {
	View   *wgpu.TextureView
	Width  uint32
	Height uint32
	// Base is the premultiplied clear color.
	Base [4]float64
}

// RunRecording plays recording back against the device. Growth events
// recreate buffers and invalidate bind groups before any pass references
// them; all passes are recorded into a single command encoder and submitted
// atomically, so the raster pass observes the completed expansion of the same
// frame and nothing else.
//
// A ResourceWriteError means the frame was dropped before submission; device
// state is intact and the next frame may proceed.
func (eng *Engine) RunRecording(
	arena *mem.Arena,
	queue *wgpu.Queue,
	recording *renderer.Recording,
	target RenderTarget,
) error {
	if eng.depth == nil || eng.depth.Width != target.Width || eng.depth.Height != target.Height {
		if eng.depth != nil {
			eng.depth.View.Release()
		}
		eng.depth = newTargetDepth(eng.Device, target.Width, target.Height)
	}

	encoder := eng.Device.CreateCommandEncoder(mem.Make(arena, wgpu.CommandEncoderDescriptor{Label: "frame"}))
	defer encoder.Release()

	for _, cmd := range recording.Commands {
		switch cmd := cmd.(type) {
		case *renderer.Grow:
			eng.grow(cmd.Slot, cmd.Capacity)

		case *renderer.Upload:
			if err := eng.write(queue, cmd.Slot, cmd.Data); err != nil {
				return err
			}

		case *renderer.UploadUniform:
			if err := eng.write(queue, cmd.Slot, cmd.Data); err != nil {
				return err
			}

		case *renderer.Dispatch:
			if cmd.Kernel != renderer.KernelExpand {
				panic(fmt.Sprintf("unknown kernel %d", cmd.Kernel))
			}
			cpass := encoder.BeginComputePass(mem.Make(arena, wgpu.ComputePassDescriptor{
				Label: "expand",
			}))
			cpass.SetPipeline(eng.expand)
			cpass.SetBindGroup(0, eng.bindGroup(renderer.UniformGroup), nil)
			cpass.SetBindGroup(1, eng.bindGroup(renderer.ModelGroup), nil)
			cpass.SetBindGroup(2, eng.bindGroup(renderer.ExpandGroup), nil)
			cpass.DispatchWorkgroups(cmd.Workgroups[0], cmd.Workgroups[1], cmd.Workgroups[2])
			cpass.End()
			cpass.Release()

		case *renderer.Draw:
			rpass := encoder.BeginRenderPass(mem.Make(arena, wgpu.RenderPassDescriptor{
				Label: "raster",
				ColorAttachments: []wgpu.RenderPassColorAttachment{
					{
						View:    target.View,
						LoadOp:  wgpu.LoadOpClear,
						StoreOp: wgpu.StoreOpStore,
						ClearValue: wgpu.Color{
							R: target.Base[0],
							G: target.Base[1],
							B: target.Base[2],
							A: target.Base[3],
						},
					},
				},
				DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
					View:            eng.depth.View,
					DepthLoadOp:     wgpu.LoadOpClear,
					DepthStoreOp:    wgpu.StoreOpStore,
					DepthClearValue: 0,
				},
			}))
			rpass.SetPipeline(eng.raster)
			rpass.SetBindGroup(0, eng.bindGroup(renderer.UniformGroup), nil)
			rpass.SetBindGroup(1, eng.bindGroup(renderer.ModelGroup), nil)
			rpass.SetBindGroup(2, eng.bindGroup(renderer.RasterGroup), nil)
			if cmd.Vertices > 0 {
				rpass.Draw(cmd.Vertices, 1, 0, 0)
			}
			rpass.End()
			rpass.Release()

		default:
			panic(fmt.Sprintf("unhandled command %T", cmd))
		}
	}

	cmdBuf := encoder.Finish(nil)
	queue.Submit(cmdBuf)
	cmdBuf.Release()
	return nil
}
