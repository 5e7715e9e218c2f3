// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"fmt"

	"github.com/charmbracelet/log"
	"honnef.co/go/mosaic/engine/wgpu_engine/shaders"
	"honnef.co/go/mosaic/renderer"
	"honnef.co/go/wgpu"
)

type RendererOptions struct {
	// TargetFormat is the texture format of the color target that frames are
	// rendered into.
	TargetFormat wgpu.TextureFormat
	// Logger, if set, receives growth and frame events.
	Logger *log.Logger
}

func visibilityToWGPU(v renderer.Visibility) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if v&renderer.VisibilityCompute != 0 {
		out |= wgpu.ShaderStageCompute
	}
	if v&renderer.VisibilityVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if v&renderer.VisibilityFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

// bindingTypeToWGPU maps a slot's usage class to its binding type in group.
// The raster group reads the expansion buffers that the expand group writes,
// so storage slots bind read-only there.
func bindingTypeToWGPU(s renderer.Slot, group renderer.BindGroupID) wgpu.BufferBindingType {
	switch s.Usage {
	case renderer.UsageUniform:
		return wgpu.BufferBindingTypeUniform
	case renderer.UsageStorageRead:
		return wgpu.BufferBindingTypeReadOnlyStorage
	case renderer.UsageStorage:
		if group == renderer.RasterGroup {
			return wgpu.BufferBindingTypeReadOnlyStorage
		}
		return wgpu.BufferBindingTypeStorage
	default:
		panic(fmt.Sprintf("invalid usage %d", s.Usage))
	}
}

func bufferUsageToWGPU(usage renderer.Usage) wgpu.BufferUsage {
	switch usage {
	case renderer.UsageUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case renderer.UsageStorageRead:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	case renderer.UsageStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	default:
		panic(fmt.Sprintf("invalid usage %d", usage))
	}
}

func createBindGroupLayout(dev *wgpu.Device, group renderer.BindGroupID) *wgpu.BindGroupLayout {
	ids := renderer.GroupSlots(group)
	entries := make([]wgpu.BindGroupLayoutEntry, len(ids))
	for i, id := range ids {
		slot := renderer.Lookup(id)
		entries[i] = wgpu.BindGroupLayoutEntry{
			Binding:    slot.Binding,
			Visibility: visibilityToWGPU(slot.Visible),
			Buffer: &wgpu.BufferBindingLayout{
				Type:             bindingTypeToWGPU(slot, group),
				HasDynamicOffset: false,
				MinBindingSize:   0,
			},
		}
	}
	return dev.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
}

func createExpandPipeline(dev *wgpu.Device, layouts *[renderer.NumBindGroups]*wgpu.BindGroupLayout) *wgpu.ComputePipeline {
	module := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "expand",
		Source: wgpu.ShaderSourceWGSL(shaders.Expand),
	})
	layout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: "expand pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			layouts[renderer.UniformGroup],
			layouts[renderer.ModelGroup],
			layouts[renderer.ExpandGroup],
		},
	})
	pipeline := dev.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  "expand pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: "main",
		},
	})
	layout.Release()
	return pipeline
}

func createRasterPipeline(
	dev *wgpu.Device,
	layouts *[renderer.NumBindGroups]*wgpu.BindGroupLayout,
	format wgpu.TextureFormat,
) *wgpu.RenderPipeline {
	module := dev.CreateShaderModule(wgpu.ShaderModuleDescriptor{
		Label:  "raster",
		Source: wgpu.ShaderSourceWGSL(shaders.Raster),
	})
	layout := dev.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label: "raster pipeline layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{
			layouts[renderer.UniformGroup],
			layouts[renderer.ModelGroup],
			layouts[renderer.RasterGroup],
		},
	})
	pipeline := dev.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "raster pipeline",
		Layout: layout,
		Vertex: &wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: &wgpu.PrimitiveState{
			Topology:         wgpu.PrimitiveTopologyTriangleList,
			StripIndexFormat: ^wgpu.IndexFormat(0),
			FrontFace:        wgpu.FrontFaceCCW,
			// Transforms with a negative determinant flip winding, so
			// shard quads cannot be culled by face.
			CullMode: wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionGreaterEqual,
		},
	})
	layout.Release()
	return pipeline
}

// targetDepth is the depth buffer backing the raster pass. Clip depths are
// resolved by depth testing, with greater depths winning, so it is cleared to
// zero each frame.
type targetDepth struct {
	View   *wgpu.TextureView
	Width  uint32
	Height uint32
}

func newTargetDepth(dev *wgpu.Device, width, height uint32) *targetDepth {
	tex := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label: "depth texture",
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Usage:         wgpu.TextureUsageRenderAttachment,
		Format:        wgpu.TextureFormatDepth24Plus,
	})
	defer tex.Release()
	view := tex.CreateView(nil)
	return &targetDepth{
		View:   view,
		Width:  width,
		Height: height,
	}
}
