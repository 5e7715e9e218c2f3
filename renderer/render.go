// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/model"
	"honnef.co/go/safeish"
)

// RenderFrame plans one frame as a Recording, in strict order: demand
// computation, capacity transitions (growth events are recorded before any
// upload so the engine recreates buffers and rebuilds bind groups first),
// instance descriptor upload, uniform upload, the expansion dispatch with one
// workgroup per instance, and the raster draw over six vertices per live
// shard.
//
// caps is transitioned in place; growth is the only state change. The
// recording and everything it references live in arena, which the caller
// resets after the engine has played the recording back. RenderFrame is not
// reentrant: one call at a time per Capacities.
func RenderFrame(
	arena *mem.Arena,
	instances []Instance,
	infos []model.FrameInfo,
	uniforms Uniforms,
	caps *Capacities,
) *Recording {
	descriptors, demands := BuildInstances(arena, instances, infos)

	rec := mem.New[Recording](arena)
	for _, g := range [...]struct {
		slot   SlotID
		demand uint64
	}{
		{SlotInstances, demands.Instances},
		{SlotExpandedSegments, demands.Segments},
		{SlotShardVertices, demands.ShardVertices},
	} {
		if capacity, grown := caps.Ensure(g.slot, g.demand); grown {
			rec.Grow(arena, g.slot, capacity)
		}
	}

	rec.Upload(arena, SlotInstances, safeish.SliceCast[[]byte](descriptors))
	rec.UploadUniform(arena, SlotUniform, mem.MakeSlice(arena, safeish.AsBytes(&uniforms)))

	rec.Dispatch(arena, KernelExpand, [3]uint32{uint32(len(instances)), 1, 1})
	rec.Draw(arena, uint32(demands.ShardVertices))
	return rec
}
