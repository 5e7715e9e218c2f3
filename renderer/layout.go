// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"

	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/mmath"
	"honnef.co/go/mosaic/model"
)

// VerticesPerShard is the number of vertices the expansion stage emits per
// shard: two triangles covering the shard's bounding box.
const VerticesPerShard = 6

// Instance is one scene-supplied placement of a model frame.
type Instance struct {
	WorldTF mmath.Mat4
	Frame   int32
}

// BuildInstances computes the frame's instance descriptors and buffer
// demands. Descriptors are produced in instance order; each carries the
// running sums of the preceding instances' FrameInfo sizes, which partitions
// the expansion buffers into disjoint, contiguous, exactly-sized per-instance
// regions. A frame index outside infos is a caller bug and panics.
func BuildInstances(arena *mem.Arena, instances []Instance, infos []model.FrameInfo) ([]InstanceDescriptor, Demands) {
	descriptors := mem.NewSlice[[]InstanceDescriptor](arena, len(instances), len(instances))
	var clip, shard, segment uint32
	for i, inst := range instances {
		if inst.Frame < 0 || int(inst.Frame) >= len(infos) {
			panic(fmt.Sprintf("renderer: instance %d references frame %d of %d", i, inst.Frame, len(infos)))
		}
		info := infos[inst.Frame]
		descriptors[i] = InstanceDescriptor{
			WorldTF:       inst.WorldTF,
			FrameIndex:    inst.Frame,
			ClipOffset:    clip,
			ShardOffset:   shard,
			SegmentOffset: segment,
		}
		clip += info.ClipSize
		shard += info.ShardSize
		segment += info.SegmentSize
	}
	return descriptors, Demands{
		Instances:     uint64(len(instances)),
		Segments:      uint64(segment),
		ShardVertices: uint64(shard) * VerticesPerShard,
	}
}
