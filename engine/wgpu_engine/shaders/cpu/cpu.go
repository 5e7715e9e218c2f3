// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package cpu provides CPU implementations of the compute and raster
// kernels.
//
// These intentionally replicate the WGSL kernels instead of using more
// CPU-friendly alternatives. They're a debug and test tool, not a viable
// fallback.
package cpu

import (
	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
)

// Expand mirrors the expand kernel: for every instance descriptor it copies
// the instance's frame segments into expanded, tagged with the instance
// index, and emits six vertices per shard into shardVertices, covering the
// shard's transformed bounding box. Segment ranges are rebased into expanded
// and clip depths into the instance's clip band.
//
// expanded and shardVertices must be at least as large as the demands
// computed by renderer.BuildInstances for the same descriptors.
func Expand(
	m *model.Model,
	instances []renderer.InstanceDescriptor,
	expanded []renderer.ExpandedSegment,
	shardVertices []renderer.ShardVertex,
) {
	for instIx := range instances {
		inst := &instances[instIx]
		frame := m.Frames[inst.FrameIndex]

		for i, seg := range m.Segments[frame.SegmentRange[0]:frame.SegmentRange[1]] {
			expanded[inst.SegmentOffset+uint32(i)] = renderer.ExpandedSegment{
				Idx:      seg.Idx,
				Instance: uint32(instIx),
			}
		}

		for i, shard := range m.Shards[frame.ShardRange[0]:frame.ShardRange[1]] {
			segRange := [2]uint32{
				inst.SegmentOffset + uint32(shard.SegmentRange[0]-frame.SegmentRange[0]),
				inst.SegmentOffset + uint32(shard.SegmentRange[1]-frame.SegmentRange[0]),
			}
			depth := inst.ClipOffset + shard.ClipDepth

			x0, y0 := inst.WorldTF.Apply(shard.BB[0], shard.BB[1])
			x1, y1 := inst.WorldTF.Apply(shard.BB[2], shard.BB[1])
			x2, y2 := inst.WorldTF.Apply(shard.BB[2], shard.BB[3])
			x3, y3 := inst.WorldTF.Apply(shard.BB[0], shard.BB[3])
			lox := min(min(x0, x1), min(x2, x3))
			loy := min(min(y0, y1), min(y2, y3))
			hix := max(max(x0, x1), max(x2, x3))
			hiy := max(max(y0, y1), max(y2, y3))
			bb := [4]float32{lox, loy, hix, hiy}

			corners := [renderer.VerticesPerShard][2]float32{
				{lox, loy},
				{hix, loy},
				{hix, hiy},
				{lox, loy},
				{hix, hiy},
				{lox, hiy},
			}
			base := renderer.VerticesPerShard * (inst.ShardOffset + uint32(i))
			for v, pos := range corners {
				shardVertices[base+uint32(v)] = renderer.ShardVertex{
					BB:           bb,
					Color:        shard.Color,
					Pos:          pos,
					ClipDepth:    depth,
					Instance:     uint32(instIx),
					SegmentRange: segRange,
				}
			}
		}
	}
}
