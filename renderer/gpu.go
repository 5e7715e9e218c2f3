// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"structs"

	"honnef.co/go/mosaic/mmath"
)

// The structs in this file are uploaded to, or written by, the GPU. Each one
// must be kept in sync with the matching WGSL declaration in
// engine/wgpu_engine's kernels; slots_test.go checks the offsets.

// Uniforms carries the per-frame camera and viewport transforms. Even though
// the scene is 2D, full 4x4 matrices sidestep the vec3 alignment pitfalls of
// uniform blocks.
type Uniforms struct {
	_ structs.HostLayout

	// World coordinates to clip coordinates; the vertex stage positions
	// shard bounding boxes with it.
	WorldClipTF mmath.Mat4
	// Fragment coordinates back to world coordinates; the fragment stage
	// resolves segment coverage in world space.
	FragWorldTF mmath.Mat4
}

// InstanceDescriptor is the GPU-resident record for one live instance. The
// offsets locate the instance's private regions in the expansion buffers and
// its clip depth band; they are recomputed from scratch every frame as
// running sums over the preceding instances.
type InstanceDescriptor struct {
	_ structs.HostLayout

	WorldTF       mmath.Mat4
	FrameIndex    int32
	ClipOffset    uint32
	ShardOffset   uint32
	SegmentOffset uint32
}

// ExpandedSegment is one flattened segment copy in the expanded segment
// buffer. Idx still references the model's global vertex array; Instance
// lets the raster stage resolve those vertices under the owning instance's
// transform.
type ExpandedSegment struct {
	_ structs.HostLayout

	Idx      [4]int32
	Instance uint32
	_        [3]uint32
}

// ShardVertex is one of the six vertices the expansion stage emits per shard,
// two CCW triangles covering the shard's transformed bounding box.
// SegmentRange has been rebased into the expanded segment buffer and
// ClipDepth into the instance's clip band.
type ShardVertex struct {
	_ structs.HostLayout

	BB           [4]float32
	Color        [4]float32
	Pos          [2]float32
	ClipDepth    uint32
	Instance     uint32
	SegmentRange [2]uint32
	_            [2]uint32
}
