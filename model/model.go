// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package model describes the shared geometry template that scenes
// instantiate. A model is a flat, immutable set of vertices, boundary
// segments, shards (colored, clip-tagged regions with a bounding box) and
// frames (contiguous runs of shards and segments). All slices are uploaded
// verbatim to read-only GPU buffers; the struct layouts below must match the
// WGSL declarations in the engine's kernels byte for byte.
package model

import (
	"fmt"
	"structs"
)

// Vertex is a position in model space. Segments index into the model's global
// vertex array, so vertices are shared freely across shards and frames.
type Vertex struct {
	_ structs.HostLayout

	Pos [2]float32
}

// Segment is one boundary primitive, referencing up to three vertices. Unused
// slots hold SegmentNone. The indices are signed so that special values stay
// representable.
type Segment struct {
	_ structs.HostLayout

	Idx [4]int32
}

// SegmentNone marks an unused vertex slot in a Segment.
const SegmentNone int32 = -1

// Shard is a clipped, colored region. SegmentRange is a half-open range into
// the model's segment array. Color is premultiplied linear sRGB.
type Shard struct {
	_ structs.HostLayout

	BB           [4]float32
	Color        [4]float32
	SegmentRange [2]int32
	ClipDepth    uint32
	_            uint32
}

// Frame is one drawable configuration of the model: a half-open range of
// shards and the half-open range of segments those shards draw from.
type Frame struct {
	_ structs.HostLayout

	ShardRange   [2]int32
	SegmentRange [2]int32
}

// FrameInfo holds the per-frame sizes the renderer needs to partition its
// expansion buffers. It is derived once by DeriveFrameInfos and never changes
// afterwards.
type FrameInfo struct {
	// One more than the largest clip depth among the frame's shards; zero for
	// a frame without shards.
	ClipSize uint32
	// Number of shards in the frame.
	ShardSize uint32
	// Number of segments in the frame.
	SegmentSize uint32
}

type Model struct {
	Vertices []Vertex
	Segments []Segment
	Shards   []Shard
	Frames   []Frame
}

// DeriveFrameInfos computes the FrameInfo list for m. Call Validate first;
// DeriveFrameInfos assumes all ranges are in bounds.
func DeriveFrameInfos(m *Model) []FrameInfo {
	infos := make([]FrameInfo, len(m.Frames))
	for i, f := range m.Frames {
		var info FrameInfo
		for _, s := range m.Shards[f.ShardRange[0]:f.ShardRange[1]] {
			if s.ClipDepth+1 > info.ClipSize {
				info.ClipSize = s.ClipDepth + 1
			}
		}
		info.ShardSize = uint32(f.ShardRange[1] - f.ShardRange[0])
		info.SegmentSize = uint32(f.SegmentRange[1] - f.SegmentRange[0])
		infos[i] = info
	}
	return infos
}

// Validate checks the model's structural invariants: all ranges are half-open
// and in bounds, segment vertex indices resolve or are SegmentNone, and every
// frame's ranges contain the ranges of its shards.
func Validate(m *Model) error {
	checkRange := func(what string, i int, r [2]int32, n int) error {
		if r[0] < 0 || r[1] < r[0] || int(r[1]) > n {
			return fmt.Errorf("%s %d: range [%d, %d) out of bounds for length %d", what, i, r[0], r[1], n)
		}
		return nil
	}

	for i, seg := range m.Segments {
		for _, idx := range seg.Idx {
			if idx == SegmentNone {
				continue
			}
			if idx < 0 || int(idx) >= len(m.Vertices) {
				return fmt.Errorf("segment %d: vertex index %d out of bounds for %d vertices", i, idx, len(m.Vertices))
			}
		}
	}
	for i, s := range m.Shards {
		if err := checkRange("shard", i, s.SegmentRange, len(m.Segments)); err != nil {
			return err
		}
	}
	for i, f := range m.Frames {
		if err := checkRange("frame", i, f.ShardRange, len(m.Shards)); err != nil {
			return err
		}
		if err := checkRange("frame", i, f.SegmentRange, len(m.Segments)); err != nil {
			return err
		}
		for j, s := range m.Shards[f.ShardRange[0]:f.ShardRange[1]] {
			if s.SegmentRange[0] < f.SegmentRange[0] || s.SegmentRange[1] > f.SegmentRange[1] {
				return fmt.Errorf("frame %d: shard %d segment range [%d, %d) escapes frame range [%d, %d)",
					i, int(f.ShardRange[0])+j, s.SegmentRange[0], s.SegmentRange[1], f.SegmentRange[0], f.SegmentRange[1])
			}
		}
	}
	return nil
}
