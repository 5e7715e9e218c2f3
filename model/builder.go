// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package model

import (
	"honnef.co/go/color"
	"honnef.co/go/mosaic/gfx"
)

// Builder assembles a Model incrementally, tracking the contiguous shard and
// segment ranges that frames and shards require. Shards must be added inside
// an open frame, segments inside an open shard.
type Builder struct {
	m Model

	frameOpen       bool
	frameShardStart int32
	frameSegStart   int32

	shardOpen     bool
	shardSegStart int32
	shard         Shard
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Vertex appends a vertex and returns its index in the model's global vertex
// array.
func (b *Builder) Vertex(x, y float32) int32 {
	b.m.Vertices = append(b.m.Vertices, Vertex{Pos: [2]float32{x, y}})
	return int32(len(b.m.Vertices) - 1)
}

func (b *Builder) OpenFrame() {
	if b.frameOpen {
		panic("model: OpenFrame with a frame already open")
	}
	b.frameOpen = true
	b.frameShardStart = int32(len(b.m.Shards))
	b.frameSegStart = int32(len(b.m.Segments))
}

// CloseFrame finishes the open frame and returns its frame index.
func (b *Builder) CloseFrame() int32 {
	if !b.frameOpen || b.shardOpen {
		panic("model: CloseFrame without a closeable frame")
	}
	b.frameOpen = false
	b.m.Frames = append(b.m.Frames, Frame{
		ShardRange:   [2]int32{b.frameShardStart, int32(len(b.m.Shards))},
		SegmentRange: [2]int32{b.frameSegStart, int32(len(b.m.Segments))},
	})
	return int32(len(b.m.Frames) - 1)
}

// OpenShard starts a shard with a premultiplied linear sRGB color.
func (b *Builder) OpenShard(bb [4]float32, col [4]float32, clipDepth uint32) {
	if !b.frameOpen || b.shardOpen {
		panic("model: OpenShard outside an open frame")
	}
	b.shardOpen = true
	b.shardSegStart = int32(len(b.m.Segments))
	b.shard = Shard{
		BB:        bb,
		Color:     col,
		ClipDepth: clipDepth,
	}
}

// OpenShardColor is OpenShard for colors in an arbitrary color space.
func (b *Builder) OpenShardColor(bb [4]float32, c *color.Color, clipDepth uint32) {
	b.OpenShard(bb, gfx.Premul32(c), clipDepth)
}

// Segment appends a boundary segment with up to three vertex indices to the
// open shard.
func (b *Builder) Segment(idx ...int32) {
	if !b.shardOpen {
		panic("model: Segment outside an open shard")
	}
	if len(idx) == 0 || len(idx) > 3 {
		panic("model: Segment needs between one and three vertex indices")
	}
	seg := Segment{Idx: [4]int32{SegmentNone, SegmentNone, SegmentNone, SegmentNone}}
	copy(seg.Idx[:], idx)
	b.m.Segments = append(b.m.Segments, seg)
}

func (b *Builder) CloseShard() {
	if !b.shardOpen {
		panic("model: CloseShard without an open shard")
	}
	b.shardOpen = false
	b.shard.SegmentRange = [2]int32{b.shardSegStart, int32(len(b.m.Segments))}
	b.m.Shards = append(b.m.Shards, b.shard)
}

// Build validates and returns the assembled model. The builder must not be
// used afterwards.
func (b *Builder) Build() (*Model, error) {
	if b.frameOpen || b.shardOpen {
		panic("model: Build with an open frame or shard")
	}
	m := b.m
	if err := Validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Sample returns the standard two-shard test model: one frame, five vertices,
// a four-segment shard at clip depth 0 and a three-segment shard at clip
// depth 1. Its FrameInfo is {ClipSize: 2, ShardSize: 2, SegmentSize: 7}.
func Sample() *Model {
	b := NewBuilder()
	v0 := b.Vertex(0, 0)
	v1 := b.Vertex(0.5, 1)
	v2 := b.Vertex(-0.5, 0.5)
	v3 := b.Vertex(0, -0.5)
	v4 := b.Vertex(0.2, 1)

	b.OpenFrame()
	b.OpenShard([4]float32{-1, -1, 1, 1}, [4]float32{1, 0, 0, 1}, 0)
	b.Segment(v0, v2)
	b.Segment(v2, v3, v0)
	b.Segment(v3, v1)
	b.Segment(v1, v0)
	b.CloseShard()
	b.OpenShard([4]float32{-0.2, 0.2, 1.3, 1.5}, [4]float32{0, 0, 1, 1}, 1)
	b.Segment(v0, v1)
	b.Segment(v1, v4)
	b.Segment(v4, v0)
	b.CloseShard()
	b.CloseFrame()

	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}
