// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"image"
	"image/color"
	"testing"

	"honnef.co/go/mosaic/mem"
	"honnef.co/go/mosaic/mmath"
	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
)

func expandSample(t *testing.T, instances []renderer.Instance) (*model.Model, []renderer.InstanceDescriptor, []renderer.ExpandedSegment, []renderer.ShardVertex) {
	t.Helper()
	m := model.Sample()
	infos := model.DeriveFrameInfos(m)
	arena := mem.NewArena()
	descriptors, demands := renderer.BuildInstances(arena, instances, infos)
	expanded := make([]renderer.ExpandedSegment, demands.Segments)
	shardVertices := make([]renderer.ShardVertex, demands.ShardVertices)
	Expand(m, descriptors, expanded, shardVertices)
	return m, descriptors, expanded, shardVertices
}

func TestExpandSegments(t *testing.T) {
	m, _, expanded, _ := expandSample(t, []renderer.Instance{
		{WorldTF: mmath.Identity, Frame: 0},
		{WorldTF: mmath.Translate(2, 0), Frame: 0},
	})

	if len(expanded) != 14 {
		t.Fatalf("got %d expanded segments, want 14", len(expanded))
	}
	for i, seg := range expanded {
		wantInstance := uint32(i / 7)
		if seg.Instance != wantInstance {
			t.Errorf("segment %d tagged with instance %d, want %d", i, seg.Instance, wantInstance)
		}
		if want := m.Segments[i%7].Idx; seg.Idx != want {
			t.Errorf("segment %d indices %v, want %v", i, seg.Idx, want)
		}
	}
}

func TestExpandShardVertices(t *testing.T) {
	m, _, _, shardVertices := expandSample(t, []renderer.Instance{
		{WorldTF: mmath.Identity, Frame: 0},
		{WorldTF: mmath.Translate(2, 0), Frame: 0},
	})

	if len(shardVertices) != 24 {
		t.Fatalf("got %d shard vertices, want 24", len(shardVertices))
	}

	// quad returns the first vertex of shard quad i; all six share the
	// per-shard attributes.
	quad := func(i int) renderer.ShardVertex { return shardVertices[i*renderer.VerticesPerShard] }

	// Instance 0 under the identity transform keeps the model's bounding
	// boxes; segment ranges rebase to offset 0 and clip depths to band 0.
	if got := quad(0); got.BB != m.Shards[0].BB ||
		got.SegmentRange != [2]uint32{0, 4} ||
		got.ClipDepth != 0 || got.Instance != 0 {
		t.Errorf("instance 0 shard 0: %+v", got)
	}
	if got := quad(1); got.SegmentRange != [2]uint32{4, 7} ||
		got.ClipDepth != 1 || got.Color != m.Shards[1].Color {
		t.Errorf("instance 0 shard 1: %+v", got)
	}

	// Instance 1 is translated by two units and rebased by its offsets:
	// clip band 2, segments 7 onwards.
	got := quad(2)
	wantBB := m.Shards[0].BB
	wantBB[0] += 2
	wantBB[2] += 2
	if got.BB != wantBB {
		t.Errorf("instance 1 shard 0 bb %v, want %v", got.BB, wantBB)
	}
	if got.SegmentRange != [2]uint32{7, 11} || got.ClipDepth != 2 || got.Instance != 1 {
		t.Errorf("instance 1 shard 0: %+v", got)
	}

	// Each quad is two triangles over the bounding box corners.
	v := shardVertices[:renderer.VerticesPerShard]
	bb := v[0].BB
	for i, sv := range v {
		if sv.Pos[0] != bb[0] && sv.Pos[0] != bb[2] {
			t.Errorf("vertex %d x %v outside bb %v", i, sv.Pos[0], bb)
		}
		if sv.Pos[1] != bb[1] && sv.Pos[1] != bb[3] {
			t.Errorf("vertex %d y %v outside bb %v", i, sv.Pos[1], bb)
		}
	}
}

func squareModel() *model.Model {
	b := model.NewBuilder()
	v0 := b.Vertex(-0.5, -0.5)
	v1 := b.Vertex(0.5, -0.5)
	v2 := b.Vertex(0.5, 0.5)
	v3 := b.Vertex(-0.5, 0.5)

	b.OpenFrame()
	b.OpenShard([4]float32{-0.5, -0.5, 0.5, 0.5}, [4]float32{1, 0, 0, 1}, 0)
	b.Segment(v0, v1)
	b.Segment(v1, v2)
	b.Segment(v2, v3)
	b.Segment(v3, v0)
	b.CloseShard()
	b.CloseFrame()

	m, err := b.Build()
	if err != nil {
		panic(err)
	}
	return m
}

func TestRasterizeSquare(t *testing.T) {
	m := squareModel()
	infos := model.DeriveFrameInfos(m)
	arena := mem.NewArena()
	instances := []renderer.Instance{{WorldTF: mmath.Identity, Frame: 0}}
	descriptors, demands := renderer.BuildInstances(arena, instances, infos)
	expanded := make([]renderer.ExpandedSegment, demands.Segments)
	shardVertices := make([]renderer.ShardVertex, demands.ShardVertices)
	Expand(m, descriptors, expanded, shardVertices)

	vp := renderer.Viewport{Width: 100, Height: 100}
	camera := renderer.Camera{Scale: 1}
	uniforms := renderer.NewUniforms(vp, camera.WorldClip(vp))

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Rasterize(m, descriptors, expanded, shardVertices, uniforms, img)

	// The unit camera maps the square's world extent [-0.5, 0.5] to the
	// fragment range [25, 75].
	if got := img.RGBAAt(50, 50); got.R != 255 || got.A != 255 {
		t.Errorf("center pixel %+v, want opaque red", got)
	}
	if got := img.RGBAAt(30, 60); got.R != 255 {
		t.Errorf("interior pixel %+v, want red", got)
	}
	for _, p := range [][2]int{{10, 10}, {90, 50}, {50, 90}, {20, 80}} {
		if got := img.RGBAAt(p[0], p[1]); got != (color.RGBA{}) {
			t.Errorf("pixel (%d, %d) = %+v, want untouched", p[0], p[1], got)
		}
	}
}

func TestRasterizeClipDepth(t *testing.T) {
	// Two overlapping full-size shards; the one on the deeper clip band must
	// win every covered pixel.
	b := model.NewBuilder()
	v0 := b.Vertex(-1, -1)
	v1 := b.Vertex(1, -1)
	v2 := b.Vertex(1, 1)
	v3 := b.Vertex(-1, 1)

	square := func(col [4]float32, depth uint32) {
		b.OpenShard([4]float32{-1, -1, 1, 1}, col, depth)
		b.Segment(v0, v1)
		b.Segment(v1, v2)
		b.Segment(v2, v3)
		b.Segment(v3, v0)
		b.CloseShard()
	}

	b.OpenFrame()
	square([4]float32{1, 0, 0, 1}, 0)
	square([4]float32{0, 0, 1, 1}, 1)
	b.CloseFrame()
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	infos := model.DeriveFrameInfos(m)
	arena := mem.NewArena()
	instances := []renderer.Instance{{WorldTF: mmath.Identity, Frame: 0}}
	descriptors, demands := renderer.BuildInstances(arena, instances, infos)
	expanded := make([]renderer.ExpandedSegment, demands.Segments)
	shardVertices := make([]renderer.ShardVertex, demands.ShardVertices)
	Expand(m, descriptors, expanded, shardVertices)

	vp := renderer.Viewport{Width: 64, Height: 64}
	uniforms := renderer.NewUniforms(vp, renderer.Camera{Scale: 1}.WorldClip(vp))

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	Rasterize(m, descriptors, expanded, shardVertices, uniforms, img)

	if got := img.RGBAAt(32, 32); got.B != 255 || got.R != 0 {
		t.Errorf("center pixel %+v, want the deeper blue shard", got)
	}
}
