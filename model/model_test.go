// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package model

import (
	"testing"
)

func TestSample(t *testing.T) {
	m := Sample()
	if err := Validate(m); err != nil {
		t.Fatal(err)
	}
	if len(m.Vertices) != 5 {
		t.Errorf("got %d vertices, want 5", len(m.Vertices))
	}
	if len(m.Segments) != 7 {
		t.Errorf("got %d segments, want 7", len(m.Segments))
	}
	if len(m.Shards) != 2 {
		t.Errorf("got %d shards, want 2", len(m.Shards))
	}
	if len(m.Frames) != 1 {
		t.Errorf("got %d frames, want 1", len(m.Frames))
	}

	infos := DeriveFrameInfos(m)
	want := FrameInfo{ClipSize: 2, ShardSize: 2, SegmentSize: 7}
	if infos[0] != want {
		t.Errorf("got %+v, want %+v", infos[0], want)
	}
}

func TestDeriveFrameInfos(t *testing.T) {
	m := &Model{
		Vertices: []Vertex{{Pos: [2]float32{0, 0}}},
		Segments: []Segment{
			{Idx: [4]int32{0, 0, SegmentNone, SegmentNone}},
			{Idx: [4]int32{0, 0, SegmentNone, SegmentNone}},
			{Idx: [4]int32{0, 0, SegmentNone, SegmentNone}},
		},
		Shards: []Shard{
			{SegmentRange: [2]int32{0, 2}, ClipDepth: 4},
			{SegmentRange: [2]int32{2, 3}, ClipDepth: 0},
		},
		Frames: []Frame{
			{ShardRange: [2]int32{0, 2}, SegmentRange: [2]int32{0, 3}},
			{ShardRange: [2]int32{2, 2}, SegmentRange: [2]int32{3, 3}},
		},
	}
	if err := Validate(m); err != nil {
		t.Fatal(err)
	}
	infos := DeriveFrameInfos(m)
	if want := (FrameInfo{ClipSize: 5, ShardSize: 2, SegmentSize: 3}); infos[0] != want {
		t.Errorf("frame 0: got %+v, want %+v", infos[0], want)
	}
	// An empty frame has no clip bands at all.
	if want := (FrameInfo{}); infos[1] != want {
		t.Errorf("frame 1: got %+v, want %+v", infos[1], want)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Model {
		return &Model{
			Vertices: []Vertex{{}, {}},
			Segments: []Segment{{Idx: [4]int32{0, 1, SegmentNone, SegmentNone}}},
			Shards:   []Shard{{SegmentRange: [2]int32{0, 1}}},
			Frames:   []Frame{{ShardRange: [2]int32{0, 1}, SegmentRange: [2]int32{0, 1}}},
		}
	}

	if err := Validate(valid()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		mutate func(*Model)
	}{
		{"segment index out of bounds", func(m *Model) {
			m.Segments[0].Idx[1] = 2
		}},
		{"segment index negative", func(m *Model) {
			m.Segments[0].Idx[0] = -7
		}},
		{"shard range inverted", func(m *Model) {
			m.Shards[0].SegmentRange = [2]int32{1, 0}
		}},
		{"shard range out of bounds", func(m *Model) {
			m.Shards[0].SegmentRange = [2]int32{0, 2}
		}},
		{"frame shard range out of bounds", func(m *Model) {
			m.Frames[0].ShardRange = [2]int32{0, 2}
		}},
		{"shard escapes frame segments", func(m *Model) {
			m.Frames[0].SegmentRange = [2]int32{1, 1}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid()
			tt.mutate(m)
			if err := Validate(m); err == nil {
				t.Error("invalid model passed validation")
			}
		})
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder()
	v0 := b.Vertex(0, 0)
	v1 := b.Vertex(1, 0)
	v2 := b.Vertex(0, 1)

	b.OpenFrame()
	b.OpenShard([4]float32{0, 0, 1, 1}, [4]float32{0, 1, 0, 1}, 0)
	b.Segment(v0, v1)
	b.Segment(v1, v2, v0)
	b.CloseShard()
	frame := b.CloseFrame()

	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if frame != 0 {
		t.Errorf("got frame index %d, want 0", frame)
	}
	if got := m.Segments[1].Idx; got != [4]int32{1, 2, 0, SegmentNone} {
		t.Errorf("got segment indices %v", got)
	}
	if got := m.Shards[0].SegmentRange; got != [2]int32{0, 2} {
		t.Errorf("got shard segment range %v", got)
	}
	if got := m.Frames[0]; got.ShardRange != [2]int32{0, 1} || got.SegmentRange != [2]int32{0, 2} {
		t.Errorf("got frame %+v", got)
	}
}

func TestBuilderMisuse(t *testing.T) {
	expectPanic := func(name string, f func()) {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("no panic")
				}
			}()
			f()
		})
	}

	expectPanic("shard outside frame", func() {
		NewBuilder().OpenShard([4]float32{}, [4]float32{}, 0)
	})
	expectPanic("segment outside shard", func() {
		b := NewBuilder()
		b.OpenFrame()
		b.Segment(0)
	})
	expectPanic("close unopened frame", func() {
		NewBuilder().CloseFrame()
	})
	expectPanic("too many segment indices", func() {
		b := NewBuilder()
		b.OpenFrame()
		b.OpenShard([4]float32{}, [4]float32{}, 0)
		b.Segment(0, 0, 0, 0)
	})
}
