// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package shaders holds the WGSL kernels. The struct declarations must be
// kept in sync with the host-side layouts in package renderer; the offsets
// are checked by renderer's tests.
package shaders

// Expand is the per-instance expansion kernel. One workgroup handles one
// instance: it copies the instance's frame segments into the expanded segment
// buffer, tagging each copy with the instance index, and emits six vertices
// per shard covering the shard's transformed bounding box. Segment ranges are
// rebased into the expanded segment buffer and clip depths into the
// instance's clip band.
const Expand = `
struct Uniforms {
	world_clip: mat4x4<f32>,
	frag_world: mat4x4<f32>,
}

struct Vertex {
	pos: vec2<f32>,
}

struct Segment {
	idx: vec4<i32>,
}

struct Shard {
	bb: vec4<f32>,
	color: vec4<f32>,
	segment_range: vec2<i32>,
	clip_depth: u32,
	filler: u32,
}

struct Frame {
	shard_range: vec2<i32>,
	segment_range: vec2<i32>,
}

struct Instance {
	world_tf: mat4x4<f32>,
	frame_index: i32,
	clip_offset: u32,
	shard_offset: u32,
	segment_offset: u32,
}

struct ExpandedSegment {
	idx: vec4<i32>,
	instance: u32,
}

struct ShardVertex {
	bb: vec4<f32>,
	color: vec4<f32>,
	pos: vec2<f32>,
	clip_depth: u32,
	instance: u32,
	segment_range: vec2<u32>,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;

@group(1) @binding(0) var<storage, read> vertices: array<Vertex>;
@group(1) @binding(1) var<storage, read> segments: array<Segment>;
@group(1) @binding(2) var<storage, read> shards: array<Shard>;
@group(1) @binding(3) var<storage, read> frames: array<Frame>;

@group(2) @binding(0) var<storage, read> instances: array<Instance>;
@group(2) @binding(1) var<storage, read_write> expanded_segments: array<ExpandedSegment>;
@group(2) @binding(2) var<storage, read_write> shard_vertices: array<ShardVertex>;

@compute @workgroup_size(1)
fn main(@builtin(global_invocation_id) gid: vec3<u32>) {
	let inst_ix = gid.x;
	if inst_ix >= arrayLength(&instances) {
		return;
	}
	let inst = instances[inst_ix];
	let frame = frames[inst.frame_index];

	let num_segments = frame.segment_range.y - frame.segment_range.x;
	for (var i = 0; i < num_segments; i++) {
		let seg = segments[frame.segment_range.x + i];
		let out = inst.segment_offset + u32(i);
		expanded_segments[out] = ExpandedSegment(seg.idx, inst_ix);
	}

	let num_shards = frame.shard_range.y - frame.shard_range.x;
	for (var i = 0; i < num_shards; i++) {
		let shard = shards[frame.shard_range.x + i];
		let range = vec2<u32>(
			inst.segment_offset + u32(shard.segment_range.x - frame.segment_range.x),
			inst.segment_offset + u32(shard.segment_range.y - frame.segment_range.x),
		);
		let depth = inst.clip_offset + shard.clip_depth;

		let c0 = (inst.world_tf * vec4(shard.bb.xy, 0.0, 1.0)).xy;
		let c1 = (inst.world_tf * vec4(shard.bb.zy, 0.0, 1.0)).xy;
		let c2 = (inst.world_tf * vec4(shard.bb.zw, 0.0, 1.0)).xy;
		let c3 = (inst.world_tf * vec4(shard.bb.xw, 0.0, 1.0)).xy;
		let lo = min(min(c0, c1), min(c2, c3));
		let hi = max(max(c0, c1), max(c2, c3));
		let bb = vec4(lo, hi);

		let base = 6u * (inst.shard_offset + u32(i));
		let corners = array<vec2<f32>, 6>(
			lo,
			vec2(hi.x, lo.y),
			hi,
			lo,
			hi,
			vec2(lo.x, hi.y),
		);
		for (var v = 0u; v < 6u; v++) {
			shard_vertices[base + v] = ShardVertex(
				bb,
				shard.color,
				corners[v],
				depth,
				inst_ix,
				range,
			);
		}
	}
}
`

// Raster draws the expanded shard vertices. The vertex stage pulls from the
// shard vertex buffer by vertex index and encodes the rebased clip depth in
// the depth channel; with a greater-equal depth test over a zero-cleared
// depth buffer, deeper clip bands win each pixel. The fragment stage maps the
// pixel back to world space and keeps it if it lies inside the shard's
// segment outline, using an even-odd crossing test against the segments
// resolved through the owning instance's transform.
const Raster = `
struct Uniforms {
	world_clip: mat4x4<f32>,
	frag_world: mat4x4<f32>,
}

struct Vertex {
	pos: vec2<f32>,
}

struct Instance {
	world_tf: mat4x4<f32>,
	frame_index: i32,
	clip_offset: u32,
	shard_offset: u32,
	segment_offset: u32,
}

struct ExpandedSegment {
	idx: vec4<i32>,
	instance: u32,
}

struct ShardVertex {
	bb: vec4<f32>,
	color: vec4<f32>,
	pos: vec2<f32>,
	clip_depth: u32,
	instance: u32,
	segment_range: vec2<u32>,
}

@group(0) @binding(0) var<uniform> uniforms: Uniforms;

@group(1) @binding(0) var<storage, read> vertices: array<Vertex>;

@group(2) @binding(0) var<storage, read> instances: array<Instance>;
@group(2) @binding(1) var<storage, read> expanded_segments: array<ExpandedSegment>;
@group(2) @binding(2) var<storage, read> shard_vertices: array<ShardVertex>;

struct VertexOutput {
	@builtin(position) position: vec4<f32>,
	@location(0) color: vec4<f32>,
	@location(1) @interpolate(flat) segment_range: vec2<u32>,
	@location(2) @interpolate(flat) instance: u32,
}

const DEPTH_SCALE: f32 = 1.0 / 1048576.0;

@vertex
fn vs_main(@builtin(vertex_index) ix: u32) -> VertexOutput {
	let v = shard_vertices[ix];
	let clip = (uniforms.world_clip * vec4(v.pos, 0.0, 1.0)).xy;
	var out: VertexOutput;
	out.position = vec4(clip, f32(v.clip_depth + 1u) * DEPTH_SCALE, 1.0);
	out.color = v.color;
	out.segment_range = v.segment_range;
	out.instance = v.instance;
	return out;
}

fn model_vertex(inst: Instance, idx: i32) -> vec2<f32> {
	return (inst.world_tf * vec4(vertices[idx].pos, 0.0, 1.0)).xy;
}

// crosses reports whether the ray from p in +x direction crosses the line
// segment from a to b.
fn crosses(p: vec2<f32>, a: vec2<f32>, b: vec2<f32>) -> bool {
	if (a.y <= p.y) == (b.y <= p.y) {
		return false;
	}
	let t = (p.y - a.y) / (b.y - a.y);
	return p.x < a.x + t * (b.x - a.x);
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
	let world = (uniforms.frag_world * vec4(in.position.xy, 0.0, 1.0)).xy;
	let inst = instances[in.instance];
	var inside = false;
	for (var i = in.segment_range.x; i < in.segment_range.y; i++) {
		let seg = expanded_segments[i];
		let a = model_vertex(inst, seg.idx.x);
		let b = model_vertex(inst, seg.idx.y);
		if seg.idx.z >= 0 {
			// A curved segment is approximated by two chords through its
			// control vertex.
			let m = model_vertex(inst, seg.idx.z);
			if crosses(world, a, m) {
				inside = !inside;
			}
			if crosses(world, m, b) {
				inside = !inside;
			}
		} else if crosses(world, a, b) {
			inside = !inside;
		}
	}
	if !inside {
		discard;
	}
	return in.color;
}
`
