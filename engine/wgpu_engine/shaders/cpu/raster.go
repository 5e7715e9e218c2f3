// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package cpu

import (
	"image"
	"image/color"
	"math"

	"honnef.co/go/mosaic/model"
	"honnef.co/go/mosaic/renderer"
)

// Rasterize mirrors the raster pipeline: every shard quad is scanned in
// fragment space, each covered pixel is mapped back to world space and kept
// if it lies inside the shard's segment outline, and clip depths are resolved
// with a greater-equal depth test over a zero-cleared depth buffer.
//
// The output is encoded as 8-bit sRGB over whatever img already contains
// where no shard covers a pixel.
func Rasterize(
	m *model.Model,
	instances []renderer.InstanceDescriptor,
	expanded []renderer.ExpandedSegment,
	shardVertices []renderer.ShardVertex,
	uniforms renderer.Uniforms,
	img *image.RGBA,
) {
	worldFrag, ok := uniforms.FragWorldTF.Invert()
	if !ok {
		panic("cpu: fragment transform is singular")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	depthBuf := make([]uint32, width*height)

	for base := 0; base+renderer.VerticesPerShard <= len(shardVertices); base += renderer.VerticesPerShard {
		v := shardVertices[base]
		inst := &instances[v.Instance]
		depth := v.ClipDepth + 1

		// The quad covers the world-space bounding box; project it to
		// fragment space to bound the scan.
		x0, y0 := worldFrag.Apply(v.BB[0], v.BB[1])
		x1, y1 := worldFrag.Apply(v.BB[2], v.BB[3])
		minX := int(math.Floor(float64(min(x0, x1))))
		minY := int(math.Floor(float64(min(y0, y1))))
		maxX := int(math.Ceil(float64(max(x0, x1))))
		maxY := int(math.Ceil(float64(max(y0, y1))))
		minX = max(minX, bounds.Min.X)
		minY = max(minY, bounds.Min.Y)
		maxX = min(maxX, bounds.Max.X)
		maxY = min(maxY, bounds.Max.Y)

		for py := minY; py < maxY; py++ {
			for px := minX; px < maxX; px++ {
				wx, wy := uniforms.FragWorldTF.Apply(float32(px)+0.5, float32(py)+0.5)
				if !insideShard(m, inst, expanded, v.SegmentRange, wx, wy) {
					continue
				}
				di := (py-bounds.Min.Y)*width + (px - bounds.Min.X)
				if depth < depthBuf[di] {
					continue
				}
				depthBuf[di] = depth
				img.SetRGBA(px, py, encodeSRGB(v.Color))
			}
		}
	}
}

func insideShard(
	m *model.Model,
	inst *renderer.InstanceDescriptor,
	expanded []renderer.ExpandedSegment,
	segRange [2]uint32,
	wx, wy float32,
) bool {
	vertex := func(idx int32) (float32, float32) {
		return inst.WorldTF.Apply(m.Vertices[idx].Pos[0], m.Vertices[idx].Pos[1])
	}
	inside := false
	for _, seg := range expanded[segRange[0]:segRange[1]] {
		ax, ay := vertex(seg.Idx[0])
		bx, by := vertex(seg.Idx[1])
		if seg.Idx[2] >= 0 {
			mx, my := vertex(seg.Idx[2])
			if crosses(wx, wy, ax, ay, mx, my) {
				inside = !inside
			}
			if crosses(wx, wy, mx, my, bx, by) {
				inside = !inside
			}
		} else if crosses(wx, wy, ax, ay, bx, by) {
			inside = !inside
		}
	}
	return inside
}

// crosses reports whether the ray from p in +x direction crosses the line
// segment from a to b.
func crosses(px, py, ax, ay, bx, by float32) bool {
	if (ay <= py) == (by <= py) {
		return false
	}
	t := (py - ay) / (by - ay)
	return px < ax+t*(bx-ax)
}

func encodeSRGB(premul [4]float32) color.RGBA {
	encode := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		f := float64(v)
		var e float64
		if f <= 0.0031308 {
			e = 12.92 * f
		} else {
			e = 1.055*math.Pow(f, 1/2.4) - 0.055
		}
		return uint8(math.Round(e * 255))
	}
	a := premul[3]
	if a <= 0 {
		return color.RGBA{}
	}
	// Un-premultiply for encoding; image.RGBA stores premultiplied 8-bit
	// values, so multiply back after the transfer function.
	r := encode(premul[0]/a)
	g := encode(premul[1]/a)
	b := encode(premul[2]/a)
	af := float64(a)
	return color.RGBA{
		R: uint8(math.Round(float64(r) * af)),
		G: uint8(math.Round(float64(g) * af)),
		B: uint8(math.Round(float64(b) * af)),
		A: uint8(math.Round(af * 255)),
	}
}
