// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/mosaic/mmath"
)

// Viewport is the target rectangle in pixels.
type Viewport struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

// Camera positions the world on the viewport: a world-space center and a
// scale mapping world units to the viewport's vertical extent.
type Camera struct {
	Position [2]float32
	Scale    float32
}

// WorldClip returns the world-to-clip transform for the camera over vp.
// Horizontal scale is corrected by the viewport aspect ratio so world space
// stays square.
func (c Camera) WorldClip(vp Viewport) mmath.Mat4 {
	aspect := float32(vp.Width) / float32(vp.Height)
	scale := mmath.Scale(c.Scale/aspect, c.Scale)
	return scale.Mul(mmath.Translate(-c.Position[0], -c.Position[1]))
}

// clipFrag maps clip coordinates ([-1, 1], y up) to fragment coordinates
// (pixels, y down, offset by vp.X/Y).
func clipFrag(vp Viewport) mmath.Mat4 {
	return mmath.Translate(float32(vp.X), float32(vp.Y)).
		Mul(mmath.Scale(float32(vp.Width)/2, -float32(vp.Height)/2)).
		Mul(mmath.Translate(1, -1))
}

// NewUniforms derives the frame's uniform block from the camera's
// world-to-clip transform and the viewport.
func NewUniforms(vp Viewport, worldClip mmath.Mat4) Uniforms {
	fragWorld, ok := clipFrag(vp).Mul(worldClip).Invert()
	if !ok {
		panic("renderer: camera transform is singular")
	}
	return Uniforms{
		WorldClipTF: worldClip,
		FragWorldTF: fragWorld,
	}
}
