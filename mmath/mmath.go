// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

// Package mmath implements the small amount of linear algebra needed to feed
// 2D scene transforms to the GPU. Matrices are column-major [16]float32, the
// layout of mat4x4<f32> in WGSL uniform blocks.
package mmath

import (
	"golang.org/x/exp/constraints"
	"honnef.co/go/curve"
)

type Mat4 [16]float32

var Identity = Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

func Translate(x, y float32) Mat4 {
	m := Identity
	m[12] = x
	m[13] = y
	return m
}

func Scale(x, y float32) Mat4 {
	m := Identity
	m[0] = x
	m[5] = y
	return m
}

// FromAffine embeds a 2D affine transform into a 4x4 matrix. The z axis is
// left untouched so clip depth survives the transform.
func FromAffine(t curve.Affine) Mat4 {
	c := t.Coefficients()
	m := Identity
	m[0] = float32(c[0])
	m[1] = float32(c[1])
	m[4] = float32(c[2])
	m[5] = float32(c[3])
	m[12] = float32(c[4])
	m[13] = float32(c[5])
	return m
}

func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// Invert returns the inverse of m. The second return value is false when m is
// singular, in which case the first value is the identity.
func (m Mat4) Invert() (Mat4, bool) {
	a := func(col, row int) float64 { return float64(m[col*4+row]) }

	// Cofactor expansion over the first column, with the 2x2 subdeterminants
	// of the lower-right block shared between cofactors.
	s0 := a(0, 0)*a(1, 1) - a(1, 0)*a(0, 1)
	s1 := a(0, 0)*a(2, 1) - a(2, 0)*a(0, 1)
	s2 := a(0, 0)*a(3, 1) - a(3, 0)*a(0, 1)
	s3 := a(1, 0)*a(2, 1) - a(2, 0)*a(1, 1)
	s4 := a(1, 0)*a(3, 1) - a(3, 0)*a(1, 1)
	s5 := a(2, 0)*a(3, 1) - a(3, 0)*a(2, 1)

	c5 := a(2, 2)*a(3, 3) - a(3, 2)*a(2, 3)
	c4 := a(1, 2)*a(3, 3) - a(3, 2)*a(1, 3)
	c3 := a(1, 2)*a(2, 3) - a(2, 2)*a(1, 3)
	c2 := a(0, 2)*a(3, 3) - a(3, 2)*a(0, 3)
	c1 := a(0, 2)*a(2, 3) - a(2, 2)*a(0, 3)
	c0 := a(0, 2)*a(1, 3) - a(1, 2)*a(0, 3)

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Identity, false
	}
	inv := 1 / det

	var out Mat4
	out[0] = float32((a(1, 1)*c5 - a(2, 1)*c4 + a(3, 1)*c3) * inv)
	out[1] = float32((-a(0, 1)*c5 + a(2, 1)*c2 - a(3, 1)*c1) * inv)
	out[2] = float32((a(0, 1)*c4 - a(1, 1)*c2 + a(3, 1)*c0) * inv)
	out[3] = float32((-a(0, 1)*c3 + a(1, 1)*c1 - a(2, 1)*c0) * inv)

	out[4] = float32((-a(1, 0)*c5 + a(2, 0)*c4 - a(3, 0)*c3) * inv)
	out[5] = float32((a(0, 0)*c5 - a(2, 0)*c2 + a(3, 0)*c1) * inv)
	out[6] = float32((-a(0, 0)*c4 + a(1, 0)*c2 - a(3, 0)*c0) * inv)
	out[7] = float32((a(0, 0)*c3 - a(1, 0)*c1 + a(2, 0)*c0) * inv)

	out[8] = float32((a(1, 3)*s5 - a(2, 3)*s4 + a(3, 3)*s3) * inv)
	out[9] = float32((-a(0, 3)*s5 + a(2, 3)*s2 - a(3, 3)*s1) * inv)
	out[10] = float32((a(0, 3)*s4 - a(1, 3)*s2 + a(3, 3)*s0) * inv)
	out[11] = float32((-a(0, 3)*s3 + a(1, 3)*s1 - a(2, 3)*s0) * inv)

	out[12] = float32((-a(1, 2)*s5 + a(2, 2)*s4 - a(3, 2)*s3) * inv)
	out[13] = float32((a(0, 2)*s5 - a(2, 2)*s2 + a(3, 2)*s1) * inv)
	out[14] = float32((-a(0, 2)*s4 + a(1, 2)*s2 - a(3, 2)*s0) * inv)
	out[15] = float32((a(0, 2)*s3 - a(1, 2)*s1 + a(2, 2)*s0) * inv)
	return out, true
}

// Apply transforms the point (x, y, 0, 1) and returns the x and y of the
// result.
func (m Mat4) Apply(x, y float32) (float32, float32) {
	ox := m[0]*x + m[4]*y + m[12]
	oy := m[1]*x + m[5]*y + m[13]
	return ox, oy
}

func AlignUp[T constraints.Integer](len, alignment T) T {
	return (len + alignment - 1) & -alignment
}
