// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"honnef.co/go/mosaic/mem"
)

// KernelID names a compute kernel in the engine.
type KernelID int

const (
	// KernelExpand expands live instances into the expansion buffers, one
	// workgroup per instance.
	KernelExpand KernelID = iota
)

// Recording is the ordered command sequence for one frame. The engine plays
// it back into a single command submission, so the expansion stage's writes
// are visible to the raster stage's reads before rasterization begins.
type Recording struct {
	Commands []Command
}

func (rec *Recording) push(arena *mem.Arena, cmd Command) {
	rec.Commands = mem.Append(arena, rec.Commands, cmd)
}

// Grow records a growth event: slot's buffer must be recreated with the
// given element capacity, and its dependent bind groups are dirty.
func (rec *Recording) Grow(arena *mem.Arena, slot SlotID, capacity uint64) {
	rec.push(arena, mem.Make(arena, Grow{slot, capacity}))
}

// Upload records a write of data to the start of slot's buffer.
func (rec *Recording) Upload(arena *mem.Arena, slot SlotID, data []byte) {
	rec.push(arena, mem.Make(arena, Upload{slot, data}))
}

// UploadUniform records a write of data to slot's uniform buffer.
func (rec *Recording) UploadUniform(arena *mem.Arena, slot SlotID, data []byte) {
	rec.push(arena, mem.Make(arena, UploadUniform{slot, data}))
}

// Dispatch records a compute dispatch over the given workgroup counts.
func (rec *Recording) Dispatch(arena *mem.Arena, kernel KernelID, workgroups [3]uint32) {
	rec.push(arena, mem.Make(arena, Dispatch{kernel, workgroups}))
}

// Draw records the raster pass over the given number of vertices.
func (rec *Recording) Draw(arena *mem.Arena, vertices uint32) {
	rec.push(arena, mem.Make(arena, Draw{vertices}))
}

type Command interface {
	isCommand()
}

func (*Grow) isCommand()          {}
func (*Upload) isCommand()        {}
func (*UploadUniform) isCommand() {}
func (*Dispatch) isCommand()      {}
func (*Draw) isCommand()          {}

type Grow struct {
	Slot     SlotID
	Capacity uint64
}

type Upload struct {
	Slot SlotID
	Data []byte
}

type UploadUniform struct {
	Slot SlotID
	Data []byte
}

type Dispatch struct {
	Kernel     KernelID
	Workgroups [3]uint32
}

type Draw struct {
	Vertices uint32
}
