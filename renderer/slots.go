// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"fmt"
	"unsafe"

	"honnef.co/go/mosaic/mmath"
	"honnef.co/go/mosaic/model"
)

// SlotID names one GPU buffer slot. The set is closed; every buffer the
// renderer touches is declared in the slot table below, and both buffer
// creation and bind group creation in the engine draw from it.
type SlotID int

const (
	SlotUniform SlotID = iota
	SlotVertices
	SlotSegments
	SlotShards
	SlotFrames
	SlotInstances
	SlotExpandedSegments
	SlotShardVertices
	NumSlots
)

// BindGroupID names one bind group. Groups 0 and 1 reference only static
// buffers and are built once; ExpandGroup and RasterGroup reference the
// dynamic buffers and are rebuilt whenever one of those buffers is recreated.
type BindGroupID int

const (
	UniformGroup BindGroupID = iota
	ModelGroup
	ExpandGroup
	RasterGroup
	NumBindGroups
)

type Usage int

const (
	UsageUniform Usage = iota + 1
	UsageStorageRead
	UsageStorage
)

type Visibility int

const (
	VisibilityCompute Visibility = 1 << iota
	VisibilityVertex
	VisibilityFragment
)

// Slot describes one resource slot: where it binds, who sees it, what usage
// class its buffer needs, and how many bytes one element occupies on the
// device. Dynamic slots are subject to capacity management; static slots are
// sized once at model upload.
type Slot struct {
	Name     string
	Group    BindGroupID
	Binding  uint32
	Visible  Visibility
	Usage    Usage
	ElemSize uint64
	Dynamic  bool
}

// BufferDesc is the allocation request for a slot's buffer holding count
// elements. Count zero still allocates one element so the binding stays
// valid.
type BufferDesc struct {
	Name  string
	Size  uint64
	Usage Usage
}

// CopyAlign is the transfer alignment the backend requires for buffer
// writes.
const CopyAlign = 4

// padElemSize rounds a host struct size up to the transfer alignment,
// allocating at least one alignment unit.
func padElemSize(size uintptr) uint64 {
	return uint64(mmath.AlignUp(max(int(size), CopyAlign), CopyAlign))
}

var slots = [NumSlots]Slot{
	SlotUniform: {
		Name:     "uniform",
		Group:    UniformGroup,
		Binding:  0,
		Visible:  VisibilityCompute | VisibilityVertex | VisibilityFragment,
		Usage:    UsageUniform,
		ElemSize: padElemSize(unsafe.Sizeof(Uniforms{})),
	},
	SlotVertices: {
		Name:     "model vertices",
		Group:    ModelGroup,
		Binding:  0,
		Visible:  VisibilityCompute | VisibilityFragment,
		Usage:    UsageStorageRead,
		ElemSize: padElemSize(unsafe.Sizeof(model.Vertex{})),
	},
	SlotSegments: {
		Name:     "model segments",
		Group:    ModelGroup,
		Binding:  1,
		Visible:  VisibilityCompute,
		Usage:    UsageStorageRead,
		ElemSize: padElemSize(unsafe.Sizeof(model.Segment{})),
	},
	SlotShards: {
		Name:     "model shards",
		Group:    ModelGroup,
		Binding:  2,
		Visible:  VisibilityCompute,
		Usage:    UsageStorageRead,
		ElemSize: padElemSize(unsafe.Sizeof(model.Shard{})),
	},
	SlotFrames: {
		Name:     "model frames",
		Group:    ModelGroup,
		Binding:  3,
		Visible:  VisibilityCompute,
		Usage:    UsageStorageRead,
		ElemSize: padElemSize(unsafe.Sizeof(model.Frame{})),
	},
	SlotInstances: {
		Name:     "instance descriptors",
		Group:    ExpandGroup,
		Binding:  0,
		Visible:  VisibilityCompute | VisibilityFragment,
		Usage:    UsageStorageRead,
		ElemSize: padElemSize(unsafe.Sizeof(InstanceDescriptor{})),
		Dynamic:  true,
	},
	SlotExpandedSegments: {
		Name:     "expanded segments",
		Group:    ExpandGroup,
		Binding:  1,
		Visible:  VisibilityCompute | VisibilityFragment,
		Usage:    UsageStorage,
		ElemSize: padElemSize(unsafe.Sizeof(ExpandedSegment{})),
		Dynamic:  true,
	},
	SlotShardVertices: {
		Name:     "shard vertices",
		Group:    ExpandGroup,
		Binding:  2,
		Visible:  VisibilityCompute | VisibilityVertex,
		Usage:    UsageStorage,
		ElemSize: padElemSize(unsafe.Sizeof(ShardVertex{})),
		Dynamic:  true,
	},
}

// Lookup returns the slot descriptor for id.
func Lookup(id SlotID) Slot {
	if id < 0 || id >= NumSlots {
		panic(fmt.Sprintf("invalid slot %d", id))
	}
	return slots[id]
}

// Descriptor produces the buffer allocation descriptor for count elements of
// this slot.
func (s Slot) Descriptor(count uint64) BufferDesc {
	return BufferDesc{
		Name:  s.Name,
		Size:  s.ElemSize * max(count, 1),
		Usage: s.Usage,
	}
}

// GroupSlots returns the slots bound in group, in ascending binding order.
// The raster group aliases slots owned by other groups, so it is special
// cased rather than derived from the table.
func GroupSlots(group BindGroupID) []SlotID {
	switch group {
	case UniformGroup:
		return []SlotID{SlotUniform}
	case ModelGroup:
		return []SlotID{SlotVertices, SlotSegments, SlotShards, SlotFrames}
	case ExpandGroup:
		return []SlotID{SlotInstances, SlotExpandedSegments, SlotShardVertices}
	case RasterGroup:
		return []SlotID{SlotInstances, SlotExpandedSegments, SlotShardVertices}
	default:
		panic(fmt.Sprintf("invalid bind group %d", group))
	}
}

// DependentGroups returns the bind groups that reference slot and therefore
// go stale when the slot's buffer is recreated.
func DependentGroups(id SlotID) []BindGroupID {
	switch Lookup(id).Group {
	case ExpandGroup:
		return []BindGroupID{ExpandGroup, RasterGroup}
	default:
		return []BindGroupID{Lookup(id).Group}
	}
}
