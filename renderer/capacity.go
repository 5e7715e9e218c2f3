// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

// NextCapacity applies the growth rule for dynamic buffers: if demand exceeds
// capacity, double capacity until it no longer does. It reports whether the
// capacity changed, which is exactly when the buffer has to be recreated and
// its bind groups rebuilt. Capacities never shrink; scene sizes fluctuate and
// a shrink policy would thrash destroy/recreate cycles.
func NextCapacity(capacity, demand uint64) (uint64, bool) {
	if capacity == 0 {
		capacity = 1
	}
	if demand <= capacity {
		return capacity, false
	}
	grown := capacity
	for grown < demand {
		grown *= 2
	}
	return grown, true
}

// Capacities tracks the element capacity of the three dynamic buffers. Each
// is managed independently; their demands grow at different rates.
type Capacities struct {
	Instances     uint64
	Segments      uint64
	ShardVertices uint64
}

// NewCapacities returns the initial state: every dynamic buffer starts at
// capacity one.
func NewCapacities() Capacities {
	return Capacities{Instances: 1, Segments: 1, ShardVertices: 1}
}

// Demands is one frame's required element counts for the dynamic buffers.
type Demands struct {
	Instances     uint64
	Segments      uint64
	ShardVertices uint64
}

func (c *Capacities) of(slot SlotID) *uint64 {
	switch slot {
	case SlotInstances:
		return &c.Instances
	case SlotExpandedSegments:
		return &c.Segments
	case SlotShardVertices:
		return &c.ShardVertices
	default:
		panic("renderer: slot is not capacity managed")
	}
}

// Get returns the current capacity of a dynamic slot.
func (c *Capacities) Get(slot SlotID) uint64 {
	return *c.of(slot)
}

// Ensure grows the capacity of slot to cover demand and reports whether a
// growth event occurred.
func (c *Capacities) Ensure(slot SlotID, demand uint64) (uint64, bool) {
	p := c.of(slot)
	next, grown := NextCapacity(*p, demand)
	*p = next
	return next, grown
}
