// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package renderer

import (
	"testing"
)

func TestNextCapacity(t *testing.T) {
	tests := []struct {
		capacity uint64
		demand   uint64
		want     uint64
		grown    bool
	}{
		{1, 0, 1, false},
		{1, 1, 1, false},
		{1, 2, 2, true},
		{1, 5, 8, true},
		{8, 5, 8, false},
		{8, 8, 8, false},
		{8, 9, 16, true},
		{8, 1000, 1024, true},
		{64, 64, 64, false},
		// Zero is normalized to one before doubling.
		{0, 0, 1, false},
		{0, 3, 4, true},
	}
	for _, tt := range tests {
		got, grown := NextCapacity(tt.capacity, tt.demand)
		if got != tt.want || grown != tt.grown {
			t.Errorf("NextCapacity(%d, %d) = (%d, %t), want (%d, %t)",
				tt.capacity, tt.demand, got, grown, tt.want, tt.grown)
		}
	}
}

func TestNextCapacityMonotonic(t *testing.T) {
	// Capacities never shrink, and a satisfied demand never triggers growth.
	capacity := uint64(1)
	demands := []uint64{5, 3, 8, 8, 2, 64, 1, 65}
	for _, demand := range demands {
		next, grown := NextCapacity(capacity, demand)
		if next < capacity {
			t.Fatalf("capacity shrank from %d to %d at demand %d", capacity, next, demand)
		}
		if next < demand {
			t.Fatalf("capacity %d does not cover demand %d", next, demand)
		}
		if grown != (next != capacity) {
			t.Fatalf("grown = %t but capacity went from %d to %d", grown, capacity, next)
		}
		capacity = next
	}
	if capacity != 128 {
		t.Fatalf("final capacity %d, want 128", capacity)
	}
}

func TestCapacitiesEnsure(t *testing.T) {
	caps := NewCapacities()
	for _, slot := range []SlotID{SlotInstances, SlotExpandedSegments, SlotShardVertices} {
		if got := caps.Get(slot); got != 1 {
			t.Fatalf("slot %v: initial capacity %d, want 1", slot, got)
		}
	}

	// Growth chain for five instances: 1 -> 8.
	if got, grown := caps.Ensure(SlotInstances, 5); got != 8 || !grown {
		t.Errorf("Ensure(5) = (%d, %t), want (8, true)", got, grown)
	}
	// Same demand again is idempotent.
	if got, grown := caps.Ensure(SlotInstances, 5); got != 8 || grown {
		t.Errorf("repeated Ensure(5) = (%d, %t), want (8, false)", got, grown)
	}
	// A smaller demand never shrinks.
	if got, grown := caps.Ensure(SlotInstances, 1); got != 8 || grown {
		t.Errorf("Ensure(1) after growth = (%d, %t), want (8, false)", got, grown)
	}

	// Slots are managed independently.
	if got := caps.Get(SlotExpandedSegments); got != 1 {
		t.Errorf("segment capacity changed to %d", got)
	}
}

func TestEnsureNonDynamicPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for non-dynamic slot")
		}
	}()
	caps := NewCapacities()
	caps.Ensure(SlotUniform, 1)
}
