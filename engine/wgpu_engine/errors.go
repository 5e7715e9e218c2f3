// Copyright 2024 Dominik Honnef and contributors
// SPDX-License-Identifier: Apache-2.0 OR MIT

package wgpu_engine

import (
	"fmt"
)

// ResourceWriteError reports an upload that does not fit the destination
// buffer. It denotes a frame-local inconsistency between planned demands and
// uploaded data; the frame that produced it is skipped, nothing reaches the
// queue, and rendering may continue with the next frame.
type ResourceWriteError struct {
	Slot string
	Size uint64
	Cap  uint64
}

func (err *ResourceWriteError) Error() string {
	return fmt.Sprintf("write of %d bytes to %q exceeds buffer size %d", err.Size, err.Slot, err.Cap)
}
