// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpptest

import "sync/atomic"

// CopyTracker is a value type whose Copy method records each logical
// duplication, for tests exercising the use_stack (by-value capture) vs
// use_shared (by shared handle) memory-model knob referenced by spec §6:
// a source built with use_stack should show Copies growing with every
// observer fan-out, one built with use_shared should not.
type CopyTracker struct {
	counter *int64
}

// NewCopyTracker returns a CopyTracker starting at zero copies.
func NewCopyTracker() CopyTracker {
	var n int64
	return CopyTracker{counter: &n}
}

// Copy records a duplication and returns a CopyTracker sharing the same
// counter, so that copies made from copies still accumulate into one
// total.
func (c CopyTracker) Copy() CopyTracker {
	atomic.AddInt64(c.counter, 1)
	return c
}

// Copies returns the number of times Copy has been called on this
// CopyTracker or any value copied from it.
func (c CopyTracker) Copies() int64 {
	return atomic.LoadInt64(c.counter)
}
