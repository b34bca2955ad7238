// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "testing"

func TestBlockingSubscribeInvokesOnNextAndReturnsNilOnCompletion(t *testing.T) {
	var seen []int
	err := BlockingSubscribe(Just(1, 2, 3), func(v int) { seen = append(seen, v) })
	assertNil(t, "BlockingSubscribe", err)
	assertSlice(t, "seen", []int{1, 2, 3}, seen)
}

func TestBlockingSubscribeReturnsTerminalError(t *testing.T) {
	err := BlockingSubscribe(Error[int](errTest), nil)
	if err != errTest {
		t.Fatalf("got %v, want errTest", err)
	}
}

func TestToSliceCollectsEveryValue(t *testing.T) {
	out, err := ToSlice(Just("a", "b", "c"))
	assertNil(t, "ToSlice", err)
	assertSlice(t, "ToSlice", []string{"a", "b", "c"}, out)
}

func TestWaitDiscardsValuesButSurfacesError(t *testing.T) {
	if err := Wait[int](Just(1, 2, 3)); err != nil {
		t.Fatalf("Wait = %v, want nil", err)
	}
	if err := Wait[int](Error[int](errTest)); err != errTest {
		t.Fatalf("Wait = %v, want errTest", err)
	}
}
