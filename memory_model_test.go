// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

// A use_stack source re-derives its value on every subscription, so a
// cold source built this way accumulates one Copy per fan-out.
func TestMemoryModelUseStackCopiesOncePerSubscriber(t *testing.T) {
	tracker := rpptest.NewCopyTracker()
	useStack := func() rpp.Observable[rpptest.CopyTracker] {
		return rpp.Create(func(down *rpp.Observer[rpptest.CopyTracker]) {
			down.Next(tracker.Copy())
			down.Completed()
		})
	}

	for i := 0; i < 3; i++ {
		out, err := rpp.ToSlice(useStack())
		assertNil(t, "ToSlice", err)
		if len(out) != 1 {
			t.Fatalf("subscription %d: got %d values, want 1", i, len(out))
		}
	}

	if got := tracker.Copies(); got != 3 {
		t.Fatalf("got %d copies, want 3 (one per subscriber)", got)
	}
}

// A use_shared source hands every subscriber the same handle instead of
// re-deriving it, so multicasting through a PublishSubject leaves the
// copy count untouched no matter how many observers fan out from it.
func TestMemoryModelUseSharedDoesNotCopyAcrossFanOut(t *testing.T) {
	tracker := rpptest.NewCopyTracker()
	subject := rpp.NewPublishSubject[rpptest.CopyTracker]()

	mocks := make([]*rpptest.MockObserver[rpptest.CopyTracker], 3)
	for i := range mocks {
		mocks[i] = rpptest.NewMockObserver[rpptest.CopyTracker]()
		subject.Observable().Subscribe(mocks[i].Observer())
	}

	subject.Next(tracker)
	subject.Completed()

	for i, m := range mocks {
		values := m.Values()
		if len(values) != 1 {
			t.Fatalf("observer %d: got %d values, want 1", i, len(values))
		}
		if got := values[0].Copies(); got != 0 {
			t.Fatalf("observer %d: got %d copies, want 0 (shared handle)", i, got)
		}
	}

	if got := tracker.Copies(); got != 0 {
		t.Fatalf("got %d copies on the original tracker, want 0", got)
	}
}
