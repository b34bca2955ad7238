// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"testing"
	"time"
)

func TestJustEmitsInOrderThenCompletes(t *testing.T) {
	out, err := ToSlice(Just(1, 2, 3))
	assertNil(t, "Just", err)
	assertSlice(t, "Just", []int{1, 2, 3}, out)
}

func TestJustStopsOnDisposal(t *testing.T) {
	out, err := ToSlice(Take(1, Just(1, 2, 3)))
	assertNil(t, "Take", err)
	assertSlice(t, "Take", []int{1}, out)
}

func TestJustOnDefersProductionToTheScheduler(t *testing.T) {
	callerGoroutine := currentGoroutineID()
	var sawGoroutine int64

	done := make(chan struct{})
	obs := NewObserver(Strategy[int]{
		OnNext:      func(int) { sawGoroutine = currentGoroutineID() },
		OnCompleted: func() { close(done) },
	})
	JustOn(NewThread, 1).Subscribe(obs)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("JustOn never completed")
	}
	if sawGoroutine == callerGoroutine {
		t.Fatal("JustOn ran on the subscribing goroutine, want a worker goroutine")
	}
}

func TestCreateHandsObserverDirectlyToOnSubscribe(t *testing.T) {
	out, err := ToSlice(Create(func(down *Observer[int]) {
		down.Next(42)
		down.Completed()
	}))
	assertNil(t, "Create", err)
	assertSlice(t, "Create", []int{42}, out)
}

func TestEmptyCompletesImmediately(t *testing.T) {
	out, err := ToSlice(Empty[int]())
	assertNil(t, "Empty", err)
	if len(out) != 0 {
		t.Fatalf("got %v, want no values", out)
	}
}

func TestErrorFailsImmediately(t *testing.T) {
	_, err := ToSlice(Error[int](errTest))
	if err != errTest {
		t.Fatalf("got %v, want errTest", err)
	}
}

func TestFromSliceMatchesJust(t *testing.T) {
	out, err := ToSlice(FromSlice([]int{1, 2, 3}))
	assertNil(t, "FromSlice", err)
	assertSlice(t, "FromSlice", []int{1, 2, 3}, out)
}

func TestFromChannelEmitsUntilClosed(t *testing.T) {
	ch := make(chan int, 3)
	ch <- 1
	ch <- 2
	ch <- 3
	close(ch)

	out, err := ToSlice(FromChannel(ch))
	assertNil(t, "FromChannel", err)
	assertSlice(t, "FromChannel", []int{1, 2, 3}, out)
}

func TestFromChannelDisposalStopsConsumption(t *testing.T) {
	ch := make(chan int)
	obs := NewObserver(Strategy[int]{})

	subscribed := make(chan struct{})
	go func() {
		close(subscribed)
		FromChannel[int](ch).Subscribe(obs)
	}()
	<-subscribed
	time.Sleep(10 * time.Millisecond) // let the source reach its select loop
	obs.Dispose()

	select {
	case ch <- 1:
		t.Fatal("channel send succeeded after disposal; the source is still reading")
	case <-time.After(20 * time.Millisecond):
	}
}
