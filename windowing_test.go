// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"sync"
	"testing"
	"time"
)

func TestCoalesceByKeyKeepsOnlyLatestPerKeyWhileSlow(t *testing.T) {
	src := NewPublishSubject[int]()

	var (
		mu       sync.Mutex
		received []int
	)
	first := true
	release := make(chan struct{})
	done := make(chan struct{})

	obs := NewObserver(Strategy[int]{
		OnNext: func(v int) {
			mu.Lock()
			received = append(received, v)
			mu.Unlock()
			if first {
				first = false
				<-release // hold the consumer loop up so later same-key pushes coalesce
			}
		},
		OnCompleted: func() { close(done) },
	})

	go CoalesceByKey(src.Observable(), func(v int) int { return v % 2 }, 4).Subscribe(obs)
	time.Sleep(10 * time.Millisecond) // let the subject registration land

	src.Next(0) // key 0, delivered immediately, then blocks the consumer loop
	time.Sleep(10 * time.Millisecond)
	src.Next(2) // key 0, queued while the consumer is blocked
	src.Next(4) // key 0, coalesces over the pending 2 — only the latest survives
	time.Sleep(10 * time.Millisecond)
	close(release)
	src.Completed()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("CoalesceByKey never completed")
	}

	mu.Lock()
	defer mu.Unlock()
	assertSlice(t, "received", []int{0, 4}, received)
}

func TestCoalesceByKeyForwardsCompletion(t *testing.T) {
	out, err := ToSlice(CoalesceByKey(Just(1, 2, 3), func(v int) int { return v }, 8))
	assertNil(t, "CoalesceByKey", err)

	seen := map[int]bool{}
	for _, v := range out {
		seen[v] = true
	}
	for _, want := range []int{1, 2, 3} {
		if !seen[want] {
			t.Fatalf("got %v, missing %d", out, want)
		}
	}
}

func TestCoalesceByKeyForwardsError(t *testing.T) {
	_, err := ToSlice(CoalesceByKey(Error[int](errTest), func(v int) int { return v }, 4))
	if err != errTest {
		t.Fatalf("got %v, want errTest", err)
	}
}
