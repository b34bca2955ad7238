// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp_test

import (
	"sort"
	"sync"
	"testing"

	rpp "github.com/GitJQ/ReactivePlusPlus"
	"github.com/GitJQ/ReactivePlusPlus/rpptest"
)

// S6: just(just(1), just(2)) | merge -> next(1), next(2), completed
func TestMergeOfTwoSynchronousInners(t *testing.T) {
	mock := rpptest.NewMockObserver[int]()
	rpp.Merge(rpp.Just(rpp.Just(1), rpp.Just(2))).Subscribe(mock.Observer())

	values := append([]int(nil), mock.Values()...)
	sort.Ints(values)
	assertSlice(t, "values", []int{1, 2}, values)
	if !mock.Terminated() {
		t.Fatal("Merge did not complete")
	}
}

// S7: merge_with(just(1), error(e), just(2)) -> next(1), error(e)
func TestMergeWithErrorStopsDownstream(t *testing.T) {
	mock := rpptest.NewMockObserver[int]()
	rpp.MergeWith(rpp.Just(1), rpp.Error[int](errTest), rpp.Just(2)).Subscribe(mock.Observer())

	events := mock.Events()
	if len(events) != 2 || events[0].Kind != rpptest.EventNext || events[0].Value != 1 ||
		events[1].Kind != rpptest.EventError || events[1].Err != errTest {
		t.Fatalf("got %+v, want [next(1), error(errTest)]", events)
	}
}

// Concurrent inner producers must never interleave calls into the
// downstream Observer (spec invariant on Merge's serialized delivery).
func TestMergeSerializesConcurrentInners(t *testing.T) {
	const inners = 8
	const perInner = 200

	sources := make([]rpp.Observable[int], inners)
	for i := range sources {
		i := i
		sources[i] = rpp.FuncObservable[int](func(down *rpp.Observer[int]) {
			go func() {
				for j := 0; j < perInner; j++ {
					down.Next(i*perInner + j)
				}
				down.Completed()
			}()
		})
	}

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		total   int
	)
	done := make(chan struct{})
	obs := rpp.NewObserver(rpp.Strategy[int]{
		OnNext: func(int) {
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			total++
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		},
		OnCompleted: func() { close(done) },
	})
	rpp.MergeWith(sources[0], sources[1:]...).Subscribe(obs)
	<-done

	if maxSeen > 1 {
		t.Fatalf("Merge allowed %d concurrent calls into the downstream Observer, want at most 1 at a time", maxSeen)
	}
	if total != inners*perInner {
		t.Fatalf("got %d total values, want %d", total, inners*perInner)
	}
}
