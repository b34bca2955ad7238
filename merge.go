// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "sync"

// Merge subscribes to every inner Observable produced by the outer
// Observable, as each is discovered, multiplexing their values downstream.
// Subscribing to an inner is synchronous, exactly like any other
// Subscribe call: an inner Observable that produces synchronously (e.g.
// Just) still runs to completion before Merge moves on to the next one it
// discovers. Genuine concurrency arises only when the inner Observables
// are themselves asynchronous (e.g. backed by their own goroutine or a
// Scheduler), in which case Merge's per-subscription mutex serializes
// their emissions so two inner observables emitting from distinct
// goroutines never interleave calls into the downstream Observer (spec
// §4.8, §5).
//
// The outer completes once it (itself) has completed and every inner
// subscription it produced has completed. An error from the outer or any
// inner observable is forwarded downstream immediately (first-error-wins)
// and disposes the whole subscription tree, aborting every other inner
// and the outer.
func Merge[T any](outer Observable[Observable[T]]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		state := &mergeState[T]{down: down}
		state.activeCount = 1 // the outer itself, until it completes

		// The outer and each inner get their own lifetime, registered as a
		// child of down's, so that one of them terminating does not dispose
		// down while the others are still running.
		outerDisposable := NewCompositeDisposable()
		down.SetUpstream(outerDisposable)

		outerObs := withDisposable(Strategy[Observable[T]]{
			OnNext: func(inner Observable[T]) {
				state.mu.Lock()
				if down.IsDisposed() {
					state.mu.Unlock()
					return
				}
				state.activeCount++
				state.mu.Unlock()
				state.subscribeInner(inner)
			},
			OnError: func(err error) {
				state.fail(err)
			},
			OnCompleted: func() {
				state.mu.Lock()
				state.outerDone = true
				state.activeCount--
				done := state.activeCount == 0
				state.mu.Unlock()
				if done {
					state.serialMu.Lock()
					down.Completed()
					state.serialMu.Unlock()
				}
			},
		}, outerDisposable)
		outer.Subscribe(outerObs)
	})
}

// MergeWith merges first together with the rest of srcs, as if they were
// produced, in order, by an outer Observable.
func MergeWith[T any](first Observable[T], rest ...Observable[T]) Observable[T] {
	all := append([]Observable[T]{first}, rest...)
	return Merge(FromSlice(all))
}

type mergeState[T any] struct {
	down *Observer[T]

	// serialMu guards every emission into down, so concurrent inner
	// producers never interleave.
	serialMu sync.Mutex

	// mu guards the bookkeeping fields below.
	mu          sync.Mutex
	activeCount int
	outerDone   bool
}

func (s *mergeState[T]) subscribeInner(inner Observable[T]) {
	innerDisposable := NewCompositeDisposable()
	s.down.SetUpstream(innerDisposable)
	innerObs := withDisposable(Strategy[T]{
		OnNext: func(v T) {
			s.serialMu.Lock()
			defer s.serialMu.Unlock()
			if !s.down.IsDisposed() {
				s.down.Next(v)
			}
		},
		OnError: func(err error) {
			s.fail(err)
		},
		OnCompleted: func() {
			s.down.Disposable().Remove(innerDisposable)
			s.mu.Lock()
			s.activeCount--
			done := s.outerDone && s.activeCount == 0
			s.mu.Unlock()
			if done {
				s.serialMu.Lock()
				s.down.Completed()
				s.serialMu.Unlock()
			}
		},
	}, innerDisposable)
	inner.Subscribe(innerObs)
}

func (s *mergeState[T]) fail(err error) {
	s.serialMu.Lock()
	defer s.serialMu.Unlock()
	s.down.Error(err)
}
