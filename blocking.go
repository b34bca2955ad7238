// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "sync"

// BlockingSubscribe subscribes to src and blocks the calling goroutine
// until a terminal event is delivered, invoking onNext (if non-nil) for
// each value as it arrives. It returns the terminal error, or nil on
// plain completion. This is the blocking-observer adaptor: a thin
// collaborator over the push-based Observer Contract for callers that
// want synchronous, pull-style waiting.
func BlockingSubscribe[T any](src Observable[T], onNext func(T)) error {
	var (
		mu   sync.Mutex
		cond = sync.NewCond(&mu)
		done bool
		err  error
	)

	obs := NewObserver(Strategy[T]{
		OnNext: func(v T) {
			if onNext != nil {
				onNext(v)
			}
		},
		OnError: func(e error) {
			mu.Lock()
			err, done = e, true
			mu.Unlock()
			cond.Signal()
		},
		OnCompleted: func() {
			mu.Lock()
			done = true
			mu.Unlock()
			cond.Signal()
		},
	})
	src.Subscribe(obs)

	mu.Lock()
	for !done {
		cond.Wait()
	}
	mu.Unlock()
	return err
}

// ToSlice blocks until src terminates, collecting every emitted value.
func ToSlice[T any](src Observable[T]) ([]T, error) {
	var items []T
	err := BlockingSubscribe(src, func(v T) { items = append(items, v) })
	return items, err
}

// Wait blocks until src terminates, discarding any values it emits.
func Wait[T any](src Observable[T]) error {
	return BlockingSubscribe[T](src, nil)
}
