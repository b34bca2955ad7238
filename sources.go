// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

// Just creates an Observable that synchronously emits each of items, in
// order, followed by Completed.
func Just[T any](items ...T) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		for _, item := range items {
			if down.IsDisposed() {
				return
			}
			down.Next(item)
		}
		down.Completed()
	})
}

// JustOn is Just, but production is submitted to scheduler rather than run
// synchronously on the subscribing goroutine.
func JustOn[T any](scheduler Scheduler, items ...T) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		worker := scheduler.Worker()
		down.SetUpstream(worker)
		worker.Schedule(func() Reschedule {
			for _, item := range items {
				if down.IsDisposed() {
					return Done
				}
				down.Next(item)
			}
			down.Completed()
			return Done
		})
	})
}

// Create builds an Observable from an onSubscribe function that is handed
// the Observer directly, for hand-written sources that don't fit the
// other factories. onSubscribe must respect the Observer Contract.
func Create[T any](onSubscribe func(*Observer[T])) Observable[T] {
	return FuncObservable[T](onSubscribe)
}

// Empty returns an Observable that completes immediately without ever
// emitting a value.
func Empty[T any]() Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		down.Completed()
	})
}

// Never returns an Observable that neither emits nor terminates; it is
// only ever ended by external disposal.
func Never[T any]() Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {})
}

// Error returns an Observable that fails immediately with err.
func Error[T any](err error) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		down.Error(err)
	})
}

// FromSlice emits each element of items, in order, followed by Completed.
func FromSlice[T any](items []T) Observable[T] {
	return Just(items...)
}

// FromChannel emits every value received from in, until in is closed (at
// which point it completes) or the subscription is disposed.
//
// The channel is consumed starting from whichever goroutine first calls
// Subscribe; a second subscriber races the first for values rather than
// getting its own copy, matching a plain Go channel's fan-out semantics.
func FromChannel[T any](in <-chan T) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		done := make(chan struct{})
		down.SetUpstream(NewDisposable(func() { close(done) }))
		for {
			select {
			case <-done:
				return
			case v, ok := <-in:
				if !ok {
					down.Completed()
					return
				}
				down.Next(v)
			}
		}
	})
}
