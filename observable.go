// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

// Observable is a value carrying a subscribe function. Subscribing is
// eager: the call to Subscribe begins production synchronously from the
// caller's standpoint; any deferral is the source's own choice, typically
// via a Scheduler.
//
// Implementations of the subscribe function must respect the Observer
// Contract on the Observer passed in (see Observer's doc comment): no
// event after a terminal, no event after IsDisposed, and at most one
// terminal. A source whose production is inherently concurrent must
// serialize its own calls into the Observer, or document that its output
// requires a serializing operator (e.g. Merge already does this; a
// Serialized subject is available for hand-rolled concurrent sources).
type Observable[T any] struct {
	subscribe func(*Observer[T])
}

// FuncObservable builds an Observable directly from its subscribe
// function. This is the canonical low-level constructor; Create takes the
// same function shape and simply calls it, for hand-written sources.
func FuncObservable[T any](subscribe func(*Observer[T])) Observable[T] {
	return Observable[T]{subscribe: subscribe}
}

// Subscribe begins production, pushing events into obs until a terminal
// event, external disposal, or the producer simply never terminates.
func (o Observable[T]) Subscribe(obs *Observer[T]) {
	o.subscribe(obs)
}

// SubscribeFunc is a convenience overload of Subscribe for callers who
// only want some of the three callbacks. Any of the three may be nil.
func (o Observable[T]) SubscribeFunc(onNext func(T), onError func(error), onCompleted func()) Disposable {
	obs := NewObserver(Strategy[T]{OnNext: onNext, OnError: onError, OnCompleted: onCompleted})
	o.Subscribe(obs)
	return obs
}
