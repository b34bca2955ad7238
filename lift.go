// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "fmt"

// guardOperatorPanic recovers a panic raised by a user-supplied operator
// callback (Map's f, Filter's pred, Scan's step, ...) and converts it into
// a terminal error on down, matching the Observer Contract's OperatorError
// kind (spec §4.5, §7): exceptions from a callback are surfaced to
// down.Error and the upstream subscription is terminated. Callers defer it
// at the top of the OnNext/OnError/OnCompleted closure that actually invokes user
// code, so the recover runs before the panic can unwind past the operator
// boundary.
func guardOperatorPanic[T any](down *Observer[T]) {
	if r := recover(); r != nil {
		down.Error(fmt.Errorf("rpp: operator panicked: %v", r))
	}
}

// LiftStrategy builds the upstream-facing Strategy[A] for an operator,
// given the already-constructed downstream Observer[B]. It also returns
// per-subscription state S, which the returned callbacks may close over;
// most operators don't need it and can return the zero value.
//
// Implementations must not emit on down after down.IsDisposed(), must
// emit at most one terminal event, and must attach any scheduler work
// they submit to down.Disposable() so that downstream disposal cancels
// it.
type LiftStrategy[A, B any] func(down *Observer[B]) Strategy[A]

// Lift is the canonical operator constructor: given an upstream
// Observable[A] and a LiftStrategy, it returns an Observable[B] whose
// subscribe function
//
//  1. receives the downstream Observer[B],
//  2. builds the upstream Strategy[A] via strategy(down),
//  3. builds an upstream Observer[A] sharing down's composite disposable
//     (so disposing either one ripples to the other),
//  4. subscribes the upstream Observable with it.
func Lift[A, B any](upstream Observable[A], strategy LiftStrategy[A, B]) Observable[B] {
	return FuncObservable[B](func(down *Observer[B]) {
		up := withDisposable(strategy(down), down.Disposable())
		upstream.Subscribe(up)
	})
}

// Pipe applies a sequence of operators to src, left to right, equivalent
// to the spec's `source | op1 | op2 | ...` pipeline notation.
func Pipe[T any](src Observable[T], ops ...func(Observable[T]) Observable[T]) Observable[T] {
	for _, op := range ops {
		src = op(src)
	}
	return src
}
