// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "errors"

// ErrNoElements is emitted by First, Single and Last when the upstream
// completes without ever satisfying the operator.
var ErrNoElements = errors.New("rpp: no elements")

// ErrTooManyElements is emitted by Single when the upstream emits more
// than one value.
var ErrTooManyElements = errors.New("rpp: too many elements")

// Map applies f to every value.
func Map[A, B any](src Observable[A], f func(A) B) Observable[B] {
	return Lift(src, func(down *Observer[B]) Strategy[A] {
		return Strategy[A]{
			OnNext: func(v A) {
				defer guardOperatorPanic(down)
				down.Next(f(v))
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// Filter keeps only the values for which pred returns true.
func Filter[T any](src Observable[T], pred func(T) bool) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		return Strategy[T]{
			OnNext: func(v T) {
				defer guardOperatorPanic(down)
				if pred(v) {
					down.Next(v)
				}
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// Do calls f for every value that passes through, without otherwise
// altering the stream. Useful for side effects (logging, metrics).
func Do[T any](src Observable[T], f func(T)) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		return Strategy[T]{
			OnNext: func(v T) {
				defer guardOperatorPanic(down)
				f(v)
				down.Next(v)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// DoOnError calls f with src's terminal error, if any, before forwarding
// it downstream. It mirrors Do's decorator shape for the error channel.
func DoOnError[T any](src Observable[T], f func(error)) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		return Strategy[T]{
			OnNext: down.Next,
			OnError: func(err error) {
				defer guardOperatorPanic(down)
				f(err)
				down.Error(err)
			},
			OnCompleted: down.Completed,
		}
	})
}

// DoOnCompleted calls f when src completes normally, before forwarding the
// completion downstream. It mirrors Do's decorator shape for the
// completion channel.
func DoOnCompleted[T any](src Observable[T], f func()) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		return Strategy[T]{
			OnNext:  down.Next,
			OnError: down.Error,
			OnCompleted: func() {
				defer guardOperatorPanic(down)
				f()
				down.Completed()
			},
		}
	})
}

// Take emits at most n values and then completes, disposing the upstream.
// If n == 0 it completes synchronously, before Subscribe returns, without
// ever subscribing upstream.
func Take[T any](n int, src Observable[T]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		if n == 0 {
			down.Completed()
			return
		}
		remaining := n
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				if remaining <= 0 {
					return
				}
				down.Next(v)
				remaining--
				if remaining == 0 {
					down.Completed()
				}
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}, down.Disposable())
		src.Subscribe(up)
	})
}

// Skip discards the first n values and forwards the rest.
func Skip[T any](n int, src Observable[T]) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		skip := n
		return Strategy[T]{
			OnNext: func(v T) {
				if skip > 0 {
					skip--
					return
				}
				down.Next(v)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// TakeWhile forwards values while pred holds, and completes (without
// forwarding) the first time it doesn't.
func TakeWhile[T any](src Observable[T], pred func(T) bool) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				defer guardOperatorPanic(down)
				if !pred(v) {
					down.Completed()
					return
				}
				down.Next(v)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}, down.Disposable())
		src.Subscribe(up)
	})
}

// TakeUntil forwards src's values until notifier emits its first value or
// completes, at which point the composed observable completes and both
// subscriptions are disposed.
func TakeUntil[T, U any](src Observable[T], notifier Observable[U]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		notifierObs := withDisposable(Strategy[U]{
			OnNext:      func(U) { down.Completed() },
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}, down.Disposable())
		notifier.Subscribe(notifierObs)

		srcObs := withDisposable(Strategy[T]{
			OnNext:      down.Next,
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}, down.Disposable())
		src.Subscribe(srcObs)
	})
}

// First emits the first value from src and then completes; if src
// completes having emitted nothing, First emits ErrNoElements instead.
func First[T any](src Observable[T]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		got := false
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				if got {
					return
				}
				got = true
				down.Next(v)
				down.Completed()
			},
			OnError: down.Error,
			OnCompleted: func() {
				if !got {
					down.Error(ErrNoElements)
				}
			},
		}, down.Disposable())
		src.Subscribe(up)
	})
}

// Single emits the sole value from src and then completes; it errors
// ErrNoElements if src completes empty, and ErrTooManyElements the moment
// src emits a second value.
func Single[T any](src Observable[T]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		var (
			have  bool
			value T
		)
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				if have {
					down.Error(ErrTooManyElements)
					return
				}
				have = true
				value = v
			},
			OnError: down.Error,
			OnCompleted: func() {
				if !have {
					down.Error(ErrNoElements)
					return
				}
				down.Next(value)
				down.Completed()
			},
		}, down.Disposable())
		src.Subscribe(up)
	})
}

// Last emits the final value from src at completion; it errors
// ErrNoElements if src completes without ever emitting.
func Last[T any](src Observable[T]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		var (
			have  bool
			value T
		)
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				have = true
				value = v
			},
			OnError: down.Error,
			OnCompleted: func() {
				if !have {
					down.Error(ErrNoElements)
					return
				}
				down.Next(value)
				down.Completed()
			},
		}, down.Disposable())
		src.Subscribe(up)
	})
}
