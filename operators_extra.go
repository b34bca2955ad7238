// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"fmt"
	"time"
)

// FlatMap applies apply to every value from src and flattens the
// resulting Observables into one, concurrently: it is Merge composed with
// Map, so it inherits Merge's serialized-delivery guarantee (spec §4.8) —
// two inner Observables completing on different goroutines still never
// interleave their calls into the downstream Observer.
func FlatMap[A, B any](src Observable[A], apply func(A) Observable[B]) Observable[B] {
	return Merge(Map(src, apply))
}

// Scan runs step over every value from src starting at init, emitting each
// intermediate accumulator instead of only the final one (unlike Reduce).
func Scan[In, Out any](src Observable[In], init Out, step func(Out, In) Out) Observable[Out] {
	return Lift(src, func(down *Observer[Out]) Strategy[In] {
		acc := init
		return Strategy[In]{
			OnNext: func(v In) {
				defer guardOperatorPanic(down)
				acc = step(acc, v)
				down.Next(acc)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// Reduce runs step over every value from src starting at init, emitting
// only the final accumulator as a Single once src completes.
func Reduce[T, Result any](src Observable[T], init Result, step func(Result, T) Result) Observable[Result] {
	return FuncObservable[Result](func(down *Observer[Result]) {
		acc := init
		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				defer guardOperatorPanic(down)
				acc = step(acc, v)
			},
			OnError: down.Error,
			OnCompleted: func() {
				down.Next(acc)
				down.Completed()
			},
		}, down.Disposable())
		src.Subscribe(up)
	})
}

// Concat subscribes to each of srcs in order, emitting one's values only
// after the previous one has completed. An Error from any source
// terminates the whole chain immediately.
func Concat[T any](srcs ...Observable[T]) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		for _, src := range srcs {
			if down.IsDisposed() {
				return
			}
			done := make(chan struct{})
			// Each source gets its own lifetime under down's, so that its
			// completion does not dispose down before the next one runs.
			srcDisposable := NewCompositeDisposable()
			down.SetUpstream(srcDisposable)
			up := withDisposable(Strategy[T]{
				OnNext:  down.Next,
				OnError: func(err error) { down.Error(err); close(done) },
				OnCompleted: func() {
					close(done)
				},
			}, srcDisposable)
			src.Subscribe(up)
			<-done
			down.Disposable().Remove(srcDisposable)
			if down.IsDisposed() {
				return
			}
		}
		down.Completed()
	})
}

// RetryFunc decides whether a failed subscription should be resubscribed
// to, given the error it failed with.
type RetryFunc func(err error) bool

// Retry resubscribes to src whenever it terminates with an error and
// shouldRetry(err) reports true, forwarding every intermediate attempt's
// values downstream. The retried Observable succeeds once one attempt
// completes normally, and fails with the last error once shouldRetry
// returns false.
func Retry[T any](src Observable[T], shouldRetry RetryFunc) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		for {
			if down.IsDisposed() {
				return
			}
			done := make(chan error, 1)
			// Each attempt gets its own lifetime under down's, so that a
			// failed attempt does not dispose down before it is retried.
			attemptDisposable := NewCompositeDisposable()
			down.SetUpstream(attemptDisposable)
			up := withDisposable(Strategy[T]{
				OnNext:      down.Next,
				OnError:     func(err error) { done <- err },
				OnCompleted: func() { done <- nil },
			}, attemptDisposable)
			src.Subscribe(up)
			err := <-done
			down.Disposable().Remove(attemptDisposable)
			if err == nil {
				down.Completed()
				return
			}
			retry, panicErr := callRetryFunc(shouldRetry, err)
			if panicErr != nil {
				down.Error(panicErr)
				return
			}
			if !retry {
				down.Error(err)
				return
			}
		}
	})
}

// callRetryFunc invokes shouldRetry, recovering a panic raised from it
// into panicErr rather than letting it unwind past Retry's loop, matching
// the Observer Contract's OperatorError kind (spec §4.5, §7).
func callRetryFunc(shouldRetry RetryFunc, err error) (retry bool, panicErr error) {
	defer func() {
		if r := recover(); r != nil {
			retry = false
			panicErr = fmt.Errorf("rpp: operator panicked: %v", r)
		}
	}()
	return shouldRetry(err), nil
}

// AlwaysRetry is a RetryFunc that always asks for a retry.
func AlwaysRetry(err error) bool { return true }

// BackoffRetry wraps shouldRetry, sleeping the calling goroutine with an
// exponentially growing delay (doubling from minBackoff up to maxBackoff)
// before each decision.
func BackoffRetry(shouldRetry RetryFunc, minBackoff, maxBackoff time.Duration) RetryFunc {
	backoff := minBackoff
	return func(err error) bool {
		time.Sleep(backoff)
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		return shouldRetry(err)
	}
}

// LimitRetries wraps shouldRetry so that it refuses once numRetries
// attempts have already been granted.
func LimitRetries(shouldRetry RetryFunc, numRetries int) RetryFunc {
	return func(err error) bool {
		if numRetries <= 0 {
			return false
		}
		numRetries--
		return shouldRetry(err)
	}
}
