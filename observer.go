// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

// Strategy is the capability set backing an Observer: the downstream
// callbacks an operator or a terminal sink supplies. Each field is
// optional; the zero value of each has the documented default.
type Strategy[T any] struct {
	// OnNext is called for every value. Defaults to a no-op.
	OnNext func(v T)

	// OnError is called once, for the terminal error. If nil, the error
	// is not silently dropped: DefaultErrorHandler is invoked instead
	// (see its doc comment).
	OnError func(err error)

	// OnCompleted is called once, for the terminal completion. Defaults
	// to a no-op.
	OnCompleted func()
}

// DefaultErrorHandler is invoked when an Observer with no OnError strategy
// receives a terminal error. The Observer Contract (spec §7) requires that
// errors are never silently dropped; callers that truly want to ignore
// errors must supply an explicit (no-op) OnError.
//
// The default implementation panics. Replace it (e.g. in a program's
// main) to log instead of crashing.
var DefaultErrorHandler = func(err error) {
	panic(err)
}

// Observer is a typed sink receiving Next(v) | Error(e) | Completed, in
// that grammar: after either terminal event no further event is ever
// delivered, and IsDisposed becomes true no later than the terminal call
// returns.
//
// An Observer owns exactly one CompositeDisposable, its "subscription
// lifetime" — disposing it (directly, or by the Observer receiving a
// terminal event) is the sole cancellation mechanism reaching upstream
// producers via SetUpstream.
type Observer[T any] struct {
	strategy   Strategy[T]
	disposable *CompositeDisposable
}

// NewObserver builds an Observer from a Strategy with a fresh subscription
// lifetime.
func NewObserver[T any](strategy Strategy[T]) *Observer[T] {
	return &Observer[T]{
		strategy:   strategy,
		disposable: NewCompositeDisposable(),
	}
}

// Next forwards v to the strategy's OnNext, unless the subscription has
// already terminated or been disposed.
func (o *Observer[T]) Next(v T) {
	if o.disposable.IsDisposed() {
		return
	}
	if o.strategy.OnNext != nil {
		o.strategy.OnNext(v)
	}
}

// Error forwards err to the strategy, then disposes the subscription.
// Further events delivered after Error returns are silently dropped by
// Next/Error/Completed's own disposed check — producers are still
// expected to stop emitting once IsDisposed is true.
func (o *Observer[T]) Error(err error) {
	if o.disposable.IsDisposed() {
		return
	}
	if o.strategy.OnError != nil {
		o.strategy.OnError(err)
	} else {
		DefaultErrorHandler(err)
	}
	o.disposable.Dispose()
}

// Completed forwards the completion to the strategy, then disposes the
// subscription.
func (o *Observer[T]) Completed() {
	if o.disposable.IsDisposed() {
		return
	}
	if o.strategy.OnCompleted != nil {
		o.strategy.OnCompleted()
	}
	o.disposable.Dispose()
}

// IsDisposed reports whether the subscription lifetime has ended, either
// by a terminal event or an explicit external Dispose.
func (o *Observer[T]) IsDisposed() bool {
	return o.disposable.IsDisposed()
}

// Dispose ends the subscription from the consumer side without an
// upstream terminal event, e.g. "unsubscribe".
func (o *Observer[T]) Dispose() {
	o.disposable.Dispose()
}

// SetUpstream registers d with the subscription lifetime. If the
// subscription is already over, d is disposed immediately.
func (o *Observer[T]) SetUpstream(d Disposable) {
	o.disposable.Add(d)
}

// Disposable returns the Observer's subscription-lifetime composite, so
// that operators (see Lift) can share it between an upstream-facing and a
// downstream-facing Observer.
func (o *Observer[T]) Disposable() *CompositeDisposable {
	return o.disposable
}

// withDisposable returns a new Observer sharing strategy but rooted at an
// existing composite disposable rather than a fresh one. Used by Lift to
// make an upstream Observer's lifetime identical to its downstream's.
func withDisposable[T any](strategy Strategy[T], d *CompositeDisposable) *Observer[T] {
	return &Observer[T]{strategy: strategy, disposable: d}
}
