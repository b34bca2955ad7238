// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle limits the rate at which values pass downstream, using
// golang.org/x/time/rate. A value arriving before the limiter allows it
// blocks the upstream producer's own goroutine until permitted, or until
// the subscription is disposed, whichever comes first.
func Throttle[T any](src Observable[T], ratePerSecond float64, burst int) Observable[T] {
	return Lift(src, func(down *Observer[T]) Strategy[T] {
		limiter := rate.NewLimiter(rate.Limit(ratePerSecond), burst)
		ctx, cancel := context.WithCancel(context.Background())
		down.SetUpstream(NewDisposable(cancel))

		return Strategy[T]{
			OnNext: func(v T) {
				if err := limiter.Wait(ctx); err != nil {
					// Subscription disposed while waiting; drop the value.
					return
				}
				down.Next(v)
			},
			OnError:     down.Error,
			OnCompleted: down.Completed,
		}
	})
}

// Delay shifts every value, and the eventual terminal event, emitted by
// src by duration, scheduling each forwarded emission onto a Worker taken
// from scheduler. Disposing the returned subscription also disposes the
// worker, discarding any emission still pending.
func Delay[T any](src Observable[T], duration time.Duration, scheduler Scheduler) Observable[T] {
	return FuncObservable[T](func(down *Observer[T]) {
		worker := scheduler.Worker()
		down.SetUpstream(worker)

		// up has its own lifetime under down's: src terminating must not
		// dispose the worker while delayed emissions are still pending.
		upDisposable := NewCompositeDisposable()
		down.SetUpstream(upDisposable)

		up := withDisposable(Strategy[T]{
			OnNext: func(v T) {
				worker.ScheduleAt(time.Now().Add(duration), func() Reschedule {
					down.Next(v)
					return Done
				})
			},
			OnError: func(err error) {
				worker.ScheduleAt(time.Now().Add(duration), func() Reschedule {
					down.Error(err)
					return Done
				})
			},
			OnCompleted: func() {
				worker.ScheduleAt(time.Now().Add(duration), func() Reschedule {
					down.Completed()
					return Done
				})
			},
		}, upDisposable)
		src.Subscribe(up)
	})
}

// Interval emits an increasing counter value every period, driven by a
// Worker taken from scheduler, until disposed.
func Interval(period time.Duration, scheduler Scheduler) Observable[int] {
	return FuncObservable[int](func(down *Observer[int]) {
		worker := scheduler.Worker()
		down.SetUpstream(worker)

		i := 0
		worker.ScheduleAt(time.Now().Add(period), func() Reschedule {
			if down.IsDisposed() {
				return Done
			}
			down.Next(i)
			i++
			return After(period)
		})
	})
}
