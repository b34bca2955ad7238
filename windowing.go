// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"container/list"
	"sync"
)

// CoalesceByKey buffers values from src keyed by toKey, keeping only the
// latest value seen for a given key while the downstream observer is slow
// to consume it. It is the one windowing operator this library ships,
// because unbounded buffering would violate the push-only, no-
// backpressure model (spec §1 Non-goals) — CoalesceByKey's bound is
// explicit and caller-chosen via bufferSize.
//
// Upstream is subscribed on its own goroutine so that a slow downstream
// cannot block the producer beyond bufferSize distinct pending keys.
func CoalesceByKey[K comparable, V any](src Observable[V], toKey func(V) K, bufferSize int) Observable[V] {
	return FuncObservable[V](func(down *Observer[V]) {
		queue := newCoalescingQueue[K, V](bufferSize)

		// up gets its own disposable lifetime rather than down's: its
		// completion just closes the queue so the draining loop below can
		// flush what's left and call down.Completed() itself. Sharing
		// down's composite here would dispose down as a side effect of
		// up.Completed(), before the remaining queued values and down's
		// own terminal event could be delivered.
		upDisposable := NewCompositeDisposable()
		down.SetUpstream(NewDisposable(func() {
			queue.Close()
			upDisposable.Dispose()
		}))

		up := withDisposable(Strategy[V]{
			OnNext: func(v V) {
				defer guardOperatorPanic(down)
				queue.Push(toKey(v), v)
			},
			OnError: func(err error) {
				queue.Close()
				down.Error(err)
			},
			OnCompleted: queue.Close,
		}, upDisposable)

		go src.Subscribe(up)

		for {
			_, v, ok := queue.Pop()
			if !ok {
				down.Completed()
				return
			}
			down.Next(v)
		}
	})
}

// coalescingQueue is CoalesceByKey's backing store: a bounded FIFO of
// distinct keys, each holding only its most recently pushed value. It has
// no caller outside this file, so it lives next to the one operator that
// needs it rather than in its own file.
type coalescingQueue[K comparable, V any] struct {
	sync.Mutex

	fullCond     *sync.Cond // signaled when a slot frees up for Push to wait on
	nonEmptyCond *sync.Cond // signaled when a value is pushed for Pop to wait on

	bufSize int
	values  map[K]V
	order   *list.List
	closed  bool
}

func newCoalescingQueue[K comparable, V any](bufSize int) *coalescingQueue[K, V] {
	q := &coalescingQueue[K, V]{
		bufSize: bufSize,
		values:  make(map[K]V),
		order:   list.New(),
	}
	q.fullCond = sync.NewCond(q)
	q.nonEmptyCond = sync.NewCond(q)
	return q
}

// Close unblocks any goroutine waiting in Push or Pop; a closed queue
// still lets Pop drain whatever is left, but Push becomes a no-op.
func (q *coalescingQueue[K, V]) Close() {
	q.Lock()
	q.closed = true
	q.nonEmptyCond.Signal()
	q.fullCond.Signal()
	q.Unlock()
}

// Push records v under k, overwriting any value already pending for k
// instead of appending a duplicate entry. If k is new and the queue is at
// bufSize distinct keys, Push blocks until a Pop makes room or the queue
// is closed.
func (q *coalescingQueue[K, V]) Push(k K, v V) {
	q.Lock()
	defer q.Unlock()

	if q.closed {
		return
	}

	if _, pending := q.values[k]; pending {
		q.values[k] = v
		return
	}

	for !q.closed && len(q.values) >= q.bufSize {
		q.fullCond.Wait()
	}
	if q.closed {
		return
	}
	q.order.PushBack(k)
	q.values[k] = v
	q.nonEmptyCond.Signal()
}

// Pop removes and returns the oldest pending key and its latest value.
// ok is false only once the queue has been closed and fully drained.
func (q *coalescingQueue[K, V]) Pop() (key K, item V, ok bool) {
	q.Lock()
	defer q.Unlock()

	for !q.closed && q.order.Front() == nil {
		q.nonEmptyCond.Wait()
	}
	if q.order.Front() == nil {
		return key, item, false
	}

	key = q.order.Remove(q.order.Front()).(K)
	item = q.values[key]
	delete(q.values, key)
	q.fullCond.Signal()

	return key, item, true
}
