// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import (
	"container/heap"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Reschedule is a Task's verdict on what should happen next: run again
// after a delay, or stop.
type Reschedule struct {
	done  bool
	delay time.Duration
}

// Done is the sentinel Reschedule meaning "this task will not run again".
var Done = Reschedule{done: true}

// After returns a Reschedule asking the worker to run the task again
// after d.
func After(d time.Duration) Reschedule {
	return Reschedule{delay: d}
}

// Task is a unit of work submitted to a Worker. Its return value decides
// whether, and after what delay, the worker runs it again.
type Task func() Reschedule

// Worker accepts scheduled work and runs it with per-worker FIFO ordering
// of scheduled time (equal times run in submission order), except for
// ThreadPool's Workers, whose tasks are not ordered (see ThreadPool). Distinct
// Workers from the same or different Schedulers are independent of one
// another. A Worker is itself a Disposable: disposing it discards any
// task not yet started and prevents new ones from running.
type Worker interface {
	Disposable

	// Schedule runs task as soon as the worker can, i.e. at time.Now().
	// The returned Disposable cancels this specific task if it hasn't
	// fired yet.
	Schedule(task Task) Disposable

	// ScheduleAt runs task no earlier than at. The returned Disposable
	// cancels this specific task if it hasn't fired yet.
	ScheduleAt(at time.Time, task Task) Disposable
}

// Scheduler produces independent Workers.
type Scheduler interface {
	Worker() Worker
}

// ---- immediate ----

type immediateScheduler struct{}

// Immediate runs every task synchronously on the goroutine that calls
// Schedule/ScheduleAt, including any reschedules (sleeping out the delay
// between them). There is no queue and no concurrency.
var Immediate Scheduler = immediateScheduler{}

func (immediateScheduler) Worker() Worker { return immediateWorker{disp: &leafDisposable{}} }

type immediateWorker struct{ disp *leafDisposable }

func (w immediateWorker) Dispose()         { w.disp.Dispose() }
func (w immediateWorker) IsDisposed() bool { return w.disp.IsDisposed() }

func (w immediateWorker) Schedule(task Task) Disposable {
	return w.ScheduleAt(time.Now(), task)
}

func (w immediateWorker) ScheduleAt(at time.Time, task Task) Disposable {
	d := NewDisposable(nil)
	if wait := time.Until(at); wait > 0 {
		time.Sleep(wait)
	}
	for {
		if d.IsDisposed() || w.IsDisposed() {
			return d
		}
		r := task()
		if r.done {
			return d
		}
		if r.delay > 0 {
			time.Sleep(r.delay)
		}
	}
}

// ---- current_thread (trampoline) ----

// currentThreadScheduler produces trampoline workers: if no drain is in
// progress on a given worker, scheduling onto it starts one that runs
// until its queue is empty; otherwise the task is merely enqueued for the
// in-progress drain to pick up. This gives FIFO-by-time ordering without
// a dedicated goroutine per worker.
type currentThreadScheduler struct{}

var CurrentThread Scheduler = currentThreadScheduler{}

func (currentThreadScheduler) Worker() Worker {
	return &trampolineWorker{}
}

type trampolineItem struct {
	at   time.Time
	seq  uint64
	task Task
	disp *leafDisposable
}

type trampolineQueue []*trampolineItem

func (q trampolineQueue) Len() int { return len(q) }
func (q trampolineQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}
func (q trampolineQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *trampolineQueue) Push(x any)   { *q = append(*q, x.(*trampolineItem)) }
func (q *trampolineQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

type trampolineWorker struct {
	mu        sync.Mutex
	disposed  bool
	draining  bool
	seq       uint64
	queue     trampolineQueue
}

func (w *trampolineWorker) Dispose() {
	w.mu.Lock()
	w.disposed = true
	w.queue = nil
	w.mu.Unlock()
}

func (w *trampolineWorker) IsDisposed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

func (w *trampolineWorker) Schedule(task Task) Disposable {
	return w.ScheduleAt(time.Now(), task)
}

func (w *trampolineWorker) ScheduleAt(at time.Time, task Task) Disposable {
	d := &leafDisposable{}
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return d
	}
	w.seq++
	heap.Push(&w.queue, &trampolineItem{at: at, seq: w.seq, task: task, disp: d})
	shouldDrain := !w.draining
	if shouldDrain {
		w.draining = true
	}
	w.mu.Unlock()

	if shouldDrain {
		w.drain()
	}
	return d
}

func (w *trampolineWorker) drain() {
	for {
		w.mu.Lock()
		if w.disposed || w.queue.Len() == 0 {
			w.draining = false
			w.mu.Unlock()
			return
		}
		item := heap.Pop(&w.queue).(*trampolineItem)
		w.mu.Unlock()

		if item.disp.IsDisposed() {
			continue
		}
		if wait := time.Until(item.at); wait > 0 {
			time.Sleep(wait)
		}
		if item.disp.IsDisposed() {
			continue
		}
		r := item.task()
		if !r.done {
			next := time.Now().Add(r.delay)
			w.mu.Lock()
			if !w.disposed {
				w.seq++
				heap.Push(&w.queue, &trampolineItem{at: next, seq: w.seq, task: item.task, disp: item.disp})
			}
			w.mu.Unlock()
		}
	}
}

// ---- new_thread ----

type newThreadScheduler struct{}

// NewThread spawns one dedicated goroutine per Worker, draining a
// delay-aware priority queue of scheduled tasks. A task whose Disposable
// was disposed before its fire time is discarded, never invoked.
var NewThread Scheduler = newThreadScheduler{}

func (newThreadScheduler) Worker() Worker {
	w := &queueWorker{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
	}
	go w.run()
	return w
}

type queueWorker struct {
	mu       sync.Mutex
	disposed bool
	seq      uint64
	queue    trampolineQueue
	wake     chan struct{}
	stop     chan struct{}
}

func (w *queueWorker) Dispose() {
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return
	}
	w.disposed = true
	w.queue = nil
	w.mu.Unlock()
	close(w.stop)
}

func (w *queueWorker) IsDisposed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.disposed
}

func (w *queueWorker) Schedule(task Task) Disposable {
	return w.ScheduleAt(time.Now(), task)
}

func (w *queueWorker) ScheduleAt(at time.Time, task Task) Disposable {
	d := &leafDisposable{}
	w.mu.Lock()
	if w.disposed {
		w.mu.Unlock()
		return d
	}
	w.seq++
	heap.Push(&w.queue, &trampolineItem{at: at, seq: w.seq, task: task, disp: d})
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return d
}

func (w *queueWorker) run() {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()
	for {
		w.mu.Lock()
		if w.disposed {
			w.mu.Unlock()
			return
		}
		var wait time.Duration
		var item *trampolineItem
		if w.queue.Len() > 0 {
			item = w.queue[0]
			wait = time.Until(item.at)
		} else {
			wait = time.Hour
		}
		w.mu.Unlock()

		if item != nil && wait <= 0 {
			w.mu.Lock()
			if w.queue.Len() > 0 && w.queue[0] == item {
				heap.Pop(&w.queue)
			}
			w.mu.Unlock()

			if item.disp.IsDisposed() {
				continue
			}
			r := item.task()
			if !r.done {
				w.mu.Lock()
				if !w.disposed {
					w.seq++
					heap.Push(&w.queue, &trampolineItem{at: time.Now().Add(r.delay), seq: w.seq, task: item.task, disp: item.disp})
				}
				w.mu.Unlock()
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)

		select {
		case <-w.stop:
			return
		case <-w.wake:
		case <-timer.C:
		}
	}
}

// ---- thread_pool ----

// ThreadPool is a Scheduler whose Workers run each scheduled task on a
// goroutine of its own, at most n tasks at a time across the whole pool,
// joined with an errgroup.Group so that a panicking task surfaces instead
// of silently killing one worker goroutine. Tasks scheduled on the same
// ThreadPool Worker may run concurrently and in any order.
type ThreadPool struct {
	group *errgroup.Group
	sem   chan struct{}
}

// NewThreadPool builds a ThreadPool scheduler that runs at most n tasks
// concurrently.
func NewThreadPool(n int) *ThreadPool {
	g := new(errgroup.Group)
	return &ThreadPool{group: g, sem: make(chan struct{}, n)}
}

func (p *ThreadPool) Worker() Worker {
	return &poolWorker{pool: p, disp: NewDisposable(nil).(*leafDisposable)}
}

// Wait blocks until every task submitted to any worker of this pool has
// returned, surfacing the first panic (re-wrapped as an error) if any.
func (p *ThreadPool) Wait() error {
	return p.group.Wait()
}

type poolWorker struct {
	pool *ThreadPool
	disp *leafDisposable
}

func (w *poolWorker) Dispose()         { w.disp.Dispose() }
func (w *poolWorker) IsDisposed() bool { return w.disp.IsDisposed() }

func (w *poolWorker) Schedule(task Task) Disposable {
	return w.ScheduleAt(time.Now(), task)
}

func (w *poolWorker) ScheduleAt(at time.Time, task Task) Disposable {
	d := &leafDisposable{}
	w.pool.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = panicError{r}
			}
		}()
		w.pool.sem <- struct{}{}
		defer func() { <-w.pool.sem }()

		if wait := time.Until(at); wait > 0 {
			time.Sleep(wait)
		}
		for {
			if d.IsDisposed() || w.IsDisposed() {
				return nil
			}
			r := task()
			if r.done {
				return nil
			}
			if r.delay > 0 {
				time.Sleep(r.delay)
			}
		}
	})
	return d
}

type panicError struct{ value any }

func (p panicError) Error() string { return "rpp: task panicked" }
