// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Jussi Maki

package rpp

import "sync"

// BehaviorSubject is a PublishSubject of one retained value: every new
// subscriber is synchronously handed the current value before being
// spliced into the live observer set, and GetValue returns it without
// subscribing.
type BehaviorSubject[T any] struct {
	mu          sync.Mutex
	current     T
	observers   []*Observer[T]
	hasTerminal bool
	terminalErr error
}

// NewBehaviorSubject returns a BehaviorSubject whose current value starts
// at seed.
func NewBehaviorSubject[T any](seed T) *BehaviorSubject[T] {
	return &BehaviorSubject[T]{current: seed}
}

// Observable returns the subscribable side of the subject.
func (s *BehaviorSubject[T]) Observable() Observable[T] {
	return FuncObservable[T](s.subscribe)
}

func (s *BehaviorSubject[T]) subscribe(down *Observer[T]) {
	s.mu.Lock()
	if s.hasTerminal {
		err := s.terminalErr
		s.mu.Unlock()
		deliverTerminal(down, err)
		return
	}
	value := s.current
	s.mu.Unlock()

	// Deliver the current value before splicing into the live set, so a
	// value published concurrently with this Subscribe call is either
	// entirely missed or entirely captured by the splice below — never
	// delivered twice or out of order.
	down.Next(value)
	if down.IsDisposed() {
		return
	}

	s.mu.Lock()
	if s.hasTerminal {
		err := s.terminalErr
		s.mu.Unlock()
		deliverTerminal(down, err)
		return
	}
	s.observers = append(s.observers, down)
	s.mu.Unlock()

	down.SetUpstream(NewDisposable(func() { s.remove(down) }))
}

func (s *BehaviorSubject[T]) remove(down *Observer[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == down {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

// Next updates the current value and multicasts it to every live
// observer.
func (s *BehaviorSubject[T]) Next(v T) {
	s.mu.Lock()
	s.current = v
	snapshot := append([]*Observer[T](nil), s.observers...)
	s.mu.Unlock()

	for _, o := range snapshot {
		if !o.IsDisposed() {
			o.Next(v)
		}
	}
}

// Error is the terminal counterpart of Next, first-terminal-wins.
func (s *BehaviorSubject[T]) Error(err error) { s.terminal(err) }

// Completed is Error with a nil error.
func (s *BehaviorSubject[T]) Completed() { s.terminal(nil) }

func (s *BehaviorSubject[T]) terminal(err error) {
	s.mu.Lock()
	if s.hasTerminal {
		s.mu.Unlock()
		return
	}
	s.hasTerminal = true
	s.terminalErr = err
	snapshot := s.observers
	s.observers = nil
	s.mu.Unlock()

	for _, o := range snapshot {
		deliverTerminal(o, err)
	}
}

// GetValue atomically returns the current value. Its behavior once the
// subject has seen a terminal error is left unspecified by the source
// material this library ports; this implementation keeps returning the
// last value seen by Next regardless of any later terminal event — it
// neither errors nor panics.
func (s *BehaviorSubject[T]) GetValue() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}
